package world

import (
	"math"
	"time"

	"github.com/annel0/voxel-stream/internal/vec"
)

// ActionKind вид действия, запрошенного обходом окрестности
type ActionKind int

const (
	// ActionCreate — зарегистрировать чанк для координаты.
	ActionCreate ActionKind = iota
	// ActionGenerate — заполнить воксельный буфер чанка.
	ActionGenerate
	// ActionMesh — построить или перестроить меш чанка.
	ActionMesh
	// ActionDraw — показать готовый меш.
	ActionDraw
	// ActionRestore — распаковать архивированный буфер.
	ActionRestore
)

// String возвращает имя вида действия
func (k ActionKind) String() string {
	switch k {
	case ActionCreate:
		return "create"
	case ActionGenerate:
		return "generate"
	case ActionMesh:
		return "mesh"
	case ActionDraw:
		return "draw"
	case ActionRestore:
		return "restore"
	default:
		return "unknown"
	}
}

// Action запрос на продвижение одного чанка по жизненному циклу
type Action struct {
	Kind   ActionKind
	Coords vec.Vec3
	LOD    int
}

// Viewpoint точка наблюдения, вокруг которой обходится окрестность.
// Фрустум опционален: при его отсутствии фильтрация не выполняется.
type Viewpoint interface {
	Position() vec.Vec3Float
	Frustum() (Frustum, bool)
}

// BusySet множество координат, по которым действие уже отправлено в очередь,
// но чанк мог ещё не выставить FlagBusy. Закрывает зазор между эмиссией
// действия и его диспетчеризацией; периодически очищается целиком, чтобы
// потерянное действие не блокировало чанк навсегда.
type BusySet struct {
	coords    map[vec.Vec3]struct{}
	lastClear time.Time
	interval  time.Duration
}

// NewBusySet создаёт множество с указанным интервалом полной очистки
func NewBusySet(interval time.Duration) *BusySet {
	return &BusySet{
		coords:   make(map[vec.Vec3]struct{}),
		interval: interval,
	}
}

// Add добавляет координату в множество
func (b *BusySet) Add(coords vec.Vec3) {
	b.coords[coords] = struct{}{}
}

// Contains проверяет наличие координаты
func (b *BusySet) Contains(coords vec.Vec3) bool {
	_, ok := b.coords[coords]
	return ok
}

// MaybeClear очищает множество, если с прошлой очистки прошёл интервал.
// Возвращает true, если очистка произошла.
func (b *BusySet) MaybeClear(now time.Time) bool {
	if now.Sub(b.lastClear) < b.interval {
		return false
	}
	b.coords = make(map[vec.Vec3]struct{})
	b.lastClear = now
	return true
}

// Len возвращает количество координат в множестве
func (b *BusySet) Len() int {
	return len(b.coords)
}

// DiscoverySettings параметры обхода окрестности точки наблюдения
type DiscoverySettings struct {
	// Radius — радиус окрестности в чанках по горизонтальным осям.
	Radius int
	// RadiusHeight — радиус по вертикальной оси.
	RadiusHeight int
	// UseFrustum включает фильтрацию чанков фрустумом камеры.
	UseFrustum bool
	// LODEnabled включает понижение детализации с расстоянием.
	LODEnabled bool
	// LODDistance — расстояние в чанках на один уровень детализации.
	LODDistance float64
	// LODMax — максимальный уровень детализации.
	LODMax int
}

// forcedScanInterval предельный возраст результата обхода: даже без движения
// наблюдателя окрестность пересматривается не реже этого интервала.
const forcedScanInterval = 500 * time.Millisecond

// Discovery обходит окрестность точки наблюдения и выпускает действия по
// чанкам, которым требуется работа. Вызывается только из главного потока.
type Discovery struct {
	settings DiscoverySettings
	registry *ChunkRegistry

	lastPos    vec.Vec3Float
	lastScan   time.Time
	hasScanned bool
}

// NewDiscovery создаёт обходчик окрестности над реестром
func NewDiscovery(settings DiscoverySettings, registry *ChunkRegistry) *Discovery {
	if settings.LODDistance <= 0 {
		settings.LODDistance = 1
	}
	return &Discovery{
		settings: settings,
		registry: registry,
	}
}

// UpdateSettings применяет новые параметры обхода. Вызывается только из
// главного потока между тиками (горячая перезагрузка конфигурации).
func (d *Discovery) UpdateSettings(settings DiscoverySettings) {
	if settings.LODDistance <= 0 {
		settings.LODDistance = 1
	}
	d.settings = settings
}

// ShouldScan сообщает, нужен ли обход на этом тике. Обход пропускается,
// пока наблюдатель сместился меньше чем на единицу и результат прошлого
// обхода ещё свеж.
func (d *Discovery) ShouldScan(pos vec.Vec3Float, now time.Time) bool {
	if !d.hasScanned {
		return true
	}
	if pos.Sub(d.lastPos).LengthSq() >= 1.0 {
		return true
	}
	return now.Sub(d.lastScan) >= forcedScanInterval
}

// Scan обходит окрестность точки наблюдения и возвращает действия в
// детерминированном порядке обхода. На каждый чанк за проход выпускается
// не более одного действия.
func (d *Discovery) Scan(view Viewpoint, busy *BusySet, now time.Time) []Action {
	pos := view.Position()
	d.lastPos = pos
	d.lastScan = now
	d.hasScanned = true

	frustum, hasFrustum := view.Frustum()
	useFrustum := d.settings.UseFrustum && hasFrustum

	dims := d.registry.ChunkDims()
	center := d.registry.ChunkOrigin(pos.ToVec3())

	var actions []Action
	for dx := -d.settings.Radius; dx <= d.settings.Radius; dx++ {
		for dy := -d.settings.RadiusHeight; dy <= d.settings.RadiusHeight; dy++ {
			for dz := -d.settings.Radius; dz <= d.settings.Radius; dz++ {
				coords := center.Add(vec.Vec3{
					X: dx * dims.X,
					Y: dy * dims.Y,
					Z: dz * dims.Z,
				})

				// Чанк наблюдателя обрабатывается всегда, даже если
				// консервативный тест отсёк его на кромке фрустума.
				if useFrustum && (dx != 0 || dy != 0 || dz != 0) {
					box := AABB{
						Min: coords.ToFloat(),
						Max: coords.Add(dims).ToFloat(),
					}
					if !frustum.IntersectsAABB(box) {
						continue
					}
				}

				if busy.Contains(coords) {
					continue
				}

				action, ok := d.evaluate(coords, d.lodForOffset(dx, dy, dz))
				if !ok {
					continue
				}
				if action.Kind != ActionCreate && action.Kind != ActionDraw {
					busy.Add(coords)
				}
				actions = append(actions, action)
			}
		}
	}

	return actions
}

// evaluate решает, какое действие нужно чанку по координате, исходя из его
// флагов. Возвращает не более одного действия.
func (d *Discovery) evaluate(coords vec.Vec3, lod int) (Action, bool) {
	chunk, ok := d.registry.Get(coords)
	if !ok {
		return Action{Kind: ActionCreate, Coords: coords, LOD: lod}, true
	}

	flags := chunk.Flags()
	if flags.Has(FlagBusy) {
		return Action{}, false
	}

	// Смена уровня детализации делает существующий меш устаревшим.
	chunk.SetLOD(lod)
	flags = chunk.Flags()

	switch {
	case chunk.IsArchived():
		return Action{Kind: ActionRestore, Coords: coords, LOD: lod}, true
	case !flags.Has(FlagGenerated) && !flags.Has(FlagMeshed):
		return Action{Kind: ActionGenerate, Coords: coords, LOD: lod}, true
	case flags.Has(FlagMeshed) && !flags.Has(FlagDrawn):
		return Action{Kind: ActionDraw, Coords: coords, LOD: lod}, true
	case flags.Has(FlagDirty):
		return Action{Kind: ActionMesh, Coords: coords, LOD: lod}, true
	}
	return Action{}, false
}

// lodForOffset отображает смещение чанка от наблюдателя в уровень
// детализации: уровень растёт ступенями по LODDistance чанков.
func (d *Discovery) lodForOffset(dx, dy, dz int) int {
	if !d.settings.LODEnabled {
		return 0
	}

	ax := math.Abs(float64(dx))
	ay := math.Abs(float64(dy))
	az := math.Abs(float64(dz))
	dist := math.Min(ax, math.Min(ay, az))

	lod := int(math.Round(dist / d.settings.LODDistance))
	if lod < 0 {
		lod = 0
	}
	if lod > d.settings.LODMax {
		lod = d.settings.LODMax
	}
	return lod
}
