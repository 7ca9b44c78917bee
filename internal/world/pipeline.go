package world

import (
	"context"
	"strconv"
	"time"

	"github.com/annel0/voxel-stream/internal/eventbus"
	"github.com/annel0/voxel-stream/internal/logging"
	"github.com/annel0/voxel-stream/internal/vec"
)

// Типы событий жизненного цикла чанков, публикуемых в шину.
const (
	EventChunkCreated   = "chunk.created"
	EventChunkGenerated = "chunk.generated"
	EventChunkMeshed    = "chunk.meshed"
	EventChunkDrawn     = "chunk.drawn"
	EventChunkHidden    = "chunk.hidden"
	EventChunkArchived  = "chunk.archived"
	EventChunkRestored  = "chunk.restored"
)

// eventSource имя компонента-источника в конвертах событий
const eventSource = "pipeline"

// maxResultsPerTick ограничивает число результатов фоновых задач,
// применяемых за один тик, чтобы всплеск завершений не растягивал кадр.
const maxResultsPerTick = 256

// PipelineSettings параметры продвижения и выгрузки чанков
type PipelineSettings struct {
	// DrainLimit — максимум действий, диспетчеризуемых за тик.
	DrainLimit int
	// BusyReset — интервал полной очистки множества занятых координат.
	BusyReset time.Duration
	// UnloadRadius — за этим радиусом (в чанках, по горизонтальным осям)
	// видимые чанки скрываются.
	UnloadRadius int
	// UnloadRadiusHeight — то же по вертикальной оси.
	UnloadRadiusHeight int
	// ArchiveEnabled включает сжатие буферов далёких чанков.
	ArchiveEnabled bool
	// ArchiveRadius — за этим радиусом буферы архивируются.
	ArchiveRadius int
}

// PipelineDeps зависимости конвейера. Шина и метрики опциональны.
type PipelineDeps struct {
	Registry  *ChunkRegistry
	Discovery *Discovery
	Scheduler *Scheduler
	Generator *Generator
	Mesher    *Mesher
	Archiver  *VoxelArchiver
	Meshes    MeshStore
	Sink      RenderSink
	Bus       eventbus.EventBus
	Metrics   *PipelineMetrics
}

// Pipeline продвигает чанки по жизненному циклу: обход окрестности,
// диспетчеризация действий, применение результатов фоновых задач и
// выгрузка далёких чанков. Все методы вызываются из одного потока;
// параллелизм ограничен фоновыми задачами планировщика.
type Pipeline struct {
	registry  *ChunkRegistry
	discovery *Discovery
	scheduler *Scheduler
	generator *Generator
	mesher    *Mesher
	archiver  *VoxelArchiver
	busySet   *BusySet
	meshes    MeshStore
	sink      RenderSink
	bus       eventbus.EventBus
	metrics   *PipelineMetrics
	settings  PipelineSettings

	// pending — действия, не поместившиеся в лимит диспетчеризации
	// прошлых тиков.
	pending []Action

	visible int
}

// NewPipeline создаёт конвейер из собранных зависимостей
func NewPipeline(settings PipelineSettings, deps PipelineDeps) *Pipeline {
	if settings.DrainLimit < 1 {
		settings.DrainLimit = 1
	}
	if settings.BusyReset <= 0 {
		settings.BusyReset = 150 * time.Millisecond
	}

	return &Pipeline{
		registry:  deps.Registry,
		discovery: deps.Discovery,
		scheduler: deps.Scheduler,
		generator: deps.Generator,
		mesher:    deps.Mesher,
		archiver:  deps.Archiver,
		busySet:   NewBusySet(settings.BusyReset),
		meshes:    deps.Meshes,
		sink:      deps.Sink,
		bus:       deps.Bus,
		metrics:   deps.Metrics,
		settings:  settings,
	}
}

// Tick выполняет один шаг конвейера: применяет готовые результаты,
// обходит окрестность наблюдателя, диспетчеризует ограниченную порцию
// действий и выгружает далёкие чанки.
func (p *Pipeline) Tick(view Viewpoint, now time.Time) {
	start := time.Now()

	p.applyResults()
	p.busySet.MaybeClear(now)

	pos := view.Position()
	if p.discovery.ShouldScan(pos, now) {
		p.pending = append(p.pending, p.discovery.Scan(view, p.busySet, now)...)
	}

	p.drain()
	p.unload(pos)

	p.metrics.SetGauges(p.registry.Len(), p.visible, p.scheduler.Inflight())
	p.metrics.ObserveTick(time.Since(start).Seconds())
}

// UpdateSettings применяет новые параметры продвижения между тиками
// (горячая перезагрузка конфигурации). Смена параметров генерации или
// меширования выполняется заменой компонентов через SetGenerator/SetMesher.
func (p *Pipeline) UpdateSettings(settings PipelineSettings) {
	if settings.DrainLimit < 1 {
		settings.DrainLimit = 1
	}
	if settings.BusyReset <= 0 {
		settings.BusyReset = 150 * time.Millisecond
	}
	p.settings = settings
	p.busySet.interval = settings.BusyReset
}

// SetGenerator заменяет генератор. Уже отправленные задачи доработают со
// старым: замыкание задачи захватывает генератор на момент диспетчеризации.
func (p *Pipeline) SetGenerator(g *Generator) {
	p.generator = g
}

// SetMesher заменяет построитель мешей
func (p *Pipeline) SetMesher(m *Mesher) {
	p.mesher = m
}

// Shutdown останавливает фоновых воркеров и освобождает архиватор
func (p *Pipeline) Shutdown() {
	p.scheduler.Shutdown()
	if p.archiver != nil {
		p.archiver.Close()
	}
}

// PendingActions возвращает количество недиспетчеризованных действий
func (p *Pipeline) PendingActions() int {
	return len(p.pending)
}

// drain диспетчеризует до DrainLimit действий из очереди
func (p *Pipeline) drain() {
	limit := p.settings.DrainLimit
	if limit > len(p.pending) {
		limit = len(p.pending)
	}

	for _, action := range p.pending[:limit] {
		p.dispatch(action)
	}

	rest := len(p.pending) - limit
	copy(p.pending, p.pending[limit:])
	p.pending = p.pending[:rest]
}

// dispatch выполняет одно действие. Создание и показ синхронны; генерация,
// построение меша и распаковка уходят в планировщик.
func (p *Pipeline) dispatch(action Action) {
	switch action.Kind {
	case ActionCreate:
		p.dispatchCreate(action)
	case ActionGenerate:
		p.dispatchGenerate(action)
	case ActionMesh:
		p.dispatchMesh(action)
	case ActionDraw:
		p.dispatchDraw(action)
	case ActionRestore:
		p.dispatchRestore(action)
	}
}

func (p *Pipeline) dispatchCreate(action Action) {
	chunk, created := p.registry.InsertIfAbsent(action.Coords)
	chunk.SetLOD(action.LOD)
	if created {
		p.publish(EventChunkCreated, action.Coords)
	}
}

func (p *Pipeline) dispatchGenerate(action Action) {
	chunk, ok := p.registry.Get(action.Coords)
	if !ok || !chunk.MarkBusy() {
		return
	}

	worldPos := chunk.WorldPosition()
	w, h, d := chunk.Dimensions()
	gen := p.generator

	submitted := p.scheduler.Submit(Task{
		Kind:   TaskGenerate,
		Coords: action.Coords,
		Run: func() TaskResult {
			return TaskResult{Voxels: gen.Generate(worldPos, w, h, d)}
		},
	})
	if !submitted {
		chunk.Lower(FlagBusy)
	}
}

func (p *Pipeline) dispatchMesh(action Action) {
	chunk, ok := p.registry.Get(action.Coords)
	if !ok || !chunk.MarkBusy() {
		return
	}

	snapshot := chunk.SnapshotVoxels()
	if snapshot == nil {
		chunk.Lower(FlagBusy)
		return
	}

	w, h, d := chunk.Dimensions()
	lod := chunk.LOD()

	var neighbors NeighborBuffers
	for i, n := range p.registry.Neighbors(action.Coords) {
		if n != nil {
			neighbors[i] = n.SnapshotVoxels()
		}
	}

	mesher := p.mesher
	submitted := p.scheduler.Submit(Task{
		Kind:   TaskMesh,
		Coords: action.Coords,
		Run: func() TaskResult {
			return TaskResult{Mesh: mesher.BuildMesh(snapshot, w, h, d, neighbors, lod)}
		},
	})
	if !submitted {
		chunk.Lower(FlagBusy)
	}
}

func (p *Pipeline) dispatchDraw(action Action) {
	chunk, ok := p.registry.Get(action.Coords)
	if !ok {
		return
	}

	flags := chunk.Flags()
	if !flags.Has(FlagMeshed) || flags.Has(FlagDrawn) || flags.Has(FlagBusy) {
		return
	}

	meshID := chunk.MeshID()
	if meshID == 0 {
		return
	}

	renderID := p.sink.Draw(meshID, chunk.WorldPosition().ToFloat(), chunk.RenderID())
	chunk.SetRenderID(renderID)
	chunk.Raise(FlagDrawn)
	p.visible++

	p.metrics.IncDrawn()
	p.publish(EventChunkDrawn, action.Coords)
}

func (p *Pipeline) dispatchRestore(action Action) {
	chunk, ok := p.registry.Get(action.Coords)
	if !ok || p.archiver == nil || !chunk.MarkBusy() {
		return
	}

	data := chunk.ArchivedData()
	if data == nil {
		chunk.Lower(FlagBusy)
		return
	}

	w, h, d := chunk.Dimensions()
	expected := w * h * d

	submitted := p.scheduler.Submit(Task{
		Kind:   TaskRestore,
		Coords: action.Coords,
		Run: func() TaskResult {
			voxels, err := p.archiver.Decompress(data, expected)
			return TaskResult{Voxels: voxels, Err: err}
		},
	})
	if !submitted {
		chunk.Lower(FlagBusy)
	}
}

// applyResults забирает готовые результаты фоновых задач и применяет их к
// чанкам. Единственное место, где снимается FlagBusy после успешной или
// неуспешной задачи.
func (p *Pipeline) applyResults() {
	for _, result := range p.scheduler.Poll(maxResultsPerTick) {
		chunk, ok := p.registry.Get(result.Coords)
		if !ok {
			continue
		}

		if result.Err != nil {
			logging.Warn("Задача %s для чанка %v завершилась ошибкой: %v", result.Kind, result.Coords, result.Err)
			p.metrics.IncTaskFailure()
			chunk.Lower(FlagBusy)
			continue
		}

		switch result.Kind {
		case TaskGenerate:
			p.applyGenerate(chunk, result)
		case TaskMesh:
			p.applyMesh(chunk, result)
		case TaskRestore:
			p.applyRestore(chunk, result)
		}
	}
}

func (p *Pipeline) applyGenerate(chunk *Chunk, result TaskResult) {
	if !chunk.AdoptVoxels(result.Voxels) {
		logging.Warn("Буфер генерации для чанка %v имеет неверный размер", result.Coords)
		chunk.Lower(FlagBusy)
		return
	}

	chunk.Transition(FlagGenerated|FlagDirty, FlagBusy)
	p.metrics.IncGenerated()
	p.publish(EventChunkGenerated, result.Coords)
}

func (p *Pipeline) applyMesh(chunk *Chunk, result TaskResult) {
	meshID := chunk.MeshID()
	if meshID == 0 || !p.meshes.Replace(meshID, result.Mesh) {
		meshID = p.meshes.Add(result.Mesh)
		chunk.SetMeshID(meshID)
	}

	chunk.Transition(FlagMeshed, FlagDirty|FlagBusy)
	p.metrics.IncMeshed()
	p.publish(EventChunkMeshed, result.Coords)

	// Видимый чанк сразу получает свежий меш, без повторного прохода
	// через обход окрестности.
	if chunk.Flags().Has(FlagDrawn) {
		renderID := p.sink.Draw(meshID, chunk.WorldPosition().ToFloat(), chunk.RenderID())
		chunk.SetRenderID(renderID)
	}
}

func (p *Pipeline) applyRestore(chunk *Chunk, result TaskResult) {
	if !chunk.AdoptVoxels(result.Voxels) {
		logging.Warn("Распакованный буфер для чанка %v имеет неверный размер", result.Coords)
		chunk.Lower(FlagBusy)
		return
	}

	// Восстановленный чанк уже сгенерирован; меш требуется перестроить.
	chunk.Transition(FlagGenerated|FlagDirty, FlagMeshed|FlagBusy)
	p.metrics.IncRestored()
	p.publish(EventChunkRestored, result.Coords)
}

// unload скрывает чанки за радиусом видимости и архивирует буферы чанков
// за радиусом архивации. Дескриптор отрисовки сохраняется, чтобы показ
// после возвращения в радиус переиспользовал сущность.
func (p *Pipeline) unload(pos vec.Vec3Float) {
	dims := p.registry.ChunkDims()
	center := p.registry.ChunkOrigin(pos.ToVec3())

	p.registry.ForEach(func(chunk *Chunk) {
		wp := chunk.WorldPosition()
		dx := abs((wp.X - center.X) / dims.X)
		dy := abs((wp.Y - center.Y) / dims.Y)
		dz := abs((wp.Z - center.Z) / dims.Z)

		// Гистерезис в один чанк: скрытие начинается на радиусе + 1,
		// чтобы чанки на границе не мерцали.
		beyond := dx-1 > p.settings.UnloadRadius ||
			dy-1 > p.settings.UnloadRadiusHeight ||
			dz-1 > p.settings.UnloadRadius

		flags := chunk.Flags()
		if beyond && flags.Has(FlagDrawn) {
			p.sink.Hide(chunk.RenderID())
			chunk.Lower(FlagDrawn)
			p.visible--
			p.metrics.IncHidden()
			p.publish(EventChunkHidden, wp)
			flags = chunk.Flags()
		}

		if !p.settings.ArchiveEnabled || p.archiver == nil {
			return
		}

		farEnough := dx > p.settings.ArchiveRadius ||
			dy > p.settings.ArchiveRadius ||
			dz > p.settings.ArchiveRadius
		if !farEnough || flags.Has(FlagBusy) || flags.Has(FlagDrawn) ||
			!flags.Has(FlagGenerated) || chunk.IsArchived() {
			return
		}

		snapshot := chunk.SnapshotVoxels()
		if snapshot == nil {
			return
		}

		chunk.SetArchived(p.archiver.Compress(snapshot))
		chunk.Lower(FlagMeshed | FlagDirty)
		p.metrics.IncArchived()
		p.publish(EventChunkArchived, wp)
	})
}

// publish отправляет событие жизненного цикла в шину, если она подключена
func (p *Pipeline) publish(eventType string, coords vec.Vec3) {
	if p.bus == nil {
		return
	}

	meta := map[string]string{
		"x": strconv.Itoa(coords.X),
		"y": strconv.Itoa(coords.Y),
		"z": strconv.Itoa(coords.Z),
	}
	_ = p.bus.Publish(context.Background(), eventbus.NewEnvelope(eventSource, eventType, meta))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
