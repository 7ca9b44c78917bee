package world

import (
	"sync"

	"github.com/annel0/voxel-stream/internal/vec"
)

// Chunk представляет кубоидный участок мира фиксированного размера.
// Воксели хранятся плотным буфером в порядке x, затем y, затем z
// (index = x + y*width + z*width*height). Буфером владеет реестр;
// фоновая задача работает только с копией-снимком, полученной через
// SnapshotVoxels, и никогда не держит живую ссылку на буфер.
type Chunk struct {
	mu sync.RWMutex

	voxels []Voxel
	width  int
	height int
	depth  int

	flags ChunkFlags
	lod   int

	meshID   MeshID
	renderID RenderID

	worldPos vec.Vec3

	// archived содержит сжатый воксельный буфер, когда чанк выгружен
	// политикой архивации; при этом voxels == nil.
	archived []byte
}

// NewChunk создаёт чанк указанных размеров с воксельным буфером по умолчанию
// и полностью сброшенными флагами.
func NewChunk(width, height, depth int, worldPos vec.Vec3) *Chunk {
	voxels := make([]Voxel, width*height*depth)
	for i := range voxels {
		voxels[i] = DefaultVoxel()
	}

	return &Chunk{
		voxels:   voxels,
		width:    width,
		height:   height,
		depth:    depth,
		worldPos: worldPos,
	}
}

// Dimensions возвращает размеры чанка в вокселях
func (c *Chunk) Dimensions() (int, int, int) {
	return c.width, c.height, c.depth
}

// WorldPosition возвращает мировую координату-якорь чанка (его начало)
func (c *Chunk) WorldPosition() vec.Vec3 {
	return c.worldPos
}

// index вычисляет линейный индекс вокселя в буфере
func (c *Chunk) index(x, y, z int) int {
	return x + y*c.width + z*c.width*c.height
}

// VoxelAt возвращает воксель по локальным координатам.
// Второй результат false, если координаты вне границ чанка или буфер
// выгружен архивацией.
func (c *Chunk) VoxelAt(x, y, z int) (Voxel, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.voxels == nil || x < 0 || y < 0 || z < 0 || x >= c.width || y >= c.height || z >= c.depth {
		return Voxel{}, false
	}
	return c.voxels[c.index(x, y, z)], true
}

// SetVoxel устанавливает воксель по локальным координатам и помечает чанк
// как требующий перестроения меша.
func (c *Chunk) SetVoxel(x, y, z int, v Voxel) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.voxels == nil || x < 0 || y < 0 || z < 0 || x >= c.width || y >= c.height || z >= c.depth {
		return
	}
	c.voxels[c.index(x, y, z)] = v
	c.flags = c.flags.With(FlagDirty)
}

// SnapshotVoxels возвращает копию воксельного буфера для передачи в фоновую
// задачу. Возвращает nil, если буфер выгружен.
func (c *Chunk) SnapshotVoxels() []Voxel {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.voxels == nil {
		return nil
	}
	snapshot := make([]Voxel, len(c.voxels))
	copy(snapshot, c.voxels)
	return snapshot
}

// AdoptVoxels заменяет воксельный буфер результатом фоновой задачи.
// Длина буфера должна соответствовать размерам чанка.
func (c *Chunk) AdoptVoxels(voxels []Voxel) bool {
	if len(voxels) != c.width*c.height*c.depth {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.voxels = voxels
	c.archived = nil
	return true
}

// Flags возвращает текущий набор флагов
func (c *Chunk) Flags() ChunkFlags {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.flags
}

// Raise устанавливает указанные биты флагов
func (c *Chunk) Raise(flags ChunkFlags) {
	c.mu.Lock()
	c.flags = c.flags.With(flags)
	c.mu.Unlock()
}

// Lower сбрасывает указанные биты флагов
func (c *Chunk) Lower(flags ChunkFlags) {
	c.mu.Lock()
	c.flags = c.flags.Without(flags)
	c.mu.Unlock()
}

// Transition атомарно устанавливает биты set и сбрасывает биты clear.
// Единственная точка применения результатов задач: гарантирует, что Busy
// снимается тем же переходом, который фиксирует результат.
func (c *Chunk) Transition(set, clear ChunkFlags) {
	c.mu.Lock()
	c.flags = c.flags.With(set).Without(clear)
	c.mu.Unlock()
}

// MarkBusy выставляет FlagBusy, если он ещё не установлен.
// Возвращает false, если чанк уже занят другой операцией.
func (c *Chunk) MarkBusy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.flags.Has(FlagBusy) {
		return false
	}
	c.flags = c.flags.With(FlagBusy)
	return true
}

// LOD возвращает текущий уровень детализации чанка
func (c *Chunk) LOD() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lod
}

// SetLOD устанавливает уровень детализации. Изменение уровня делает
// существующий меш устаревшим.
func (c *Chunk) SetLOD(lod int) {
	if lod < 0 {
		lod = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lod != lod {
		c.lod = lod
		if c.flags.Has(FlagGenerated) {
			c.flags = c.flags.With(FlagDirty)
		}
	}
}

// MeshID возвращает дескриптор меша чанка (0 — меша нет)
func (c *Chunk) MeshID() MeshID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.meshID
}

// SetMeshID запоминает дескриптор построенного меша
func (c *Chunk) SetMeshID(id MeshID) {
	c.mu.Lock()
	c.meshID = id
	c.mu.Unlock()
}

// RenderID возвращает дескриптор отрисовываемой сущности (0 — сущности нет)
func (c *Chunk) RenderID() RenderID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.renderID
}

// SetRenderID запоминает дескриптор отрисовываемой сущности.
// Дескриптор переживает циклы показа/скрытия, чтобы не пересоздавать
// сущность при каждом возврате чанка в радиус видимости.
func (c *Chunk) SetRenderID(id RenderID) {
	c.mu.Lock()
	c.renderID = id
	c.mu.Unlock()
}

// IsArchived сообщает, выгружен ли воксельный буфер архивацией
func (c *Chunk) IsArchived() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.archived != nil
}

// SetArchived замещает воксельный буфер его сжатым представлением
func (c *Chunk) SetArchived(data []byte) {
	c.mu.Lock()
	c.archived = data
	c.voxels = nil
	c.mu.Unlock()
}

// ArchivedData возвращает сжатое представление буфера (nil, если чанк не
// архивирован)
func (c *Chunk) ArchivedData() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.archived
}
