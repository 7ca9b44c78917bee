package world

import (
	"sync"
	"sync/atomic"

	"github.com/annel0/voxel-stream/internal/vec"
)

// MeshID дескриптор построенного меша в хранилище мешей (0 — меша нет)
type MeshID uint64

// RenderID дескриптор отрисовываемой сущности (0 — сущности нет)
type RenderID uint64

// MeshStore хранит построенные меши по дескрипторам. Повторное построение
// меша чанка замещает данные под тем же дескриптором, не выделяя новый.
type MeshStore interface {
	// Add сохраняет меш и возвращает его новый дескриптор
	Add(mesh *MeshData) MeshID

	// Replace замещает данные под существующим дескриптором.
	// Возвращает false, если дескриптор неизвестен.
	Replace(id MeshID, mesh *MeshData) bool

	// Get возвращает меш по дескриптору
	Get(id MeshID) (*MeshData, bool)

	// Remove удаляет меш из хранилища
	Remove(id MeshID)

	// Len возвращает количество хранимых мешей
	Len() int
}

// RenderSink принимает меши для отображения. Абстрагирует вывод: в тестах и
// в просмотрщике используется памятная реализация, учитывающая видимые
// сущности.
type RenderSink interface {
	// Draw делает чанк видимым. Если reuse не равен нулю, сущность
	// переиспользуется и получает новый меш; иначе создаётся новая.
	// Возвращает дескриптор сущности.
	Draw(meshID MeshID, position vec.Vec3Float, reuse RenderID) RenderID

	// Hide скрывает сущность, не уничтожая её
	Hide(id RenderID)
}

// MemoryMeshStore потокобезопасная памятная реализация MeshStore
type MemoryMeshStore struct {
	mu     sync.Mutex
	nextID uint64
	meshes map[MeshID]*MeshData
}

// NewMemoryMeshStore создаёт пустое хранилище мешей
func NewMemoryMeshStore() *MemoryMeshStore {
	return &MemoryMeshStore{
		meshes: make(map[MeshID]*MeshData),
	}
}

// Add сохраняет меш и возвращает его дескриптор
func (s *MemoryMeshStore) Add(mesh *MeshData) MeshID {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := MeshID(s.nextID)
	s.meshes[id] = mesh
	return id
}

// Replace замещает данные под существующим дескриптором
func (s *MemoryMeshStore) Replace(id MeshID, mesh *MeshData) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.meshes[id]; !ok {
		return false
	}
	s.meshes[id] = mesh
	return true
}

// Get возвращает меш по дескриптору
func (s *MemoryMeshStore) Get(id MeshID) (*MeshData, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.meshes[id]
	return m, ok
}

// Remove удаляет меш из хранилища
func (s *MemoryMeshStore) Remove(id MeshID) {
	s.mu.Lock()
	delete(s.meshes, id)
	s.mu.Unlock()
}

// Len возвращает количество хранимых мешей
func (s *MemoryMeshStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.meshes)
}

// RenderEntity состояние одной отрисовываемой сущности
type RenderEntity struct {
	MeshID   MeshID
	Position vec.Vec3Float
	Visible  bool
}

// MemoryRenderSink памятная реализация RenderSink, учитывающая сущности и
// их видимость. Используется просмотрщиком и тестами конвейера.
type MemoryRenderSink struct {
	mu       sync.Mutex
	nextID   uint64
	entities map[RenderID]*RenderEntity

	draws atomic.Int64
	hides atomic.Int64
}

// NewMemoryRenderSink создаёт пустой приёмник отрисовки
func NewMemoryRenderSink() *MemoryRenderSink {
	return &MemoryRenderSink{
		entities: make(map[RenderID]*RenderEntity),
	}
}

// Draw делает чанк видимым, переиспользуя сущность reuse, если она задана
func (s *MemoryRenderSink) Draw(meshID MeshID, position vec.Vec3Float, reuse RenderID) RenderID {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.draws.Add(1)

	if reuse != 0 {
		if e, ok := s.entities[reuse]; ok {
			e.MeshID = meshID
			e.Position = position
			e.Visible = true
			return reuse
		}
	}

	s.nextID++
	id := RenderID(s.nextID)
	s.entities[id] = &RenderEntity{MeshID: meshID, Position: position, Visible: true}
	return id
}

// Hide скрывает сущность, не уничтожая её
func (s *MemoryRenderSink) Hide(id RenderID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hides.Add(1)
	if e, ok := s.entities[id]; ok {
		e.Visible = false
	}
}

// Entity возвращает состояние сущности по дескриптору
func (s *MemoryRenderSink) Entity(id RenderID) (RenderEntity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entities[id]
	if !ok {
		return RenderEntity{}, false
	}
	return *e, true
}

// VisibleCount возвращает количество видимых сущностей
func (s *MemoryRenderSink) VisibleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, e := range s.entities {
		if e.Visible {
			count++
		}
	}
	return count
}

// DrawCalls возвращает суммарное количество вызовов Draw
func (s *MemoryRenderSink) DrawCalls() int64 {
	return s.draws.Load()
}

// HideCalls возвращает суммарное количество вызовов Hide
func (s *MemoryRenderSink) HideCalls() int64 {
	return s.hides.Load()
}
