package world

import (
	"github.com/annel0/voxel-stream/internal/vec"
)

// ChunkID скалярный идентификатор чанка, полученный линеаризацией
// координат. Детерминирован: DomainToID и IDToDomain — точные обратные
// функции на всём поддерживаемом диапазоне координат.
type ChunkID int64

// ChunkRegistry отображает мировые координаты на чанки, которые их
// пространственно содержат. Владеет всеми чанками. Сама карта изменяется
// только из главного потока (вставка, удаление); фоновые задачи работают
// исключительно с копиями содержимого чанков.
type ChunkRegistry struct {
	chunkDims vec.Vec3 // размеры чанка по осям
	gridSize  int64    // основание системы счисления id; ограничивает протяжённость мира
	chunks    map[ChunkID]*Chunk
}

// NewChunkRegistry создаёт пустой реестр. gridSize должен быть согласован
// с максимальной протяжённостью мира (см. config.Validate): при слишком
// малом значении два разных чанка получили бы один id.
func NewChunkRegistry(chunkDims vec.Vec3, gridSize int64) *ChunkRegistry {
	return &ChunkRegistry{
		chunkDims: chunkDims,
		gridSize:  gridSize,
		chunks:    make(map[ChunkID]*Chunk),
	}
}

// ChunkDims возвращает размеры чанка
func (r *ChunkRegistry) ChunkDims() vec.Vec3 {
	return r.chunkDims
}

// floorDiv целочисленное деление с округлением к минус бесконечности
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// DomainToID линеаризует мировую координату в идентификатор чанка.
// Координата сначала приводится к индексу ячейки делением с округлением
// вниз (все координаты внутри одного чанка дают одну ячейку), затем
// индексы сдвигаются в неотрицательный диапазон и складываются в число
// по основанию gridSize.
func (r *ChunkRegistry) DomainToID(coords vec.Vec3) ChunkID {
	k := r.gridSize
	half := k / 2

	ux := int64(floorDiv(coords.X, r.chunkDims.X)) + half
	uy := int64(floorDiv(coords.Y, r.chunkDims.Y)) + half
	uz := int64(floorDiv(coords.Z, r.chunkDims.Z)) + half

	return ChunkID((ux*k+uy)*k + uz)
}

// IDToDomain возвращает мировую координату начала чанка по идентификатору.
// Точная обратная функция к DomainToID.
func (r *ChunkRegistry) IDToDomain(id ChunkID) vec.Vec3 {
	k := r.gridSize
	half := k / 2

	n := int64(id)
	uz := n % k
	n /= k
	uy := n % k
	ux := n / k

	return vec.Vec3{
		X: int(ux-half) * r.chunkDims.X,
		Y: int(uy-half) * r.chunkDims.Y,
		Z: int(uz-half) * r.chunkDims.Z,
	}
}

// ChunkOrigin возвращает начало чанка, содержащего координату
func (r *ChunkRegistry) ChunkOrigin(coords vec.Vec3) vec.Vec3 {
	return vec.Vec3{
		X: floorDiv(coords.X, r.chunkDims.X) * r.chunkDims.X,
		Y: floorDiv(coords.Y, r.chunkDims.Y) * r.chunkDims.Y,
		Z: floorDiv(coords.Z, r.chunkDims.Z) * r.chunkDims.Z,
	}
}

// Get возвращает чанк, содержащий координату, если он существует
func (r *ChunkRegistry) Get(coords vec.Vec3) (*Chunk, bool) {
	c, ok := r.chunks[r.DomainToID(coords)]
	return c, ok
}

// InsertIfAbsent создаёт чанк для координаты, если его ещё нет.
// Гарантирует, что на один идентификатор существует ровно один чанк.
// Возвращает чанк и признак того, что он был создан этим вызовом.
func (r *ChunkRegistry) InsertIfAbsent(coords vec.Vec3) (*Chunk, bool) {
	id := r.DomainToID(coords)
	if c, ok := r.chunks[id]; ok {
		return c, false
	}

	c := NewChunk(r.chunkDims.X, r.chunkDims.Y, r.chunkDims.Z, r.IDToDomain(id))
	r.chunks[id] = c
	return c, true
}

// Remove удаляет чанк из реестра (политика вытеснения).
// Удалять чанк с незавершённой фоновой задачей нельзя; вызывающая сторона
// обязана проверить FlagBusy.
func (r *ChunkRegistry) Remove(coords vec.Vec3) {
	delete(r.chunks, r.DomainToID(coords))
}

// Neighbors возвращает шесть гранично-смежных чанков в порядке
// +x, -x, +y, -y, +z, -z. Отсутствующие соседи представлены nil.
func (r *ChunkRegistry) Neighbors(coords vec.Vec3) [6]*Chunk {
	offsets := [6]vec.Vec3{
		{X: r.chunkDims.X},
		{X: -r.chunkDims.X},
		{Y: r.chunkDims.Y},
		{Y: -r.chunkDims.Y},
		{Z: r.chunkDims.Z},
		{Z: -r.chunkDims.Z},
	}

	var result [6]*Chunk
	for i, off := range offsets {
		if c, ok := r.Get(coords.Add(off)); ok {
			result[i] = c
		}
	}
	return result
}

// ForEach вызывает fn для каждого чанка реестра
func (r *ChunkRegistry) ForEach(fn func(*Chunk)) {
	for _, c := range r.chunks {
		fn(c)
	}
}

// Len возвращает количество чанков в реестре
func (r *ChunkRegistry) Len() int {
	return len(r.chunks)
}
