package world

import (
	"math"

	"github.com/annel0/voxel-stream/internal/vec"
)

// MeshSettings параметры построения мешей
type MeshSettings struct {
	// OcclusionCulling включает отсечение граней, закрытых соседними
	// заполненными вокселями.
	OcclusionCulling bool
}

// AABB осевыделенный ограничивающий параллелепипед меша в локальных
// координатах чанка.
type AABB struct {
	Min vec.Vec3Float
	Max vec.Vec3Float
}

// MeshData геометрия чанка: позиции, нормали и цвета вершин плюс индексы
// треугольников. Нормали плоские: вершины продублированы на каждый
// треугольник, индексы после финализации последовательны.
type MeshData struct {
	Positions []vec.Vec3Float
	Normals   []vec.Vec3Float
	Colors    []RGBA
	Indices   []uint32
	Bounds    AABB
}

// cubeCorners восемь углов единичного куба в порядке, согласованном с
// faceTemplates.
var cubeCorners = [8]vec.Vec3Float{
	{X: 0, Y: 0, Z: 0},
	{X: 1, Y: 0, Z: 0},
	{X: 1, Y: 1, Z: 0},
	{X: 0, Y: 1, Z: 0},
	{X: 0, Y: 0, Z: 1},
	{X: 1, Y: 0, Z: 1},
	{X: 1, Y: 1, Z: 1},
	{X: 0, Y: 1, Z: 1},
}

// faceTemplates индексы двух треугольников каждой из шести граней куба.
// Обход против часовой стрелки при взгляде снаружи.
var faceTemplates = [6][6]uint32{
	{0, 2, 1, 0, 3, 2}, // задняя, z-
	{1, 6, 5, 1, 2, 6}, // правая, x+
	{5, 7, 4, 5, 6, 7}, // передняя, z+
	{4, 3, 0, 4, 7, 3}, // левая, x-
	{3, 6, 2, 3, 7, 6}, // верхняя, y+
	{4, 1, 5, 4, 0, 1}, // нижняя, y-
}

// faceDirections направление наружу для каждой грани из faceTemplates
var faceDirections = [6]vec.Vec3{
	{Z: -1},
	{X: 1},
	{Z: 1},
	{X: -1},
	{Y: 1},
	{Y: -1},
}

// Mesher строит геометрию чанков из воксельных буферов. Не имеет
// изменяемого состояния и безопасен для параллельного использования.
type Mesher struct {
	settings MeshSettings
}

// NewMesher создаёт построитель мешей с указанными настройками
func NewMesher(settings MeshSettings) *Mesher {
	return &Mesher{settings: settings}
}

// NeighborBuffers воксельные буферы шести гранично-смежных чанков в порядке
// +x, -x, +y, -y, +z, -z. Отсутствующий сосед представлен nil: его грань
// считается видимой.
type NeighborBuffers [6][]Voxel

// BuildMesh строит меш чанка из снимка воксельного буфера. Для lod > 0
// буфер обходится с шагом 2^lod по каждой оси, а позиции масштабируются
// на 1 + lod^2, так что упрощённый меш занимает больший объём и заполняет
// разрывы между уровнями детализации. Детерминирован: одинаковые входы
// дают одинаковую геометрию.
func (m *Mesher) BuildMesh(voxels []Voxel, width, height, depth int, neighbors NeighborBuffers, lod int) *MeshData {
	if lod < 0 {
		lod = 0
	}

	effW := width >> lod
	effH := height >> lod
	effD := depth >> lod
	if effW < 1 {
		effW = 1
	}
	if effH < 1 {
		effH = 1
	}
	if effD < 1 {
		effD = 1
	}

	scale := float64(1 + lod*lod)

	var positions []vec.Vec3Float
	var colors []RGBA
	var indices []uint32

	for z := 0; z < effD; z++ {
		for y := 0; y < effH; y++ {
			for x := 0; x < effW; x++ {
				v, ok := sampleLOD(voxels, width, height, depth, x, y, z, lod)
				if !ok || !v.Solid {
					continue
				}

				base := uint32(len(positions))
				origin := vec.Vec3Float{
					X: float64(x) * scale,
					Y: float64(y) * scale,
					Z: float64(z) * scale,
				}
				for _, corner := range cubeCorners {
					positions = append(positions, origin.Add(corner.Scale(scale)))
					colors = append(colors, v.Color)
				}

				for face := 0; face < 6; face++ {
					if m.settings.OcclusionCulling &&
						m.faceOccluded(voxels, width, height, depth, neighbors, x, y, z, lod, effW, effH, effD, face) {
						continue
					}
					for _, ti := range faceTemplates[face] {
						indices = append(indices, base+ti)
					}
				}
			}
		}
	}

	return finalizeMesh(positions, colors, indices)
}

// sampleLOD возвращает репрезентативный воксель ячейки уровня детализации:
// воксель базового разрешения в её минимальном углу.
func sampleLOD(voxels []Voxel, width, height, depth, x, y, z, lod int) (Voxel, bool) {
	bx := x << lod
	by := y << lod
	bz := z << lod
	if bx < 0 || by < 0 || bz < 0 || bx >= width || by >= height || bz >= depth {
		return Voxel{}, false
	}
	return voxels[bx+by*width+bz*width*height], true
}

// faceOccluded сообщает, закрыта ли грань face вокселя (x, y, z) соседним
// заполненным вокселем. Сосед за границей чанка берётся из буфера смежного
// чанка; если смежный чанк отсутствует, грань считается видимой.
func (m *Mesher) faceOccluded(voxels []Voxel, width, height, depth int, neighbors NeighborBuffers, x, y, z, lod, effW, effH, effD, face int) bool {
	dir := faceDirections[face]
	nx := x + dir.X
	ny := y + dir.Y
	nz := z + dir.Z

	// Сосед внутри этого же чанка.
	if nx >= 0 && ny >= 0 && nz >= 0 && nx < effW && ny < effH && nz < effD {
		v, ok := sampleLOD(voxels, width, height, depth, nx, ny, nz, lod)
		return ok && v.Solid
	}

	// Сосед в смежном чанке: координата по пересечённой оси заворачивается
	// в его буфер базового разрешения.
	bx := nx << lod
	by := ny << lod
	bz := nz << lod

	var buf []Voxel
	switch {
	case bx >= width:
		buf, bx = neighbors[0], bx-width
	case bx < 0:
		buf, bx = neighbors[1], bx+width
	case by >= height:
		buf, by = neighbors[2], by-height
	case by < 0:
		buf, by = neighbors[3], by+height
	case bz >= depth:
		buf, bz = neighbors[4], bz-depth
	case bz < 0:
		buf, bz = neighbors[5], bz+depth
	default:
		return false
	}

	if buf == nil {
		return false
	}
	if bx < 0 || by < 0 || bz < 0 || bx >= width || by >= height || bz >= depth {
		return false
	}
	return buf[bx+by*width+bz*width*height].Solid
}

// finalizeMesh превращает накопленную геометрию в меш с плоскими нормалями:
// каждая вершина дублируется на каждый использующий её треугольник и
// получает нормаль этого треугольника.
func finalizeMesh(positions []vec.Vec3Float, colors []RGBA, indices []uint32) *MeshData {
	mesh := &MeshData{
		Positions: make([]vec.Vec3Float, 0, len(indices)),
		Normals:   make([]vec.Vec3Float, 0, len(indices)),
		Colors:    make([]RGBA, 0, len(indices)),
		Indices:   make([]uint32, 0, len(indices)),
		Bounds:    boundsOf(positions),
	}

	for i := 0; i+2 < len(indices); i += 3 {
		a := positions[indices[i]]
		b := positions[indices[i+1]]
		c := positions[indices[i+2]]

		normal := b.Sub(a).Cross(c.Sub(a)).Normalize()

		for j := 0; j < 3; j++ {
			idx := indices[i+j]
			mesh.Positions = append(mesh.Positions, positions[idx])
			mesh.Normals = append(mesh.Normals, normal)
			mesh.Colors = append(mesh.Colors, colors[idx])
			mesh.Indices = append(mesh.Indices, uint32(len(mesh.Indices)))
		}
	}

	return mesh
}

// boundsOf вычисляет ограничивающий параллелепипед набора позиций
func boundsOf(positions []vec.Vec3Float) AABB {
	if len(positions) == 0 {
		return AABB{}
	}

	min := vec.Vec3Float{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max := vec.Vec3Float{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, p := range positions {
		min.X = math.Min(min.X, p.X)
		min.Y = math.Min(min.Y, p.Y)
		min.Z = math.Min(min.Z, p.Z)
		max.X = math.Max(max.X, p.X)
		max.Y = math.Max(max.Y, p.Y)
		max.Z = math.Max(max.Z, p.Z)
	}
	return AABB{Min: min, Max: max}
}
