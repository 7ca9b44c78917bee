package world

import (
	"math"
	"testing"
)

func solidBuffer(w, h, d int) []Voxel {
	voxels := make([]Voxel, w*h*d)
	for i := range voxels {
		voxels[i] = Voxel{Solid: true, Color: RGBA{R: 0.5, G: 0.5, B: 0.5, A: 1}, Size: 1.0}
	}
	return voxels
}

func cullingMesher() *Mesher {
	return NewMesher(MeshSettings{OcclusionCulling: true})
}

func TestMesherSingleVoxel(t *testing.T) {
	mesh := cullingMesher().BuildMesh(solidBuffer(1, 1, 1), 1, 1, 1, NeighborBuffers{}, 0)

	// Одинокий воксель без соседей: все шесть граней видимы.
	if len(mesh.Indices) != 36 {
		t.Errorf("Ожидалось 36 индексов, получено %d", len(mesh.Indices))
	}
	if len(mesh.Positions) != 36 || len(mesh.Normals) != 36 || len(mesh.Colors) != 36 {
		t.Errorf("Несогласованные размеры атрибутов: %d позиций, %d нормалей, %d цветов",
			len(mesh.Positions), len(mesh.Normals), len(mesh.Colors))
	}
}

func TestMesherFullyOccluded(t *testing.T) {
	var neighbors NeighborBuffers
	for i := range neighbors {
		neighbors[i] = solidBuffer(1, 1, 1)
	}

	mesh := cullingMesher().BuildMesh(solidBuffer(1, 1, 1), 1, 1, 1, neighbors, 0)
	if len(mesh.Indices) != 0 {
		t.Errorf("Полностью закрытый воксель должен дать 0 индексов, получено %d", len(mesh.Indices))
	}
}

func TestMesherCullingDisabled(t *testing.T) {
	var neighbors NeighborBuffers
	for i := range neighbors {
		neighbors[i] = solidBuffer(1, 1, 1)
	}

	mesher := NewMesher(MeshSettings{OcclusionCulling: false})
	mesh := mesher.BuildMesh(solidBuffer(1, 1, 1), 1, 1, 1, neighbors, 0)
	if len(mesh.Indices) != 36 {
		t.Errorf("Без отсечения ожидалось 36 индексов, получено %d", len(mesh.Indices))
	}
}

// Сплошной куб 4x4x4 без соседей: видимой остаётся только оболочка,
// 16 граней на каждую из шести сторон.
func TestMesherSolidCubeShell(t *testing.T) {
	mesh := cullingMesher().BuildMesh(solidBuffer(4, 4, 4), 4, 4, 4, NeighborBuffers{}, 0)

	wantIndices := 6 * 16 * 6
	if len(mesh.Indices) != wantIndices {
		t.Errorf("Ожидалось %d индексов оболочки, получено %d", wantIndices, len(mesh.Indices))
	}
}

func TestMesherCullingReduction(t *testing.T) {
	culled := cullingMesher().BuildMesh(solidBuffer(3, 3, 3), 3, 3, 3, NeighborBuffers{}, 0)
	full := NewMesher(MeshSettings{}).BuildMesh(solidBuffer(3, 3, 3), 3, 3, 3, NeighborBuffers{}, 0)

	if len(culled.Indices) != 324 {
		t.Errorf("С отсечением ожидалось 324 индекса, получено %d", len(culled.Indices))
	}
	if len(full.Indices) != 972 {
		t.Errorf("Без отсечения ожидалось 972 индекса, получено %d", len(full.Indices))
	}
}

// Грани на стыке чанков отсекаются по буферу смежного чанка.
func TestMesherNeighborBoundaryCulling(t *testing.T) {
	var neighbors NeighborBuffers
	neighbors[0] = solidBuffer(2, 2, 2) // смежный чанк по +x

	mesh := cullingMesher().BuildMesh(solidBuffer(2, 2, 2), 2, 2, 2, neighbors, 0)

	// Оболочка из 24 граней минус 4 грани, закрытые соседом.
	wantIndices := (24 - 4) * 6
	if len(mesh.Indices) != wantIndices {
		t.Errorf("Ожидалось %d индексов, получено %d", wantIndices, len(mesh.Indices))
	}
}

func TestMesherLODScaling(t *testing.T) {
	mesh := cullingMesher().BuildMesh(solidBuffer(2, 2, 2), 2, 2, 2, NeighborBuffers{}, 1)

	// При lod = 1 чанк схлопывается в один воксель с масштабом 1 + 1 = 2.
	if len(mesh.Indices) != 36 {
		t.Errorf("Ожидалось 36 индексов, получено %d", len(mesh.Indices))
	}

	want := 2.0
	if mesh.Bounds.Max.X != want || mesh.Bounds.Max.Y != want || mesh.Bounds.Max.Z != want {
		t.Errorf("Ожидалась граница %f, получено %+v", want, mesh.Bounds.Max)
	}
}

func TestMesherFlatNormals(t *testing.T) {
	mesh := cullingMesher().BuildMesh(solidBuffer(1, 1, 1), 1, 1, 1, NeighborBuffers{}, 0)

	for i := 0; i < len(mesh.Normals); i += 3 {
		n := mesh.Normals[i]
		if math.Abs(n.Length()-1.0) > 1e-9 {
			t.Fatalf("Нормаль %d не единичной длины: %+v", i, n)
		}
		// Все три вершины треугольника разделяют одну нормаль.
		if mesh.Normals[i+1] != n || mesh.Normals[i+2] != n {
			t.Fatalf("Вершины треугольника %d имеют разные нормали", i/3)
		}
	}

	// Индексы после финализации последовательны.
	for i, idx := range mesh.Indices {
		if int(idx) != i {
			t.Fatalf("Индекс %d не последователен: %d", i, idx)
		}
	}
}

func TestMesherEmptyChunk(t *testing.T) {
	mesh := cullingMesher().BuildMesh(make([]Voxel, 8), 2, 2, 2, NeighborBuffers{}, 0)
	if len(mesh.Indices) != 0 || len(mesh.Positions) != 0 {
		t.Errorf("Пустой чанк должен дать пустой меш: %d индексов", len(mesh.Indices))
	}
}

func TestMesherDeterminism(t *testing.T) {
	voxels := solidBuffer(3, 3, 3)
	voxels[13] = DefaultVoxel() // полость в центре

	a := cullingMesher().BuildMesh(voxels, 3, 3, 3, NeighborBuffers{}, 0)
	b := cullingMesher().BuildMesh(voxels, 3, 3, 3, NeighborBuffers{}, 0)

	if len(a.Positions) != len(b.Positions) {
		t.Fatalf("Разное число вершин: %d и %d", len(a.Positions), len(b.Positions))
	}
	for i := range a.Positions {
		if a.Positions[i] != b.Positions[i] {
			t.Fatalf("Вершина %d отличается между запусками", i)
		}
	}
}

func BenchmarkMesherSolidChunk(b *testing.B) {
	voxels := solidBuffer(16, 16, 16)
	m := cullingMesher()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.BuildMesh(voxels, 16, 16, 16, NeighborBuffers{}, 0)
	}
}
