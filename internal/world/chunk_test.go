package world

import (
	"testing"

	"github.com/annel0/voxel-stream/internal/vec"
)

func vecZero() vec.Vec3 {
	return vec.Vec3{}
}

func TestChunkVoxelAccess(t *testing.T) {
	chunk := NewChunk(4, 4, 4, vecZero())

	// Новый чанк заполнен пустыми вокселями.
	v, ok := chunk.VoxelAt(1, 2, 3)
	if !ok {
		t.Fatal("Воксель внутри границ не найден")
	}
	if v.Solid {
		t.Error("Воксель нового чанка должен быть пустым")
	}
	if v.Size != 1.0 {
		t.Errorf("Размер вокселя по умолчанию: ожидалось 1.0, получено %f", v.Size)
	}

	solid := Voxel{Solid: true, Color: RGBA{R: 1, A: 1}, Size: 1.0}
	chunk.SetVoxel(1, 2, 3, solid)

	v, _ = chunk.VoxelAt(1, 2, 3)
	if !v.Solid || v.Color.R != 1 {
		t.Errorf("Воксель не записан: %+v", v)
	}
	if !chunk.Flags().Has(FlagDirty) {
		t.Error("Запись вокселя должна помечать чанк как Dirty")
	}
}

func TestChunkVoxelOutOfBounds(t *testing.T) {
	chunk := NewChunk(4, 4, 4, vecZero())

	cases := [][3]int{
		{-1, 0, 0},
		{4, 0, 0},
		{0, -1, 0},
		{0, 4, 0},
		{0, 0, -1},
		{0, 0, 4},
	}
	for _, c := range cases {
		if _, ok := chunk.VoxelAt(c[0], c[1], c[2]); ok {
			t.Errorf("Координата %v вне границ, но VoxelAt вернул true", c)
		}
	}

	// Запись вне границ не должна паниковать и не помечает чанк.
	chunk.SetVoxel(10, 10, 10, Voxel{Solid: true})
	if chunk.Flags().Has(FlagDirty) {
		t.Error("Запись вне границ пометила чанк как Dirty")
	}
}

func TestChunkSnapshotIsolation(t *testing.T) {
	chunk := NewChunk(2, 2, 2, vecZero())
	chunk.SetVoxel(0, 0, 0, Voxel{Solid: true, Size: 1.0})

	snapshot := chunk.SnapshotVoxels()
	if snapshot == nil {
		t.Fatal("Снимок не получен")
	}

	// Изменение чанка после снимка не должно менять снимок.
	chunk.SetVoxel(0, 0, 0, Voxel{Solid: false, Size: 1.0})
	if !snapshot[0].Solid {
		t.Error("Снимок разделяет память с буфером чанка")
	}
}

func TestChunkAdoptVoxels(t *testing.T) {
	chunk := NewChunk(2, 2, 2, vecZero())

	if chunk.AdoptVoxels(make([]Voxel, 3)) {
		t.Error("Буфер неверного размера не должен приниматься")
	}
	if !chunk.AdoptVoxels(make([]Voxel, 8)) {
		t.Error("Буфер верного размера должен приниматься")
	}
}

func TestChunkArchiveRoundTrip(t *testing.T) {
	chunk := NewChunk(2, 2, 2, vecZero())

	chunk.SetArchived([]byte{1, 2, 3})
	if !chunk.IsArchived() {
		t.Error("Чанк должен считаться архивированным")
	}
	if chunk.SnapshotVoxels() != nil {
		t.Error("Архивированный чанк не должен отдавать снимок")
	}
	if _, ok := chunk.VoxelAt(0, 0, 0); ok {
		t.Error("Архивированный чанк не должен отдавать воксели")
	}

	// Принятие буфера снимает архивацию.
	chunk.AdoptVoxels(make([]Voxel, 8))
	if chunk.IsArchived() {
		t.Error("Принятие буфера должно сбрасывать архив")
	}
}

func TestChunkSetLOD(t *testing.T) {
	chunk := NewChunk(2, 2, 2, vecZero())

	// До генерации смена LOD не помечает чанк.
	chunk.SetLOD(1)
	if chunk.Flags().Has(FlagDirty) {
		t.Error("Смена LOD до генерации пометила чанк как Dirty")
	}

	chunk.Raise(FlagGenerated)
	chunk.SetLOD(2)
	if !chunk.Flags().Has(FlagDirty) {
		t.Error("Смена LOD после генерации должна помечать чанк как Dirty")
	}

	chunk.Lower(FlagDirty)
	chunk.SetLOD(2)
	if chunk.Flags().Has(FlagDirty) {
		t.Error("Установка того же LOD не должна помечать чанк")
	}

	chunk.SetLOD(-5)
	if chunk.LOD() != 0 {
		t.Errorf("Отрицательный LOD должен приводиться к 0, получено %d", chunk.LOD())
	}
}
