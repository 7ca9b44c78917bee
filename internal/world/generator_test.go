package world

import (
	"math"
	"testing"

	"github.com/annel0/voxel-stream/internal/vec"
)

func testGenSettings() GenerationSettings {
	return GenerationSettings{
		Seed:           1337,
		FrequencyScale: 0.1,
		AmplitudeScale: 5.0,
		Threshold:      2.0,
		Octaves:        4,
		Persistence:    0.5,
	}
}

func TestGeneratorDeterminism(t *testing.T) {
	pos := vec.Vec3{X: 32, Y: -16, Z: 48}

	a := NewGenerator(testGenSettings()).Generate(pos, 16, 16, 16)
	b := NewGenerator(testGenSettings()).Generate(pos, 16, 16, 16)

	if len(a) != len(b) {
		t.Fatalf("Разные размеры буферов: %d и %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Воксель %d отличается между запусками: %+v и %+v", i, a[i], b[i])
		}
	}
}

func TestGeneratorSeedChangesOutput(t *testing.T) {
	settings := testGenSettings()
	a := NewGenerator(settings).Generate(vec.Vec3{}, 16, 16, 16)

	settings.Seed = 7331
	b := NewGenerator(settings).Generate(vec.Vec3{}, 16, 16, 16)

	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("Разные сиды дали одинаковый ландшафт")
	}
}

func TestGeneratorVoxelInvariants(t *testing.T) {
	voxels := NewGenerator(testGenSettings()).Generate(vec.Vec3{}, 16, 16, 16)

	for i, v := range voxels {
		if v.Size != 1.0 {
			t.Fatalf("Воксель %d имеет размер %f вместо 1.0", i, v.Size)
		}
		if !v.Solid {
			continue
		}
		for _, ch := range [4]float32{v.Color.R, v.Color.G, v.Color.B, v.Color.A} {
			if math.IsNaN(float64(ch)) {
				t.Fatalf("Воксель %d содержит NaN в цвете: %+v", i, v.Color)
			}
			if ch < 0 || ch > 1 {
				t.Fatalf("Воксель %d имеет канал вне [0, 1]: %+v", i, v.Color)
			}
		}
		if v.Color.A != 1.0 {
			t.Fatalf("Заполненный воксель %d не непрозрачен: %f", i, v.Color.A)
		}
	}
}

// Порог, равный амплитуде, не должен приводить к делению на ноль при
// нормировке теплоты.
func TestGeneratorThresholdEqualsAmplitude(t *testing.T) {
	settings := testGenSettings()
	settings.Threshold = settings.AmplitudeScale

	voxels := NewGenerator(settings).Generate(vec.Vec3{}, 8, 8, 8)
	for i, v := range voxels {
		if !v.Solid {
			continue
		}
		if math.IsNaN(float64(v.Color.R)) || math.IsNaN(float64(v.Color.G)) || math.IsNaN(float64(v.Color.B)) {
			t.Fatalf("Воксель %d содержит NaN при threshold == amplitude: %+v", i, v.Color)
		}
	}
}

func TestGeneratorBufferSize(t *testing.T) {
	voxels := NewGenerator(testGenSettings()).Generate(vec.Vec3{}, 4, 8, 2)
	if len(voxels) != 64 {
		t.Errorf("Ожидался буфер из 64 вокселей, получено %d", len(voxels))
	}
}

func BenchmarkGeneratorChunk(b *testing.B) {
	g := NewGenerator(testGenSettings())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.Generate(vec.Vec3{X: i * 16}, 16, 16, 16)
	}
}
