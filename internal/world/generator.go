package world

import (
	"math"

	"github.com/annel0/voxel-stream/internal/util"
	"github.com/annel0/voxel-stream/internal/vec"
)

// GenerationSettings параметры процедурной генерации ландшафта.
// Одинаковые настройки и координаты всегда дают одинаковый результат.
type GenerationSettings struct {
	Seed           int64
	FrequencyScale float64
	AmplitudeScale float64
	Threshold      float64
	Octaves        int
	Persistence    float64
}

// Generator заполняет воксельные буферы многооктавным когерентным шумом.
// Чистая функция без разделяемого изменяемого состояния: безопасен для
// параллельного вызова из нескольких воркеров.
type Generator struct {
	settings GenerationSettings
	noise    *util.NoiseField
}

// NewGenerator создаёт генератор с указанными настройками
func NewGenerator(settings GenerationSettings) *Generator {
	return &Generator{
		settings: settings,
		noise:    util.NewNoiseField(settings.Seed, settings.Octaves, settings.Persistence),
	}
}

// Generate заполняет воксельный буфер размером width*height*depth для чанка
// с мировым смещением worldPos. Воксель становится заполненным, когда
// суммарное значение шума превышает порог; цвет выводится детерминированно
// из высоты и нормированного превышения порога ("теплоты").
func (g *Generator) Generate(worldPos vec.Vec3, width, height, depth int) []Voxel {
	voxels := make([]Voxel, width*height*depth)

	freq := g.settings.FrequencyScale
	amplitude := g.settings.AmplitudeScale
	threshold := g.settings.Threshold

	// Знаменатель нормировки теплоты ограничен снизу, чтобы
	// amplitude == threshold не приводил к делению на ноль.
	denom := amplitude - threshold
	if denom < 1e-9 {
		denom = 1e-9
	}

	for z := 0; z < depth; z++ {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				fx := float64(x+worldPos.X) * freq
				fy := float64(y+worldPos.Y) * freq
				fz := float64(z+worldPos.Z) * freq

				value := g.noise.Sample3D(fx, fy, fz) * amplitude

				// Вертикальный градиент: ландшафт редеет с высотой.
				value += float64(y) / float64(height) * 4.0

				voxel := DefaultVoxel()
				if value > threshold {
					heat := clamp01((value - threshold) / denom)
					voxel = Voxel{
						Solid: true,
						Color: colorFromHeight(fy).Add(colorFromHeat(heat)),
						Size:  1.0,
					}
				}

				voxels[x+y*width+z*width*height] = voxel
			}
		}
	}

	return voxels
}

// colorFromHeat отображает нормированную теплоту [0, 1] в цвет.
// Непрерывное фиксированное отображение: холодные воксели краснее,
// горячие зеленее.
func colorFromHeat(heat float64) RGBA {
	const darkFactor = 0.3
	const sensitivity = 5.0

	m := clamp01(heat * sensitivity)

	return RGBA{
		R: float32(math.Sqrt(clamp01(1.0-m))*(1.0-darkFactor) + darkFactor),
		G: float32(math.Sqrt(m)*(1.0-darkFactor) + darkFactor),
		B: float32(math.Sqrt(clamp01(m-1.0))*(1.0-darkFactor) + darkFactor),
		A: 1.0,
	}
}

// colorFromHeight отображает высоту в шумовом пространстве в цвет
func colorFromHeight(height float64) RGBA {
	const darkFactor = 0.3
	const heightRange = 100.0

	nh := clamp01(height / heightRange)

	return RGBA{
		R: float32(math.Sqrt(clamp01(1.0-nh))*(1.0-darkFactor) + darkFactor),
		G: float32(math.Sqrt(nh)*(1.0-darkFactor) + darkFactor),
		B: float32(math.Sqrt(clamp01(nh-1.0))*(1.0-darkFactor) + darkFactor),
		A: 1.0,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
