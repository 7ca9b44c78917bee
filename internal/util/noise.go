package util

import (
	"github.com/aquilax/go-perlin"
)

// NoiseField представляет многооктавное когерентное шумовое поле.
// Экземпляр полностью детерминирован сидом и параметрами октав: одинаковые
// (seed, octaves, persistence) всегда дают одинаковые значения. После
// создания поле только читается, поэтому его можно использовать из
// нескольких горутин одновременно.
type NoiseField struct {
	octaves     int
	persistence float64
	noise       *perlin.Perlin
}

// NewNoiseField создаёт шумовое поле с указанным сидом и параметрами октав
func NewNoiseField(seed int64, octaves int, persistence float64) *NoiseField {
	alpha := 2.0  // Сглаживание шума
	beta := 2.0   // Частота шума
	n := int32(3) // Внутренние итерации базового шума

	return &NoiseField{
		octaves:     octaves,
		persistence: persistence,
		noise:       perlin.NewPerlin(alpha, beta, n, seed),
	}
}

// Sample3D возвращает значение шума в точке (x, y, z).
// Октавы суммируются с амплитудой persistence^i и удвоением частоты
// на каждом шаге; результат лежит примерно в диапазоне [-2, 2]
// при persistence = 0.5.
func (nf *NoiseField) Sample3D(x, y, z float64) float64 {
	value := 0.0
	amplitude := 1.0
	frequency := 1.0

	for i := 0; i < nf.octaves; i++ {
		value += nf.noise.Noise3D(x*frequency, y*frequency, z*frequency) * amplitude
		amplitude *= nf.persistence
		frequency *= 2.0
	}

	return value
}
