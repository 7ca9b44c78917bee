package world

// RGBA представляет цвет вокселя в диапазоне [0, 1] на канал
type RGBA struct {
	R float32
	G float32
	B float32
	A float32
}

// Add покомпонентно складывает два цвета с ограничением сверху
func (c RGBA) Add(other RGBA) RGBA {
	return RGBA{
		R: clampChannel(c.R + other.R),
		G: clampChannel(c.G + other.G),
		B: clampChannel(c.B + other.B),
		A: clampChannel(c.A + other.A),
	}
}

func clampChannel(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Voxel представляет минимальную адресуемую ячейку объёма.
// Неизменяемый value-тип: заполненность, цвет и размер.
// Size зарезервирован на будущее и всегда равен 1.0; инвариант Size > 0.
type Voxel struct {
	Solid bool
	Color RGBA
	Size  float32
}

// DefaultVoxel возвращает воксель по умолчанию: пустой, прозрачный, размер 1.0
func DefaultVoxel() Voxel {
	return Voxel{
		Solid: false,
		Color: RGBA{},
		Size:  1.0,
	}
}
