package vec

import "math"

// Vec3Float представляет трёхмерный вектор с плавающими координатами
type Vec3Float struct {
	X float64
	Y float64
	Z float64
}

// Add складывает два вектора
func (v Vec3Float) Add(other Vec3Float) Vec3Float {
	return Vec3Float{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Sub вычитает другой вектор
func (v Vec3Float) Sub(other Vec3Float) Vec3Float {
	return Vec3Float{
		X: v.X - other.X,
		Y: v.Y - other.Y,
		Z: v.Z - other.Z,
	}
}

// Scale умножает каждую координату на скаляр
func (v Vec3Float) Scale(s float64) Vec3Float {
	return Vec3Float{
		X: v.X * s,
		Y: v.Y * s,
		Z: v.Z * s,
	}
}

// Dot возвращает скалярное произведение
func (v Vec3Float) Dot(other Vec3Float) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross возвращает векторное произведение
func (v Vec3Float) Cross(other Vec3Float) Vec3Float {
	return Vec3Float{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

// LengthSq возвращает квадрат длины вектора.
// Используется там, где достаточно сравнения расстояний без sqrt.
func (v Vec3Float) LengthSq() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Length возвращает длину вектора
func (v Vec3Float) Length() float64 {
	return math.Sqrt(v.LengthSq())
}

// Normalize возвращает нормализованный вектор.
// Нулевой вектор возвращается как есть.
func (v Vec3Float) Normalize() Vec3Float {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.Scale(1.0 / l)
}

// ToVec3 преобразует Vec3Float в Vec3, отбрасывая дробную часть в сторону минус бесконечности
func (v Vec3Float) ToVec3() Vec3 {
	return Vec3{
		X: int(math.Floor(v.X)),
		Y: int(math.Floor(v.Y)),
		Z: int(math.Floor(v.Z)),
	}
}
