package vec

// Vec3 представляет трёхмерный вектор с целочисленными координатами.
// Используется как ключ в картах (сравним по значению), поэтому
// не содержит ничего, кроме координат.
type Vec3 struct {
	X int
	Y int
	Z int
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Sub вычитает другой вектор
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{
		X: v.X - other.X,
		Y: v.Y - other.Y,
		Z: v.Z - other.Z,
	}
}

// Mul умножает каждую координату на скаляр
func (v Vec3) Mul(s int) Vec3 {
	return Vec3{
		X: v.X * s,
		Y: v.Y * s,
		Z: v.Z * s,
	}
}

// MulVec покомпонентно умножает два вектора
func (v Vec3) MulVec(other Vec3) Vec3 {
	return Vec3{
		X: v.X * other.X,
		Y: v.Y * other.Y,
		Z: v.Z * other.Z,
	}
}

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// ToFloat преобразует Vec3 в Vec3Float
func (v Vec3) ToFloat() Vec3Float {
	return Vec3Float{
		X: float64(v.X),
		Y: float64(v.Y),
		Z: float64(v.Z),
	}
}
