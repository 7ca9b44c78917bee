package world

import (
	"math"

	"github.com/annel0/voxel-stream/internal/vec"
)

// Plane плоскость в форме normal·p + d = 0; нормаль направлена внутрь
// фрустума.
type Plane struct {
	Normal vec.Vec3Float
	D      float64
}

// DistanceTo возвращает знаковое расстояние от точки до плоскости
func (p Plane) DistanceTo(point vec.Vec3Float) float64 {
	return p.Normal.Dot(point) + p.D
}

// Frustum усечённая пирамида видимости из шести плоскостей. Проверка
// пересечения консервативна: может оставить невидимый чанк, но никогда не
// отсечёт видимый.
type Frustum struct {
	planes [6]Plane
}

// NewPerspectiveFrustum строит фрустум перспективной камеры.
// fovY — вертикальный угол обзора в радианах, margin — запас в мировых
// единицах, на который каждая плоскость отодвигается наружу, чтобы чанки
// на кромке экрана не мерцали при повороте камеры.
func NewPerspectiveFrustum(position, forward, up vec.Vec3Float, fovY, aspect, near, far, margin float64) Frustum {
	fwd := forward.Normalize()
	right := fwd.Cross(up).Normalize()
	trueUp := right.Cross(fwd)

	halfV := far * math.Tan(fovY*0.5)
	halfH := halfV * aspect
	farCenter := fwd.Scale(far)

	planeThrough := func(point, normal vec.Vec3Float) Plane {
		n := normal.Normalize()
		return Plane{Normal: n, D: -n.Dot(point) + margin}
	}

	var f Frustum
	f.planes[0] = planeThrough(position.Add(fwd.Scale(near)), fwd)                       // ближняя
	f.planes[1] = planeThrough(position.Add(farCenter), fwd.Scale(-1))                   // дальняя
	f.planes[2] = planeThrough(position, trueUp.Cross(farCenter.Add(right.Scale(halfH)))) // левая
	f.planes[3] = planeThrough(position, farCenter.Sub(right.Scale(halfH)).Cross(trueUp)) // правая
	f.planes[4] = planeThrough(position, right.Cross(farCenter.Sub(trueUp.Scale(halfV)))) // нижняя
	f.planes[5] = planeThrough(position, farCenter.Add(trueUp.Scale(halfV)).Cross(right)) // верхняя
	return f
}

// IntersectsAABB проверяет пересечение параллелепипеда с фрустумом.
// Для каждой плоскости тестируется ближайшая к ней снаружи вершина
// (p-vertex); если она позади плоскости, параллелепипед целиком снаружи.
func (f Frustum) IntersectsAABB(box AABB) bool {
	for _, plane := range f.planes {
		p := box.Min
		if plane.Normal.X >= 0 {
			p.X = box.Max.X
		}
		if plane.Normal.Y >= 0 {
			p.Y = box.Max.Y
		}
		if plane.Normal.Z >= 0 {
			p.Z = box.Max.Z
		}
		if plane.DistanceTo(p) < 0 {
			return false
		}
	}
	return true
}

// ContainsPoint проверяет, находится ли точка внутри фрустума
func (f Frustum) ContainsPoint(point vec.Vec3Float) bool {
	for _, plane := range f.planes {
		if plane.DistanceTo(point) < 0 {
			return false
		}
	}
	return true
}
