package world

import (
	"math"
	"testing"

	"github.com/annel0/voxel-stream/internal/vec"
)

// testFrustum камера в начале координат, взгляд вдоль +X, вертикальный
// угол обзора 90 градусов.
func testFrustum(margin float64) Frustum {
	return NewPerspectiveFrustum(
		vec.Vec3Float{},
		vec.Vec3Float{X: 1},
		vec.Vec3Float{Y: 1},
		math.Pi/2, 1.0, 0.1, 100.0, margin,
	)
}

func TestFrustumContainsPoint(t *testing.T) {
	f := testFrustum(0)

	if !f.ContainsPoint(vec.Vec3Float{X: 10}) {
		t.Error("Точка прямо по курсу должна быть внутри")
	}
	if f.ContainsPoint(vec.Vec3Float{X: -10}) {
		t.Error("Точка за спиной не должна быть внутри")
	}
	if f.ContainsPoint(vec.Vec3Float{X: 10, Y: 100}) {
		t.Error("Точка далеко над пирамидой не должна быть внутри")
	}
	if f.ContainsPoint(vec.Vec3Float{X: 200}) {
		t.Error("Точка за дальней плоскостью не должна быть внутри")
	}
}

func TestFrustumIntersectsAABB(t *testing.T) {
	f := testFrustum(0)

	inside := AABB{
		Min: vec.Vec3Float{X: 5, Y: -1, Z: -1},
		Max: vec.Vec3Float{X: 6, Y: 1, Z: 1},
	}
	if !f.IntersectsAABB(inside) {
		t.Error("Параллелепипед по курсу должен пересекать фрустум")
	}

	behind := AABB{
		Min: vec.Vec3Float{X: -20, Y: -1, Z: -1},
		Max: vec.Vec3Float{X: -10, Y: 1, Z: 1},
	}
	if f.IntersectsAABB(behind) {
		t.Error("Параллелепипед за спиной не должен пересекать фрустум")
	}

	// Частичное пересечение: тест консервативен и обязан его сохранить.
	straddling := AABB{
		Min: vec.Vec3Float{X: -5, Y: -1, Z: -1},
		Max: vec.Vec3Float{X: 5, Y: 1, Z: 1},
	}
	if !f.IntersectsAABB(straddling) {
		t.Error("Частично пересекающий параллелепипед должен сохраняться")
	}
}

func TestFrustumMargin(t *testing.T) {
	outside := AABB{
		Min: vec.Vec3Float{X: 10, Y: 15, Z: -1},
		Max: vec.Vec3Float{X: 11, Y: 16, Z: 1},
	}

	if testFrustum(0).IntersectsAABB(outside) {
		t.Error("Без запаса параллелепипед над пирамидой должен отсекаться")
	}
	if !testFrustum(16).IntersectsAABB(outside) {
		t.Error("С запасом 16 параллелепипед на кромке должен сохраняться")
	}
}
