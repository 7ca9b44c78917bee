package vec

import (
	"math"
	"testing"
)

func TestVec3Arithmetic(t *testing.T) {
	a := Vec3{X: 1, Y: 2, Z: 3}
	b := Vec3{X: -4, Y: 5, Z: -6}

	if got := a.Add(b); !got.Equals(Vec3{X: -3, Y: 7, Z: -3}) {
		t.Errorf("Add: получено %v", got)
	}
	if got := a.Sub(b); !got.Equals(Vec3{X: 5, Y: -3, Z: 9}) {
		t.Errorf("Sub: получено %v", got)
	}
	if got := a.Mul(2); !got.Equals(Vec3{X: 2, Y: 4, Z: 6}) {
		t.Errorf("Mul: получено %v", got)
	}
}

func TestVec3FloatToVec3Floors(t *testing.T) {
	cases := []struct {
		in   Vec3Float
		want Vec3
	}{
		{Vec3Float{X: 1.9, Y: 0.1, Z: 2.5}, Vec3{X: 1, Y: 0, Z: 2}},
		{Vec3Float{X: -0.1, Y: -1.9, Z: -2.5}, Vec3{X: -1, Y: -2, Z: -3}},
		{Vec3Float{}, Vec3{}},
	}
	for _, tc := range cases {
		if got := tc.in.ToVec3(); !got.Equals(tc.want) {
			t.Errorf("ToVec3(%v) = %v, ожидалось %v", tc.in, got, tc.want)
		}
	}
}

func TestVec3FloatNormalize(t *testing.T) {
	v := Vec3Float{X: 3, Y: 4, Z: 0}.Normalize()
	if math.Abs(v.Length()-1.0) > 1e-12 {
		t.Errorf("Длина после нормализации: %f", v.Length())
	}

	zero := Vec3Float{}.Normalize()
	if zero != (Vec3Float{}) {
		t.Errorf("Нулевой вектор должен оставаться нулевым: %v", zero)
	}
}

func TestVec3FloatCross(t *testing.T) {
	x := Vec3Float{X: 1}
	y := Vec3Float{Y: 1}

	if got := x.Cross(y); got != (Vec3Float{Z: 1}) {
		t.Errorf("X x Y = %v, ожидалось +Z", got)
	}
	if got := y.Cross(x); got != (Vec3Float{Z: -1}) {
		t.Errorf("Y x X = %v, ожидалось -Z", got)
	}
}
