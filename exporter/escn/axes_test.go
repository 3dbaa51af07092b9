package escn

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestNewAxesRejectsUnknownAxis(t *testing.T) {
	if _, err := NewAxes("W", "Y"); err == nil {
		t.Fatal("expected error for unknown axis pair")
	}
}

func TestSameAxesIsIdentity(t *testing.T) {
	axes, err := NewAxes("Y", "Y")
	if err != nil {
		t.Fatal(err)
	}
	m := mgl32.Translate3D(1, 2, 3)
	if got := axes.FixMatrix(m); got != m {
		t.Fatalf("identity conversion changed the matrix: %v", got)
	}
	v := mgl32.Vec3{4, 5, 6}
	if got := axes.FixVector(v); got != v {
		t.Fatalf("identity conversion changed the vector: %v", got)
	}
}

func TestZUpToYUpVector(t *testing.T) {
	axes, err := NewAxes("Z", "Y")
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct{ in, want mgl32.Vec3 }{
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{1, 0, 0}},
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, -1}},
	}
	for _, c := range cases {
		if got := axes.FixVector(c.in); !got.ApproxEqual(c.want) {
			t.Errorf("FixVector(%v) = %v; want %v", c.in, got, c.want)
		}
	}
}

func TestZUpToYUpTranslation(t *testing.T) {
	axes, err := NewAxes("Z", "Y")
	if err != nil {
		t.Fatal(err)
	}

	fixed := axes.FixMatrix(mgl32.Translate3D(1, 2, 3))
	got := mgl32.Vec3{fixed.At(0, 3), fixed.At(1, 3), fixed.At(2, 3)}
	want := mgl32.Vec3{1, 3, -2}
	if !got.ApproxEqual(want) {
		t.Fatalf("fixed translation = %v; want %v", got, want)
	}
}

func TestFixMatrixPreservesOrthonormality(t *testing.T) {
	axes, err := NewAxes("Z", "Y")
	if err != nil {
		t.Fatal(err)
	}

	rot := mgl32.HomogRotate3DZ(float32(math.Pi / 3))
	fixed := axes.FixMatrix(rot)

	// A pure rotation must stay a pure rotation.
	product := fixed.Mul4(fixed.Transpose())
	if !product.ApproxEqualThreshold(mgl32.Ident4(), 1e-5) {
		t.Fatalf("fixed rotation is not orthonormal: %v", product)
	}
}

func TestFixDirectionalAppliesCorrection(t *testing.T) {
	axes, err := NewAxes("Z", "Y")
	if err != nil {
		t.Fatal(err)
	}

	// The -Z facing basis picks up a -90 degree X pre-rotation before the
	// usual basis change.
	want := axes.FixMatrix(mgl32.HomogRotate3DX(float32(-math.Pi / 2)))
	if got := axes.FixDirectional(mgl32.Ident4()); !got.ApproxEqualThreshold(want, 1e-6) {
		t.Fatalf("FixDirectional(I) = %v; want %v", got, want)
	}
}
