package escn

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Axes performs the basis change between the authoring tool's up-axis
// convention and the target engine's. Both conventions are right-handed;
// only the up axis differs, so the change is a fixed permutation matrix
// applied uniformly to every transform and position.
type Axes struct {
	basis    mgl32.Mat4
	basisInv mgl32.Mat4
}

// zToY maps authoring (x, y, z) to target (x, z, -y).
var zToY = mgl32.Mat4{
	1, 0, 0, 0,
	0, 0, -1, 0,
	0, 1, 0, 0,
	0, 0, 0, 1,
}

// directionalCorrect rotates -90 degrees about X. Cameras and lights face
// -Z in the authoring tool; this realigns their basis after conversion.
var directionalCorrect = mgl32.HomogRotate3DX(float32(-math.Pi / 2))

// NewAxes builds the basis change for a source/target up-axis pair.
func NewAxes(sourceUp, targetUp string) (*Axes, error) {
	var basis mgl32.Mat4
	switch {
	case sourceUp == targetUp:
		basis = mgl32.Ident4()
	case sourceUp == "Z" && targetUp == "Y":
		basis = zToY
	case sourceUp == "Y" && targetUp == "Z":
		basis = zToY.Inv()
	default:
		return nil, fmt.Errorf("escn: unsupported up-axis pair %s -> %s", sourceUp, targetUp)
	}
	return &Axes{basis: basis, basisInv: basis.Inv()}, nil
}

// FixMatrix converts a local transform into the target convention:
// B * M * B^-1, so both the frame and the values it acts on move.
func (a *Axes) FixMatrix(m mgl32.Mat4) mgl32.Mat4 {
	return a.basis.Mul4(m).Mul4(a.basisInv)
}

// FixVector converts a bare position or direction.
func (a *Axes) FixVector(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.TransformNormal(v, a.basis)
}

// FixDirectional converts the transform of a node that faces -Z in the
// authoring tool (cameras, lights): the basis is pre-rotated so the node
// keeps facing the same way in the target convention.
func (a *Axes) FixDirectional(m mgl32.Mat4) mgl32.Mat4 {
	return a.FixMatrix(m.Mul4(directionalCorrect))
}
