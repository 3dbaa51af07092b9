package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

type ObjectType int

/** @brief The closed set of authoring object kinds the exporter understands. */
const (
	/** @brief Transform-only object, exported as a plain spatial node. */
	ObjectTypeEmpty ObjectType = iota
	/** @brief Object instancing a mesh data block. */
	ObjectTypeMesh
	/** @brief Armature object owning a bone hierarchy. */
	ObjectTypeArmature
	/** @brief Light object (point, spot or sun). */
	ObjectTypeLight
	/** @brief Camera object. */
	ObjectTypeCamera
	/** @brief Bezier curve object. */
	ObjectTypeCurve
	/** @brief Anything the exporter has no converter for. */
	ObjectTypeUnsupported
)

func (t ObjectType) String() string {
	switch t {
	case ObjectTypeEmpty:
		return "EMPTY"
	case ObjectTypeMesh:
		return "MESH"
	case ObjectTypeArmature:
		return "ARMATURE"
	case ObjectTypeLight:
		return "LIGHT"
	case ObjectTypeCamera:
		return "CAMERA"
	case ObjectTypeCurve:
		return "CURVE"
	}
	return "UNSUPPORTED"
}

/**
 * @brief One authoring object. An object has exactly one structural
 * parent; indirect authoring relations (bone parenting, armature deform)
 * are kept as side attachments, never as extra tree edges.
 */
type Object struct {
	/** @brief The authoring name. Not necessarily unique among siblings. */
	Name string
	/** @brief The object kind, driving converter dispatch. */
	Type ObjectType
	/** @brief The single structural parent, nil for top-level objects. */
	Parent *Object
	/** @brief When set, the object is attached to this bone of the parent armature. */
	ParentBone string
	/** @brief Local transform relative to the structural parent. */
	Transform mgl32.Mat4
	/** @brief Render visibility flag, part of the export predicate. */
	Visible bool
	/** @brief Selection flag, part of the export predicate. */
	Selected bool

	/** @brief Mesh data, set when Type is ObjectTypeMesh. */
	Mesh *Mesh
	/** @brief Armature data, set when Type is ObjectTypeArmature. */
	Armature *Armature
	/** @brief Light data, set when Type is ObjectTypeLight. */
	Light *Light
	/** @brief Camera data, set when Type is ObjectTypeCamera. */
	Camera *Camera
	/** @brief Curve data, set when Type is ObjectTypeCurve. */
	Curve *Curve

	/** @brief The armature object deforming this mesh, if any. */
	ArmatureObject *Object
	/** @brief Rigid body block, exported as physics nodes above the mesh. */
	RigidBody *RigidBody
	/** @brief Animation state: active action plus pushed-down strips. */
	AnimationData *AnimationData

	children []*Object
}

// Children returns the structural children in enumeration order.
func (o *Object) Children() []*Object {
	return o.children
}

/** @brief Animation state of one object. */
type AnimationData struct {
	/** @brief The active action. */
	Action *Action
	/** @brief Additional actions stashed on strips, each exported as its own clip. */
	Strips []*Action
}
