package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

/**
 * @brief Mesh geometry data block. Positions are indexed per vertex,
 * all other attributes per loop (face corner), mirroring how authoring
 * tools store split normals and UV seams.
 */
type Mesh struct {
	ID   uuid.UUID
	Name string
	/** @brief Vertex positions in object space. */
	Positions []mgl32.Vec3
	/** @brief Per-corner attributes referencing a vertex by index. */
	Loops []Loop
	/** @brief Faces as loop ranges; any polygon arity, triangulated on export. */
	Polygons []Polygon
	/** @brief Material slots referenced by Polygon.MaterialIndex. */
	Materials []*Material
	/** @brief Vertex group (bone) names, indexed by VertexWeight.Group. */
	VertexGroups []string
	/** @brief Per-vertex bone weights, parallel to Positions. */
	Weights [][]VertexWeight
	/** @brief Shape keys, exported as blend shapes. */
	ShapeKeys []*ShapeKey
}

func NewMesh(name string) *Mesh {
	return &Mesh{ID: uuid.New(), Name: name}
}

type Loop struct {
	/** @brief Index into Mesh.Positions. */
	Vertex  int
	Normal  mgl32.Vec3
	UV      [2]mgl32.Vec2
	UVCount int
	Color   [4]float32
	/** @brief True when the mesh carries a vertex color layer. */
	HasColor  bool
	Tangent   mgl32.Vec3
	Bitangent mgl32.Vec3
	/** @brief True when tangents were computed (requires a UV layer). */
	HasTangent bool
}

type Polygon struct {
	LoopStart     int
	LoopTotal     int
	MaterialIndex int
}

type VertexWeight struct {
	/** @brief Index into Mesh.VertexGroups. */
	Group  int
	Weight float32
}

/** @brief One shape key: absolute vertex positions, parallel to Mesh.Positions. */
type ShapeKey struct {
	Name      string
	Positions []mgl32.Vec3
}

/**
 * @brief Surface material data block, mapped to a SpatialMaterial.
 */
type Material struct {
	ID          uuid.UUID
	Name        string
	BaseColor   [4]float32
	Metallic    float32
	Roughness   float32
	Emission    [3]float32
	DoubleSided bool
	Unshaded    bool
	Transparent bool
	/** @brief Albedo texture, exported as an external Texture resource. */
	BaseColorImage *Image
}

func NewMaterial(name string) *Material {
	return &Material{ID: uuid.New(), Name: name, BaseColor: [4]float32{1, 1, 1, 1}, Roughness: 1}
}

/**
 * @brief Image data block. Either URI points at a file on disk, or Data
 * holds the raw payload (e.g. unpacked from a binary container) which the
 * exporter writes beside the document.
 */
type Image struct {
	ID       uuid.UUID
	Name     string
	URI      string
	Data     []byte
	MimeType string
}

func NewImage(name string) *Image {
	return &Image{ID: uuid.New(), Name: name}
}

type LightKind int

const (
	LightKindPoint LightKind = iota
	LightKindSpot
	LightKindSun
	/** @brief Kinds with no target counterpart; skipped with a warning. */
	LightKindOther
)

type Light struct {
	ID    uuid.UUID
	Name  string
	Kind  LightKind
	Color [3]float32
	/** @brief Intensity; negative values export as a negative light. */
	Energy float32
	Range  float32
	/** @brief Spot cone angle in degrees, full width. */
	SpotAngleDeg float32
	/** @brief Spot edge softness in the 0..1 range. */
	SpotBlend float32
	UseShadow bool
}

func NewLight(name string, kind LightKind) *Light {
	return &Light{ID: uuid.New(), Name: name, Kind: kind, Color: [3]float32{1, 1, 1}, Energy: 100, Range: 30}
}

type CameraProjection int

const (
	CameraPerspective CameraProjection = iota
	CameraOrthographic
)

type Camera struct {
	ID         uuid.UUID
	Name       string
	Projection CameraProjection
	/** @brief Vertical field of view in degrees (perspective). */
	FovDeg float32
	Near   float32
	Far    float32
	/** @brief Ortho size (orthographic). */
	Size float32
}

func NewCamera(name string) *Camera {
	return &Camera{ID: uuid.New(), Name: name, FovDeg: 50, Near: 0.1, Far: 100}
}

/**
 * @brief Armature data block: the bone hierarchy in rest position.
 */
type Armature struct {
	ID   uuid.UUID
	Name string
	/** @brief Bones in authoring enumeration order, parents before children. */
	Bones []*Bone
}

func NewArmature(name string) *Armature {
	return &Armature{ID: uuid.New(), Name: name}
}

type Bone struct {
	Name string
	/** @brief Parent bone name, empty for root bones. */
	Parent string
	/** @brief Rest matrix in armature space. */
	Rest mgl32.Mat4
	/** @brief Local pose offset from rest, identity when unposed. */
	Pose mgl32.Mat4
	/** @brief False for control bones that do not deform geometry. */
	Deform bool
}

/**
 * @brief Curve data block holding one or more splines.
 */
type Curve struct {
	ID      uuid.UUID
	Name    string
	Splines []*Spline
}

func NewCurve(name string) *Curve {
	return &Curve{ID: uuid.New(), Name: name}
}

type SplineType int

const (
	SplineTypeBezier SplineType = iota
	SplineTypeOther
)

type Spline struct {
	Type   SplineType
	Cyclic bool
	Points []BezierPoint
}

type BezierPoint struct {
	Co mgl32.Vec3
	/** @brief Handles in absolute coordinates, converted to relative on export. */
	HandleLeft  mgl32.Vec3
	HandleRight mgl32.Vec3
	Tilt        float32
}

/**
 * @brief Animation clip: transform keyframes per target, in frames.
 */
type Action struct {
	ID   uuid.UUID
	Name string
	/** @brief Clip length in frames. */
	Length float32
	Tracks []*TransformTrack
}

func NewAction(name string) *Action {
	return &Action{ID: uuid.New(), Name: name}
}

type TransformTrack struct {
	/** @brief Target bone name; empty targets the object itself. */
	TargetBone string
	/** @brief Keyframes, not required to be pre-sorted. */
	Keys []TransformKey
}

type TransformKey struct {
	Frame       float32
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
}

type RigidBodyKind int

const (
	RigidBodyStatic RigidBodyKind = iota
	RigidBodyActive
	RigidBodyKinematic
)

type CollisionShapeKind int

const (
	CollisionShapeBox CollisionShapeKind = iota
	CollisionShapeSphere
	CollisionShapeCapsule
	CollisionShapeConvexHull
	CollisionShapeMesh
)

/**
 * @brief Rigid body block attached to a mesh object. In the authoring
 * tool the object owns the physics; in the target engine the physics
 * body owns the object, so the exporter inverts the relation.
 */
type RigidBody struct {
	Kind            RigidBodyKind
	Shape           CollisionShapeKind
	Friction        float32
	Bounce          float32
	CollisionGroups uint32
	Margin          float32
	UseMargin       bool
	LinearDamp      float32
	AngularDamp     float32
	CanSleep        bool
	StartAsleep     bool
}
