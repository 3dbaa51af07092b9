package converters

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/escargot/exporter/escn"
	"github.com/spaghettifunk/escargot/exporter/scene"
)

// In the authoring tool the object owns the physics; in the target the
// physics body owns the object, so the body and collision nodes are
// created before the mesh node and become its ancestors.

var physicsBodyTypes = map[string]bool{
	"StaticBody":    true,
	"RigidBody":     true,
	"KinematicBody": true,
}

// HasPhysics reports whether the object carries a rigid body block.
func HasPhysics(obj *scene.Object) bool {
	return obj.RigidBody != nil
}

// physicsRoot returns the topmost ancestor carrying physics, nil when
// there is none. Descendant bodies merge into the root as a compound
// shape.
func physicsRoot(obj *scene.Object) *scene.Object {
	var root *scene.Object
	for ptr := obj; ptr.Parent != nil; ptr = ptr.Parent {
		if ptr.Parent.RigidBody != nil {
			root = ptr.Parent
		}
	}
	return root
}

// IsPhysicsRoot reports whether no ancestor carries physics.
func IsPhysicsRoot(obj *scene.Object) bool {
	return physicsRoot(obj) == nil
}

// worldTransform accumulates the local transforms up to the scene root.
func worldTransform(obj *scene.Object) mgl32.Mat4 {
	m := obj.Transform
	for ptr := obj.Parent; ptr != nil; ptr = ptr.Parent {
		m = ptr.Transform.Mul4(m)
	}
	return m
}

// ExportPhysicsProperties creates the body and collision nodes for an
// object and returns the collision node, which the mesh node is placed
// beneath.
func ExportPhysicsProperties(ctx *Context, obj *scene.Object, parent *escn.Node) (*escn.Node, error) {
	root := physicsRoot(obj)

	if root == nil {
		parent = exportPhysicsController(ctx, obj, parent)
	}

	// The collision shape always hangs off the closest enclosing body.
	body := parent
	for body != nil && !physicsBodyTypes[body.Type()] {
		body = body.Parent()
	}
	if body == nil {
		body = parent
	}

	return exportCollisionShape(ctx, obj, body, root)
}

// exportPhysicsController emits the body node matching the rigid body
// kind, carrying the object's transform and the shared body options.
func exportPhysicsController(ctx *Context, obj *scene.Object, parent *escn.Node) *escn.Node {
	rbd := obj.RigidBody

	var bodyType string
	switch rbd.Kind {
	case scene.RigidBodyActive:
		bodyType = "RigidBody"
	case scene.RigidBodyKinematic:
		bodyType = "KinematicBody"
	default:
		bodyType = "StaticBody"
	}

	node := escn.NewNode(obj.Name+"Physics", bodyType, parent)
	node.Set("friction", rbd.Friction)
	node.Set("bounce", rbd.Bounce)
	node.Set("transform", ctx.Axes.FixMatrix(obj.Transform))
	node.Set("collision_layer", rbd.CollisionGroups)
	node.Set("collision_mask", rbd.CollisionGroups)

	if bodyType == "RigidBody" {
		node.Set("can_sleep", rbd.CanSleep)
		node.Set("linear_damp", rbd.LinearDamp)
		node.Set("angular_damp", rbd.AngularDamp)
		node.Set("sleeping", rbd.StartAsleep)
	}

	ctx.File.AddNode(node)
	return node
}

// exportCollisionShape emits the CollisionShape node and pools the shape
// resource. For a compound member the node transform re-parents the
// object's world placement under the root body.
func exportCollisionShape(ctx *Context, obj *scene.Object, body *escn.Node, root *scene.Object) (*escn.Node, error) {
	name := obj.Name + "Collision"
	node := escn.NewNode(name, "CollisionShape", body)

	rel := mgl32.Ident4()
	if root != nil {
		rel = worldTransform(root).Inv().Mul4(worldTransform(obj))
	}
	// Collision geometry is kept in the source basis; the correction
	// rotation on the node maps it into the target basis.
	node.Set("transform", ctx.Axes.FixDirectional(rel))

	shapeID, ok, err := buildShapeResource(ctx, obj, name)
	if err != nil {
		return nil, err
	}
	if ok {
		node.Set("shape", escn.SubResourceRef(shapeID))
	} else {
		ctx.Warnings.Addf("unable to export physics shape for %q", obj.Name)
	}

	ctx.File.AddNode(node)
	return node, nil
}

func buildShapeResource(ctx *Context, obj *scene.Object, name string) (int, bool, error) {
	rbd := obj.RigidBody
	mesh := obj.Mesh
	if mesh == nil {
		return 0, false, nil
	}

	bbMin, bbMax, ok := obj.BoundingBox()
	if !ok {
		return 0, false, nil
	}
	bounds := bbMax.Sub(bbMin)

	switch rbd.Shape {
	case scene.CollisionShapeBox:
		id, err := ctx.File.RegisterInternalResource(
			escn.ResourceKey{Kind: "BoxShape", ID: mesh.ID},
			func() (*escn.InternalResource, error) {
				res := escn.NewInternalResource("BoxShape", name)
				res.Set("extents", bounds.Mul(0.5))
				setMargin(res, rbd)
				return res, nil
			})
		return id, err == nil, err

	case scene.CollisionShapeSphere:
		id, err := ctx.File.RegisterInternalResource(
			escn.ResourceKey{Kind: "SphereShape", ID: mesh.ID},
			func() (*escn.InternalResource, error) {
				res := escn.NewInternalResource("SphereShape", name)
				res.Set("radius", maxComponent(bounds)/2)
				setMargin(res, rbd)
				return res, nil
			})
		return id, err == nil, err

	case scene.CollisionShapeCapsule:
		id, err := ctx.File.RegisterInternalResource(
			escn.ResourceKey{Kind: "CapsuleShape", ID: mesh.ID},
			func() (*escn.InternalResource, error) {
				res := escn.NewInternalResource("CapsuleShape", name)
				radius := bounds.X()
				if bounds.Y() > radius {
					radius = bounds.Y()
				}
				radius /= 2
				res.Set("radius", radius)
				res.Set("height", bounds.Z()-radius*2)
				setMargin(res, rbd)
				return res, nil
			})
		return id, err == nil, err

	case scene.CollisionShapeConvexHull:
		id, err := ctx.File.RegisterInternalResource(
			escn.ResourceKey{Kind: "ConvexPolygonShape", ID: mesh.ID, Variant: "convex"},
			func() (*escn.InternalResource, error) {
				res := escn.NewInternalResource("ConvexPolygonShape", mesh.Name)
				res.Set("points", collisionPointArray(mesh))
				setMargin(res, rbd)
				return res, nil
			})
		return id, err == nil, err

	case scene.CollisionShapeMesh:
		id, err := ctx.File.RegisterInternalResource(
			escn.ResourceKey{Kind: "ConcavePolygonShape", ID: mesh.ID, Variant: "triangle"},
			func() (*escn.InternalResource, error) {
				res := escn.NewInternalResource("ConcavePolygonShape", mesh.Name)
				res.Set("data", collisionPointArray(mesh))
				// The concave shape always carries a margin.
				res.Set("margin", rbd.Margin)
				return res, nil
			})
		return id, err == nil, err
	}

	return 0, false, nil
}

func maxComponent(v mgl32.Vec3) float32 {
	m := v.X()
	if v.Y() > m {
		m = v.Y()
	}
	if v.Z() > m {
		m = v.Z()
	}
	return m
}

func setMargin(res *escn.InternalResource, rbd *scene.RigidBody) {
	if rbd.UseMargin {
		res.Set("margin", rbd.Margin)
	}
}

// collisionPointArray flattens the triangulated mesh into one point per
// triangle corner, in the source basis.
func collisionPointArray(mesh *scene.Mesh) *escn.Array {
	points := escn.NewArray("PoolVector3Array(")
	for _, poly := range mesh.Polygons {
		for i := 1; i+1 < poly.LoopTotal; i++ {
			for _, off := range []int{0, i, i + 1} {
				p := mesh.Positions[mesh.Loops[poly.LoopStart+off].Vertex]
				points.Append(p.X(), p.Y(), p.Z())
			}
		}
	}
	return points
}
