// Converters small enough to live in a single function. Anything more
// involved sits in its own file.
package converters

import (
	"math"

	"github.com/spaghettifunk/escargot/exporter/escn"
	"github.com/spaghettifunk/escargot/exporter/scene"
)

// ExportEmptyNode converts a transform-only object into a Spatial.
func ExportEmptyNode(ctx *Context, obj *scene.Object, parent *escn.Node) (*escn.Node, error) {
	if !ctx.Config.ObjectTypeEnabled("EMPTY") {
		return parent, nil
	}
	node := escn.NewNode(obj.Name, "Spatial", parent)
	node.Set("transform", ctx.Axes.FixMatrix(obj.Transform))
	ctx.File.AddNode(node)
	return node, nil
}

// ExportCameraNode converts a camera object. Cameras face -Z in the
// authoring tool so the transform gets the directional fix.
func ExportCameraNode(ctx *Context, obj *scene.Object, parent *escn.Node) (*escn.Node, error) {
	if obj.Camera == nil {
		return parent, nil
	}
	cam := obj.Camera

	node := escn.NewNode(obj.Name, "Camera", parent)
	node.Set("far", cam.Far)
	node.Set("near", cam.Near)
	node.Set("size", cam.Size)
	if cam.Projection == scene.CameraPerspective {
		node.Set("projection", 0)
	} else {
		node.Set("projection", 1)
	}
	node.Set("fov", cam.FovDeg)
	node.Set("transform", ctx.Axes.FixDirectional(obj.Transform))
	ctx.File.AddNode(node)
	return node, nil
}

// gammaCorrect moves a color channel from linear into display space; the
// target engine expects light colors gamma corrected.
func gammaCorrect(c float32) float32 {
	return float32(math.Pow(float64(c), 1.0/2.2))
}

// ExportLightNode converts a light object. Kinds outside point/spot/sun
// have no counterpart and are skipped with a warning.
func ExportLightNode(ctx *Context, obj *scene.Object, parent *escn.Node) (*escn.Node, error) {
	if obj.Light == nil {
		return parent, nil
	}
	light := obj.Light

	var gdType string
	switch light.Kind {
	case scene.LightKindPoint:
		gdType = "OmniLight"
	case scene.LightKindSpot:
		gdType = "SpotLight"
	case scene.LightKindSun:
		gdType = "DirectionalLight"
	default:
		ctx.Warnings.Addf("light '%s' is not supported, use point, spot or sun", obj.Name)
		return parent, nil
	}

	node := escn.NewNode(obj.Name, gdType, parent)
	node.Set("light_color", escn.Color{
		gammaCorrect(light.Color[0]),
		gammaCorrect(light.Color[1]),
		gammaCorrect(light.Color[2]),
		1,
	})

	energy := light.Energy
	if energy < 0 {
		energy = -energy
	}
	switch light.Kind {
	case scene.LightKindPoint:
		node.Set("light_energy", energy/100.0)
		node.Set("omni_range", light.Range)
	case scene.LightKindSpot:
		node.Set("light_energy", energy/100.0)
		node.Set("spot_range", light.Range)
		node.Set("spot_angle", light.SpotAngleDeg/2)
		node.Set("spot_angle_attenuation", 0.2/(light.SpotBlend+0.01))
	case scene.LightKindSun:
		node.Set("light_energy", energy)
	}

	node.Set("light_negative", light.Energy < 0)
	node.Set("shadow_enabled", light.UseShadow)
	node.Set("transform", ctx.Axes.FixDirectional(obj.Transform))
	ctx.File.AddNode(node)
	return node, nil
}

// ExportCurveNode converts a bezier curve object into a Path node with a
// Curve3D sub-resource. The engine fakes a closed path by repeating the
// first point at the end.
func ExportCurveNode(ctx *Context, obj *scene.Object, parent *escn.Node) (*escn.Node, error) {
	if obj.Curve == nil {
		return parent, nil
	}
	curve := obj.Curve

	node := escn.NewNode(obj.Name, "Path", parent)
	node.Set("transform", ctx.Axes.FixMatrix(obj.Transform))
	ctx.File.AddNode(node)

	for _, spline := range curve.Splines {
		if spline.Type != scene.SplineTypeBezier {
			// The target only understands bezier and the authoring tool
			// cannot convert other spline kinds losslessly.
			ctx.Warnings.Addf("curve '%s' has a non-bezier spline, skipped", obj.Name)
			continue
		}
		id, err := exportSpline(ctx, curve, spline)
		if err != nil {
			return nil, err
		}
		if _, ok := node.Get("curve"); !ok {
			node.Set("curve", escn.SubResourceRef(id))
		}
	}
	return node, nil
}

func exportSpline(ctx *Context, curve *scene.Curve, spline *scene.Spline) (int, error) {
	key := escn.ResourceKey{Kind: "Curve3D", ID: curve.ID}
	return ctx.File.RegisterInternalResource(key, func() (*escn.InternalResource, error) {
		points := escn.NewArray("PoolVector3Array(")
		tilts := escn.NewArray("PoolRealArray(")

		src := spline.Points
		if spline.Cyclic && len(src) > 0 {
			src = append(append([]scene.BezierPoint{}, src...), src[0])
		}
		for _, p := range src {
			// Authoring handles are absolute; the target wants them
			// relative to the control point.
			in := ctx.Axes.FixVector(p.HandleLeft.Sub(p.Co))
			out := ctx.Axes.FixVector(p.HandleRight.Sub(p.Co))
			co := ctx.Axes.FixVector(p.Co)
			points.Append(in.X(), in.Y(), in.Z())
			points.Append(out.X(), out.Y(), out.Z())
			points.Append(co.X(), co.Y(), co.Z())
			tilts.Append(p.Tilt)
		}

		data := escn.NewMap()
		data.Set("points", points)
		data.Set("tilts", tilts)

		res := escn.NewInternalResource("Curve3D", curve.Name)
		res.Set("_data", data)
		return res, nil
	})
}
