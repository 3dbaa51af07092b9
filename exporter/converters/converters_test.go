package converters

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/escargot/exporter/config"
	"github.com/spaghettifunk/escargot/exporter/core"
	"github.com/spaghettifunk/escargot/exporter/escn"
	"github.com/spaghettifunk/escargot/exporter/scene"
)

// newTestContext builds a context over a fresh document with the default
// configuration and a Z-up to Y-up basis change.
func newTestContext(t *testing.T, sc *scene.Scene) (*Context, *escn.Node) {
	t.Helper()
	axes, err := escn.NewAxes("Z", "Y")
	if err != nil {
		t.Fatal(err)
	}
	ctx := NewContext(escn.NewFile(), config.Default(), axes,
		core.NewWarningList(), sc, t.TempDir(), "")
	root := escn.NewRootNode(sc.Name, "Spatial")
	ctx.File.AddNode(root)
	return ctx, root
}

func marshal(ctx *Context) string {
	return string(escn.NewWriter(-1).Marshal(ctx.File))
}

// quadMesh returns a single-quad mesh with four distinct corners.
func quadMesh(name string) *scene.Mesh {
	mesh := scene.NewMesh(name)
	mesh.Positions = []mgl32.Vec3{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
	}
	for i := 0; i < 4; i++ {
		mesh.Loops = append(mesh.Loops, scene.Loop{
			Vertex: i,
			Normal: mgl32.Vec3{0, 0, 1},
		})
		mesh.Weights = append(mesh.Weights, nil)
	}
	mesh.Polygons = []scene.Polygon{{LoopStart: 0, LoopTotal: 4}}
	return mesh
}

func TestDispatchCoversClosedKindSet(t *testing.T) {
	kinds := []scene.ObjectType{
		scene.ObjectTypeEmpty, scene.ObjectTypeMesh, scene.ObjectTypeArmature,
		scene.ObjectTypeLight, scene.ObjectTypeCamera, scene.ObjectTypeCurve,
	}
	for _, kind := range kinds {
		if _, ok := Dispatch(kind); !ok {
			t.Errorf("no converter for %s", kind)
		}
	}
	if _, ok := Dispatch(scene.ObjectTypeUnsupported); ok {
		t.Error("unsupported kind must not dispatch")
	}
}

func TestExportEmptyNode(t *testing.T) {
	sc := scene.NewScene("Scene")
	obj := sc.NewObject("Anchor", scene.ObjectTypeEmpty, nil)
	obj.Transform = mgl32.Translate3D(1, 2, 3)

	ctx, root := newTestContext(t, sc)
	node, err := ExportEmptyNode(ctx, obj, root)
	if err != nil {
		t.Fatal(err)
	}
	if node.Type() != "Spatial" {
		t.Fatalf("type = %q; want Spatial", node.Type())
	}

	out := marshal(ctx)
	if !strings.Contains(out, `[node name="Anchor" type="Spatial" parent="."]`) {
		t.Fatalf("missing node record:\n%s", out)
	}
	// Z-up translation (1,2,3) lands at (1,3,-2) in Y-up.
	if !strings.Contains(out, "Transform( 1, 0, 0, 0, 1, 0, 0, 0, 1, 1, 3, -2 )") {
		t.Fatalf("missing fixed transform:\n%s", out)
	}
}

func TestExportLightKinds(t *testing.T) {
	sc := scene.NewScene("Scene")
	cases := []struct {
		kind scene.LightKind
		want string
	}{
		{scene.LightKindPoint, "OmniLight"},
		{scene.LightKindSpot, "SpotLight"},
		{scene.LightKindSun, "DirectionalLight"},
	}
	for _, c := range cases {
		obj := sc.NewObject("Light", scene.ObjectTypeLight, nil)
		obj.Light = scene.NewLight("Light", c.kind)

		ctx, root := newTestContext(t, sc)
		node, err := ExportLightNode(ctx, obj, root)
		if err != nil {
			t.Fatal(err)
		}
		if node.Type() != c.want {
			t.Errorf("kind %v: type = %q; want %q", c.kind, node.Type(), c.want)
		}
	}
}

func TestExportLightUnsupportedKindWarns(t *testing.T) {
	sc := scene.NewScene("Scene")
	obj := sc.NewObject("Area", scene.ObjectTypeLight, nil)
	obj.Light = scene.NewLight("Area", scene.LightKindOther)

	ctx, root := newTestContext(t, sc)
	node, err := ExportLightNode(ctx, obj, root)
	if err != nil {
		t.Fatal(err)
	}
	if node != root {
		t.Fatal("unsupported light must not create a node")
	}
	if ctx.Warnings.Len() != 1 {
		t.Fatalf("warnings = %d; want 1", ctx.Warnings.Len())
	}
}

func TestExportNegativeLightEnergy(t *testing.T) {
	sc := scene.NewScene("Scene")
	obj := sc.NewObject("Sun", scene.ObjectTypeLight, nil)
	obj.Light = scene.NewLight("Sun", scene.LightKindSun)
	obj.Light.Energy = -3

	ctx, root := newTestContext(t, sc)
	node, err := ExportLightNode(ctx, obj, root)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := node.Get("light_energy"); v != float32(3) {
		t.Fatalf("light_energy = %v; want 3", v)
	}
	if v, _ := node.Get("light_negative"); v != true {
		t.Fatal("light_negative must be set for negative energy")
	}
}

func TestExportCameraProjection(t *testing.T) {
	sc := scene.NewScene("Scene")
	obj := sc.NewObject("Cam", scene.ObjectTypeCamera, nil)
	obj.Camera = scene.NewCamera("Cam")
	obj.Camera.Projection = scene.CameraOrthographic
	obj.Camera.Size = 10

	ctx, root := newTestContext(t, sc)
	node, err := ExportCameraNode(ctx, obj, root)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := node.Get("projection"); v != 1 {
		t.Fatalf("projection = %v; want 1", v)
	}
	if v, _ := node.Get("size"); v != float32(10) {
		t.Fatalf("size = %v; want 10", v)
	}
}

func TestExportCurveCyclicRepeatsFirstPoint(t *testing.T) {
	sc := scene.NewScene("Scene")
	obj := sc.NewObject("Track", scene.ObjectTypeCurve, nil)
	curve := scene.NewCurve("Track")
	curve.Splines = []*scene.Spline{{
		Type:   scene.SplineTypeBezier,
		Cyclic: true,
		Points: []scene.BezierPoint{
			{Co: mgl32.Vec3{0, 0, 0}, HandleLeft: mgl32.Vec3{-1, 0, 0}, HandleRight: mgl32.Vec3{1, 0, 0}},
			{Co: mgl32.Vec3{2, 0, 0}, HandleLeft: mgl32.Vec3{1, 0, 0}, HandleRight: mgl32.Vec3{3, 0, 0}},
		},
	}}
	obj.Curve = curve

	ctx, root := newTestContext(t, sc)
	node, err := ExportCurveNode(ctx, obj, root)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := node.Get("curve"); !ok {
		t.Fatal("curve property missing")
	}

	res := ctx.File.InternalResources()[0]
	data, _ := res.Get("_data")
	points, _ := data.(*escn.Map).Get("points")
	// 2 control points + the repeated first one, 3 vectors each.
	if got := points.(*escn.Array).Len(); got != 3*3*3 {
		t.Fatalf("points length = %d; want %d", got, 27)
	}
	tilts, _ := data.(*escn.Map).Get("tilts")
	if got := tilts.(*escn.Array).Len(); got != 3 {
		t.Fatalf("tilts length = %d; want 3", got)
	}
}
