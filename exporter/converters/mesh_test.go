package converters

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/escargot/exporter/core"
	"github.com/spaghettifunk/escargot/exporter/scene"
)

func TestExportMeshVertexDedupAndWinding(t *testing.T) {
	sc := scene.NewScene("Scene")
	obj := sc.NewObject("Quad", scene.ObjectTypeMesh, nil)
	obj.Mesh = quadMesh("Quad")

	ctx, root := newTestContext(t, sc)
	if _, err := ExportMeshNode(ctx, obj, root); err != nil {
		t.Fatal(err)
	}

	out := marshal(ctx)
	if !strings.Contains(out, `[sub_resource type="ArrayMesh" id=1]`) {
		t.Fatalf("missing ArrayMesh resource:\n%s", out)
	}
	// The quad fans into two triangles over four shared vertices with
	// the second and third corner swapped for backface winding.
	if !strings.Contains(out, "IntArray(0, 2, 1, 0, 3, 2)") {
		t.Fatalf("unexpected index array:\n%s", out)
	}
	// Four deduplicated vertices, not six.
	positions := strings.SplitN(out, "Vector3Array(", 2)[1]
	positions = positions[:strings.Index(positions, ")")]
	if got := len(strings.Split(positions, ",")); got != 12 {
		t.Fatalf("position floats = %d; want 12:\n%s", got, out)
	}
}

func TestExportMeshAbsentAttributePlaceholders(t *testing.T) {
	sc := scene.NewScene("Scene")
	obj := sc.NewObject("Quad", scene.ObjectTypeMesh, nil)
	obj.Mesh = quadMesh("Quad")

	ctx, root := newTestContext(t, sc)
	if _, err := ExportMeshNode(ctx, obj, root); err != nil {
		t.Fatal(err)
	}

	out := marshal(ctx)
	for _, placeholder := range []string{
		"null, ; No Tangents",
		"null, ; no Vertex Colors",
		"null, ; No UV1",
		"null, ; No UV2",
		"null, ; No Bones",
		"null, ; No Weights",
	} {
		if !strings.Contains(out, placeholder) {
			t.Errorf("missing placeholder %q:\n%s", placeholder, out)
		}
	}
}

func TestExportMeshSharedDataIsPooledOnce(t *testing.T) {
	sc := scene.NewScene("Scene")
	mesh := quadMesh("Quad")
	a := sc.NewObject("QuadA", scene.ObjectTypeMesh, nil)
	a.Mesh = mesh
	b := sc.NewObject("QuadB", scene.ObjectTypeMesh, nil)
	b.Mesh = mesh

	ctx, root := newTestContext(t, sc)
	if _, err := ExportMeshNode(ctx, a, root); err != nil {
		t.Fatal(err)
	}
	if _, err := ExportMeshNode(ctx, b, root); err != nil {
		t.Fatal(err)
	}

	if got := len(ctx.File.InternalResources()); got != 1 {
		t.Fatalf("resources = %d; want 1", got)
	}
	out := marshal(ctx)
	if got := strings.Count(out, "mesh = SubResource(1)"); got != 2 {
		t.Fatalf("SubResource references = %d; want 2:\n%s", got, out)
	}
}

func TestExportMeshSurfacesSplitByMaterial(t *testing.T) {
	sc := scene.NewScene("Scene")
	mesh := quadMesh("Quad")
	// Second quad with a different material slot.
	mesh.Positions = append(mesh.Positions,
		mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 1}, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{0, 1, 1})
	for i := 4; i < 8; i++ {
		mesh.Loops = append(mesh.Loops, scene.Loop{Vertex: i, Normal: mgl32.Vec3{0, 0, 1}})
		mesh.Weights = append(mesh.Weights, nil)
	}
	mesh.Polygons = append(mesh.Polygons, scene.Polygon{LoopStart: 4, LoopTotal: 4, MaterialIndex: 1})
	mesh.Materials = []*scene.Material{scene.NewMaterial("A"), scene.NewMaterial("B")}

	obj := sc.NewObject("Quad", scene.ObjectTypeMesh, nil)
	obj.Mesh = mesh

	ctx, root := newTestContext(t, sc)
	if _, err := ExportMeshNode(ctx, obj, root); err != nil {
		t.Fatal(err)
	}

	out := marshal(ctx)
	if !strings.Contains(out, "surfaces/0 = ") || !strings.Contains(out, "surfaces/1 = ") {
		t.Fatalf("expected two surfaces:\n%s", out)
	}
	// One SpatialMaterial per slot plus the mesh itself.
	if got := len(ctx.File.InternalResources()); got != 3 {
		t.Fatalf("resources = %d; want 3", got)
	}
}

func TestExportMeshBlendShapes(t *testing.T) {
	sc := scene.NewScene("Scene")
	mesh := quadMesh("Quad")
	mesh.ShapeKeys = []*scene.ShapeKey{{
		Name:      "Wave",
		Positions: []mgl32.Vec3{{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}},
	}}
	obj := sc.NewObject("Quad", scene.ObjectTypeMesh, nil)
	obj.Mesh = mesh

	ctx, root := newTestContext(t, sc)
	ctx.Config.UseExportShapeKey = true
	if _, err := ExportMeshNode(ctx, obj, root); err != nil {
		t.Fatal(err)
	}

	out := marshal(ctx)
	if !strings.Contains(out, `blend_shape/names = PoolStringArray("Wave")`) {
		t.Fatalf("missing blend shape names:\n%s", out)
	}
	if !strings.Contains(out, "blend_shape/mode = 0") {
		t.Fatalf("missing blend shape mode:\n%s", out)
	}
	if !strings.Contains(out, "null, ; Morph Object") {
		t.Fatalf("morph arrays must carry no indices:\n%s", out)
	}
}

func TestExportRiggedMeshWithoutWeightsFails(t *testing.T) {
	sc := scene.NewScene("Scene")

	armObj := sc.NewObject("Armature", scene.ObjectTypeArmature, nil)
	armObj.Armature = scene.NewArmature("Armature")
	armObj.Armature.Bones = []*scene.Bone{{
		Name: "Root", Rest: mgl32.Ident4(), Pose: mgl32.Ident4(), Deform: true,
	}}

	mesh := quadMesh("Quad")
	mesh.VertexGroups = []string{"Root"}
	// Vertices stay unweighted on purpose.
	meshObj := sc.NewObject("Quad", scene.ObjectTypeMesh, armObj)
	meshObj.Mesh = mesh
	meshObj.ArmatureObject = armObj

	ctx, root := newTestContext(t, sc)
	skel, err := ExportArmatureNode(ctx, armObj, root)
	if err != nil {
		t.Fatal(err)
	}

	_, err = ExportMeshNode(ctx, meshObj, skel)
	if err == nil {
		t.Fatal("expected rigged mesh without weights to fail")
	}
	if !errors.Is(err, core.ErrUnresolvedResource) {
		t.Fatalf("err = %v; want ErrUnresolvedResource", err)
	}
}

func TestExportRiggedMeshBoneArrays(t *testing.T) {
	sc := scene.NewScene("Scene")

	armObj := sc.NewObject("Armature", scene.ObjectTypeArmature, nil)
	armObj.Armature = scene.NewArmature("Armature")
	armObj.Armature.Bones = []*scene.Bone{{
		Name: "Root", Rest: mgl32.Ident4(), Pose: mgl32.Ident4(), Deform: true,
	}}

	mesh := quadMesh("Quad")
	mesh.VertexGroups = []string{"Root"}
	for i := range mesh.Weights {
		mesh.Weights[i] = []scene.VertexWeight{{Group: 0, Weight: 0.5}}
	}
	meshObj := sc.NewObject("Quad", scene.ObjectTypeMesh, armObj)
	meshObj.Mesh = mesh
	meshObj.ArmatureObject = armObj

	ctx, root := newTestContext(t, sc)
	skel, err := ExportArmatureNode(ctx, armObj, root)
	if err != nil {
		t.Fatal(err)
	}
	node, err := ExportMeshNode(ctx, meshObj, skel)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := node.Get("skeleton"); !ok {
		t.Fatal("rigged mesh must reference its skeleton")
	}
	out := marshal(ctx)
	// Weight 0.5 normalizes to 1 and pads to four influences.
	if !strings.Contains(out, "IntArray(0, 0, 0, 0") {
		t.Fatalf("missing bone index array:\n%s", out)
	}
	if !strings.Contains(out, "FloatArray(1, 0, 0, 0") {
		t.Fatalf("missing normalized weight array:\n%s", out)
	}
}
