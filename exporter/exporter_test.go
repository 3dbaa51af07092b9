package exporter

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/escargot/exporter/config"
	"github.com/spaghettifunk/escargot/exporter/core"
	"github.com/spaghettifunk/escargot/exporter/scene"
)

func testScene() *scene.Scene {
	sc := scene.NewScene("Demo")
	mesh := scene.NewMesh("Cube")
	mesh.Positions = []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}}
	for i := 0; i < 3; i++ {
		mesh.Loops = append(mesh.Loops, scene.Loop{Vertex: i, Normal: mgl32.Vec3{0, 0, 1}})
		mesh.Weights = append(mesh.Weights, nil)
	}
	mesh.Polygons = []scene.Polygon{{LoopStart: 0, LoopTotal: 3}}

	obj := sc.NewObject("Cube", scene.ObjectTypeMesh, nil)
	obj.Mesh = mesh
	return sc
}

func TestExportToIsDeterministic(t *testing.T) {
	sc := testScene()
	e := New(config.Default(), sc)

	var a, b bytes.Buffer
	if err := e.ExportTo(&a); err != nil {
		t.Fatal(err)
	}
	if err := e.ExportTo(&b); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Fatal("two exports of the same scene differ")
	}
}

func TestExportDocumentShape(t *testing.T) {
	sc := testScene()
	e := New(config.Default(), sc)

	var out bytes.Buffer
	if err := e.ExportTo(&out); err != nil {
		t.Fatal(err)
	}
	doc := out.String()

	if !strings.HasPrefix(doc, "[gd_scene load_steps=2 format=2]\n") {
		t.Fatalf("bad header:\n%s", doc)
	}
	if !strings.Contains(doc, `[node name="Demo" type="Spatial"]`) {
		t.Fatalf("missing root node:\n%s", doc)
	}
	if !strings.Contains(doc, `[node name="Cube" type="MeshInstance" parent="."]`) {
		t.Fatalf("missing mesh node:\n%s", doc)
	}
}

func TestExportSharedMeshEmitsOneResource(t *testing.T) {
	sc := testScene()
	second := sc.NewObject("Cube", scene.ObjectTypeMesh, nil)
	second.Mesh = sc.TopLevel()[0].Mesh

	var out bytes.Buffer
	if err := New(config.Default(), sc).ExportTo(&out); err != nil {
		t.Fatal(err)
	}
	doc := out.String()

	if got := strings.Count(doc, `[sub_resource type="ArrayMesh"`); got != 1 {
		t.Fatalf("ArrayMesh resources = %d; want 1:\n%s", got, doc)
	}
	if got := strings.Count(doc, "mesh = SubResource(1)"); got != 2 {
		t.Fatalf("mesh references = %d; want 2:\n%s", got, doc)
	}
	// The sibling name collision resolves with a numeric suffix.
	if !strings.Contains(doc, `[node name="Cube2" type="MeshInstance" parent="."]`) {
		t.Fatalf("missing renamed sibling:\n%s", doc)
	}
}

func TestExportFiltersAndForceIncludesAncestors(t *testing.T) {
	sc := scene.NewScene("Demo")
	parent := sc.NewObject("Rig", scene.ObjectTypeEmpty, nil)
	parent.Visible = false
	child := sc.NewObject("Prop", scene.ObjectTypeEmpty, parent)
	child.Visible = true
	sc.NewObject("Hidden", scene.ObjectTypeEmpty, nil).Visible = false

	cfg := config.Default()
	cfg.UseVisibleOnly = true

	var out bytes.Buffer
	if err := New(cfg, sc).ExportTo(&out); err != nil {
		t.Fatal(err)
	}
	doc := out.String()

	// The invisible parent is pulled in to keep the visible child
	// reachable; the invisible leaf is dropped.
	if !strings.Contains(doc, `[node name="Rig"`) || !strings.Contains(doc, `[node name="Prop"`) {
		t.Fatalf("missing force-included chain:\n%s", doc)
	}
	if strings.Contains(doc, `[node name="Hidden"`) {
		t.Fatalf("invisible leaf exported:\n%s", doc)
	}
}

func TestExportUnsupportedKindSkipsSubtree(t *testing.T) {
	sc := scene.NewScene("Demo")
	odd := sc.NewObject("Gizmo", scene.ObjectTypeUnsupported, nil)
	sc.NewObject("Below", scene.ObjectTypeEmpty, odd)

	e := New(config.Default(), sc)
	var out bytes.Buffer
	if err := e.ExportTo(&out); err != nil {
		t.Fatal(err)
	}
	doc := out.String()

	if strings.Contains(doc, `[node name="Below"`) {
		t.Fatalf("descendant of skipped object exported:\n%s", doc)
	}
	warnings := e.Warnings().All()
	if len(warnings) != 2 {
		t.Fatalf("warnings = %v; want skip + orphan", warnings)
	}
	if !strings.Contains(warnings[0], "unsupported object kind") {
		t.Fatalf("first warning = %q", warnings[0])
	}
	if !strings.Contains(warnings[1], "ancestor is not exported") {
		t.Fatalf("second warning = %q", warnings[1])
	}
}

func TestExportWritesFile(t *testing.T) {
	sc := testScene()
	path := filepath.Join(t.TempDir(), "demo.escn")

	if err := New(config.Default(), sc).Export(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("[gd_scene")) {
		t.Fatalf("unexpected document:\n%s", data)
	}
}

func TestExportFatalErrorLeavesNoFile(t *testing.T) {
	sc := scene.NewScene("Demo")
	armObj := sc.NewObject("Armature", scene.ObjectTypeArmature, nil)
	armObj.Armature = scene.NewArmature("Armature")
	armObj.Armature.Bones = []*scene.Bone{{
		Name: "Root", Rest: mgl32.Ident4(), Pose: mgl32.Ident4(), Deform: true,
	}}

	mesh := scene.NewMesh("Skin")
	mesh.Positions = []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}}
	for i := 0; i < 3; i++ {
		mesh.Loops = append(mesh.Loops, scene.Loop{Vertex: i, Normal: mgl32.Vec3{0, 0, 1}})
		// No weights: rigged geometry like this aborts the export.
		mesh.Weights = append(mesh.Weights, nil)
	}
	mesh.Polygons = []scene.Polygon{{LoopStart: 0, LoopTotal: 3}}
	mesh.VertexGroups = []string{"Root"}
	skin := sc.NewObject("Skin", scene.ObjectTypeMesh, armObj)
	skin.Mesh = mesh
	skin.ArmatureObject = armObj

	path := filepath.Join(t.TempDir(), "demo.escn")
	err := New(config.Default(), sc).Export(path)
	if err == nil {
		t.Fatal("expected export to fail")
	}
	if !errors.Is(err, core.ErrUnresolvedResource) {
		t.Fatalf("err = %v; want ErrUnresolvedResource", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatalf("partial file left behind: %v", statErr)
	}
}
