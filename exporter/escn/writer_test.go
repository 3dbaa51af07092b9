package escn

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/spaghettifunk/escargot/exporter/core"
)

func buildTestFile(t *testing.T) *File {
	t.Helper()
	f := NewFile()

	f.AddExternalResource(NewExternalResource("textures/wood.png", "Texture"),
		ResourceKey{Kind: "Texture", ID: uuid.MustParse("00000000-0000-0000-0000-000000000001")})

	mat := NewInternalResource("SpatialMaterial", "Wood")
	mat.Set("roughness", float32(0.5))
	f.AddInternalResource(mat,
		ResourceKey{Kind: "SpatialMaterial", ID: uuid.MustParse("00000000-0000-0000-0000-000000000002")})

	root := NewRootNode("Scene", "Spatial")
	f.AddNode(root)
	cube := NewNode("Cube", "MeshInstance", root)
	cube.Set("mesh", SubResourceRef(1))
	cube.Set("visible", true)
	cube.Set("transform", mgl32.Ident4())
	f.AddNode(cube)

	return f
}

func TestMarshalGolden(t *testing.T) {
	f := buildTestFile(t)

	want := `[gd_scene load_steps=3 format=2]

[ext_resource path="textures/wood.png" type="Texture" id=1]

[sub_resource type="SpatialMaterial" id=1]

resource_name = "Wood"
roughness = 0.5

[node name="Scene" type="Spatial"]

[node name="Cube" type="MeshInstance" parent="."]

mesh = SubResource(1)
visible = true
transform = Transform( 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0 )
`

	got := string(NewWriter(-1).Marshal(f))
	if got != want {
		t.Fatalf("document mismatch:\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}

func TestMarshalIsDeterministic(t *testing.T) {
	f := buildTestFile(t)
	w := NewWriter(-1)
	if !bytes.Equal(w.Marshal(f), w.Marshal(f)) {
		t.Fatal("two marshals of the same file differ")
	}
}

func TestWriteFileFailureLeavesNothing(t *testing.T) {
	f := buildTestFile(t)
	path := filepath.Join(t.TempDir(), "missing", "out.escn")

	err := NewWriter(-1).WriteFile(f, path)
	if !errors.Is(err, core.ErrOutputIO) {
		t.Fatalf("err = %v; want ErrOutputIO", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatal("a failed write must not leave a file behind")
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	f := buildTestFile(t)
	path := filepath.Join(t.TempDir(), "out.escn")

	if err := NewWriter(-1).WriteFile(f, path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, NewWriter(-1).Marshal(f)) {
		t.Fatal("written bytes differ from marshaled bytes")
	}
}
