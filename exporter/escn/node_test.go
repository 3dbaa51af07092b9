package escn

import "testing"

func TestSiblingNameCollision(t *testing.T) {
	root := NewRootNode("Scene", "Spatial")
	a := NewNode("Cube", "MeshInstance", root)
	b := NewNode("Cube", "MeshInstance", root)
	c := NewNode("Cube", "MeshInstance", root)

	if a.Name() != "Cube" || b.Name() != "Cube2" || c.Name() != "Cube3" {
		t.Fatalf("resolved names = %q, %q, %q; want Cube, Cube2, Cube3",
			a.Name(), b.Name(), c.Name())
	}

	// Same name under a different parent stays untouched.
	child := NewNode("Cube", "MeshInstance", a)
	if child.Name() != "Cube" {
		t.Fatalf("nested name = %q; want Cube", child.Name())
	}
}

func TestNodePaths(t *testing.T) {
	root := NewRootNode("Scene", "Spatial")
	arm := NewNode("Armature", "Skeleton", root)
	mesh := NewNode("Cube", "MeshInstance", arm)

	if got := root.Path(); got != "." {
		t.Errorf("root path = %q; want .", got)
	}
	if got := arm.Path(); got != "Armature" {
		t.Errorf("arm path = %q", got)
	}
	if got := mesh.Path(); got != "Armature/Cube" {
		t.Errorf("mesh path = %q", got)
	}
	if got := mesh.ParentPath(); got != "Armature" {
		t.Errorf("mesh parent path = %q", got)
	}
}

func TestNodePathRelative(t *testing.T) {
	cases := []struct {
		base, target, sub, want string
	}{
		{".", "Armature", "", "Armature"},
		{"Armature/Cube", "Armature", "", ".."},
		{"A/B", "A/C", "", "../C"},
		{"A", "A", "", "."},
		{"Player", "Armature", "Bone", "../Armature:Bone"},
	}
	for _, c := range cases {
		p := NodePath{Base: c.base, Target: c.target, SubName: c.sub}
		if got := p.String(); got != c.want {
			t.Errorf("NodePath{%q->%q:%q} = %q; want %q",
				c.base, c.target, c.sub, got, c.want)
		}
	}
}

func TestPropsKeepInsertionOrder(t *testing.T) {
	root := NewRootNode("Scene", "Spatial")
	root.Set("b", 1)
	root.Set("a", 2)
	root.Set("b", 3)

	if len(root.props.keys) != 2 {
		t.Fatalf("keys = %v; want 2 entries", root.props.keys)
	}
	if root.props.keys[0] != "b" || root.props.keys[1] != "a" {
		t.Fatalf("key order = %v; want [b a]", root.props.keys)
	}
	if v, _ := root.Get("b"); v != 3 {
		t.Fatalf("b = %v; want 3", v)
	}
}
