package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

/**
 * @brief The in-memory authoring scene: a graph of objects plus the data
 * blocks they reference. The exporter reads it and never mutates it.
 * Object enumeration order is the order objects were added, which makes
 * traversal deterministic for a deterministic builder (a file importer).
 */
type Scene struct {
	Name string
	/** @brief Frames per second, converts keyframe frames to seconds. */
	FPS float32

	objects []*Object
}

func NewScene(name string) *Scene {
	return &Scene{Name: name, FPS: 24}
}

// NewObject creates an object, links it under parent (nil for top-level)
// and records it in enumeration order.
func (s *Scene) NewObject(name string, t ObjectType, parent *Object) *Object {
	obj := &Object{
		Name:      name,
		Type:      t,
		Parent:    parent,
		Transform: mgl32.Ident4(),
		Visible:   true,
	}
	if parent != nil {
		parent.children = append(parent.children, obj)
	}
	s.objects = append(s.objects, obj)
	return obj
}

// Objects returns every object in enumeration order.
func (s *Scene) Objects() []*Object {
	return s.objects
}

// TopLevel returns the objects without a structural parent, in
// enumeration order.
func (s *Scene) TopLevel() []*Object {
	var out []*Object
	for _, o := range s.objects {
		if o.Parent == nil {
			out = append(out, o)
		}
	}
	return out
}

// Stats summarizes the scene for the info command.
type Stats struct {
	Objects   map[string]int
	Meshes    int
	Materials int
	Images    int
	Actions   int
}

func (s *Scene) Stats() Stats {
	st := Stats{Objects: make(map[string]int)}
	seenMesh := map[*Mesh]bool{}
	seenMat := map[*Material]bool{}
	seenImg := map[*Image]bool{}
	seenAct := map[*Action]bool{}
	for _, o := range s.objects {
		st.Objects[o.Type.String()]++
		if o.Mesh != nil && !seenMesh[o.Mesh] {
			seenMesh[o.Mesh] = true
			st.Meshes++
			for _, m := range o.Mesh.Materials {
				if m != nil && !seenMat[m] {
					seenMat[m] = true
					st.Materials++
					if m.BaseColorImage != nil && !seenImg[m.BaseColorImage] {
						seenImg[m.BaseColorImage] = true
						st.Images++
					}
				}
			}
		}
		if o.AnimationData != nil {
			for _, a := range append([]*Action{o.AnimationData.Action}, o.AnimationData.Strips...) {
				if a != nil && !seenAct[a] {
					seenAct[a] = true
					st.Actions++
				}
			}
		}
	}
	return st
}

// BoundingBox returns the object-space extents of a mesh object, used to
// size primitive collision shapes. The second value is false for objects
// without geometry.
func (o *Object) BoundingBox() (min, max mgl32.Vec3, ok bool) {
	if o.Mesh == nil || len(o.Mesh.Positions) == 0 {
		return min, max, false
	}
	min = o.Mesh.Positions[0]
	max = o.Mesh.Positions[0]
	for _, p := range o.Mesh.Positions[1:] {
		for i := 0; i < 3; i++ {
			if p[i] < min[i] {
				min[i] = p[i]
			}
			if p[i] > max[i] {
				max[i] = p[i]
			}
		}
	}
	return min, max, true
}
