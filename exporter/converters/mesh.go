package converters

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/escargot/exporter/core"
	"github.com/spaghettifunk/escargot/exporter/escn"
	"github.com/spaghettifunk/escargot/exporter/scene"
)

// A vertex joins at most this many bones; extra influences are dropped
// by descending weight and the rest renormalized.
const maxBonePerVertex = 4

// ExportMeshNode exports a MeshInstance. When the object carries physics
// the body nodes are exported first, they sit above the mesh in the tree.
func ExportMeshNode(ctx *Context, obj *scene.Object, parent *escn.Node) (*escn.Node, error) {
	if obj.Mesh == nil {
		return parent, nil
	}

	if HasPhysics(obj) {
		var err error
		parent, err = ExportPhysicsProperties(ctx, obj, parent)
		if err != nil {
			return nil, err
		}
	}

	var skeleton *SkeletonNode
	if obj.ArmatureObject != nil && ctx.Config.ObjectTypeEnabled("ARMATURE") {
		skeleton = ctx.FindSkeleton(parent)
	}

	meshRef, err := exportMeshResource(ctx, obj, skeleton)
	if err != nil {
		return nil, err
	}

	node := escn.NewNode(obj.Name, "MeshInstance", parent)
	node.Set("mesh", meshRef)
	node.Set("visible", obj.Visible)
	if skeleton != nil {
		node.Set("skeleton", escn.NodePath{Base: node.Path(), Target: skeleton.Path()})
	}
	if HasPhysics(obj) && IsPhysicsRoot(obj) {
		// The body above already carries the object transform.
		node.Set("transform", mgl32.Ident4())
	} else {
		node.Set("transform", ctx.Axes.FixMatrix(obj.Transform))
	}
	ctx.File.AddNode(node)

	return node, nil
}

// exportMeshResource pools the mesh data block as an ArrayMesh. The pool
// key is the data block alone, so instances sharing a mesh share the
// resource.
func exportMeshResource(ctx *Context, obj *scene.Object, skeleton *SkeletonNode) (escn.SubResourceRef, error) {
	mesh := obj.Mesh

	id, err := ctx.File.RegisterInternalResource(
		escn.ResourceKey{Kind: "ArrayMesh", ID: mesh.ID},
		func() (*escn.InternalResource, error) {
			res := escn.NewInternalResource("ArrayMesh", mesh.Name)

			surfaces, err := makeSurfaces(ctx, obj, skeleton)
			if err != nil {
				return nil, err
			}

			if ctx.Config.UseExportShapeKey && len(mesh.ShapeKeys) > 0 {
				names := escn.NewArray("PoolStringArray(")
				for _, key := range mesh.ShapeKeys {
					names.Append(key.Name)
				}
				res.Set("blend_shape/names", names)
				res.Set("blend_shape/mode", 0)
			}

			for i, surf := range surfaces {
				m, err := surf.toMap()
				if err != nil {
					return nil, err
				}
				res.Set(fmt.Sprintf("surfaces/%d", i), m)
			}
			return res, nil
		})
	return escn.SubResourceRef(id), err
}

// vertexData is one deduplicated vertex with every attribute the surface
// arrays carry. source remembers the originating mesh vertex index so
// blend shapes can look up their morphed position.
type vertexData struct {
	source    int
	position  mgl32.Vec3
	normal    mgl32.Vec3
	tangent   mgl32.Vec3
	bitangent mgl32.Vec3
	uv        [2]mgl32.Vec2
	uvCount   int
	color     [4]float32
	hasColor  bool
	hasTan    bool
	bones     []int
	weights   []float32
}

// key collapses the attribute set into a comparable dedup key. Two loops
// with equal attributes reference the same exported vertex.
func (v *vertexData) key() string {
	return fmt.Sprintf("%v|%v|%v|%v|%v|%v|%v|%v",
		v.position, v.normal, v.tangent, v.uv[:v.uvCount], v.color, v.hasColor,
		v.bones, v.weights)
}

// vertexArrays holds the per-surface attribute arrays in the fixed slot
// order the ArrayMesh constructor expects.
type vertexArrays struct {
	vertices []*vertexData
	// Triangles in source winding; flipped on serialization.
	indices [][3]int
	hasBone bool
}

type surface struct {
	material    interface{}
	hasMaterial bool
	data        *vertexArrays
	morphs      []*vertexArrays
	vertexMap   map[string]int
}

func newSurface() *surface {
	return &surface{
		data:      &vertexArrays{},
		vertexMap: make(map[string]int),
	}
}

func (s *surface) toMap() (*escn.Map, error) {
	m := escn.NewMap()
	if s.hasMaterial {
		m.Set("material", s.material)
	}
	m.Set("primitive", 4)
	arrays, err := s.data.toArray()
	if err != nil {
		return nil, err
	}
	m.Set("arrays", arrays)
	morphs := &escn.Array{Prefix: "[", Separator: ",\n", Suffix: "]"}
	for _, morph := range s.morphs {
		arrays, err := morph.toArray()
		if err != nil {
			return nil, err
		}
		morphs.Append(arrays)
	}
	m.Set("morph_arrays", morphs)
	return m, nil
}

// makeSurfaces splits the mesh into single-material surfaces and fills
// their vertex arrays, loop by loop, with fan triangulation.
func makeSurfaces(ctx *Context, obj *scene.Object, skeleton *SkeletonNode) ([]*surface, error) {
	mesh := obj.Mesh

	// Vertex group index to exported bone id, for groups that drive a bone.
	groupToBone := make(map[int]int)
	if skeleton != nil {
		for gi, name := range mesh.VertexGroups {
			if bid := skeleton.FindBoneID(name); bid >= 0 {
				groupToBone[gi] = bid
			}
		}
	}

	materialToSurface := make(map[int]int)
	var surfaces []*surface

	for _, poly := range mesh.Polygons {
		si, ok := materialToSurface[poly.MaterialIndex]
		if !ok {
			si = len(surfaces)
			materialToSurface[poly.MaterialIndex] = si
			surf := newSurface()
			surf.data.hasBone = skeleton != nil
			if poly.MaterialIndex < len(mesh.Materials) && mesh.Materials[poly.MaterialIndex] != nil {
				ref, err := ExportMaterial(ctx, mesh.Materials[poly.MaterialIndex])
				if err != nil {
					return nil, err
				}
				surf.material = ref
				surf.hasMaterial = true
			}
			surfaces = append(surfaces, surf)
		}
		surf := surfaces[si]

		var corner []int
		for li := poly.LoopStart; li < poly.LoopStart+poly.LoopTotal; li++ {
			vert := vertexFromLoop(ctx, mesh, li, groupToBone)
			key := vert.key()
			vi, seen := surf.vertexMap[key]
			if !seen {
				vi = len(surf.data.vertices)
				surf.vertexMap[key] = vi
				surf.data.vertices = append(surf.data.vertices, vert)
			}
			corner = append(corner, vi)
		}

		for i := 1; i+1 < len(corner); i++ {
			surf.data.indices = append(surf.data.indices,
				[3]int{corner[0], corner[i], corner[i+1]})
		}
	}

	if ctx.Config.UseExportShapeKey {
		for _, key := range mesh.ShapeKeys {
			for _, surf := range surfaces {
				surf.morphs = append(surf.morphs, morphArrays(ctx, surf.data, key))
			}
		}
	}

	return surfaces, nil
}

// vertexFromLoop collects the attributes of one face corner, already in
// the target basis.
func vertexFromLoop(ctx *Context, mesh *scene.Mesh, loopIndex int, groupToBone map[int]int) *vertexData {
	loop := &mesh.Loops[loopIndex]
	vert := &vertexData{
		source:   loop.Vertex,
		position: ctx.Axes.FixVector(mesh.Positions[loop.Vertex]),
		normal:   ctx.Axes.FixVector(loop.Normal),
		uvCount:  loop.UVCount,
		color:    loop.Color,
		hasColor: loop.HasColor,
	}
	if vert.uvCount > 2 {
		vert.uvCount = 2
	}
	for i := 0; i < vert.uvCount; i++ {
		vert.uv[i] = loop.UV[i]
	}
	if loop.HasTangent {
		vert.hasTan = true
		vert.tangent = ctx.Axes.FixVector(loop.Tangent)
		vert.bitangent = ctx.Axes.FixVector(loop.Bitangent)
	}
	if loop.Vertex < len(mesh.Weights) {
		for _, vw := range mesh.Weights[loop.Vertex] {
			if bid, ok := groupToBone[vw.Group]; ok {
				vert.bones = append(vert.bones, bid)
				vert.weights = append(vert.weights, vw.Weight)
			}
		}
	}
	return vert
}

// morphArrays derives one blend shape's arrays from the base surface:
// positions come from the shape key, every other attribute is inherited.
func morphArrays(ctx *Context, base *vertexArrays, key *scene.ShapeKey) *vertexArrays {
	morph := &vertexArrays{hasBone: base.hasBone}
	for _, vert := range base.vertices {
		mv := *vert
		if vert.source < len(key.Positions) {
			mv.position = ctx.Axes.FixVector(key.Positions[vert.source])
		}
		morph.vertices = append(morph.vertices, &mv)
	}
	return morph
}

// toArray renders the nine attribute slots. Absent attributes become a
// commented null whose trailing comment swallows the joining comma.
func (va *vertexArrays) toArray() (*escn.Array, error) {
	list := &escn.Array{Prefix: "[\n", Separator: ",\n", Suffix: "\n]"}

	positions := escn.NewArray("Vector3Array(")
	normals := escn.NewArray("Vector3Array(")
	for _, v := range va.vertices {
		appendVec3(positions, v.position)
		appendVec3(normals, v.normal)
	}
	list.Append(positions, normals)

	list.Append(va.tangentArray())
	list.Append(va.colorArray())
	list.Append(va.uvArray(0))
	list.Append(va.uvArray(1))

	bones, weights, err := va.boneArrays()
	if err != nil {
		return nil, err
	}
	list.Append(bones, weights)

	if len(va.indices) > 0 {
		indices := escn.NewArray("IntArray(")
		for _, tri := range va.indices {
			// The target derives the backface from winding order.
			indices.Append(tri[0], tri[2], tri[1])
		}
		list.Append(indices)
	} else {
		list.Append(escn.CommentedNull("Morph Object"))
	}

	return list, nil
}

func (va *vertexArrays) tangentArray() interface{} {
	if len(va.vertices) == 0 || !va.vertices[0].hasTan {
		return escn.CommentedNull("No Tangents")
	}
	vals := escn.NewArray("FloatArray(")
	for _, v := range va.vertices {
		dp := float32(-1)
		if v.normal.Cross(v.tangent).Dot(v.bitangent) > 0 {
			dp = 1
		}
		vals.Append(v.tangent.X(), v.tangent.Y(), v.tangent.Z(), dp)
	}
	return vals
}

func (va *vertexArrays) colorArray() interface{} {
	if len(va.vertices) == 0 || !va.vertices[0].hasColor {
		return escn.CommentedNull("no Vertex Colors")
	}
	vals := escn.NewArray("ColorArray(")
	for _, v := range va.vertices {
		vals.Append(v.color[0], v.color[1], v.color[2], v.color[3])
	}
	return vals
}

func (va *vertexArrays) uvArray(index int) interface{} {
	if len(va.vertices) == 0 || index >= va.vertices[0].uvCount {
		return escn.CommentedNull(fmt.Sprintf("No UV%d", index+1))
	}
	vals := escn.NewArray("Vector2Array(")
	for _, v := range va.vertices {
		// The V axis points the other way in the target.
		vals.Append(v.uv[index].X(), 1-v.uv[index].Y())
	}
	return vals
}

// boneArrays emits exactly four influences per vertex, strongest first,
// weights renormalized. A rigged vertex with no weight at all is a hard
// error, the target engine would garble the mesh.
func (va *vertexArrays) boneArrays() (interface{}, interface{}, error) {
	if !va.hasBone {
		return escn.CommentedNull("No Bones"), escn.CommentedNull("No Weights"), nil
	}

	boneIdx := escn.NewArray("IntArray(")
	boneWs := escn.NewArray("FloatArray(")
	for _, v := range va.vertices {
		type influence struct {
			bone   int
			weight float32
		}
		infs := make([]influence, len(v.bones))
		for i := range v.bones {
			infs[i] = influence{bone: v.bones[i], weight: v.weights[i]}
		}
		sort.SliceStable(infs, func(a, b int) bool {
			return infs[a].weight > infs[b].weight
		})
		if len(infs) > maxBonePerVertex {
			infs = infs[:maxBonePerVertex]
		}

		var total float32
		for _, inf := range infs {
			total += inf.weight
		}
		if total <= 0 {
			return nil, nil, core.NewValidationError(
				"vertex with no bone weight in rigged mesh")
		}
		for i := 0; i < maxBonePerVertex; i++ {
			if i < len(infs) {
				boneIdx.Append(infs[i].bone)
				boneWs.Append(infs[i].weight / total)
			} else {
				boneIdx.Append(0)
				boneWs.Append(float32(0))
			}
		}
	}
	return boneIdx, boneWs, nil
}

func appendVec3(a *escn.Array, v mgl32.Vec3) {
	a.Append(v.X(), v.Y(), v.Z())
}
