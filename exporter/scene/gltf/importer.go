// Package gltf builds an authoring scene from a glTF 2.0 document. It is
// one possible scene source; the exporter only ever sees the scene model.
package gltf

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/spaghettifunk/escargot/exporter/core"
	"github.com/spaghettifunk/escargot/exporter/scene"
)

// importer carries the document and the blocks already converted, keyed
// by glTF index so shared data stays shared in the scene model.
type importer struct {
	doc     *gltf.Document
	baseDir string

	sc        *scene.Scene
	meshes    map[int]*scene.Mesh
	materials map[int]*scene.Material
	images    map[int]*scene.Image
	// glTF node index to the created object; joints are absent.
	objects map[int]*scene.Object
	// glTF node index to the skin whose joint it is.
	jointSkin map[int]int
	armatures map[int]*scene.Object
}

// Import reads a .gltf or .glb file and converts it. The document is
// Y-up, so an export of the result wants a matching source axis.
func Import(path string) (*scene.Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if len(doc.Scenes) > 0 && doc.Scenes[0].Name != "" {
		name = doc.Scenes[0].Name
	}

	imp := &importer{
		doc:       doc,
		baseDir:   filepath.Dir(path),
		sc:        scene.NewScene(name),
		meshes:    make(map[int]*scene.Mesh),
		materials: make(map[int]*scene.Material),
		images:    make(map[int]*scene.Image),
		objects:   make(map[int]*scene.Object),
		jointSkin: make(map[int]int),
		armatures: make(map[int]*scene.Object),
	}
	if err := imp.run(); err != nil {
		return nil, err
	}
	return imp.sc, nil
}

func (imp *importer) run() error {
	for si, skin := range imp.doc.Skins {
		for _, joint := range skin.Joints {
			imp.jointSkin[joint] = si
		}
	}

	var roots []int
	if len(imp.doc.Scenes) > 0 {
		roots = imp.doc.Scenes[0].Nodes
	}
	for _, ni := range roots {
		if err := imp.importNode(ni, nil); err != nil {
			return err
		}
	}

	return imp.importAnimations()
}

func (imp *importer) importNode(ni int, parent *scene.Object) error {
	if _, isJoint := imp.jointSkin[ni]; isJoint {
		// Joints are bones, not objects; their subtrees belong to the
		// armature.
		return nil
	}
	node := imp.doc.Nodes[ni]

	name := node.Name
	if name == "" {
		name = fmt.Sprintf("Node%d", ni)
	}

	var obj *scene.Object
	switch {
	case node.Mesh != nil:
		if node.Skin != nil {
			arm, err := imp.importSkin(*node.Skin, parent)
			if err != nil {
				return err
			}
			parent = arm
		}
		obj = imp.sc.NewObject(name, scene.ObjectTypeMesh, parent)
		mesh, err := imp.importMesh(*node.Mesh)
		if err != nil {
			return err
		}
		obj.Mesh = mesh
		if node.Skin != nil {
			obj.ArmatureObject = parent
			// JOINTS_0 values index into the skin's joint list;
			// vertex group names resolve them to bones.
			if len(mesh.VertexGroups) == 0 {
				for _, j := range imp.doc.Skins[*node.Skin].Joints {
					mesh.VertexGroups = append(mesh.VertexGroups, imp.jointName(j))
				}
			}
		}
	case node.Camera != nil:
		obj = imp.sc.NewObject(name, scene.ObjectTypeCamera, parent)
		obj.Camera = imp.importCamera(*node.Camera, name)
	default:
		obj = imp.sc.NewObject(name, scene.ObjectTypeEmpty, parent)
	}

	obj.Transform = nodeTransform(node)
	imp.objects[ni] = obj

	for _, child := range node.Children {
		if err := imp.importNode(child, obj); err != nil {
			return err
		}
	}
	return nil
}

// nodeTransform composes the node's matrix, or its TRS when no matrix is
// present. The document stores float64; the scene model is float32, so
// everything narrows here.
func nodeTransform(node *gltf.Node) mgl32.Mat4 {
	if m := node.MatrixOrDefault(); m != gltf.DefaultMatrix {
		// Stored column-major, same as mgl32.
		var out mgl32.Mat4
		for i, v := range m {
			out[i] = float32(v)
		}
		return out
	}

	loc := vec3f(node.TranslationOrDefault())
	t := mgl32.Translate3D(loc.X(), loc.Y(), loc.Z())
	r := quatf(node.RotationOrDefault()).Mat4()
	sca := vec3f(node.ScaleOrDefault())
	s := mgl32.Scale3D(sca.X(), sca.Y(), sca.Z())
	return t.Mul4(r).Mul4(s)
}

func (imp *importer) importMesh(mi int) (*scene.Mesh, error) {
	if mesh, ok := imp.meshes[mi]; ok {
		return mesh, nil
	}
	src := imp.doc.Meshes[mi]

	name := src.Name
	if name == "" {
		name = fmt.Sprintf("Mesh%d", mi)
	}
	mesh := scene.NewMesh(name)

	for pi, prim := range src.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			core.LogWarn("mesh %q primitive %d: mode %d not supported, skipped",
				name, pi, prim.Mode)
			continue
		}
		if err := imp.importPrimitive(mesh, prim); err != nil {
			return nil, fmt.Errorf("mesh %q primitive %d: %w", name, pi, err)
		}
	}

	imp.meshes[mi] = mesh
	return mesh, nil
}

// importPrimitive appends one primitive's triangles. Every primitive
// adds its own vertices; the exporter dedups corners again on output.
func (imp *importer) importPrimitive(mesh *scene.Mesh, prim *gltf.Primitive) error {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return fmt.Errorf("primitive has no positions")
	}
	positions, err := modeler.ReadPosition(imp.doc, imp.doc.Accessors[posIdx], nil)
	if err != nil {
		return err
	}

	var normals [][3]float32
	if ai, ok := prim.Attributes[gltf.NORMAL]; ok {
		if normals, err = modeler.ReadNormal(imp.doc, imp.doc.Accessors[ai], nil); err != nil {
			return err
		}
	}
	var uvs [][2]float32
	if ai, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if uvs, err = modeler.ReadTextureCoord(imp.doc, imp.doc.Accessors[ai], nil); err != nil {
			return err
		}
	}
	var uvs2 [][2]float32
	if ai, ok := prim.Attributes[gltf.TEXCOORD_1]; ok {
		if uvs2, err = modeler.ReadTextureCoord(imp.doc, imp.doc.Accessors[ai], nil); err != nil {
			return err
		}
	}
	var colors [][4]uint8
	if ai, ok := prim.Attributes[gltf.COLOR_0]; ok {
		if colors, err = modeler.ReadColor(imp.doc, imp.doc.Accessors[ai], nil); err != nil {
			return err
		}
	}
	var joints [][4]uint16
	if ai, ok := prim.Attributes[gltf.JOINTS_0]; ok {
		if joints, err = modeler.ReadJoints(imp.doc, imp.doc.Accessors[ai], nil); err != nil {
			return err
		}
	}
	var weights [][4]float32
	if ai, ok := prim.Attributes[gltf.WEIGHTS_0]; ok {
		if weights, err = modeler.ReadWeights(imp.doc, imp.doc.Accessors[ai], nil); err != nil {
			return err
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		if indices, err = modeler.ReadIndices(imp.doc, imp.doc.Accessors[*prim.Indices], nil); err != nil {
			return err
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	materialIndex := 0
	if prim.Material != nil {
		mat, err := imp.importMaterial(*prim.Material)
		if err != nil {
			return err
		}
		materialIndex = len(mesh.Materials)
		for i, existing := range mesh.Materials {
			if existing == mat {
				materialIndex = i
			}
		}
		if materialIndex == len(mesh.Materials) {
			mesh.Materials = append(mesh.Materials, mat)
		}
	} else if len(mesh.Materials) > 0 {
		materialIndex = len(mesh.Materials)
		mesh.Materials = append(mesh.Materials, nil)
	}

	base := len(mesh.Positions)
	for _, p := range positions {
		mesh.Positions = append(mesh.Positions, mgl32.Vec3{p[0], p[1], p[2]})
		mesh.Weights = append(mesh.Weights, nil)
	}
	if joints != nil && weights != nil {
		for vi := range positions {
			for k := 0; k < 4; k++ {
				if weights[vi][k] > 0 {
					mesh.Weights[base+vi] = append(mesh.Weights[base+vi], scene.VertexWeight{
						Group:  int(joints[vi][k]),
						Weight: weights[vi][k],
					})
				}
			}
		}
	}

	uvCount := 0
	if uvs != nil {
		uvCount = 1
	}
	if uvs2 != nil {
		uvCount = 2
	}

	for i := 0; i+2 < len(indices); i += 3 {
		loopStart := len(mesh.Loops)
		for _, raw := range indices[i : i+3] {
			vi := int(raw)
			loop := scene.Loop{Vertex: base + vi, UVCount: uvCount}
			if normals != nil {
				loop.Normal = mgl32.Vec3{normals[vi][0], normals[vi][1], normals[vi][2]}
			}
			if uvs != nil {
				loop.UV[0] = mgl32.Vec2{uvs[vi][0], uvs[vi][1]}
			}
			if uvs2 != nil {
				loop.UV[1] = mgl32.Vec2{uvs2[vi][0], uvs2[vi][1]}
			}
			if colors != nil {
				loop.HasColor = true
				for c := 0; c < 4; c++ {
					loop.Color[c] = float32(colors[vi][c]) / 255
				}
			}
			mesh.Loops = append(mesh.Loops, loop)
		}
		mesh.Polygons = append(mesh.Polygons, scene.Polygon{
			LoopStart:     loopStart,
			LoopTotal:     3,
			MaterialIndex: materialIndex,
		})
	}
	return nil
}

func (imp *importer) importMaterial(mi int) (*scene.Material, error) {
	if mat, ok := imp.materials[mi]; ok {
		return mat, nil
	}
	src := imp.doc.Materials[mi]

	name := src.Name
	if name == "" {
		name = fmt.Sprintf("Material%d", mi)
	}
	mat := scene.NewMaterial(name)
	mat.DoubleSided = src.DoubleSided
	for i, v := range src.EmissiveFactor {
		mat.Emission[i] = float32(v)
	}
	if src.AlphaMode == gltf.AlphaBlend {
		mat.Transparent = true
	}

	if pbr := src.PBRMetallicRoughness; pbr != nil {
		for i, v := range pbr.BaseColorFactorOrDefault() {
			mat.BaseColor[i] = float32(v)
		}
		mat.Metallic = float32(pbr.MetallicFactorOrDefault())
		mat.Roughness = float32(pbr.RoughnessFactorOrDefault())
		if pbr.BaseColorTexture != nil {
			img, err := imp.importImage(pbr.BaseColorTexture.Index)
			if err != nil {
				return nil, err
			}
			mat.BaseColorImage = img
		}
	}

	imp.materials[mi] = mat
	return mat, nil
}

// importImage resolves a texture index to an image block, pulling the
// payload out of the binary buffer or a data URI when there is no file.
func (imp *importer) importImage(textureIndex int) (*scene.Image, error) {
	tex := imp.doc.Textures[textureIndex]
	if tex.Source == nil {
		return nil, fmt.Errorf("texture %d has no source image", textureIndex)
	}
	ii := *tex.Source
	if img, ok := imp.images[ii]; ok {
		return img, nil
	}
	src := imp.doc.Images[ii]

	name := src.Name
	if name == "" {
		name = fmt.Sprintf("Image%d", ii)
	}
	img := scene.NewImage(name)
	img.MimeType = src.MimeType

	switch {
	case strings.HasPrefix(src.URI, "data:"):
		comma := strings.IndexByte(src.URI, ',')
		if comma < 0 {
			return nil, fmt.Errorf("image %q: malformed data URI", name)
		}
		data, err := base64.StdEncoding.DecodeString(src.URI[comma+1:])
		if err != nil {
			return nil, fmt.Errorf("image %q: %w", name, err)
		}
		img.Data = data
		if mime, ok := strings.CutPrefix(src.URI[:comma], "data:"); ok {
			img.MimeType = strings.TrimSuffix(mime, ";base64")
		}
	case src.URI != "":
		img.URI = filepath.Join(imp.baseDir, filepath.FromSlash(src.URI))
	case src.BufferView != nil:
		bv := imp.doc.BufferViews[*src.BufferView]
		buf := imp.doc.Buffers[bv.Buffer]
		img.Data = buf.Data[bv.ByteOffset : bv.ByteOffset+bv.ByteLength]
	default:
		return nil, fmt.Errorf("image %q has neither URI nor buffer view", name)
	}

	imp.images[ii] = img
	return img, nil
}

func (imp *importer) importCamera(ci int, name string) *scene.Camera {
	src := imp.doc.Cameras[ci]
	cam := scene.NewCamera(name)

	switch {
	case src.Perspective != nil:
		cam.Projection = scene.CameraPerspective
		cam.FovDeg = mgl32.RadToDeg(float32(src.Perspective.Yfov))
		cam.Near = float32(src.Perspective.Znear)
		if src.Perspective.Zfar != nil {
			cam.Far = float32(*src.Perspective.Zfar)
		}
	case src.Orthographic != nil:
		cam.Projection = scene.CameraOrthographic
		cam.Size = float32(src.Orthographic.Ymag) * 2
		cam.Near = float32(src.Orthographic.Znear)
		cam.Far = float32(src.Orthographic.Zfar)
	}
	return cam
}

func (imp *importer) jointName(j int) string {
	if name := imp.doc.Nodes[j].Name; name != "" {
		return name
	}
	return fmt.Sprintf("Bone%d", j)
}

// importSkin turns a skin into an armature object. Bone rest matrices
// come from the inverse bind matrices, which place each joint in mesh
// space, the space the skeleton node lives in.
func (imp *importer) importSkin(si int, parent *scene.Object) (*scene.Object, error) {
	if arm, ok := imp.armatures[si]; ok {
		return arm, nil
	}
	skin := imp.doc.Skins[si]

	name := skin.Name
	if name == "" {
		name = fmt.Sprintf("Armature%d", si)
	}

	obj := imp.sc.NewObject(name, scene.ObjectTypeArmature, parent)
	armature := scene.NewArmature(name)
	obj.Armature = armature

	var ibms [][4][4]float32
	if skin.InverseBindMatrices != nil {
		m, err := modeler.ReadInverseBindMatrices(imp.doc, imp.doc.Accessors[*skin.InverseBindMatrices], nil)
		if err != nil {
			return nil, err
		}
		ibms = m
	}

	jointSet := make(map[int]bool, len(skin.Joints))
	for _, j := range skin.Joints {
		jointSet[j] = true
	}
	parents := make(map[int]int)
	for _, j := range skin.Joints {
		for _, child := range imp.doc.Nodes[j].Children {
			if jointSet[child] {
				parents[child] = j
			}
		}
	}

	for bi, j := range skin.Joints {
		boneName := imp.jointName(j)

		rest := mgl32.Ident4()
		if bi < len(ibms) {
			// glTF stores matrices column-major.
			var m mgl32.Mat4
			for col := 0; col < 4; col++ {
				for row := 0; row < 4; row++ {
					m[col*4+row] = ibms[bi][col][row]
				}
			}
			rest = m.Inv()
		}

		bone := &scene.Bone{
			Name:   boneName,
			Rest:   rest,
			Pose:   mgl32.Ident4(),
			Deform: true,
		}
		if p, ok := parents[j]; ok {
			bone.Parent = imp.jointName(p)
		}
		armature.Bones = append(armature.Bones, bone)
	}

	imp.armatures[si] = obj
	return obj, nil
}

// importAnimations converts every TRS channel into transform tracks. A
// channel aiming at a joint becomes a bone track on the armature object;
// one aiming at a plain node becomes an object track.
func (imp *importer) importAnimations() error {
	for ai, anim := range imp.doc.Animations {
		name := anim.Name
		if name == "" {
			name = fmt.Sprintf("Animation%d", ai)
		}

		// Keys per target object and bone name within this clip.
		type target struct {
			obj  *scene.Object
			bone string
		}
		tracks := make(map[target]map[float32]*scene.TransformKey)
		var order []target

		for _, channel := range anim.Channels {
			if channel.Target.Node == nil || channel.Sampler >= len(anim.Samplers) {
				continue
			}
			ni := *channel.Target.Node

			var tgt target
			if si, isJoint := imp.jointSkin[ni]; isJoint {
				arm, ok := imp.armatures[si]
				if !ok {
					continue
				}
				tgt = target{obj: arm, bone: imp.jointName(ni)}
			} else if obj, ok := imp.objects[ni]; ok {
				tgt = target{obj: obj}
			} else {
				continue
			}

			if _, ok := tracks[tgt]; !ok {
				tracks[tgt] = make(map[float32]*scene.TransformKey)
				order = append(order, tgt)
			}
			if err := imp.applyChannel(tracks[tgt], channel, anim.Samplers[channel.Sampler], imp.doc.Nodes[ni]); err != nil {
				return fmt.Errorf("animation %q: %w", name, err)
			}
		}

		for _, tgt := range order {
			action := imp.actionFor(tgt.obj, name)
			track := &scene.TransformTrack{TargetBone: tgt.bone}
			for _, key := range tracks[tgt] {
				track.Keys = append(track.Keys, *key)
				if key.Frame > action.Length {
					action.Length = key.Frame
				}
			}
			action.Tracks = append(action.Tracks, track)
		}
	}
	return nil
}

// actionFor returns the clip of this name on the object, creating it as
// the active action or an extra strip.
func (imp *importer) actionFor(obj *scene.Object, name string) *scene.Action {
	if obj.AnimationData == nil {
		obj.AnimationData = &scene.AnimationData{}
	}
	ad := obj.AnimationData
	if ad.Action != nil && ad.Action.Name == name {
		return ad.Action
	}
	for _, strip := range ad.Strips {
		if strip.Name == name {
			return strip
		}
	}
	action := scene.NewAction(name)
	if ad.Action == nil {
		ad.Action = action
	} else {
		ad.Strips = append(ad.Strips, action)
	}
	return action
}

// applyChannel samples one TRS property into the per-time key map. Keys
// missing a component keep the node's static value for it.
func (imp *importer) applyChannel(keys map[float32]*scene.TransformKey,
	channel *gltf.AnimationChannel, sampler *gltf.AnimationSampler, node *gltf.Node) error {
	rawTimes, err := modeler.ReadAccessor(imp.doc, imp.doc.Accessors[sampler.Input], nil)
	if err != nil {
		return err
	}
	times, ok := rawTimes.([]float32)
	if !ok {
		return fmt.Errorf("unexpected keyframe time layout %T", rawTimes)
	}
	rawValues, err := modeler.ReadAccessor(imp.doc, imp.doc.Accessors[sampler.Output], nil)
	if err != nil {
		return err
	}

	keyAt := func(t float32) *scene.TransformKey {
		frame := t * imp.sc.FPS
		if key, ok := keys[frame]; ok {
			return key
		}
		loc, rot, sca := decomposeStatic(node)
		key := &scene.TransformKey{Frame: frame, Translation: loc, Rotation: rot, Scale: sca}
		keys[frame] = key
		return key
	}

	switch channel.Target.Path {
	case gltf.TRSTranslation:
		values, ok := rawValues.([][3]float32)
		if !ok {
			return fmt.Errorf("unexpected translation layout %T", rawValues)
		}
		for i, t := range times {
			if i < len(values) {
				keyAt(t).Translation = mgl32.Vec3{values[i][0], values[i][1], values[i][2]}
			}
		}
	case gltf.TRSRotation:
		values, ok := rawValues.([][4]float32)
		if !ok {
			return fmt.Errorf("unexpected rotation layout %T", rawValues)
		}
		for i, t := range times {
			if i < len(values) {
				v := values[i]
				keyAt(t).Rotation = mgl32.Quat{W: v[3], V: mgl32.Vec3{v[0], v[1], v[2]}}
			}
		}
	case gltf.TRSScale:
		values, ok := rawValues.([][3]float32)
		if !ok {
			return fmt.Errorf("unexpected scale layout %T", rawValues)
		}
		for i, t := range times {
			if i < len(values) {
				keyAt(t).Scale = mgl32.Vec3{values[i][0], values[i][1], values[i][2]}
			}
		}
	}
	return nil
}

func decomposeStatic(node *gltf.Node) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	return vec3f(node.TranslationOrDefault()),
		quatf(node.RotationOrDefault()),
		vec3f(node.ScaleOrDefault())
}

func vec3f(v [3]float64) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

// quatf converts an (x, y, z, w) document quaternion.
func quatf(q [4]float64) mgl32.Quat {
	return mgl32.Quat{W: float32(q[3]),
		V: mgl32.Vec3{float32(q[0]), float32(q[1]), float32(q[2])}}
}
