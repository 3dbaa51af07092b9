package converters

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/escargot/exporter/escn"
	"github.com/spaghettifunk/escargot/exporter/scene"
)

type boneInfo struct {
	id int
	// Exported bone name after sanitation and dedup.
	name string
}

// SkeletonNode wraps the escn node of an armature with the mapping from
// authoring bone names to exported bone ids, needed by meshes that bind
// to the skeleton and by bone attachments.
type SkeletonNode struct {
	*escn.Node
	bones map[string]boneInfo
}

// FindBoneID returns the exported id of an authoring bone, -1 when the
// bone was not exported.
func (s *SkeletonNode) FindBoneID(name string) int {
	info, ok := s.bones[name]
	if !ok {
		return -1
	}
	return info.id
}

// FindBoneName returns the exported name of an authoring bone.
func (s *SkeletonNode) FindBoneName(name string) string {
	return s.bones[name].name
}

// FindSkeleton walks from node towards the root and returns the closest
// enclosing Skeleton, or nil.
func (ctx *Context) FindSkeleton(node *escn.Node) *SkeletonNode {
	for ptr := node; ptr != nil; ptr = ptr.Parent() {
		if sk, ok := ctx.skeletons[ptr]; ok {
			return sk
		}
	}
	return nil
}

// shouldExportBone applies the control-bone filter: a bone survives when
// it deforms geometry, when control-bone exclusion is off, or when an
// object is attached to it.
func shouldExportBone(ctx *Context, armatureObj *scene.Object, bone *scene.Bone) bool {
	for _, child := range armatureObj.Children() {
		if child.ParentBone == bone.Name {
			return true
		}
	}
	if !ctx.Config.UseExcludeCtrlBone || bone.Deform {
		return true
	}
	return false
}

// ExportArmatureNode synthesizes a Skeleton node with the armature's
// bone hierarchy flattened into bones/<id>/... properties.
func ExportArmatureNode(ctx *Context, obj *scene.Object, parent *escn.Node) (*escn.Node, error) {
	arm := obj.Armature
	if arm == nil {
		return parent, nil
	}

	node := escn.NewNode(obj.Name, "Skeleton", parent)
	node.Set("transform", ctx.Axes.FixMatrix(obj.Transform))
	skeleton := &SkeletonNode{Node: node, bones: make(map[string]boneInfo)}
	ctx.skeletons[node] = skeleton

	exported := make(map[string]*scene.Bone)
	var order []*scene.Bone
	for _, bone := range arm.Bones {
		if shouldExportBone(ctx, obj, bone) {
			exported[bone.Name] = bone
			order = append(order, bone)
		}
	}

	// All names must be known before parent lookup, otherwise a child
	// declared before its parent would resolve to -1.
	byName := make(map[string]*scene.Bone, len(arm.Bones))
	for _, bone := range arm.Bones {
		byName[bone.Name] = bone
	}
	usedNames := make(map[string]bool)
	for i, bone := range order {
		name := sanitizeBoneName(bone.Name)
		resolved := name
		for iter := 1; usedNames[resolved]; iter++ {
			resolved = fmt.Sprintf("%s%03d", name, iter)
		}
		usedNames[resolved] = true
		skeleton.bones[bone.Name] = boneInfo{id: i, name: resolved}
	}

	for _, bone := range order {
		info := skeleton.bones[bone.Name]

		// Walk up through excluded bones to the closest exported
		// ancestor; the rest matrix becomes relative to it.
		parentName := bone.Parent
		for parentName != "" {
			if _, ok := exported[parentName]; ok {
				break
			}
			// A dangling parent name leaves the bone parentless.
			ancestor, ok := byName[parentName]
			if !ok {
				parentName = ""
				break
			}
			parentName = ancestor.Parent
		}
		rest := bone.Rest
		parentID := -1
		if parentName != "" {
			rest = exported[parentName].Rest.Inv().Mul4(bone.Rest)
			parentID = skeleton.bones[parentName].id
		}
		pose := bone.Pose
		if pose == (mgl32.Mat4{}) {
			pose = mgl32.Ident4()
		}

		prefix := fmt.Sprintf("bones/%d", info.id)
		node.Set(prefix+"/name", info.name)
		node.Set(prefix+"/parent", parentID)
		node.Set(prefix+"/rest", rest)
		node.Set(prefix+"/pose", pose)
		node.Set(prefix+"/enabled", true)
		node.Set(prefix+"/bound_children", escn.NewBracketArray())
	}

	ctx.File.AddNode(node)
	return node, nil
}

// ExportBoneAttachment wraps an object parented to a bone: the object is
// exported beneath a BoneAttachment node registered in the bone's
// bound_children list.
func ExportBoneAttachment(ctx *Context, obj *scene.Object, skeleton *SkeletonNode) *escn.Node {
	attachment := escn.NewNode("BoneAttachment", "BoneAttachment", skeleton.Node)
	attachment.Set("bone_name", skeleton.FindBoneName(obj.ParentBone))

	boneID := skeleton.FindBoneID(obj.ParentBone)
	if prop, ok := skeleton.Get(fmt.Sprintf("bones/%d/bound_children", boneID)); ok {
		if children, ok := prop.(*escn.Array); ok {
			children.Append(escn.NodePath{
				Base:   skeleton.Path(),
				Target: attachment.Path(),
			})
		}
	}

	ctx.File.AddNode(attachment)
	return attachment
}

// Bone names feed node paths, so path-significant characters are dropped.
func sanitizeBoneName(name string) string {
	name = strings.ReplaceAll(name, ":", "")
	return strings.ReplaceAll(name, "/", "")
}
