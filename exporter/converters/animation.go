package converters

import (
	"sort"
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/spaghettifunk/escargot/exporter/escn"
	"github.com/spaghettifunk/escargot/exporter/scene"
)

const linearInterpolation = 1

// AnimationResource wraps the pooled Animation resource with the running
// track count and clip length, both of which grow as tracks from
// different objects land in the same clip.
type AnimationResource struct {
	*escn.InternalResource
	trackCount int
	length     float32
}

func newAnimationResource(res *escn.InternalResource) *AnimationResource {
	res.Set("length", float32(0))
	res.Set("step", float32(0.1))
	return &AnimationResource{InternalResource: res}
}

// AddTrack appends one transform track. Keys are sorted by frame and
// consecutive identical transforms are dropped.
func (a *AnimationResource) AddTrack(axes *escn.Axes, fps float32, path escn.NodePath, keys []scene.TransformKey) {
	sorted := make([]scene.TransformKey, len(keys))
	copy(sorted, keys)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Frame < sorted[j].Frame
	})

	frames := escn.NewBracketArray()
	var prev mgl32.Mat4
	havePrev := false
	lastFrame := float32(0)
	for _, key := range sorted {
		mat := axes.FixMatrix(composeTransform(key))
		if havePrev && mat == prev {
			continue
		}
		prev, havePrev = mat, true
		if key.Frame > lastFrame {
			lastFrame = key.Frame
		}

		loc, rot, sca := decomposeTransform(mat)
		frames.Append(key.Frame / fps)
		// transition, default 1.0
		frames.Append(float32(1))
		frames.Append(loc.X(), loc.Y(), loc.Z())
		frames.Append(rot.X(), rot.Y(), rot.Z(), rot.W)
		frames.Append(sca.X(), sca.Y(), sca.Z())
	}

	if clipLength := lastFrame / fps; clipLength > a.length {
		a.length = clipLength
		a.Set("length", a.length)
	}

	prefix := "tracks/" + strconv.Itoa(a.trackCount)
	a.trackCount++
	a.Set(prefix+"/type", "transform")
	a.Set(prefix+"/path", path)
	a.Set(prefix+"/interp", linearInterpolation)
	a.Set(prefix+"/keys", frames)
}

// playerState tracks the clip shared by objects beneath one player: the
// first active action creates it, later objects append their tracks.
type playerState struct {
	node        *escn.Node
	defaultAnim *AnimationResource
}

// getAnimationPlayer returns the player governing gdNode, reusing one
// found towards the root unless every object is configured to get its
// own. A new player sits beside gdNode and animates from its parent.
func (ctx *Context) getAnimationPlayer(gdNode *escn.Node) *playerState {
	if !ctx.Config.UseSeparateAnimationPlayer {
		for ptr := gdNode; ptr != nil; ptr = ptr.Parent() {
			for _, child := range ptr.Children() {
				if child.Type() == "AnimationPlayer" {
					return ctx.players[child]
				}
			}
		}
	}

	parent := gdNode.Parent()
	if parent == nil {
		parent = gdNode
	}
	node := escn.NewNode(gdNode.Name()+"Animation", "AnimationPlayer", parent)
	node.Set("root_node", escn.NodePath{Base: node.Path(), Target: parent.Path()})
	ctx.File.AddNode(node)

	state := &playerState{node: node}
	ctx.players[node] = state
	return state
}

// createAnimationResource pools the clip for an action and registers it
// under anims/<name> on the player.
func (ctx *Context) createAnimationResource(player *playerState, action *scene.Action) (*AnimationResource, error) {
	var built *escn.InternalResource
	id, err := ctx.File.RegisterInternalResource(
		escn.ResourceKey{Kind: "Animation", ID: action.ID},
		func() (*escn.InternalResource, error) {
			built = escn.NewInternalResource("Animation", action.Name)
			return built, nil
		})
	if err != nil {
		return nil, err
	}
	anim, ok := ctx.animResources[action.ID]
	if !ok {
		anim = newAnimationResource(built)
		ctx.animResources[action.ID] = anim
	}
	player.node.Set("anims/"+action.Name, escn.SubResourceRef(id))
	return anim, nil
}

// ExportAnimationData exports the object's active action into the shared
// clip and each stashed strip action into its own clip.
func ExportAnimationData(ctx *Context, gdNode *escn.Node, obj *scene.Object) error {
	ad := obj.AnimationData
	if ad == nil {
		return nil
	}

	player := ctx.getAnimationPlayer(gdNode)
	exported := make(map[uuid.UUID]bool)

	if ad.Action != nil {
		if player.defaultAnim == nil {
			anim, err := ctx.createAnimationResource(player, ad.Action)
			if err != nil {
				return err
			}
			player.defaultAnim = anim
		}
		exported[ad.Action.ID] = true
		exportTransformAction(ctx, gdNode, player, ad.Action, player.defaultAnim)
	}

	for _, action := range ad.Strips {
		if exported[action.ID] {
			continue
		}
		exported[action.ID] = true
		anim, err := ctx.createAnimationResource(player, action)
		if err != nil {
			return err
		}
		exportTransformAction(ctx, gdNode, player, action, anim)
	}
	return nil
}

// exportTransformAction turns every track of the action into a transform
// track targeting gdNode, or one of its bones for rigged tracks. Tracks
// aiming at a bone that was not exported are dropped.
func exportTransformAction(ctx *Context, gdNode *escn.Node, player *playerState,
	action *scene.Action, anim *AnimationResource) {
	skeleton := ctx.FindSkeleton(gdNode)
	base := player.node.Parent().Path()

	for _, track := range action.Tracks {
		path := escn.NodePath{Base: base, Target: gdNode.Path()}
		if track.TargetBone != "" {
			if skeleton == nil || skeleton.FindBoneID(track.TargetBone) < 0 {
				continue
			}
			path.SubName = skeleton.FindBoneName(track.TargetBone)
		}
		anim.AddTrack(ctx.Axes, ctx.Scene.FPS, path, track.Keys)
	}
}

func composeTransform(key scene.TransformKey) mgl32.Mat4 {
	t := mgl32.Translate3D(key.Translation.X(), key.Translation.Y(), key.Translation.Z())
	r := key.Rotation.Mat4()
	s := mgl32.Scale3D(key.Scale.X(), key.Scale.Y(), key.Scale.Z())
	return t.Mul4(r).Mul4(s)
}

// decomposeTransform splits an affine matrix into translation, rotation
// and per-axis scale, the layout transform track keys use.
func decomposeTransform(m mgl32.Mat4) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	loc := mgl32.Vec3{m.At(0, 3), m.At(1, 3), m.At(2, 3)}

	c0 := mgl32.Vec3{m.At(0, 0), m.At(1, 0), m.At(2, 0)}
	c1 := mgl32.Vec3{m.At(0, 1), m.At(1, 1), m.At(2, 1)}
	c2 := mgl32.Vec3{m.At(0, 2), m.At(1, 2), m.At(2, 2)}
	sca := mgl32.Vec3{c0.Len(), c1.Len(), c2.Len()}

	rot := mgl32.Ident4()
	if sca.X() > 0 && sca.Y() > 0 && sca.Z() > 0 {
		c0, c1, c2 = c0.Mul(1/sca.X()), c1.Mul(1/sca.Y()), c2.Mul(1/sca.Z())
		rot = mgl32.Mat4{
			c0.X(), c0.Y(), c0.Z(), 0,
			c1.X(), c1.Y(), c1.Z(), 0,
			c2.X(), c2.Y(), c2.Z(), 0,
			0, 0, 0, 1,
		}
	}
	return loc, mgl32.Mat4ToQuat(rot), sca
}
