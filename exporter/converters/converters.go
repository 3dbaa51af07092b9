// Package converters turns authoring objects into escn node records and
// their attached data blocks into pooled resources, one converter per
// object kind. Dispatch is over the closed kind set; anything outside it
// is reported by the caller as unsupported.
package converters

import (
	"github.com/google/uuid"

	"github.com/spaghettifunk/escargot/exporter/config"
	"github.com/spaghettifunk/escargot/exporter/core"
	"github.com/spaghettifunk/escargot/exporter/escn"
	"github.com/spaghettifunk/escargot/exporter/scene"
)

// Context carries the per-export state every converter needs: the
// document under construction, the configuration, the basis change and
// the warning collector. It lives for one export invocation and is never
// shared between exports.
type Context struct {
	File     *escn.File
	Config   *config.Config
	Axes     *escn.Axes
	Warnings *core.WarningList
	Scene    *scene.Scene

	// OutputDir receives side-channel files (unpacked images).
	OutputDir string
	// ProjectRoot is the base for every relative resource path written
	// into the document.
	ProjectRoot string

	skeletons     map[*escn.Node]*SkeletonNode
	animResources map[uuid.UUID]*AnimationResource
	players       map[*escn.Node]*playerState
	usedFilenames map[string]bool
}

func NewContext(file *escn.File, cfg *config.Config, axes *escn.Axes,
	warnings *core.WarningList, sc *scene.Scene, outputDir, projectRoot string) *Context {
	return &Context{
		File:          file,
		Config:        cfg,
		Axes:          axes,
		Warnings:      warnings,
		Scene:         sc,
		OutputDir:     outputDir,
		ProjectRoot:   projectRoot,
		skeletons:     make(map[*escn.Node]*SkeletonNode),
		animResources: make(map[uuid.UUID]*AnimationResource),
		players:       make(map[*escn.Node]*playerState),
		usedFilenames: make(map[string]bool),
	}
}

// ExportFunc converts one object beneath the given parent node and
// returns the node that becomes the parent of the object's children.
type ExportFunc func(ctx *Context, obj *scene.Object, parent *escn.Node) (*escn.Node, error)

var dispatchTable = map[scene.ObjectType]ExportFunc{
	scene.ObjectTypeEmpty:    ExportEmptyNode,
	scene.ObjectTypeMesh:     ExportMeshNode,
	scene.ObjectTypeArmature: ExportArmatureNode,
	scene.ObjectTypeLight:    ExportLightNode,
	scene.ObjectTypeCamera:   ExportCameraNode,
	scene.ObjectTypeCurve:    ExportCurveNode,
}

// Dispatch returns the converter for an object kind, or false when the
// kind is not in the closed set.
func Dispatch(t scene.ObjectType) (ExportFunc, bool) {
	fn, ok := dispatchTable[t]
	return fn, ok
}
