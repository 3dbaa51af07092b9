// Package exporter drives one export invocation: it walks the authoring
// scene depth-first, dispatches each object to its converter and writes
// the finished document in one atomic step.
package exporter

import (
	"io"
	"path/filepath"

	"github.com/spaghettifunk/escargot/exporter/config"
	"github.com/spaghettifunk/escargot/exporter/converters"
	"github.com/spaghettifunk/escargot/exporter/core"
	"github.com/spaghettifunk/escargot/exporter/escn"
	"github.com/spaghettifunk/escargot/exporter/scene"
)

// Exporter exports one authoring scene. All per-invocation state lives
// in the converter context, so the same Exporter can run again and start
// from an empty document.
type Exporter struct {
	cfg   *config.Config
	scene *scene.Scene

	ctx   *converters.Context
	valid map[*scene.Object]bool
}

func New(cfg *config.Config, sc *scene.Scene) *Exporter {
	return &Exporter{cfg: cfg, scene: sc}
}

// Warnings returns the warnings of the last export, nil before the
// first one.
func (e *Exporter) Warnings() *core.WarningList {
	if e.ctx == nil {
		return nil
	}
	return e.ctx.Warnings
}

// Export builds the document and writes it to path. The document is
// serialized to memory first; a failing write leaves no partial file.
func (e *Exporter) Export(path string) error {
	file, err := e.buildFile(filepath.Dir(path))
	if err != nil {
		return err
	}

	writer := escn.NewWriter(e.cfg.FloatPrecision)
	if err := writer.WriteFile(file, path); err != nil {
		return err
	}

	core.LogInfo("wrote %s (%d nodes, %d warnings)",
		path, len(file.Nodes()), e.ctx.Warnings.Len())
	return nil
}

// ExportTo serializes the document to out, without a side-channel
// directory for in-memory images.
func (e *Exporter) ExportTo(out io.Writer) error {
	file, err := e.buildFile(".")
	if err != nil {
		return err
	}
	return escn.NewWriter(e.cfg.FloatPrecision).WriteTo(file, out)
}

func (e *Exporter) buildFile(outputDir string) (*escn.File, error) {
	axes, err := escn.NewAxes(e.cfg.SourceUpAxis, e.cfg.TargetUpAxis)
	if err != nil {
		return nil, err
	}

	projectRoot := e.cfg.ProjectRoot
	if projectRoot == "" {
		projectRoot = outputDir
	}

	file := escn.NewFile()
	e.ctx = converters.NewContext(file, e.cfg, axes, core.NewWarningList(),
		e.scene, outputDir, projectRoot)

	e.collectValid()

	core.LogInfo("exporting scene %q, %d of %d objects",
		e.scene.Name, len(e.valid), len(e.scene.Objects()))

	root := escn.NewRootNode(e.scene.Name, "Spatial")
	file.AddNode(root)

	for _, obj := range e.scene.TopLevel() {
		if err := e.exportObject(obj, root); err != nil {
			return nil, err
		}
	}
	return file, nil
}

// shouldExport is the inclusion predicate an object must pass on its own
// merit; ancestors of a passing object are pulled in regardless.
func (e *Exporter) shouldExport(obj *scene.Object) bool {
	if !e.cfg.ObjectTypeEnabled(obj.Type.String()) {
		return false
	}
	if e.cfg.UseVisibleOnly && !obj.Visible {
		return false
	}
	if e.cfg.UseExportSelected && !obj.Selected {
		return false
	}
	return true
}

func (e *Exporter) collectValid() {
	e.valid = make(map[*scene.Object]bool)
	for _, obj := range e.scene.Objects() {
		if e.valid[obj] || !e.shouldExport(obj) {
			continue
		}
		for ptr := obj; ptr != nil; ptr = ptr.Parent {
			e.valid[ptr] = true
		}
	}
}

// exportObject converts one object and recurses into its children. A
// skipped object takes its whole subtree with it; included descendants
// underneath are reported as orphaned.
func (e *Exporter) exportObject(obj *scene.Object, gdParent *escn.Node) error {
	if !e.valid[obj] {
		e.reportOrphans(obj)
		return nil
	}

	fn, ok := converters.Dispatch(obj.Type)
	if !ok {
		e.ctx.Warnings.Addf("unsupported object kind %s for %q, subtree skipped",
			obj.Type, obj.Name)
		for _, child := range obj.Children() {
			e.reportOrphans(child)
		}
		return nil
	}

	if obj.ParentBone != "" {
		if skeleton := e.ctx.FindSkeleton(gdParent); skeleton != nil &&
			skeleton.FindBoneID(obj.ParentBone) >= 0 {
			gdParent = converters.ExportBoneAttachment(e.ctx, obj, skeleton)
		} else {
			e.ctx.Warnings.Addf("object %q is parented to unexported bone %q",
				obj.Name, obj.ParentBone)
		}
	}

	core.LogDebug("exporting object %q", obj.Name)

	node, err := fn(e.ctx, obj, gdParent)
	if err != nil {
		return err
	}

	if obj.AnimationData != nil {
		if err := converters.ExportAnimationData(e.ctx, node, obj); err != nil {
			return err
		}
	}

	for _, child := range obj.Children() {
		if err := e.exportObject(child, node); err != nil {
			return err
		}
	}
	return nil
}

// reportOrphans warns once per included object that can no longer reach
// the document because an ancestor was skipped.
func (e *Exporter) reportOrphans(obj *scene.Object) {
	if e.valid[obj] {
		e.ctx.Warnings.Addf("object %q is excluded because an ancestor is not exported",
			obj.Name)
	}
	for _, child := range obj.Children() {
		e.reportOrphans(child)
	}
}
