package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/urfave/cli"

	"github.com/spaghettifunk/escargot/exporter"
	"github.com/spaghettifunk/escargot/exporter/config"
	"github.com/spaghettifunk/escargot/exporter/core"
	"github.com/spaghettifunk/escargot/exporter/scene"
	sceneGltf "github.com/spaghettifunk/escargot/exporter/scene/gltf"
)

// Export converts one input file into an escn document.
func Export(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() < 1 {
		return cli.NewExitError("usage: export <input.gltf|input.glb>", 1)
	}
	input := ctx.Args().Get(0)

	cfg, err := buildConfig(ctx)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	sc, err := loadScene(input)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	out := ctx.String("out")
	if out == "" {
		out = strings.TrimSuffix(input, filepath.Ext(input)) + ".escn"
	}

	exp := exporter.New(cfg, sc)
	if err := exp.Export(out); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	if warnings := exp.Warnings(); warnings.Len() > 0 {
		core.LogWarn("export finished with %d warnings", warnings.Len())
	}
	return nil
}

func loadScene(input string) (*scene.Scene, error) {
	switch strings.ToLower(filepath.Ext(input)) {
	case ".gltf", ".glb":
		return sceneGltf.Import(input)
	}
	return nil, fmt.Errorf("unsupported input format %q", filepath.Ext(input))
}

// buildConfig layers the config file and command line flags over the
// defaults. glTF documents are Y-up, so without an explicit file the
// source axis follows the input format.
func buildConfig(ctx *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	if path := ctx.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
		cfg.SourceUpAxis = "Y"
	}

	if ctx.Bool("selected") {
		cfg.UseExportSelected = true
	}
	if ctx.Bool("visible-only") {
		cfg.UseVisibleOnly = true
	}
	if ctx.IsSet("precision") {
		cfg.FloatPrecision = ctx.Int("precision")
	}
	return cfg, nil
}
