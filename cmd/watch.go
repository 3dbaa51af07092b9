package cmd

import (
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli"

	"github.com/spaghettifunk/escargot/exporter"
	"github.com/spaghettifunk/escargot/exporter/core"
)

// Watch re-exports the input every time it is written to, until
// interrupted. Editors replace files on save, so the parent directory is
// watched and events filtered by name.
func Watch(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() < 1 {
		return cli.NewExitError("usage: watch <input.gltf|input.glb>", 1)
	}
	input := ctx.Args().Get(0)

	cfg, err := buildConfig(ctx)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	out := ctx.String("out")
	if out == "" {
		out = strings.TrimSuffix(input, filepath.Ext(input)) + ".escn"
	}

	runExport := func() {
		sc, err := loadScene(input)
		if err != nil {
			core.LogError("load failed: %v", err)
			return
		}
		if err := exporter.New(cfg, sc).Export(out); err != nil {
			core.LogError("export failed: %v", err)
		}
	}
	runExport()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(input)); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	target := filepath.Clean(input)
	core.LogInfo("watching %s", input)
	for {
		select {
		case e := <-watcher.Events:
			if filepath.Clean(e.Name) != target {
				continue
			}
			if e.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				core.LogInfo("%s changed, re-exporting", input)
				runExport()
			}
		case err := <-watcher.Errors:
			core.LogError("watch error: %v", err)
		case <-sigCh:
			return nil
		}
	}
}
