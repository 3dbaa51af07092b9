package cmd

import (
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Info prints a summary table of the objects and data blocks in the
// input scene.
func Info(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() < 1 {
		return cli.NewExitError("usage: info <input.gltf|input.glb>", 1)
	}
	sc, err := loadScene(ctx.Args().Get(0))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	stats := sc.Stats()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Kind", "Count"})

	kinds := maps.Keys(stats.Objects)
	slices.Sort(kinds)
	for _, kind := range kinds {
		table.Append([]string{kind, strconv.Itoa(stats.Objects[kind])})
	}
	table.Append([]string{"mesh blocks", strconv.Itoa(stats.Meshes)})
	table.Append([]string{"materials", strconv.Itoa(stats.Materials)})
	table.Append([]string{"images", strconv.Itoa(stats.Images)})
	table.Append([]string{"actions", strconv.Itoa(stats.Actions)})

	table.Render()
	return nil
}
