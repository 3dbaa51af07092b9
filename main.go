package main

import (
	"os"

	"github.com/urfave/cli"

	"github.com/spaghettifunk/escargot/cmd"
	"github.com/spaghettifunk/escargot/exporter/core"
)

func main() {
	sharedFlags := []cli.Flag{
		cli.StringFlag{
			Name:  "out, o",
			Usage: "output document path (defaults to the input with .escn)",
		},
		cli.StringFlag{
			Name:  "config, c",
			Usage: "TOML configuration file",
		},
		cli.BoolFlag{
			Name:  "selected",
			Usage: "export only objects carrying the selection flag",
		},
		cli.BoolFlag{
			Name:  "visible-only",
			Usage: "skip hidden objects",
		},
		cli.IntFlag{
			Name:  "precision",
			Usage: "decimal digits for floats (negative: shortest round-trip)",
			Value: -1,
		},
	}

	app := cli.NewApp()
	app.Name = "escargot"
	app.Usage = "export authoring scenes to the Godot escn text format"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "q",
			Usage: "log warnings and errors only",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:      "export",
			Usage:     "convert a scene file to an escn document",
			ArgsUsage: "input.gltf",
			Flags:     sharedFlags,
			Action:    cmd.Export,
		},
		{
			Name:      "info",
			Usage:     "print object and data block statistics for a scene file",
			ArgsUsage: "input.gltf",
			Action:    cmd.Info,
		},
		{
			Name:      "watch",
			Usage:     "re-export whenever the input changes",
			ArgsUsage: "input.gltf",
			Flags:     sharedFlags,
			Action:    cmd.Watch,
		},
	}

	if err := app.Run(os.Args); err != nil {
		core.LogFatal("%v", err)
	}
}
