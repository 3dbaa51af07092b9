package cmd

import (
	"github.com/urfave/cli"

	"github.com/spaghettifunk/escargot/exporter/core"
)

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("q") {
		core.SetLogLevel(core.LogLevelWarn)
	}
	if ctx.GlobalBool("v") {
		core.SetLogLevel(core.LogLevelDebug)
	}
}
