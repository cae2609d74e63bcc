package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Globals

	Version   kong.VersionFlag `short:"V" help:"Show version"`
	Generate  GenerateCmd      `cmd:"" help:"Simulate a batch of games and write their records"`
	Train     TrainCmd         `cmd:"" help:"Derive training examples from game records"`
	Stats     StatsCmd         `cmd:"" aliases:"analyze" help:"Summarise game records per player"`
	Predictor PredictorCmd     `cmd:"" help:"Move prediction service"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("hearts"),
		kong.Description("Four-player Hearts simulator for bots"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
