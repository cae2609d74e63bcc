package main

import (
	"github.com/lox/heartsforbots/internal/export"
	"github.com/lox/heartsforbots/internal/training"
)

// TrainCmd converts game records into predictor training examples
type TrainCmd struct {
	Input  string `arg:"" type:"existingfile" default:"game_results.json" help:"Game records file"`
	Output string `short:"o" default:"training_data.json" help:"Training examples file"`
	Format string `short:"f" enum:",json,jsonl,msgpack" default:"" help:"Output format (default: from extension)"`
	Filter bool   `default:"true" negatable:"" help:"Keep only moves by the stronger players that did not take a heavy trick"`
}

func (c *TrainCmd) Run(g *Globals) error {
	logger := g.Logger()

	records, err := export.ReadRecords(c.Input)
	if err != nil {
		return err
	}

	format, err := outputFormat(c.Format, c.Output)
	if err != nil {
		return err
	}

	examples, summary, err := training.ExtractAll(records, c.Filter)
	if err != nil {
		return err
	}

	if err := export.WriteExamples(c.Output, format, examples); err != nil {
		return err
	}
	logger.Info("Wrote training examples",
		"path", c.Output,
		"format", format,
		"games", summary.Games,
		"moves", summary.Moves,
		"examples", summary.Examples,
		"excluded", summary.Excluded())
	return nil
}

func outputFormat(name, path string) (export.Format, error) {
	if name != "" {
		return export.ParseFormat(name)
	}
	return export.FormatFromPath(path)
}
