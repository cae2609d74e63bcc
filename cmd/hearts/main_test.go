package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lox/heartsforbots/internal/config"
	"github.com/lox/heartsforbots/internal/export"
	"github.com/lox/heartsforbots/internal/policy"
	"github.com/lox/heartsforbots/internal/statistics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietGlobals() *Globals {
	return &Globals{LogLevel: "error"}
}

func TestParsePlayers(t *testing.T) {
	t.Parallel()

	players, err := parsePlayers([]string{"Alice=random", "tactical", " Carol = avoid-points ", "David=aggressive"})
	require.NoError(t, err)
	assert.Equal(t, []config.PlayerConfig{
		{Name: "Alice", Policy: "random"},
		{Name: "Player 2", Policy: "tactical"},
		{Name: "Carol", Policy: "avoid-points"},
		{Name: "David", Policy: "aggressive"},
	}, players)

	_, err = parsePlayers([]string{"a=random", "b=random", "c=random"})
	assert.Error(t, err)

	_, err = parsePlayers([]string{"a=random", "b=random", "c=random", "d=psychic"})
	assert.ErrorIs(t, err, policy.ErrUnknownPolicy)
}

func TestGenerateFlagsOverrideConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "batch.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
batch {
  games = 10
  seed  = 3
}

output {
  path = "from-config.json"
}
`), 0o644))

	seed := int64(99)
	cmd := &GenerateCmd{
		Config: path,
		Games:  4,
		Seed:   &seed,
		Output: filepath.Join(dir, "games.jsonl"),
	}
	cfg, err := cmd.load()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Batch.Games)
	assert.Equal(t, int64(99), cfg.Batch.Seed)
	assert.Equal(t, filepath.Join(dir, "games.jsonl"), cfg.Output.Path)
	assert.Equal(t, config.DefaultPlayers(), cfg.Players)

	format, err := cfg.OutputFormat()
	require.NoError(t, err)
	assert.Equal(t, export.JSONL, format)
}

func TestGenerateTrainStats(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	games := filepath.Join(dir, "games.msgpack")
	seed := int64(7)

	gen := &GenerateCmd{
		Games:   8,
		Seed:    &seed,
		Workers: 2,
		Output:  games,
		Players: []string{"A=random", "B=avoid-points", "C=tactical", "D=aggressive"},
	}
	require.NoError(t, gen.Run(quietGlobals()))

	records, err := export.ReadRecords(games)
	require.NoError(t, err)
	require.Len(t, records, 8)
	for _, rec := range records {
		assert.NoError(t, rec.Validate())
	}

	examples := filepath.Join(dir, "train.jsonl")
	train := &TrainCmd{Input: games, Output: examples, Filter: false}
	require.NoError(t, train.Run(quietGlobals()))

	back, err := export.ReadExamples(examples)
	require.NoError(t, err)
	assert.Len(t, back, 8*52)

	stats := &StatsCmd{Inputs: []string{games}}
	require.NoError(t, stats.Run(quietGlobals()))
}

func TestRenderStatistics(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	games := filepath.Join(dir, "games.json")
	seed := int64(1)
	require.NoError(t, (&GenerateCmd{Games: 4, Seed: &seed, Output: games}).Run(quietGlobals()))

	records, err := export.ReadRecords(games)
	require.NoError(t, err)

	out := renderStatistics(statistics.FromRecords(records))
	for _, p := range config.DefaultPlayers() {
		assert.Contains(t, out, p.Name+" ("+p.Policy+")")
	}
	assert.Contains(t, out, "4 games")
	assert.Contains(t, renderSeats(statistics.FromRecords(records)), "Avg Score")
}

func TestServeRejectsRemotePolicy(t *testing.T) {
	t.Parallel()

	err := (&ServeCmd{Addr: "127.0.0.1:0", Policy: "remote"}).Run(quietGlobals())
	assert.Error(t, err)
}
