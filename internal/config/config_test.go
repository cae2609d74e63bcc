package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lox/heartsforbots/internal/export"
	"github.com/lox/heartsforbots/internal/policy"
	"github.com/lox/heartsforbots/internal/predictor"
	"github.com/lox/heartsforbots/internal/simulator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	c := Default()
	require.NoError(t, c.Validate())

	assert.Equal(t, DefaultGames, c.Batch.Games)
	assert.Equal(t, DefaultOutput, c.Output.Path)
	assert.Equal(t, predictor.DefaultEndpoint, c.Predictor.Endpoint)
	assert.Equal(t, DefaultPlayers(), c.Players)
	assert.False(t, c.NeedsPredictor())

	format, err := c.OutputFormat()
	require.NoError(t, err)
	assert.Equal(t, export.JSON, format)

	timeout, err := c.PredictorTimeout()
	require.NoError(t, err)
	assert.Equal(t, DefaultPredictorTimeout, timeout)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	c, err := Load(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	src := `
batch {
  games      = 200
  seed       = 42
  reuse_deck = true
  workers    = 3
  timeout    = "2s"
  on_error   = "skip"
}

output {
  path = "out/games.msgpack"
}

predictor {
  endpoint = "ws://127.0.0.1:9000/ws"
  timeout  = "250ms"
}

player "North" {
  policy = "tactical"
}

player "East" {
  policy = "remote"
}

player "South" {
  policy = "avoid-points"
}

player "West" {
  policy = "random"
}
`
	path := filepath.Join(t.TempDir(), "hearts.hcl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, 200, c.Batch.Games)
	assert.Equal(t, "ws://127.0.0.1:9000/ws", c.Predictor.Endpoint)
	assert.True(t, c.NeedsPredictor())

	format, err := c.OutputFormat()
	require.NoError(t, err)
	assert.Equal(t, export.Msgpack, format)

	timeout, err := c.PredictorTimeout()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, timeout)

	sc, err := c.SimulatorConfig()
	require.NoError(t, err)
	assert.Equal(t, simulator.Config{
		Games:     200,
		Seed:      42,
		ReuseDeck: true,
		Workers:   3,
		Timeout:   2 * time.Second,
		ErrorMode: simulator.Skip,
		Players: []simulator.PlayerSpec{
			{Name: "North", Policy: policy.Tactical},
			{Name: "East", Policy: policy.Remote},
			{Name: "South", Policy: policy.AvoidPoints},
			{Name: "West", Policy: policy.Random},
		},
	}, sc)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(`batch {`), "broken.hcl")
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Parse([]byte(`unknown_block {}`), "unknown.hcl")
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Parse([]byte(`player "A" {}`), "nopolicy.hcl")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{name: "negative games", src: `batch { games = -1 }`},
		{name: "negative workers", src: `batch { workers = -2 }`},
		{name: "bad timeout", src: `batch { timeout = "soon" }`},
		{name: "negative timeout", src: `batch { timeout = "-1s" }`},
		{name: "bad error mode", src: `batch { on_error = "retry" }`},
		{name: "bad predictor timeout", src: `predictor { timeout = "x" }`},
		{name: "unknown output format", src: `output { path = "games.csv" }`},
		{name: "too few players", src: `
player "A" { policy = "random" }
player "B" { policy = "random" }
`},
		{name: "unknown policy", src: `
player "A" { policy = "random" }
player "B" { policy = "random" }
player "C" { policy = "random" }
player "D" { policy = "psychic" }
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse([]byte(tt.src), tt.name+".hcl")
			require.NoError(t, err)
			assert.ErrorIs(t, c.Validate(), ErrInvalid)

			_, err = c.SimulatorConfig()
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestExplicitFormatOverridesExtension(t *testing.T) {
	t.Parallel()

	c, err := Parse([]byte(`output {
  path   = "games.out"
  format = "jsonl"
}`), "format.hcl")
	require.NoError(t, err)

	format, err := c.OutputFormat()
	require.NoError(t, err)
	assert.Equal(t, export.JSONL, format)
}
