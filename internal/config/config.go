// Package config loads batch configuration from HCL files.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/lox/heartsforbots/internal/export"
	"github.com/lox/heartsforbots/internal/game"
	"github.com/lox/heartsforbots/internal/policy"
	"github.com/lox/heartsforbots/internal/predictor"
	"github.com/lox/heartsforbots/internal/simulator"
)

// ErrInvalid is returned for configurations that cannot run
var ErrInvalid = errors.New("invalid config")

const (
	DefaultGames            = 1
	DefaultOutput           = "game_results.json"
	DefaultPredictorTimeout = 5 * time.Second
)

// Config is the complete batch configuration. Every block is optional.
type Config struct {
	Batch     *BatchSettings     `hcl:"batch,block"`
	Output    *OutputSettings    `hcl:"output,block"`
	Predictor *PredictorSettings `hcl:"predictor,block"`
	Players   []PlayerConfig     `hcl:"player,block"`
}

// BatchSettings controls how games are generated
type BatchSettings struct {
	Games     int    `hcl:"games,optional"`
	Seed      int64  `hcl:"seed,optional"`
	ReuseDeck bool   `hcl:"reuse_deck,optional"`
	Workers   int    `hcl:"workers,optional"`
	Timeout   string `hcl:"timeout,optional"`
	OnError   string `hcl:"on_error,optional"`
}

// OutputSettings controls where records go
type OutputSettings struct {
	Path   string `hcl:"path,optional"`
	Format string `hcl:"format,optional"`
}

// PredictorSettings configures the remote prediction service
type PredictorSettings struct {
	Endpoint string `hcl:"endpoint,optional"`
	Timeout  string `hcl:"timeout,optional"`
}

// PlayerConfig seats one player
type PlayerConfig struct {
	Name   string `hcl:"name,label"`
	Policy string `hcl:"policy"`
}

// DefaultPlayers is the table used when no players are configured
func DefaultPlayers() []PlayerConfig {
	return []PlayerConfig{
		{Name: "Alice", Policy: policy.Random.String()},
		{Name: "Bob", Policy: policy.Random.String()},
		{Name: "My", Policy: policy.Tactical.String()},
		{Name: "David", Policy: policy.Aggressive.String()},
	}
}

// Default returns the default configuration
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads configuration from an HCL file. A missing file yields the
// defaults.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: failed to parse HCL file: %s", ErrInvalid, diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: failed to decode HCL: %s", ErrInvalid, diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

// Parse decodes configuration from HCL source, for tests and embedded
// configs
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: failed to parse HCL: %s", ErrInvalid, diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: failed to decode HCL: %s", ErrInvalid, diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Batch == nil {
		c.Batch = &BatchSettings{}
	}
	if c.Output == nil {
		c.Output = &OutputSettings{}
	}
	if c.Predictor == nil {
		c.Predictor = &PredictorSettings{}
	}
	if c.Batch.Games == 0 {
		c.Batch.Games = DefaultGames
	}
	if c.Batch.OnError == "" {
		c.Batch.OnError = simulator.Abort.String()
	}
	if c.Output.Path == "" {
		c.Output.Path = DefaultOutput
	}
	if c.Predictor.Endpoint == "" {
		c.Predictor.Endpoint = predictor.DefaultEndpoint
	}
	if c.Predictor.Timeout == "" {
		c.Predictor.Timeout = DefaultPredictorTimeout.String()
	}
	if len(c.Players) == 0 {
		c.Players = DefaultPlayers()
	}
}

// Validate checks that the configuration can run
func (c *Config) Validate() error {
	if c.Batch.Games <= 0 {
		return fmt.Errorf("%w: games must be positive", ErrInvalid)
	}
	if c.Batch.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInvalid)
	}
	if _, err := c.GameTimeout(); err != nil {
		return err
	}
	if _, err := c.PredictorTimeout(); err != nil {
		return err
	}
	if _, err := simulator.ParseErrorMode(c.Batch.OnError); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := c.OutputFormat(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if len(c.Players) != game.NumPlayers {
		return fmt.Errorf("%w: need %d players, got %d", ErrInvalid, game.NumPlayers, len(c.Players))
	}
	for _, p := range c.Players {
		if _, err := policy.ParseKind(p.Policy); err != nil {
			return fmt.Errorf("%w: player %s: %w", ErrInvalid, p.Name, err)
		}
	}
	return nil
}

// GameTimeout returns the per-game timeout, zero when unset
func (c *Config) GameTimeout() (time.Duration, error) {
	return parseDuration("batch.timeout", c.Batch.Timeout)
}

// PredictorTimeout returns the per-request predictor timeout
func (c *Config) PredictorTimeout() (time.Duration, error) {
	return parseDuration("predictor.timeout", c.Predictor.Timeout)
}

func parseDuration(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalid, field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative", ErrInvalid, field)
	}
	return d, nil
}

// OutputFormat returns the configured format, inferred from the output path
// when not set
func (c *Config) OutputFormat() (export.Format, error) {
	if c.Output.Format != "" {
		return export.ParseFormat(c.Output.Format)
	}
	return export.FormatFromPath(c.Output.Path)
}

// NeedsPredictor reports whether any player uses the remote policy
func (c *Config) NeedsPredictor() bool {
	for _, p := range c.Players {
		if k, err := policy.ParseKind(p.Policy); err == nil && k == policy.Remote {
			return true
		}
	}
	return false
}

// SimulatorConfig converts the batch settings into a simulator config. The
// caller supplies the logger, clock and predictor.
func (c *Config) SimulatorConfig() (simulator.Config, error) {
	if err := c.Validate(); err != nil {
		return simulator.Config{}, err
	}
	timeout, _ := c.GameTimeout()
	mode, _ := simulator.ParseErrorMode(c.Batch.OnError)

	players := make([]simulator.PlayerSpec, len(c.Players))
	for i, p := range c.Players {
		kind, _ := policy.ParseKind(p.Policy)
		players[i] = simulator.PlayerSpec{Name: p.Name, Policy: kind}
	}

	return simulator.Config{
		Games:     c.Batch.Games,
		Seed:      c.Batch.Seed,
		ReuseDeck: c.Batch.ReuseDeck,
		Workers:   c.Batch.Workers,
		Timeout:   timeout,
		Players:   players,
		ErrorMode: mode,
	}, nil
}
