package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lox/heartsforbots/hearts"
	"github.com/lox/heartsforbots/internal/config"
	"github.com/lox/heartsforbots/internal/export"
	"github.com/lox/heartsforbots/internal/game"
	"github.com/lox/heartsforbots/internal/policy"
	"github.com/lox/heartsforbots/internal/predictor"
	"github.com/lox/heartsforbots/internal/simulator"
	"github.com/lox/heartsforbots/internal/statistics"
)

// GenerateCmd simulates a batch of games. Flags override the config file.
type GenerateCmd struct {
	Config    string        `short:"c" type:"path" help:"HCL batch config file"`
	Games     int           `short:"n" help:"Number of games to simulate (default 1)"`
	Seed      *int64        `help:"Base RNG seed (default: from config, or time based)"`
	ReuseDeck bool          `help:"Deal each shuffled deck four times, rotating hands between seats"`
	Workers   int           `short:"w" help:"Concurrent games (default: number of CPUs)"`
	Timeout   time.Duration `help:"Per-game timeout (0 disables)"`
	Players   []string      `short:"p" help:"Four players as name=policy, in seat order"`
	Format    string        `short:"f" help:"Output format: json, jsonl, msgpack or toml (default: from extension)"`
	Output    string        `short:"o" help:"Output file (default game_results.json)"`
	OnError   string        `enum:",abort,skip" default:"" help:"What a failing game does to the batch: abort or skip"`
	Endpoint  string        `help:"Predictor endpoint for remote players"`
	Stats     bool          `help:"Print statistics for the batch"`
}

func (c *GenerateCmd) Run(g *Globals) error {
	logger := g.Logger()

	cfg, err := c.load()
	if err != nil {
		return err
	}
	if c.Seed == nil && c.Config == "" {
		cfg.Batch.Seed = time.Now().UnixNano()
		logger.Info("Using random seed", "seed", cfg.Batch.Seed)
	}

	sc, err := cfg.SimulatorConfig()
	if err != nil {
		return err
	}
	format, err := cfg.OutputFormat()
	if err != nil {
		return err
	}
	sc.Logger = logger

	if cfg.NeedsPredictor() {
		timeout, err := cfg.PredictorTimeout()
		if err != nil {
			return err
		}
		client, err := predictor.NewClient(cfg.Predictor.Endpoint, predictor.WithLogger(logger))
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Close(); err != nil {
				logger.Warn("Failed to close predictor client", "error", err)
			}
		}()
		logger.Info("Using predictor", "endpoint", client.Endpoint(), "timeout", timeout)
		sc.Predictor = timeoutPredictor{predictor: client, timeout: timeout}
	}

	sim, err := simulator.New(sc)
	if err != nil {
		return err
	}

	ctx, cancel := setupSignalHandler(logger)
	defer cancel()

	logger.Info("Generating games",
		"games", sc.Games,
		"seed", sc.Seed,
		"reuse_deck", sc.ReuseDeck,
		"players", playerSummary(sc.Players))

	result, err := sim.Run(ctx)
	if err != nil {
		return err
	}

	if err := export.WriteRecords(cfg.Output.Path, format, result.Records); err != nil {
		return err
	}
	logger.Info("Wrote game records",
		"path", cfg.Output.Path,
		"format", format,
		"games", len(result.Records),
		"failed", len(result.Failures),
		"duration", result.Duration.Round(time.Millisecond))

	if c.Stats {
		stats := statistics.FromRecords(result.Records)
		if err := stats.Validate(); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, renderStatistics(stats))
	}
	return nil
}

func (c *GenerateCmd) load() (*config.Config, error) {
	cfg := config.Default()
	if c.Config != "" {
		var err error
		if cfg, err = config.Load(c.Config); err != nil {
			return nil, err
		}
	}

	if c.Games != 0 {
		cfg.Batch.Games = c.Games
	}
	if c.Seed != nil {
		cfg.Batch.Seed = *c.Seed
	}
	if c.ReuseDeck {
		cfg.Batch.ReuseDeck = true
	}
	if c.Workers != 0 {
		cfg.Batch.Workers = c.Workers
	}
	if c.Timeout != 0 {
		cfg.Batch.Timeout = c.Timeout.String()
	}
	if c.OnError != "" {
		cfg.Batch.OnError = c.OnError
	}
	if c.Output != "" {
		cfg.Output.Path = c.Output
	}
	if c.Format != "" {
		cfg.Output.Format = c.Format
	}
	if c.Endpoint != "" {
		cfg.Predictor.Endpoint = c.Endpoint
	}
	if len(c.Players) > 0 {
		players, err := parsePlayers(c.Players)
		if err != nil {
			return nil, err
		}
		cfg.Players = players
	}
	return cfg, cfg.Validate()
}

// parsePlayers reads name=policy pairs. A bare policy name is seated as
// "Player N".
func parsePlayers(specs []string) ([]config.PlayerConfig, error) {
	if len(specs) != game.NumPlayers {
		return nil, fmt.Errorf("need %d players, got %d", game.NumPlayers, len(specs))
	}
	players := make([]config.PlayerConfig, len(specs))
	for i, spec := range specs {
		name, kind, ok := strings.Cut(spec, "=")
		if !ok {
			name, kind = fmt.Sprintf("Player %d", i+1), spec
		}
		name, kind = strings.TrimSpace(name), strings.TrimSpace(kind)
		if _, err := policy.ParseKind(kind); err != nil {
			return nil, fmt.Errorf("player %d: %w", i+1, err)
		}
		players[i] = config.PlayerConfig{Name: name, Policy: kind}
	}
	return players, nil
}

func playerSummary(players []simulator.PlayerSpec) string {
	parts := make([]string, len(players))
	for i, p := range players {
		parts[i] = fmt.Sprintf("%s=%s", p.Name, p.Policy)
	}
	return strings.Join(parts, ",")
}

// timeoutPredictor bounds every prediction request
type timeoutPredictor struct {
	predictor policy.Predictor
	timeout   time.Duration
}

func (p timeoutPredictor) Predict(ctx context.Context, view game.View, legal []hearts.Card) (hearts.Card, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	return p.predictor.Predict(ctx, view, legal)
}

var _ policy.Predictor = timeoutPredictor{}
