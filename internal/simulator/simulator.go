// Package simulator runs batches of Hearts games across a bounded worker
// pool and collects their records.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/heartsforbots/hearts"
	"github.com/lox/heartsforbots/internal/game"
	"github.com/lox/heartsforbots/internal/policy"
	"github.com/lox/heartsforbots/internal/randutil"
	"golang.org/x/sync/errgroup"
)

// handsPerDeck is how many games share one shuffled deck in reuse mode
const handsPerDeck = game.NumPlayers

var (
	// ErrTimeout is the cancellation cause of a game that ran past Config.Timeout
	ErrTimeout = errors.New("game timed out")
	// ErrInvalidConfig is returned by New for unusable configurations
	ErrInvalidConfig = errors.New("invalid simulator config")
)

// ErrorMode decides what a failing game does to the rest of the batch
type ErrorMode int

const (
	// Abort cancels the batch on the first failing game
	Abort ErrorMode = iota
	// Skip logs failing games, reports them in Result.Failures and carries on
	Skip
)

func (m ErrorMode) String() string {
	switch m {
	case Abort:
		return "abort"
	case Skip:
		return "skip"
	default:
		return fmt.Sprintf("ErrorMode(%d)", int(m))
	}
}

// ParseErrorMode parses "abort" or "skip"
func ParseErrorMode(s string) (ErrorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "abort", "":
		return Abort, nil
	case "skip":
		return Skip, nil
	}
	return Abort, fmt.Errorf("%w: unknown error mode %q", ErrInvalidConfig, s)
}

func (m ErrorMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *ErrorMode) UnmarshalText(text []byte) error {
	parsed, err := ParseErrorMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// PlayerSpec seats one player
type PlayerSpec struct {
	Name   string
	Policy policy.Kind
}

// Config holds configuration for a batch
type Config struct {
	Games     int
	Seed      int64
	ReuseDeck bool
	// Workers bounds concurrent games. Defaults to the number of CPUs.
	Workers int
	// Timeout bounds each game. Zero means no limit.
	Timeout   time.Duration
	Players   []PlayerSpec
	ErrorMode ErrorMode
	// Predictor backs remote players
	Predictor policy.Predictor
	Logger    *log.Logger
	Clock     quartz.Clock
}

// Failure describes a game that did not finish in skip mode
type Failure struct {
	Game int
	Seed int64
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("game %d (seed %d): %v", f.Game, f.Seed, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Result is the outcome of a batch. Records are in game order.
type Result struct {
	Records  []*game.GameRecord
	Failures []Failure
	Duration time.Duration
}

// Simulator runs Hearts batches
type Simulator struct {
	config Config
	logger *log.Logger
	clock  quartz.Clock
}

// New validates the configuration and creates a simulator
func New(config Config) (*Simulator, error) {
	if config.Games <= 0 {
		return nil, fmt.Errorf("%w: games must be positive, got %d", ErrInvalidConfig, config.Games)
	}
	if len(config.Players) != game.NumPlayers {
		return nil, fmt.Errorf("%w: need %d players, got %d", ErrInvalidConfig, game.NumPlayers, len(config.Players))
	}
	for i, p := range config.Players {
		if p.Policy == policy.Remote && config.Predictor == nil {
			return nil, fmt.Errorf("%w: player %d (%s): %w", ErrInvalidConfig, i, p.Name, policy.ErrMissingPredictor)
		}
		if _, err := p.Policy.MarshalText(); err != nil {
			return nil, fmt.Errorf("%w: player %d (%s): %w", ErrInvalidConfig, i, p.Name, err)
		}
	}
	if config.Timeout < 0 {
		return nil, fmt.Errorf("%w: negative timeout", ErrInvalidConfig)
	}
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}

	s := &Simulator{config: config, clock: config.Clock}
	if s.clock == nil {
		s.clock = quartz.NewReal()
	}
	s.logger = config.Logger
	if s.logger == nil {
		s.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	s.logger = s.logger.WithPrefix("simulator")
	return s, nil
}

// Run plays every game of the batch. Rule violations always abort the
// batch; policy failures and timeouts follow the configured ErrorMode.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	start := s.clock.Now()
	n := s.config.Games
	records := make([]*game.GameRecord, n)
	failures := make([]error, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)

	s.logger.Info("Starting batch", "games", n, "workers", s.config.Workers,
		"seed", s.config.Seed, "reuse_deck", s.config.ReuseDeck)

	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			rec, err := s.PlayGame(gctx, i)
			if err == nil {
				records[i] = rec
				return nil
			}
			if gctx.Err() != nil {
				return context.Cause(gctx)
			}
			if s.config.ErrorMode == Skip && !errors.Is(err, game.ErrRuleViolation) {
				s.logger.Warn("Skipping failed game", "game", i, "seed", s.gameSeed(i), "error", err)
				failures[i] = err
				return nil
			}
			return fmt.Errorf("game %d (seed %d): %w", i, s.gameSeed(i), err)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, context.Cause(ctx)
	}

	result := &Result{
		Records:  make([]*game.GameRecord, 0, n),
		Duration: s.clock.Since(start),
	}
	for i := range records {
		if records[i] != nil {
			result.Records = append(result.Records, records[i])
		}
		if failures[i] != nil {
			result.Failures = append(result.Failures, Failure{Game: i, Seed: s.gameSeed(i), Err: failures[i]})
		}
	}

	s.logger.Info("Batch complete", "games", len(result.Records),
		"failures", len(result.Failures), "duration", result.Duration)
	return result, nil
}

// PlayGame plays game i of the batch
func (s *Simulator) PlayGame(ctx context.Context, i int) (*game.GameRecord, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	if s.config.Timeout > 0 {
		timer := s.clock.AfterFunc(s.config.Timeout, func() {
			cancel(fmt.Errorf("%w after %v", ErrTimeout, s.config.Timeout))
		})
		defer timer.Stop()
	}

	deck, err := s.DeckFor(i)
	if err != nil {
		return nil, err
	}
	seats, err := s.seats(i)
	if err != nil {
		return nil, err
	}

	g, err := game.New(seats,
		game.WithDeck(deck),
		game.WithSeed(s.deckSeed(i)),
		game.WithLogger(s.logger),
	)
	if err != nil {
		return nil, err
	}

	rec, err := g.Play(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Game complete", "game", i, "id", rec.ID, "scores", rec.Scores(), "winner", rec.Winner)
	return rec, nil
}

// DeckFor returns the deck dealt in game i. Fresh mode shuffles with
// Seed+i. Reuse mode shuffles once per group of four games with Seed+i/4
// and rotates by 13 cards per game, so every seat gets every hand once.
func (s *Simulator) DeckFor(i int) (*hearts.Deck, error) {
	deck := hearts.NewDeck(randutil.New(s.deckSeed(i)))
	if !s.config.ReuseDeck {
		return deck, nil
	}
	return deck.Rotate((i % handsPerDeck) * (hearts.DeckSize / game.NumPlayers))
}

// deckSeed is the seed of the shuffle dealt in game i
func (s *Simulator) deckSeed(i int) int64 {
	if s.config.ReuseDeck {
		return s.config.Seed + int64(i/handsPerDeck)
	}
	return s.gameSeed(i)
}

func (s *Simulator) gameSeed(i int) int64 {
	return s.config.Seed + int64(i)
}

func (s *Simulator) seats(i int) ([]game.Seat, error) {
	seats := make([]game.Seat, len(s.config.Players))
	for seat, spec := range s.config.Players {
		p, err := policy.New(spec.Policy, policy.Options{
			Rand:      randutil.Derive(s.gameSeed(i), uint64(seat)),
			Predictor: s.config.Predictor,
			Logger:    s.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: seat %d: %w", ErrInvalidConfig, seat, err)
		}
		name := spec.Name
		if name == "" {
			name = fmt.Sprintf("Player %d", seat+1)
		}
		seats[seat] = game.Seat{Name: name, Agent: p}
	}
	return seats, nil
}
