// Package policy implements the decision policies that choose a card for a
// seat: uniform random, two greedy penalty-key policies, a rule-based
// tactical player and a remote predictor client.
package policy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/lox/heartsforbots/hearts"
	"github.com/lox/heartsforbots/internal/game"
	"github.com/lox/heartsforbots/internal/randutil"
)

// Kind tags a policy variant
type Kind int

const (
	Random Kind = iota
	AvoidPoints
	Aggressive
	Tactical
	Remote
)

var kindNames = map[Kind]string{
	Random:      "random",
	AvoidPoints: "avoid-points",
	Aggressive:  "aggressive",
	Tactical:    "tactical",
	Remote:      "remote",
}

// Kinds lists every policy kind in declaration order
var Kinds = []Kind{Random, AvoidPoints, Aggressive, Tactical, Remote}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPolicy, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *Kind) UnmarshalText(text []byte) error {
	kind, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

var (
	ErrUnknownPolicy     = errors.New("unknown policy")
	ErrNoLegalMoves      = errors.New("no legal moves offered")
	ErrMissingPredictor  = errors.New("remote policy requires a predictor")
	ErrIllegalPrediction = errors.New("predicted card is not a legal move")
)

// aliases accepted by ParseKind besides the canonical names
var kindAliases = map[string]Kind{
	"avoid":        AvoidPoints,
	"avoid_points": AvoidPoints,
	"avoidpoints":  AvoidPoints,
	"my":           Tactical,
	"ai":           Remote,
	"predictor":    Remote,
}

// ParseKind parses a policy name, case-insensitively
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	if k, ok := kindAliases[name]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

// Policy is a game.Agent tagged with its variant
type Policy interface {
	game.Agent
	Kind() Kind
}

// Predictor chooses a card from a remote model given the full table view
type Predictor interface {
	Predict(ctx context.Context, view game.View, legal []hearts.Card) (hearts.Card, error)
}

// Options carries the dependencies a policy may need. Unused fields are
// ignored by variants that do not need them.
type Options struct {
	// Rand drives the random policy. Defaults to an unseeded source.
	Rand *rand.Rand
	// Predictor backs the remote policy and is required for it.
	Predictor Predictor
	Logger    *log.Logger
}

// New constructs the policy for kind
func New(kind Kind, opts Options) (Policy, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	switch kind {
	case Random:
		rng := opts.Rand
		if rng == nil {
			rng = randutil.NewUnseeded()
		}
		return NewRandom(rng), nil
	case AvoidPoints:
		return NewAvoidPoints(), nil
	case Aggressive:
		return NewAggressive(), nil
	case Tactical:
		return NewTactical(logger), nil
	case Remote:
		if opts.Predictor == nil {
			return nil, ErrMissingPredictor
		}
		return NewRemote(opts.Predictor, logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownPolicy, kind)
	}
}

// Parse is New for a policy name
func Parse(name string, opts Options) (Policy, error) {
	kind, err := ParseKind(name)
	if err != nil {
		return nil, err
	}
	return New(kind, opts)
}
