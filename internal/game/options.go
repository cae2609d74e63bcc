package game

import (
	"io"
	"math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/lox/heartsforbots/hearts"
	"github.com/lox/heartsforbots/internal/gameid"
	"github.com/lox/heartsforbots/internal/randutil"
)

// Option configures a Game during creation.
type Option func(*gameConfig)

// gameConfig holds the optional configuration for creating a game.
type gameConfig struct {
	deck    *hearts.Deck
	rng     *rand.Rand
	seed    int64
	hasSeed bool
	id      string
	logger  *log.Logger
}

// WithDeck deals from a specific deck, e.g. a rotation of a shared deck.
// It overrides WithRand and WithSeed for dealing.
func WithDeck(deck *hearts.Deck) Option {
	return func(c *gameConfig) {
		c.deck = deck
	}
}

// WithRand shuffles a fresh deck with the given source
func WithRand(rng *rand.Rand) Option {
	return func(c *gameConfig) {
		c.rng = rng
	}
}

// WithSeed records the seed in the game record and, unless WithDeck or
// WithRand is also given, shuffles a fresh deck from it.
func WithSeed(seed int64) Option {
	return func(c *gameConfig) {
		c.seed = seed
		c.hasSeed = true
	}
}

// WithID sets the game ID. Defaults to a generated UUIDv7 ID.
func WithID(id string) Option {
	return func(c *gameConfig) {
		c.id = id
	}
}

// WithLogger sets the logger used for trick and substitution events
func WithLogger(logger *log.Logger) Option {
	return func(c *gameConfig) {
		c.logger = logger
	}
}

func (c *gameConfig) resolve() (*hearts.Deck, *log.Logger, string) {
	deck := c.deck
	if deck == nil {
		rng := c.rng
		if rng == nil {
			if c.hasSeed {
				rng = randutil.New(c.seed)
			} else {
				rng = randutil.NewUnseeded()
			}
		}
		deck = hearts.NewDeck(rng)
	}

	logger := c.logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	id := c.id
	if id == "" {
		id = gameid.Generate()
	}
	return deck, logger, id
}
