package policy

import (
	"context"
	"math/rand/v2"

	"github.com/lox/heartsforbots/hearts"
	"github.com/lox/heartsforbots/internal/game"
)

// RandomPolicy plays a uniformly random legal card
type RandomPolicy struct {
	rng *rand.Rand
}

// NewRandom creates a random policy drawing from rng
func NewRandom(rng *rand.Rand) *RandomPolicy {
	if rng == nil {
		panic("rng is required for the random policy")
	}
	return &RandomPolicy{rng: rng}
}

func (p *RandomPolicy) Kind() Kind   { return Random }
func (p *RandomPolicy) Name() string { return Random.String() }

func (p *RandomPolicy) ChooseCard(_ context.Context, legal []hearts.Card, _ game.View) (hearts.Card, error) {
	if len(legal) == 0 {
		return hearts.Card{}, ErrNoLegalMoves
	}
	return legal[p.rng.IntN(len(legal))], nil
}

// penaltyKey ranks non-penalty cards by rank and penalty cards above every
// non-penalty card.
func penaltyKey(c hearts.Card) int {
	if c.IsPenalty() {
		return int(c.Rank) + hearts.NumRanks
	}
	return int(c.Rank)
}

// AvoidPointsPolicy plays the legal card with the lowest penalty key. Ties
// go to the earliest legal card.
type AvoidPointsPolicy struct{}

// NewAvoidPoints creates the greedy point-avoiding policy
func NewAvoidPoints() *AvoidPointsPolicy { return &AvoidPointsPolicy{} }

func (p *AvoidPointsPolicy) Kind() Kind   { return AvoidPoints }
func (p *AvoidPointsPolicy) Name() string { return AvoidPoints.String() }

func (p *AvoidPointsPolicy) ChooseCard(_ context.Context, legal []hearts.Card, _ game.View) (hearts.Card, error) {
	if len(legal) == 0 {
		return hearts.Card{}, ErrNoLegalMoves
	}
	best := legal[0]
	for _, c := range legal[1:] {
		if penaltyKey(c) < penaltyKey(best) {
			best = c
		}
	}
	return best, nil
}

// AggressivePolicy plays the legal card with the highest penalty key. Ties
// go to the latest legal card.
type AggressivePolicy struct{}

// NewAggressive creates the greedy point-dumping policy
func NewAggressive() *AggressivePolicy { return &AggressivePolicy{} }

func (p *AggressivePolicy) Kind() Kind   { return Aggressive }
func (p *AggressivePolicy) Name() string { return Aggressive.String() }

func (p *AggressivePolicy) ChooseCard(_ context.Context, legal []hearts.Card, _ game.View) (hearts.Card, error) {
	if len(legal) == 0 {
		return hearts.Card{}, ErrNoLegalMoves
	}
	best := legal[0]
	for _, c := range legal[1:] {
		if penaltyKey(c) >= penaltyKey(best) {
			best = c
		}
	}
	return best, nil
}
