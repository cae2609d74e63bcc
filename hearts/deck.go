package hearts

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// DeckSize is the number of cards in a standard deck
const DeckSize = 52

var (
	// ErrInvalidRotation is returned by Rotate for amounts outside [0, DeckSize)
	ErrInvalidRotation = errors.New("invalid rotation")
	// ErrInvalidPlayers is returned by Deal when the cards cannot be split evenly
	ErrInvalidPlayers = errors.New("invalid number of players")
)

// Deck represents a standard 52-card deck in a fixed order
type Deck struct {
	cards [DeckSize]Card
}

// NewOrderedDeck creates an unshuffled deck in canonical order
func NewOrderedDeck() *Deck {
	d := &Deck{}
	copy(d.cards[:], AllCards())
	return d
}

// NewDeck creates a deck shuffled with the supplied random source. The same
// source state always produces the same order.
func NewDeck(rng *rand.Rand) *Deck {
	if rng == nil {
		panic("rng is required for deck creation")
	}
	d := NewOrderedDeck()
	d.Shuffle(rng)
	return d
}

// Shuffle shuffles the deck in place using Fisher-Yates
func (d *Deck) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Cards returns a copy of the current card order
func (d *Deck) Cards() []Card {
	out := make([]Card, DeckSize)
	copy(out, d.cards[:])
	return out
}

// Deal partitions the deck round-robin into n hands and sorts each hand.
// The deck itself is left untouched so it can be rotated and dealt again.
func (d *Deck) Deal(n int) ([]Hand, error) {
	if n <= 0 || DeckSize%n != 0 {
		return nil, fmt.Errorf("%w: cannot deal %d cards to %d players", ErrInvalidPlayers, DeckSize, n)
	}
	hands := make([]Hand, n)
	for i := range hands {
		hands[i] = make(Hand, 0, DeckSize/n)
	}
	for i, card := range d.cards {
		hands[i%n] = append(hands[i%n], card)
	}
	for _, h := range hands {
		h.Sort()
	}
	return hands, nil
}

// Rotate returns a new deck whose order is this deck's order rotated left by
// k positions, without reshuffling.
func (d *Deck) Rotate(k int) (*Deck, error) {
	if k < 0 || k >= DeckSize {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidRotation, k, DeckSize)
	}
	rotated := &Deck{}
	for i := range rotated.cards {
		rotated.cards[i] = d.cards[(i+k)%DeckSize]
	}
	return rotated, nil
}
