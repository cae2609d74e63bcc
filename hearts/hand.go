package hearts

import (
	"math/bits"
	"slices"
	"strings"
)

// Hand is an ordered set of cards held by one player
type Hand []Card

// NewHand creates a hand from the given cards
func NewHand(cards ...Card) Hand {
	h := make(Hand, len(cards))
	copy(h, cards)
	return h
}

// Clone returns an independent copy of the hand
func (h Hand) Clone() Hand {
	if h == nil {
		return nil
	}
	return slices.Clone(h)
}

// Sort orders the hand by suit then rank
func (h Hand) Sort() {
	slices.SortFunc(h, Compare)
}

// Contains reports whether the hand holds c
func (h Hand) Contains(c Card) bool {
	return slices.Contains(h, c)
}

// Remove deletes c from the hand, reporting whether it was present
func (h *Hand) Remove(c Card) bool {
	i := slices.Index(*h, c)
	if i < 0 {
		return false
	}
	*h = slices.Delete(*h, i, i+1)
	return true
}

// HasSuit reports whether the hand holds any card of the suit
func (h Hand) HasSuit(s Suit) bool {
	return slices.ContainsFunc(h, func(c Card) bool { return c.Suit == s })
}

// Filter returns the cards matching keep, preserving order
func (h Hand) Filter(keep func(Card) bool) Hand {
	var out Hand
	for _, c := range h {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

// OfSuit returns the cards of a suit sorted from lowest to highest rank
func (h Hand) OfSuit(s Suit) Hand {
	out := h.Filter(func(c Card) bool { return c.Suit == s })
	out.Sort()
	return out
}

// Points returns the total score of the cards in the hand
func (h Hand) Points() int {
	total := 0
	for _, c := range h {
		total += c.Score()
	}
	return total
}

// Set returns the hand as a CardSet
func (h Hand) Set() CardSet {
	return NewCardSet(h...)
}

// String returns the cards separated by spaces
func (h Hand) String() string {
	parts := make([]string, len(h))
	for i, c := range h {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// CardSet is a bitset over the 52 cards, indexed by Card.Index
type CardSet uint64

// NewCardSet creates a set from the given cards
func NewCardSet(cards ...Card) CardSet {
	var cs CardSet
	for _, c := range cards {
		cs.Add(c)
	}
	return cs
}

// FullDeck is the set of all 52 cards
const FullDeck CardSet = 1<<DeckSize - 1

// Add inserts a card into the set
func (cs *CardSet) Add(c Card) {
	*cs |= 1 << c.Index()
}

// Contains reports whether the card is in the set
func (cs CardSet) Contains(c Card) bool {
	return cs&(1<<c.Index()) != 0
}

// Len returns the number of cards in the set
func (cs CardSet) Len() int {
	return bits.OnesCount64(uint64(cs))
}

// CountSuit returns how many cards of the suit are in the set
func (cs CardSet) CountSuit(s Suit) int {
	mask := CardSet(1<<NumRanks-1) << (int(s) * NumRanks)
	return bits.OnesCount64(uint64(cs & mask))
}
