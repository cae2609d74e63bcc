package game

import "github.com/lox/heartsforbots/hearts"

// TableState is the part of the table the legality rules look at
type TableState struct {
	// FirstTrick is true until the first trick of the game completes
	FirstTrick bool
	// Leading is true when no card has been played in the current trick
	Leading bool
	// LeadSuit is the suit of the first card of the current trick; it is
	// meaningless while Leading is true
	LeadSuit     hearts.Suit
	HeartsBroken bool
}

// LegalMoves returns the cards in hand that may be played in the given table
// state. The rules are applied in order and the first non-empty result wins:
//
//  1. the first card of the game must be the two of clubs, if held
//  2. a led suit must be followed, if possible
//  3. no penalty cards on the first trick, unless nothing else is held
//  4. hearts may not be led before they are broken, unless only hearts are held
//  5. otherwise any card
//
// The result preserves hand order and is only empty for an empty hand.
func LegalMoves(hand hearts.Hand, table TableState) []hearts.Card {
	if len(hand) == 0 {
		return nil
	}

	if table.FirstTrick && table.Leading {
		if hand.Contains(hearts.TwoOfClubs) {
			return []hearts.Card{hearts.TwoOfClubs}
		}
	}

	if !table.Leading {
		suit := table.LeadSuit
		if following := hand.Filter(func(c hearts.Card) bool { return c.Suit == suit }); len(following) > 0 {
			return following
		}
	}

	if table.FirstTrick {
		if safe := hand.Filter(func(c hearts.Card) bool { return !c.IsPenalty() }); len(safe) > 0 {
			return safe
		}
		return hand.Clone()
	}

	if table.Leading && !table.HeartsBroken {
		if nonHearts := hand.Filter(func(c hearts.Card) bool { return !c.IsHeart() }); len(nonHearts) > 0 {
			return nonHearts
		}
	}

	return hand.Clone()
}

// IsLegal reports whether card is among the legal moves
func IsLegal(card hearts.Card, legal []hearts.Card) bool {
	for _, c := range legal {
		if c == card {
			return true
		}
	}
	return false
}
