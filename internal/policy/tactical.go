package policy

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/lox/heartsforbots/hearts"
	"github.com/lox/heartsforbots/internal/game"
)

// exposureThreshold is the number of cards of a suit already seen beyond
// which a suit is considered run down
const exposureThreshold = 7

// TacticalPolicy is a rule-based player. It counts the cards it has seen per
// suit, leads from short suits, ducks under the winning card when a trick
// carries points and dumps the queen of spades or high hearts when void.
type TacticalPolicy struct {
	logger *log.Logger
}

// NewTactical creates the rule-based policy
func NewTactical(logger *log.Logger) *TacticalPolicy {
	return &TacticalPolicy{logger: logger.WithPrefix("tactical")}
}

func (p *TacticalPolicy) Kind() Kind   { return Tactical }
func (p *TacticalPolicy) Name() string { return Tactical.String() }

func (p *TacticalPolicy) ChooseCard(_ context.Context, legal []hearts.Card, view game.View) (hearts.Card, error) {
	if len(legal) == 0 {
		return hearts.Card{}, ErrNoLegalMoves
	}

	card := p.choose(hearts.Hand(legal), view)
	if !game.IsLegal(card, legal) {
		p.logger.Debug("Heuristic picked an illegal card, playing first legal move",
			"seat", view.Seat, "card", card, "fallback", legal[0])
		return legal[0], nil
	}
	return card, nil
}

// suitCounts holds how many cards of each suit the seat has seen
type suitCounts [hearts.NumSuits]int

func countSeen(view game.View) suitCounts {
	var counts suitCounts
	seen := view.Seen()
	for _, s := range hearts.Suits {
		counts[s] = seen.CountSuit(s)
	}
	return counts
}

// excludedSuits returns the suits the policy avoids leading: hearts always,
// and spades until the queen of spades has fallen in a completed trick.
func excludedSuits(view game.View) [hearts.NumSuits]bool {
	var excluded [hearts.NumSuits]bool
	excluded[hearts.Hearts] = true

	queenOut := false
	for _, ct := range view.PreviousTricks {
		for _, c := range ct.Cards {
			if c.IsQueenOfSpades() {
				queenOut = true
			}
		}
	}
	if !queenOut {
		excluded[hearts.Spades] = true
	}
	return excluded
}

func (p *TacticalPolicy) choose(legal hearts.Hand, view game.View) hearts.Card {
	if view.FirstPlay() && legal.Contains(hearts.TwoOfClubs) {
		return hearts.TwoOfClubs
	}

	counts := countSeen(view)
	excluded := excludedSuits(view)

	lead, following := view.CurrentTrick.LeadSuit()
	if !following {
		return p.lead(legal, counts, excluded)
	}
	return p.follow(legal, view, lead, counts, excluded)
}

// lead picks the least exposed suit that has been seen at all and is not
// excluded, only considering suits it may legally lead. Excluded suits are
// considered when nothing else is left.
func (p *TacticalPolicy) lead(legal hearts.Hand, counts suitCounts, excluded [hearts.NumSuits]bool) hearts.Card {
	suit, ok := leastExposed(legal, counts, excluded, false)
	if !ok {
		suit, ok = leastExposed(legal, counts, excluded, true)
	}
	if !ok {
		suit = hearts.Clubs
	}

	cards := legal.OfSuit(suit)
	if len(cards) == 0 {
		return legal[0]
	}
	if counts[suit] > exposureThreshold {
		return cards[0]
	}
	return cards[len(cards)-1]
}

func leastExposed(legal hearts.Hand, counts suitCounts, excluded [hearts.NumSuits]bool, allowExcluded bool) (hearts.Suit, bool) {
	var (
		best  hearts.Suit
		found bool
	)
	for _, s := range hearts.Suits {
		if counts[s] == 0 || (excluded[s] && !allowExcluded) || !legal.HasSuit(s) {
			continue
		}
		if !found || counts[s] < counts[best] {
			best, found = s, true
		}
	}
	return best, found
}

func (p *TacticalPolicy) follow(legal hearts.Hand, view game.View, lead hearts.Suit, counts suitCounts, excluded [hearts.NumSuits]bool) hearts.Card {
	_, winning, _ := view.CurrentTrick.Winning()

	cards := legal.OfSuit(lead)
	if len(cards) > 0 {
		highest := cards[len(cards)-1]
		take := view.CurrentTrick.Points() == 0 && counts[lead] < exposureThreshold && !excluded[lead]
		if take {
			return highest
		}
		under := cards.Filter(func(c hearts.Card) bool { return c.Rank < winning.Rank })
		if len(under) > 0 {
			return under[len(under)-1]
		}
		return highest
	}

	if legal.Contains(hearts.QueenOfSpades) {
		return hearts.QueenOfSpades
	}
	if h := legal.OfSuit(hearts.Hearts); len(h) > 0 {
		return h[len(h)-1]
	}
	return legal[0]
}
