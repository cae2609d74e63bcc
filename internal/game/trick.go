package game

import (
	"encoding/json"
	"fmt"

	"github.com/lox/heartsforbots/hearts"
)

// NumPlayers is the fixed number of seats at a Hearts table
const NumPlayers = 4

// slot holds the card one seat played into the current trick, if any
type slot struct {
	card   hearts.Card
	played bool
}

// Trick is a trick in progress: one slot per seat plus the seat that led.
// Slots fill strictly in rotation starting at the leader.
type Trick struct {
	slots  [NumPlayers]slot
	leader int
	count  int
}

// NewTrick starts an empty trick led by the given seat
func NewTrick(leader int) Trick {
	return Trick{leader: leader}
}

// RestoreTrick rebuilds a partial trick from its per-seat cards, validating
// that the filled seats form a contiguous run starting at the leader.
func RestoreTrick(leader int, cards [NumPlayers]*hearts.Card) (Trick, error) {
	if leader < 0 || leader >= NumPlayers {
		return Trick{}, fmt.Errorf("%w: leader %d", ErrInvalidSeat, leader)
	}
	t := NewTrick(leader)
	for i := range NumPlayers {
		seat := (leader + i) % NumPlayers
		if cards[seat] == nil {
			continue
		}
		if err := t.Play(seat, *cards[seat]); err != nil {
			return Trick{}, err
		}
	}
	for seat, c := range cards {
		if c != nil && !t.slots[seat].played {
			return Trick{}, fmt.Errorf("%w: seat %d", ErrOutOfTurn, seat)
		}
	}
	return t, nil
}

// Leader returns the seat that led (or will lead) the trick
func (t *Trick) Leader() int { return t.leader }

// Len returns the number of cards played so far
func (t *Trick) Len() int { return t.count }

// IsEmpty reports whether no card has been played
func (t *Trick) IsEmpty() bool { return t.count == 0 }

// IsComplete reports whether all four seats have played
func (t *Trick) IsComplete() bool { return t.count == NumPlayers }

// Next returns the seat due to play next
func (t *Trick) Next() int {
	return (t.leader + t.count) % NumPlayers
}

// Card returns the card a seat played, if it has played
func (t *Trick) Card(seat int) (hearts.Card, bool) {
	if seat < 0 || seat >= NumPlayers {
		return hearts.Card{}, false
	}
	s := t.slots[seat]
	return s.card, s.played
}

// LeadSuit returns the suit of the leader's card
func (t *Trick) LeadSuit() (hearts.Suit, bool) {
	c, ok := t.Card(t.leader)
	return c.Suit, ok
}

// Played returns the cards in play order, starting with the leader
func (t *Trick) Played() []hearts.Card {
	out := make([]hearts.Card, 0, t.count)
	for i := range t.count {
		out = append(out, t.slots[(t.leader+i)%NumPlayers].card)
	}
	return out
}

// Points returns the sum of the scores of the cards played so far
func (t *Trick) Points() int {
	return hearts.Hand(t.Played()).Points()
}

// Winning returns the seat and card currently winning the trick: the highest
// card of the lead suit.
func (t *Trick) Winning() (int, hearts.Card, bool) {
	suit, ok := t.LeadSuit()
	if !ok {
		return -1, hearts.Card{}, false
	}
	winner := t.leader
	best := t.slots[t.leader].card
	for seat, s := range t.slots {
		if s.played && s.card.Suit == suit && s.card.Rank > best.Rank {
			winner, best = seat, s.card
		}
	}
	return winner, best, true
}

// Play records a card for a seat. The seat must be the next one in rotation
// and must not have played already.
func (t *Trick) Play(seat int, card hearts.Card) error {
	switch {
	case seat < 0 || seat >= NumPlayers:
		return fmt.Errorf("%w: %d", ErrInvalidSeat, seat)
	case t.IsComplete():
		return ErrTrickComplete
	case t.slots[seat].played:
		return fmt.Errorf("%w: seat %d", ErrDuplicatePlay, seat)
	case seat != t.Next():
		return fmt.Errorf("%w: seat %d, expected %d", ErrOutOfTurn, seat, t.Next())
	}
	t.slots[seat] = slot{card: card, played: true}
	t.count++
	return nil
}

// Complete resolves a full trick into its immutable record
func (t *Trick) Complete() (CompletedTrick, error) {
	if !t.IsComplete() {
		return CompletedTrick{}, fmt.Errorf("%w: %d of %d cards", ErrTrickOpen, t.count, NumPlayers)
	}
	winner, _, _ := t.Winning()
	ct := CompletedTrick{
		Leader: t.leader,
		Winner: winner,
		Points: t.Points(),
	}
	for seat, s := range t.slots {
		ct.Cards[seat] = s.card
	}
	return ct, nil
}

type wireTrick struct {
	Cards  [NumPlayers]*hearts.Card `json:"cards"`
	Leader int                      `json:"first_player_index"`
}

// MarshalJSON encodes the trick as per-seat cards (null for seats that have
// not played) plus the leading seat.
func (t Trick) MarshalJSON() ([]byte, error) {
	var w wireTrick
	w.Leader = t.leader
	for seat, s := range t.slots {
		if s.played {
			c := s.card
			w.Cards[seat] = &c
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes and validates the per-seat form
func (t *Trick) UnmarshalJSON(data []byte) error {
	var w wireTrick
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	restored, err := RestoreTrick(w.Leader, w.Cards)
	if err != nil {
		return err
	}
	*t = restored
	return nil
}
