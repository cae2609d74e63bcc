// Package training turns finished game records into supervised learning
// examples: one example per card played, holding the table as the player
// saw it and the card they chose.
package training

import (
	"fmt"
	"slices"

	"github.com/lox/heartsforbots/hearts"
	"github.com/lox/heartsforbots/internal/game"
	"github.com/lox/heartsforbots/internal/predictor"
)

// goodPlayerSpread widens the gap between the two lowest scores to set the
// cut-off for players worth learning from
const goodPlayerSpread = 1.25

// Example is the acting seat's view before a play plus the card played. The
// hand still contains the played card, matching a prediction request.
type Example = predictor.State

// Filter decides whether the move a seat made in a trick is worth keeping
type Filter interface {
	Keep(seat int, trick game.CompletedTrick) bool
}

// KeepAll keeps every move
type KeepAll struct{}

func (KeepAll) Keep(int, game.CompletedTrick) bool { return true }

// MoveFilter keeps moves by good players that did not take a trick carrying
// more than one point
type MoveFilter struct {
	good [game.NumPlayers]bool
}

// NewMoveFilter builds the filter for one finished game
func NewMoveFilter(scores []int) MoveFilter {
	var f MoveFilter
	for _, seat := range GoodPlayers(scores) {
		if seat < game.NumPlayers {
			f.good[seat] = true
		}
	}
	return f
}

// Keep implements Filter
func (f MoveFilter) Keep(seat int, trick game.CompletedTrick) bool {
	if seat < 0 || seat >= game.NumPlayers || !f.good[seat] {
		return false
	}
	return trick.Points <= 1 || trick.Winner != seat
}

// GoodPlayers returns the seats whose score is at most s0 + (s1-s0)*1.25,
// where s0 and s1 are the two lowest scores
func GoodPlayers(scores []int) []int {
	if len(scores) < 2 {
		seats := make([]int, len(scores))
		for i := range seats {
			seats[i] = i
		}
		return seats
	}
	sorted := slices.Clone(scores)
	slices.Sort(sorted)
	threshold := float64(sorted[0]) + float64(sorted[1]-sorted[0])*goodPlayerSpread

	var seats []int
	for seat, s := range scores {
		if float64(s) <= threshold {
			seats = append(seats, seat)
		}
	}
	return seats
}

// Extract replays a record and returns one example per kept move, in play
// order. A nil filter keeps every move.
func Extract(rec *game.GameRecord, filter Filter) ([]Example, error) {
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("game %s: %w", rec.ID, err)
	}
	if filter == nil {
		filter = KeepAll{}
	}

	hands := make([]hearts.Hand, len(rec.Players))
	for i, p := range rec.Players {
		hands[i] = p.InitialHand.Clone()
		hands[i].Sort()
	}

	examples := make([]Example, 0, len(rec.Tricks)*game.NumPlayers)
	previous := make([]game.CompletedTrick, 0, len(rec.Tricks))
	for _, ct := range rec.Tricks {
		current := game.NewTrick(ct.Leader)
		for range game.NumPlayers {
			seat := current.Next()
			card := ct.Cards[seat]

			if filter.Keep(seat, ct) {
				played := card
				examples = append(examples, Example{
					PreviousTricks:     slices.Clone(previous),
					CurrentTrick:       current,
					CurrentPlayerIndex: seat,
					PlayerHand:         hands[seat].Clone(),
					PlayedCard:         &played,
				})
			}

			if !hands[seat].Remove(card) {
				return nil, fmt.Errorf("game %s: %w: seat %d never held %s", rec.ID, game.ErrInvariant, seat, card)
			}
			if err := current.Play(seat, card); err != nil {
				return nil, fmt.Errorf("game %s: %w", rec.ID, err)
			}
		}
		previous = append(previous, ct)
	}
	return examples, nil
}

// Summary counts what a batch extraction produced
type Summary struct {
	Games    int
	Moves    int
	Examples int
}

// Excluded returns the number of moves dropped by the filter
func (s Summary) Excluded() int { return s.Moves - s.Examples }

// ExtractAll extracts every record, filtering each game with a MoveFilter
// when filtered is set
func ExtractAll(records []*game.GameRecord, filtered bool) ([]Example, Summary, error) {
	var (
		all     []Example
		summary Summary
	)
	for _, rec := range records {
		var filter Filter = KeepAll{}
		if filtered {
			filter = NewMoveFilter(rec.Scores())
		}
		examples, err := Extract(rec, filter)
		if err != nil {
			return nil, summary, err
		}
		summary.Games++
		summary.Moves += len(rec.Tricks) * game.NumPlayers
		summary.Examples += len(examples)
		all = append(all, examples...)
	}
	return all, summary, nil
}
