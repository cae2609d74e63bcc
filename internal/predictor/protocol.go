// Package predictor speaks the move-prediction protocol: a request carrying
// the acting seat's view of the table plus its legal moves, answered with a
// single {suit, rank} card. It provides an HTTP and WebSocket client and a
// reference server backed by any local agent.
package predictor

import (
	"fmt"
	"slices"

	"github.com/lox/heartsforbots/hearts"
	"github.com/lox/heartsforbots/internal/game"
)

// DefaultEndpoint is where the prediction service listens by default
const DefaultEndpoint = "http://localhost:8000/predict"

// State is the acting seat's view of the table. It doubles as the training
// example shape, with PlayedCard set to the card actually played.
type State struct {
	PreviousTricks     []game.CompletedTrick `json:"previous_tricks"`
	CurrentTrick       game.Trick            `json:"current_trick"`
	CurrentPlayerIndex int                   `json:"current_player_index"`
	PlayerHand         []hearts.Card         `json:"player_hand"`
	PlayedCard         *hearts.Card          `json:"played_card,omitempty"`
}

// Request asks for a move
type Request struct {
	State      State         `json:"state"`
	ValidMoves []hearts.Card `json:"valid_moves"`
}

// Response names the chosen card
type Response struct {
	Suit hearts.Suit `json:"suit"`
	Rank hearts.Rank `json:"rank"`
}

// NewState converts an agent view into the wire state
func NewState(view game.View) State {
	previous := view.PreviousTricks
	if previous == nil {
		previous = []game.CompletedTrick{}
	}
	hand := []hearts.Card(view.Hand.Clone())
	if hand == nil {
		hand = []hearts.Card{}
	}
	return State{
		PreviousTricks:     slices.Clone(previous),
		CurrentTrick:       view.CurrentTrick,
		CurrentPlayerIndex: view.Seat,
		PlayerHand:         hand,
	}
}

// NewRequest builds the request for a decision
func NewRequest(view game.View, legal []hearts.Card) Request {
	moves := slices.Clone(legal)
	if moves == nil {
		moves = []hearts.Card{}
	}
	return Request{State: NewState(view), ValidMoves: moves}
}

// View converts the wire state back into an agent view. Scores are derived
// from the previous tricks and hearts are broken if any heart has been seen.
func (s State) View() (game.View, error) {
	if s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= game.NumPlayers {
		return game.View{}, fmt.Errorf("%w: current player %d", game.ErrInvalidSeat, s.CurrentPlayerIndex)
	}
	if !s.CurrentTrick.IsComplete() && s.CurrentTrick.Next() != s.CurrentPlayerIndex {
		return game.View{}, fmt.Errorf("%w: seat %d is not due to play", game.ErrOutOfTurn, s.CurrentPlayerIndex)
	}

	view := game.View{
		Seat:           s.CurrentPlayerIndex,
		Hand:           hearts.NewHand(s.PlayerHand...),
		PreviousTricks: slices.Clone(s.PreviousTricks),
		CurrentTrick:   s.CurrentTrick,
	}
	for _, ct := range s.PreviousTricks {
		if ct.Winner < 0 || ct.Winner >= game.NumPlayers {
			return game.View{}, fmt.Errorf("%w: trick winner %d", game.ErrInvalidSeat, ct.Winner)
		}
		view.Scores[ct.Winner] += ct.Points
		for _, c := range ct.Cards {
			if c.IsHeart() {
				view.HeartsBroken = true
			}
		}
	}
	for _, c := range s.CurrentTrick.Played() {
		if c.IsHeart() {
			view.HeartsBroken = true
		}
	}
	return view, nil
}

// NewResponse wraps a card
func NewResponse(c hearts.Card) Response {
	return Response{Suit: c.Suit, Rank: c.Rank}
}

// Card returns the card named by the response
func (r Response) Card() (hearts.Card, error) {
	c := hearts.NewCard(r.Suit, r.Rank)
	if !c.Valid() {
		return hearts.Card{}, fmt.Errorf("%w: suit %s rank %d", ErrInvalidResponse, r.Suit, r.Rank)
	}
	return c, nil
}
