package game

import (
	"fmt"
	"slices"

	"github.com/lox/heartsforbots/hearts"
	"github.com/lox/heartsforbots/internal/gameid"
)

// NumTricks is the number of tricks in one deal of four 13-card hands
const NumTricks = hearts.DeckSize / NumPlayers

// TotalPoints is the number of points carried by a full deck
const TotalPoints = 26

// CompletedTrick is the immutable result of a finished trick. Cards are
// indexed by seat, not by play order.
type CompletedTrick struct {
	Cards  [NumPlayers]hearts.Card `json:"cards" toml:"cards"`
	Leader int                     `json:"first_player_index" toml:"first_player_index"`
	Winner int                     `json:"winner_index" toml:"winner_index"`
	Points int                     `json:"score" toml:"score"`
}

// LeadSuit returns the suit of the card played by the leader
func (ct CompletedTrick) LeadSuit() hearts.Suit {
	return ct.Cards[ct.Leader].Suit
}

// Played returns the cards in play order, starting with the leader
func (ct CompletedTrick) Played() []hearts.Card {
	out := make([]hearts.Card, NumPlayers)
	for i := range NumPlayers {
		out[i] = ct.Cards[(ct.Leader+i)%NumPlayers]
	}
	return out
}

// Validate checks that the recorded winner and points follow from the cards
func (ct CompletedTrick) Validate() error {
	if ct.Leader < 0 || ct.Leader >= NumPlayers {
		return fmt.Errorf("%w: leader %d", ErrInvalidSeat, ct.Leader)
	}
	t := NewTrick(ct.Leader)
	for _, c := range ct.Played() {
		if !c.Valid() {
			return fmt.Errorf("%w: invalid card in trick", ErrInvariant)
		}
		if err := t.Play(t.Next(), c); err != nil {
			return err
		}
	}
	want, err := t.Complete()
	if err != nil {
		return err
	}
	if want != ct {
		return fmt.Errorf("%w: trick resolves to winner %d with %d points, recorded winner %d with %d",
			ErrInvariant, want.Winner, want.Points, ct.Winner, ct.Points)
	}
	return nil
}

// PlayerRecord is the final per-seat information kept for replay and analysis
type PlayerRecord struct {
	Name        string      `json:"name" toml:"name"`
	Policy      string      `json:"policy" toml:"policy"`
	InitialHand hearts.Hand `json:"initial_hand" toml:"initial_hand"`
	Score       int         `json:"score" toml:"score"`
}

// GameRecord is the finished history of one game
type GameRecord struct {
	ID           string           `json:"id" toml:"id"`
	Seed         int64            `json:"seed" toml:"seed"`
	Players      []PlayerRecord   `json:"players" toml:"players"`
	Tricks       []CompletedTrick `json:"tricks" toml:"tricks"`
	HeartsBroken bool             `json:"hearts_broken" toml:"hearts_broken"`
	// Winner is the lowest seat among those tied on the minimum score
	Winner int `json:"winner" toml:"winner"`
	// Winners lists every seat tied on the minimum score
	Winners []int `json:"winners" toml:"winners"`
	// Substitutions counts illegal policy choices replaced by the first legal move
	Substitutions int `json:"substitutions,omitempty" toml:"substitutions,omitempty"`
}

// Scores returns the final score of each seat
func (r *GameRecord) Scores() []int {
	scores := make([]int, len(r.Players))
	for i, p := range r.Players {
		scores[i] = p.Score
	}
	return scores
}

// IsWinner reports whether the seat tied for the lowest score
func (r *GameRecord) IsWinner(seat int) bool {
	return slices.Contains(r.Winners, seat)
}

// Winners returns every seat holding the minimum score, lowest seat first
func Winners(scores []int) []int {
	if len(scores) == 0 {
		return nil
	}
	low := slices.Min(scores)
	var seats []int
	for seat, s := range scores {
		if s == low {
			seats = append(seats, seat)
		}
	}
	return seats
}

// Validate checks the structural invariants of a finished game: a well-formed
// ID when one is set, four players whose initial hands partition the deck,
// thirteen consistent tricks that replay those hands, scores matching the
// tricks won and totalling 26, and winners holding the minimum score.
func (r *GameRecord) Validate() error {
	if r.ID != "" {
		if err := gameid.Validate(r.ID); err != nil {
			return fmt.Errorf("%w: %w", ErrInvariant, err)
		}
	}
	if len(r.Players) != NumPlayers {
		return fmt.Errorf("%w: %d players", ErrInvariant, len(r.Players))
	}
	if len(r.Tricks) != NumTricks {
		return fmt.Errorf("%w: %d tricks", ErrInvariant, len(r.Tricks))
	}

	var dealt hearts.CardSet
	for seat, p := range r.Players {
		if len(p.InitialHand) != NumTricks {
			return fmt.Errorf("%w: seat %d dealt %d cards", ErrInvariant, seat, len(p.InitialHand))
		}
		for _, c := range p.InitialHand {
			if dealt.Contains(c) {
				return fmt.Errorf("%w: %s dealt twice", ErrInvariant, c)
			}
			dealt.Add(c)
		}
	}
	if dealt != hearts.FullDeck {
		return fmt.Errorf("%w: hands do not cover the deck", ErrInvariant)
	}

	points := make([]int, NumPlayers)
	broken := false
	for i, ct := range r.Tricks {
		if err := ct.Validate(); err != nil {
			return fmt.Errorf("trick %d: %w", i+1, err)
		}
		if i > 0 && ct.Leader != r.Tricks[i-1].Winner {
			return fmt.Errorf("%w: trick %d led by seat %d, previous winner %d",
				ErrInvariant, i+1, ct.Leader, r.Tricks[i-1].Winner)
		}
		for seat, c := range ct.Cards {
			if !slices.Contains(r.Players[seat].InitialHand, c) {
				return fmt.Errorf("%w: seat %d played %s which it was not dealt", ErrInvariant, seat, c)
			}
			if c.IsHeart() {
				broken = true
			}
		}
		points[ct.Winner] += ct.Points
	}

	total := 0
	for seat, p := range r.Players {
		if p.Score != points[seat] {
			return fmt.Errorf("%w: seat %d score %d, tricks won carry %d", ErrInvariant, seat, p.Score, points[seat])
		}
		total += p.Score
	}
	if total != TotalPoints {
		return fmt.Errorf("%w: scores total %d", ErrInvariant, total)
	}
	if broken != r.HeartsBroken {
		return fmt.Errorf("%w: hearts broken flag is %t", ErrInvariant, r.HeartsBroken)
	}

	winners := Winners(r.Scores())
	if !slices.Equal(winners, r.Winners) || r.Winner != winners[0] {
		return fmt.Errorf("%w: recorded winners %v (winner %d), expected %v", ErrInvariant, r.Winners, r.Winner, winners)
	}
	return nil
}
