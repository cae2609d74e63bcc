// Package statistics aggregates finished game records into per-player win
// rates and score distributions.
package statistics

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/lox/heartsforbots/internal/game"
)

// ErrInconsistent is returned by Validate when the totals do not add up
var ErrInconsistent = errors.New("inconsistent statistics")

// Key identifies a player across games. The same name under a different
// policy is a different player.
type Key struct {
	Name   string
	Policy string
}

func (k Key) String() string {
	return fmt.Sprintf("%s (%s)", k.Name, k.Policy)
}

// PlayerStats tracks one player's results
type PlayerStats struct {
	Key
	Games     int
	Wins      int // every seat tied for the lowest score counts a win
	SoleWins  int // wins without a tie
	SumScore  int
	SumScore2 int       // Sum of squares for variance calculation
	Values    []float64 // Every score, for median/percentile calculation
}

// WinRate returns the fraction of games won
func (p *PlayerStats) WinRate() float64 {
	if p.Games == 0 {
		return 0
	}
	return float64(p.Wins) / float64(p.Games)
}

// Mean returns the average score per game
func (p *PlayerStats) Mean() float64 {
	if p.Games == 0 {
		return 0
	}
	return float64(p.SumScore) / float64(p.Games)
}

// Variance returns the sample variance of scores
func (p *PlayerStats) Variance() float64 {
	if p.Games < 2 {
		return 0
	}
	mean := p.Mean()
	return (float64(p.SumScore2) - float64(p.Games)*mean*mean) / float64(p.Games-1)
}

// StdDev returns the sample standard deviation of scores
func (p *PlayerStats) StdDev() float64 {
	return math.Sqrt(math.Max(p.Variance(), 0))
}

// StdError returns the standard error of the mean score
func (p *PlayerStats) StdError() float64 {
	if p.Games == 0 {
		return 0
	}
	return p.StdDev() / math.Sqrt(float64(p.Games))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean score
func (p *PlayerStats) ConfidenceInterval95() (float64, float64) {
	mean := p.Mean()
	margin := 1.96 * p.StdError()
	return mean - margin, mean + margin
}

// Median returns the median score
func (p *PlayerStats) Median() float64 {
	return p.Percentile(0.5)
}

// Percentile returns the p-th percentile score (p in [0, 1]) by linear
// interpolation between closest ranks
func (p *PlayerStats) Percentile(q float64) float64 {
	if len(p.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(p.Values))
	copy(sorted, p.Values)
	sort.Float64s(sorted)

	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func (p *PlayerStats) add(score int, won, sole bool) {
	p.Games++
	p.SumScore += score
	p.SumScore2 += score * score
	p.Values = append(p.Values, float64(score))
	if won {
		p.Wins++
	}
	if sole {
		p.SoleWins++
	}
}

// SeatStats tracks results by table position
type SeatStats struct {
	Games    int
	Wins     int
	SumScore int
}

// Mean returns the average score from this seat
func (s SeatStats) Mean() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.SumScore) / float64(s.Games)
}

// Statistics aggregates a set of game records
type Statistics struct {
	Games         int
	Ties          int // games with more than one winner
	Substitutions int
	Seats         [game.NumPlayers]SeatStats

	players map[Key]*PlayerStats
	order   []Key
}

// New returns empty statistics
func New() *Statistics {
	return &Statistics{players: make(map[Key]*PlayerStats)}
}

// FromRecords aggregates the given records
func FromRecords(records []*game.GameRecord) *Statistics {
	s := New()
	for _, rec := range records {
		s.Add(rec)
	}
	return s
}

// Add incorporates a finished game
func (s *Statistics) Add(rec *game.GameRecord) {
	if s.players == nil {
		s.players = make(map[Key]*PlayerStats)
	}
	winners := game.Winners(rec.Scores())

	s.Games++
	s.Substitutions += rec.Substitutions
	if len(winners) > 1 {
		s.Ties++
	}

	for seat, p := range rec.Players {
		key := Key{Name: p.Name, Policy: p.Policy}
		ps, ok := s.players[key]
		if !ok {
			ps = &PlayerStats{Key: key}
			s.players[key] = ps
			s.order = append(s.order, key)
		}
		won := isWinner(winners, seat)
		ps.add(p.Score, won, won && len(winners) == 1)

		if seat < len(s.Seats) {
			s.Seats[seat].Games++
			s.Seats[seat].SumScore += p.Score
			if won {
				s.Seats[seat].Wins++
			}
		}
	}
}

func isWinner(winners []int, seat int) bool {
	for _, w := range winners {
		if w == seat {
			return true
		}
	}
	return false
}

// Player returns the stats for key
func (s *Statistics) Player(key Key) (*PlayerStats, bool) {
	ps, ok := s.players[key]
	return ps, ok
}

// Players returns every player in order of first appearance
func (s *Statistics) Players() []*PlayerStats {
	out := make([]*PlayerStats, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.players[k])
	}
	return out
}

// Ranked returns every player ordered by win rate, then by lower average
// score, then by first appearance
func (s *Statistics) Ranked() []*PlayerStats {
	out := s.Players()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].WinRate() != out[j].WinRate() {
			return out[i].WinRate() > out[j].WinRate()
		}
		return out[i].Mean() < out[j].Mean()
	})
	return out
}

// Validate checks that every game contributed exactly 26 points and at least
// one win
func (s *Statistics) Validate() error {
	points, wins := 0, 0
	for _, ps := range s.players {
		points += ps.SumScore
		wins += ps.Wins
	}
	if points != s.Games*game.TotalPoints {
		return fmt.Errorf("%w: %d points over %d games, want %d", ErrInconsistent, points, s.Games, s.Games*game.TotalPoints)
	}
	if wins < s.Games {
		return fmt.Errorf("%w: %d wins over %d games", ErrInconsistent, wins, s.Games)
	}
	return nil
}
