package game

import (
	"context"
	"testing"

	"github.com/lox/heartsforbots/hearts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func playedRecord(t *testing.T, seed int64) *GameRecord {
	t.Helper()
	g, err := New(randomSeats(seed), WithSeed(seed), WithLogger(quietLogger()))
	require.NoError(t, err)
	rec, err := g.Play(context.Background())
	require.NoError(t, err)
	return rec
}

func TestWinners(t *testing.T) {
	t.Parallel()

	tests := []struct {
		scores []int
		want   []int
	}{
		{scores: []int{0, 6, 7, 13}, want: []int{0}},
		{scores: []int{13, 0, 13, 0}, want: []int{1, 3}},
		{scores: []int{5, 5, 8, 8}, want: []int{0, 1}},
		{scores: []int{26, 0, 0, 0}, want: []int{1, 2, 3}},
		{scores: nil, want: nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Winners(tt.scores), "scores %v", tt.scores)
	}
}

func TestRecordWinnerIsLowestTiedSeat(t *testing.T) {
	t.Parallel()

	for seed := int64(0); seed < 50; seed++ {
		rec := playedRecord(t, seed)
		require.NotEmpty(t, rec.Winners)
		assert.Equal(t, rec.Winners[0], rec.Winner)
		for _, seat := range rec.Winners {
			assert.True(t, rec.IsWinner(seat))
			for _, s := range rec.Scores() {
				assert.LessOrEqual(t, rec.Players[seat].Score, s)
			}
		}
	}
}

func TestRecordValidateCatchesTampering(t *testing.T) {
	t.Parallel()

	tamper := map[string]func(r *GameRecord){
		"score":         func(r *GameRecord) { r.Players[0].Score++ },
		"missing trick": func(r *GameRecord) { r.Tricks = r.Tricks[:NumTricks-1] },
		"hearts flag":   func(r *GameRecord) { r.HeartsBroken = !r.HeartsBroken },
		"winner":        func(r *GameRecord) { r.Winner = (r.Winner + 1) % NumPlayers; r.Winners = []int{r.Winner} },
		"trick points":  func(r *GameRecord) { r.Tricks[5].Points += 1 },
		"leader chain":  func(r *GameRecord) { r.Tricks[3].Leader = (r.Tricks[2].Winner + 1) % NumPlayers },
		"players":       func(r *GameRecord) { r.Players = r.Players[:3] },
		"id":            func(r *GameRecord) { r.ID = "Game-42" },
		"dealt twice": func(r *GameRecord) {
			r.Players[1].InitialHand = append(hearts.Hand{}, r.Players[0].InitialHand...)
		},
	}

	for name, fn := range tamper {
		t.Run(name, func(t *testing.T) {
			rec := playedRecord(t, 11)
			require.NoError(t, rec.Validate())
			fn(rec)
			assert.ErrorIs(t, rec.Validate(), ErrRuleViolation)
		})
	}
}

func TestRecordValidateAllowsMissingID(t *testing.T) {
	t.Parallel()

	rec := playedRecord(t, 4)
	assert.Len(t, rec.ID, 26)
	rec.ID = ""
	assert.NoError(t, rec.Validate())
}
