package game

import (
	"context"
	"errors"
	"testing"

	"github.com/lox/heartsforbots/hearts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const orderedID = "01h5n0et5q6mt3v7ms1234abcd"

func newOrderedGame(t *testing.T, agents ...Agent) *Game {
	t.Helper()
	if len(agents) == 0 {
		agents = []Agent{firstLegal{}, firstLegal{}, firstLegal{}, firstLegal{}}
	}
	g, err := New(seatsOf(agents...), WithDeck(hearts.NewOrderedDeck()), WithID(orderedID), WithLogger(quietLogger()))
	require.NoError(t, err)
	return g
}

func TestSeed42TwoOfClubsOpens(t *testing.T) {
	t.Parallel()

	g, err := New(randomSeats(42), WithSeed(42), WithLogger(quietLogger()))
	require.NoError(t, err)
	leader := g.Current()

	view, err := g.View(leader)
	require.NoError(t, err)
	require.True(t, view.Hand.Contains(hearts.TwoOfClubs), "the holder of the two of clubs leads")
	require.True(t, view.FirstPlay())

	legal, err := g.LegalMoves()
	require.NoError(t, err)
	assert.Equal(t, []hearts.Card{hearts.TwoOfClubs}, legal)

	require.NoError(t, g.Step(context.Background()))
	assert.Equal(t, 1, g.trick.Len())
	c, ok := g.trick.Card(leader)
	require.True(t, ok)
	assert.Equal(t, hearts.TwoOfClubs, c)

	rec, err := g.Play(context.Background())
	require.NoError(t, err)
	assert.Equal(t, leader, rec.Tricks[0].Leader)
	assert.Equal(t, hearts.TwoOfClubs, rec.Tricks[0].Cards[leader])
	assert.Equal(t, int64(42), rec.Seed)
}

func TestRandomGamesKeepInvariants(t *testing.T) {
	t.Parallel()

	for seed := int64(0); seed < 100; seed++ {
		g, err := New(randomSeats(seed), WithSeed(seed), WithLogger(quietLogger()))
		require.NoError(t, err)
		require.Equal(t, Dealt, g.Phase())

		for g.Phase() != Finished {
			require.NoError(t, g.Step(context.Background()), "seed %d", seed)
			require.NoError(t, g.checkPartition(), "seed %d", seed)
			if g.trick.IsEmpty() {
				for seat, p := range g.players {
					require.Len(t, p.hand, NumTricks-len(g.history), "seed %d seat %d", seed, seat)
				}
			}
		}

		rec, err := g.Record()
		require.NoError(t, err)
		require.NoError(t, rec.Validate(), "seed %d", seed)

		total := 0
		for _, s := range rec.Scores() {
			assert.GreaterOrEqual(t, s, 0)
			total += s
		}
		assert.Equal(t, TotalPoints, total, "seed %d", seed)
		assert.Zero(t, rec.Substitutions)

		for i, ct := range rec.Tricks {
			lead := ct.LeadSuit()
			for seat, c := range ct.Cards {
				if c.Suit == lead {
					assert.LessOrEqual(t, c.Rank, ct.Cards[ct.Winner].Rank, "seed %d trick %d seat %d", seed, i, seat)
				}
			}
			assert.Equal(t, lead, ct.Cards[ct.Winner].Suit, "winner follows the lead suit")
		}

		first := rec.Tricks[0]
		for seat, c := range first.Cards {
			if !c.IsPenalty() {
				continue
			}
			hand := rec.Players[seat].InitialHand
			assert.False(t, hand.HasSuit(first.LeadSuit()), "seed %d seat %d could follow suit", seed, seat)
			assert.Empty(t, hand.Filter(func(c hearts.Card) bool { return !c.IsPenalty() }),
				"seed %d seat %d dumped %s with safe cards in hand", seed, seat, c)
		}
	}
}

func TestSameSeedSameGame(t *testing.T) {
	t.Parallel()

	play := func() *GameRecord {
		g, err := New(randomSeats(7), WithSeed(7), WithID("01h5n0et5q6mt3v7ms1234fxed"), WithLogger(quietLogger()))
		require.NoError(t, err)
		rec, err := g.Play(context.Background())
		require.NoError(t, err)
		return rec
	}
	assert.Equal(t, play(), play())
}

func TestApplyEnforcesRules(t *testing.T) {
	t.Parallel()

	g := newOrderedGame(t)
	require.Equal(t, 0, g.Current(), "seat 0 holds the two of clubs in an ordered deal")

	assert.ErrorIs(t, g.Apply(1, hearts.MustParseCards("3c")[0]), ErrOutOfTurn)
	assert.ErrorIs(t, g.Apply(0, hearts.MustParseCards("6c")[0]), ErrIllegalCard)
	assert.ErrorIs(t, g.Apply(7, hearts.TwoOfClubs), ErrInvalidSeat)
	assert.Equal(t, Dealt, g.Phase())

	require.NoError(t, g.Apply(0, hearts.TwoOfClubs))
	assert.Equal(t, Playing, g.Phase())
	assert.ErrorIs(t, g.Apply(0, hearts.MustParseCards("6c")[0]), ErrOutOfTurn)

	for seat, c := range hearts.MustParseCards("3c 4c 5c") {
		require.NoError(t, g.Apply(seat+1, c))
	}
	require.Len(t, g.history, 1)
	assert.Equal(t, 3, g.history[0].Winner)
	assert.Equal(t, 3, g.Current(), "winner leads the next trick")

	legal, err := g.LegalMoves()
	require.NoError(t, err)
	assert.Equal(t, hearts.MustParseCards("9c Kc 4d 8d Qd 2s 6s Ts As"), legal)

	err = g.Apply(3, hearts.MustParseCards("3h")[0])
	assert.ErrorIs(t, err, ErrIllegalCard)
	assert.ErrorIs(t, err, ErrRuleViolation)
}

func TestHeartsBrokenStaysBroken(t *testing.T) {
	t.Parallel()

	g := newOrderedGame(t)
	ctx := context.Background()
	broken := false
	for g.Phase() != Finished {
		require.NoError(t, g.Step(ctx))
		if broken {
			assert.True(t, g.HeartsBroken())
		}
		broken = g.HeartsBroken()
	}
	rec, err := g.Record()
	require.NoError(t, err)
	assert.True(t, rec.HeartsBroken)
	require.NoError(t, rec.Validate())
}

func TestIllegalChoiceIsSubstituted(t *testing.T) {
	t.Parallel()

	bogus := stubbornAgent{card: hearts.Card{}}
	g, err := New(seatsOf(bogus, bogus, bogus, bogus), WithSeed(3), WithLogger(quietLogger()))
	require.NoError(t, err)

	rec, err := g.Play(context.Background())
	require.NoError(t, err)
	assert.Equal(t, hearts.DeckSize, rec.Substitutions)
	require.NoError(t, rec.Validate())

	ref, err := New(seatsOf(firstLegal{}, firstLegal{}, firstLegal{}, firstLegal{}), WithSeed(3), WithLogger(quietLogger()))
	require.NoError(t, err)
	want, err := ref.Play(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want.Tricks, rec.Tricks, "substitution plays the first legal move")
}

func TestPolicyErrorIsNotARuleViolation(t *testing.T) {
	t.Parallel()

	boom := errors.New("predictor unreachable")
	bad := failingAgent{err: boom}
	g, err := New(seatsOf(bad, bad, bad, bad), WithSeed(1), WithLogger(quietLogger()))
	require.NoError(t, err)

	_, err = g.Play(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPolicy)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrRuleViolation)

	_, err = g.Record()
	assert.ErrorIs(t, err, ErrNotFinished)
}

func TestFinishedGameRejectsMoves(t *testing.T) {
	t.Parallel()

	g := newOrderedGame(t)
	rec, err := g.Play(context.Background())
	require.NoError(t, err)
	assert.Equal(t, orderedID, rec.ID)
	assert.Equal(t, Finished, g.Phase())

	assert.ErrorIs(t, g.Step(context.Background()), ErrGameFinished)
	assert.ErrorIs(t, g.Apply(0, hearts.TwoOfClubs), ErrGameFinished)
	_, err = g.LegalMoves()
	assert.ErrorIs(t, err, ErrGameFinished)

	again, err := g.Record()
	require.NoError(t, err)
	assert.Same(t, rec, again)
}

func TestPlayHonoursCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := newOrderedGame(t)
	_, err := g.Play(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Dealt, g.Phase())
}

func TestViewSnapshots(t *testing.T) {
	t.Parallel()

	rec := &recordingAgent{}
	g := newOrderedGame(t, rec, rec, rec, rec)
	_, err := g.Play(context.Background())
	require.NoError(t, err)
	require.Len(t, rec.views, hearts.DeckSize)

	first := rec.views[0]
	assert.True(t, first.FirstPlay())
	assert.Equal(t, 0, first.Seat)
	assert.Len(t, first.Hand, NumTricks)
	assert.Equal(t, []hearts.Card{hearts.TwoOfClubs}, rec.legal[0])

	second := rec.views[1]
	assert.False(t, second.FirstPlay())
	assert.Equal(t, 1, second.Seat)
	assert.Equal(t, 1, second.CurrentTrick.Len())
	assert.Equal(t, NumTricks+1, second.Seen().Len(), "own hand plus the led card")

	fifth := rec.views[4]
	assert.Len(t, fifth.PreviousTricks, 1)
	assert.True(t, fifth.CurrentTrick.IsEmpty())
	assert.Equal(t, 3, fifth.Seat)
	assert.Equal(t, 4+12, fifth.Seen().Len())

	last := rec.views[len(rec.views)-1]
	assert.Len(t, last.PreviousTricks, NumTricks-1)
	assert.Len(t, last.Hand, 1)
	assert.Equal(t, hearts.DeckSize, last.Seen().Len())
}

func TestViewIsACopy(t *testing.T) {
	t.Parallel()

	g := newOrderedGame(t)
	view, err := g.View(0)
	require.NoError(t, err)
	view.Hand[0] = hearts.QueenOfSpades

	legal, err := g.LegalMoves()
	require.NoError(t, err)
	assert.Equal(t, []hearts.Card{hearts.TwoOfClubs}, legal)

	_, err = g.View(4)
	assert.ErrorIs(t, err, ErrInvalidSeat)
}

func TestNewValidatesSeats(t *testing.T) {
	t.Parallel()

	_, err := New(seatsOf(firstLegal{}, firstLegal{}, firstLegal{}))
	assert.ErrorIs(t, err, ErrConfig)

	seats := seatsOf(firstLegal{}, firstLegal{}, firstLegal{}, firstLegal{})
	seats[2].Agent = nil
	_, err = New(seats)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestGeneratedID(t *testing.T) {
	t.Parallel()

	g, err := New(randomSeats(1), WithSeed(1))
	require.NoError(t, err)
	assert.Len(t, g.ID(), 26)
}
