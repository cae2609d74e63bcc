package game

import (
	"context"
	"io"
	"math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/lox/heartsforbots/hearts"
	"github.com/lox/heartsforbots/internal/randutil"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// firstLegal always plays the first legal card
type firstLegal struct{}

func (firstLegal) Name() string { return "first-legal" }

func (firstLegal) ChooseCard(_ context.Context, legal []hearts.Card, _ View) (hearts.Card, error) {
	return legal[0], nil
}

// randomAgent plays a uniformly random legal card
type randomAgent struct {
	rng *rand.Rand
}

func (randomAgent) Name() string { return "random" }

func (a randomAgent) ChooseCard(_ context.Context, legal []hearts.Card, _ View) (hearts.Card, error) {
	return legal[a.rng.IntN(len(legal))], nil
}

// stubbornAgent always asks for the same card, legal or not
type stubbornAgent struct {
	card hearts.Card
}

func (stubbornAgent) Name() string { return "stubborn" }

func (a stubbornAgent) ChooseCard(context.Context, []hearts.Card, View) (hearts.Card, error) {
	return a.card, nil
}

// failingAgent returns an error on every decision
type failingAgent struct {
	err error
}

func (failingAgent) Name() string { return "failing" }

func (a failingAgent) ChooseCard(context.Context, []hearts.Card, View) (hearts.Card, error) {
	return hearts.Card{}, a.err
}

// recordingAgent captures every view it is offered
type recordingAgent struct {
	views []View
	legal [][]hearts.Card
}

func (*recordingAgent) Name() string { return "recording" }

func (a *recordingAgent) ChooseCard(_ context.Context, legal []hearts.Card, view View) (hearts.Card, error) {
	a.views = append(a.views, view)
	a.legal = append(a.legal, legal)
	return legal[0], nil
}

func seatsOf(agents ...Agent) []Seat {
	names := []string{"north", "east", "south", "west"}
	seats := make([]Seat, len(agents))
	for i, a := range agents {
		seats[i] = Seat{Name: names[i%len(names)], Agent: a}
	}
	return seats
}

func randomSeats(seed int64) []Seat {
	agents := make([]Agent, NumPlayers)
	for i := range agents {
		agents[i] = randomAgent{rng: randutil.Derive(seed, uint64(i))}
	}
	return seatsOf(agents...)
}
