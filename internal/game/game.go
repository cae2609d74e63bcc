package game

import (
	"context"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/lox/heartsforbots/hearts"
)

// Agent chooses which card to play. Implementations must return one of the
// legal cards; the view is always populated.
type Agent interface {
	Name() string
	ChooseCard(ctx context.Context, legal []hearts.Card, view View) (hearts.Card, error)
}

// Seat pairs a player name with the agent deciding for it
type Seat struct {
	Name  string
	Agent Agent
}

// Phase is the lifecycle state of a game
type Phase int

const (
	Dealt Phase = iota
	Playing
	Finished
)

func (p Phase) String() string {
	switch p {
	case Dealt:
		return "dealt"
	case Playing:
		return "playing"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// View is the read-only snapshot of the table offered to an agent. All
// slices are copies and may be kept or modified by the receiver.
type View struct {
	Seat           int
	Hand           hearts.Hand
	PreviousTricks []CompletedTrick
	CurrentTrick   Trick
	HeartsBroken   bool
	Scores         [NumPlayers]int
}

// FirstPlay reports whether no card has been played yet this game
func (v View) FirstPlay() bool {
	return len(v.PreviousTricks) == 0 && v.CurrentTrick.IsEmpty()
}

// Seen returns every card visible to the acting seat: its hand, the previous
// tricks and the current trick.
func (v View) Seen() hearts.CardSet {
	seen := v.Hand.Set()
	for _, ct := range v.PreviousTricks {
		for _, c := range ct.Cards {
			seen.Add(c)
		}
	}
	for _, c := range v.CurrentTrick.Played() {
		seen.Add(c)
	}
	return seen
}

type player struct {
	name    string
	agent   Agent
	initial hearts.Hand
	hand    hearts.Hand
	score   int
}

// Game is the state machine for one deal: thirteen tricks played in seat
// rotation, starting with the holder of the two of clubs.
type Game struct {
	id      string
	seed    int64
	players [NumPlayers]*player
	logger  *log.Logger

	phase         Phase
	trick         Trick
	history       []CompletedTrick
	heartsBroken  bool
	substitutions int
	record        *GameRecord
}

// New deals a game for exactly four seats
func New(seats []Seat, opts ...Option) (*Game, error) {
	if len(seats) != NumPlayers {
		return nil, fmt.Errorf("%w: need %d seats, got %d", ErrConfig, NumPlayers, len(seats))
	}
	for i, s := range seats {
		if s.Agent == nil {
			return nil, fmt.Errorf("%w: seat %d (%s) has no agent", ErrConfig, i, s.Name)
		}
	}

	cfg := &gameConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	deck, logger, id := cfg.resolve()

	hands, err := deck.Deal(NumPlayers)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	g := &Game{
		id:      id,
		seed:    cfg.seed,
		logger:  logger.With("game", id),
		history: make([]CompletedTrick, 0, NumTricks),
	}
	leader := -1
	for i, s := range seats {
		g.players[i] = &player{
			name:    s.Name,
			agent:   s.Agent,
			initial: hands[i].Clone(),
			hand:    hands[i],
		}
		if hands[i].Contains(hearts.TwoOfClubs) {
			leader = i
		}
	}
	if leader < 0 {
		return nil, fmt.Errorf("%w: two of clubs was not dealt", ErrInvariant)
	}
	g.trick = NewTrick(leader)

	if err := g.checkPartition(); err != nil {
		return nil, err
	}

	g.logger.Debug("Dealt", "leader", leader, "player", seats[leader].Name)
	return g, nil
}

// ID returns the game ID
func (g *Game) ID() string { return g.id }

// Phase returns the current lifecycle state
func (g *Game) Phase() Phase { return g.phase }

// Current returns the seat due to play
func (g *Game) Current() int { return g.trick.Next() }

// HeartsBroken reports whether a heart has been played
func (g *Game) HeartsBroken() bool { return g.heartsBroken }

// Scores returns the points taken by each seat so far
func (g *Game) Scores() [NumPlayers]int {
	var scores [NumPlayers]int
	for i, p := range g.players {
		scores[i] = p.score
	}
	return scores
}

// Table returns the rule-relevant table state for the seat due to play
func (g *Game) Table() TableState {
	lead, _ := g.trick.LeadSuit()
	return TableState{
		FirstTrick:   len(g.history) == 0,
		Leading:      g.trick.IsEmpty(),
		LeadSuit:     lead,
		HeartsBroken: g.heartsBroken,
	}
}

// LegalMoves returns the legal cards for the seat due to play
func (g *Game) LegalMoves() ([]hearts.Card, error) {
	if g.phase == Finished {
		return nil, ErrGameFinished
	}
	seat := g.Current()
	legal := LegalMoves(g.players[seat].hand, g.Table())
	if len(legal) == 0 {
		return nil, fmt.Errorf("%w: seat %d", ErrEmptyHand, seat)
	}
	return legal, nil
}

// View returns a snapshot of the table as seen by seat
func (g *Game) View(seat int) (View, error) {
	if seat < 0 || seat >= NumPlayers {
		return View{}, fmt.Errorf("%w: %d", ErrInvalidSeat, seat)
	}
	return View{
		Seat:           seat,
		Hand:           g.players[seat].hand.Clone(),
		PreviousTricks: slices.Clone(g.history),
		CurrentTrick:   g.trick,
		HeartsBroken:   g.heartsBroken,
		Scores:         g.Scores(),
	}, nil
}

// Apply plays card for seat. The seat must be due to play and the card must
// be legal; anything else is a rule violation.
func (g *Game) Apply(seat int, card hearts.Card) error {
	if g.phase == Finished {
		return ErrGameFinished
	}
	if seat < 0 || seat >= NumPlayers {
		return fmt.Errorf("%w: %d", ErrInvalidSeat, seat)
	}
	if seat != g.Current() {
		return fmt.Errorf("%w: seat %d, expected %d", ErrOutOfTurn, seat, g.Current())
	}
	legal, err := g.LegalMoves()
	if err != nil {
		return err
	}
	if !IsLegal(card, legal) {
		return fmt.Errorf("%w: seat %d played %s, legal %v", ErrIllegalCard, seat, card, hearts.Hand(legal))
	}

	p := g.players[seat]
	if err := g.trick.Play(seat, card); err != nil {
		return err
	}
	if !p.hand.Remove(card) {
		return fmt.Errorf("%w: %s missing from seat %d", ErrInvariant, card, seat)
	}
	g.phase = Playing
	if card.IsHeart() && !g.heartsBroken {
		g.heartsBroken = true
		g.logger.Debug("Hearts broken", "seat", seat, "card", card)
	}

	if g.trick.IsComplete() {
		return g.completeTrick()
	}
	return nil
}

// Step asks the agent due to play for a card and applies it. An agent error
// is wrapped in ErrPolicy. A card outside the legal set is replaced by the
// first legal move, logged, and counted in the record.
func (g *Game) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("game %s: %w", g.id, context.Cause(ctx))
	}
	if g.phase == Finished {
		return ErrGameFinished
	}

	seat := g.Current()
	p := g.players[seat]
	legal, err := g.LegalMoves()
	if err != nil {
		return err
	}
	view, err := g.View(seat)
	if err != nil {
		return err
	}

	card, err := p.agent.ChooseCard(ctx, slices.Clone(legal), view)
	if err != nil {
		return fmt.Errorf("%w: seat %d (%s, %s): %w", ErrPolicy, seat, p.name, p.agent.Name(), err)
	}
	if !IsLegal(card, legal) {
		g.logger.Warn("Illegal card chosen, substituting first legal move",
			"seat", seat, "player", p.name, "policy", p.agent.Name(),
			"card", card, "substitute", legal[0])
		g.substitutions++
		card = legal[0]
	}
	return g.Apply(seat, card)
}

// Play runs the game to completion and returns its record
func (g *Game) Play(ctx context.Context) (*GameRecord, error) {
	for g.phase != Finished {
		if err := g.Step(ctx); err != nil {
			return nil, err
		}
	}
	return g.Record()
}

// Record returns the finished game's record
func (g *Game) Record() (*GameRecord, error) {
	if g.phase != Finished {
		return nil, fmt.Errorf("%w: %d of %d tricks played", ErrNotFinished, len(g.history), NumTricks)
	}
	return g.record, nil
}

func (g *Game) completeTrick() error {
	ct, err := g.trick.Complete()
	if err != nil {
		return err
	}
	g.players[ct.Winner].score += ct.Points
	g.history = append(g.history, ct)

	g.logger.Debug("Trick complete",
		"trick", len(g.history), "winner", ct.Winner, "points", ct.Points, "cards", hearts.Hand(ct.Played()))

	if err := g.checkPartition(); err != nil {
		return err
	}

	if len(g.history) < NumTricks {
		g.trick = NewTrick(ct.Winner)
		return nil
	}
	return g.finish()
}

func (g *Game) finish() error {
	rec := &GameRecord{
		ID:            g.id,
		Seed:          g.seed,
		Players:       make([]PlayerRecord, NumPlayers),
		Tricks:        slices.Clone(g.history),
		HeartsBroken:  g.heartsBroken,
		Substitutions: g.substitutions,
	}
	total := 0
	for i, p := range g.players {
		rec.Players[i] = PlayerRecord{
			Name:        p.name,
			Policy:      p.agent.Name(),
			InitialHand: p.initial.Clone(),
			Score:       p.score,
		}
		total += p.score
	}
	if total != TotalPoints {
		return fmt.Errorf("%w: scores total %d, want %d", ErrInvariant, total, TotalPoints)
	}
	rec.Winners = Winners(rec.Scores())
	rec.Winner = rec.Winners[0]

	g.record = rec
	g.phase = Finished
	g.logger.Debug("Game finished", "scores", rec.Scores(), "winners", rec.Winners)
	return nil
}

// checkPartition verifies that hands, finished tricks and the current trick
// together hold each of the 52 cards exactly once.
func (g *Game) checkPartition() error {
	var seen hearts.CardSet
	count := 0
	add := func(c hearts.Card) error {
		if seen.Contains(c) {
			return fmt.Errorf("%w: %s appears twice", ErrInvariant, c)
		}
		seen.Add(c)
		count++
		return nil
	}
	for _, p := range g.players {
		for _, c := range p.hand {
			if err := add(c); err != nil {
				return err
			}
		}
	}
	for _, ct := range g.history {
		for _, c := range ct.Cards {
			if err := add(c); err != nil {
				return err
			}
		}
	}
	if !g.trick.IsComplete() {
		for _, c := range g.trick.Played() {
			if err := add(c); err != nil {
				return err
			}
		}
	}
	if count != hearts.DeckSize || seen != hearts.FullDeck {
		return fmt.Errorf("%w: %d cards accounted for", ErrInvariant, count)
	}
	return nil
}
