// Package game implements the rules engine for one deal of four-player Hearts.
//
// The main type is Game, a state machine that deals four hands, asks each
// seat's Agent for a card in turn, resolves tricks and produces a GameRecord
// once all thirteen tricks are played.
//
// # Basic Usage
//
//	g, err := game.New([]game.Seat{
//	    {Name: "north", Agent: north},
//	    {Name: "east", Agent: east},
//	    {Name: "south", Agent: south},
//	    {Name: "west", Agent: west},
//	}, game.WithSeed(42))
//	if err != nil {
//	    return err
//	}
//	rec, err := g.Play(ctx)
//
// # Deterministic Testing
//
// WithSeed shuffles from a reproducible source, WithDeck deals a specific
// deck, and Apply plays explicit cards without consulting any agent:
//
//	deck := hearts.NewDeck(randutil.New(42))
//	g, _ := game.New(seats, game.WithDeck(deck))
//	legal, _ := g.LegalMoves()
//	_ = g.Apply(g.Current(), legal[0])
//
// # Errors
//
// Errors wrapping ErrRuleViolation mean the engine was driven against the
// rules (out of turn, duplicate play, broken invariant). Errors wrapping
// ErrPolicy come from an agent and are fatal to that game only. ErrConfig
// covers bad construction arguments.
package game
