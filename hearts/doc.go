// Package hearts provides the card primitives for the game of Hearts: cards
// with their penalty scoring, hands, a bitset over the deck, and a 52-card
// deck with explicit random-source injection.
//
// Decks never touch global random state. Pass a seeded source for
// reproducible deals:
//
//	rng := randutil.New(42)
//	d := hearts.NewDeck(rng)
//	hands, _ := d.Deal(4)
//
// Rotate produces related deals from the same shuffle, which is how the
// simulator redistributes one deal among all four seats:
//
//	next, _ := d.Rotate(13)
package hearts
