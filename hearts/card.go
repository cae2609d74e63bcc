package hearts

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Suit represents a card suit. The numeric order (clubs, diamonds, hearts,
// spades) is only used for deterministic sorting.
type Suit uint8

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

// NumSuits is the number of suits in a standard deck
const NumSuits = 4

// Suits lists every suit in sort order
var Suits = [NumSuits]Suit{Clubs, Diamonds, Hearts, Spades}

// String returns the single upper-case letter used on the wire ("C", "D", "H", "S")
func (s Suit) String() string {
	switch s {
	case Clubs:
		return "C"
	case Diamonds:
		return "D"
	case Hearts:
		return "H"
	case Spades:
		return "S"
	default:
		return "?"
	}
}

// Name returns the full suit name
func (s Suit) Name() string {
	switch s {
	case Clubs:
		return "Clubs"
	case Diamonds:
		return "Diamonds"
	case Hearts:
		return "Hearts"
	case Spades:
		return "Spades"
	default:
		return "Unknown"
	}
}

// Valid reports whether s is one of the four suits
func (s Suit) Valid() bool {
	return s <= Spades
}

// ParseSuit parses a suit letter or name, case-insensitively
func ParseSuit(s string) (Suit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "c", "clubs", "club":
		return Clubs, nil
	case "d", "diamonds", "diamond":
		return Diamonds, nil
	case "h", "hearts", "heart":
		return Hearts, nil
	case "s", "spades", "spade":
		return Spades, nil
	default:
		return 0, fmt.Errorf("invalid suit: %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (s Suit) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid suit: %d", s)
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Suit) UnmarshalText(text []byte) error {
	suit, err := ParseSuit(string(text))
	if err != nil {
		return err
	}
	*s = suit
	return nil
}

// Rank represents a card rank from Two (2) through Ace (14)
type Rank uint8

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// NumRanks is the number of ranks per suit
const NumRanks = 13

// String returns the rank character (2-9, T, J, Q, K, A)
func (r Rank) String() string {
	if !r.Valid() {
		return "?"
	}
	return string("23456789TJQKA"[r-Two])
}

// Valid reports whether r is within 2..14
func (r Rank) Valid() bool {
	return r >= Two && r <= Ace
}

func parseRank(c byte) (Rank, error) {
	switch c {
	case 'A', 'a':
		return Ace, nil
	case 'K', 'k':
		return King, nil
	case 'Q', 'q':
		return Queen, nil
	case 'J', 'j':
		return Jack, nil
	case 'T', 't':
		return Ten, nil
	}
	if c >= '2' && c <= '9' {
		return Rank(c - '0'), nil
	}
	return 0, fmt.Errorf("invalid rank: %c", c)
}

// Card is an immutable playing card value
type Card struct {
	Suit Suit
	Rank Rank
}

var (
	TwoOfClubs    = Card{Suit: Clubs, Rank: Two}
	QueenOfSpades = Card{Suit: Spades, Rank: Queen}
)

// NewCard creates a new card
func NewCard(suit Suit, rank Rank) Card {
	return Card{Suit: suit, Rank: rank}
}

// Valid reports whether the card is one of the 52 standard cards
func (c Card) Valid() bool {
	return c.Suit.Valid() && c.Rank.Valid()
}

// String returns the short form, e.g. "Qs", "2c", "Th"
func (c Card) String() string {
	if !c.Valid() {
		return "??"
	}
	return c.Rank.String() + strings.ToLower(c.Suit.String())
}

// IsHeart reports whether the card is a heart
func (c Card) IsHeart() bool {
	return c.Suit == Hearts
}

// IsQueenOfSpades reports whether the card is the queen of spades
func (c Card) IsQueenOfSpades() bool {
	return c == QueenOfSpades
}

// IsTwoOfClubs reports whether the card is the two of clubs
func (c Card) IsTwoOfClubs() bool {
	return c == TwoOfClubs
}

// IsPenalty reports whether taking this card costs points. It agrees with
// Score: a card is a penalty card exactly when its score is non-zero.
func (c Card) IsPenalty() bool {
	return c.IsHeart() || c.IsQueenOfSpades()
}

// Score returns the points carried by the card
func (c Card) Score() int {
	switch {
	case c.IsHeart():
		return 1
	case c.IsQueenOfSpades():
		return 13
	default:
		return 0
	}
}

// Index returns the position of the card in the canonical 52-card order
// (suit-major, rank-minor), in the range 0..51.
func (c Card) Index() int {
	return int(c.Suit)*NumRanks + int(c.Rank-Two)
}

// CardFromIndex is the inverse of Card.Index
func CardFromIndex(i int) (Card, error) {
	if i < 0 || i >= DeckSize {
		return Card{}, fmt.Errorf("card index out of range: %d", i)
	}
	return Card{Suit: Suit(i / NumRanks), Rank: Rank(i%NumRanks) + Two}, nil
}

// Compare orders cards by suit then rank. It exists for stable sorting and
// plays no part in trick resolution.
func Compare(a, b Card) int {
	if a.Suit != b.Suit {
		if a.Suit < b.Suit {
			return -1
		}
		return 1
	}
	switch {
	case a.Rank < b.Rank:
		return -1
	case a.Rank > b.Rank:
		return 1
	default:
		return 0
	}
}

// AllCards returns the 52 cards in canonical order
func AllCards() []Card {
	cards := make([]Card, 0, DeckSize)
	for _, suit := range Suits {
		for rank := Two; rank <= Ace; rank++ {
			cards = append(cards, NewCard(suit, rank))
		}
	}
	return cards
}

// ParseCard parses a two-character card such as "Qs" or "2C"
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if len(s) != 2 {
		return Card{}, fmt.Errorf("invalid card string: %q", s)
	}
	rank, err := parseRank(s[0])
	if err != nil {
		return Card{}, err
	}
	suit, err := ParseSuit(s[1:])
	if err != nil {
		return Card{}, err
	}
	return NewCard(suit, rank), nil
}

// ParseCards parses a run of cards, e.g. "2c Qs Th" or "2cQsTh"
func ParseCards(s string) ([]Card, error) {
	s = strings.Join(strings.Fields(s), "")
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("invalid card string length: %d (must be even)", len(s))
	}
	cards := make([]Card, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		card, err := ParseCard(s[i : i+2])
		if err != nil {
			return nil, fmt.Errorf("card at position %d: %w", i, err)
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// MustParseCards parses cards and panics on error (for tests)
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(fmt.Sprintf("failed to parse cards '%s': %v", s, err))
	}
	return cards
}

// MarshalText implements encoding.TextMarshaler using the short form
func (c Card) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid card: %d/%d", c.Suit, c.Rank)
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Card) UnmarshalText(text []byte) error {
	card, err := ParseCard(string(text))
	if err != nil {
		return err
	}
	*c = card
	return nil
}

type wireCard struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// MarshalJSON encodes the card as {"suit":"S","rank":12}, the shape shared
// with the prediction service and the training data files.
func (c Card) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid card: %d/%d", c.Suit, c.Rank)
	}
	return json.Marshal(wireCard{Suit: c.Suit, Rank: c.Rank})
}

// UnmarshalJSON accepts either the object form or the short string form
func (c *Card) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return c.UnmarshalText([]byte(s))
	}
	var w wireCard
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	card := NewCard(w.Suit, w.Rank)
	if !card.Valid() {
		return fmt.Errorf("invalid card: suit %s rank %d", w.Suit, w.Rank)
	}
	*c = card
	return nil
}
