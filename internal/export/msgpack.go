package export

import (
	"fmt"

	"github.com/lox/heartsforbots/hearts"
	"github.com/lox/heartsforbots/internal/game"
	"github.com/lox/heartsforbots/internal/training"
	"github.com/tinylib/msgp/msgp"
)

// MessagePack documents mirror the JSON shapes: maps keyed by the same
// snake_case names, cards as {"suit","rank"} and unplayed trick slots as nil.

// encoder writes msgpack values and keeps the first error
type encoder struct {
	w   *msgp.Writer
	err error
}

func (e *encoder) mapHeader(n int) {
	if e.err == nil {
		e.err = e.w.WriteMapHeader(uint32(n))
	}
}

func (e *encoder) arrayHeader(n int) {
	if e.err == nil {
		e.err = e.w.WriteArrayHeader(uint32(n))
	}
}

func (e *encoder) str(s string) {
	if e.err == nil {
		e.err = e.w.WriteString(s)
	}
}

func (e *encoder) integer(i int) {
	if e.err == nil {
		e.err = e.w.WriteInt(i)
	}
}

func (e *encoder) integer64(i int64) {
	if e.err == nil {
		e.err = e.w.WriteInt64(i)
	}
}

func (e *encoder) boolean(b bool) {
	if e.err == nil {
		e.err = e.w.WriteBool(b)
	}
}

func (e *encoder) null() {
	if e.err == nil {
		e.err = e.w.WriteNil()
	}
}

func (e *encoder) card(c hearts.Card) {
	e.mapHeader(2)
	e.str("suit")
	e.str(c.Suit.String())
	e.str("rank")
	e.integer(int(c.Rank))
}

func (e *encoder) cards(cs []hearts.Card) {
	e.arrayHeader(len(cs))
	for _, c := range cs {
		e.card(c)
	}
}

func (e *encoder) completedTrick(ct game.CompletedTrick) {
	e.mapHeader(4)
	e.str("cards")
	e.cards(ct.Cards[:])
	e.str("first_player_index")
	e.integer(ct.Leader)
	e.str("winner_index")
	e.integer(ct.Winner)
	e.str("score")
	e.integer(ct.Points)
}

func (e *encoder) trick(t game.Trick) {
	e.mapHeader(2)
	e.str("cards")
	e.arrayHeader(game.NumPlayers)
	for seat := range game.NumPlayers {
		if c, ok := t.Card(seat); ok {
			e.card(c)
		} else {
			e.null()
		}
	}
	e.str("first_player_index")
	e.integer(t.Leader())
}

func (e *encoder) record(r *game.GameRecord) {
	e.mapHeader(8)
	e.str("id")
	e.str(r.ID)
	e.str("seed")
	e.integer64(r.Seed)
	e.str("players")
	e.arrayHeader(len(r.Players))
	for _, p := range r.Players {
		e.mapHeader(4)
		e.str("name")
		e.str(p.Name)
		e.str("policy")
		e.str(p.Policy)
		e.str("initial_hand")
		e.cards(p.InitialHand)
		e.str("score")
		e.integer(p.Score)
	}
	e.str("tricks")
	e.arrayHeader(len(r.Tricks))
	for _, ct := range r.Tricks {
		e.completedTrick(ct)
	}
	e.str("hearts_broken")
	e.boolean(r.HeartsBroken)
	e.str("winner")
	e.integer(r.Winner)
	e.str("winners")
	e.arrayHeader(len(r.Winners))
	for _, w := range r.Winners {
		e.integer(w)
	}
	e.str("substitutions")
	e.integer(r.Substitutions)
}

func (e *encoder) example(ex training.Example) {
	n := 4
	if ex.PlayedCard != nil {
		n++
	}
	e.mapHeader(n)
	e.str("previous_tricks")
	e.arrayHeader(len(ex.PreviousTricks))
	for _, ct := range ex.PreviousTricks {
		e.completedTrick(ct)
	}
	e.str("current_trick")
	e.trick(ex.CurrentTrick)
	e.str("current_player_index")
	e.integer(ex.CurrentPlayerIndex)
	e.str("player_hand")
	e.cards(ex.PlayerHand)
	if ex.PlayedCard != nil {
		e.str("played_card")
		e.card(*ex.PlayedCard)
	}
}

func writeRecords(w *msgp.Writer, records []*game.GameRecord) error {
	e := &encoder{w: w}
	e.arrayHeader(len(records))
	for _, r := range records {
		e.record(r)
	}
	return e.err
}

func writeExamples(w *msgp.Writer, examples []training.Example) error {
	e := &encoder{w: w}
	e.arrayHeader(len(examples))
	for _, ex := range examples {
		e.example(ex)
	}
	return e.err
}

// maxPrealloc bounds slice capacity taken from untrusted array headers
const maxPrealloc = 1024

func prealloc(n uint32) int {
	return int(min(n, maxPrealloc))
}

type decoder struct {
	r *msgp.Reader
}

// fields reads a map header and calls fn for every key. Unknown keys are
// skipped by returning d.r.Skip() from fn.
func (d decoder) fields(fn func(key string) error) error {
	n, err := d.r.ReadMapHeader()
	if err != nil {
		return err
	}
	for range n {
		key, err := d.r.ReadString()
		if err != nil {
			return err
		}
		if err := fn(key); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

func (d decoder) card() (hearts.Card, error) {
	var (
		suit hearts.Suit
		rank int
	)
	err := d.fields(func(key string) error {
		switch key {
		case "suit":
			s, err := d.r.ReadString()
			if err != nil {
				return err
			}
			suit, err = hearts.ParseSuit(s)
			return err
		case "rank":
			var err error
			rank, err = d.r.ReadInt()
			return err
		default:
			return d.r.Skip()
		}
	})
	if err != nil {
		return hearts.Card{}, err
	}
	c := hearts.NewCard(suit, hearts.Rank(rank))
	if !c.Valid() {
		return hearts.Card{}, fmt.Errorf("invalid card: suit %s rank %d", suit, rank)
	}
	return c, nil
}

func (d decoder) cards() ([]hearts.Card, error) {
	n, err := d.r.ReadArrayHeader()
	if err != nil {
		return nil, err
	}
	cs := make([]hearts.Card, 0, prealloc(n))
	for range n {
		c, err := d.card()
		if err != nil {
			return nil, err
		}
		cs = append(cs, c)
	}
	return cs, nil
}

func (d decoder) ints() ([]int, error) {
	n, err := d.r.ReadArrayHeader()
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, prealloc(n))
	for range n {
		v, err := d.r.ReadInt()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (d decoder) completedTrick() (game.CompletedTrick, error) {
	var ct game.CompletedTrick
	err := d.fields(func(key string) (err error) {
		switch key {
		case "cards":
			cs, err := d.cards()
			if err != nil {
				return err
			}
			if len(cs) != game.NumPlayers {
				return fmt.Errorf("%d cards in completed trick", len(cs))
			}
			copy(ct.Cards[:], cs)
		case "first_player_index":
			ct.Leader, err = d.r.ReadInt()
		case "winner_index":
			ct.Winner, err = d.r.ReadInt()
		case "score":
			ct.Points, err = d.r.ReadInt()
		default:
			err = d.r.Skip()
		}
		return err
	})
	return ct, err
}

func (d decoder) completedTricks() ([]game.CompletedTrick, error) {
	n, err := d.r.ReadArrayHeader()
	if err != nil {
		return nil, err
	}
	out := make([]game.CompletedTrick, 0, prealloc(n))
	for range n {
		ct, err := d.completedTrick()
		if err != nil {
			return nil, err
		}
		out = append(out, ct)
	}
	return out, nil
}

func (d decoder) trick() (game.Trick, error) {
	var (
		slots  [game.NumPlayers]*hearts.Card
		leader int
	)
	err := d.fields(func(key string) (err error) {
		switch key {
		case "cards":
			n, err := d.r.ReadArrayHeader()
			if err != nil {
				return err
			}
			if n != game.NumPlayers {
				return fmt.Errorf("%d slots in trick", n)
			}
			for seat := range game.NumPlayers {
				if d.r.IsNil() {
					if err := d.r.ReadNil(); err != nil {
						return err
					}
					continue
				}
				c, err := d.card()
				if err != nil {
					return err
				}
				slots[seat] = &c
			}
		case "first_player_index":
			leader, err = d.r.ReadInt()
		default:
			err = d.r.Skip()
		}
		return err
	})
	if err != nil {
		return game.Trick{}, err
	}
	return game.RestoreTrick(leader, slots)
}

func (d decoder) player() (game.PlayerRecord, error) {
	var p game.PlayerRecord
	err := d.fields(func(key string) (err error) {
		switch key {
		case "name":
			p.Name, err = d.r.ReadString()
		case "policy":
			p.Policy, err = d.r.ReadString()
		case "initial_hand":
			var cs []hearts.Card
			cs, err = d.cards()
			p.InitialHand = hearts.Hand(cs)
		case "score":
			p.Score, err = d.r.ReadInt()
		default:
			err = d.r.Skip()
		}
		return err
	})
	return p, err
}

func (d decoder) record() (*game.GameRecord, error) {
	r := &game.GameRecord{}
	err := d.fields(func(key string) (err error) {
		switch key {
		case "id":
			r.ID, err = d.r.ReadString()
		case "seed":
			r.Seed, err = d.r.ReadInt64()
		case "players":
			var n uint32
			if n, err = d.r.ReadArrayHeader(); err != nil {
				return err
			}
			r.Players = make([]game.PlayerRecord, 0, prealloc(n))
			for range n {
				p, err := d.player()
				if err != nil {
					return err
				}
				r.Players = append(r.Players, p)
			}
		case "tricks":
			r.Tricks, err = d.completedTricks()
		case "hearts_broken":
			r.HeartsBroken, err = d.r.ReadBool()
		case "winner":
			r.Winner, err = d.r.ReadInt()
		case "winners":
			r.Winners, err = d.ints()
		case "substitutions":
			r.Substitutions, err = d.r.ReadInt()
		default:
			err = d.r.Skip()
		}
		return err
	})
	return r, err
}

func (d decoder) example() (training.Example, error) {
	var ex training.Example
	err := d.fields(func(key string) (err error) {
		switch key {
		case "previous_tricks":
			ex.PreviousTricks, err = d.completedTricks()
		case "current_trick":
			ex.CurrentTrick, err = d.trick()
		case "current_player_index":
			ex.CurrentPlayerIndex, err = d.r.ReadInt()
		case "player_hand":
			ex.PlayerHand, err = d.cards()
		case "played_card":
			var c hearts.Card
			if c, err = d.card(); err == nil {
				ex.PlayedCard = &c
			}
		default:
			err = d.r.Skip()
		}
		return err
	})
	return ex, err
}

func readRecords(r *msgp.Reader) ([]*game.GameRecord, error) {
	d := decoder{r: r}
	n, err := r.ReadArrayHeader()
	if err != nil {
		return nil, fmt.Errorf("decode msgpack: %w", err)
	}
	records := make([]*game.GameRecord, 0, prealloc(n))
	for i := range n {
		rec, err := d.record()
		if err != nil {
			return nil, fmt.Errorf("decode msgpack: record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func readExamples(r *msgp.Reader) ([]training.Example, error) {
	d := decoder{r: r}
	n, err := r.ReadArrayHeader()
	if err != nil {
		return nil, fmt.Errorf("decode msgpack: %w", err)
	}
	examples := make([]training.Example, 0, prealloc(n))
	for i := range n {
		ex, err := d.example()
		if err != nil {
			return nil, fmt.Errorf("decode msgpack: example %d: %w", i, err)
		}
		examples = append(examples, ex)
	}
	return examples, nil
}
