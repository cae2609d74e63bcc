package policy

import (
	"context"
	"testing"

	"github.com/lox/heartsforbots/hearts"
	"github.com/lox/heartsforbots/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// completed builds a finished trick led by seat 0 from cards in seat order
func completed(t *testing.T, played string) game.CompletedTrick {
	t.Helper()
	tr := game.NewTrick(0)
	for _, c := range cards(played) {
		require.NoError(t, tr.Play(tr.Next(), c))
	}
	ct, err := tr.Complete()
	require.NoError(t, err)
	return ct
}

// current builds an in-progress trick from cards in play order
func current(t *testing.T, leader int, played string) game.Trick {
	t.Helper()
	tr := game.NewTrick(leader)
	for _, c := range cards(played) {
		require.NoError(t, tr.Play(tr.Next(), c))
	}
	return tr
}

func TestTacticalChooseCard(t *testing.T) {
	t.Parallel()

	clubTrick := "2c 5c 7c Ac"

	tests := []struct {
		name     string
		hand     string
		previous []string
		leader   int
		played   string
		broken   bool
		want     string
	}{
		{
			name:   "opens with the two of clubs",
			hand:   "2c 9c Kd 5h Qs",
			leader: 0,
			want:   "2c",
		},
		{
			name:     "leads highest of the least exposed suit",
			hand:     "3c 9c 4d Kd 5h Qs",
			previous: []string{clubTrick},
			want:     "Kd",
		},
		{
			name:     "leads lowest of a run-down suit",
			hand:     "3c 9c Jc 2h 4h",
			previous: []string{clubTrick, "4c 6c 8c Tc"},
			want:     "3c",
		},
		{
			name:     "spades allowed once the queen has fallen",
			hand:     "3c 9c 4c Jc 2s",
			previous: []string{clubTrick, "4s Qs 8s 5d"},
			want:     "2s",
		},
		{
			name:     "falls back to hearts when nothing else can be led",
			hand:     "5h 9h",
			previous: []string{clubTrick},
			broken:   true,
			want:     "9h",
		},
		{
			name:     "takes a clean trick in a safe suit",
			hand:     "2d 9d Kd 5c",
			previous: []string{clubTrick},
			leader:   3,
			played:   "4d",
			want:     "Kd",
		},
		{
			name:     "ducks under the winner when the trick carries points",
			hand:     "2d 9d Kd 5c",
			previous: []string{clubTrick},
			leader:   2,
			played:   "Td 5h",
			broken:   true,
			want:     "9d",
		},
		{
			name:     "plays highest when unable to duck",
			hand:     "9d Kd 5c",
			previous: []string{clubTrick},
			leader:   2,
			played:   "3d 5h",
			broken:   true,
			want:     "Kd",
		},
		{
			name:     "ducks in spades while the queen is out there",
			hand:     "3s 8s Ks 5c",
			previous: []string{clubTrick},
			leader:   3,
			played:   "9s",
			want:     "8s",
		},
		{
			name:     "dumps the queen of spades when void",
			hand:     "Qs Ah 5h 3c",
			previous: []string{"2d 5d 7d Ad"},
			leader:   3,
			played:   "4d",
			want:     "Qs",
		},
		{
			name:     "dumps the highest heart when void without the queen",
			hand:     "Ah 5h 3c",
			previous: []string{"2d 5d 7d Ad"},
			leader:   3,
			played:   "4d",
			want:     "Ah",
		},
		{
			name:     "plays the first legal card when void with nothing to dump",
			hand:     "3c 8s",
			previous: []string{"2d 5d 7d Ad"},
			leader:   3,
			played:   "4d",
			want:     "3c",
		},
		{
			name:   "cannot dump points on the first trick",
			hand:   "Qs Ah 5d",
			leader: 3,
			played: "2c",
			want:   "5d",
		},
	}

	p := NewTactical(quietLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := game.View{
				Seat:         0,
				Hand:         hearts.NewHand(cards(tt.hand)...),
				CurrentTrick: current(t, tt.leader, tt.played),
				HeartsBroken: tt.broken,
			}
			for _, prev := range tt.previous {
				view.PreviousTricks = append(view.PreviousTricks, completed(t, prev))
			}
			lead, following := view.CurrentTrick.LeadSuit()
			legal := game.LegalMoves(view.Hand, game.TableState{
				FirstTrick:   len(view.PreviousTricks) == 0,
				Leading:      !following,
				LeadSuit:     lead,
				HeartsBroken: tt.broken,
			})

			got, err := p.ChooseCard(context.Background(), legal, view)
			require.NoError(t, err)
			assert.Equal(t, cards(tt.want)[0], got)
			assert.True(t, game.IsLegal(got, legal))
		})
	}
}

func TestTacticalOnlyReturnsLegalCards(t *testing.T) {
	t.Parallel()

	p := NewTactical(quietLogger())
	legal := cards("4d")
	view := game.View{
		Hand:           hearts.NewHand(cards("4d Qs")...),
		PreviousTricks: []game.CompletedTrick{completed(t, "2c 5c 7c Ac")},
		CurrentTrick:   game.NewTrick(0),
	}
	got, err := p.ChooseCard(context.Background(), legal, view)
	require.NoError(t, err)
	assert.Equal(t, cards("4d")[0], got)
}
