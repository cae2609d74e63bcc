package predictor

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/lox/heartsforbots/internal/game"
	"github.com/lox/heartsforbots/internal/policy"
	"github.com/lox/heartsforbots/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestServerAnswersConcurrentRequests(t *testing.T) {
	t.Parallel()

	s := NewServer(policy.NewRandom(randutil.New(1)), WithServerLogger(quietLogger()))

	g := midGame(t, 6, 9)
	view, legal := currentView(t, g)
	body, err := json.Marshal(NewRequest(view, legal))
	require.NoError(t, err)

	ctx := context.Background()
	var eg errgroup.Group
	for range 8 {
		eg.Go(func() error {
			for range 50 {
				reply, err := s.Answer(ctx, body)
				if err != nil {
					return err
				}
				var resp Response
				if err := json.Unmarshal(reply, &resp); err != nil {
					return err
				}
				card, err := resp.Card()
				if err != nil {
					return err
				}
				if !game.IsLegal(card, legal) {
					return assert.AnError
				}
			}
			return nil
		})
	}
	require.NoError(t, eg.Wait())
}

func TestServerAnswersConcurrentHTTPClients(t *testing.T) {
	t.Parallel()

	ts := startServer(t, policy.NewRandom(randutil.New(2)))

	g := midGame(t, 7, 0)
	view, legal := currentView(t, g)

	ctx := context.Background()
	var eg errgroup.Group
	for range 4 {
		client := newClient(t, ts.URL+"/predict")
		eg.Go(func() error {
			for range 20 {
				if _, err := client.Predict(ctx, view, legal); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, eg.Wait())
}
