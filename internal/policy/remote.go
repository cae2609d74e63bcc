package policy

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/lox/heartsforbots/hearts"
	"github.com/lox/heartsforbots/internal/game"
)

// RemotePolicy delegates each decision to a prediction service. Transport
// failures, malformed responses and predictions outside the legal set are all
// returned as errors; there is no fallback card.
type RemotePolicy struct {
	predictor Predictor
	logger    *log.Logger
}

// NewRemote creates a policy backed by predictor
func NewRemote(predictor Predictor, logger *log.Logger) *RemotePolicy {
	return &RemotePolicy{predictor: predictor, logger: logger.WithPrefix("remote")}
}

func (p *RemotePolicy) Kind() Kind   { return Remote }
func (p *RemotePolicy) Name() string { return Remote.String() }

func (p *RemotePolicy) ChooseCard(ctx context.Context, legal []hearts.Card, view game.View) (hearts.Card, error) {
	if len(legal) == 0 {
		return hearts.Card{}, ErrNoLegalMoves
	}

	card, err := p.predictor.Predict(ctx, view, legal)
	if err != nil {
		return hearts.Card{}, fmt.Errorf("prediction failed: %w", err)
	}
	if !game.IsLegal(card, legal) {
		return hearts.Card{}, fmt.Errorf("%w: %s not in %v", ErrIllegalPrediction, card, hearts.Hand(legal))
	}

	p.logger.Debug("Prediction", "seat", view.Seat, "card", card, "legal", len(legal))
	return card, nil
}
