package main

import (
	"fmt"
	"time"

	"github.com/lox/heartsforbots/internal/policy"
	"github.com/lox/heartsforbots/internal/predictor"
	"github.com/lox/heartsforbots/internal/randutil"
)

// PredictorCmd groups the prediction service commands
type PredictorCmd struct {
	Serve ServeCmd `cmd:"" help:"Serve predictions from a built-in policy over HTTP and WebSocket"`
}

// ServeCmd runs the reference prediction server
type ServeCmd struct {
	Addr        string        `default:":8000" help:"Listen address"`
	Policy      string        `default:"tactical" help:"Policy answering requests: random, avoid-points, aggressive or tactical"`
	IdleTimeout time.Duration `default:"60s" help:"Close idle WebSocket connections after this long"`
	Seed        *int64        `help:"Seed for the random policy (optional)"`
}

func (c *ServeCmd) Run(g *Globals) error {
	logger := g.Logger()

	kind, err := policy.ParseKind(c.Policy)
	if err != nil {
		return err
	}
	if kind == policy.Remote {
		return fmt.Errorf("the prediction server cannot be backed by the %s policy", kind)
	}

	opts := policy.Options{Logger: logger.WithPrefix("policy")}
	if c.Seed != nil {
		opts.Rand = randutil.New(*c.Seed)
	}
	agent, err := policy.New(kind, opts)
	if err != nil {
		return err
	}

	server := predictor.NewServer(agent,
		predictor.WithServerLogger(logger),
		predictor.WithIdleTimeout(c.IdleTimeout))

	ctx, cancel := setupSignalHandler(logger)
	defer cancel()

	return server.ListenAndServe(ctx, c.Addr)
}
