package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
)

// Globals are the flags shared by every command
type Globals struct {
	LogLevel string `help:"Log level" enum:"debug,info,warn,error" default:"info"`
	Verbose  bool   `short:"v" help:"Enable debug logging"`
	LogJSON  bool   `name:"log-json" help:"Write logs as JSON"`
}

// Logger builds the stderr logger described by the flags
func (g *Globals) Logger() *log.Logger {
	return g.newLogger(os.Stderr)
}

func (g *Globals) newLogger(w io.Writer) *log.Logger {
	level, err := log.ParseLevel(g.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	if g.Verbose {
		level = log.DebugLevel
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
	if g.LogJSON {
		logger.SetFormatter(log.JSONFormatter)
	}
	return logger
}

// setupSignalHandler creates a context that is cancelled on interrupt signals
func setupSignalHandler(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Received signal, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
