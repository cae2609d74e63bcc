package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/lox/heartsforbots/hearts"
	"github.com/lox/heartsforbots/internal/game"
)

const (
	// DefaultIdleTimeout closes WebSocket connections that stop sending
	DefaultIdleTimeout = 60 * time.Second

	shutdownTimeout = 5 * time.Second
)

// Server answers prediction requests with a local agent over HTTP and
// WebSocket. Agents are not safe for concurrent use, so requests take turns.
type Server struct {
	mu          sync.Mutex
	agent       game.Agent
	validator   *Validator
	upgrader    websocket.Upgrader
	logger      *log.Logger
	clock       quartz.Clock
	idleTimeout time.Duration
}

// ServerOption configures a Server
type ServerOption func(*Server)

// WithServerLogger sets the server logger
func WithServerLogger(logger *log.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// WithClock sets the clock used for idle timeouts
func WithClock(clock quartz.Clock) ServerOption {
	return func(s *Server) { s.clock = clock }
}

// WithIdleTimeout sets how long a WebSocket connection may sit without a
// request. Zero disables the timeout.
func WithIdleTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.idleTimeout = d }
}

// NewServer creates a server that asks agent for every move
func NewServer(agent game.Agent, opts ...ServerOption) *Server {
	s := &Server{
		agent:     agent,
		validator: MustNewValidator(),
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  4096,
			WriteBufferSize: 1024,
		},
		logger:      log.NewWithOptions(io.Discard, log.Options{}),
		clock:       quartz.NewReal(),
		idleTimeout: DefaultIdleTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithPrefix("predictor")
	return s
}

// Handler returns the HTTP handler serving /predict, /ws and /health
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /predict", s.handlePredict)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting prediction server", "addr", addr, "agent", s.agent.Name())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down prediction server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Answer decodes a raw request, asks the agent and returns the raw response
func (s *Server) Answer(ctx context.Context, body []byte) ([]byte, error) {
	req, err := s.validator.DecodeRequest(body)
	if err != nil {
		return nil, err
	}
	view, err := req.State.View()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if len(req.ValidMoves) == 0 {
		return nil, fmt.Errorf("%w: no valid moves", ErrInvalidRequest)
	}
	for _, c := range req.ValidMoves {
		if !view.Hand.Contains(c) {
			return nil, fmt.Errorf("%w: valid move %s not in hand", ErrInvalidRequest, c)
		}
	}

	card, err := s.choose(ctx, req.ValidMoves, view)
	if err != nil {
		return nil, err
	}
	if !game.IsLegal(card, req.ValidMoves) {
		s.logger.Warn("Agent chose a card outside the valid moves", "card", card, "substitute", req.ValidMoves[0])
		card = req.ValidMoves[0]
	}
	return json.Marshal(NewResponse(card))
}

func (s *Server) choose(ctx context.Context, legal []hearts.Card, view game.View) (hearts.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agent.ChooseCard(ctx, legal, view)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	reply, err := s.Answer(r.Context(), body)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrInvalidRequest) {
			status = http.StatusBadRequest
		}
		s.logger.Debug("Prediction failed", "error", err, "status", status)
		writeError(w, status, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(reply)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	s.logger.Debug("Client connected", "remote", r.RemoteAddr)

	if s.idleTimeout > 0 {
		timer := s.clock.AfterFunc(s.idleTimeout, func() {
			s.logger.Debug("Closing idle connection", "remote", r.RemoteAddr)
			_ = conn.Close()
		})
		defer timer.Stop()
		s.serveConn(r.Context(), conn, func() { timer.Reset(s.idleTimeout) })
		return
	}
	s.serveConn(r.Context(), conn, func() {})
}

func (s *Server) serveConn(ctx context.Context, conn *websocket.Conn, touch func()) {
	for {
		msgType, body, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("Connection closed", "error", err)
			}
			return
		}
		touch()
		if msgType != websocket.TextMessage {
			continue
		}

		reply, err := s.Answer(ctx, body)
		if err != nil {
			reply, _ = json.Marshal(errorResponse{Error: err.Error()})
		}
		if err := conn.WriteMessage(websocket.TextMessage, reply); err != nil {
			s.logger.Debug("Write failed", "error", err)
			return
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}
