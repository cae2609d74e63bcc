package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/lox/heartsforbots/hearts"
	"github.com/lox/heartsforbots/internal/game"
)

// maxBodySize bounds response bodies read from the service
const maxBodySize = 1 << 20

var (
	// ErrRemote is returned when the service answers with an error
	ErrRemote = errors.New("prediction service error")
	// ErrUnsupportedScheme is returned for endpoints that are not http(s) or ws(s)
	ErrUnsupportedScheme = errors.New("unsupported endpoint scheme")
)

// errorResponse is the body sent by the server when it cannot answer
type errorResponse struct {
	Error string `json:"error"`
}

// transport moves one encoded request to the service and returns the raw reply
type transport interface {
	roundTrip(ctx context.Context, body []byte) ([]byte, error)
	close() error
}

// Client calls a prediction service over HTTP or WebSocket, picked by the
// endpoint scheme. It is safe for concurrent use.
type Client struct {
	endpoint   string
	transport  transport
	validator  *Validator
	logger     *log.Logger
	httpClient *http.Client
	dialer     *websocket.Dialer
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client for http(s) endpoints
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) { cl.httpClient = c }
}

// WithDialer sets the WebSocket dialer for ws(s) endpoints
func WithDialer(d *websocket.Dialer) ClientOption {
	return func(cl *Client) { cl.dialer = d }
}

// WithLogger sets the client logger
func WithLogger(logger *log.Logger) ClientOption {
	return func(cl *Client) { cl.logger = logger }
}

// NewClient creates a client for endpoint. An empty endpoint means
// DefaultEndpoint.
func NewClient(endpoint string, opts ...ClientOption) (*Client, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}

	validator, err := NewValidator()
	if err != nil {
		return nil, err
	}

	c := &Client{
		endpoint:   u.String(),
		validator:  validator,
		logger:     log.NewWithOptions(io.Discard, log.Options{}),
		httpClient: http.DefaultClient,
		dialer:     websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithPrefix("predictor")

	switch u.Scheme {
	case "http", "https":
		c.transport = &httpTransport{endpoint: c.endpoint, client: c.httpClient}
	case "ws", "wss":
		c.transport = &wsTransport{endpoint: c.endpoint, dialer: c.dialer}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	return c, nil
}

// Endpoint returns the service URL
func (c *Client) Endpoint() string { return c.endpoint }

// Predict asks the service which legal card to play from the given view
func (c *Client) Predict(ctx context.Context, view game.View, legal []hearts.Card) (hearts.Card, error) {
	resp, err := c.Do(ctx, NewRequest(view, legal))
	if err != nil {
		return hearts.Card{}, err
	}
	return resp.Card()
}

// Do sends a request and returns the validated response
func (c *Client) Do(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if err := c.validator.ValidateRequest(body); err != nil {
		return Response{}, err
	}

	start := time.Now()
	reply, err := c.transport.roundTrip(ctx, body)
	if err != nil {
		return Response{}, err
	}

	var remote errorResponse
	if json.Unmarshal(reply, &remote) == nil && remote.Error != "" {
		return Response{}, fmt.Errorf("%w: %s", ErrRemote, remote.Error)
	}

	resp, err := c.validator.DecodeResponse(reply)
	if err != nil {
		return Response{}, err
	}
	c.logger.Debug("Prediction received",
		"seat", req.State.CurrentPlayerIndex, "suit", resp.Suit, "rank", resp.Rank, "elapsed", time.Since(start))
	return resp, nil
}

// Close releases any persistent connection
func (c *Client) Close() error {
	return c.transport.close()
}

type httpTransport struct {
	endpoint string
	client   *http.Client
}

func (t *httpTransport) roundTrip(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", t.endpoint, err)
	}
	defer resp.Body.Close()

	reply, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var remote errorResponse
		if json.Unmarshal(reply, &remote) == nil && remote.Error != "" {
			return nil, fmt.Errorf("%w: %s: %s", ErrRemote, resp.Status, remote.Error)
		}
		return nil, fmt.Errorf("%w: %s", ErrRemote, resp.Status)
	}
	return reply, nil
}

func (t *httpTransport) close() error {
	t.client.CloseIdleConnections()
	return nil
}

// wsTransport keeps one connection open and serialises request/response
// pairs over it. A failed exchange drops the connection; the next call
// redials.
type wsTransport struct {
	endpoint string
	dialer   *websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn
}

func (t *wsTransport) roundTrip(ctx context.Context, body []byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		conn, _, err := t.dialer.DialContext(ctx, t.endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", t.endpoint, err)
		}
		t.conn = conn
	}
	conn := t.conn

	deadline, _ := ctx.Deadline()
	_ = conn.SetWriteDeadline(deadline)
	_ = conn.SetReadDeadline(deadline)

	// Unblock reads and writes when the context ends
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Unix(1, 0))
		_ = conn.SetWriteDeadline(time.Unix(1, 0))
	})
	defer stop()

	if err := conn.WriteMessage(websocket.TextMessage, body); err != nil {
		t.drop()
		return nil, t.wrap(ctx, "write", err)
	}
	_, reply, err := conn.ReadMessage()
	if err != nil {
		t.drop()
		return nil, t.wrap(ctx, "read", err)
	}
	return reply, nil
}

func (t *wsTransport) wrap(ctx context.Context, op string, err error) error {
	if ctxErr := context.Cause(ctx); ctxErr != nil {
		return fmt.Errorf("%s %s: %w", op, t.endpoint, ctxErr)
	}
	return fmt.Errorf("%s %s: %w", op, t.endpoint, err)
}

func (t *wsTransport) drop() {
	if t.conn != nil {
		_ = t.conn.Close()
		t.conn = nil
	}
}

func (t *wsTransport) close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return nil
	}
	_ = t.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	err := t.conn.Close()
	t.conn = nil
	return err
}
