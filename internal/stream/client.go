package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/kevoconnell/chess-engine-llm-frontend/internal/gamestate"
)

const (
	EventsPath        = "/api/events"
	SnapshotEventName = "gameState"
)

type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

type StateCallback func(state State, err error)

type stateCallbackEntry struct {
	id       int
	callback StateCallback
}

// HeaderProvider supplies extra request headers for each subscription.
type HeaderProvider func() map[string]string

var ErrUnexpectedStatus = errors.New("stream: unexpected response status")

// Client subscribes to the game server's event stream over fasthttp.
type Client struct {
	baseURL     string
	name        string
	headers     HeaderProvider
	dialTimeout time.Duration
	logger      *zap.Logger

	cbM      sync.RWMutex
	stateCbs []stateCallbackEntry
	nextCbID int
}

type Option func(*Client)

func WithDialTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.dialTimeout = d
		}
	}
}

func WithHeaderProvider(h HeaderProvider) Option { return func(c *Client) { c.headers = h } }

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		name:        "chess-viewer",
		dialTimeout: 10 * time.Second,
		logger:      zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) OnStateChange(cb StateCallback) int {
	c.cbM.Lock()
	defer c.cbM.Unlock()
	c.nextCbID++
	c.stateCbs = append(c.stateCbs, stateCallbackEntry{id: c.nextCbID, callback: cb})
	return c.nextCbID
}

func (c *Client) RemoveStateCallback(id int) {
	c.cbM.Lock()
	defer c.cbM.Unlock()
	for i, cb := range c.stateCbs {
		if cb.id == id {
			c.stateCbs = append(c.stateCbs[:i], c.stateCbs[i+1:]...)
			break
		}
	}
}

func (c *Client) setState(state State, err error) {
	c.cbM.RLock()
	callbacks := make([]stateCallbackEntry, len(c.stateCbs))
	copy(callbacks, c.stateCbs)
	c.cbM.RUnlock()
	for _, entry := range callbacks {
		if entry.callback != nil {
			entry.callback(state, err)
		}
	}
}

// Subscription is one open event stream. Its snapshots land in Latest.
type Subscription struct {
	latest *Latest
	cancel context.CancelFunc
	done   chan struct{}

	mu   sync.Mutex
	conn net.Conn
	err  error
}

func (s *Subscription) Latest() *Latest { return s.latest }

// Done is closed once the stream has ended for any reason.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Err returns the transport error that ended the stream, nil after Close or a clean end.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close stops the stream and waits for the reader to exit.
func (s *Subscription) Close() {
	s.cancel()
	s.closeConn()
	<-s.done
}

func (s *Subscription) setConn(conn net.Conn) {
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
}

func (s *Subscription) closeConn() {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

// Subscribe opens the event stream in the background and feeds decoded
// snapshots into latest. The stream is never reopened once it ends.
func (c *Client) Subscribe(ctx context.Context, latest *Latest) *Subscription {
	if latest == nil {
		latest = NewLatest()
	}
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{latest: latest, cancel: cancel, done: make(chan struct{})}

	go func() {
		<-ctx.Done()
		sub.closeConn()
	}()

	go func() {
		defer close(sub.done)
		defer cancel()
		err := c.run(ctx, sub)
		switch {
		case ctx.Err() != nil:
			c.logger.Info("stream_closed")
			c.setState(StateClosed, nil)
		case err == nil || errors.Is(err, io.EOF):
			c.logger.Warn("stream_ended")
			c.setState(StateClosed, nil)
		default:
			sub.mu.Lock()
			sub.err = err
			sub.mu.Unlock()
			c.logger.Error("stream_transport_failed", zap.Error(err))
			c.setState(StateFailed, err)
		}
	}()
	return sub
}

func (c *Client) run(ctx context.Context, sub *Subscription) error {
	c.setState(StateConnecting, nil)

	// One client per subscription so the dialed connection can be closed to unblock the reader.
	hc := &fasthttp.Client{
		Name:               c.name,
		StreamResponseBody: true,
		MaxConnsPerHost:    1,
		Dial: func(addr string) (net.Conn, error) {
			conn, err := fasthttp.DialTimeout(addr, c.dialTimeout)
			if err != nil {
				return nil, err
			}
			sub.setConn(conn)
			if ctx.Err() != nil {
				_ = conn.Close()
				return nil, ctx.Err()
			}
			return conn, nil
		},
	}
	defer hc.CloseIdleConnections()

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + EventsPath)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
				continue
			}
			req.Header.Set(k, v)
		}
	}

	if err := hc.Do(req, resp); err != nil {
		return fmt.Errorf("stream: connect: %w", err)
	}
	defer func() { _ = resp.CloseBodyStream() }()

	if code := resp.StatusCode(); code != fasthttp.StatusOK {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, code)
	}
	body := resp.BodyStream()
	if body == nil {
		return fmt.Errorf("stream: response has no body stream")
	}

	c.setState(StateOpen, nil)
	c.logger.Info("stream_open", zap.String("url", c.baseURL+EventsPath))

	r := NewReader(body)
	for {
		ev, err := r.Next()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		c.dispatch(ev, sub.latest)
	}
}

func (c *Client) dispatch(ev Event, latest *Latest) {
	if ev.Name != SnapshotEventName {
		c.logger.Debug("stream_event_ignored", zap.String("event", ev.Name))
		return
	}
	snap, err := gamestate.Decode([]byte(ev.Data))
	if err != nil {
		c.logger.Warn("stream_decode_failed",
			zap.Error(err),
			zap.String("data", truncate(ev.Data, 256)),
		)
		return
	}
	latest.Store(snap)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
