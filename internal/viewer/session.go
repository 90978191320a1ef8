package viewer

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kevoconnell/chess-engine-llm-frontend/internal/adapter/viewpresenter"
	"github.com/kevoconnell/chess-engine-llm-frontend/internal/board"
	"github.com/kevoconnell/chess-engine-llm-frontend/internal/clock"
	"github.com/kevoconnell/chess-engine-llm-frontend/internal/gamestate"
	"github.com/kevoconnell/chess-engine-llm-frontend/internal/msgcat"
	"github.com/kevoconnell/chess-engine-llm-frontend/internal/playback"
	"github.com/kevoconnell/chess-engine-llm-frontend/internal/render"
	"github.com/kevoconnell/chess-engine-llm-frontend/internal/rules"
	"github.com/kevoconnell/chess-engine-llm-frontend/internal/stream"
	"github.com/kevoconnell/chess-engine-llm-frontend/internal/theme"
	"github.com/kevoconnell/chess-engine-llm-frontend/pkg/viewdto"
)

// Default delays between an event and the display change it causes.
const (
	DefaultSnapshotDelay = 50 * time.Millisecond
	DefaultDropDelay     = 300 * time.Millisecond
)

var ErrClosed = errors.New("viewer: session closed")

type Options struct {
	Theme     theme.Theme
	Renderer  render.BoardRenderer
	Presenter *viewpresenter.Presenter
	Logger    *zap.Logger
	UserID    string

	// Zero means the default. A negative delay applies the change immediately.
	SnapshotDelay    time.Duration
	DropDelay        time.Duration
	TickInterval     time.Duration
	AutoplayInterval time.Duration
}

func (o *Options) setDefaults() {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Presenter == nil {
		o.Presenter = viewpresenter.New(msgcat.Default())
	}
	if o.Theme.Board.Width == 0 {
		o.Theme = theme.Default()
	}
	if o.Renderer == nil {
		o.Renderer = render.NewPNGRenderer(o.Theme)
	}
	if o.SnapshotDelay == 0 {
		o.SnapshotDelay = DefaultSnapshotDelay
	}
	if o.DropDelay == 0 {
		o.DropDelay = o.Theme.AnimationDuration()
		if o.DropDelay <= 0 {
			o.DropDelay = DefaultDropDelay
		}
	}
	if o.TickInterval <= 0 {
		o.TickInterval = clock.TickInterval
	}
	if o.AutoplayInterval <= 0 {
		o.AutoplayInterval = playback.AutoplayInterval
	}
}

// Session is the single owner of the viewer state. Every change runs on the
// goroutine started by Run, so handlers never interleave.
type Session struct {
	opts   Options
	logger *zap.Logger

	inbox     chan func()
	done      chan struct{}
	closeOnce sync.Once

	// Loop-owned state.
	snapshot    *gamestate.Snapshot
	clock       *clock.Clock
	player      *playback.Player
	display     rules.Position
	scrubbing   bool
	connErr     string
	ticker      *time.Ticker
	autoplay    *time.Timer
	autoplayGen uint64
	pending     map[*time.Timer]struct{}

	viewMu sync.RWMutex
	frame  viewdto.Frame
	cfg    board.Config
	hud    render.HUD

	subMu      sync.Mutex
	subs       map[chan viewdto.Frame]struct{}
	subsClosed bool
}

func New(opts Options) *Session {
	opts.setDefaults()
	s := &Session{
		opts:    opts,
		logger:  opts.Logger,
		inbox:   make(chan func(), 64),
		done:    make(chan struct{}),
		clock:   clock.New(),
		player:  playback.New(opts.Logger),
		display: rules.Initial(),
		pending: make(map[*time.Timer]struct{}),
		subs:    make(map[chan viewdto.Frame]struct{}),
	}
	s.refresh()
	return s
}

// Run processes events until ctx is cancelled or Close is called. The session
// cannot be restarted afterwards.
func (s *Session) Run(ctx context.Context) error {
	defer s.Close()
	defer s.stopTimers()
	for {
		var tick <-chan time.Time
		if s.ticker != nil {
			tick = s.ticker.C
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case fn := <-s.inbox:
			fn()
			s.refresh()
		case <-tick:
			s.onTick()
			s.refresh()
		}
	}
}

// Close stops the loop and closes every subscriber channel.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.subMu.Lock()
		s.subsClosed = true
		for ch := range s.subs {
			delete(s.subs, ch)
			close(ch)
		}
		s.subMu.Unlock()
	})
}

// Done is closed once Close has been called.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) post(ctx context.Context, fn func()) error {
	select {
	case s.inbox <- fn:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// call runs fn on the loop and waits for it to finish.
func (s *Session) call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := s.post(ctx, func() {
		fn()
		close(finished)
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// after schedules fn on the loop once d has elapsed. d <= 0 runs it now.
func (s *Session) after(d time.Duration, fn func()) {
	if d <= 0 {
		fn()
		return
	}
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		_ = s.post(context.Background(), func() {
			delete(s.pending, t)
			fn()
		})
	})
	s.pending[t] = struct{}{}
}

func (s *Session) stopTimers() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	if s.autoplay != nil {
		s.autoplay.Stop()
		s.autoplay = nil
	}
	for t := range s.pending {
		t.Stop()
		delete(s.pending, t)
	}
}

// HandleSnapshot queues a snapshot from the stream. It blocks only while the inbox is full.
func (s *Session) HandleSnapshot(snap *gamestate.Snapshot) {
	if snap == nil {
		return
	}
	_ = s.post(context.Background(), func() { s.applySnapshot(snap) })
}

// HandleStreamState turns subscription state changes into the frame's connection error.
func (s *Session) HandleStreamState(state stream.State, err error) {
	_ = s.post(context.Background(), func() {
		switch state {
		case stream.StateFailed:
			s.connErr = s.opts.Presenter.ConnectionText(err)
		case stream.StateClosed:
			s.connErr = s.opts.Presenter.ConnectionText(nil)
		case stream.StateOpen, stream.StateConnecting:
			s.connErr = ""
		}
	})
}

func (s *Session) applySnapshot(snap *gamestate.Snapshot) {
	s.snapshot = snap
	recorded := s.player.Record(snap.LastMove)
	if recorded {
		s.scrubbing = false
	}
	s.clock.Sync(snap)
	s.restartTicker()

	if snap.IsError() {
		s.logger.Warn("server_error_snapshot", zap.String("message", snap.Message))
	}
	if snap.Position != "" {
		pos, err := rules.FromFEN(snap.Position)
		if err != nil {
			s.logger.Warn("snapshot_position_invalid", zap.String("fen", snap.Position), zap.Error(err))
		} else {
			s.after(s.opts.SnapshotDelay, func() {
				if !s.scrubbing {
					s.display = pos
				}
			})
		}
	}
	// A repeated move leaves the cursor alone, so a pending step stays armed.
	if recorded {
		s.syncAutoplay()
	}
}

func (s *Session) restartTicker() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	if clock.ShouldTick(s.snapshot) {
		s.ticker = time.NewTicker(s.opts.TickInterval)
	}
}

func (s *Session) onTick() {
	if !clock.ShouldTick(s.snapshot) {
		return
	}
	s.clock.Tick(clock.SideToMove(s.snapshot, s.player.Len()), s.opts.TickInterval)
}

// syncAutoplay drops any pending step and arms a new one when autoplay should continue.
func (s *Session) syncAutoplay() {
	if s.autoplay != nil {
		s.autoplay.Stop()
		s.autoplay = nil
	}
	s.autoplayGen++
	if !s.player.AutoplayDue() {
		return
	}
	gen := s.autoplayGen
	s.autoplay = time.AfterFunc(s.opts.AutoplayInterval, func() {
		_ = s.post(context.Background(), func() {
			if gen != s.autoplayGen {
				return
			}
			s.autoplay = nil
			if pos, ok := s.player.AutoplayStep(); ok {
				s.display = pos
				s.scrubbing = true
			}
			s.syncAutoplay()
		})
	})
}

// GoToMove shows the position after move index (-1 for the start).
func (s *Session) GoToMove(ctx context.Context, index int) error {
	var opErr error
	if err := s.call(ctx, func() {
		pos, err := s.player.GoToMove(index)
		if err != nil {
			opErr = err
			return
		}
		s.display = pos
		s.scrubbing = true
		s.syncAutoplay()
	}); err != nil {
		return err
	}
	return opErr
}

// Next advances one move and reports false at the end of the history.
func (s *Session) Next(ctx context.Context) (bool, error) {
	var moved bool
	err := s.call(ctx, func() {
		pos, ok := s.player.GoToNextMove()
		if !ok {
			return
		}
		moved = true
		s.display = pos
		s.scrubbing = true
		s.syncAutoplay()
	})
	return moved, err
}

func (s *Session) SetAutoplay(ctx context.Context, on bool) error {
	return s.call(ctx, func() {
		s.player.SetAutoplay(on)
		s.syncAutoplay()
	})
}

// Live leaves playback and shows the latest authoritative position again.
func (s *Session) Live(ctx context.Context) error {
	return s.call(ctx, func() {
		s.player.SetAutoplay(false)
		if n := s.player.Len(); n > 0 {
			_, _ = s.player.GoToMove(n - 1)
		}
		s.scrubbing = false
		s.syncAutoplay()
		if s.snapshot == nil || s.snapshot.Position == "" {
			return
		}
		if pos, err := rules.FromFEN(s.snapshot.Position); err == nil {
			s.display = pos
		}
	})
}

// Drop tries a dragged move on the displayed position. Nothing is sent upstream;
// an accepted move replaces the display once the animation has had time to run.
func (s *Session) Drop(ctx context.Context, from, to string) (viewdto.DropResponse, error) {
	var resp viewdto.DropResponse
	err := s.call(ctx, func() {
		next, mv, err := board.AttemptDrop(s.display, from, to)
		if err != nil {
			s.logger.Debug("drop_rejected", zap.String("from", from), zap.String("to", to), zap.Error(err))
			return
		}
		resp = viewdto.DropResponse{Accepted: true, Move: mv.UCI(), Position: next.FEN()}
		s.after(s.opts.DropDelay, func() { s.display = next })
	})
	return resp, err
}

// View returns the most recently published frame.
func (s *Session) View() viewdto.Frame {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	return s.frame
}

func (s *Session) BoardConfig() board.Config {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	return s.cfg
}

// BoardPNG renders the current board with the player strips.
func (s *Session) BoardPNG(ctx context.Context) ([]byte, error) {
	s.viewMu.RLock()
	cfg, hud := s.cfg, s.hud
	s.viewMu.RUnlock()
	return s.opts.Renderer.RenderPNG(ctx, cfg, hud)
}

// Subscribe returns a channel receiving every changed frame. Slow readers miss
// frames. The channel is closed when the session closes.
func (s *Session) Subscribe() (<-chan viewdto.Frame, func()) {
	ch := make(chan viewdto.Frame, 16)
	s.subMu.Lock()
	if s.subsClosed {
		close(ch)
	} else {
		s.subs[ch] = struct{}{}
	}
	s.subMu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			if _, ok := s.subs[ch]; ok {
				delete(s.subs, ch)
				close(ch)
			}
			s.subMu.Unlock()
		})
	}
}

func (s *Session) refresh() {
	var lastMove string
	orientation := gamestate.White
	if s.snapshot != nil {
		lastMove = s.snapshot.LastMove
		if s.snapshot.ViewedColor.Valid() {
			orientation = s.snapshot.ViewedColor
		}
	}
	cfg := board.Compose(s.display, orientation, lastMove, s.opts.Theme)
	frame := s.opts.Presenter.Build(viewpresenter.Input{
		Snapshot:        s.snapshot,
		Board:           cfg,
		Clock:           s.clock.State(),
		SideToMove:      clock.SideToMove(s.snapshot, s.player.Len()),
		Cursor:          s.player.Cursor(),
		History:         s.player.History(),
		Live:            !s.scrubbing,
		ConnectionError: s.connErr,
		UserID:          s.opts.UserID,
	})

	s.viewMu.Lock()
	changed := !reflect.DeepEqual(frame, s.frame)
	s.frame = frame
	s.cfg = cfg
	s.hud = hudFor(frame, orientation)
	s.viewMu.Unlock()
	if changed {
		s.publish(frame)
	}
}

func (s *Session) publish(frame viewdto.Frame) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- frame:
		default:
		}
	}
}

// hudFor puts the panel of the orientation side under the board.
func hudFor(f viewdto.Frame, orientation gamestate.Color) render.HUD {
	strip := func(p viewdto.PlayerPanel) *render.PlayerStrip {
		return &render.PlayerStrip{Label: p.Label, Clock: p.Clock, Active: p.Active}
	}
	top, bottom := f.Top, f.Bottom
	if bottom.Color != string(orientation) {
		top, bottom = bottom, top
	}
	return render.HUD{Top: strip(top), Bottom: strip(bottom)}
}
