// Package session holds the state of one canvas user: the gate fields,
// the live connection while active and the reactions received through it.
package session

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jai2010/CollabCanvas/internal/domain"
	"github.com/jai2010/CollabCanvas/internal/reactions"
	"github.com/jai2010/CollabCanvas/internal/transport"
)

type State int

const (
	StateGate State = iota
	StateActive
)

func (s State) String() string {
	switch s {
	case StateGate:
		return "gate"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// Transport is the connection a session owns while active.
type Transport interface {
	Send(r domain.Reaction) error
	Inbound() <-chan transport.Inbound
	Close() error
}

// DialFunc opens a new Transport. Each Join calls it exactly once.
type DialFunc func(ctx context.Context) (Transport, error)

// DialerFunc adapts a transport.Dialer to a DialFunc.
func DialerFunc(d *transport.Dialer) DialFunc {
	return func(ctx context.Context) (Transport, error) {
		c, err := d.Dial(ctx)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

type Session struct {
	dial      DialFunc
	logger    *slog.Logger
	now       func() time.Time
	surface   domain.Surface
	listOpts  reactions.Options
	localEcho bool
	onChange  func()

	mu           sync.Mutex
	state        State
	name         string
	emoji        string
	id           string
	log          *slog.Logger
	conn         Transport
	list         *reactions.List
	pending      []domain.Reaction // own reactions awaiting their echo
	disconnected bool
	joining      bool
}

type Option func(*Session)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

func WithSurface(surface domain.Surface) Option {
	return func(s *Session) {
		s.surface = surface
	}
}

func WithListOptions(opts reactions.Options) Option {
	return func(s *Session) {
		s.listOpts = opts
	}
}

// WithLocalEcho shows own reactions as soon as they are sent and drops the
// matching echo from the service.
func WithLocalEcho(enabled bool) Option {
	return func(s *Session) {
		s.localEcho = enabled
	}
}

// WithOnChange registers a callback run after every state or list change.
// It is called without the session lock held, possibly from the
// dispatcher goroutine.
func WithOnChange(fn func()) Option {
	return func(s *Session) {
		s.onChange = fn
	}
}

func New(dial DialFunc, opts ...Option) *Session {
	s := &Session{
		dial:     dial,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
		surface:  domain.Surface{Width: 640, Height: 384},
		onChange: func() {},
	}

	for _, opt := range opts {
		opt(s)
	}

	s.log = s.logger

	return s
}

func (s *Session) SetName(name string) {
	s.mu.Lock()
	s.name = strings.TrimSpace(name)
	s.mu.Unlock()

	s.onChange()
}

func (s *Session) SelectEmoji(emoji string) error {
	if !domain.IsEmoji(emoji) {
		return domain.ErrUnknownEmoji
	}

	s.mu.Lock()
	s.emoji = emoji
	s.mu.Unlock()

	s.onChange()

	return nil
}

func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.name
}

func (s *Session) Emoji() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.emoji
}

// CanJoin reports whether Join would be attempted.
func (s *Session) CanJoin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state == StateGate && !s.joining && s.name != "" && s.emoji != ""
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// ID identifies the current active session in logs. Empty in the gate.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.id
}

func (s *Session) Surface() domain.Surface {
	return s.surface
}

// Disconnected reports whether the connection of the active session ended
// on its own. The session stays active until Leave.
func (s *Session) Disconnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.disconnected
}

// Reactions returns a snapshot of the list, in arrival order. Nil in the
// gate.
func (s *Session) Reactions() []reactions.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.list == nil {
		return nil
	}

	s.list.Prune(s.now())

	return s.list.Entries()
}
