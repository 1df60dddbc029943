package session

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jai2010/CollabCanvas/internal/domain"
	"github.com/jai2010/CollabCanvas/internal/reactions"
	"github.com/jai2010/CollabCanvas/internal/transport"
)

// own reactions remembered for echo suppression, when the service does not
// echo they would otherwise pile up
const maxPendingEchoes = 256

// Join leaves the gate: it opens a new transport and starts an empty list.
// It returns domain.ErrNotReady without a name or emoji and
// domain.ErrAlreadyActive outside the gate; the state is unchanged in both
// cases. A dial failure is returned as a *domain.ConnectionError and the
// session stays in the gate.
func (s *Session) Join(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.state != StateGate || s.joining:
		s.mu.Unlock()
		return domain.ErrAlreadyActive
	case s.name == "" || s.emoji == "":
		s.mu.Unlock()
		return domain.ErrNotReady
	}
	s.joining = true
	name, emoji := s.name, s.emoji
	s.mu.Unlock()

	conn, err := s.dial(ctx)

	s.mu.Lock()
	s.joining = false
	if err != nil {
		s.mu.Unlock()

		var ce *domain.ConnectionError
		if !errors.As(err, &ce) {
			err = &domain.ConnectionError{Op: "dial", Err: err}
		}
		s.logger.Error("join failed", "error", err)
		s.onChange()

		return err
	}

	id := uuid.NewString()
	s.state = StateActive
	s.id = id
	s.conn = conn
	s.list = reactions.New(s.listOpts)
	s.pending = nil
	s.disconnected = false
	s.log = s.logger.With("session", id)
	log := s.log
	s.mu.Unlock()

	log.Info("joined canvas", "name", name, "emoji", emoji)

	go s.dispatch(conn)

	s.onChange()

	return nil
}

// Leave closes the transport and discards the list. Name and emoji are
// kept for the next join. In the gate it does nothing.
func (s *Session) Leave() error {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return nil
	}

	conn, log := s.conn, s.log
	s.state = StateGate
	s.id = ""
	s.conn = nil
	s.list = nil
	s.pending = nil
	s.disconnected = false
	s.log = s.logger
	s.mu.Unlock()

	err := conn.Close()
	if err != nil {
		var ce *domain.ConnectionError
		if !errors.As(err, &ce) {
			err = &domain.ConnectionError{Op: "close", Err: err}
		}
		log.Warn("close failed", "error", err)
	}

	log.Info("left canvas")

	s.onChange()

	return err
}

// Click sends one reaction at (x, y) in surface units, using the current
// name, emoji and time. Nothing is sent outside the active state or outside
// the surface. Send failures are returned as *domain.SendError and not
// retried.
func (s *Session) Click(x, y float64) error {
	s.mu.Lock()

	if s.state != StateActive {
		s.mu.Unlock()
		return domain.ErrNotActive
	}
	if !s.surface.Contains(x, y) {
		s.mu.Unlock()
		return domain.ErrOutOfBounds
	}

	r := domain.NewReaction(x, y, s.emoji, s.name, s.now())

	// Send only queues, so the lock is held across it: an echo cannot be
	// dispatched before the local copy is recorded.
	if err := s.conn.Send(r); err != nil {
		log := s.log
		s.mu.Unlock()

		var se *domain.SendError
		if !errors.As(err, &se) {
			err = &domain.SendError{Reaction: r, Err: err}
		}
		log.Warn("reaction not sent", "error", err)

		return err
	}

	if !s.localEcho {
		s.mu.Unlock()
		return nil
	}

	s.list.Append(r, s.now())
	s.pending = append(s.pending, r)
	if len(s.pending) > maxPendingEchoes {
		s.pending = s.pending[1:]
	}
	s.mu.Unlock()

	s.onChange()

	return nil
}

// dispatch is the single consumer of a connection's receive stream.
func (s *Session) dispatch(conn Transport) {
	for ev := range conn.Inbound() {
		s.deliver(conn, ev)
	}

	s.mu.Lock()
	current := s.conn == conn
	if current {
		s.disconnected = true
	}
	log := s.log
	s.mu.Unlock()

	if current {
		log.Warn("connection lost")
		s.onChange()
	}
}

func (s *Session) deliver(conn Transport, ev transport.Inbound) {
	s.mu.Lock()

	// left, or left and rejoined, since this event was read
	if s.conn != conn {
		s.mu.Unlock()
		return
	}

	if ev.Err != nil {
		log := s.log
		s.mu.Unlock()
		log.Warn("dropped inbound message", "error", ev.Err)
		return
	}

	if s.localEcho && s.consumeEcho(ev.Reaction) {
		s.mu.Unlock()
		return
	}

	s.list.Append(ev.Reaction, s.now())
	s.mu.Unlock()

	s.onChange()
}

func (s *Session) consumeEcho(r domain.Reaction) bool {
	for i, p := range s.pending {
		if p == r {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return true
		}
	}

	return false
}
