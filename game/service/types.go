package service

import (
	"sync"

	"github.com/wricardo/connect6-live/game/engine"
	"github.com/wricardo/connect6-live/game/hub"
)

// MoveResult contains the result of a color choice or a move
type MoveResult struct {
	Accepted bool             `json:"accepted"`
	Reason   string           `json:"reason,omitempty"`
	State    *engine.Snapshot `json:"state"`

	// Err is the sentinel behind Reason, for errors.Is checks
	Err error `json:"-"`
}

// Stream is an observer's view of the session: the state at subscription
// time followed by every later snapshot in order.
type Stream struct {
	Initial engine.Snapshot

	sub       *hub.Subscription
	hub       Broadcaster
	last      uint64
	closeOnce sync.Once
	stop      func() bool
}

// ID identifies the underlying subscription
func (s *Stream) ID() string {
	return s.sub.ID
}

// Updates delivers snapshots published after Subscribe. The channel is closed
// when the stream ends.
func (s *Stream) Updates() <-chan engine.Snapshot {
	return s.sub.C
}

// Done is closed once the stream has ended
func (s *Stream) Done() <-chan struct{} {
	return s.sub.Done()
}

// Fresh reports whether snap is newer than anything this stream has already
// handed out, and records it. Stale snapshots can show up right after
// Subscribe since the initial state may already include them.
func (s *Stream) Fresh(snap engine.Snapshot) bool {
	if snap.Version <= s.last {
		return false
	}
	s.last = snap.Version
	return true
}

// Close ends the stream
func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		if s.stop != nil {
			s.stop()
		}
		s.hub.Unsubscribe(s.sub)
	})
}
