// Package hub fans session snapshots out to observers.
//
// A Hub runs a single goroutine that owns the observer set. Publish enqueues
// into an ordered inbox, and the goroutine delivers each snapshot with a
// non-blocking send to every subscription. Subscriptions whose buffer is full
// are removed after the pass, so a slow observer never delays the others.
//
// Usage:
//
//	h := hub.NewHub(logger, 64)
//	go h.Run(ctx)
//
//	sub, err := h.Subscribe(hub.SubscribeOptions{Timeout: time.Minute})
//	if err != nil {
//		return err
//	}
//	defer h.Unsubscribe(sub)
//
//	for snap := range sub.C {
//		// write snap to the peer
//	}
package hub

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wricardo/connect6-live/game/engine"
)

// DefaultBufferSize is the per-subscription queue length used when none is set
const DefaultBufferSize = 64

// inboxSize bounds how many snapshots can wait for the hub goroutine
const inboxSize = 256

// ErrHubClosed is returned when subscribing to a stopped hub
var ErrHubClosed = errors.New("hub is closed")

// SubscribeOptions configures one subscription
type SubscribeOptions struct {
	// Label names the subscriber in logs, e.g. "sse" or a participant id
	Label string
	// Buffer is the number of snapshots queued for a slow reader
	Buffer int
	// Timeout removes the subscription after it elapses. Zero keeps it
	// until it is closed or fails.
	Timeout time.Duration
}

// Subscription is one observer's live stream. C is closed when the hub
// removes the subscription.
type Subscription struct {
	ID    string
	Label string
	C     <-chan engine.Snapshot

	send    chan engine.Snapshot
	added   chan struct{}
	closed  chan struct{}
	timeout time.Duration
	timer   *time.Timer
}

// Done is closed once the subscription has been removed
func (s *Subscription) Done() <-chan struct{} {
	return s.closed
}

// Hub maintains the set of active subscriptions and broadcasts snapshots
type Hub struct {
	// Registered subscriptions, owned by the Run goroutine
	subscribers map[*Subscription]bool

	// Snapshots waiting to be delivered, in publish order
	broadcast chan engine.Snapshot

	// Register requests
	register chan *Subscription

	// Unregister requests
	unregister chan *Subscription

	stopped    chan struct{}
	count      atomic.Int64
	bufferSize int
	logger     *zap.Logger
}

// NewHub creates a hub. bufferSize is the default per-subscription queue length.
func NewHub(logger *zap.Logger, bufferSize int) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Hub{
		subscribers: make(map[*Subscription]bool),
		broadcast:   make(chan engine.Snapshot, inboxSize),
		register:    make(chan *Subscription),
		unregister:  make(chan *Subscription),
		stopped:     make(chan struct{}),
		bufferSize:  bufferSize,
		logger:      logger.Named("hub"),
	}
}

// Run starts the hub's event loop and blocks until ctx is cancelled. All
// remaining subscriptions are closed on return.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for sub := range h.subscribers {
			h.remove(sub, "hub stopped")
		}
		close(h.stopped)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case sub := <-h.register:
			h.add(sub)

		case sub := <-h.unregister:
			h.remove(sub, "unsubscribed")

		case snap := <-h.broadcast:
			h.fanOut(snap)
		}
	}
}

// Publish enqueues snap for delivery. It returns without waiting for
// observers; it only blocks while the inbox is full.
func (h *Hub) Publish(snap engine.Snapshot) {
	select {
	case h.broadcast <- snap:
	case <-h.stopped:
	}
}

// Subscribe registers a new observer. Every snapshot published after
// Subscribe returns is delivered to it, in publish order, until it is removed.
func (h *Hub) Subscribe(opts SubscribeOptions) (*Subscription, error) {
	size := opts.Buffer
	if size <= 0 {
		size = h.bufferSize
	}
	send := make(chan engine.Snapshot, size)
	sub := &Subscription{
		ID:      uuid.NewString(),
		Label:   opts.Label,
		C:       send,
		send:    send,
		added:   make(chan struct{}),
		closed:  make(chan struct{}),
		timeout: opts.Timeout,
	}

	select {
	case h.register <- sub:
	case <-h.stopped:
		return nil, ErrHubClosed
	}
	<-sub.added
	return sub, nil
}

// Unsubscribe removes sub and waits until its channel is closed. It is safe
// to call more than once.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	select {
	case h.unregister <- sub:
	case <-sub.closed:
		return
	case <-h.stopped:
		return
	}
	select {
	case <-sub.closed:
	case <-h.stopped:
	}
}

// Count returns the number of live subscriptions
func (h *Hub) Count() int {
	return int(h.count.Load())
}

// add registers a subscription
func (h *Hub) add(sub *Subscription) {
	h.subscribers[sub] = true
	h.count.Add(1)
	if sub.timeout > 0 {
		sub.timer = time.AfterFunc(sub.timeout, func() {
			h.logger.Debug("subscription timed out", zap.String("id", sub.ID), zap.Duration("timeout", sub.timeout))
			h.Unsubscribe(sub)
		})
	}
	close(sub.added)

	h.logger.Debug("subscription added",
		zap.String("id", sub.ID),
		zap.String("label", sub.Label),
		zap.Int("total", len(h.subscribers)))
}

// remove drops a subscription and closes its channel
func (h *Hub) remove(sub *Subscription, reason string) {
	if !h.subscribers[sub] {
		return
	}
	delete(h.subscribers, sub)
	h.count.Add(-1)
	if sub.timer != nil {
		sub.timer.Stop()
	}
	close(sub.send)
	close(sub.closed)

	h.logger.Debug("subscription removed",
		zap.String("id", sub.ID),
		zap.String("label", sub.Label),
		zap.String("reason", reason),
		zap.Int("remaining", len(h.subscribers)))
}

// fanOut delivers snap to every subscription and then drops those that
// could not take it
func (h *Hub) fanOut(snap engine.Snapshot) {
	targets := make([]*Subscription, 0, len(h.subscribers))
	for sub := range h.subscribers {
		targets = append(targets, sub)
	}

	var failed []*Subscription
	for _, sub := range targets {
		select {
		case sub.send <- snap:
		default:
			failed = append(failed, sub)
		}
	}

	for _, sub := range failed {
		h.logger.Warn("dropping slow subscriber",
			zap.String("id", sub.ID),
			zap.String("label", sub.Label),
			zap.Uint64("version", snap.Version))
		h.remove(sub, "buffer full")
	}
}
