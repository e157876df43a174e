// Package sse streams game snapshots as server-sent events.
//
// Each connection receives the current snapshot first and then every later
// snapshot as a data-only event whose id is the snapshot version. A comment
// line is written as a heartbeat while the game is idle so dead peers are
// noticed. Every write carries its own deadline; a failed write ends that
// stream only.
package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/connect6-live/game/engine"
	"github.com/wricardo/connect6-live/game/hub"
	"github.com/wricardo/connect6-live/game/service"
)

const (
	// DefaultWriteTimeout bounds a single event write
	DefaultWriteTimeout = 10 * time.Second

	heartbeatInterval = 25 * time.Second
)

// Options configures a Handler
type Options struct {
	// WriteTimeout bounds each event write
	WriteTimeout time.Duration
	// Timeout ends the stream after this long unless the request overrides
	// it with ?timeout=. Zero keeps streams open until the peer leaves.
	Timeout time.Duration
	// Buffer is the per-stream snapshot queue length
	Buffer int
}

// Handler serves GET /game/updates
type Handler struct {
	service service.GameService
	logger  *zap.Logger
	opts    Options
}

// NewHandler creates an SSE handler
func NewHandler(gameService service.GameService, logger *zap.Logger, opts Options) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	return &Handler{
		service: gameService,
		logger:  logger.Named("sse"),
		opts:    opts,
	}
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	participantID := query.Get("playerId")

	timeout := h.opts.Timeout
	if raw := query.Get("timeout"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			http.Error(w, "invalid timeout", http.StatusBadRequest)
			return
		}
		timeout = d
	}

	label := "sse"
	if participantID != "" {
		label = "sse:" + participantID
	}

	stream, err := h.service.Subscribe(r.Context(), hub.SubscribeOptions{
		Label:   label,
		Buffer:  h.opts.Buffer,
		Timeout: timeout,
	})
	if err != nil {
		h.logger.Warn("subscribe failed", zap.Error(err))
		http.Error(w, "updates unavailable", http.StatusServiceUnavailable)
		return
	}
	defer stream.Close()

	log := h.logger.With(zap.String("stream", stream.ID()), zap.String("participant", participantID))
	log.Debug("stream opened")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	if err := h.writeSnapshot(rc, w, stream.Initial); err != nil {
		log.Debug("initial write failed", zap.Error(err))
		return
	}

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug("stream closed by peer")
			return

		case snap, ok := <-stream.Updates():
			if !ok {
				log.Debug("stream ended")
				return
			}
			if !stream.Fresh(snap) {
				continue
			}
			if err := h.writeSnapshot(rc, w, snap); err != nil {
				log.Warn("event write failed", zap.Uint64("version", snap.Version), zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := h.write(rc, w, ": heartbeat\n\n"); err != nil {
				log.Debug("heartbeat failed", zap.Error(err))
				return
			}
		}
	}
}

func (h *Handler) writeSnapshot(rc *http.ResponseController, w http.ResponseWriter, snap engine.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return h.write(rc, w, fmt.Sprintf("id: %d\ndata: %s\n\n", snap.Version, data))
}

// write sends one frame under the write deadline and flushes it
func (h *Handler) write(rc *http.ResponseController, w http.ResponseWriter, frame string) error {
	if err := rc.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout)); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	if _, err := fmt.Fprint(w, frame); err != nil {
		return err
	}
	if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}
