package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/connect6-live/game/engine"
)

var (
	ErrInvalidColor       = errors.New("invalid color")
	ErrInvalidParticipant = errors.New("invalid participant id")
	ErrColorTaken         = errors.New("color already taken")
	ErrGameNotActive      = errors.New("game is not active")
	ErrUnknownParticipant = errors.New("participant has not chosen a color")
	ErrNotYourTurn        = errors.New("not your turn")
)

// Publisher receives snapshots in the order they were produced. It is called
// with the session lock held and must not block on observers.
type Publisher interface {
	Publish(snap engine.Snapshot)
}

// Outcome tells the caller whether an operation was applied
type Outcome struct {
	Accepted bool
	Reason   error
}

func accepted() Outcome { return Outcome{Accepted: true} }

func rejected(err error) Outcome { return Outcome{Reason: err} }

// Session is the single live game
type Session struct {
	mu        sync.RWMutex
	game      *engine.Game
	colors    map[string]engine.Player
	status    engine.Status
	message   *string
	history   []engine.MoveRecord
	version   uint64
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a session with an empty board. A nil publisher disables
// broadcasting.
func New(publisher Publisher, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		game:      engine.NewGame(),
		colors:    make(map[string]engine.Player),
		status:    engine.StatusNotStarted,
		publisher: publisher,
		logger:    logger.Named("session"),
		now:       time.Now,
	}
}

// ChooseColor assigns color to participantID. The resulting snapshot is
// broadcast whether or not the request is accepted.
func (s *Session) ChooseColor(participantID string, color engine.Player) (engine.Snapshot, Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.logger.With(zap.String("participant", participantID), zap.Int("color", int(color)))

	outcome := s.assignColor(participantID, color)
	if !outcome.Accepted {
		log.Debug("color choice rejected", zap.Error(outcome.Reason))
	} else {
		log.Info("color chosen", zap.String("status", string(s.status)))
	}
	return s.publishLocked(), outcome
}

func (s *Session) assignColor(participantID string, color engine.Player) Outcome {
	if !color.Valid() {
		return rejected(fmt.Errorf("color %d: %w", color, ErrInvalidColor))
	}
	if participantID == "" {
		return rejected(ErrInvalidParticipant)
	}
	current, registered := s.colors[participantID]
	if registered && current == color {
		return accepted()
	}
	for id, held := range s.colors {
		if held == color && id != participantID {
			return rejected(fmt.Errorf("%s: %w", color, ErrColorTaken))
		}
	}
	s.colors[participantID] = color
	if len(s.colors) == 2 && s.status == engine.StatusNotStarted {
		s.status = engine.StatusActive
	}
	return accepted()
}

// MakeMove places a stone for participantID. Rejected moves change nothing
// and are not broadcast.
func (s *Session) MakeMove(participantID string, x, y int) (engine.Snapshot, Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.logger.With(zap.String("participant", participantID), zap.Int("x", x), zap.Int("y", y))

	if err := s.checkMoveLocked(participantID); err != nil {
		log.Debug("move rejected", zap.Error(err))
		return s.snapshotLocked(), rejected(err)
	}

	placement, err := s.game.Play(x, y)
	if err != nil {
		log.Debug("move rejected", zap.Error(err))
		return s.snapshotLocked(), rejected(err)
	}

	s.history = append(s.history, engine.MoveRecord{
		Number:        len(s.history) + 1,
		ParticipantID: participantID,
		Player:        placement.Player,
		X:             x,
		Y:             y,
		Timestamp:     s.now().Unix(),
	})

	if placement.Win {
		msg := fmt.Sprintf("Player %d wins!", placement.Player)
		s.message = &msg
		s.status = engine.StatusEnded
		log.Info("game won", zap.Int("player", int(placement.Player)), zap.Int("moves", len(s.history)))
	}
	return s.publishLocked(), accepted()
}

func (s *Session) checkMoveLocked(participantID string) error {
	if s.status != engine.StatusActive {
		return fmt.Errorf("status %s: %w", s.status, ErrGameNotActive)
	}
	color, ok := s.colors[participantID]
	if !ok {
		return ErrUnknownParticipant
	}
	if color != s.game.CurrentPlayer() {
		return fmt.Errorf("%s to move: %w", s.game.CurrentPlayer(), ErrNotYourTurn)
	}
	return nil
}

// Reset restores the initial state and broadcasts it. Versions keep counting.
func (s *Session) Reset() engine.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.game.Reset()
	s.colors = make(map[string]engine.Player)
	s.status = engine.StatusNotStarted
	s.message = nil
	s.history = nil

	s.logger.Info("session reset")
	return s.publishLocked()
}

// QueryState returns the current snapshot without broadcasting
func (s *Session) QueryState() engine.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// History returns the stones accepted since the last reset
func (s *Session) History() []engine.MoveRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]engine.MoveRecord, len(s.history))
	copy(out, s.history)
	return out
}

// Colors returns a copy of the color assignment
func (s *Session) Colors() map[string]engine.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]engine.Player, len(s.colors))
	for id, c := range s.colors {
		out[id] = c
	}
	return out
}

// Status returns the lifecycle stage
func (s *Session) Status() engine.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// snapshotLocked projects the state at the current version
func (s *Session) snapshotLocked() engine.Snapshot {
	snap := engine.Snapshot{
		Board:         s.game.Cells(),
		CurrentPlayer: s.game.CurrentPlayer(),
		GameStarted:   s.status != engine.StatusNotStarted,
		Status:        s.status,
		Version:       s.version,
	}
	if s.message != nil {
		msg := *s.message
		snap.Message = &msg
	}
	return snap
}

// publishLocked assigns the next version and hands the snapshot over
func (s *Session) publishLocked() engine.Snapshot {
	s.version++
	snap := s.snapshotLocked()
	if s.publisher != nil {
		s.publisher.Publish(snap)
	}
	return snap
}
