package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/wricardo/connect6-live/game/engine"
	"github.com/wricardo/connect6-live/game/hub"
	"github.com/wricardo/connect6-live/game/session"
)

const tracerName = "github.com/wricardo/connect6-live/game/service"

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	session GameSession
	hub     Broadcaster
	logger  *zap.Logger
	tracer  trace.Tracer
}

// NewGameService creates a new game service instance
func NewGameService(sess GameSession, broadcaster Broadcaster, logger *zap.Logger) GameService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &gameServiceImpl{
		session: sess,
		hub:     broadcaster,
		logger:  logger.Named("service"),
		tracer:  otel.Tracer(tracerName),
	}
}

// ChooseColor assigns a color to a participant
func (s *gameServiceImpl) ChooseColor(ctx context.Context, participantID string, color int) (*MoveResult, error) {
	ctx, span := s.tracer.Start(ctx, "GameService.ChooseColor", trace.WithAttributes(
		attribute.String("participant.id", participantID),
		attribute.Int("color", color),
	))
	defer span.End()

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	snap, outcome := s.session.ChooseColor(participantID, engine.Player(color))
	return s.result(span, snap, outcome), nil
}

// MakeMove places a stone for a participant
func (s *gameServiceImpl) MakeMove(ctx context.Context, participantID string, x, y int) (*MoveResult, error) {
	ctx, span := s.tracer.Start(ctx, "GameService.MakeMove", trace.WithAttributes(
		attribute.String("participant.id", participantID),
		attribute.Int("x", x),
		attribute.Int("y", y),
	))
	defer span.End()

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	snap, outcome := s.session.MakeMove(participantID, x, y)
	if outcome.Accepted && snap.Status == engine.StatusEnded {
		span.AddEvent("game won", trace.WithAttributes(attribute.String("participant.id", participantID)))
	}
	return s.result(span, snap, outcome), nil
}

// Reset restores the initial game state
func (s *gameServiceImpl) Reset(ctx context.Context) (*engine.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "GameService.Reset")
	defer span.End()

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	snap := s.session.Reset()
	span.SetAttributes(attribute.Int64("version", int64(snap.Version)))
	return &snap, nil
}

// GetState returns the current snapshot
func (s *gameServiceImpl) GetState(ctx context.Context) (*engine.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := s.session.QueryState()
	return &snap, nil
}

// History returns the stones played since the last reset
func (s *gameServiceImpl) History(ctx context.Context) ([]engine.MoveRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.session.History(), nil
}

// Subscribe opens a stream for an observer. The subscription is registered
// before the initial state is read, so no snapshot falls between the two.
// The stream is closed when ctx ends.
func (s *gameServiceImpl) Subscribe(ctx context.Context, opts hub.SubscribeOptions) (*Stream, error) {
	ctx, span := s.tracer.Start(ctx, "GameService.Subscribe", trace.WithAttributes(
		attribute.String("observer.label", opts.Label),
	))
	defer span.End()

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	sub, err := s.hub.Subscribe(opts)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	initial := s.session.QueryState()
	stream := &Stream{
		Initial: initial,
		sub:     sub,
		hub:     s.hub,
		last:    initial.Version,
	}
	stream.stop = context.AfterFunc(ctx, stream.Close)

	s.logger.Debug("observer subscribed",
		zap.String("id", sub.ID),
		zap.String("label", opts.Label),
		zap.Uint64("version", initial.Version))
	return stream, nil
}

func (s *gameServiceImpl) result(span trace.Span, snap engine.Snapshot, outcome session.Outcome) *MoveResult {
	res := &MoveResult{
		Accepted: outcome.Accepted,
		State:    &snap,
		Err:      outcome.Reason,
	}
	if outcome.Reason != nil {
		res.Reason = outcome.Reason.Error()
	}
	span.SetAttributes(
		attribute.Bool("accepted", res.Accepted),
		attribute.Int64("version", int64(snap.Version)),
	)
	if !res.Accepted {
		span.SetAttributes(attribute.String("reason", res.Reason))
	}
	return res
}
