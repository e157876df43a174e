package service

import (
	"context"

	"github.com/wricardo/connect6-live/game/engine"
	"github.com/wricardo/connect6-live/game/hub"
	"github.com/wricardo/connect6-live/game/session"
)

// GameService defines all game-related operations
type GameService interface {
	// Participants
	ChooseColor(ctx context.Context, participantID string, color int) (*MoveResult, error)
	MakeMove(ctx context.Context, participantID string, x, y int) (*MoveResult, error)
	Reset(ctx context.Context) (*engine.Snapshot, error)

	// Game State
	GetState(ctx context.Context) (*engine.Snapshot, error)
	History(ctx context.Context) ([]engine.MoveRecord, error)

	// Observers
	Subscribe(ctx context.Context, opts hub.SubscribeOptions) (*Stream, error)
}

// GameSession is the state machine behind the service
type GameSession interface {
	ChooseColor(participantID string, color engine.Player) (engine.Snapshot, session.Outcome)
	MakeMove(participantID string, x, y int) (engine.Snapshot, session.Outcome)
	Reset() engine.Snapshot
	QueryState() engine.Snapshot
	History() []engine.MoveRecord
}

// Broadcaster hands out live snapshot subscriptions
type Broadcaster interface {
	Subscribe(opts hub.SubscribeOptions) (*hub.Subscription, error)
	Unsubscribe(sub *hub.Subscription)
}
