// Package redisrelay mirrors session snapshots into Redis so processes outside
// this server can observe the game. Every snapshot is published on a pub/sub
// channel and the newest one is kept under a plain key for late readers.
package redisrelay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/wricardo/connect6-live/config"
	"github.com/wricardo/connect6-live/game/engine"
	"github.com/wricardo/connect6-live/game/hub"
	"github.com/wricardo/connect6-live/game/service"
)

// ErrNoSnapshot is returned by Latest before anything was relayed
var ErrNoSnapshot = errors.New("no snapshot relayed yet")

const relayBuffer = 256

// Subscriber is the part of the game service the relay needs
type Subscriber interface {
	Subscribe(ctx context.Context, opts hub.SubscribeOptions) (*service.Stream, error)
}

type Relay struct {
	client    *redis.Client
	channel   string
	latestKey string
	logger    *zap.Logger
}

// New connects to Redis and checks the connection
func New(ctx context.Context, cfg config.Redis, logger *zap.Logger) (*Relay, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewWithClient(client, cfg.Channel, cfg.LatestKey, logger), nil
}

func NewWithClient(client *redis.Client, channel, latestKey string, logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{
		client:    client,
		channel:   channel,
		latestKey: latestKey,
		logger:    logger.Named("redisrelay"),
	}
}

// Run relays snapshots until ctx is done. A stream dropped by the hub for
// falling behind is replaced with a new one; the initial snapshot of the new
// stream covers whatever was missed.
func (r *Relay) Run(ctx context.Context, svc Subscriber) error {
	for {
		stream, err := svc.Subscribe(ctx, hub.SubscribeOptions{Label: "redis", Buffer: relayBuffer})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("subscribe: %w", err)
		}

		err = r.pump(ctx, stream)
		stream.Close()
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return err
		}
		r.logger.Warn("relay stream dropped, resubscribing")
	}
}

func (r *Relay) pump(ctx context.Context, stream *service.Stream) error {
	if err := r.Relay(ctx, stream.Initial); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-stream.Updates():
			if !ok {
				return nil
			}
			if !stream.Fresh(snap) {
				continue
			}
			if err := r.Relay(ctx, snap); err != nil {
				return err
			}
		}
	}
}

// Relay publishes one snapshot and stores it as the latest
func (r *Relay) Relay(ctx context.Context, snap engine.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("could not marshal snapshot: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.latestKey, data, 0)
	pipe.Publish(ctx, r.channel, data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to relay snapshot %d: %w", snap.Version, err)
	}

	r.logger.Debug("snapshot relayed", zap.Uint64("version", snap.Version))
	return nil
}

// Latest reads the most recently relayed snapshot
func (r *Relay) Latest(ctx context.Context) (*engine.Snapshot, error) {
	val, err := r.client.Get(ctx, r.latestKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}

	var snap engine.Snapshot
	if err := json.Unmarshal([]byte(val), &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

func (r *Relay) Close() error {
	return r.client.Close()
}
