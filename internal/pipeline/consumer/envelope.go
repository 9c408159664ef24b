package consumer

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/emperorhan/incentives-indexer/internal/domain/event"
	redisstream "github.com/emperorhan/incentives-indexer/internal/store/redis"
)

// Envelope is the stream message format. Exactly one of Notification or Log
// is set; a raw Log is decoded with the block timestamp it travels with.
type Envelope struct {
	Notification   *event.Notification `json:"notification,omitempty"`
	Log            *types.Log          `json:"log,omitempty"`
	BlockTimestamp uint64              `json:"block_timestamp,omitempty"`
}

var errEnvelopeShape = errors.New("envelope must carry exactly one of notification or log")

func (e Envelope) validate() error {
	if (e.Notification == nil) == (e.Log == nil) {
		return errEnvelopeShape
	}
	return nil
}

// Delivery is a notification handed to the ingester together with the stream
// id to acknowledge once it is committed.
type Delivery struct {
	StreamID     string
	Notification event.Notification
}

// Publish appends env to stream.
func Publish(ctx context.Context, transport redisstream.MessageTransport, stream string, env Envelope) (string, error) {
	if err := env.validate(); err != nil {
		return "", err
	}
	if env.Notification != nil {
		if err := env.Notification.Validate(); err != nil {
			return "", fmt.Errorf("publish notification: %w", err)
		}
		if err := env.Notification.ValidatePosition(); err != nil {
			return "", fmt.Errorf("publish notification: %w", err)
		}
	}
	id, err := transport.PublishJSON(ctx, stream, env)
	if err != nil {
		return "", fmt.Errorf("publish to %s: %w", stream, err)
	}
	return id, nil
}
