package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/emperorhan/incentives-indexer/internal/chain/evm"
	"github.com/emperorhan/incentives-indexer/internal/domain/event"
	"github.com/emperorhan/incentives-indexer/internal/metrics"
	redisstream "github.com/emperorhan/incentives-indexer/internal/store/redis"
)

const (
	resultDelivered = "delivered"
	resultSkipped   = "skipped"
	resultMalformed = "malformed"
	resultRemoved   = "removed"
)

// Consumer reads envelopes from a stream in order, decodes them and feeds
// the ingester. Checkpoints are written by Ack only, after the ingester has
// committed the delivery.
type Consumer struct {
	transport     redisstream.MessageTransport
	checkpoints   redisstream.CheckpointStore
	decoder       *evm.Decoder
	stream        string
	checkpointKey string
	out           chan<- Delivery
	logger        *slog.Logger
	instanceID    string
}

type Option func(*Consumer)

// WithCheckpointStore enables resume from, and Ack into, store.
func WithCheckpointStore(store redisstream.CheckpointStore) Option {
	return func(c *Consumer) {
		c.checkpoints = store
	}
}

// WithCheckpointKey overrides the default checkpoint key.
func WithCheckpointKey(key string) Option {
	return func(c *Consumer) {
		if strings.TrimSpace(key) != "" {
			c.checkpointKey = key
		}
	}
}

func New(
	transport redisstream.MessageTransport,
	decoder *evm.Decoder,
	stream string,
	out chan<- Delivery,
	logger *slog.Logger,
	opts ...Option,
) *Consumer {
	c := &Consumer{
		transport:     transport,
		decoder:       decoder,
		stream:        stream,
		checkpointKey: CheckpointKey(stream, "default"),
		out:           out,
		instanceID:    uuid.NewString(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.logger = logger.With("component", "consumer", "stream", stream, "consumer_id", c.instanceID)
	return c
}

// CheckpointKey is the checkpoint key of consumer group name on stream.
func CheckpointKey(stream, name string) string {
	return fmt.Sprintf("stream-checkpoint:stream=%s:consumer=%s", stream, name)
}

// Run delivers messages until ctx is cancelled or the transport fails. It
// closes the output channel on return.
func (c *Consumer) Run(ctx context.Context) error {
	defer close(c.out)

	lastID := c.loadCheckpoint(ctx)
	c.logger.Info("consumer started", "from_id", lastID)

	for {
		var raw json.RawMessage
		id, err := c.transport.ReadJSON(ctx, c.stream, lastID, &raw)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				c.logger.Info("consumer stopping")
				return err
			}
			metrics.ConsumerErrors.WithLabelValues(c.stream).Inc()
			return fmt.Errorf("consumer read %s: %w", c.stream, err)
		}
		lastID = id

		n, ok := c.decode(id, raw)
		if !ok {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case c.out <- Delivery{StreamID: id, Notification: n}:
			metrics.ConsumerMessagesTotal.WithLabelValues(c.stream, resultDelivered).Inc()
		}
	}
}

// decode turns a raw message into a notification. Messages that cannot be
// applied are logged and skipped so one bad entry never stalls the stream.
func (c *Consumer) decode(id string, raw json.RawMessage) (event.Notification, bool) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.skip(id, resultMalformed, "malformed envelope", err)
		return event.Notification{}, false
	}
	if err := env.validate(); err != nil {
		c.skip(id, resultMalformed, "malformed envelope", err)
		return event.Notification{}, false
	}

	if env.Notification != nil {
		n := env.Notification.Normalized()
		err := n.Validate()
		if err == nil {
			err = n.ValidatePosition()
		}
		if err != nil {
			c.skip(id, resultMalformed, "invalid notification", err)
			return event.Notification{}, false
		}
		return n, true
	}

	if env.Log.Removed {
		metrics.ConsumerMessagesTotal.WithLabelValues(c.stream, resultRemoved).Inc()
		c.logger.Warn("removed log skipped",
			"stream_id", id,
			"tx_hash", env.Log.TxHash.Hex(),
			"block", env.Log.BlockNumber,
			"log_index", env.Log.Index,
		)
		return event.Notification{}, false
	}

	n, err := c.decoder.Decode(*env.Log, env.BlockTimestamp)
	switch {
	case err == nil:
		return n, true
	case errors.Is(err, evm.ErrUnknownEvent), errors.Is(err, evm.ErrUnexpectedEmitter):
		metrics.ConsumerMessagesTotal.WithLabelValues(c.stream, resultSkipped).Inc()
		c.logger.Debug("log skipped", "stream_id", id, "reason", err)
		return event.Notification{}, false
	default:
		c.skip(id, resultMalformed, "undecodable log", err)
		return event.Notification{}, false
	}
}

func (c *Consumer) skip(id, result, msg string, err error) {
	metrics.ConsumerMessagesTotal.WithLabelValues(c.stream, result).Inc()
	c.logger.Error(msg, "stream_id", id, "error", err)
}

// Ack records streamID as the resume point. Call it only after the delivery
// carrying streamID has been committed.
func (c *Consumer) Ack(ctx context.Context, streamID string) error {
	if c.checkpoints == nil {
		return nil
	}
	if err := c.checkpoints.PersistStreamCheckpoint(ctx, c.checkpointKey, streamID); err != nil {
		metrics.ConsumerErrors.WithLabelValues(c.stream).Inc()
		return fmt.Errorf("ack %s: %w", streamID, err)
	}
	metrics.ConsumerCheckpointsPersisted.WithLabelValues(c.stream).Inc()
	return nil
}

func (c *Consumer) loadCheckpoint(ctx context.Context) string {
	if c.checkpoints == nil {
		return "0"
	}
	raw, err := c.checkpoints.LoadStreamCheckpoint(ctx, c.checkpointKey)
	if err != nil {
		c.logger.Warn("stream checkpoint load failed; bootstrapping from stream start",
			"checkpoint_key", c.checkpointKey, "error", err)
		return "0"
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "0"
	}
	return trimmed
}
