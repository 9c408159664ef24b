package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	payloadField       = "payload"
	defaultReadBlock   = 2 * time.Second
	checkpointKeySpace = "incentives:checkpoint:"
)

// MessageTransport carries JSON messages on named, ordered streams.
type MessageTransport interface {
	PublishJSON(ctx context.Context, stream string, payload any) (string, error)
	// ReadJSON blocks until a message after lastID is available, decodes it
	// into dst and returns its id.
	ReadJSON(ctx context.Context, stream, lastID string, dst any) (string, error)
	Close() error
}

// CheckpointStore persists the last acknowledged stream id per key.
type CheckpointStore interface {
	LoadStreamCheckpoint(ctx context.Context, key string) (string, error)
	PersistStreamCheckpoint(ctx context.Context, key, streamID string) error
}

// Stream is a MessageTransport backed by Redis Streams.
type Stream struct {
	client    *redis.Client
	readBlock time.Duration
	maxLen    int64
}

var (
	_ MessageTransport = (*Stream)(nil)
	_ CheckpointStore  = (*Stream)(nil)
)

type StreamOption func(*Stream)

// WithMaxLen caps each stream at roughly n entries.
func WithMaxLen(n int64) StreamOption {
	return func(s *Stream) {
		s.maxLen = n
	}
}

// WithReadBlock sets how long a single XREAD waits before re-checking ctx.
func WithReadBlock(d time.Duration) StreamOption {
	return func(s *Stream) {
		if d > 0 {
			s.readBlock = d
		}
	}
}

func NewStream(url string, opts ...StreamOption) (*Stream, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(options)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	s := &Stream{client: client, readBlock: defaultReadBlock}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Stream) Close() error {
	return s.client.Close()
}

func (s *Stream) Client() *redis.Client {
	return s.client
}

func (s *Stream) PublishJSON(ctx context.Context, stream string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal stream payload: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{payloadField: data},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	id, err := s.client.XAdd(ctx, args).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", stream, err)
	}
	return id, nil
}

func (s *Stream) ReadJSON(ctx context.Context, stream, lastID string, dst any) (string, error) {
	if err := validateStreamOffset(lastID); err != nil {
		return "", fmt.Errorf("read %s: %w", stream, err)
	}
	if strings.TrimSpace(lastID) == "" {
		lastID = "0"
	}

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		res, err := s.client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{stream, lastID},
			Count:   1,
			Block:   s.readBlock,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			return "", fmt.Errorf("xread %s: %w", stream, err)
		}
		if len(res) == 0 || len(res[0].Messages) == 0 {
			continue
		}

		msg := res[0].Messages[0]
		raw, err := streamPayload(msg.Values[payloadField])
		if err != nil {
			return "", fmt.Errorf("message %s: %w", msg.ID, err)
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return "", fmt.Errorf("decode message %s: %w", msg.ID, err)
		}
		return msg.ID, nil
	}
}

func (s *Stream) LoadStreamCheckpoint(ctx context.Context, key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", nil
	}
	v, err := s.client.Get(ctx, checkpointKeySpace+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load checkpoint %s: %w", key, err)
	}
	return v, nil
}

func (s *Stream) PersistStreamCheckpoint(ctx context.Context, key, streamID string) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	if err := validateStreamOffset(streamID); err != nil {
		return fmt.Errorf("persist checkpoint %s: %w", key, err)
	}
	if err := s.client.Set(ctx, checkpointKeySpace+key, strings.TrimSpace(streamID), 0).Err(); err != nil {
		return fmt.Errorf("persist checkpoint %s: %w", key, err)
	}
	return nil
}

// parseStreamOffset returns the millisecond part of a stream id. Negative
// values clamp to zero.
func parseStreamOffset(id string) (int64, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return 0, nil
	}
	head := id
	if i := strings.IndexByte(id[1:], '-'); i >= 0 {
		head = id[:i+1]
	}
	v, err := strconv.ParseInt(head, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid stream offset %q: %w", id, err)
	}
	if v < 0 {
		return 0, nil
	}
	return v, nil
}

// validateStreamOffset accepts "", "<ms>" and "<ms>-<seq>" with
// non-negative parts.
func validateStreamOffset(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	parts := strings.Split(id, "-")
	if len(parts) > 2 {
		return fmt.Errorf("invalid stream offset %q", id)
	}
	for _, p := range parts {
		if p == "" {
			return fmt.Errorf("invalid stream offset %q", id)
		}
		if _, err := strconv.ParseUint(p, 10, 64); err != nil {
			return fmt.Errorf("invalid stream offset %q", id)
		}
	}
	return nil
}

// streamPayload extracts the raw bytes of a stream field value.
func streamPayload(v any) ([]byte, error) {
	switch p := v.(type) {
	case string:
		return []byte(p), nil
	case []byte:
		return p, nil
	case fmt.Stringer:
		return []byte(p.String()), nil
	default:
		return nil, fmt.Errorf("payload type %T not supported", v)
	}
}
