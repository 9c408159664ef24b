package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

type memoryEntry struct {
	seq     int64
	payload []byte
}

// InMemoryStream is a process-local MessageTransport. Ids are "<seq>-0"
// with seq starting at 1 per stream.
type InMemoryStream struct {
	mu          sync.Mutex
	streams     map[string][]memoryEntry
	checkpoints map[string]string
	// changed is closed and replaced on every publish to wake readers.
	changed chan struct{}
}

var (
	_ MessageTransport = (*InMemoryStream)(nil)
	_ CheckpointStore  = (*InMemoryStream)(nil)
)

func NewInMemoryStream() *InMemoryStream {
	return &InMemoryStream{
		streams:     make(map[string][]memoryEntry),
		checkpoints: make(map[string]string),
		changed:     make(chan struct{}),
	}
}

func (s *InMemoryStream) PublishJSON(_ context.Context, stream string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal stream payload: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	seq := int64(len(s.streams[stream]) + 1)
	s.streams[stream] = append(s.streams[stream], memoryEntry{seq: seq, payload: data})
	close(s.changed)
	s.changed = make(chan struct{})
	return formatMemoryID(seq), nil
}

func (s *InMemoryStream) ReadJSON(ctx context.Context, stream, lastID string, dst any) (string, error) {
	after, err := parseStreamOffset(lastID)
	if err != nil {
		return "", err
	}

	for {
		s.mu.Lock()
		entries := s.streams[stream]
		wait := s.changed
		var next *memoryEntry
		if after < int64(len(entries)) {
			e := entries[after]
			next = &e
		}
		s.mu.Unlock()

		if next != nil {
			if err := json.Unmarshal(next.payload, dst); err != nil {
				return "", fmt.Errorf("decode message %s: %w", formatMemoryID(next.seq), err)
			}
			return formatMemoryID(next.seq), nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-wait:
		}
	}
}

func (s *InMemoryStream) LoadStreamCheckpoint(_ context.Context, key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkpoints[key], nil
}

func (s *InMemoryStream) PersistStreamCheckpoint(_ context.Context, key, streamID string) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	if err := validateStreamOffset(streamID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoints[key] = strings.TrimSpace(streamID)
	return nil
}

// Close drops all messages and checkpoints.
func (s *InMemoryStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streams = make(map[string][]memoryEntry)
	s.checkpoints = make(map[string]string)
	return nil
}

func formatMemoryID(seq int64) string {
	return strconv.FormatInt(seq, 10) + "-0"
}
