package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emperorhan/incentives-indexer/internal/domain/event"
	"github.com/emperorhan/incentives-indexer/internal/pipeline/consumer"
	redisstream "github.com/emperorhan/incentives-indexer/internal/store/redis"
)

const envelopeLines = `
# reserve index then a user checkpoint
{"notification":{"kind":"asset_index_updated","controller":"0xd784927ff2f95ba542bfc824c8a8a98f3495f6b5","tx_hash":"0x01","block_number":10,"log_index":0,"timestamp":1700000000,"instrument":"0x028171bca77440897b824ca71d1c56cac55b68a3","value":500}}

{"notification":{"kind":"user_index_updated","controller":"0xd784927ff2f95ba542bfc824c8a8a98f3495f6b5","tx_hash":"0x01","block_number":10,"log_index":1,"timestamp":1700000000,"instrument":"0x028171bca77440897b824ca71d1c56cac55b68a3","user":"0x00000000000000000000000000000000000000f1","value":21}}
`

func readEnvelope(t *testing.T, s *redisstream.InMemoryStream, lastID string) (consumer.Envelope, string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var env consumer.Envelope
	id, err := s.ReadJSON(ctx, "incentives", lastID, &env)
	require.NoError(t, err)
	return env, id
}

func TestPublishEnvelopes(t *testing.T) {
	s := redisstream.NewInMemoryStream()
	defer s.Close()

	n, err := publishEnvelopes(context.Background(), strings.NewReader(envelopeLines), s, "incentives", discardLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	first, id := readEnvelope(t, s, "0")
	require.NotNil(t, first.Notification)
	assert.Equal(t, event.KindAssetIndexUpdated, first.Notification.Kind)
	assert.Equal(t, int64(500), first.Notification.Value.Int64())

	second, _ := readEnvelope(t, s, id)
	require.NotNil(t, second.Notification)
	assert.Equal(t, event.KindUserIndexUpdated, second.Notification.Kind)
	assert.Equal(t, "0x00000000000000000000000000000000000000f1", second.Notification.User)
}

func TestPublishEnvelopes_StopsAtInvalidLine(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantN   int
		wantErr string
	}{
		{
			name:    "malformed json",
			input:   `{"notification":{"kind":"rewards_accrued","tx_hash":"0x01","block_number":1,"user":"0xf1","value":1}}` + "\n{not json}\n",
			wantN:   1,
			wantErr: "line 2: decode envelope",
		},
		{
			name:    "empty envelope",
			input:   "{}\n",
			wantN:   0,
			wantErr: "line 1",
		},
		{
			name:    "notification missing user",
			input:   `{"notification":{"kind":"rewards_claimed","value":1}}` + "\n",
			wantN:   0,
			wantErr: "missing user",
		},
		{
			name:    "notification missing position",
			input:   `{"notification":{"kind":"rewards_claimed","tx_hash":"0x02","user":"0xf1","value":1}}` + "\n",
			wantN:   0,
			wantErr: "missing block position",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := redisstream.NewInMemoryStream()
			defer s.Close()

			n, err := publishEnvelopes(context.Background(), strings.NewReader(tt.input), s, "incentives", discardLogger())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, tt.wantN, n)
		})
	}
}

func TestPublishEnvelopes_EmptyInput(t *testing.T) {
	s := redisstream.NewInMemoryStream()
	defer s.Close()

	n, err := publishEnvelopes(context.Background(), strings.NewReader("\n# nothing\n"), s, "incentives", discardLogger())
	require.NoError(t, err)
	assert.Zero(t, n)
}
