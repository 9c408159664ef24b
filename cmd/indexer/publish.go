package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emperorhan/incentives-indexer/internal/pipeline/consumer"
	redisstream "github.com/emperorhan/incentives-indexer/internal/store/redis"
)

// maxEnvelopeLine bounds one JSON line; raw logs carry hex data.
const maxEnvelopeLine = 1 << 20

func newPublishCommand() *cobra.Command {
	var (
		file   string
		stream string
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish envelopes from a JSON-lines file to the notification stream",
		Long: `Publish one envelope per line, each carrying either a decoded
"notification" or a raw "log" with its "block_timestamp". Reads stdin when
--file is not given. Blank lines and lines starting with # are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup()
			if err != nil {
				return err
			}
			defer rt.close()

			in := cmd.InOrStdin()
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("open envelope file: %w", err)
				}
				defer f.Close()
				in = f
			}
			if stream == "" {
				stream = rt.cfg.Stream.Name
			}

			transport, err := redisstream.NewStream(rt.cfg.Redis.URL, redisstream.WithMaxLen(rt.cfg.Stream.MaxLen))
			if err != nil {
				return fmt.Errorf("initialize redis stream transport: %w", err)
			}
			defer transport.Close()

			n, err := publishEnvelopes(cmd.Context(), in, transport, stream, rt.logger)
			fmt.Fprintf(cmd.OutOrStdout(), "published %d envelopes to %s\n", n, stream)
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON-lines envelope file (default: stdin)")
	cmd.Flags().StringVar(&stream, "stream", "", "target stream (default: STREAM_NAME)")
	return cmd
}

// publishEnvelopes publishes every envelope in r in order and stops at the
// first invalid line, returning how many were published.
func publishEnvelopes(ctx context.Context, r io.Reader, transport redisstream.MessageTransport, stream string, logger *slog.Logger) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxEnvelopeLine)

	published, line := 0, 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		var env consumer.Envelope
		if err := json.Unmarshal([]byte(text), &env); err != nil {
			return published, fmt.Errorf("line %d: decode envelope: %w", line, err)
		}
		id, err := consumer.Publish(ctx, transport, stream, env)
		if err != nil {
			return published, fmt.Errorf("line %d: %w", line, err)
		}
		published++
		logger.Debug("envelope published", "stream", stream, "stream_id", id, "line", line)
	}
	if err := scanner.Err(); err != nil {
		return published, fmt.Errorf("read envelopes: %w", err)
	}
	return published, nil
}
