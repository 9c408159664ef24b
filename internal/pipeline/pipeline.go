package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/emperorhan/incentives-indexer/internal/alert"
	"github.com/emperorhan/incentives-indexer/internal/chain/evm"
	"github.com/emperorhan/incentives-indexer/internal/incentives"
	"github.com/emperorhan/incentives-indexer/internal/pipeline/consumer"
	"github.com/emperorhan/incentives-indexer/internal/pipeline/ingester"
	"github.com/emperorhan/incentives-indexer/internal/pipeline/retry"
	"github.com/emperorhan/incentives-indexer/internal/store"
	redisstream "github.com/emperorhan/incentives-indexer/internal/store/redis"
)

type Config struct {
	Stream            string
	ConsumerName      string
	ChannelBufferSize int
	RetryMaxAttempts  int
	BackoffInitial    time.Duration
	BackoffMax        time.Duration
	UnhealthyAfter    int
	Alerter           alert.Alerter
}

// Pipeline connects a stream consumer to the single-writer ingester.
type Pipeline struct {
	cfg        Config
	transport  redisstream.MessageTransport
	decoder    *evm.Decoder
	tx         store.Transactor
	reconciler *incentives.Reconciler
	logger     *slog.Logger
	health     *PipelineHealth
}

func New(
	cfg Config,
	transport redisstream.MessageTransport,
	decoder *evm.Decoder,
	tx store.Transactor,
	reconciler *incentives.Reconciler,
	logger *slog.Logger,
) *Pipeline {
	health := NewPipelineHealth(cfg.Stream)
	if cfg.UnhealthyAfter > 0 {
		health.unhealthyThreshold = cfg.UnhealthyAfter
	}
	return &Pipeline{
		cfg:        cfg,
		transport:  transport,
		decoder:    decoder,
		tx:         tx,
		reconciler: reconciler,
		logger:     logger.With("component", "pipeline", "stream", cfg.Stream),
		health:     health,
	}
}

// Stream returns the name of the consumed stream.
func (p *Pipeline) Stream() string { return p.cfg.Stream }

// Health returns the pipeline's health tracker.
func (p *Pipeline) Health() *PipelineHealth { return p.health }

// Run consumes the stream until ctx is cancelled or a stage fails. A
// failing stage cancels the other; the process is expected to restart and
// resume from the committed cursor.
func (p *Pipeline) Run(ctx context.Context) error {
	bufSize := p.cfg.ChannelBufferSize
	if bufSize < 0 {
		bufSize = 0
	}
	deliveries := make(chan consumer.Delivery, bufSize)

	consumerOpts := []consumer.Option{
		consumer.WithCheckpointKey(consumer.CheckpointKey(p.cfg.Stream, p.consumerName())),
	}
	if checkpoints, ok := p.transport.(redisstream.CheckpointStore); ok {
		consumerOpts = append(consumerOpts, consumer.WithCheckpointStore(checkpoints))
	}
	cons := consumer.New(p.transport, p.decoder, p.cfg.Stream, deliveries, p.logger, consumerOpts...)

	ingestOpts := []ingester.Option{
		ingester.WithHealthRecorder(p.health),
		ingester.WithCommitHook(func(ctx context.Context, d consumer.Delivery) error {
			return cons.Ack(ctx, d.StreamID)
		}),
	}
	if p.cfg.RetryMaxAttempts > 0 {
		ingestOpts = append(ingestOpts, ingester.WithRetryPolicy(retry.Policy{
			MaxAttempts: p.cfg.RetryMaxAttempts,
			BaseDelay:   p.cfg.BackoffInitial,
			MaxDelay:    p.cfg.BackoffMax,
		}))
	}
	if p.cfg.Alerter != nil {
		ingestOpts = append(ingestOpts, ingester.WithAlerter(p.cfg.Alerter))
	}
	ing := ingester.New(p.tx, p.reconciler, deliveries, p.cfg.Stream, p.logger, ingestOpts...)

	p.health.SetStatus(HealthStatusHealthy)
	p.logger.Info("pipeline started", "consumer", p.consumerName(), "buffer", bufSize)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(guard("consumer", func() error { return cons.Run(gCtx) }))
	g.Go(guard("ingester", func() error { return ing.Run(gCtx) }))

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		p.health.RecordFailure(err)
		p.logger.Error("pipeline stopped", "error", err)
		return err
	}
	p.logger.Info("pipeline stopped")
	return err
}

func (p *Pipeline) consumerName() string {
	name := strings.TrimSpace(p.cfg.ConsumerName)
	if name == "" {
		name = "default"
	}
	return name
}

// guard turns a panic in a stage into an error so errgroup shuts the
// pipeline down instead of crashing the process mid-transaction.
func guard(stage string, fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s panic: %v\n%s", stage, r, debug.Stack())
			}
		}()
		return fn()
	}
}
