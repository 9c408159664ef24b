package ingester

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/emperorhan/incentives-indexer/internal/alert"
	"github.com/emperorhan/incentives-indexer/internal/domain/event"
	"github.com/emperorhan/incentives-indexer/internal/domain/model"
	"github.com/emperorhan/incentives-indexer/internal/incentives"
	"github.com/emperorhan/incentives-indexer/internal/metrics"
	"github.com/emperorhan/incentives-indexer/internal/pipeline/consumer"
	"github.com/emperorhan/incentives-indexer/internal/pipeline/retry"
	"github.com/emperorhan/incentives-indexer/internal/store"
	"github.com/emperorhan/incentives-indexer/internal/tracing"
)

var defaultRetryPolicy = retry.Policy{
	MaxAttempts: 3,
	BaseDelay:   100 * time.Millisecond,
	MaxDelay:    time.Second,
}

// CommitHook runs after a delivery's transaction has committed.
type CommitHook func(ctx context.Context, d consumer.Delivery) error

// HealthRecorder receives committed deliveries and failures. Each method
// reports whether the call changed the stream's health state.
type HealthRecorder interface {
	RecordCommit(d consumer.Delivery, elapsed time.Duration) (recovered bool)
	RecordFailure(err error) (unhealthy bool)
}

// Ingester is the single writer. Each delivery is reconciled inside its own
// transaction together with the ingest cursor, so a redelivered notification
// at or below the cursor is skipped.
type Ingester struct {
	tx         store.Transactor
	reconciler *incentives.Reconciler
	in         <-chan consumer.Delivery
	stream     string
	logger     *slog.Logger
	alerter    alert.Alerter
	onCommit   CommitHook
	health     HealthRecorder

	retryPolicy retry.Policy
	sleepFn     func(context.Context, time.Duration) error
}

type Option func(*Ingester)

func WithRetryPolicy(p retry.Policy) Option {
	return func(ing *Ingester) {
		ing.retryPolicy = p
	}
}

// WithAlerter sends integrity faults and health transitions to a.
func WithAlerter(a alert.Alerter) Option {
	return func(ing *Ingester) {
		ing.alerter = a
	}
}

// WithCommitHook registers fn to acknowledge committed deliveries.
func WithCommitHook(fn CommitHook) Option {
	return func(ing *Ingester) {
		ing.onCommit = fn
	}
}

func WithHealthRecorder(h HealthRecorder) Option {
	return func(ing *Ingester) {
		ing.health = h
	}
}

func New(
	tx store.Transactor,
	reconciler *incentives.Reconciler,
	in <-chan consumer.Delivery,
	stream string,
	logger *slog.Logger,
	opts ...Option,
) *Ingester {
	ing := &Ingester{
		tx:          tx,
		reconciler:  reconciler,
		in:          in,
		stream:      stream,
		logger:      logger.With("component", "ingester", "stream", stream),
		retryPolicy: defaultRetryPolicy,
		sleepFn:     retry.Sleep,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(ing)
		}
	}
	return ing
}

// result is what one committed transaction did.
type result struct {
	outcome   incentives.Outcome
	duplicate bool
}

func (ing *Ingester) Run(ctx context.Context) error {
	ing.logger.Info("ingester started")

	for {
		select {
		case <-ctx.Done():
			ing.logger.Info("ingester stopping")
			return ctx.Err()
		case d, ok := <-ing.in:
			if !ok {
				ing.logger.Info("ingester input closed")
				return nil
			}
			n := d.Notification
			spanCtx, span := tracing.StartNotification(ctx, ing.stream, d.StreamID, n)
			start := time.Now()
			res, err := ing.processWithRetry(spanCtx, n)
			elapsed := time.Since(start)
			metrics.IngesterLatency.WithLabelValues(ing.stream).Observe(elapsed.Seconds())
			if err != nil {
				tracing.EndNotification(span, "", false, err)
				metrics.IngesterErrors.WithLabelValues(ing.stream).Inc()
				ing.logger.Error("process notification failed",
					"stream_id", d.StreamID,
					"kind", n.Kind,
					"tx_hash", n.TxHash,
					"error", err,
				)
				// Fail-fast: return error so errgroup cancels the pipeline.
				// The process will restart from the last committed cursor.
				return fmt.Errorf("ingester process notification failed: stream_id=%s: %w", d.StreamID, err)
			}
			tracing.EndNotification(span, string(res.outcome), res.duplicate, nil)

			ing.afterCommit(ctx, d, res, elapsed)
		}
	}
}

func (ing *Ingester) processWithRetry(ctx context.Context, n event.Notification) (result, error) {
	const stage = "ingester.process_notification"

	// An unpositioned notification would pass or fail the cursor check by
	// accident, so it is never applied.
	if err := n.ValidatePosition(); err != nil {
		return result{}, fmt.Errorf("terminal_failure stage=%s reason=unpositioned: %w", stage, err)
	}

	maxAttempts := ing.retryPolicy.Attempts()
	var lastErr error
	lastDecision := retry.Decision{
		Class:  retry.ClassTerminal,
		Reason: "unset",
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		res, err := ing.process(ctx, n)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return result{}, ctx.Err()
		}
		lastErr = err
		lastDecision = retry.Classify(err)
		ing.recordFailure(ctx, lastDecision, err)
		if !lastDecision.IsTransient() {
			return result{}, fmt.Errorf("terminal_failure stage=%s attempt=%d reason=%s: %w", stage, attempt, lastDecision.Reason, err)
		}
		if attempt == maxAttempts {
			break
		}

		metrics.IngesterRetriesTotal.WithLabelValues(ing.stream, lastDecision.Reason).Inc()
		ing.logger.Warn("process notification attempt failed; retrying",
			"stage", stage,
			"classification", lastDecision.Class,
			"classification_reason", lastDecision.Reason,
			"tx_hash", n.TxHash,
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"error", err,
		)
		if err := ing.sleepFn(ctx, ing.retryPolicy.Delay(attempt)); err != nil {
			return result{}, err
		}
	}

	return result{}, fmt.Errorf("transient_recovery_exhausted stage=%s attempts=%d reason=%s: %w", stage, maxAttempts, lastDecision.Reason, lastErr)
}

// process applies n and advances the cursor in one transaction.
func (ing *Ingester) process(ctx context.Context, n event.Notification) (result, error) {
	var res result
	err := ing.tx.InTx(ctx, func(st store.Store) error {
		res = result{}
		cursor, err := st.Cursors().Get(ctx, ing.stream)
		if err != nil {
			return fmt.Errorf("get cursor: %w", err)
		}
		if cursor.Covers(n.BlockNumber, n.LogIndex) {
			res.duplicate = true
			return nil
		}

		outcome, err := ing.reconciler.Handle(ctx, st, n)
		if err != nil {
			return fmt.Errorf("reconcile %s: %w", n.Kind, err)
		}
		res.outcome = outcome

		if err := st.Cursors().Advance(ctx, &model.IngestCursor{
			Stream:      ing.stream,
			BlockNumber: n.BlockNumber,
			LogIndex:    n.LogIndex,
			TxHash:      model.NormalizeAddress(n.TxHash),
		}); err != nil {
			return fmt.Errorf("advance cursor: %w", err)
		}
		return nil
	})
	return res, err
}

func (ing *Ingester) afterCommit(ctx context.Context, d consumer.Delivery, res result, elapsed time.Duration) {
	n := d.Notification

	if ing.health != nil {
		if ing.health.RecordCommit(d, elapsed) {
			ing.sendAlert(ctx, alert.Alert{
				Type:    alert.AlertTypeRecovery,
				Stream:  ing.stream,
				Title:   "Ingester recovered",
				Message: "notifications are committing again",
			})
		}
	}

	if res.duplicate {
		metrics.IngesterDuplicatesSkipped.WithLabelValues(ing.stream).Inc()
		ing.logger.Debug("notification already applied",
			"stream_id", d.StreamID,
			"block_number", n.BlockNumber,
			"log_index", n.LogIndex,
		)
	} else {
		metrics.IngesterNotificationsProcessed.WithLabelValues(ing.stream).Inc()
		metrics.ReconcilerOutcomesTotal.WithLabelValues(n.Kind.String(), string(res.outcome)).Inc()
		metrics.IngestCursorBlock.WithLabelValues(ing.stream).Set(float64(n.BlockNumber))
		ing.logger.Debug("notification committed",
			"stream_id", d.StreamID,
			"kind", n.Kind,
			"outcome", res.outcome,
			"block_number", n.BlockNumber,
			"log_index", n.LogIndex,
		)
		if res.outcome.IntegrityFault() {
			metrics.ReconcilerIntegrityFaults.WithLabelValues(n.Kind.String()).Inc()
			ing.sendAlert(ctx, integrityAlert(ing.stream, n, res.outcome))
		}
	}

	if ing.onCommit != nil {
		// A lost ack means redelivery after restart; the cursor skips it.
		if err := ing.onCommit(ctx, d); err != nil {
			ing.logger.Warn("commit hook failed", "stream_id", d.StreamID, "error", err)
		}
	}
}

func integrityAlert(stream string, n event.Notification, outcome incentives.Outcome) alert.Alert {
	title := "Reserve missing for mapped asset"
	subject := n.Instrument
	if outcome == incentives.OutcomeMissingUserReserve {
		title = "User reserve not initiated"
		subject = n.User + ":" + n.Instrument
	}
	return alert.Alert{
		Type:    alert.AlertTypeIntegrityFault,
		Stream:  stream,
		Subject: subject,
		Title:   title,
		Message: fmt.Sprintf("%s dropped at block %d", n.Kind, n.BlockNumber),
		Fields: map[string]string{
			"outcome":    string(outcome),
			"instrument": n.Instrument,
			"user":       n.User,
			"tx_hash":    n.TxHash,
			"block":      strconv.FormatUint(n.BlockNumber, 10),
			"log_index":  strconv.FormatUint(uint64(n.LogIndex), 10),
		},
	}
}

func (ing *Ingester) recordFailure(ctx context.Context, decision retry.Decision, err error) {
	if ing.health == nil || !ing.health.RecordFailure(err) {
		return
	}
	ing.sendAlert(ctx, alert.Alert{
		Type:    alert.AlertTypeUnhealthy,
		Stream:  ing.stream,
		Title:   "Ingester unhealthy",
		Message: err.Error(),
		Fields: map[string]string{
			"classification": string(decision.Class),
			"reason":         decision.Reason,
		},
	})
}

func (ing *Ingester) sendAlert(ctx context.Context, a alert.Alert) {
	if ing.alerter == nil {
		return
	}
	if err := ing.alerter.Send(ctx, a); err != nil {
		ing.logger.Warn("send alert failed", "type", a.Type, "error", err)
	}
}
