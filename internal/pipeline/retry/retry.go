// Package retry decides whether a failed reconciliation transaction may be
// attempted again, and how long to wait before doing so.
package retry

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"math/rand/v2"
	"net"
	"strings"
	"time"

	"github.com/lib/pq"
)

type Class string

const (
	ClassTerminal  Class = "terminal"
	ClassTransient Class = "transient"
)

// Decision is the outcome of classifying an error. Reason is a stable,
// low-cardinality label used in metrics and logs.
type Decision struct {
	Class  Class
	Reason string
}

func (d Decision) IsTransient() bool {
	return d.Class == ClassTransient
}

type markedError struct {
	error
	decision Decision
}

func (e *markedError) Unwrap() error { return e.error }

// Transient marks err as retryable regardless of what it wraps.
func Transient(err error) error {
	return mark(err, Decision{Class: ClassTransient, Reason: "explicit_transient"})
}

// Terminal marks err as not retryable regardless of what it wraps.
func Terminal(err error) error {
	return mark(err, Decision{Class: ClassTerminal, Reason: "explicit_terminal"})
}

func mark(err error, d Decision) error {
	if err == nil {
		return nil
	}
	return &markedError{error: err, decision: d}
}

type rule struct {
	match    func(error) bool
	decision Decision
}

func is(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

// rules are evaluated in order after explicit marks and Postgres codes.
var rules = []rule{
	{is(context.Canceled), Decision{ClassTerminal, "context_canceled"}},
	{is(context.DeadlineExceeded), Decision{ClassTransient, "context_deadline_exceeded"}},
	{is(driver.ErrBadConn), Decision{ClassTransient, "driver_bad_conn"}},
	{is(sql.ErrConnDone), Decision{ClassTransient, "sql_conn_done"}},
	{is(io.ErrUnexpectedEOF), Decision{ClassTransient, "connection_eof"}},
	{is(sql.ErrTxDone), Decision{ClassTerminal, "sql_tx_done"}},
	{func(err error) bool {
		var netErr net.Error
		return errors.As(err, &netErr) && netErr.Timeout()
	}, Decision{ClassTransient, "net_timeout"}},
	{func(err error) bool {
		var opErr *net.OpError
		return errors.As(err, &opErr) && opErr.Op == "dial"
	}, Decision{ClassTransient, "net_dial"}},
	{messageContains(terminalMessageTokens), Decision{ClassTerminal, "message_terminal"}},
	{messageContains(transientMessageTokens), Decision{ClassTransient, "message_transient"}},
}

// Classify reports whether err is worth another attempt. Anything it does
// not recognise is terminal.
func Classify(err error) Decision {
	if err == nil {
		return Decision{Class: ClassTerminal, Reason: "nil_error"}
	}

	var marked *markedError
	if errors.As(err, &marked) {
		return marked.decision
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return classifyPostgresCode(pqErr.Code)
	}
	for _, r := range rules {
		if r.match(err) {
			return r.decision
		}
	}
	return Decision{Class: ClassTerminal, Reason: "unknown_terminal_default"}
}

// classifyPostgresCode treats serialization failures, deadlocks, lock
// timeouts, connection loss and resource exhaustion as retryable.
func classifyPostgresCode(code pq.ErrorCode) Decision {
	switch code {
	case "40001":
		return Decision{ClassTransient, "pg_serialization_failure"}
	case "40P01":
		return Decision{ClassTransient, "pg_deadlock_detected"}
	case "55P03":
		return Decision{ClassTransient, "pg_lock_not_available"}
	case "57014":
		return Decision{ClassTransient, "pg_query_canceled"}
	case "57P01", "57P02", "57P03":
		return Decision{ClassTransient, "pg_admin_shutdown"}
	}
	switch code.Class() {
	case "08":
		return Decision{ClassTransient, "pg_connection_exception"}
	case "53":
		return Decision{ClassTransient, "pg_insufficient_resources"}
	}
	return Decision{ClassTerminal, "pg_" + code.Name()}
}

func messageContains(tokens []string) func(error) bool {
	return func(err error) bool {
		msg := strings.ToLower(err.Error())
		for _, token := range tokens {
			if strings.Contains(msg, token) {
				return true
			}
		}
		return false
	}
}

var transientMessageTokens = []string{
	"timed out",
	"temporar",
	"connection reset",
	"connection refused",
	"broken pipe",
	"bad connection",
	"too many clients",
	"server closed idle connection",
}

var terminalMessageTokens = []string{
	"invalid argument",
	"constraint violation",
	"numeric field overflow",
	"out of range",
}

// Policy bounds how often a transaction is retried and how long the caller
// waits between attempts.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Attempts is the total number of tries, never less than one.
func (p Policy) Attempts() int {
	return max(p.MaxAttempts, 1)
}

// Delay is the wait after the given failed attempt (1-based): BaseDelay
// doubled per prior attempt, capped at MaxDelay, plus up to 25% jitter.
func (p Policy) Delay(attempt int) time.Duration {
	delay := p.BaseDelay
	if delay <= 0 {
		return 0
	}
	for i := 1; i < attempt; i++ {
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			break
		}
		delay *= 2
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	if quarter := int64(delay) / 4; quarter > 0 {
		delay += time.Duration(rand.Int64N(quarter))
	}
	return delay
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
