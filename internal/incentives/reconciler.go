package incentives

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/emperorhan/incentives-indexer/internal/domain/event"
	"github.com/emperorhan/incentives-indexer/internal/domain/model"
	"github.com/emperorhan/incentives-indexer/internal/store"
)

// Outcome describes what a notification did to the snapshot.
type Outcome string

const (
	OutcomeApplied                Outcome = "applied"
	OutcomeUnknownRole            Outcome = "unknown_role"
	OutcomeUnregisteredInstrument Outcome = "unregistered_instrument"
	OutcomeMissingReserve         Outcome = "missing_reserve"
	OutcomeMissingUserReserve     Outcome = "missing_user_reserve"
	OutcomeRejected               Outcome = "rejected"
)

// Dropped reports whether the notification was discarded because the
// snapshot lacks data it depends on.
func (o Outcome) Dropped() bool {
	switch o {
	case OutcomeUnregisteredInstrument, OutcomeMissingReserve, OutcomeMissingUserReserve, OutcomeRejected:
		return true
	default:
		return false
	}
}

// IntegrityFault reports whether the outcome points at an aggregate that the
// registration flow should have created.
func (o Outcome) IntegrityFault() bool {
	return o == OutcomeMissingReserve || o == OutcomeMissingUserReserve
}

// Reconciler applies incentives-controller notifications to the snapshot.
// It holds no state of its own; every call works against the Store it is
// given, which callers bind to one transaction per notification. Failures
// caused by missing snapshot data are logged and reported as an Outcome;
// only collaborator errors are returned.
type Reconciler struct {
	logger        *slog.Logger
	userIndexMode UserIndexMode
}

type Option func(*Reconciler)

// WithUserIndexMode selects how user index updates are stored.
func WithUserIndexMode(mode UserIndexMode) Option {
	return func(r *Reconciler) {
		r.userIndexMode = mode
	}
}

func NewReconciler(logger *slog.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		logger:        logger.With("component", "reconciler"),
		userIndexMode: UserIndexModeRole,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Handle dispatches n to the entry point for its kind.
func (r *Reconciler) Handle(ctx context.Context, st store.Store, n event.Notification) (Outcome, error) {
	n = n.Normalized()
	if err := n.Validate(); err != nil {
		r.logger.Error("notification rejected",
			"tx_hash", n.TxHash,
			"block_number", n.BlockNumber,
			"log_index", n.LogIndex,
			"error", err,
		)
		return OutcomeRejected, nil
	}

	switch n.Kind {
	case event.KindEmissionRateChanged:
		return r.EmissionRateChanged(ctx, st, n)
	case event.KindAssetIndexUpdated:
		return r.AssetIndexUpdated(ctx, st, n)
	case event.KindUserIndexUpdated:
		return r.UserIndexUpdated(ctx, st, n)
	case event.KindRewardsAccrued:
		return r.RewardsAccrued(ctx, st, n)
	default:
		return r.RewardsClaimed(ctx, st, n)
	}
}

// EmissionRateChanged sets the emission per second of the instrument's role.
func (r *Reconciler) EmissionRateChanged(ctx context.Context, st store.Store, n event.Notification) (Outcome, error) {
	return r.updateReserve(ctx, st, n, ApplyEmissionRate)
}

// AssetIndexUpdated sets the incentives index of the instrument's role.
func (r *Reconciler) AssetIndexUpdated(ctx context.Context, st store.Store, n event.Notification) (Outcome, error) {
	return r.updateReserve(ctx, st, n, ApplyAssetIndex)
}

func (r *Reconciler) updateReserve(
	ctx context.Context,
	st store.Store,
	n event.Notification,
	apply func(*model.Reserve, model.Role, *big.Int, int32) *model.Reserve,
) (Outcome, error) {
	reserve, outcome, err := r.resolveReserve(ctx, st, n)
	if err != nil || reserve == nil {
		return outcome, err
	}

	role := r.resolveRole(n, reserve)
	if !role.Known() {
		return OutcomeUnknownRole, nil
	}

	next := apply(reserve, role, n.Value, n.TruncatedTimestamp())
	if err := st.Reserves().Save(ctx, next); err != nil {
		return "", fmt.Errorf("save reserve %s: %w", next.ID, err)
	}
	return OutcomeApplied, nil
}

// UserIndexUpdated sets the user's index for the instrument's role.
func (r *Reconciler) UserIndexUpdated(ctx context.Context, st store.Store, n event.Notification) (Outcome, error) {
	reserve, outcome, err := r.resolveReserve(ctx, st, n)
	if err != nil || reserve == nil {
		return outcome, err
	}

	userReserveID := model.UserReserveID(n.User, reserve.ID)
	userReserve, err := st.UserReserves().Get(ctx, userReserveID)
	if err != nil {
		return "", fmt.Errorf("load user reserve %s: %w", userReserveID, err)
	}
	if userReserve == nil {
		r.logger.Error("user reserve not initiated",
			"user", n.User,
			"asset", n.Instrument,
			"reserve_id", reserve.ID,
			"tx_hash", n.TxHash,
		)
		return OutcomeMissingUserReserve, nil
	}

	role := r.resolveRole(n, reserve)
	if !role.Known() {
		return OutcomeUnknownRole, nil
	}

	next := ApplyUserIndex(userReserve, role, n.Value, n.TruncatedTimestamp(), r.userIndexMode)
	if err := st.UserReserves().Save(ctx, next); err != nil {
		return "", fmt.Errorf("save user reserve %s: %w", next.ID, err)
	}
	return OutcomeApplied, nil
}

// RewardsAccrued adds the accrued amount to the user's total and records an
// IncentivizedAction keyed by transaction hash.
func (r *Reconciler) RewardsAccrued(ctx context.Context, st store.Store, n event.Notification) (Outcome, error) {
	user, err := st.Users().GetOrInit(ctx, n.User)
	if err != nil {
		return "", fmt.Errorf("load user %s: %w", n.User, err)
	}
	if err := st.Users().Save(ctx, ApplyAccrual(user, n.Value, n.TruncatedTimestamp())); err != nil {
		return "", fmt.Errorf("save user %s: %w", n.User, err)
	}

	action := &model.IncentivizedAction{
		ID:                   n.TxHash,
		IncentivesController: n.Controller,
		User:                 n.User,
		Amount:               orZero(n.Value),
		BlockNumber:          n.BlockNumber,
		Timestamp:            n.TruncatedTimestamp(),
	}
	if err := st.Audit().SaveIncentivizedAction(ctx, action); err != nil {
		return "", fmt.Errorf("save incentivized action %s: %w", n.TxHash, err)
	}
	return OutcomeApplied, nil
}

// RewardsClaimed subtracts the claimed amount from the user's total and
// records a ClaimIncentiveCall keyed by transaction hash.
func (r *Reconciler) RewardsClaimed(ctx context.Context, st store.Store, n event.Notification) (Outcome, error) {
	user, err := st.Users().GetOrInit(ctx, n.User)
	if err != nil {
		return "", fmt.Errorf("load user %s: %w", n.User, err)
	}
	if err := st.Users().Save(ctx, ApplyClaim(user, n.Value, n.TruncatedTimestamp())); err != nil {
		return "", fmt.Errorf("save user %s: %w", n.User, err)
	}

	claim := &model.ClaimIncentiveCall{
		ID:                   n.TxHash,
		IncentivesController: n.Controller,
		User:                 n.User,
		Amount:               orZero(n.Value),
		BlockNumber:          n.BlockNumber,
		Timestamp:            n.TruncatedTimestamp(),
	}
	if err := st.Audit().SaveClaimIncentiveCall(ctx, claim); err != nil {
		return "", fmt.Errorf("save claim incentive call %s: %w", n.TxHash, err)
	}
	return OutcomeApplied, nil
}

// resolveReserve maps the instrument to its reserve. A nil reserve with a nil
// error means the notification must be dropped with the returned outcome.
func (r *Reconciler) resolveReserve(ctx context.Context, st store.Store, n event.Notification) (*model.Reserve, Outcome, error) {
	mapping, err := st.Registry().GetMapping(ctx, n.Instrument)
	if err != nil {
		return nil, "", fmt.Errorf("load instrument mapping %s: %w", n.Instrument, err)
	}
	if mapping == nil {
		r.logger.Error("mapping not initiated for asset",
			"asset", n.Instrument,
			"kind", n.Kind,
			"tx_hash", n.TxHash,
		)
		return nil, OutcomeUnregisteredInstrument, nil
	}

	reserveID := mapping.ReserveID()
	reserve, err := st.Reserves().Get(ctx, reserveID)
	if err != nil {
		return nil, "", fmt.Errorf("load reserve %s: %w", reserveID, err)
	}
	if reserve == nil {
		r.logger.Error("reserve not found for mapped asset",
			"asset", n.Instrument,
			"reserve_id", reserveID,
			"kind", n.Kind,
			"tx_hash", n.TxHash,
		)
		return nil, OutcomeMissingReserve, nil
	}
	return reserve, "", nil
}

func (r *Reconciler) resolveRole(n event.Notification, reserve *model.Reserve) model.Role {
	role, matches := ResolveRole(n.Instrument, reserve)
	switch {
	case matches > 1:
		r.logger.Warn("instrument matches several reserve roles",
			"asset", n.Instrument,
			"reserve_id", reserve.ID,
			"matches", matches,
			"resolved_role", role.String(),
		)
	case !role.Known():
		r.logger.Debug("instrument matches no reserve role",
			"asset", n.Instrument,
			"reserve_id", reserve.ID,
			"kind", n.Kind,
		)
	}
	return role
}
