package event

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/emperorhan/incentives-indexer/internal/domain/model"
)

// Kind identifies the incentives-controller event a notification carries.
type Kind string

const (
	KindEmissionRateChanged Kind = "emission_rate_changed" // AssetConfigUpdated
	KindAssetIndexUpdated   Kind = "asset_index_updated"
	KindUserIndexUpdated    Kind = "user_index_updated"
	KindRewardsAccrued      Kind = "rewards_accrued"
	KindRewardsClaimed      Kind = "rewards_claimed"
)

func (k Kind) String() string {
	return string(k)
}

// Notification is one decoded incentives-controller event, delivered in
// block order, then log order.
type Notification struct {
	Kind Kind `json:"kind"`

	// Controller is the address of the emitting incentives controller.
	Controller  string `json:"controller"`
	TxHash      string `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number"`
	LogIndex    uint32 `json:"log_index"`
	// Timestamp is the block timestamp in seconds.
	Timestamp uint64 `json:"timestamp"`

	Instrument string `json:"instrument,omitempty"`
	User       string `json:"user,omitempty"`
	// To is the reward recipient of a claim.
	To string `json:"to,omitempty"`

	// Value is the emission per second, index or amount depending on Kind.
	Value *big.Int `json:"value"`
}

var (
	errMissingValue      = errors.New("missing value")
	errMissingInstrument = errors.New("missing instrument")
	errMissingUser       = errors.New("missing user")
	errMissingTxHash     = errors.New("missing tx hash")

	// ErrMissingPosition marks a notification without a block position.
	// The ingest cursor orders by (block, log index), so such a
	// notification would be indistinguishable from an applied one.
	ErrMissingPosition = errors.New("missing block position")
)

// Validate checks that the fields required by Kind are present.
func (n Notification) Validate() error {
	if n.Value == nil {
		return fmt.Errorf("%s: %w", n.Kind, errMissingValue)
	}
	switch n.Kind {
	case KindEmissionRateChanged, KindAssetIndexUpdated:
		if n.Instrument == "" {
			return fmt.Errorf("%s: %w", n.Kind, errMissingInstrument)
		}
	case KindUserIndexUpdated:
		if n.Instrument == "" {
			return fmt.Errorf("%s: %w", n.Kind, errMissingInstrument)
		}
		if n.User == "" {
			return fmt.Errorf("%s: %w", n.Kind, errMissingUser)
		}
	case KindRewardsAccrued, KindRewardsClaimed:
		if n.User == "" {
			return fmt.Errorf("%s: %w", n.Kind, errMissingUser)
		}
		// Audit records are keyed by transaction hash.
		if n.TxHash == "" {
			return fmt.Errorf("%s: %w", n.Kind, errMissingTxHash)
		}
	default:
		return fmt.Errorf("unsupported notification kind %q", n.Kind)
	}
	return nil
}

// ValidatePosition checks that n carries a stream position. Block 0 holds
// no controller logs, so a zero block number means the position was unset.
func (n Notification) ValidatePosition() error {
	if n.BlockNumber == 0 {
		return fmt.Errorf("%s: %w", n.Kind, ErrMissingPosition)
	}
	return nil
}

// Normalized returns a copy with every address in canonical form.
func (n Notification) Normalized() Notification {
	n.Controller = model.NormalizeAddress(n.Controller)
	n.TxHash = model.NormalizeAddress(n.TxHash)
	n.Instrument = model.NormalizeAddress(n.Instrument)
	n.User = model.NormalizeAddress(n.User)
	n.To = model.NormalizeAddress(n.To)
	return n
}

// TruncatedTimestamp is the block timestamp as stored on aggregates.
func (n Notification) TruncatedTimestamp() int32 {
	return model.TruncateTimestamp(n.Timestamp)
}
