// Package evm decodes incentives-controller logs into notifications.
package evm

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/emperorhan/incentives-indexer/internal/domain/event"
	"github.com/emperorhan/incentives-indexer/internal/domain/model"
)

// ErrUnknownEvent is returned for logs that are not incentives events.
var ErrUnknownEvent = errors.New("not an incentives-controller event")

// ErrUnexpectedEmitter is returned for logs from a contract outside the
// configured controller set.
var ErrUnexpectedEmitter = errors.New("log emitted by unexpected contract")

// controllerABI covers both RewardsClaimed layouts: the original
// (user, to, amount) and the later one that adds an indexed claimer. The abi
// package exposes the second overload as "RewardsClaimed0".
const controllerABI = `[
  {"type":"event","name":"AssetConfigUpdated","anonymous":false,"inputs":[
    {"name":"asset","type":"address","indexed":true},
    {"name":"emission","type":"uint256","indexed":false}]},
  {"type":"event","name":"AssetIndexUpdated","anonymous":false,"inputs":[
    {"name":"asset","type":"address","indexed":true},
    {"name":"index","type":"uint256","indexed":false}]},
  {"type":"event","name":"UserIndexUpdated","anonymous":false,"inputs":[
    {"name":"user","type":"address","indexed":true},
    {"name":"asset","type":"address","indexed":true},
    {"name":"index","type":"uint256","indexed":false}]},
  {"type":"event","name":"RewardsAccrued","anonymous":false,"inputs":[
    {"name":"user","type":"address","indexed":true},
    {"name":"amount","type":"uint256","indexed":false}]},
  {"type":"event","name":"RewardsClaimed","anonymous":false,"inputs":[
    {"name":"user","type":"address","indexed":true},
    {"name":"to","type":"address","indexed":true},
    {"name":"amount","type":"uint256","indexed":false}]},
  {"type":"event","name":"RewardsClaimed","anonymous":false,"inputs":[
    {"name":"user","type":"address","indexed":true},
    {"name":"to","type":"address","indexed":true},
    {"name":"claimer","type":"address","indexed":true},
    {"name":"amount","type":"uint256","indexed":false}]}
]`

var eventKinds = map[string]event.Kind{
	"AssetConfigUpdated": event.KindEmissionRateChanged,
	"AssetIndexUpdated":  event.KindAssetIndexUpdated,
	"UserIndexUpdated":   event.KindUserIndexUpdated,
	"RewardsAccrued":     event.KindRewardsAccrued,
	"RewardsClaimed":     event.KindRewardsClaimed,
	"RewardsClaimed0":    event.KindRewardsClaimed,
}

type decodedEvent struct {
	kind event.Kind
	abi  abi.Event
}

// Decoder maps raw logs to notifications. It is safe for concurrent use.
type Decoder struct {
	events      map[common.Hash]decodedEvent
	controllers map[common.Address]struct{}
}

// NewDecoder returns a decoder that accepts logs from the given controller
// addresses, or from any address when none are given.
func NewDecoder(controllers ...string) (*Decoder, error) {
	parsed, err := abi.JSON(strings.NewReader(controllerABI))
	if err != nil {
		return nil, fmt.Errorf("parse controller abi: %w", err)
	}

	d := &Decoder{
		events:      make(map[common.Hash]decodedEvent, len(parsed.Events)),
		controllers: make(map[common.Address]struct{}, len(controllers)),
	}
	for name, ev := range parsed.Events {
		kind, ok := eventKinds[name]
		if !ok {
			continue
		}
		d.events[ev.ID] = decodedEvent{kind: kind, abi: ev}
	}
	for _, c := range controllers {
		if !common.IsHexAddress(c) {
			return nil, fmt.Errorf("invalid controller address %q", c)
		}
		d.controllers[common.HexToAddress(c)] = struct{}{}
	}
	return d, nil
}

// Topics returns the topic0 hashes the decoder understands.
func (d *Decoder) Topics() []common.Hash {
	out := make([]common.Hash, 0, len(d.events))
	for id := range d.events {
		out = append(out, id)
	}
	return out
}

// Decode converts log into a notification. blockTimestamp is the timestamp of
// the block containing the log, which logs do not carry themselves.
func (d *Decoder) Decode(log types.Log, blockTimestamp uint64) (event.Notification, error) {
	if len(log.Topics) == 0 {
		return event.Notification{}, ErrUnknownEvent
	}
	ev, ok := d.events[log.Topics[0]]
	if !ok {
		return event.Notification{}, ErrUnknownEvent
	}
	if len(d.controllers) > 0 {
		if _, ok := d.controllers[log.Address]; !ok {
			return event.Notification{}, fmt.Errorf("%w: %s", ErrUnexpectedEmitter, log.Address.Hex())
		}
	}

	fields := make(map[string]any, len(ev.abi.Inputs))
	var indexed abi.Arguments
	for _, arg := range ev.abi.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if len(log.Topics)-1 != len(indexed) {
		return event.Notification{}, fmt.Errorf("decode %s: expected %d indexed topics, got %d", ev.abi.Name, len(indexed), len(log.Topics)-1)
	}
	if err := abi.ParseTopicsIntoMap(fields, indexed, log.Topics[1:]); err != nil {
		return event.Notification{}, fmt.Errorf("decode %s topics: %w", ev.abi.Name, err)
	}
	if err := ev.abi.Inputs.NonIndexed().UnpackIntoMap(fields, log.Data); err != nil {
		return event.Notification{}, fmt.Errorf("decode %s data: %w", ev.abi.Name, err)
	}

	n := event.Notification{
		Kind:        ev.kind,
		Controller:  model.NormalizeAddress(log.Address.Hex()),
		TxHash:      model.NormalizeAddress(log.TxHash.Hex()),
		BlockNumber: log.BlockNumber,
		LogIndex:    uint32(log.Index),
		Timestamp:   blockTimestamp,
		Instrument:  addressField(fields, "asset"),
		User:        addressField(fields, "user"),
		To:          addressField(fields, "to"),
	}
	for _, name := range []string{"emission", "index", "amount"} {
		if v, ok := fields[name].(*big.Int); ok {
			n.Value = v
			break
		}
	}
	if err := n.Validate(); err != nil {
		return event.Notification{}, fmt.Errorf("decode %s: %w", ev.abi.Name, err)
	}
	return n, nil
}

func addressField(fields map[string]any, name string) string {
	addr, ok := fields[name].(common.Address)
	if !ok {
		return ""
	}
	return model.NormalizeAddress(addr.Hex())
}
