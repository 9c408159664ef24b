// Package registry imports the output of the reserve registration flow:
// reserves and the instrument mappings derived from their tokens.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"github.com/emperorhan/incentives-indexer/internal/domain/model"
	"github.com/emperorhan/incentives-indexer/internal/store"
)

// ReserveSeed is one registered reserve. StableDebtToken may be empty or the
// zero address for reserves without stable borrowing.
type ReserveSeed struct {
	UnderlyingAsset   string `yaml:"underlying_asset"`
	Pool              string `yaml:"pool"`
	AToken            string `yaml:"a_token"`
	VariableDebtToken string `yaml:"variable_debt_token"`
	StableDebtToken   string `yaml:"stable_debt_token"`
}

type Seed struct {
	Reserves []ReserveSeed `yaml:"reserves"`
}

// ImportResult counts what an import wrote.
type ImportResult struct {
	ReservesCreated int
	ReservesUpdated int
	Mappings        int
}

// Parse decodes and validates a seed document.
func Parse(r io.Reader) (*Seed, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var seed Seed
	if err := dec.Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode registry seed: %w", err)
	}
	if err := seed.validate(); err != nil {
		return nil, err
	}
	return &seed, nil
}

func (s *Seed) validate() error {
	seen := make(map[string]int, len(s.Reserves))
	instruments := make(map[string]string)
	for i, rs := range s.Reserves {
		for _, f := range []struct{ name, value string }{
			{"underlying_asset", rs.UnderlyingAsset},
			{"pool", rs.Pool},
			{"a_token", rs.AToken},
			{"variable_debt_token", rs.VariableDebtToken},
		} {
			if !common.IsHexAddress(f.value) {
				return fmt.Errorf("reserve %d: invalid %s %q", i, f.name, f.value)
			}
		}
		if rs.StableDebtToken != "" && !common.IsHexAddress(rs.StableDebtToken) {
			return fmt.Errorf("reserve %d: invalid stable_debt_token %q", i, rs.StableDebtToken)
		}

		id := model.ReserveID(rs.UnderlyingAsset, rs.Pool)
		if prev, ok := seen[id]; ok {
			return fmt.Errorf("reserve %d duplicates reserve %d (%s)", i, prev, id)
		}
		seen[id] = i

		for _, token := range rs.tokens() {
			key := model.NormalizeAddress(token)
			if owner, ok := instruments[key]; ok && owner != id {
				return fmt.Errorf("reserve %d: instrument %s already mapped to reserve %s", i, key, owner)
			}
			instruments[key] = id
		}
	}
	return nil
}

// tokens returns the non-zero instrument addresses of the reserve.
func (rs ReserveSeed) tokens() []string {
	out := []string{rs.AToken, rs.VariableDebtToken}
	if rs.StableDebtToken != "" && common.HexToAddress(rs.StableDebtToken) != (common.Address{}) {
		out = append(out, rs.StableDebtToken)
	}
	return out
}

// Importer writes a seed into the snapshot.
type Importer struct {
	tx     store.Transactor
	writer store.RegistryWriter
	logger *slog.Logger
}

func NewImporter(tx store.Transactor, writer store.RegistryWriter, logger *slog.Logger) *Importer {
	return &Importer{tx: tx, writer: writer, logger: logger.With("component", "registry_import")}
}

// Import saves every reserve in one transaction, then upserts the mappings.
// Reserves come first so a mapping never resolves to an absent reserve.
// Existing reserves keep their incentive state; only token addresses are
// refreshed. Re-running an import is a no-op.
func (im *Importer) Import(ctx context.Context, seed *Seed) (ImportResult, error) {
	var res ImportResult

	err := im.tx.InTx(ctx, func(st store.Store) error {
		res = ImportResult{}
		for _, rs := range seed.Reserves {
			created, err := saveReserve(ctx, st.Reserves(), rs)
			if err != nil {
				return err
			}
			if created {
				res.ReservesCreated++
			} else {
				res.ReservesUpdated++
			}
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, fmt.Errorf("import reserves: %w", err)
	}

	for _, rs := range seed.Reserves {
		for _, token := range rs.tokens() {
			m := &model.InstrumentMapping{
				Instrument:      model.NormalizeAddress(token),
				Pool:            model.NormalizeAddress(rs.Pool),
				UnderlyingAsset: model.NormalizeAddress(rs.UnderlyingAsset),
			}
			if err := im.writer.UpsertMapping(ctx, m); err != nil {
				return res, fmt.Errorf("upsert mapping %s: %w", m.Instrument, err)
			}
			res.Mappings++
		}
	}

	im.logger.Info("registry import completed",
		"reserves_created", res.ReservesCreated,
		"reserves_updated", res.ReservesUpdated,
		"mappings", res.Mappings,
	)
	return res, nil
}

func saveReserve(ctx context.Context, repo store.ReserveRepository, rs ReserveSeed) (bool, error) {
	id := model.ReserveID(rs.UnderlyingAsset, rs.Pool)
	existing, err := repo.Get(ctx, id)
	if err != nil {
		return false, fmt.Errorf("get reserve %s: %w", id, err)
	}

	stable := rs.StableDebtToken
	if stable == "" {
		stable = common.Address{}.Hex()
	}

	reserve := model.NewReserve(rs.UnderlyingAsset, rs.Pool, rs.AToken, rs.VariableDebtToken, stable)
	if existing != nil {
		updated := existing.Clone()
		updated.Accrual.Token = reserve.Accrual.Token
		updated.VariableDebt.Token = reserve.VariableDebt.Token
		updated.StableDebt.Token = reserve.StableDebt.Token
		reserve = updated
	}
	if err := repo.Save(ctx, reserve); err != nil {
		return false, fmt.Errorf("save reserve %s: %w", id, err)
	}
	return existing == nil, nil
}
