package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/emperorhan/incentives-indexer/internal/registry"
	"github.com/emperorhan/incentives-indexer/internal/store"
	"github.com/emperorhan/incentives-indexer/internal/store/postgres"
)

func newRegistryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Manage registered reserves and instrument mappings",
	}
	cmd.AddCommand(newRegistryImportCommand())
	return cmd
}

func newRegistryImportCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import reserves and instrument mappings from a YAML seed file",
		Long: `Import reserves and the instrument mappings derived from their a, variable
debt and stable debt tokens. Existing reserves keep their incentive state.

Example:
  indexer registry import --file reserves.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup()
			if err != nil {
				return err
			}
			defer rt.close()

			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open seed file: %w", err)
			}
			defer f.Close()

			db, err := rt.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			st := postgres.NewStore(db)
			res, err := importSeed(cmd.Context(), f, st, st, rt.logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reserves created=%d updated=%d, mappings=%d\n",
				res.ReservesCreated, res.ReservesUpdated, res.Mappings)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to the YAML seed file (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func importSeed(ctx context.Context, r io.Reader, tx store.Transactor, writer store.RegistryWriter, logger *slog.Logger) (registry.ImportResult, error) {
	seed, err := registry.Parse(r)
	if err != nil {
		return registry.ImportResult{}, err
	}
	return registry.NewImporter(tx, writer, logger).Import(ctx, seed)
}
