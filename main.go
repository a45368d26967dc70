// ABOUTME: Entry point for the Atlas conversation sync pipeline
// ABOUTME: cobra CLI exposing the full run plus individually operable stages
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jaya-mm/Atlas-daily-sync/atlas"
	"github.com/jaya-mm/Atlas-daily-sync/config"
	"github.com/jaya-mm/Atlas-daily-sync/db"
	"github.com/jaya-mm/Atlas-daily-sync/sync"
)

const version = "1.0.0"

func main() {
	root := &cobra.Command{
		Use:           "atlas-sync",
		Short:         "Synchronize Atlas support conversations into PostgreSQL",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		runCmd(),
		syncCmd(),
		reconcileCmd(),
		backfillCmd(),
		migrateCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads config and connects the store and API client. The returned
// cleanup releases the pool.
func setup(ctx context.Context) (*config.Config, *sync.Runner, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	pool, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	client := atlas.NewClient(cfg.APIBaseURL, cfg.APIToken)
	runner := sync.NewRunner(cfg, client, db.NewStore(pool))
	return cfg, runner, pool.Close, nil
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the whole pipeline: full sync, both backfills, reconcile",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, runner, cleanup, err := setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()
			return runner.Run(ctx)
		},
	}
}

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run only the full-sync stage (escalated-only merge)",
		RunE:  stageCommand(sync.StageFullSync, db.MergeEscalatedOnly),
	}
}

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Run only the historical reconcile stage (coalescing merge)",
		RunE:  stageCommand(sync.StageReconcile, db.MergeCoalesce),
	}
}

// stageCommand runs a single sync stage with the given merge policy,
// applying migrations first so the schema always exists.
func stageCommand(stage string, policy db.MergePolicy) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, runner, cleanup, err := setup(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		return runner.RunStage(ctx, stage, func(ctx context.Context) error {
			if err := db.Migrate(*zerolog.Ctx(ctx), cfg, "up"); err != nil {
				return err
			}
			_, err := sync.NewImporter(runner.API(), runner.Store(), policy, cfg.PageSize).Run(ctx)
			return err
		})
	}
}

func backfillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Backfill a derived column for rows still missing it",
	}
	cmd.AddCommand(
		backfillKindCmd("tickets", sync.StageTickets, sync.BackfillTicketNumbers,
			"Fill missing ticket numbers from the per-conversation detail endpoint"),
		backfillKindCmd("first-messages", sync.StageFirstMessage, sync.BackfillFirstMessages,
			"Fill missing first messages from the per-conversation messages endpoint"),
	)
	return cmd
}

func backfillKindCmd(use, stage string, kind sync.BackfillKind, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, runner, cleanup, err := setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			return runner.RunStage(ctx, stage, func(ctx context.Context) error {
				_, err := sync.NewBackfiller(runner.API(), runner.Store(), cfg.Workers).Run(ctx, kind)
				return err
			})
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|version]",
		Short:     "Apply or inspect store schema migrations",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) > 0 {
				command = args[0]
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
			return db.Migrate(logger, cfg, command)
		},
	}
}
