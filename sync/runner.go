// ABOUTME: Stage orchestrator for the full sync, backfills, and reconcile pass
// ABOUTME: Sequential stages with per-stage log artifacts; first failure aborts the run
package sync

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jaya-mm/Atlas-daily-sync/config"
	"github.com/jaya-mm/Atlas-daily-sync/db"
)

// Stage names double as log artifact names; the numeric prefix keeps the
// directory listing in execution order.
const (
	StageFullSync     = "1_full-sync"
	StageTickets      = "2_ticket-backfill"
	StageFirstMessage = "3_first-message-backfill"
	StageReconcile    = "4_reconcile"
)

// StageError identifies which stage halted the run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Runner sequences the pipeline stages. Each stage gets its own log file
// under the log directory, stamped with a per-run id.
type Runner struct {
	cfg     *config.Config
	api     API
	store   Store
	runID   string
	console io.Writer
	migrate func(zerolog.Logger, *config.Config, string) error
}

func NewRunner(cfg *config.Config, api API, store Store) *Runner {
	return &Runner{
		cfg:     cfg,
		api:     api,
		store:   store,
		runID:   ulid.Make().String(),
		console: os.Stderr,
		migrate: db.Migrate,
	}
}

// API exposes the runner's upstream client for single-stage invocations.
func (r *Runner) API() API { return r.api }

// Store exposes the runner's store for single-stage invocations.
func (r *Runner) Store() Store { return r.store }

// Run executes the whole pipeline:
// full sync → {ticket backfill ∥ first-message backfill} → reconcile.
// Migrations run first so the schema and backfill columns exist. The two
// backfill stages are started together and both awaited; the first stage
// error aborts everything after it.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.runStage(ctx, StageFullSync, func(ctx context.Context) error {
		if err := r.migrate(*zerolog.Ctx(ctx), r.cfg, "up"); err != nil {
			return err
		}
		_, err := NewImporter(r.api, r.store, db.MergeEscalatedOnly, r.cfg.PageSize).Run(ctx)
		return err
	}); err != nil {
		return err
	}

	// Started together, both allowed to finish even when one fails;
	// plain errgroup (no shared cancellation) reports the first error
	// after Wait.
	var g errgroup.Group
	g.Go(func() error {
		return r.runStage(ctx, StageTickets, func(ctx context.Context) error {
			_, err := NewBackfiller(r.api, r.store, r.cfg.Workers).Run(ctx, BackfillTicketNumbers)
			return err
		})
	})
	g.Go(func() error {
		return r.runStage(ctx, StageFirstMessage, func(ctx context.Context) error {
			_, err := NewBackfiller(r.api, r.store, r.cfg.Workers).Run(ctx, BackfillFirstMessages)
			return err
		})
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if err := r.runStage(ctx, StageReconcile, func(ctx context.Context) error {
		_, err := NewImporter(r.api, r.store, db.MergeCoalesce, r.cfg.PageSize).Run(ctx)
		return err
	}); err != nil {
		return err
	}

	logger := r.consoleLogger()
	logger.Info().Msg("all steps completed")
	return nil
}

// RunStage executes a single named stage on its own, for operating stages
// individually from the CLI.
func (r *Runner) RunStage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	return r.runStage(ctx, name, fn)
}

func (r *Runner) runStage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	logger, closeLog, err := r.stageLogger(name)
	if err != nil {
		return &StageError{Stage: name, Err: err}
	}
	defer closeLog()

	ctx = logger.WithContext(ctx)
	logger.Info().Msg("stage started")

	if err := fn(ctx); err != nil {
		logger.Error().Err(err).Msg("stage failed")
		return &StageError{Stage: name, Err: err}
	}
	logger.Info().Msg("stage completed")
	return nil
}

// stageLogger builds a logger writing to both the console and the stage's
// log artifact under the log directory.
func (r *Runner) stageLogger(name string) (zerolog.Logger, func(), error) {
	if err := os.MkdirAll(r.cfg.LogDir, 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("create log directory: %w", err)
	}

	path := filepath.Join(r.cfg.LogDir, name+".log")
	file, err := os.Create(path)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("create stage log %s: %w", path, err)
	}

	writer := zerolog.MultiLevelWriter(zerolog.ConsoleWriter{Out: r.console}, file)
	logger := zerolog.New(writer).With().
		Timestamp().
		Str("run_id", r.runID).
		Str("stage", name).
		Logger()
	return logger, func() { _ = file.Close() }, nil
}

func (r *Runner) consoleLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: r.console}).With().
		Timestamp().
		Str("run_id", r.runID).
		Logger()
}
