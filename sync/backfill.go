// ABOUTME: Bounded-concurrency backfill of derived conversation columns
// ABOUTME: One extra API call per row still missing its ticket number or first message
package sync

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jaya-mm/Atlas-daily-sync/atlas"
)

// BackfillKind selects which derived column a pool run fills.
type BackfillKind string

const (
	BackfillTicketNumbers BackfillKind = "ticket-number"
	BackfillFirstMessages BackfillKind = "first-message"
)

// BackfillSummary aggregates per-id outcomes of one pool run. Failed ids
// stay null and remain eligible for the next run.
type BackfillSummary struct {
	Selected int
	Updated  int
	Failed   int
}

// outcome is the per-record result a worker reports back instead of
// throwing; the pool aggregates them into the summary.
type outcome struct {
	id  string
	err error
}

// Backfiller retroactively fills a single column for rows the full sync
// could not populate. Ids are snapshotted up front, so no two workers
// ever target the same row within a run.
type Backfiller struct {
	api     API
	store   Store
	workers int
}

// NewBackfiller builds a pool with the given fixed concurrency.
func NewBackfiller(api API, store Store, workers int) *Backfiller {
	if workers <= 0 {
		workers = 10
	}
	return &Backfiller{api: api, store: store, workers: workers}
}

// Run selects every id missing the kind's column and processes the list
// with the worker pool. Per-id failures are logged and counted, never
// fatal; only the id selection itself can fail the stage.
func (b *Backfiller) Run(ctx context.Context, kind BackfillKind) (BackfillSummary, error) {
	log := zerolog.Ctx(ctx)

	var (
		ids []string
		err error
	)
	switch kind {
	case BackfillTicketNumbers:
		ids, err = b.store.ConversationIDsMissingTicketNumber(ctx)
	case BackfillFirstMessages:
		ids, err = b.store.ConversationIDsMissingFirstMessage(ctx)
	default:
		return BackfillSummary{}, fmt.Errorf("unknown backfill kind: %s", kind)
	}
	if err != nil {
		return BackfillSummary{}, fmt.Errorf("select ids for %s backfill: %w", kind, err)
	}

	summary := BackfillSummary{Selected: len(ids)}
	log.Info().Str("kind", string(kind)).Int("selected", len(ids)).Msg("starting backfill")

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(b.workers)

	for _, id := range ids {
		id := id
		g.Go(func() error {
			out := b.process(ctx, kind, id)

			mu.Lock()
			if out.err != nil {
				summary.Failed++
			} else {
				summary.Updated++
			}
			mu.Unlock()

			if out.err != nil {
				log.Warn().Str("conversation_id", out.id).Err(out.err).Msg("backfill failed for id")
			} else {
				log.Debug().Str("conversation_id", out.id).Msg("backfilled")
			}
			return nil
		})
	}
	_ = g.Wait()

	log.Info().
		Str("kind", string(kind)).
		Int("selected", summary.Selected).
		Int("updated", summary.Updated).
		Int("failed", summary.Failed).
		Msg("backfill complete")
	return summary, nil
}

func (b *Backfiller) process(ctx context.Context, kind BackfillKind, id string) outcome {
	switch kind {
	case BackfillTicketNumbers:
		detail, err := b.api.GetConversation(ctx, id)
		if err != nil {
			return outcome{id: id, err: err}
		}
		// A null upstream number is written back as an explicit NULL.
		return outcome{id: id, err: b.store.SetTicketNumber(ctx, id, atlas.Itoa(detail.Number))}

	case BackfillFirstMessages:
		messages, err := b.api.ListMessages(ctx, id)
		if err != nil {
			return outcome{id: id, err: err}
		}
		var text *string
		if len(messages) > 0 {
			text = messages[0].Text
			if text == nil {
				empty := ""
				text = &empty
			}
		}
		return outcome{id: id, err: b.store.SetFirstMessage(ctx, id, text)}

	default:
		return outcome{id: id, err: fmt.Errorf("unknown backfill kind: %s", kind)}
	}
}
