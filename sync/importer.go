// ABOUTME: Paginated full-sync importer from the Atlas API into the store
// ABOUTME: One page in flight at a time, rate limited, upserted per page
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jaya-mm/Atlas-daily-sync/atlas"
	"github.com/jaya-mm/Atlas-daily-sync/db"
	"github.com/jaya-mm/Atlas-daily-sync/models"
)

// SyncSummary aggregates per-record outcomes of one full-sync pass.
type SyncSummary struct {
	Pages        int
	Fetched      int
	Upserted     int
	Skipped      int // records missing an id
	PageFailures int // non-success pages; the loop stops on the first one
}

// Importer mirrors the upstream conversation set into the store. It runs
// sequentially: fetch a page, flatten it, upsert it, wait, repeat.
type Importer struct {
	api      API
	store    Store
	policy   db.MergePolicy
	pageSize int
	limiter  *rate.Limiter
}

// NewImporter builds an importer with the given conflict-merge policy.
// Pages are paced at one request per second to respect upstream limits.
func NewImporter(api API, store Store, policy db.MergePolicy, pageSize int) *Importer {
	if pageSize <= 0 {
		pageSize = 3000
	}
	return &Importer{
		api:      api,
		store:    store,
		policy:   policy,
		pageSize: pageSize,
		limiter:  rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// Run pulls every page of the fixed date window and upserts it. A failed
// page fetch ends the pass early without touching already-synced rows; a
// store error is fatal to the stage.
func (i *Importer) Run(ctx context.Context) (SyncSummary, error) {
	log := zerolog.Ctx(ctx)
	var summary SyncSummary

	total := 0
	for cursor := 0; ; cursor += i.pageSize {
		if err := i.limiter.Wait(ctx); err != nil {
			return summary, err
		}

		page, err := i.api.ListConversations(ctx, cursor, i.pageSize)
		if err != nil {
			summary.PageFailures++
			logPageFailure(log, cursor, err)
			break
		}

		if cursor == 0 {
			total = page.Total
			log.Info().Int("total", total).Int("page_size", i.pageSize).Msg("starting conversation sync")
		}
		if len(page.Data) == 0 {
			log.Info().Int("cursor", cursor).Msg("no more data to process")
			break
		}

		rows := make([]models.Conversation, 0, len(page.Data))
		for _, raw := range page.Data {
			if raw.ID == "" {
				summary.Skipped++
				log.Warn().Interface("record", raw).Msg("skipping record missing conversation id")
				continue
			}
			rows = append(rows, Flatten(raw))
		}
		summary.Fetched += len(page.Data)

		written, err := i.store.UpsertConversations(ctx, rows, i.policy)
		summary.Upserted += written
		if err != nil {
			return summary, fmt.Errorf("upsert page at cursor %d: %w", cursor, err)
		}

		summary.Pages++
		log.Info().
			Int("cursor", cursor).
			Int("records", len(page.Data)).
			Int("written", written).
			Msg("processed and synchronized page")

		if cursor+i.pageSize >= total {
			break
		}
	}

	log.Info().
		Int("pages", summary.Pages).
		Int("fetched", summary.Fetched).
		Int("upserted", summary.Upserted).
		Int("skipped", summary.Skipped).
		Msg("conversation sync complete")
	return summary, nil
}

func logPageFailure(log *zerolog.Logger, cursor int, err error) {
	event := log.Error().Int("cursor", cursor)
	var statusErr *atlas.StatusError
	if errors.As(err, &statusErr) {
		event = event.Int("status", statusErr.StatusCode).Str("body", statusErr.Body)
	}
	event.Err(err).Msg("page fetch failed, ending sync pass early")
}
