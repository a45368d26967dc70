// ABOUTME: Tests for the worker-pool backfills of ticket numbers and first messages
// ABOUTME: Per-id failure isolation, null overwrites, and the concurrency bound
package sync

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaya-mm/Atlas-daily-sync/atlas"
)

func int64Ptr(n int64) *int64 { return &n }
func strPtr(s string) *string { return &s }

func TestBackfillTicketNumbers(t *testing.T) {
	api := &fakeAPI{details: map[string]*atlas.ConversationDetail{
		"c1": {ID: "c1", Number: int64Ptr(4821)},
		"c2": {ID: "c2", Number: nil},
	}}
	store := &fakeStore{missingTickets: []string{"c1", "c2"}}

	summary, err := NewBackfiller(api, store, 10).Run(context.Background(), BackfillTicketNumbers)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Selected)
	assert.Equal(t, 2, summary.Updated)
	assert.Equal(t, 0, summary.Failed)

	require.NotNil(t, store.ticketSets["c1"])
	assert.Equal(t, "4821", *store.ticketSets["c1"])

	// null upstream number is still written back, as an explicit NULL
	got, wrote := store.ticketSets["c2"]
	assert.True(t, wrote)
	assert.Nil(t, got)
}

func TestBackfillFirstMessages(t *testing.T) {
	api := &fakeAPI{messages: map[string][]atlas.Message{
		"c1": {{ID: int64Ptr(1), Text: strPtr("hello")}, {ID: int64Ptr(2), Text: strPtr("later")}},
		"c2": {{ID: int64Ptr(3), Text: nil}},
		"c3": nil,
	}}
	store := &fakeStore{missingFirst: []string{"c1", "c2", "c3"}}

	summary, err := NewBackfiller(api, store, 10).Run(context.Background(), BackfillFirstMessages)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Updated)

	require.NotNil(t, store.firstSets["c1"])
	assert.Equal(t, "hello", *store.firstSets["c1"])

	// a message with null text reads as empty, not null
	require.NotNil(t, store.firstSets["c2"])
	assert.Equal(t, "", *store.firstSets["c2"])

	// no messages at all stays null
	got, wrote := store.firstSets["c3"]
	assert.True(t, wrote)
	assert.Nil(t, got)
}

func TestBackfillContinuesPastFailures(t *testing.T) {
	api := &fakeAPI{
		details: map[string]*atlas.ConversationDetail{
			"c1": {ID: "c1", Number: int64Ptr(1)},
			"c3": {ID: "c3", Number: int64Ptr(3)},
		},
		detailErr: map[string]error{
			"c2": errors.New("timeout"),
		},
	}
	store := &fakeStore{missingTickets: []string{"c1", "c2", "c3"}}

	summary, err := NewBackfiller(api, store, 10).Run(context.Background(), BackfillTicketNumbers)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Selected)
	assert.Equal(t, 2, summary.Updated)
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, store.ticketSets, "c1")
	assert.Contains(t, store.ticketSets, "c3")
	assert.NotContains(t, store.ticketSets, "c2")
}

func TestBackfillSelectionFailureIsFatal(t *testing.T) {
	store := &fakeStore{missingTicketsErr: errors.New("relation does not exist")}
	_, err := NewBackfiller(&fakeAPI{}, store, 10).Run(context.Background(), BackfillTicketNumbers)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "select ids")
}

func TestBackfillRespectsWorkerLimit(t *testing.T) {
	const workers = 4
	ids := make([]string, 40)
	details := map[string]*atlas.ConversationDetail{}
	for i := range ids {
		id := fmt.Sprintf("c%d", i)
		ids[i] = id
		details[id] = &atlas.ConversationDetail{ID: id, Number: int64Ptr(int64(i))}
	}
	api := &fakeAPI{details: details}
	store := &fakeStore{missingTickets: ids}

	summary, err := NewBackfiller(api, store, workers).Run(context.Background(), BackfillTicketNumbers)
	require.NoError(t, err)
	assert.Equal(t, 40, summary.Updated)
	assert.LessOrEqual(t, api.maxInFlight, int32(workers))
}

func TestBackfillUnknownKind(t *testing.T) {
	_, err := NewBackfiller(&fakeAPI{}, &fakeStore{}, 10).Run(context.Background(), BackfillKind("bogus"))
	require.Error(t, err)
}
