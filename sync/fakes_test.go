// ABOUTME: In-memory API and store fakes shared across the sync tests
// ABOUTME: Record calls and simulate per-page and per-id failures
package sync

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jaya-mm/Atlas-daily-sync/atlas"
	"github.com/jaya-mm/Atlas-daily-sync/db"
	"github.com/jaya-mm/Atlas-daily-sync/models"
)

type fakeAPI struct {
	mu sync.Mutex

	pages   map[int]*atlas.ConversationPage
	pageErr map[int]error

	details   map[string]*atlas.ConversationDetail
	detailErr map[string]error

	messages    map[string][]atlas.Message
	messagesErr map[string]error

	listCursors []int

	inFlight    int32
	maxInFlight int32
}

func (f *fakeAPI) ListConversations(_ context.Context, cursor, _ int) (*atlas.ConversationPage, error) {
	f.mu.Lock()
	f.listCursors = append(f.listCursors, cursor)
	f.mu.Unlock()

	if err := f.pageErr[cursor]; err != nil {
		return nil, err
	}
	if page, ok := f.pages[cursor]; ok {
		return page, nil
	}
	return &atlas.ConversationPage{}, nil
}

func (f *fakeAPI) GetConversation(_ context.Context, id string) (*atlas.ConversationDetail, error) {
	f.trackConcurrency()
	if err := f.detailErr[id]; err != nil {
		return nil, err
	}
	if detail, ok := f.details[id]; ok {
		return detail, nil
	}
	return &atlas.ConversationDetail{ID: id}, nil
}

func (f *fakeAPI) ListMessages(_ context.Context, id string) ([]atlas.Message, error) {
	f.trackConcurrency()
	if err := f.messagesErr[id]; err != nil {
		return nil, err
	}
	return f.messages[id], nil
}

// trackConcurrency records the peak number of concurrent per-id calls.
// The short sleep widens the window so overlapping workers overlap here.
func (f *fakeAPI) trackConcurrency() {
	n := atomic.AddInt32(&f.inFlight, 1)
	for {
		max := atomic.LoadInt32(&f.maxInFlight)
		if n <= max || atomic.CompareAndSwapInt32(&f.maxInFlight, max, n) {
			break
		}
	}
	time.Sleep(time.Millisecond)
	atomic.AddInt32(&f.inFlight, -1)
}

type upsertCall struct {
	rows   []models.Conversation
	policy db.MergePolicy
}

type fakeStore struct {
	mu sync.Mutex

	upserts   []upsertCall
	upsertErr error

	missingTickets    []string
	missingTicketsErr error
	missingFirst      []string
	missingFirstErr   error

	ticketSets   map[string]*string
	ticketSetErr map[string]error
	firstSets    map[string]*string
}

func (f *fakeStore) UpsertConversations(_ context.Context, rows []models.Conversation, policy db.MergePolicy) (int, error) {
	f.mu.Lock()
	f.upserts = append(f.upserts, upsertCall{rows: rows, policy: policy})
	f.mu.Unlock()
	if f.upsertErr != nil {
		return 0, f.upsertErr
	}
	return len(rows), nil
}

func (f *fakeStore) ConversationIDsMissingTicketNumber(context.Context) ([]string, error) {
	return f.missingTickets, f.missingTicketsErr
}

func (f *fakeStore) ConversationIDsMissingFirstMessage(context.Context) ([]string, error) {
	return f.missingFirst, f.missingFirstErr
}

func (f *fakeStore) SetTicketNumber(_ context.Context, id string, number *string) error {
	if err := f.ticketSetErr[id]; err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ticketSets == nil {
		f.ticketSets = map[string]*string{}
	}
	f.ticketSets[id] = number
	return nil
}

func (f *fakeStore) SetFirstMessage(_ context.Context, id string, text *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.firstSets == nil {
		f.firstSets = map[string]*string{}
	}
	f.firstSets[id] = text
	return nil
}
