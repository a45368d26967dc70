// ABOUTME: Collaborator contracts consumed by the sync pipeline
// ABOUTME: Upstream API pull contract and store upsert/query contract
package sync

import (
	"context"

	"github.com/jaya-mm/Atlas-daily-sync/atlas"
	"github.com/jaya-mm/Atlas-daily-sync/db"
	"github.com/jaya-mm/Atlas-daily-sync/models"
)

// API is the upstream pull contract: a paginated list endpoint plus two
// per-id detail endpoints. Implemented by atlas.Client.
type API interface {
	ListConversations(ctx context.Context, cursor, limit int) (*atlas.ConversationPage, error)
	GetConversation(ctx context.Context, id string) (*atlas.ConversationDetail, error)
	ListMessages(ctx context.Context, id string) ([]atlas.Message, error)
}

// Store is the persistence contract. Implemented by db.Store.
type Store interface {
	UpsertConversations(ctx context.Context, rows []models.Conversation, policy db.MergePolicy) (int, error)
	ConversationIDsMissingTicketNumber(ctx context.Context) ([]string, error)
	ConversationIDsMissingFirstMessage(ctx context.Context) ([]string, error)
	SetTicketNumber(ctx context.Context, id string, number *string) error
	SetFirstMessage(ctx context.Context, id string, text *string) error
}
