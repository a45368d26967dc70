// ABOUTME: Flat conversation row model shared by the sync pipeline and the store
// ABOUTME: One struct per atlas.conversations row; pointers mark nullable columns
package models

import "time"

// Conversation is one flattened row of the atlas.conversations table,
// keyed by the upstream conversation id. Nil pointer means SQL NULL.
type Conversation struct {
	ConversationID string

	// Customer group
	CustomerID             *string
	CustomerFirstName      *string
	CustomerLastName       *string
	CustomerEmail          *string
	CustomerPhone          *string
	CustomerExternalUserID *string
	CustomerCreatedAt      *time.Time
	CompanyID              *string

	// Company/account group
	CompanyName       *string
	CompanyEmail      *string
	CompanyWebsite    *string
	CompanyExternalID *string

	// Lifecycle group
	StartedAt    *time.Time
	ClosedAt     *time.Time
	CreatedAt    *time.Time
	AssignedAt   *time.Time
	AssignedBy   *string
	ClosedBy     *string
	SnoozedUntil *time.Time
	EscalatedAt  *time.Time

	// Assigned agent group
	AssignedAgentID        *string
	AssignedAgentName      *string
	AssignedAgentEmail     *string
	AssignedAgentCreatedAt *time.Time

	// Channel/environment group
	Browser           *string
	OperatingSystem   *string
	StartedChannel    *string
	StartedSubChannel *string

	// Last message group
	LastMessageID      *int64
	LastMessageText    *string
	LastMessageChannel *string

	// Satisfaction group
	CSATScore   *string
	CSATComment *string

	// Statistics group (seconds)
	StatsFirstResponseTime   *float64
	StatsAvgResponseTime     *float64
	StatsTotalResolutionTime *float64

	// Classification group
	ConversationStatus   *string
	ConversationPriority *string
	ConversationSubject  *string
	AssignedTeamID       *string
	UpdatedBy            *string
	Number               *int64

	// Free-form group. Custom field documents are canonical JSON text,
	// never nil (absence serializes to "{}").
	Tags                     []string
	CustomerCustomFields     []byte
	AccountCustomFields      []byte
	ConversationCustomFields []byte

	// Backfilled columns; never written by the full sync.
	TicketNumber *string
	FirstMessage *string
}
