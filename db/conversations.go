// ABOUTME: Conversation row persistence with configurable conflict-merge policies
// ABOUTME: Batch upserts, backfill selections, and single-column backfill writes
package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jaya-mm/Atlas-daily-sync/models"
)

// MergePolicy selects what an upsert does when the conversation id
// already exists.
type MergePolicy int

const (
	// MergeEscalatedOnly updates only escalated_at, and only when the
	// incoming value is non-null. Every other column keeps its stored
	// value, so backfilled data is never clobbered. Used by the daily
	// full sync.
	MergeEscalatedOnly MergePolicy = iota

	// MergeCoalesce adopts incoming non-null values for the allow-listed
	// columns and keeps stored values otherwise; escalated_at follows
	// latest-non-null-wins regardless. Used by the historical reconcile.
	MergeCoalesce
)

func (p MergePolicy) String() string {
	switch p {
	case MergeEscalatedOnly:
		return "escalated-only"
	case MergeCoalesce:
		return "coalesce"
	default:
		return fmt.Sprintf("MergePolicy(%d)", int(p))
	}
}

// Store provides conversation persistence on top of a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// conversationColumns is the insert column order. It matches the table
// definition in migration 0001; ticket_number and first_message are
// backfill columns and are never written by the full sync.
var conversationColumns = []string{
	"conversation_id",
	"customer_id",
	"customer_first_name",
	"customer_last_name",
	"customer_email",
	"customer_phone",
	"customer_external_user_id",
	"customer_created_at",
	"company_id",
	"company_name",
	"company_email",
	"company_website",
	"company_external_id",
	"started_at",
	"closed_at",
	"created_at",
	"assigned_at",
	"assigned_by",
	"closed_by",
	"assigned_agent_id",
	"assigned_agent_name",
	"assigned_agent_email",
	"assigned_agent_created_at",
	"browser",
	"operating_system",
	"last_message_id",
	"last_message_text",
	"last_message_channel",
	"csat_score",
	"csat_comment",
	"stats_first_response_time",
	"stats_avg_response_time",
	"stats_total_resolution_time",
	"conversation_status",
	"conversation_priority",
	"conversation_subject",
	"assigned_team_id",
	"updated_by",
	"tags",
	"snoozed_until",
	"started_channel",
	"started_sub_channel",
	"number",
	"customer_custom_fields",
	"account_custom_fields",
	"conversation_custom_fields",
	"escalated_at",
}

// coalesceColumns is the allow-list merged under MergeCoalesce. Columns
// absent here (ids, lifecycle timestamps, agent fields, subject, number)
// keep their stored value on conflict.
var coalesceColumns = []string{
	"customer_first_name",
	"customer_last_name",
	"customer_email",
	"customer_phone",
	"customer_external_user_id",
	"customer_created_at",
	"company_name",
	"company_email",
	"company_website",
	"company_external_id",
	"last_message_text",
	"last_message_channel",
	"csat_score",
	"csat_comment",
	"stats_first_response_time",
	"stats_avg_response_time",
	"stats_total_resolution_time",
	"conversation_status",
	"conversation_priority",
	"tags",
	"customer_custom_fields",
	"account_custom_fields",
	"conversation_custom_fields",
}

const escalatedAtClause = `escalated_at = CASE
		WHEN EXCLUDED.escalated_at IS NOT NULL THEN EXCLUDED.escalated_at
		ELSE atlas.conversations.escalated_at
	END`

// upsertSQL builds the INSERT ... ON CONFLICT statement for a policy.
func upsertSQL(policy MergePolicy) string {
	placeholders := make([]string, len(conversationColumns))
	for i := range conversationColumns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	var merge strings.Builder
	if policy == MergeCoalesce {
		for _, col := range coalesceColumns {
			fmt.Fprintf(&merge, "%s = COALESCE(EXCLUDED.%s, atlas.conversations.%s),\n\t", col, col, col)
		}
	}
	merge.WriteString(escalatedAtClause)

	return fmt.Sprintf(`INSERT INTO atlas.conversations (%s)
VALUES (%s)
ON CONFLICT (conversation_id)
DO UPDATE SET
	%s`,
		strings.Join(conversationColumns, ", "),
		strings.Join(placeholders, ", "),
		merge.String(),
	)
}

func upsertArgs(row models.Conversation) []any {
	return []any{
		row.ConversationID,
		row.CustomerID,
		row.CustomerFirstName,
		row.CustomerLastName,
		row.CustomerEmail,
		row.CustomerPhone,
		row.CustomerExternalUserID,
		row.CustomerCreatedAt,
		row.CompanyID,
		row.CompanyName,
		row.CompanyEmail,
		row.CompanyWebsite,
		row.CompanyExternalID,
		row.StartedAt,
		row.ClosedAt,
		row.CreatedAt,
		row.AssignedAt,
		row.AssignedBy,
		row.ClosedBy,
		row.AssignedAgentID,
		row.AssignedAgentName,
		row.AssignedAgentEmail,
		row.AssignedAgentCreatedAt,
		row.Browser,
		row.OperatingSystem,
		row.LastMessageID,
		row.LastMessageText,
		row.LastMessageChannel,
		row.CSATScore,
		row.CSATComment,
		row.StatsFirstResponseTime,
		row.StatsAvgResponseTime,
		row.StatsTotalResolutionTime,
		row.ConversationStatus,
		row.ConversationPriority,
		row.ConversationSubject,
		row.AssignedTeamID,
		row.UpdatedBy,
		row.Tags,
		row.SnoozedUntil,
		row.StartedChannel,
		row.StartedSubChannel,
		row.Number,
		row.CustomerCustomFields,
		row.AccountCustomFields,
		row.ConversationCustomFields,
		row.EscalatedAt,
	}
}

// UpsertConversations writes one page of flattened rows under the given
// merge policy and returns the number of rows written. Rows go out in a
// single batch round trip; each row write is atomic, and the first row
// error stops the batch.
func (s *Store) UpsertConversations(ctx context.Context, rows []models.Conversation, policy MergePolicy) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	sql := upsertSQL(policy)
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(sql, upsertArgs(row)...)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	written := 0
	for range rows {
		if _, err := results.Exec(); err != nil {
			return written, fmt.Errorf("upsert conversation batch (policy %s): %w", policy, err)
		}
		written++
	}
	return written, nil
}

// ConversationIDsMissingTicketNumber returns every id whose ticket_number
// is still null, as a static snapshot for the backfill pool.
func (s *Store) ConversationIDsMissingTicketNumber(ctx context.Context) ([]string, error) {
	return s.idsWhereNull(ctx, "ticket_number")
}

// ConversationIDsMissingFirstMessage returns every id whose first_message
// is still null.
func (s *Store) ConversationIDsMissingFirstMessage(ctx context.Context) ([]string, error) {
	return s.idsWhereNull(ctx, "first_message")
}

func (s *Store) idsWhereNull(ctx context.Context, column string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf("SELECT conversation_id::text FROM atlas.conversations WHERE %s IS NULL", column))
	if err != nil {
		return nil, fmt.Errorf("select ids missing %s: %w", column, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan conversation id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ids missing %s: %w", column, err)
	}
	return ids, nil
}

// SetTicketNumber writes the backfilled ticket number for one id. A nil
// value is an explicit overwrite to NULL, mirroring a null upstream number.
func (s *Store) SetTicketNumber(ctx context.Context, id string, number *string) error {
	_, err := s.pool.Exec(ctx,
		"UPDATE atlas.conversations SET ticket_number = $1 WHERE conversation_id = $2", number, id)
	if err != nil {
		return fmt.Errorf("set ticket_number for %s: %w", id, err)
	}
	return nil
}

// SetFirstMessage writes the backfilled first message text for one id.
func (s *Store) SetFirstMessage(ctx context.Context, id string, text *string) error {
	_, err := s.pool.Exec(ctx,
		"UPDATE atlas.conversations SET first_message = $1 WHERE conversation_id = $2", text, id)
	if err != nil {
		return fmt.Errorf("set first_message for %s: %w", id, err)
	}
	return nil
}

// GetConversation loads one full row by id. Returns nil when absent.
func (s *Store) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT conversation_id::text, customer_id::text, customer_first_name, customer_last_name,
			customer_email, customer_phone, customer_external_user_id, customer_created_at,
			company_id::text, company_name, company_email, company_website, company_external_id,
			started_at, closed_at, created_at, assigned_at, assigned_by::text,
			closed_by::text, assigned_agent_id::text, assigned_agent_name, assigned_agent_email,
			assigned_agent_created_at, browser, operating_system,
			last_message_id, last_message_text, last_message_channel,
			csat_score, csat_comment,
			stats_first_response_time, stats_avg_response_time, stats_total_resolution_time,
			conversation_status, conversation_priority, conversation_subject,
			assigned_team_id::text, updated_by::text, tags,
			snoozed_until, started_channel, started_sub_channel, number,
			customer_custom_fields, account_custom_fields, conversation_custom_fields,
			escalated_at, ticket_number, first_message
		FROM atlas.conversations WHERE conversation_id = $1
	`, id)

	var c models.Conversation
	err := row.Scan(
		&c.ConversationID, &c.CustomerID, &c.CustomerFirstName, &c.CustomerLastName,
		&c.CustomerEmail, &c.CustomerPhone, &c.CustomerExternalUserID, &c.CustomerCreatedAt,
		&c.CompanyID, &c.CompanyName, &c.CompanyEmail, &c.CompanyWebsite, &c.CompanyExternalID,
		&c.StartedAt, &c.ClosedAt, &c.CreatedAt, &c.AssignedAt, &c.AssignedBy,
		&c.ClosedBy, &c.AssignedAgentID, &c.AssignedAgentName, &c.AssignedAgentEmail,
		&c.AssignedAgentCreatedAt, &c.Browser, &c.OperatingSystem,
		&c.LastMessageID, &c.LastMessageText, &c.LastMessageChannel,
		&c.CSATScore, &c.CSATComment,
		&c.StatsFirstResponseTime, &c.StatsAvgResponseTime, &c.StatsTotalResolutionTime,
		&c.ConversationStatus, &c.ConversationPriority, &c.ConversationSubject,
		&c.AssignedTeamID, &c.UpdatedBy, &c.Tags,
		&c.SnoozedUntil, &c.StartedChannel, &c.StartedSubChannel, &c.Number,
		&c.CustomerCustomFields, &c.AccountCustomFields, &c.ConversationCustomFields,
		&c.EscalatedAt, &c.TicketNumber, &c.FirstMessage,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation %s: %w", id, err)
	}
	return &c, nil
}
