// ABOUTME: Wire types for the Atlas conversations API
// ABOUTME: Mirrors the nested upstream payload with null-tolerant decoding
package atlas

import (
	"encoding/json"
	"strconv"
)

// ConversationPage is one page of the paginated list endpoint.
type ConversationPage struct {
	Total int            `json:"total"`
	Data  []Conversation `json:"data"`
}

// Conversation is the raw upstream record. Sub-objects are pointers so an
// absent group decodes to nil instead of faulting.
type Conversation struct {
	ID                string         `json:"id"`
	Status            *string        `json:"status"`
	Priority          *string        `json:"priority"`
	Subject           *string        `json:"subject"`
	Browser           *string        `json:"browser"`
	OperatingSystem   *string        `json:"operatingSystem"`
	StartedChannel    *string        `json:"startedChannel"`
	StartedSubChannel *string        `json:"startedSubChannel"`
	AssignedTeamID    *string        `json:"assignedTeamId"`
	AssignedBy        *string        `json:"assignedBy"`
	ClosedBy          *string        `json:"closedBy"`
	UpdatedBy         *string        `json:"updatedBy"`
	Number            *int64         `json:"number"`
	Tags              []string       `json:"tags"`
	CustomFields      map[string]any `json:"customFields"`

	StartedAt    Timestamp `json:"startedAt"`
	ClosedAt     Timestamp `json:"closedAt"`
	CreatedAt    Timestamp `json:"createdAt"`
	AssignedAt   Timestamp `json:"assignedAt"`
	SnoozedUntil Timestamp `json:"snoozedUntil"`
	EscalatedAt  Timestamp `json:"escalatedAt"`

	Customer      *Customer    `json:"customer"`
	AssignedAgent *Agent       `json:"assignedAgent"`
	LastMessage   *LastMessage `json:"lastMessage"`
	CSAT          *CSAT        `json:"csat"`
	Statistics    *Statistics  `json:"statistics"`
}

// Customer carries the contact that started the conversation, with its
// owning account nested inside.
type Customer struct {
	ID             *string        `json:"id"`
	FirstName      *string        `json:"firstName"`
	LastName       *string        `json:"lastName"`
	Email          *string        `json:"email"`
	PhoneNumber    *string        `json:"phoneNumber"`
	ExternalUserID *string        `json:"externalUserId"`
	CompanyID      *string        `json:"companyId"`
	CreatedAt      Timestamp      `json:"createdAt"`
	Account        *Account       `json:"account"`
	CustomFields   map[string]any `json:"customFields"`
}

// Account is the customer's company record.
type Account struct {
	ID           *string        `json:"id"`
	Name         *string        `json:"name"`
	Email        *string        `json:"email"`
	Website      *string        `json:"website"`
	ExternalID   *string        `json:"externalId"`
	CustomFields map[string]any `json:"customFields"`
}

// Agent is the assigned support agent.
type Agent struct {
	ID        *string   `json:"id"`
	FirstName *string   `json:"firstName"`
	Email     *string   `json:"email"`
	CreatedAt Timestamp `json:"createdAt"`
}

// LastMessage is the most recent message summary on the conversation.
type LastMessage struct {
	ID      *int64  `json:"id"`
	Text    *string `json:"text"`
	Channel *string `json:"channel"`
}

// CSAT is the satisfaction survey result. Scores arrive as either a
// number or a string depending on survey type.
type CSAT struct {
	Score   *FlexString `json:"score"`
	Comment *string     `json:"comment"`
}

// Statistics holds response-time metrics in seconds.
type Statistics struct {
	FirstResponseTime   *float64 `json:"firstResponseTime"`
	AvgResponseTime     *float64 `json:"avgResponseTime"`
	TotalResolutionTime *float64 `json:"totalResolutionTime"`
}

// ConversationDetail is the per-id detail endpoint response. Only the
// sequential ticket number is consumed from it.
type ConversationDetail struct {
	ID     string `json:"id"`
	Number *int64 `json:"number"`
}

// Message is one entry of the per-conversation messages endpoint.
type Message struct {
	ID      *int64  `json:"id"`
	Text    *string `json:"text"`
	Channel *string `json:"channel"`
}

// FlexString decodes a JSON string or number into a string.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string { return string(f) }

// Itoa renders an optional integer the way the store expects ticket
// numbers: decimal string, or nil when the source value is null.
func Itoa(n *int64) *string {
	if n == nil {
		return nil
	}
	s := strconv.FormatInt(*n, 10)
	return &s
}
