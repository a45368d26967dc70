// ABOUTME: Flattens nested Atlas conversation payloads into store rows
// ABOUTME: Pure transform; absent sub-objects read as empty, never as faults
package sync

import (
	"encoding/json"

	"github.com/jaya-mm/Atlas-daily-sync/atlas"
	"github.com/jaya-mm/Atlas-daily-sync/models"
)

// emptyDoc is the canonical encoding of an absent custom-field document.
var emptyDoc = []byte("{}")

// Flatten maps one raw conversation onto a flat row. It never fails: a
// missing sub-object just leaves that group's columns null. Records
// without an id are the caller's problem (skip and log, don't store).
func Flatten(c atlas.Conversation) models.Conversation {
	customer := c.Customer
	if customer == nil {
		customer = &atlas.Customer{}
	}
	account := customer.Account
	if account == nil {
		account = &atlas.Account{}
	}
	agent := c.AssignedAgent
	if agent == nil {
		agent = &atlas.Agent{}
	}
	lastMessage := c.LastMessage
	if lastMessage == nil {
		lastMessage = &atlas.LastMessage{}
	}
	csat := c.CSAT
	if csat == nil {
		csat = &atlas.CSAT{}
	}
	stats := c.Statistics
	if stats == nil {
		stats = &atlas.Statistics{}
	}

	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}

	return models.Conversation{
		ConversationID: c.ID,

		CustomerID:             customer.ID,
		CustomerFirstName:      customer.FirstName,
		CustomerLastName:       customer.LastName,
		CustomerEmail:          customer.Email,
		CustomerPhone:          customer.PhoneNumber,
		CustomerExternalUserID: customer.ExternalUserID,
		CustomerCreatedAt:      customer.CreatedAt.Time,
		CompanyID:              customer.CompanyID,

		CompanyName:       account.Name,
		CompanyEmail:      account.Email,
		CompanyWebsite:    account.Website,
		CompanyExternalID: account.ExternalID,

		StartedAt:    c.StartedAt.Time,
		ClosedAt:     c.ClosedAt.Time,
		CreatedAt:    c.CreatedAt.Time,
		AssignedAt:   c.AssignedAt.Time,
		AssignedBy:   c.AssignedBy,
		ClosedBy:     c.ClosedBy,
		SnoozedUntil: c.SnoozedUntil.Time,
		EscalatedAt:  c.EscalatedAt.Time,

		AssignedAgentID:        agent.ID,
		AssignedAgentName:      agent.FirstName,
		AssignedAgentEmail:     agent.Email,
		AssignedAgentCreatedAt: agent.CreatedAt.Time,

		Browser:           c.Browser,
		OperatingSystem:   c.OperatingSystem,
		StartedChannel:    c.StartedChannel,
		StartedSubChannel: c.StartedSubChannel,

		LastMessageID:      lastMessage.ID,
		LastMessageText:    lastMessage.Text,
		LastMessageChannel: lastMessage.Channel,

		CSATScore:   flexToString(csat.Score),
		CSATComment: csat.Comment,

		StatsFirstResponseTime:   stats.FirstResponseTime,
		StatsAvgResponseTime:     stats.AvgResponseTime,
		StatsTotalResolutionTime: stats.TotalResolutionTime,

		ConversationStatus:   c.Status,
		ConversationPriority: c.Priority,
		ConversationSubject:  c.Subject,
		AssignedTeamID:       c.AssignedTeamID,
		UpdatedBy:            c.UpdatedBy,
		Number:               c.Number,

		Tags:                     tags,
		CustomerCustomFields:     marshalDoc(customer.CustomFields),
		AccountCustomFields:      marshalDoc(account.CustomFields),
		ConversationCustomFields: marshalDoc(c.CustomFields),
	}
}

func marshalDoc(fields map[string]any) []byte {
	if len(fields) == 0 {
		return emptyDoc
	}
	data, err := json.Marshal(fields)
	if err != nil {
		// Maps decoded from JSON always re-marshal; anything else
		// degrades to the empty document.
		return emptyDoc
	}
	return data
}

func flexToString(f *atlas.FlexString) *string {
	if f == nil {
		return nil
	}
	s := f.String()
	return &s
}
