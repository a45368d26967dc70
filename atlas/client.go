// ABOUTME: HTTP client for the Atlas conversations API
// ABOUTME: Bearer-authenticated list, detail, and messages endpoints
package atlas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	// StartDate anchors the fixed fetch window; only the cursor moves
	// between pages, never the dates.
	StartDate = "2021-01-01"

	listTimeout   = 2 * time.Minute
	detailTimeout = 10 * time.Second
)

// Client talks to the Atlas API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a client for the given base URL (e.g.
// https://api.atlas.so/v1) and bearer token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{},
	}
}

// StatusError is a non-2xx API response, retaining the body for logging.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("atlas API returned status %d: %s", e.StatusCode, e.Body)
}

// ListConversations fetches one page of conversations. The date window is
// fixed from StartDate through today; cursor is a zero-based offset.
func (c *Client) ListConversations(ctx context.Context, cursor, limit int) (*ConversationPage, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("cursor", strconv.Itoa(cursor))
	params.Set("limit", strconv.Itoa(limit))
	params.Set("startDate", StartDate)
	params.Set("endDate", time.Now().Format("2006-01-02"))

	var page ConversationPage
	if err := c.get(ctx, "/conversations?"+params.Encode(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetConversation fetches the per-id detail record.
func (c *Client) GetConversation(ctx context.Context, id string) (*ConversationDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, detailTimeout)
	defer cancel()

	var detail ConversationDetail
	if err := c.get(ctx, "/conversations/"+url.PathEscape(id), &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListMessages fetches the full message list for one conversation.
func (c *Client) ListMessages(ctx context.Context, id string) ([]Message, error) {
	ctx, cancel := context.WithTimeout(ctx, detailTimeout)
	defer cancel()

	var envelope struct {
		Data []Message `json:"data"`
	}
	if err := c.get(ctx, "/conversations/"+url.PathEscape(id)+"/messages", &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
