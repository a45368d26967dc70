// ABOUTME: Tests for the Atlas API client against a local HTTP stub
// ABOUTME: Covers auth headers, pagination params, and error surfacing
package atlas

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListConversations(t *testing.T) {
	var gotAuth string
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		require.Equal(t, "/conversations", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"total": 7000,
			"data": [
				{"id": "c1", "status": "closed", "escalatedAt": "2024-01-01T00:00:00.000Z"},
				{"id": "c2", "status": null}
			]
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sekrit")
	page, err := c.ListConversations(context.Background(), 3000, 3000)
	require.NoError(t, err)

	assert.Equal(t, "Bearer sekrit", gotAuth)
	assert.Equal(t, "3000", gotQuery["cursor"])
	assert.Equal(t, "3000", gotQuery["limit"])
	assert.Equal(t, StartDate, gotQuery["startDate"])
	assert.Equal(t, time.Now().Format("2006-01-02"), gotQuery["endDate"])

	assert.Equal(t, 7000, page.Total)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "c1", page.Data[0].ID)
	require.NotNil(t, page.Data[0].Status)
	assert.Equal(t, "closed", *page.Data[0].Status)
	assert.NotNil(t, page.Data[0].EscalatedAt.Time)
	assert.Nil(t, page.Data[1].Status)
}

func TestListConversationsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sekrit")
	_, err := c.ListConversations(context.Background(), 0, 3000)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "rate limited")
}

func TestGetConversation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/conversations/c1", r.URL.Path)
		w.Write([]byte(`{"id": "c1", "number": 4821, "subject": "ignored"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sekrit")
	detail, err := c.GetConversation(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", detail.ID)
	require.NotNil(t, detail.Number)
	assert.Equal(t, int64(4821), *detail.Number)
}

func TestListMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/conversations/c1/messages", r.URL.Path)
		w.Write([]byte(`{"data": [{"id": 1, "text": "hello there"}, {"id": 2, "text": null}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sekrit")
	messages, err := c.ListMessages(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.NotNil(t, messages[0].Text)
	assert.Equal(t, "hello there", *messages[0].Text)
	assert.Nil(t, messages[1].Text)
}

func TestFlexStringDecodesNumbers(t *testing.T) {
	var c CSAT
	require.NoError(t, json.Unmarshal([]byte(`{"score": 5, "comment": "great"}`), &c))
	require.NotNil(t, c.Score)
	assert.Equal(t, "5", c.Score.String())

	var c2 CSAT
	require.NoError(t, json.Unmarshal([]byte(`{"score": "good"}`), &c2))
	require.NotNil(t, c2.Score)
	assert.Equal(t, "good", c2.Score.String())
}

func TestItoa(t *testing.T) {
	n := int64(4821)
	got := Itoa(&n)
	require.NotNil(t, got)
	assert.Equal(t, "4821", *got)
	assert.Nil(t, Itoa(nil))
}
