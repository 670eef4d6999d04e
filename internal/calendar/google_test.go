package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoogleClientListEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/calendars/primary/events", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "true", r.URL.Query().Get("singleEvents"))
		assert.NotEmpty(t, r.URL.Query().Get("timeMin"))
		assert.NotEmpty(t, r.URL.Query().Get("timeMax"))

		fmt.Fprint(w, `{
			"items": [
				{"id": "ev1", "status": "confirmed", "summary": "Dentist",
				 "location": "Main St",
				 "start": {"dateTime": "2026-09-01T10:00:00Z"},
				 "end": {"dateTime": "2026-09-01T11:00:00Z"}},
				{"id": "ev2", "status": "confirmed", "summary": "Holiday",
				 "start": {"date": "2026-09-05"},
				 "end": {"date": "2026-09-06"},
				 "recurrence": ["RRULE:FREQ=YEARLY"]},
				{"id": "ev3", "status": "cancelled"}
			],
			"nextSyncToken": "cursor-next"
		}`)
	}))
	defer srv.Close()

	client := NewGoogleClient("tok-123", WithBaseURL(srv.URL))
	page, err := client.ListEvents(context.Background(), ListOptions{
		From: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.Len(t, page.Events, 3)
	assert.Equal(t, "cursor-next", page.NextSyncToken)
	assert.Empty(t, page.NextPageToken)

	ev1 := page.Events[0]
	assert.Equal(t, "Dentist", ev1.Title)
	assert.Equal(t, "Main St", ev1.Location)
	assert.False(t, ev1.AllDay)
	assert.False(t, ev1.Cancelled)
	assert.Equal(t, time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC), ev1.Start)
	assert.NotEmpty(t, ev1.Raw)

	ev2 := page.Events[1]
	assert.True(t, ev2.AllDay)
	assert.Equal(t, "RRULE:FREQ=YEARLY", ev2.Recurrence)

	ev3 := page.Events[2]
	assert.True(t, ev3.Cancelled)
	assert.Equal(t, "ev3", ev3.ID)
}

func TestGoogleClientPagination(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		switch r.URL.Query().Get("pageToken") {
		case "":
			fmt.Fprint(w, `{"items": [{"id": "a", "status": "confirmed", "summary": "A",
				"start": {"dateTime": "2026-09-01T10:00:00Z"}}],
				"nextPageToken": "page-2"}`)
		case "page-2":
			assert.Equal(t, "cursor-old", r.URL.Query().Get("syncToken"))
			fmt.Fprint(w, `{"items": [{"id": "b", "status": "confirmed", "summary": "B",
				"start": {"dateTime": "2026-09-02T10:00:00Z"}}],
				"nextSyncToken": "cursor-new"}`)
		default:
			t.Errorf("unexpected pageToken %q", r.URL.Query().Get("pageToken"))
		}
	}))
	defer srv.Close()

	client := NewGoogleClient("tok", WithBaseURL(srv.URL))

	page, err := client.ListEvents(context.Background(), ListOptions{Cursor: "cursor-old"})
	require.NoError(t, err)
	assert.Equal(t, "page-2", page.NextPageToken)

	page, err = client.ListEvents(context.Background(), ListOptions{Cursor: "cursor-old", PageToken: "page-2"})
	require.NoError(t, err)
	assert.Equal(t, "cursor-new", page.NextSyncToken)
	assert.Equal(t, 2, calls)
}

func TestGoogleClientExpiredCursor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	client := NewGoogleClient("tok", WithBaseURL(srv.URL))
	_, err := client.ListEvents(context.Background(), ListOptions{Cursor: "stale"})
	assert.True(t, errors.Is(err, ErrCursorExpired))
}

func TestGoogleClientErrorClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error": {"message": "Invalid Credentials"}}`)
	}))
	defer srv.Close()

	client := NewGoogleClient("tok", WithBaseURL(srv.URL))
	_, err := client.ListEvents(context.Background(), ListOptions{Cursor: "c"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid Credentials", apiErr.Message)
	assert.Equal(t, KindAuth, Classify(err))
}
