// Package calendar keeps local event records consistent with external
// calendar providers: OAuth token lifecycle, incremental cursor sync with
// pagination, and cancellation reconciliation.
package calendar

import (
	"context"
	"encoding/json"
	"time"
)

// RemoteEvent is one event as reported by a provider. Recurring events
// arrive pre-expanded into single instances; Cancelled instances carry only
// their id.
type RemoteEvent struct {
	ID          string
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Recurrence  string
	Cancelled   bool
	Raw         json.RawMessage
}

// ListOptions selects what a provider page request covers. Exactly one of
// Cursor or the From/To window is used; PageToken continues a prior page.
type ListOptions struct {
	Cursor    string
	From      time.Time
	To        time.Time
	PageToken string
}

// EventsPage is one page of provider results. NextSyncToken is only set on
// the final page.
type EventsPage struct {
	Events        []RemoteEvent
	NextPageToken string
	NextSyncToken string
}

// Provider lists remote events page by page. Implementations return
// ErrCursorExpired when the cursor in ListOptions is no longer valid.
type Provider interface {
	ListEvents(ctx context.Context, opts ListOptions) (EventsPage, error)
}

// ProviderFactory builds a Provider bound to a valid access token.
type ProviderFactory func(accessToken string) Provider
