package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	googleBaseURL  = "https://www.googleapis.com/calendar/v3"
	googlePageSize = 250
)

// GoogleClient lists events from the Google Calendar REST API. The base URL
// is injectable for tests.
type GoogleClient struct {
	http       *resty.Client
	calendarID string
}

// GoogleOption customizes a GoogleClient.
type GoogleOption func(*GoogleClient)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) GoogleOption {
	return func(c *GoogleClient) {
		c.http.SetBaseURL(baseURL)
	}
}

// WithCalendarID selects a calendar other than "primary".
func WithCalendarID(id string) GoogleOption {
	return func(c *GoogleClient) {
		c.calendarID = id
	}
}

// NewGoogleClient builds a client bound to the given access token.
func NewGoogleClient(accessToken string, opts ...GoogleOption) *GoogleClient {
	c := &GoogleClient{
		http: resty.New().
			SetBaseURL(googleBaseURL).
			SetAuthToken(accessToken).
			SetTimeout(30 * time.Second),
		calendarID: "primary",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// googleEventList mirrors the events.list response shape. Items are kept
// raw so the original payload can be stored alongside the parsed event.
type googleEventList struct {
	Items         []json.RawMessage `json:"items"`
	NextPageToken string            `json:"nextPageToken"`
	NextSyncToken string            `json:"nextSyncToken"`
}

type googleEvent struct {
	ID          string   `json:"id"`
	Status      string   `json:"status"`
	Summary     string   `json:"summary"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Start       *gTime   `json:"start"`
	End         *gTime   `json:"end"`
	Recurrence  []string `json:"recurrence"`
}

type gTime struct {
	DateTime string `json:"dateTime"`
	Date     string `json:"date"`
}

type googleErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ListEvents requests one page of events. Incremental requests use
// opts.Cursor; full requests use the opts.From/To window with recurring
// events expanded into single instances by the provider.
func (c *GoogleClient) ListEvents(ctx context.Context, opts ListOptions) (EventsPage, error) {
	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("maxResults", fmt.Sprintf("%d", googlePageSize)).
		SetQueryParam("singleEvents", "true")

	if opts.Cursor != "" {
		req.SetQueryParam("syncToken", opts.Cursor)
	} else {
		req.SetQueryParam("timeMin", opts.From.Format(time.RFC3339))
		req.SetQueryParam("timeMax", opts.To.Format(time.RFC3339))
	}
	if opts.PageToken != "" {
		req.SetQueryParam("pageToken", opts.PageToken)
	}

	resp, err := req.Get(fmt.Sprintf("/calendars/%s/events", c.calendarID))
	if err != nil {
		return EventsPage{}, fmt.Errorf("failed to list events: %w", err)
	}

	if resp.IsError() {
		// 410 Gone is Google's expired-sync-token signal.
		if resp.StatusCode() == http.StatusGone {
			return EventsPage{}, ErrCursorExpired
		}
		var body googleErrorBody
		_ = json.Unmarshal(resp.Body(), &body)
		return EventsPage{}, &APIError{StatusCode: resp.StatusCode(), Message: body.Error.Message}
	}

	var list googleEventList
	if err := json.Unmarshal(resp.Body(), &list); err != nil {
		return EventsPage{}, fmt.Errorf("failed to decode events response: %w", err)
	}

	page := EventsPage{
		NextPageToken: list.NextPageToken,
		NextSyncToken: list.NextSyncToken,
	}
	for _, raw := range list.Items {
		var item googleEvent
		if err := json.Unmarshal(raw, &item); err != nil {
			return EventsPage{}, fmt.Errorf("failed to decode event item: %w", err)
		}
		ev, err := item.toRemoteEvent(raw)
		if err != nil {
			return EventsPage{}, err
		}
		page.Events = append(page.Events, ev)
	}
	return page, nil
}

func (g googleEvent) toRemoteEvent(raw json.RawMessage) (RemoteEvent, error) {
	ev := RemoteEvent{
		ID:          g.ID,
		Title:       g.Summary,
		Description: g.Description,
		Location:    g.Location,
		Cancelled:   g.Status == "cancelled",
		Raw:         raw,
	}
	if len(g.Recurrence) > 0 {
		ev.Recurrence = g.Recurrence[0]
	}
	// Cancelled instances only carry the id.
	if ev.Cancelled {
		return ev, nil
	}

	start, allDay, err := g.Start.parse()
	if err != nil {
		return RemoteEvent{}, fmt.Errorf("event %s: invalid start: %w", g.ID, err)
	}
	ev.Start = start
	ev.AllDay = allDay

	if g.End != nil {
		end, _, err := g.End.parse()
		if err != nil {
			return RemoteEvent{}, fmt.Errorf("event %s: invalid end: %w", g.ID, err)
		}
		ev.End = end
	}
	return ev, nil
}

// parse handles the dateTime/date alternative in Google event times; a bare
// date marks an all-day event.
func (t *gTime) parse() (time.Time, bool, error) {
	if t == nil {
		return time.Time{}, false, fmt.Errorf("missing time")
	}
	if t.DateTime != "" {
		parsed, err := time.Parse(time.RFC3339, t.DateTime)
		return parsed, false, err
	}
	if t.Date != "" {
		parsed, err := time.Parse("2006-01-02", t.Date)
		return parsed, true, err
	}
	return time.Time{}, false, fmt.Errorf("missing time")
}
