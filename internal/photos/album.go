package photos

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/cameron-nye/hearth/internal/calendar"
)

const (
	albumBaseURL  = "https://photoslibrary.googleapis.com/v1"
	albumPageSize = 50
)

// AlbumClient fetches shared-album contents from the Google Photos Library
// REST API. The base URL is injectable for tests.
type AlbumClient struct {
	http *resty.Client
}

// AlbumOption customizes an AlbumClient.
type AlbumOption func(*AlbumClient)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) AlbumOption {
	return func(c *AlbumClient) {
		c.http.SetBaseURL(baseURL)
	}
}

// NewAlbumClient builds a client bound to the given access token.
func NewAlbumClient(accessToken string, opts ...AlbumOption) *AlbumClient {
	c := &AlbumClient{
		http: resty.New().
			SetBaseURL(albumBaseURL).
			SetAuthToken(accessToken).
			SetTimeout(30 * time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type mediaSearchRequest struct {
	AlbumID   string `json:"albumId"`
	PageSize  int    `json:"pageSize"`
	PageToken string `json:"pageToken,omitempty"`
}

type mediaSearchResponse struct {
	MediaItems []struct {
		ID       string `json:"id"`
		BaseURL  string `json:"baseUrl"`
		MimeType string `json:"mimeType"`
	} `json:"mediaItems"`
	NextPageToken string `json:"nextPageToken"`
}

type albumErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ListAlbum requests one page of album contents.
func (c *AlbumClient) ListAlbum(ctx context.Context, albumID, pageToken string) (Page, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(mediaSearchRequest{AlbumID: albumID, PageSize: albumPageSize, PageToken: pageToken}).
		Post("/mediaItems:search")
	if err != nil {
		return Page{}, fmt.Errorf("failed to list album: %w", err)
	}
	if resp.IsError() {
		var body albumErrorBody
		_ = json.Unmarshal(resp.Body(), &body)
		return Page{}, &calendar.APIError{StatusCode: resp.StatusCode(), Message: body.Error.Message}
	}

	var list mediaSearchResponse
	if err := json.Unmarshal(resp.Body(), &list); err != nil {
		return Page{}, fmt.Errorf("failed to decode album response: %w", err)
	}

	page := Page{NextPageToken: list.NextPageToken}
	for _, item := range list.MediaItems {
		page.Items = append(page.Items, RemotePhoto{
			ID:          item.ID,
			URL:         item.BaseURL,
			ContentType: item.MimeType,
		})
	}
	return page, nil
}

// Download fetches the image bytes for a media item.
func (c *AlbumClient) Download(ctx context.Context, photo RemotePhoto) ([]byte, error) {
	resp, err := c.http.R().SetContext(ctx).Get(photo.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to download photo %s: %w", photo.ID, err)
	}
	if resp.IsError() {
		return nil, &calendar.APIError{StatusCode: resp.StatusCode(), Message: "photo download failed"}
	}
	return resp.Body(), nil
}
