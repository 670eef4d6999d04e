// Package photos pulls images from connected external albums into local
// storage so the kiosk slideshow can serve them without hitting provider
// APIs on every rotation.
package photos

import "context"

// RemotePhoto is a single image as reported by an album provider.
type RemotePhoto struct {
	// ID is the provider's stable identifier for the media item.
	ID string
	// URL is a fetchable location for the image bytes.
	URL string
	// ContentType is the provider-reported MIME type.
	ContentType string
}

// Page is one page of album contents.
type Page struct {
	Items         []RemotePhoto
	NextPageToken string
}

// Fetcher lists album contents and downloads individual images.
type Fetcher interface {
	// ListAlbum returns one page of the album. Pass an empty pageToken for
	// the first page.
	ListAlbum(ctx context.Context, albumID, pageToken string) (Page, error)
	// Download fetches the image bytes for a remote photo.
	Download(ctx context.Context, photo RemotePhoto) ([]byte, error)
}
