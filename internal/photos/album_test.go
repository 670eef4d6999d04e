package photos

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameron-nye/hearth/internal/calendar"
)

func TestAlbumClientListAlbum(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "/mediaItems:search", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var req mediaSearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "album-1", req.AlbumID)

		resp := map[string]any{
			"mediaItems": []map[string]string{
				{"id": "p1", "baseUrl": "https://img/p1", "mimeType": "image/jpeg"},
				{"id": "p2", "baseUrl": "https://img/p2", "mimeType": "image/png"},
			},
		}
		if req.PageToken == "" {
			resp["nextPageToken"] = "page2"
		} else {
			require.Equal(t, "page2", req.PageToken)
			resp["mediaItems"] = []map[string]string{
				{"id": "p3", "baseUrl": "https://img/p3", "mimeType": "image/jpeg"},
			}
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := NewAlbumClient("tok", WithBaseURL(srv.URL))

	page, err := client.ListAlbum(context.Background(), "album-1", "")
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "p1", page.Items[0].ID)
	assert.Equal(t, "image/png", page.Items[1].ContentType)
	assert.Equal(t, "page2", page.NextPageToken)

	page, err = client.ListAlbum(context.Background(), "album-1", page.NextPageToken)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Empty(t, page.NextPageToken)
}

func TestAlbumClientListAlbumError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"message":"insufficient scope"}}`)
	}))
	defer srv.Close()

	client := NewAlbumClient("tok", WithBaseURL(srv.URL))
	_, err := client.ListAlbum(context.Background(), "album-1", "")
	require.Error(t, err)
	assert.Equal(t, calendar.KindAuth, calendar.Classify(err))
}

func TestAlbumClientDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/img/p1", r.URL.Path)
		w.Write([]byte("jpeg-bytes"))
	}))
	defer srv.Close()

	client := NewAlbumClient("tok", WithBaseURL(srv.URL))
	data, err := client.Download(context.Background(), RemotePhoto{ID: "p1", URL: srv.URL + "/img/p1"})
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)
}
