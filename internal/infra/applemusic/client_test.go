package applemusic

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{DeveloperToken: "dev", UserToken: "user"})
	require.NoError(t, err)
	client.baseURL = server.URL + "/"
	client.retryDelay = time.Millisecond
	return client
}

func TestNew_RequiresTokens(t *testing.T) {
	_, err := New(Config{DeveloperToken: "dev"})
	assert.Error(t, err)
}

func TestRecentlyPlayedTracks(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/recent/played/tracks", r.URL.Path)
		assert.Equal(t, "Bearer dev", r.Header.Get("Authorization"))
		assert.Equal(t, "user", r.Header.Get("Music-User-Token"))
		assert.Equal(t, "catalog", r.URL.Query().Get("include[library-songs]"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"data": [
				{
					"id": "1440833098",
					"type": "songs",
					"attributes": {
						"name": "One More Time",
						"artistName": "Daft Punk",
						"albumName": "Discovery",
						"durationInMillis": 320357,
						"isrc": "GBDUW0000059",
						"genreNames": ["Electronic", "Music"],
						"artwork": {"url": "https://is1.mzstatic.com/{w}x{h}bb.jpg", "width": 3000, "height": 3000}
					}
				},
				{
					"id": "i.abc",
					"type": "library-songs",
					"attributes": {"name": "Digital Love", "artistName": "Daft Punk"},
					"relationships": {
						"catalog": {"data": [{"id": "1440833100", "attributes": {"isrc": "GBDUW0000061"}}]}
					}
				}
			]
		}`)
	})

	songs, err := client.RecentlyPlayedTracks(context.Background(), 30)
	require.NoError(t, err)
	require.Len(t, songs, 2)
	assert.Equal(t, "GBDUW0000059", songs[0].Attributes.ISRC)
	assert.Equal(t, "https://is1.mzstatic.com/300x300bb.jpg", ArtworkURL(songs[0].Attributes.Artwork, 300))
	require.NotNil(t, songs[1].Relationships.Catalog)
	assert.Equal(t, "GBDUW0000061", songs[1].Relationships.Catalog.Data[0].Attributes.ISRC)
}

func TestRecentlyPlayedTracks_Paginates(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")

		size := r.URL.Query().Get("limit")
		var items string
		for i := 0; i < 30; i++ {
			if i > 0 {
				items += ","
			}
			items += fmt.Sprintf(`{"id": "%d-%d", "type": "songs", "attributes": {"name": "t"}}`, n, i)
		}
		if n == 1 {
			assert.Equal(t, "30", size)
			fmt.Fprintf(w, `{"data": [%s], "next": "/v1/me/recent/played/tracks?offset=30"}`, items)
			return
		}
		assert.Equal(t, "10", size)
		fmt.Fprint(w, `{"data": [{"id": "last", "type": "songs", "attributes": {"name": "t"}}]}`)
	})

	songs, err := client.RecentlyPlayedTracks(context.Background(), 40)
	require.NoError(t, err)
	assert.Len(t, songs, 31)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestRecentlyPlayedTracks_DefaultsToHistoryLimit(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		if n == 1 {
			assert.Equal(t, "30", r.URL.Query().Get("limit"))
			items := make([]string, 30)
			for i := range items {
				items[i] = fmt.Sprintf(`{"id": "%d", "type": "songs", "attributes": {"name": "t"}}`, i)
			}
			fmt.Fprintf(w, `{"data": [%s], "next": "/v1/me/recent/played/tracks?offset=30"}`, strings.Join(items, ","))
			return
		}
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		fmt.Fprint(w, `{"data": []}`)
	}))
	t.Cleanup(server.Close)

	client, err := New(Config{DeveloperToken: "dev", UserToken: "user", HistoryLimit: 35})
	require.NoError(t, err)
	client.baseURL = server.URL + "/"

	songs, err := client.RecentlyPlayedTracks(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, songs, 30)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestRecentlyPlayedTracks_Unauthorized(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"errors": [{"status": "401", "title": "Unauthorized"}]}`)
	})

	_, err := client.RecentlyPlayedTracks(context.Background(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apple music API error 401")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestArtworkURL(t *testing.T) {
	assert.Empty(t, ArtworkURL(nil, 100))
	assert.Empty(t, ArtworkURL(&Artwork{}, 100))
	assert.Equal(t, "https://x/100x100.jpg", ArtworkURL(&Artwork{URL: "https://x/{w}x{h}.jpg"}, 100))
}
