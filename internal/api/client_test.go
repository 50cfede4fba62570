package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTrack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tracks/7", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": 7,
			"title": "Midnight City",
			"artist": "M83",
			"album": "Hurry Up, We're Dreaming",
			"genre": "Electronic",
			"releaseDate": "2011-10-18",
			"duration": 243.5
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret")
	track, err := c.GetTrack(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, int64(7), track.ID)
	assert.Equal(t, "Midnight City", track.Title)
	assert.Equal(t, "M83", track.Artist)
	assert.Equal(t, 2011, track.ReleaseDate.Year())
	assert.Equal(t, 243500*time.Millisecond, track.Duration)
}

func TestGetTrack_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	_, err := c.GetTrack(context.Background(), 99)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetPlaylist(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/playlists/3", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": 3,
			"name": "Morning Mix",
			"tracks": [
				{"id": 1, "title": "One", "duration": 60},
				{"id": 2, "title": "Two", "duration": 120}
			]
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	playlist, err := c.GetPlaylist(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, "Morning Mix", playlist.Name)
	require.Len(t, playlist.Tracks, 2)
	assert.Equal(t, "Two", playlist.Tracks[1].Title)
	assert.Equal(t, 2*time.Minute, playlist.Tracks[1].Duration)
}

func TestResolveStreamURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tracks/42/stream", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url": "https://cdn.example.com/42.mp3?sig=abc"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	url, err := c.ResolveStreamURL(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/42.mp3?sig=abc", url)
}

func TestResolveStreamURL_EmptyURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url": ""}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	_, err := c.ResolveStreamURL(context.Background(), 42)
	require.Error(t, err)
}

func TestResolveStreamURL_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	_, err := c.ResolveStreamURL(context.Background(), 42)
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrNotFound))
}

func TestContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.ResolveStreamURL(ctx, 1)
	require.Error(t, err)
}
