// Package api provides a client for the Groovy catalog API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aguiarsc/groovy-player/internal/catalog"
)

// ErrNotFound is returned when the requested resource does not exist.
var ErrNotFound = errors.New("resource not found")

const userAgent = "groovy-player/1.0 (https://github.com/aguiarsc/groovy-player)"

// Client is a Groovy catalog API client.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a new catalog client. The token, when non-empty, is sent as a
// bearer credential on every request.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type trackDTO struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Artist      string  `json:"artist"`
	Album       string  `json:"album"`
	Genre       string  `json:"genre"`
	ReleaseDate string  `json:"releaseDate"`
	Duration    float64 `json:"duration"`
}

type playlistDTO struct {
	ID     int64      `json:"id"`
	Name   string     `json:"name"`
	Tracks []trackDTO `json:"tracks"`
}

type streamDTO struct {
	URL string `json:"url"`
}

func (d trackDTO) toCatalog() catalog.Track {
	released, _ := time.Parse("2006-01-02", d.ReleaseDate)
	return catalog.Track{
		ID:          d.ID,
		Title:       d.Title,
		Artist:      d.Artist,
		Album:       d.Album,
		Genre:       d.Genre,
		ReleaseDate: released,
		Duration:    time.Duration(d.Duration * float64(time.Second)),
	}
}

// GetTrack fetches a single track by ID.
func (c *Client) GetTrack(ctx context.Context, id int64) (*catalog.Track, error) {
	var dto trackDTO
	if err := c.getJSON(ctx, fmt.Sprintf("/api/tracks/%d", id), &dto); err != nil {
		return nil, err
	}
	track := dto.toCatalog()
	return &track, nil
}

// GetPlaylist fetches a playlist with its tracks by ID.
func (c *Client) GetPlaylist(ctx context.Context, id int64) (*catalog.Playlist, error) {
	var dto playlistDTO
	if err := c.getJSON(ctx, fmt.Sprintf("/api/playlists/%d", id), &dto); err != nil {
		return nil, err
	}
	playlist := &catalog.Playlist{
		ID:     dto.ID,
		Name:   dto.Name,
		Tracks: make([]catalog.Track, len(dto.Tracks)),
	}
	for i, t := range dto.Tracks {
		playlist.Tracks[i] = t.toCatalog()
	}
	return playlist, nil
}

// ResolveStreamURL fetches the playable stream URL for a track. Returned URLs
// may be short-lived, so callers should resolve again rather than cache.
func (c *Client) ResolveStreamURL(ctx context.Context, trackID int64) (string, error) {
	var dto streamDTO
	if err := c.getJSON(ctx, fmt.Sprintf("/api/tracks/%d/stream", trackID), &dto); err != nil {
		return "", err
	}
	if dto.URL == "" {
		return "", fmt.Errorf("empty stream url for track %d", trackID)
	}
	return dto.URL, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
