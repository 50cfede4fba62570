// Package catalog defines the track and playlist value types served by the
// groovy API. Tracks are read-only once fetched; anything that needs a
// mutable collection copies them.
package catalog

import "time"

// Track is a single playable audio item.
//
// Duration here is what the catalog believes; the playback session keeps its
// own duration, which becomes authoritative once the audio device has
// reported metadata for the loaded stream.
type Track struct {
	ID          int64
	Title       string
	Artist      string
	Album       string
	Genre       string
	ReleaseDate time.Time
	Duration    time.Duration
}

// Playlist is an ordered collection of tracks.
type Playlist struct {
	ID     int64
	Name   string
	Tracks []Track
}

// IsEmpty returns true if the playlist has no tracks.
func (p *Playlist) IsEmpty() bool {
	return p == nil || len(p.Tracks) == 0
}
