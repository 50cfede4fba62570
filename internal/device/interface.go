// Package device abstracts the single shared audio output resource. Exactly
// one device exists per process; it is constructed once, injected into the
// engine, and never recreated. Only the engine may call into it.
package device

import "time"

// EventType identifies a device event.
type EventType int

const (
	// EventLoaded fires when a source finished loading and its duration is
	// known. The device always comes up paused after a load; whoever drives
	// it decides whether to request playback.
	EventLoaded EventType = iota
	// EventTime fires periodically with the playhead position while audible.
	EventTime
	// EventEnded fires when the loaded source played to completion.
	EventEnded
	// EventError fires when a source cannot be fetched, decoded, or played
	// through.
	EventError
)

// Event is a device notification.
type Event struct {
	Type     EventType
	Position time.Duration
	Duration time.Duration
	Err      error
}

// Interface defines the audio device contract for dependency injection and
// testing.
type Interface interface {
	// SetSource assigns a new stream URL and starts loading it in the
	// background. A later SetSource supersedes an unfinished load.
	SetSource(url string)
	// Source returns the currently assigned stream URL.
	Source() string
	// Play requests audible playback of the loaded source. The returned
	// error is a playback-start rejection; the device stays paused.
	Play() error
	Pause()
	Paused() bool
	SeekTo(pos time.Duration)
	SetVolume(level float64)
	Position() time.Duration
	Duration() time.Duration
	Events() <-chan Event
	Close() error
}

// Verify implementations at compile time.
var (
	_ Interface = (*Device)(nil)
	_ Interface = (*Mock)(nil)
)
