// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Catalog operations
	OpTrackFetch    Op = "fetch track"
	OpPlaylistFetch Op = "fetch playlist"
	OpResolveStream Op = "resolve stream url"

	// Playback operations
	OpPlaybackStart  Op = "start playback"
	OpPlaybackStream Op = "play stream"
	OpPlaybackSeek   Op = "seek"

	// Persisted state operations
	OpStateOpen Op = "open saved state"
	OpStateSave Op = "save player state"
	OpStateLoad Op = "load player state"
	OpQueueLoad Op = "load queue"

	// Initialization
	OpConfigLoad Op = "load configuration"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
