package session

import (
	"time"

	"github.com/aguiarsc/groovy-player/internal/catalog"
)

// TrackChange is emitted when the current track is replaced.
//
// Emitted by:
//   - PlayTrack/PlayQueue/PlayPlaylist: when the new track differs from the
//     current one (playing the already-current track only emits PlayingChange)
//   - Next/Previous: when they land on a different track
//   - StopAndClose: with Current == nil
//
// Playing carries the intended status at the moment of the change so the
// engine knows whether to request device playback once the stream is loaded.
type TrackChange struct {
	Previous *catalog.Track
	Current  *catalog.Track
	Playing  bool
}

// PlayingChange is emitted when the intended playback status flips without a
// track change.
type PlayingChange struct {
	Playing bool
}

// ProgressChange is emitted on every progress update, whether it came from a
// user seek or from a device time report echoed back through the store.
// Consumers that drive the device compare against the actual device position
// to tell the two apart.
type ProgressChange struct {
	Progress time.Duration
}

// VolumeChange is emitted when the volume changes.
type VolumeChange struct {
	Volume float64
}

// QueueChange is emitted when the queue contents change.
type QueueChange struct {
	Tracks []catalog.Track
}

// ViewChange is emitted when player visibility or fullscreen mode changes.
type ViewChange struct {
	Visible    bool
	Fullscreen bool
}
