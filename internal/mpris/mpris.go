//go:build linux

package mpris

import (
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/aguiarsc/groovy-player/internal/session"
)

// Adapter exposes the playback session over MPRIS on D-Bus so desktop media
// controls can drive it.
type Adapter struct {
	store  *session.Store
	server *server.Server
}

// New creates and starts a new MPRIS adapter.
func New(store *session.Store) (*Adapter, error) {
	a := &Adapter{
		store: store,
	}

	rootAdapter := &rootAdapter{}
	playerAdapter := &playerAdapter{store: store}

	a.server = server.NewServer("groovy", rootAdapter, playerAdapter)

	// Start the server in background
	go func() {
		_ = a.server.Listen()
	}()

	return a, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error {
	return nil // Not supported
}

func (r *rootAdapter) Quit() error {
	return nil // Not supported - app manages its own lifecycle
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil // Track list interface not implemented
}

func (r *rootAdapter) Identity() (string, error) {
	return "Groovy Player", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"http", "https"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/mp3"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter.
type playerAdapter struct {
	store *session.Store
}

func (p *playerAdapter) Next() error {
	p.store.Next()
	return nil
}

func (p *playerAdapter) Previous() error {
	p.store.Previous()
	return nil
}

func (p *playerAdapter) Pause() error {
	p.store.Pause()
	return nil
}

func (p *playerAdapter) PlayPause() error {
	p.store.TogglePlay()
	return nil
}

func (p *playerAdapter) Stop() error {
	p.store.StopAndClose()
	return nil
}

func (p *playerAdapter) Play() error {
	p.store.Play()
	return nil
}

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	snap := p.store.Snapshot()
	target := snap.Progress + time.Duration(offset)*time.Microsecond
	if target < 0 {
		target = 0
	}
	p.store.SeekTo(target)
	return nil
}

func (p *playerAdapter) SetPosition(_ string, position types.Microseconds) error {
	p.store.SeekTo(time.Duration(position) * time.Microsecond)
	return nil
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil // Not supported
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	snap := p.store.Snapshot()
	switch {
	case snap.CurrentTrack == nil:
		return types.PlaybackStatusStopped, nil
	case snap.IsPlaying:
		return types.PlaybackStatusPlaying, nil
	default:
		return types.PlaybackStatusPaused, nil
	}
}

func (p *playerAdapter) Rate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetRate(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	snap := p.store.Snapshot()
	track := snap.CurrentTrack
	if track == nil {
		return types.Metadata{}, nil
	}

	meta := types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(track.ID)),
		Length:  types.Microseconds(snap.Duration.Microseconds()),
		Title:   track.Title,
		Artist:  []string{track.Artist},
		Album:   track.Album,
		Genre:   []string{track.Genre},
	}

	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return p.store.Snapshot().Volume, nil
}

func (p *playerAdapter) SetVolume(volume float64) error {
	p.store.SetVolume(volume)
	return nil
}

func (p *playerAdapter) Position() (int64, error) {
	return p.store.Snapshot().Progress.Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	return p.store.Snapshot().HasNext(), nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	// Previous always at least restarts the current track.
	return p.store.Snapshot().CurrentTrack != nil, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return p.store.Snapshot().CurrentTrack != nil, nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

func formatTrackID(id int64) string {
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%d", id)
}
