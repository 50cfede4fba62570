package session

import (
	"testing"
	"time"

	"github.com/aguiarsc/groovy-player/internal/catalog"
)

func track(id int64, title string) catalog.Track {
	return catalog.Track{ID: id, Title: title}
}

func playlist(id int64, tracks ...catalog.Track) catalog.Playlist {
	return catalog.Playlist{ID: id, Name: "test", Tracks: tracks}
}

// requireInvariants checks the session-level invariants that must hold for
// every reachable state.
func requireInvariants(t *testing.T, s *Store) {
	t.Helper()
	snap := s.Snapshot()

	if snap.IsPlaying && snap.CurrentTrack == nil {
		t.Fatal("invariant violated: playing without a current track")
	}
	if snap.CurrentTrack != nil {
		for i, qt := range snap.Queue {
			if qt.ID == snap.CurrentTrack.ID {
				t.Fatalf("invariant violated: current track %d also in queue at %d", qt.ID, i)
			}
		}
	}
}

func TestNew_EmptySession(t *testing.T) {
	s := New(nil)

	snap := s.Snapshot()
	if snap.CurrentTrack != nil {
		t.Error("new store should have no current track")
	}
	if snap.IsPlaying {
		t.Error("new store should not be playing")
	}
	if snap.Volume != 1.0 {
		t.Errorf("Volume = %v, want 1.0", snap.Volume)
	}
	if snap.PlayerVisible {
		t.Error("player should start hidden")
	}
	requireInvariants(t, s)
}

func TestPlayTrack_BindsAndPlays(t *testing.T) {
	s := New(nil)

	s.PlayTrack(track(1, "a"))

	snap := s.Snapshot()
	if snap.CurrentTrack == nil || snap.CurrentTrack.ID != 1 {
		t.Fatalf("CurrentTrack = %+v, want track 1", snap.CurrentTrack)
	}
	if !snap.IsPlaying {
		t.Error("should be playing")
	}
	if snap.Progress != 0 {
		t.Errorf("Progress = %v, want 0", snap.Progress)
	}
	if !snap.PlayerVisible {
		t.Error("playing a track should show the player")
	}
	requireInvariants(t, s)
}

func TestPlayTrack_IdempotentResume(t *testing.T) {
	s := New(nil)
	s.PlayTrack(track(1, "a"))
	s.SetProgress(42 * time.Second)
	s.Pause()

	s.PlayTrack(track(1, "a"))

	snap := s.Snapshot()
	if snap.Progress != 42*time.Second {
		t.Errorf("Progress = %v, want 42s (no reset on idempotent play)", snap.Progress)
	}
	if !snap.IsPlaying {
		t.Error("idempotent play should resume")
	}
	requireInvariants(t, s)
}

func TestPlayTrack_ReplaceResetsProgress(t *testing.T) {
	s := New(nil)
	s.PlayTrack(track(1, "a"))
	s.SetProgress(42 * time.Second)

	s.PlayTrack(track(2, "b"))

	snap := s.Snapshot()
	if snap.CurrentTrack.ID != 2 {
		t.Errorf("CurrentTrack.ID = %d, want 2", snap.CurrentTrack.ID)
	}
	if snap.Progress != 0 {
		t.Errorf("Progress = %v, want 0 after track change", snap.Progress)
	}
	requireInvariants(t, s)
}

func TestPlayTrack_DoesNotTouchQueue(t *testing.T) {
	s := New(nil)
	s.AddToQueue(track(5, "queued"))

	s.PlayTrack(track(1, "a"))

	snap := s.Snapshot()
	if len(snap.Queue) != 1 || snap.Queue[0].ID != 5 {
		t.Errorf("Queue = %+v, want the single queued track untouched", snap.Queue)
	}
}

func TestPlayQueue_DropsTracksBeforeStart(t *testing.T) {
	s := New(nil)

	s.PlayQueue([]catalog.Track{track(1, "A"), track(2, "B"), track(3, "C")}, 1)

	snap := s.Snapshot()
	if snap.CurrentTrack == nil || snap.CurrentTrack.ID != 2 {
		t.Fatalf("CurrentTrack = %+v, want B", snap.CurrentTrack)
	}
	if len(snap.Queue) != 1 || snap.Queue[0].ID != 3 {
		t.Errorf("Queue = %+v, want [C]", snap.Queue)
	}
	if !snap.IsPlaying {
		t.Error("should be playing")
	}
	requireInvariants(t, s)
}

func TestPlayQueue_InvalidInputIgnored(t *testing.T) {
	s := New(nil)
	s.PlayTrack(track(1, "a"))

	s.PlayQueue(nil, 0)
	s.PlayQueue([]catalog.Track{track(2, "b")}, 1)
	s.PlayQueue([]catalog.Track{track(2, "b")}, -1)

	snap := s.Snapshot()
	if snap.CurrentTrack.ID != 1 {
		t.Errorf("CurrentTrack.ID = %d, want 1 (state unchanged)", snap.CurrentTrack.ID)
	}
	requireInvariants(t, s)
}

func TestPlayPlaylist_SetsContext(t *testing.T) {
	s := New(nil)
	p := playlist(7, track(1, "A"), track(2, "B"))

	s.PlayPlaylist(p, 0)

	snap := s.Snapshot()
	if snap.PlaylistContext == nil || snap.PlaylistContext.ID != 7 {
		t.Fatalf("PlaylistContext = %+v, want playlist 7", snap.PlaylistContext)
	}
	if snap.CurrentTrack.ID != 1 {
		t.Errorf("CurrentTrack.ID = %d, want 1", snap.CurrentTrack.ID)
	}
	if len(snap.Queue) != 1 || snap.Queue[0].ID != 2 {
		t.Errorf("Queue = %+v, want [B]", snap.Queue)
	}
	requireInvariants(t, s)
}

func TestPlayPlaylist_EmptyIgnored(t *testing.T) {
	s := New(nil)

	s.PlayPlaylist(playlist(7), 0)

	snap := s.Snapshot()
	if snap.PlaylistContext != nil {
		t.Error("empty playlist should not become context")
	}
	if snap.CurrentTrack != nil {
		t.Error("empty playlist should not set a current track")
	}
}

func TestTogglePlay(t *testing.T) {
	s := New(nil)

	// No-op without a current track
	s.TogglePlay()
	if s.Snapshot().IsPlaying {
		t.Error("TogglePlay without track should stay stopped")
	}

	s.PlayTrack(track(1, "a"))
	s.TogglePlay()
	if s.Snapshot().IsPlaying {
		t.Error("TogglePlay should pause")
	}
	s.TogglePlay()
	if !s.Snapshot().IsPlaying {
		t.Error("TogglePlay should resume")
	}
	requireInvariants(t, s)
}

func TestNext_PopsQueueHead(t *testing.T) {
	s := New(nil)
	s.PlayQueue([]catalog.Track{track(1, "A"), track(2, "B"), track(3, "C")}, 0)

	s.Next()

	snap := s.Snapshot()
	if snap.CurrentTrack.ID != 2 {
		t.Errorf("CurrentTrack.ID = %d, want 2", snap.CurrentTrack.ID)
	}
	if len(snap.Queue) != 1 || snap.Queue[0].ID != 3 {
		t.Errorf("Queue = %+v, want [C]", snap.Queue)
	}
	if !snap.IsPlaying {
		t.Error("Next should keep playing")
	}
	if snap.Progress != 0 {
		t.Errorf("Progress = %v, want 0", snap.Progress)
	}
	requireInvariants(t, s)
}

func TestNext_RestartsPlaylistOnExhaustion(t *testing.T) {
	s := New(nil)
	p := playlist(7, track(1, "A"), track(2, "B"))
	s.PlayPlaylist(p, 1) // current=B, queue empty

	s.Next()

	snap := s.Snapshot()
	if snap.CurrentTrack.ID != 1 {
		t.Errorf("CurrentTrack.ID = %d, want A (wraparound)", snap.CurrentTrack.ID)
	}
	if len(snap.Queue) != 1 || snap.Queue[0].ID != 2 {
		t.Errorf("Queue = %+v, want [B]", snap.Queue)
	}
	requireInvariants(t, s)
}

func TestNext_ExhaustedStopsWithTrackLoaded(t *testing.T) {
	s := New(nil)
	s.PlayTrack(track(1, "a"))
	s.SetProgress(90 * time.Second)

	s.Next()

	snap := s.Snapshot()
	if snap.CurrentTrack == nil || snap.CurrentTrack.ID != 1 {
		t.Error("exhaustion should leave the current track loaded")
	}
	if snap.IsPlaying {
		t.Error("exhaustion should stop playback")
	}
	if snap.Progress != 0 {
		t.Errorf("Progress = %v, want 0", snap.Progress)
	}
	requireInvariants(t, s)
}

func TestPrevious_RestartBoundary(t *testing.T) {
	p := playlist(7, track(1, "A"), track(2, "B"))

	// Just under the threshold with a playlist context: step back.
	s := New(nil)
	s.PlayPlaylist(p, 1)
	s.SetProgress(2900 * time.Millisecond)
	s.Previous()
	snap := s.Snapshot()
	if snap.CurrentTrack.ID != 1 {
		t.Errorf("below threshold: CurrentTrack.ID = %d, want 1 (previous track)", snap.CurrentTrack.ID)
	}
	if len(snap.Queue) != 1 || snap.Queue[0].ID != 2 {
		t.Errorf("below threshold: Queue = %+v, want [B]", snap.Queue)
	}

	// Just over the threshold: restart in place.
	s = New(nil)
	s.PlayPlaylist(p, 1)
	s.SetProgress(3100 * time.Millisecond)
	s.Previous()
	snap = s.Snapshot()
	if snap.CurrentTrack.ID != 2 {
		t.Errorf("above threshold: CurrentTrack.ID = %d, want 2 (unchanged)", snap.CurrentTrack.ID)
	}
	if snap.Progress != 0 {
		t.Errorf("above threshold: Progress = %v, want 0", snap.Progress)
	}
}

func TestPrevious_FirstTrackRestarts(t *testing.T) {
	s := New(nil)
	p := playlist(7, track(1, "A"), track(2, "B"))
	s.PlayPlaylist(p, 0)
	s.SetProgress(2 * time.Second)

	s.Previous()

	snap := s.Snapshot()
	if snap.CurrentTrack.ID != 1 {
		t.Errorf("CurrentTrack.ID = %d, want 1 (first track restarts)", snap.CurrentTrack.ID)
	}
	if snap.Progress != 0 {
		t.Errorf("Progress = %v, want 0", snap.Progress)
	}
}

func TestPrevious_NoContextRestarts(t *testing.T) {
	s := New(nil)
	s.PlayTrack(track(1, "a"))
	s.SetProgress(2 * time.Second)

	s.Previous()

	snap := s.Snapshot()
	if snap.CurrentTrack.ID != 1 {
		t.Errorf("CurrentTrack.ID = %d, want 1", snap.CurrentTrack.ID)
	}
	if snap.Progress != 0 {
		t.Errorf("Progress = %v, want 0", snap.Progress)
	}
}

func TestSetVolume_Clamps(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{in: 0.5, want: 0.5},
		{in: -0.2, want: 0},
		{in: 1.7, want: 1},
	}

	for _, tt := range tests {
		s := New(nil)
		s.SetVolume(tt.in)
		if got := s.Snapshot().Volume; got != tt.want {
			t.Errorf("SetVolume(%v): Volume = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestQueueMutators(t *testing.T) {
	s := New(nil)

	s.AddToQueue(track(1, "a"))
	s.AddToQueue(track(2, "b"))
	s.AddToQueue(track(3, "c"))

	s.MoveInQueue(0, 2)
	snap := s.Snapshot()
	if snap.Queue[0].ID != 2 || snap.Queue[1].ID != 3 || snap.Queue[2].ID != 1 {
		t.Errorf("after move: Queue = %+v, want [2 3 1]", snap.Queue)
	}

	s.RemoveFromQueue(1)
	snap = s.Snapshot()
	if len(snap.Queue) != 2 || snap.Queue[0].ID != 2 || snap.Queue[1].ID != 1 {
		t.Errorf("after remove: Queue = %+v, want [2 1]", snap.Queue)
	}

	// Out-of-range removal is a no-op
	s.RemoveFromQueue(5)
	if len(s.Snapshot().Queue) != 2 {
		t.Error("out-of-range removal should not change the queue")
	}

	s.ReorderQueue([]catalog.Track{track(9, "z"), track(8, "y")})
	snap = s.Snapshot()
	if snap.Queue[0].ID != 9 || snap.Queue[1].ID != 8 {
		t.Errorf("after reorder: Queue = %+v, want [9 8]", snap.Queue)
	}

	s.ClearQueue()
	if len(s.Snapshot().Queue) != 0 {
		t.Error("queue should be empty after ClearQueue")
	}
}

func TestStopAndClose_FullReset(t *testing.T) {
	s := New(nil)
	s.PlayPlaylist(playlist(7, track(1, "A"), track(2, "B")), 0)
	s.SetProgress(30 * time.Second)
	s.ToggleFullscreen()

	s.StopAndClose()

	snap := s.Snapshot()
	if snap.CurrentTrack != nil {
		t.Error("CurrentTrack should be nil")
	}
	if snap.PlaylistContext != nil {
		t.Error("PlaylistContext should be nil")
	}
	if len(snap.Queue) != 0 {
		t.Error("Queue should be empty")
	}
	if snap.IsPlaying {
		t.Error("should not be playing")
	}
	if snap.Progress != 0 {
		t.Errorf("Progress = %v, want 0", snap.Progress)
	}
	if snap.PlayerVisible {
		t.Error("player should be hidden")
	}
	if snap.Fullscreen {
		t.Error("fullscreen should be off")
	}
	requireInvariants(t, s)
}

func TestTogglePlayerVisibility_HidingStopsPlayback(t *testing.T) {
	s := New(nil)
	s.PlayTrack(track(1, "a"))
	s.SetProgress(50 * time.Second)

	s.TogglePlayerVisibility() // visible -> hidden

	snap := s.Snapshot()
	if snap.PlayerVisible {
		t.Error("player should be hidden")
	}
	if snap.IsPlaying {
		t.Error("hiding the player should stop playback")
	}
	if snap.Progress != 0 {
		t.Errorf("Progress = %v, want 0", snap.Progress)
	}
	if snap.Fullscreen {
		t.Error("hiding should leave fullscreen")
	}
	requireInvariants(t, s)
}

func TestToggleFullscreen_ShowsHiddenPlayer(t *testing.T) {
	s := New(nil)

	s.ToggleFullscreen()

	snap := s.Snapshot()
	if !snap.PlayerVisible {
		t.Error("entering fullscreen should show the player")
	}
	if !snap.Fullscreen {
		t.Error("fullscreen should be on")
	}

	s.ToggleFullscreen()
	snap = s.Snapshot()
	if !snap.PlayerVisible {
		t.Error("leaving fullscreen should keep the player visible")
	}
	if snap.Fullscreen {
		t.Error("fullscreen should be off")
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	s := New(nil)
	s.PlayPlaylist(playlist(7, track(1, "A"), track(2, "B")), 0)

	snap := s.Snapshot()
	snap.CurrentTrack.Title = "mutated"
	snap.Queue[0].Title = "mutated"
	snap.PlaylistContext.Tracks[0].Title = "mutated"

	fresh := s.Snapshot()
	if fresh.CurrentTrack.Title == "mutated" {
		t.Error("mutating a snapshot track should not affect the store")
	}
	if fresh.Queue[0].Title == "mutated" {
		t.Error("mutating a snapshot queue should not affect the store")
	}
	if fresh.PlaylistContext.Tracks[0].Title == "mutated" {
		t.Error("mutating a snapshot context should not affect the store")
	}
}

func TestEvents_PlayTrackEmitsTrackChange(t *testing.T) {
	s := New(nil)
	sub := s.Subscribe()

	s.PlayTrack(track(1, "a"))

	select {
	case ev := <-sub.TrackChanged:
		if ev.Current == nil || ev.Current.ID != 1 {
			t.Errorf("TrackChange.Current = %+v, want track 1", ev.Current)
		}
		if !ev.Playing {
			t.Error("TrackChange.Playing should be true")
		}
	default:
		t.Fatal("expected a TrackChange event")
	}
}

func TestEvents_IdempotentPlayEmitsPlayingOnly(t *testing.T) {
	s := New(nil)
	s.PlayTrack(track(1, "a"))
	s.Pause()
	sub := s.Subscribe()

	s.PlayTrack(track(1, "a"))

	select {
	case <-sub.TrackChanged:
		t.Fatal("idempotent play must not emit TrackChange")
	default:
	}
	select {
	case ev := <-sub.PlayingChanged:
		if !ev.Playing {
			t.Error("PlayingChange.Playing should be true")
		}
	default:
		t.Fatal("expected a PlayingChange event")
	}
}
