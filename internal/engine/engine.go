// Package engine bridges the playback session store and the audio device.
// It is the only component that touches the device: it observes store
// transitions, resolves stream URLs, drives the device, and translates
// device events back into store transitions.
//
// All device operations happen on a single run-loop goroutine, which is what
// guarantees two tracks are never audible at once. Stream resolutions run in
// the background and post their results back into the loop tagged with a
// generation number; results for a since-abandoned track are discarded.
package engine

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aguiarsc/groovy-player/internal/device"
	"github.com/aguiarsc/groovy-player/internal/errmsg"
	"github.com/aguiarsc/groovy-player/internal/session"
)

const (
	// seekEchoThreshold separates a genuine user seek from the device's own
	// time report echoed back through the store. Seeking the device for
	// every echo would oscillate.
	seekEchoThreshold = time.Second

	// errorAdvanceDelay debounces auto-advance on device errors so a
	// transient failure does not race through the whole queue.
	errorAdvanceDelay = time.Second
)

// Resolver resolves a track identifier into a playable stream URL. It is an
// untrusted I/O boundary: calls may be slow and may fail.
type Resolver interface {
	ResolveStreamURL(ctx context.Context, trackID int64) (string, error)
}

// loadResult is a finished stream resolution posted back into the run loop.
type loadResult struct {
	gen     uint64
	trackID int64
	url     string
	err     error
}

// Engine owns the audio device and keeps it in step with the session store.
type Engine struct {
	store    *session.Store
	dev      device.Interface
	resolver Resolver
	log      *logrus.Logger

	sub    *session.Subscription
	loadCh chan loadResult

	// gen tags in-flight resolutions; bumped on every track-affecting
	// event. Only touched from the run loop.
	gen uint64

	// source is the URL assigned to the device for the current generation,
	// empty while no resolution has been applied. Device load completions
	// for any other URL are stale. Only touched from the run loop.
	source string

	// errorDelay is errorAdvanceDelay, overridable in tests.
	errorDelay time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an engine around the given store, device, and resolver. The
// engine takes exclusive ownership of the device; nothing else may call it.
func New(store *session.Store, dev device.Interface, resolver Resolver, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		store:      store,
		dev:        dev,
		resolver:   resolver,
		log:        log,
		loadCh:     make(chan loadResult, 4),
		errorDelay: errorAdvanceDelay,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start subscribes to the store and begins the run loop.
func (e *Engine) Start() {
	e.sub = e.store.Subscribe()
	e.wg.Add(1)
	go e.run()
}

// Close stops the run loop and waits for in-flight resolutions to unwind.
// The device is left paused; closing the device itself is the owner's job.
func (e *Engine) Close() error {
	e.cancel()
	e.wg.Wait()
	return nil
}

func (e *Engine) run() {
	defer e.wg.Done()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-e.sub.Done:
			return
		case ev := <-e.sub.TrackChanged:
			e.handleTrackChange(ev)
		case ev := <-e.sub.PlayingChanged:
			e.handlePlayingChange(ev)
		case ev := <-e.sub.ProgressChanged:
			e.handleProgressChange(ev)
		case ev := <-e.sub.VolumeChanged:
			e.dev.SetVolume(ev.Volume)
		case ev := <-e.sub.ViewChanged:
			e.handleViewChange(ev)
		case ev := <-e.sub.QueueChanged:
			_ = ev // queue contents do not touch the device
		case res := <-e.loadCh:
			e.applyLoad(res)
		case ev := <-e.dev.Events():
			e.handleDeviceEvent(ev)
		}
	}
}

// handleTrackChange reacts to the current track being replaced or unbound.
func (e *Engine) handleTrackChange(ev session.TrackChange) {
	e.gen++
	e.source = ""
	if ev.Current == nil {
		e.dev.Pause()
		e.dev.SeekTo(0)
		return
	}
	e.resolveAsync(e.gen, ev.Current.ID)
}

// handlePlayingChange reacts to the intended status flipping with the track
// unchanged. Turning on re-resolves the stream URL in case the previous one
// was short-lived, then ensures the device source before requesting playback.
func (e *Engine) handlePlayingChange(ev session.PlayingChange) {
	if !ev.Playing {
		e.dev.Pause()
		return
	}
	snap := e.store.Snapshot()
	if snap.CurrentTrack == nil {
		return
	}
	if !e.dev.Paused() {
		return
	}
	e.gen++
	e.resolveAsync(e.gen, snap.CurrentTrack.ID)
}

// handleProgressChange mirrors a seek to the device, but only when the
// requested position genuinely differs from where the device already is.
func (e *Engine) handleProgressChange(ev session.ProgressChange) {
	diff := e.dev.Position() - ev.Progress
	if diff < 0 {
		diff = -diff
	}
	if diff > seekEchoThreshold {
		e.dev.SeekTo(ev.Progress)
	}
}

// handleViewChange stops audio when the player is hidden. Hiding is a stop,
// not just a UI change.
func (e *Engine) handleViewChange(ev session.ViewChange) {
	if !ev.Visible {
		e.dev.Pause()
		e.dev.SeekTo(0)
	}
}

// resolveAsync resolves a stream URL in the background and posts the result
// back into the run loop.
func (e *Engine) resolveAsync(gen uint64, trackID int64) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		url, err := e.resolver.ResolveStreamURL(e.ctx, trackID)
		select {
		case e.loadCh <- loadResult{gen: gen, trackID: trackID, url: url, err: err}:
		case <-e.ctx.Done():
		}
	}()
}

// applyLoad acts on a finished resolution, unless it has been superseded.
func (e *Engine) applyLoad(res loadResult) {
	if res.gen != e.gen {
		e.log.WithField("track", res.trackID).Debug("discarding superseded stream resolution")
		return
	}
	snap := e.store.Snapshot()
	if snap.CurrentTrack == nil || snap.CurrentTrack.ID != res.trackID {
		return
	}
	if res.err != nil {
		// Resolution failures are absorbed: playback simply does not
		// start for this track.
		e.log.Warn(errmsg.FormatWith(errmsg.OpResolveStream, fmt.Sprintf("track %d", res.trackID), res.err))
		return
	}

	e.source = res.url
	if res.url == e.dev.Source() {
		// Same source already loaded; avoid a redundant reload on fast
		// toggles and expiring-URL re-resolutions.
		if snap.IsPlaying && e.dev.Paused() {
			e.playDevice()
		}
		return
	}

	e.dev.Pause()
	e.dev.SeekTo(0)
	e.dev.SetSource(res.url)
}

// handleDeviceEvent translates device notifications into store transitions.
func (e *Engine) handleDeviceEvent(ev device.Event) {
	switch ev.Type {
	case device.EventLoaded:
		// A load completion for a source this generation never assigned
		// belongs to an abandoned track and must not become audible.
		if e.source == "" || e.dev.Source() != e.source {
			e.log.WithField("source", e.dev.Source()).Debug("discarding superseded load completion")
			return
		}
		e.store.SetDuration(ev.Duration)
		snap := e.store.Snapshot()
		if snap.IsPlaying && snap.CurrentTrack != nil {
			e.playDevice()
		}

	case device.EventTime:
		e.store.SetProgress(ev.Position)

	case device.EventEnded:
		e.store.Next()

	case device.EventError:
		e.handleDeviceError(ev)
	}
}

// handleDeviceError treats a device failure as "this track is unplayable
// now": advance past it after a short debounce if anything is queued,
// otherwise pause. The skip is dropped if the user moved on meanwhile.
func (e *Engine) handleDeviceError(ev device.Event) {
	e.log.Warn(errmsg.Format(errmsg.OpPlaybackStream, ev.Err))

	snap := e.store.Snapshot()
	if snap.CurrentTrack == nil || len(snap.Queue) == 0 {
		e.store.Pause()
		return
	}

	failedID := snap.CurrentTrack.ID
	time.AfterFunc(e.errorDelay, func() {
		cur := e.store.Snapshot().CurrentTrack
		if cur != nil && cur.ID == failedID {
			e.store.Next()
		}
	})
}

// playDevice requests device playback, swallowing start rejections. The
// intended status is left as-is so a later explicit user play can succeed.
func (e *Engine) playDevice() {
	if err := e.dev.Play(); err != nil {
		e.log.Debug(errmsg.Format(errmsg.OpPlaybackStart, err))
	}
}
