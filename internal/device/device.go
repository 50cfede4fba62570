package device

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/sirupsen/logrus"

	"github.com/aguiarsc/groovy-player/internal/errmsg"
)

// timeReportInterval is how often the device reports the playhead position
// while audible.
const timeReportInterval = 500 * time.Millisecond

// ErrNoSource is returned by Play when no stream has finished loading.
var ErrNoSource = errors.New("no stream loaded")

// The speaker is a process-wide resource: initialized once at the first
// load's sample rate, later sources are resampled to match.
var (
	speakerInitialized bool
	speakerSampleRate  beep.SampleRate
)

// Device is the beep-backed audio output. It fetches the assigned stream URL
// into a temp file, decodes it, and plays it through the shared speaker.
// Loads run in the background; a newer SetSource supersedes an unfinished
// load.
type Device struct {
	mu         sync.Mutex
	log        *logrus.Logger
	httpClient *http.Client

	source  string
	loadGen uint64
	paused  bool
	level   float64

	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	file     *os.File
	tmpPath  string

	events chan Event
	done   chan struct{}
	closed bool
	wg     sync.WaitGroup
}

// New creates the audio device. Call Close when done.
func New(log *logrus.Logger) *Device {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	d := &Device{
		log:        log,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		paused:     true,
		level:      1.0,
		events:     make(chan Event, 32),
		done:       make(chan struct{}),
	}
	d.wg.Add(1)
	go d.timeLoop()
	return d
}

// SetSource assigns a new stream URL and starts loading it. The previous
// source is torn down immediately so two tracks are never audible at once.
func (d *Device) SetSource(url string) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.loadGen++
	gen := d.loadGen
	d.source = url
	d.paused = true
	d.teardownLocked()
	d.mu.Unlock()

	d.wg.Add(1)
	go d.load(gen, url)
}

// Source returns the currently assigned stream URL.
func (d *Device) Source() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.source
}

// Play makes the loaded source audible. Returns ErrNoSource if no stream has
// finished loading yet.
func (d *Device) Play() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ctrl == nil {
		return ErrNoSource
	}
	speaker.Lock()
	d.ctrl.Paused = false
	speaker.Unlock()
	d.paused = false
	return nil
}

// Pause silences playback without resetting the position.
func (d *Device) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.paused = true
	if d.ctrl != nil {
		speaker.Lock()
		d.ctrl.Paused = true
		speaker.Unlock()
	}
}

// Paused returns true if the device is not audible.
func (d *Device) Paused() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.paused
}

// SeekTo moves the playhead to the given position, clamped to the stream.
func (d *Device) SeekTo(pos time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.streamer == nil {
		return
	}
	n := d.format.SampleRate.N(pos)
	if n < 0 {
		n = 0
	}
	if maxPos := d.streamer.Len(); n > maxPos {
		n = maxPos
	}
	speaker.Lock()
	err := d.streamer.Seek(n)
	speaker.Unlock()
	if err != nil {
		d.log.Warn(errmsg.Format(errmsg.OpPlaybackSeek, err))
	}
}

// SetVolume sets the output level (0.0 to 1.0). The level survives source
// changes: each new stream comes up at the stored level.
func (d *Device) SetVolume(level float64) {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.level = level
	if d.volume != nil {
		speaker.Lock()
		d.volume.Volume = levelToVolume(level)
		d.volume.Silent = level <= 0
		speaker.Unlock()
	}
}

// Position returns the current playhead position.
func (d *Device) Position() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.streamer == nil {
		return 0
	}
	// The mixer advances the streamer under the speaker lock.
	speaker.Lock()
	pos := d.streamer.Position()
	speaker.Unlock()
	return d.format.SampleRate.D(pos)
}

// Duration returns the length of the loaded stream.
func (d *Device) Duration() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.streamer == nil {
		return 0
	}
	return d.format.SampleRate.D(d.streamer.Len())
}

// Events returns the device event channel.
func (d *Device) Events() <-chan Event {
	return d.events
}

// Close tears down the current stream and stops background goroutines.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.loadGen++
	d.teardownLocked()
	d.mu.Unlock()
	close(d.done)
	d.wg.Wait()
	return nil
}

// load fetches and decodes a source in the background. A stale generation
// means the source was replaced while loading; the result is discarded.
func (d *Device) load(gen uint64, url string) {
	defer d.wg.Done()

	f, tmpPath, err := d.fetch(url)
	if err != nil {
		d.emitIfCurrent(gen, Event{Type: EventError, Err: fmt.Errorf("fetch stream: %w", err)})
		return
	}

	streamer, format, err := decodeMP3(f)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		d.emitIfCurrent(gen, Event{Type: EventError, Err: fmt.Errorf("decode stream: %w", err)})
		return
	}

	d.mu.Lock()
	if d.closed || gen != d.loadGen {
		d.mu.Unlock()
		streamer.Close()
		f.Close()
		os.Remove(tmpPath)
		return
	}

	if !speakerInitialized {
		speakerSampleRate = format.SampleRate
		if err := speaker.Init(speakerSampleRate, speakerSampleRate.N(time.Second/10)); err != nil {
			d.mu.Unlock()
			streamer.Close()
			f.Close()
			os.Remove(tmpPath)
			d.emitIfCurrent(gen, Event{Type: EventError, Err: fmt.Errorf("init speaker: %w", err)})
			return
		}
		speakerInitialized = true
	}

	d.streamer = streamer
	d.format = format
	d.file = f
	d.tmpPath = tmpPath

	var playStreamer beep.Streamer = streamer
	if format.SampleRate != speakerSampleRate {
		playStreamer = beep.Resample(4, format.SampleRate, speakerSampleRate, streamer)
	}
	d.ctrl = &beep.Ctrl{Streamer: playStreamer, Paused: true}
	d.volume = &effects.Volume{
		Streamer: d.ctrl,
		Base:     2,
		Volume:   levelToVolume(d.level),
		Silent:   d.level <= 0,
	}
	duration := format.SampleRate.D(streamer.Len())

	// The callback runs on the mixer goroutine under the speaker lock, so
	// it must not touch d.mu directly.
	speaker.Play(beep.Seq(d.volume, beep.Callback(func() {
		go d.finishSource(gen, streamer)
	})))
	d.mu.Unlock()

	d.emit(Event{Type: EventLoaded, Duration: duration})
}

// finishSource reports the end of a stream, either completion or a mid-play
// decode failure. Superseded sources are ignored.
func (d *Device) finishSource(gen uint64, streamer beep.StreamSeekCloser) {
	d.mu.Lock()
	stale := d.closed || gen != d.loadGen
	d.mu.Unlock()
	if stale {
		return
	}
	if err := streamer.Err(); err != nil {
		d.emit(Event{Type: EventError, Err: err})
		return
	}
	d.emit(Event{Type: EventEnded})
}

// fetch downloads the stream into a temp file so the decoder can seek.
func (d *Device) fetch(url string) (*os.File, string, error) {
	resp, err := d.httpClient.Get(url)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status: %s", resp.Status)
	}

	f, err := os.CreateTemp("", "groovy-stream-*.mp3")
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, "", err
	}
	return f, f.Name(), nil
}

// teardownLocked silences and releases the current stream. Caller holds d.mu.
func (d *Device) teardownLocked() {
	if d.streamer != nil {
		speaker.Clear()
		d.streamer.Close()
		d.streamer = nil
	}
	if d.file != nil {
		d.file.Close()
		d.file = nil
	}
	if d.tmpPath != "" {
		os.Remove(d.tmpPath)
		d.tmpPath = ""
	}
	d.ctrl = nil
	d.volume = nil
}

// timeLoop reports the playhead position while audible.
func (d *Device) timeLoop() {
	defer d.wg.Done()
	ticker := time.NewTicker(timeReportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.done:
			return
		case <-ticker.C:
			d.mu.Lock()
			audible := d.streamer != nil && !d.paused
			var pos time.Duration
			if audible {
				speaker.Lock()
				n := d.streamer.Position()
				speaker.Unlock()
				pos = d.format.SampleRate.D(n)
			}
			d.mu.Unlock()
			if audible {
				d.emit(Event{Type: EventTime, Position: pos})
			}
		}
	}
}

// emit sends an event (non-blocking).
func (d *Device) emit(ev Event) {
	select {
	case d.events <- ev:
	default:
		// Drop if buffer full
	}
}

// emitIfCurrent emits only if the generation is still the latest.
func (d *Device) emitIfCurrent(gen uint64, ev Event) {
	d.mu.Lock()
	stale := d.closed || gen != d.loadGen
	d.mu.Unlock()
	if stale {
		return
	}
	d.emit(ev)
}
