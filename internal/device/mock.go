package device

import (
	"sync"
	"time"
)

// Mock is a test double for the audio device. Safe for concurrent use so
// tests can poke it while the engine drives it from its own goroutine.
type Mock struct {
	mu          sync.Mutex
	source      string
	paused      bool
	position    time.Duration
	duration    time.Duration
	level       float64
	playErr     error
	sourceCalls []string
	playCalls   int
	pauseCalls  int
	seekCalls   []time.Duration
	events      chan Event
}

// NewMock creates a new mock device.
func NewMock() *Mock {
	return &Mock{
		paused: true,
		level:  1.0,
		events: make(chan Event, 32),
	}
}

func (m *Mock) SetSource(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.source = url
	m.paused = true
	m.position = 0
	m.sourceCalls = append(m.sourceCalls, url)
}

func (m *Mock) Source() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.source
}

func (m *Mock) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playCalls++
	if m.playErr != nil {
		return m.playErr
	}
	m.paused = false
	return nil
}

func (m *Mock) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauseCalls++
	m.paused = true
}

func (m *Mock) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

func (m *Mock) SeekTo(pos time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = pos
	m.seekCalls = append(m.seekCalls, pos)
}

func (m *Mock) SetVolume(level float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.level = level
}

func (m *Mock) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Mock) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *Mock) Events() <-chan Event {
	return m.events
}

func (m *Mock) Close() error { return nil }

// Test helpers

func (m *Mock) SetPlayError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playErr = err
}

func (m *Mock) SetPosition(pos time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = pos
}

func (m *Mock) SetDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
}

func (m *Mock) SourceCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]string, len(m.sourceCalls))
	copy(calls, m.sourceCalls)
	return calls
}

func (m *Mock) PlayCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

func (m *Mock) PauseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauseCalls
}

func (m *Mock) SeekCalls() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]time.Duration, len(m.seekCalls))
	copy(calls, m.seekCalls)
	return calls
}

func (m *Mock) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level
}

// SimulateLoaded emits an EventLoaded with the given duration.
func (m *Mock) SimulateLoaded(d time.Duration) {
	m.mu.Lock()
	m.duration = d
	m.mu.Unlock()
	m.events <- Event{Type: EventLoaded, Duration: d}
}

// SimulateTime emits an EventTime at the given position.
func (m *Mock) SimulateTime(pos time.Duration) {
	m.mu.Lock()
	m.position = pos
	m.mu.Unlock()
	m.events <- Event{Type: EventTime, Position: pos}
}

// SimulateEnded emits an EventEnded.
func (m *Mock) SimulateEnded() {
	m.events <- Event{Type: EventEnded}
}

// SimulateError emits an EventError.
func (m *Mock) SimulateError(err error) {
	m.events <- Event{Type: EventError, Err: err}
}
