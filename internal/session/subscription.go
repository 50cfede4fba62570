package session

const eventBufferSize = 16

// Subscription provides event channels for a subscriber.
type Subscription struct {
	TrackChanged    <-chan TrackChange
	PlayingChanged  <-chan PlayingChange
	ProgressChanged <-chan ProgressChange
	VolumeChanged   <-chan VolumeChange
	QueueChanged    <-chan QueueChange
	ViewChanged     <-chan ViewChange
	Done            <-chan struct{}

	// Internal write channels
	trackCh    chan TrackChange
	playingCh  chan PlayingChange
	progressCh chan ProgressChange
	volumeCh   chan VolumeChange
	queueCh    chan QueueChange
	viewCh     chan ViewChange
	doneCh     chan struct{}
}

// newSubscription creates a new subscription with buffered channels.
func newSubscription() *Subscription {
	s := &Subscription{
		trackCh:    make(chan TrackChange, eventBufferSize),
		playingCh:  make(chan PlayingChange, eventBufferSize),
		progressCh: make(chan ProgressChange, eventBufferSize),
		volumeCh:   make(chan VolumeChange, eventBufferSize),
		queueCh:    make(chan QueueChange, eventBufferSize),
		viewCh:     make(chan ViewChange, eventBufferSize),
		doneCh:     make(chan struct{}),
	}
	s.TrackChanged = s.trackCh
	s.PlayingChanged = s.playingCh
	s.ProgressChanged = s.progressCh
	s.VolumeChanged = s.volumeCh
	s.QueueChanged = s.queueCh
	s.ViewChanged = s.viewCh
	s.Done = s.doneCh
	return s
}

// close signals subscribers to stop by closing doneCh.
func (s *Subscription) close() {
	close(s.doneCh)
}

// sendTrack sends a track change event (non-blocking).
func (s *Subscription) sendTrack(e TrackChange) {
	select {
	case s.trackCh <- e:
	default:
		// Drop if buffer full
	}
}

// sendPlaying sends a playing change event (non-blocking).
func (s *Subscription) sendPlaying(e PlayingChange) {
	select {
	case s.playingCh <- e:
	default:
	}
}

// sendProgress sends a progress change event (non-blocking).
func (s *Subscription) sendProgress(e ProgressChange) {
	select {
	case s.progressCh <- e:
	default:
	}
}

// sendVolume sends a volume change event (non-blocking).
func (s *Subscription) sendVolume(e VolumeChange) {
	select {
	case s.volumeCh <- e:
	default:
	}
}

// sendQueue sends a queue change event (non-blocking).
func (s *Subscription) sendQueue(e QueueChange) {
	select {
	case s.queueCh <- e:
	default:
	}
}

// sendView sends a view change event (non-blocking).
func (s *Subscription) sendView(e ViewChange) {
	select {
	case s.viewCh <- e:
	default:
	}
}
