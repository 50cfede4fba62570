// Package queue holds the ordered list of tracks pending after the current
// one. The currently playing track is never part of the queue: it is popped
// off the head the moment it becomes current, so Len() directly answers
// "how many tracks remain".
package queue

import "github.com/aguiarsc/groovy-player/internal/catalog"

// Queue is an ordered list of pending tracks.
type Queue struct {
	tracks []catalog.Track
}

// New creates a new empty queue.
func New() *Queue {
	return &Queue{
		tracks: make([]catalog.Track, 0),
	}
}

// Add appends tracks to the queue.
func (q *Queue) Add(tracks ...catalog.Track) {
	q.tracks = append(q.tracks, tracks...)
}

// PopFront removes and returns the head of the queue.
// Returns nil if the queue is empty.
func (q *Queue) PopFront() *catalog.Track {
	if len(q.tracks) == 0 {
		return nil
	}
	head := q.tracks[0]
	q.tracks = q.tracks[1:]
	return &head
}

// Remove removes the track at the given index.
// Returns false if index is out of bounds.
func (q *Queue) Remove(index int) bool {
	if index < 0 || index >= len(q.tracks) {
		return false
	}
	q.tracks = append(q.tracks[:index], q.tracks[index+1:]...)
	return true
}

// Replace discards the current contents and installs the given tracks.
func (q *Queue) Replace(tracks []catalog.Track) {
	q.tracks = make([]catalog.Track, len(tracks))
	copy(q.tracks, tracks)
}

// Clear removes all tracks from the queue.
func (q *Queue) Clear() {
	q.tracks = q.tracks[:0]
}

// Tracks returns a copy of all tracks.
func (q *Queue) Tracks() []catalog.Track {
	result := make([]catalog.Track, len(q.tracks))
	copy(result, q.tracks)
	return result
}

// Track returns the track at the given index, or nil if out of bounds.
func (q *Queue) Track(index int) *catalog.Track {
	if index < 0 || index >= len(q.tracks) {
		return nil
	}
	return &q.tracks[index]
}

// Len returns the number of tracks.
func (q *Queue) Len() int {
	return len(q.tracks)
}

// IsEmpty returns true if the queue has no tracks.
func (q *Queue) IsEmpty() bool {
	return len(q.tracks) == 0
}

// Move moves the track at fromIndex to toIndex as a single operation.
// Returns false if either index is out of bounds.
func (q *Queue) Move(fromIndex, toIndex int) bool {
	if fromIndex < 0 || fromIndex >= len(q.tracks) {
		return false
	}
	if toIndex < 0 || toIndex >= len(q.tracks) {
		return false
	}
	if fromIndex == toIndex {
		return true
	}

	track := q.tracks[fromIndex]
	q.tracks = append(q.tracks[:fromIndex], q.tracks[fromIndex+1:]...)
	q.tracks = append(q.tracks[:toIndex], append([]catalog.Track{track}, q.tracks[toIndex:]...)...)
	return true
}
