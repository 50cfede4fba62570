// Package state persists playback state between runs in a SQLite database
// under the XDG data directory.
package state

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/aguiarsc/groovy-player/internal/catalog"
)

const (
	appName      = "groovy"
	dbFileName   = "groovy.db"
	saveDebounce = 500 * time.Millisecond
)

type Manager struct {
	db        *sql.DB
	saveMu    sync.Mutex
	saveTimer *time.Timer
	pending   []catalog.Track
	hasQueued bool
}

func Open() (*Manager, error) {
	dbPath, err := getDBPath()
	if err != nil {
		return nil, err
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Manager{db: db}, nil
}

func (m *Manager) Close() error {
	m.saveMu.Lock()
	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}
	pending := m.pending
	flush := m.hasQueued
	m.pending = nil
	m.hasQueued = false
	m.saveMu.Unlock()

	// Flush pending queue
	if flush {
		_ = saveQueue(m.db, pending)
	}

	return m.db.Close()
}

func (m *Manager) GetQueue() ([]catalog.Track, error) {
	return getQueue(m.db)
}

// SaveQueue schedules a debounced write of the queue. Rapid successive edits
// collapse into a single write; Close flushes whatever is still pending.
func (m *Manager) SaveQueue(tracks []catalog.Track) {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.pending = make([]catalog.Track, len(tracks))
	copy(m.pending, tracks)
	m.hasQueued = true

	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}

	m.saveTimer = time.AfterFunc(saveDebounce, func() {
		m.saveMu.Lock()
		pending := m.pending
		flush := m.hasQueued
		m.pending = nil
		m.hasQueued = false
		m.saveMu.Unlock()

		if flush {
			_ = saveQueue(m.db, pending)
		}
	})
}

func getDBPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}
