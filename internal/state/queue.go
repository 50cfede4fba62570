package state

import (
	"database/sql"
	"time"

	dbutil "github.com/aguiarsc/groovy-player/internal/db"

	"github.com/aguiarsc/groovy-player/internal/catalog"
)

func getQueue(db *sql.DB) ([]catalog.Track, error) {
	rows, err := db.Query(`
		SELECT track_id, title, artist, album, genre, release_date, duration_ms
		FROM queue_tracks
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []catalog.Track
	for rows.Next() {
		var t catalog.Track
		var artist, album, genre sql.NullString
		var released, durationMs int64

		err := rows.Scan(&t.ID, &t.Title, &artist, &album, &genre, &released, &durationMs)
		if err != nil {
			return nil, err
		}

		t.Artist = dbutil.NullStringValue(artist)
		t.Album = dbutil.NullStringValue(album)
		t.Genre = dbutil.NullStringValue(genre)
		if released > 0 {
			t.ReleaseDate = time.Unix(released, 0).UTC()
		}
		t.Duration = time.Duration(durationMs) * time.Millisecond
		tracks = append(tracks, t)
	}

	return tracks, rows.Err()
}

func saveQueue(sqlDB *sql.DB, tracks []catalog.Track) error {
	return dbutil.WithTx(sqlDB, func(tx *sql.Tx) error {
		// Clear existing queue
		_, err := tx.Exec(`DELETE FROM queue_tracks`)
		if err != nil {
			return err
		}

		// Insert tracks
		stmt, err := tx.Prepare(`
			INSERT INTO queue_tracks (position, track_id, title, artist, album, genre, release_date, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, t := range tracks {
			var released int64
			if !t.ReleaseDate.IsZero() {
				released = t.ReleaseDate.Unix()
			}
			_, err = stmt.Exec(i, t.ID, t.Title, t.Artist, t.Album, t.Genre, released, t.Duration.Milliseconds())
			if err != nil {
				return err
			}
		}
		return nil
	})
}
