package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Snapshot is an exported canvas image.
type Snapshot struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Format    string    `json:"format"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Data      []byte    `json:"-"`
	Thumbnail []byte    `json:"-"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// SnapshotRepository provides CRUD operations for snapshots.
type SnapshotRepository struct {
	db *sql.DB
}

// Snapshots returns the snapshot repository for this store.
func (s *Store) Snapshots() *SnapshotRepository {
	return &SnapshotRepository{db: s.db}
}

// Create inserts a snapshot. An empty ID is filled with a new UUID.
func (r *SnapshotRepository) Create(snap *Snapshot) error {
	if len(snap.Data) == 0 {
		return errors.New("snapshot has no image data")
	}
	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}
	snap.CreatedAt = time.Now()
	snap.Size = len(snap.Data)

	_, err := r.db.Exec(
		`INSERT INTO snapshots (id, session_id, format, width, height, data, thumbnail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.SessionID, snap.Format, snap.Width, snap.Height, snap.Data, snap.Thumbnail, snap.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// GetByID retrieves a snapshot, image data included.
func (r *SnapshotRepository) GetByID(id string) (*Snapshot, error) {
	snap := &Snapshot{}
	err := r.db.QueryRow(
		`SELECT id, session_id, format, width, height, data, thumbnail, created_at
		 FROM snapshots WHERE id = ?`,
		id,
	).Scan(&snap.ID, &snap.SessionID, &snap.Format, &snap.Width, &snap.Height,
		&snap.Data, &snap.Thumbnail, &snap.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	snap.Size = len(snap.Data)
	return snap, nil
}

// ListBySession returns the snapshots of one session, newest first, without
// image data.
func (r *SnapshotRepository) ListBySession(sessionID string) ([]Snapshot, error) {
	return r.list(`WHERE session_id = ?`, sessionID)
}

// List returns every snapshot, newest first, without image data.
func (r *SnapshotRepository) List() ([]Snapshot, error) {
	return r.list("")
}

func (r *SnapshotRepository) list(where string, args ...any) ([]Snapshot, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, format, width, height, length(data), created_at
		 FROM snapshots `+where+`
		 ORDER BY created_at DESC, id`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshots := []Snapshot{}
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.ID, &s.SessionID, &s.Format, &s.Width, &s.Height, &s.Size, &s.CreatedAt); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return snapshots, nil
}

// Delete removes a snapshot.
func (r *SnapshotRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBySession removes every snapshot of a session and returns how many
// were deleted.
func (r *SnapshotRepository) DeleteBySession(sessionID string) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM snapshots WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
