package store

import (
	"database/sql"
	"errors"
	"image"
	"image/color"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Save is one persisted canvas snapshot.
type Save struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Segments  int       `json:"segments"`
	CreatedAt time.Time `json:"created_at"`
}

// Segment is a stroke segment as journaled with a save.
type Segment struct {
	Start     image.Point
	End       image.Point
	Color     color.RGBA
	Thickness int
}

// SaveRepository records saves and the stroke history behind them.
type SaveRepository struct {
	db *sql.DB
}

// Saves returns the save repository for this store.
func (s *Store) Saves() *SaveRepository {
	return &SaveRepository{db: s.db}
}

// Create inserts sv and its segments in a single transaction. An empty ID is
// replaced with a new UUID; Segments and CreatedAt are set from the call.
func (r *SaveRepository) Create(sv *Save, segments []Segment) error {
	if sv.ID == "" {
		sv.ID = uuid.NewString()
	}
	sv.Segments = len(segments)
	sv.CreatedAt = time.Now()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO saves (id, path, width, height, segments, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sv.ID, sv.Path, sv.Width, sv.Height, sv.Segments, sv.CreatedAt,
	)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO save_segments (save_id, sequence, x1, y1, x2, y2, r, g, b, thickness)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, seg := range segments {
		_, err := stmt.Exec(sv.ID, i,
			seg.Start.X, seg.Start.Y, seg.End.X, seg.End.Y,
			seg.Color.R, seg.Color.G, seg.Color.B, seg.Thickness,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Get retrieves a save by its ID.
func (r *SaveRepository) Get(id string) (*Save, error) {
	return r.scanOne(
		`SELECT id, path, width, height, segments, created_at
		 FROM saves WHERE id = ?`, id)
}

// Latest returns the most recent save.
func (r *SaveRepository) Latest() (*Save, error) {
	return r.scanOne(
		`SELECT id, path, width, height, segments, created_at
		 FROM saves ORDER BY created_at DESC, rowid DESC LIMIT 1`)
}

func (r *SaveRepository) scanOne(query string, args ...any) (*Save, error) {
	sv := &Save{}
	err := r.db.QueryRow(query, args...).
		Scan(&sv.ID, &sv.Path, &sv.Width, &sv.Height, &sv.Segments, &sv.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sv, nil
}

// List retrieves all saves, newest first.
func (r *SaveRepository) List() ([]*Save, error) {
	rows, err := r.db.Query(
		`SELECT id, path, width, height, segments, created_at
		 FROM saves ORDER BY created_at DESC, rowid DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var saves []*Save
	for rows.Next() {
		sv := &Save{}
		if err := rows.Scan(&sv.ID, &sv.Path, &sv.Width, &sv.Height, &sv.Segments, &sv.CreatedAt); err != nil {
			return nil, err
		}
		saves = append(saves, sv)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return saves, nil
}

// Segments returns the journaled segments of a save in commit order.
func (r *SaveRepository) Segments(saveID string) ([]Segment, error) {
	if _, err := r.Get(saveID); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(
		`SELECT x1, y1, x2, y2, r, g, b, thickness
		 FROM save_segments WHERE save_id = ? ORDER BY sequence`,
		saveID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var segments []Segment
	for rows.Next() {
		var seg Segment
		err := rows.Scan(
			&seg.Start.X, &seg.Start.Y, &seg.End.X, &seg.End.Y,
			&seg.Color.R, &seg.Color.G, &seg.Color.B, &seg.Thickness,
		)
		if err != nil {
			return nil, err
		}
		seg.Color.A = 255
		segments = append(segments, seg)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return segments, nil
}

// Delete removes a save and its segments.
func (r *SaveRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM saves WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
