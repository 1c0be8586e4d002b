package store

import (
	"database/sql"
	"time"
)

// CommandEntry is one recognized voice phrase.
type CommandEntry struct {
	ID        int64     `json:"id"`
	Phrase    string    `json:"phrase"`
	Command   string    `json:"command,omitempty"`
	Matched   bool      `json:"matched"`
	CreatedAt time.Time `json:"created_at"`
}

// CommandRepository is the append-only voice command log.
type CommandRepository struct {
	db *sql.DB
}

// Commands returns the command log repository for this store.
func (s *Store) Commands() *CommandRepository {
	return &CommandRepository{db: s.db}
}

// Record appends e to the log and fills in its ID and CreatedAt.
func (r *CommandRepository) Record(e *CommandEntry) error {
	e.CreatedAt = time.Now()

	result, err := r.db.Exec(
		`INSERT INTO commands (phrase, command, matched, created_at) VALUES (?, ?, ?, ?)`,
		e.Phrase, e.Command, e.Matched, e.CreatedAt,
	)
	if err != nil {
		return err
	}

	e.ID, err = result.LastInsertId()
	return err
}

// Recent returns up to limit entries, newest first.
func (r *CommandRepository) Recent(limit int) ([]CommandEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(
		`SELECT id, phrase, command, matched, created_at
		 FROM commands ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []CommandEntry
	for rows.Next() {
		var e CommandEntry
		var matched int
		if err := rows.Scan(&e.ID, &e.Phrase, &e.Command, &matched, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Matched = matched != 0
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
