package pg

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"voicemail-stt/internal/app/model"
	"voicemail-stt/internal/app/repository"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS transcriptions (
	message_id TEXT PRIMARY KEY,
	status     TEXT NOT NULL,
	text       TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);`

// PostgresStore persists completed transcriptions in PostgreSQL, for
// deployments where several overlay sessions share one durable store.
type PostgresStore struct {
	db *sql.DB
}

var _ repository.TranscriptionStore = (*PostgresStore)(nil)

// NewPostgresStore connects with the given connection string and ensures the
// transcriptions table exists.
func NewPostgresStore(connectionString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// newStoreWithDB wires an existing connection, used by unit tests with sqlmock.
func newStoreWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Load reads all persisted entries.
func (s *PostgresStore) Load() (map[string]model.TranscriptionResult, error) {
	rows, err := s.db.Query(`SELECT message_id, status, text FROM transcriptions`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	entries := map[string]model.TranscriptionResult{}
	for rows.Next() {
		var res model.TranscriptionResult
		if err := rows.Scan(&res.MessageID, &res.Status, &res.Text); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		entries[res.MessageID] = res
	}
	return entries, rows.Err()
}

// Save replaces all rows with the given entries in one transaction.
func (s *PostgresStore) Save(entries map[string]model.TranscriptionResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM transcriptions`); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear table: %w", err)
	}

	insertSQL := `INSERT INTO transcriptions (message_id, status, text) VALUES ($1, $2, $3)`
	for messageID, res := range entries {
		if _, err := tx.Exec(insertSQL, messageID, string(res.Status), res.Text); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert failed: %w", err)
		}
	}

	return tx.Commit()
}

// Close closes the underlying database.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
