package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"medidispense/internal/domain/history"
)

const schema = `
CREATE TABLE IF NOT EXISTS patient_history (
	patient_id TEXT PRIMARY KEY,
	entries    JSONB NOT NULL DEFAULT '[]'::jsonb,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// HistoryStore guarda una fila por paciente con su secuencia de entries.
type HistoryStore struct {
	db *sql.DB
}

func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

func (s *HistoryStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("postgres: ensure schema: %w", err)
	}
	return nil
}

func (s *HistoryStore) Load(ctx context.Context) (map[string][]history.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT patient_id, entries FROM patient_history`)
	if err != nil {
		return nil, fmt.Errorf("postgres: load history: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]history.Entry)
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("postgres: scan history: %w", err)
		}
		out[id] = history.DecodeEntries(json.RawMessage(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: load history: %w", err)
	}
	return out, nil
}

// Save reemplaza el contenido completo de la tabla en una transacción.
func (s *HistoryStore) Save(ctx context.Context, all map[string][]history.Entry) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM patient_history`); err != nil {
		return fmt.Errorf("postgres: clear history: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO patient_history (patient_id, entries, updated_at)
		VALUES ($1, $2::jsonb, now())
	`)
	if err != nil {
		return fmt.Errorf("postgres: prepare insert: %w", err)
	}
	defer stmt.Close()

	for id, entries := range all {
		if entries == nil {
			entries = []history.Entry{}
		}
		b, mErr := json.Marshal(entries)
		if mErr != nil {
			err = fmt.Errorf("postgres: encode %s: %w", id, mErr)
			return err
		}
		if _, err = stmt.ExecContext(ctx, id, string(b)); err != nil {
			return fmt.Errorf("postgres: insert %s: %w", id, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}
