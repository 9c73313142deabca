// Package file guarda el historial como un único documento JSON
// {patient_id: [entry...]}, compatible con history_store.json.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"medidispense/internal/domain/history"
)

type HistoryStore struct {
	path string
}

func NewHistoryStore(path string) *HistoryStore {
	return &HistoryStore{path: path}
}

func (s *HistoryStore) Path() string { return s.path }

// Load devuelve un mapa vacío si el archivo no existe o está vacío.
// Valores que no son listas de entries se leen como listas vacías.
func (s *HistoryStore) Load(ctx context.Context) (map[string][]history.Entry, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string][]history.Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file: read %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return map[string][]history.Entry{}, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("file: decode %s: %w", s.path, err)
	}

	out := make(map[string][]history.Entry, len(raw))
	for id, v := range raw {
		out[id] = history.DecodeEntries(v)
	}
	return out, nil
}

// Save reescribe el documento completo. Escribe a un temporal en el mismo
// directorio y lo renombra: un corte a mitad no deja el archivo truncado.
func (s *HistoryStore) Save(ctx context.Context, all map[string][]history.Entry) error {
	b, err := json.MarshalIndent(all, "", "    ")
	if err != nil {
		return fmt.Errorf("file: encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("file: create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op después del rename

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("file: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("file: sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("file: close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("file: rename: %w", err)
	}
	return nil
}
