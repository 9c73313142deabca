package history

import (
	"context"
	"encoding/json"
	"errors"
)

var ErrPersistence = errors.New("history persistence failure")

// Store es el contrato clave-valor de persistencia: se lee el mapa completo
// al arrancar y se reescribe completo en cada Save.
type Store interface {
	Load(ctx context.Context) (map[string][]Entry, error)
	Save(ctx context.Context, all map[string][]Entry) error
}

// DecodeEntries decodifica el valor persistido de un paciente.
// Cualquier cosa que no sea una lista de entries se trata como lista vacía.
func DecodeEntries(raw json.RawMessage) []Entry {
	var out []Entry
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return []Entry{}
	}
	return out
}
