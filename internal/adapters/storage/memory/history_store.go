package memory

import (
	"context"
	"sync"

	"medidispense/internal/domain/history"
)

// HistoryStore guarda el mapa persistido en memoria (dev y tests).
type HistoryStore struct {
	mu    sync.Mutex
	data  map[string][]history.Entry
	saves int
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{data: make(map[string][]history.Entry)}
}

func (s *HistoryStore) Load(ctx context.Context) (map[string][]history.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyHistory(s.data), nil
}

func (s *HistoryStore) Save(ctx context.Context, all map[string][]history.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = copyHistory(all)
	s.saves++
	return nil
}

// Saves cuenta las reescrituras completas.
func (s *HistoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func copyHistory(in map[string][]history.Entry) map[string][]history.Entry {
	out := make(map[string][]history.Entry, len(in))
	for id, entries := range in {
		out[id] = append([]history.Entry{}, entries...)
	}
	return out
}
