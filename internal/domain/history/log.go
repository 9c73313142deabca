package history

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"medidispense/internal/platform/logger"
	"medidispense/internal/platform/metrics"
)

// Log es el historial append-only por paciente.
//
// La memoria es la fuente de verdad del proceso; cada Append reescribe el
// mapa completo en el Store. Las escrituras se serializan y cada snapshot
// lleva una versión: si ya se persistió una versión más nueva, el snapshot
// viejo se descarta. Un Save fallido se loguea y se reintenta con el
// siguiente Append (o Flush).
type Log struct {
	mu        sync.RWMutex
	byPatient map[string][]Entry
	version   uint64

	saveMu sync.Mutex
	saved  uint64

	store Store
	log   logger.Logger
}

func NewLog(store Store, l logger.Logger) *Log {
	if l == nil {
		l = logger.Nop()
	}
	return &Log{
		byPatient: make(map[string][]Entry),
		store:     store,
		log:       l.With(map[string]any{"component": "history"}),
	}
}

// LoadAll lee el mapa persistido. known es id => nombre de los pacientes
// del roster: todos terminan con una secuencia (vacía si no había nada) y
// las entries sin patient_id/patient_name se completan.
// Si el Store falla, el log queda con secuencias vacías y se retorna el error.
func (l *Log) LoadAll(ctx context.Context, known map[string]string) error {
	loaded, err := l.store.Load(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.byPatient = make(map[string][]Entry, len(known))
	for id := range known {
		l.byPatient[id] = []Entry{}
	}

	if err != nil {
		return fmt.Errorf("%w: load: %v", ErrPersistence, err)
	}

	for id, entries := range loaded {
		if entries == nil {
			entries = []Entry{}
		}
		for i := range entries {
			if strings.TrimSpace(entries[i].PatientID) == "" {
				entries[i].PatientID = id
			}
			if strings.TrimSpace(entries[i].PatientName) == "" {
				entries[i].PatientName = known[id]
			}
		}
		l.byPatient[id] = entries
	}
	return nil
}

// Append agrega la entry al paciente y persiste todo el mapa.
// Nunca falla hacia el caller: un error de persistencia queda en el log.
func (l *Log) Append(ctx context.Context, patientID string, e Entry) {
	if strings.TrimSpace(e.PatientID) == "" {
		e.PatientID = patientID
	}

	l.mu.Lock()
	l.byPatient[patientID] = append(l.byPatient[patientID], e)
	l.version++
	v := l.version
	snap := l.snapshotLocked()
	l.mu.Unlock()

	// La auditoría no se corta si el request que la originó se cancela.
	_ = l.persist(context.WithoutCancel(ctx), v, snap)
}

// Flush persiste el estado actual si hay cambios sin guardar.
func (l *Log) Flush(ctx context.Context) error {
	l.mu.RLock()
	v := l.version
	snap := l.snapshotLocked()
	l.mu.RUnlock()

	return l.persist(ctx, v, snap)
}

func (l *Log) persist(ctx context.Context, v uint64, snap map[string][]Entry) error {
	l.saveMu.Lock()
	defer l.saveMu.Unlock()

	if v <= l.saved {
		return nil
	}
	if err := l.store.Save(ctx, snap); err != nil {
		metrics.RecordPersistFailure()
		l.log.Error("history save failed; will retry on next append", map[string]any{
			"version": v,
			"error":   err,
		})
		return fmt.Errorf("%w: save: %v", ErrPersistence, err)
	}
	l.saved = v
	return nil
}

// snapshotLocked copia los headers de slice: las entries existentes no se
// mutan nunca, así que compartir el backing array es seguro.
func (l *Log) snapshotLocked() map[string][]Entry {
	out := make(map[string][]Entry, len(l.byPatient))
	for id, entries := range l.byPatient {
		out[id] = entries[:len(entries):len(entries)]
	}
	return out
}

func (l *Log) Entries(patientID string) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	src := l.byPatient[patientID]
	out := make([]Entry, len(src))
	copy(out, src)
	return out
}

// Latest devuelve la última entry del paciente para ese horario y fecha.
func (l *Log) Latest(patientID, doseTime, date string) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := l.byPatient[patientID]
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.DoseTime == nil || *e.DoseTime != doseTime {
			continue
		}
		if e.EventDate != date {
			continue
		}
		return e, true
	}
	return Entry{}, false
}

// QueryByPatients junta las entries de los pacientes y las ordena por fecha.
// El orden es estable: dentro del mismo día se respeta el orden de inserción.
func (l *Log) QueryByPatients(patientIDs []string, sortDescending bool) []Entry {
	l.mu.RLock()
	out := make([]Entry, 0)
	seen := make(map[string]bool, len(patientIDs))
	for _, id := range patientIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, l.byPatient[id]...)
	}
	l.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if sortDescending {
			return out[i].EventDate > out[j].EventDate
		}
		return out[i].EventDate < out[j].EventDate
	})
	return out
}
