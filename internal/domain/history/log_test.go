package history

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------------
// Test store (in-memory)
// -------------------------

type testStore struct {
	mu      sync.Mutex
	data    map[string][]Entry
	loadErr error
	saveErr error
	saves   int
}

func newTestStore() *testStore {
	return &testStore{data: map[string][]Entry{}}
}

func (s *testStore) Load(ctx context.Context) (map[string][]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	out := make(map[string][]Entry, len(s.data))
	for k, v := range s.data {
		out[k] = append([]Entry(nil), v...)
	}
	return out, nil
}

func (s *testStore) Save(ctx context.Context, all map[string][]Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.data = make(map[string][]Entry, len(all))
	for k, v := range all {
		s.data[k] = append([]Entry(nil), v...)
	}
	return nil
}

func (s *testStore) count(patientID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data[patientID])
}

func label(s string) *string { return &s }

// -------------------------
// Tests
// -------------------------

func TestLog_LoadAll_BackfillsAndSeedsKnownPatients(t *testing.T) {
	store := newTestStore()
	store.data["P001"] = []Entry{{DoseTime: label("08:00 AM"), EventDate: "2026-03-01", Action: ActionGiven, Status: StatusGiven}}
	store.data["P999"] = []Entry{{PatientID: "P999", PatientName: "Old", EventDate: "2026-01-01", Status: StatusMissed}}

	l := NewLog(store, nil)
	err := l.LoadAll(context.Background(), map[string]string{"P001": "Amina Rahman", "P002": "Rafiq Ahmed"})
	require.NoError(t, err)

	got := l.Entries("P001")
	require.Len(t, got, 1)
	assert.Equal(t, "P001", got[0].PatientID)
	assert.Equal(t, "Amina Rahman", got[0].PatientName)

	assert.NotNil(t, l.Entries("P002"))
	assert.Empty(t, l.Entries("P002"))

	// pacientes que ya no están en el roster se conservan
	assert.Len(t, l.Entries("P999"), 1)
}

func TestLog_LoadAll_StoreFailureLeavesEmptyLog(t *testing.T) {
	store := newTestStore()
	store.loadErr = errors.New("disk gone")

	l := NewLog(store, nil)
	err := l.LoadAll(context.Background(), map[string]string{"P001": "A"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Empty(t, l.Entries("P001"))
}

func TestLog_Append_PersistsWholeMapping(t *testing.T) {
	store := newTestStore()
	l := NewLog(store, nil)
	require.NoError(t, l.LoadAll(context.Background(), map[string]string{"P001": "A", "P002": "B"}))

	l.Append(context.Background(), "P001", Entry{EventDate: "2026-03-01", Status: StatusGiven})
	l.Append(context.Background(), "P002", Entry{EventDate: "2026-03-01", Status: StatusMissed})

	assert.Equal(t, 2, store.saves)
	assert.Equal(t, 1, store.count("P001"))
	assert.Equal(t, 1, store.count("P002"))
	assert.Equal(t, "P001", l.Entries("P001")[0].PatientID)
}

func TestLog_Append_PersistenceFailureIsSuppressedAndRetried(t *testing.T) {
	store := newTestStore()
	l := NewLog(store, nil)
	require.NoError(t, l.LoadAll(context.Background(), map[string]string{"P001": "A"}))

	store.saveErr = errors.New("read-only fs")
	l.Append(context.Background(), "P001", Entry{EventDate: "2026-03-01", Status: StatusGiven})

	// memoria sigue siendo autoritativa
	assert.Len(t, l.Entries("P001"), 1)
	assert.Equal(t, 0, store.count("P001"))

	store.saveErr = nil
	l.Append(context.Background(), "P001", Entry{EventDate: "2026-03-01", Status: StatusDue})
	assert.Equal(t, 2, store.count("P001"))
}

func TestLog_Flush_WritesPendingAndSkipsWhenClean(t *testing.T) {
	store := newTestStore()
	l := NewLog(store, nil)
	require.NoError(t, l.LoadAll(context.Background(), map[string]string{"P001": "A"}))

	store.saveErr = errors.New("boom")
	l.Append(context.Background(), "P001", Entry{EventDate: "2026-03-01"})
	store.saveErr = nil

	require.NoError(t, l.Flush(context.Background()))
	assert.Equal(t, 1, store.saves)

	require.NoError(t, l.Flush(context.Background()))
	assert.Equal(t, 1, store.saves, "clean log should not be rewritten")
}

func TestLog_ConcurrentAppendsDoNotLoseEntries(t *testing.T) {
	store := newTestStore()
	l := NewLog(store, nil)
	require.NoError(t, l.LoadAll(context.Background(), map[string]string{"P001": "A", "P002": "B"}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			l.Append(context.Background(), "P001", Entry{EventDate: "2026-03-01"})
		}()
		go func() {
			defer wg.Done()
			l.Append(context.Background(), "P002", Entry{EventDate: "2026-03-01"})
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, store.count("P001"))
	assert.Equal(t, 50, store.count("P002"))
}

func TestLog_QueryByPatients_SortsByDateStable(t *testing.T) {
	store := newTestStore()
	l := NewLog(store, nil)
	require.NoError(t, l.LoadAll(context.Background(), map[string]string{"P001": "A", "P002": "B", "P003": "C"}))

	ctx := context.Background()
	l.Append(ctx, "P001", Entry{ID: "a", EventDate: "2026-03-01"})
	l.Append(ctx, "P002", Entry{ID: "b", EventDate: "2026-03-03"})
	l.Append(ctx, "P001", Entry{ID: "c", EventDate: "2026-03-02"})
	l.Append(ctx, "P001", Entry{ID: "d", EventDate: "2026-03-03"})
	l.Append(ctx, "P003", Entry{ID: "z", EventDate: "2026-03-09"})

	ids := func(entries []Entry) []string {
		out := make([]string, 0, len(entries))
		for _, e := range entries {
			out = append(out, e.ID)
		}
		return out
	}

	desc := l.QueryByPatients([]string{"P001", "P002", "P001"}, true)
	assert.Equal(t, []string{"d", "b", "c", "a"}, ids(desc))

	asc := l.QueryByPatients([]string{"P002", "P001"}, false)
	assert.Equal(t, []string{"a", "c", "b", "d"}, ids(asc))

	assert.Empty(t, l.QueryByPatients([]string{"unknown"}, true))
}

func TestLog_Latest_MatchesLabelAndDate(t *testing.T) {
	l := NewLog(newTestStore(), nil)
	ctx := context.Background()
	l.Append(ctx, "P001", Entry{DoseTime: label("10:00 AM"), EventDate: "2026-03-01", Status: StatusGiven})
	l.Append(ctx, "P001", Entry{DoseTime: label("10:00 AM"), EventDate: "2026-03-01", Status: StatusDue})
	l.Append(ctx, "P001", Entry{DoseTime: label("02:00 PM"), EventDate: "2026-03-01", Status: StatusMissed})

	e, ok := l.Latest("P001", "10:00 AM", "2026-03-01")
	require.True(t, ok)
	assert.Equal(t, StatusDue, e.Status)

	_, ok = l.Latest("P001", "10:00 AM", "2026-03-02")
	assert.False(t, ok)
}

func TestDecodeEntries_CoercesNonSequences(t *testing.T) {
	assert.Empty(t, DecodeEntries(json.RawMessage(`{"not":"a list"}`)))
	assert.Empty(t, DecodeEntries(json.RawMessage(`"text"`)))
	assert.Empty(t, DecodeEntries(json.RawMessage(`null`)))
	assert.NotNil(t, DecodeEntries(json.RawMessage(`null`)))

	got := DecodeEntries(json.RawMessage(`[{"patient_id":"P001","dose_time":"08:00 AM","time":"2026-03-01","action":"Missed Dose","status":"Missed"}]`))
	require.Len(t, got, 1)
	assert.Equal(t, "2026-03-01", got[0].EventDate)
	assert.Equal(t, "08:00 AM", *got[0].DoseTime)
	assert.Equal(t, StatusMissed, got[0].Status)
}
