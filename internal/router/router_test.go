package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mem "medidispense/internal/adapters/storage/memory"
	"medidispense/internal/domain/alerts"
	"medidispense/internal/domain/doses"
	"medidispense/internal/domain/history"
	"medidispense/internal/domain/patients"
	"medidispense/internal/platform/clock"
	"medidispense/internal/router"
)

var dhaka = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Dhaka")
	if err != nil {
		panic(err)
	}
	return loc
}()

func at(hour, min int) time.Time {
	return time.Date(2026, time.March, 1, hour, min, 0, 0, dhaka)
}

type testApp struct {
	url   string
	clock *clock.Manual
	store *mem.HistoryStore
	log   *history.Log
	hub   *alerts.Hub
}

func newTestApp(t *testing.T, rps int) *testApp {
	t.Helper()

	roster := patients.Roster{
		Doctors: []patients.Doctor{{ID: "D001", Name: "Dr. Imran Hossain"}},
		Patients: []patients.Patient{
			{ID: "P001", Name: "Ayesha Rahman", Room: "R101", DoctorID: "D001", Schedule: []string{"10:00 AM", "02:00 PM"}},
			{ID: "P002", Name: "Rafiq Ahmed", Room: "R101", Schedule: []string{"08:00 AM"}},
			{ID: "P003", Name: "Karim Uddin", Room: "R202"},
		},
		Nurses: []patients.Nurse{{ID: "N001", Name: "Nusrat Islam", PatientIDs: []string{"P001", "P002"}}},
	}
	if err := patients.Validate(roster); err != nil {
		t.Fatalf("roster: %v", err)
	}

	ctx := context.Background()
	svc := patients.NewService(mem.NewRosterRepo(roster))

	store := mem.NewHistoryStore()
	hist := history.NewLog(store, nil)
	names, _ := svc.Names(ctx)
	if err := hist.LoadAll(ctx, names); err != nil {
		t.Fatalf("load history: %v", err)
	}

	clk := clock.NewManual(at(9, 0))
	seeds, _ := svc.Seeds(ctx)
	eng, err := doses.NewEngine(seeds, hist, doses.Options{Clock: clk})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}

	hub := alerts.NewHub(nil)
	ts := httptest.NewServer(router.NewRouter(router.Options{
		Engine:         eng,
		History:        hist,
		Patients:       svc,
		Alerts:         hub,
		RateLimitRPS:   rps,
		RateLimitBurst: rps,
	}))
	t.Cleanup(ts.Close)

	return &testApp{url: ts.URL, clock: clk, store: store, log: hist, hub: hub}
}

type doseResp struct {
	Success     bool    `json:"success"`
	Locked      bool    `json:"locked"`
	Outcome     string  `json:"outcome"`
	NewStatus   string  `json:"new_status"`
	NewTime     *string `json:"new_time"`
	LastUpdated *string `json:"last_updated"`
	Message     string  `json:"message"`
}

func TestHTTP_EndToEnd_DoseLifecycle(t *testing.T) {
	app := newTestApp(t, 0)

	// 1) Antes de hora => success=false
	{
		st, body := doReq(t, app.url, "POST", "/patients/P001/dose", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", st, string(body))
		}
		var resp doseResp
		_ = json.Unmarshal(body, &resp)
		if resp.Success || resp.Locked || resp.Outcome != "too_early" {
			t.Fatalf("expected too_early, got %+v", resp)
		}
	}

	// 2) Dentro de la ventana => Given
	app.clock.Set(at(10, 1))
	{
		st, body := doReq(t, app.url, "POST", "/update_medicine_status", map[string]any{"patient_id": "P001"})
		if st != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", st, string(body))
		}
		var resp doseResp
		_ = json.Unmarshal(body, &resp)
		if !resp.Success || resp.NewStatus != "Given" || resp.NewTime == nil || *resp.NewTime != "10:00 AM" {
			t.Fatalf("expected Given at 10:00 AM, got %+v", resp)
		}
		if resp.LastUpdated == nil {
			t.Fatalf("expected last_updated, body=%s", string(body))
		}
	}

	// 3) La ventana vence: el schedule pasa a 02:00 PM sin Missed (ya estaba dada)
	app.clock.Set(at(10, 5))
	{
		st, body := doReq(t, app.url, "GET", "/patients/P001/schedule", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", st, string(body))
		}
		var resp struct {
			CurrentIndex int     `json:"current_index"`
			Status       string  `json:"status"`
			NextDoseTime *string `json:"next_dose_time"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.CurrentIndex != 1 || resp.Status != "Due" || resp.NextDoseTime == nil || *resp.NextDoseTime != "02:00 PM" {
			t.Fatalf("unexpected schedule: %s", string(body))
		}
	}

	// 4) P002 (08:00 AM) vencido => locked + Missed
	{
		st, body := doReq(t, app.url, "POST", "/patients/P002/dose", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", st, string(body))
		}
		var resp doseResp
		_ = json.Unmarshal(body, &resp)
		if resp.Success || !resp.Locked || resp.NewTime == nil || *resp.NewTime != "08:00 AM" {
			t.Fatalf("expected locked with rollover to 08:00 AM, got %+v", resp)
		}
	}

	// 5) Historial del médico: solo P001, una entry Given
	{
		st, body := doReq(t, app.url, "GET", "/doctors/D001/history", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", st, string(body))
		}
		var entries []history.Entry
		_ = json.Unmarshal(body, &entries)
		if len(entries) != 1 || entries[0].Status != history.StatusGiven || entries[0].PatientID != "P001" {
			t.Fatalf("unexpected doctor history: %s", string(body))
		}
	}

	// 6) Historial de la enfermera: P001 Given + P002 Missed
	{
		st, body := doReq(t, app.url, "GET", "/nurses/N001/history?order=asc", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", st, string(body))
		}
		var entries []history.Entry
		_ = json.Unmarshal(body, &entries)
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries, got %s", string(body))
		}
	}

	// 7) /history persistido en el store
	{
		st, body := doReq(t, app.url, "GET", "/history?patient_id=P002", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", st, string(body))
		}
		var entries []history.Entry
		_ = json.Unmarshal(body, &entries)
		if len(entries) != 1 || entries[0].Status != history.StatusMissed || entries[0].Action != history.ActionMissed {
			t.Fatalf("unexpected history: %s", string(body))
		}
		saved, _ := app.store.Load(context.Background())
		if len(saved["P002"]) != 1 {
			t.Fatalf("expected missed entry persisted, got %v", saved["P002"])
		}
	}
}

func TestHTTP_ManualTime(t *testing.T) {
	app := newTestApp(t, 0)

	st, body := doReq(t, app.url, "POST", "/update_manual_time", map[string]any{
		"patient_id": "P001",
		"new_time":   "25:99",
	})
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 invalid time, got %d body=%s", st, string(body))
	}

	st, body = doReq(t, app.url, "PUT", "/patients/P001/schedule/current", map[string]any{"new_time": "09:30 AM"})
	if st != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", st, string(body))
	}
	var resp struct {
		Success bool   `json:"success"`
		NewTime string `json:"new_time"`
	}
	_ = json.Unmarshal(body, &resp)
	if !resp.Success || resp.NewTime != "09:30 AM" {
		t.Fatalf("unexpected response: %s", string(body))
	}

	st, body = doReq(t, app.url, "GET", "/patients/P001", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", st, string(body))
	}
	var p struct {
		Dose struct {
			Schedule []string `json:"schedule"`
		} `json:"dose"`
	}
	_ = json.Unmarshal(body, &p)
	if len(p.Dose.Schedule) != 2 || p.Dose.Schedule[0] != "09:30 AM" {
		t.Fatalf("expected overridden slot, got %s", string(body))
	}

	// sin schedule => 400
	st, _ = doReq(t, app.url, "PUT", "/patients/P003/schedule/current", map[string]any{"new_time": "09:30 AM"})
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 no schedule, got %d", st)
	}
}

func TestHTTP_Errors(t *testing.T) {
	app := newTestApp(t, 0)

	cases := []struct {
		method, path string
		body         any
		want         int
	}{
		{"GET", "/patients/P404/schedule", nil, http.StatusNotFound},
		{"POST", "/patients/P404/dose", nil, http.StatusNotFound},
		{"POST", "/update_medicine_status", map[string]any{}, http.StatusBadRequest},
		{"GET", "/history", nil, http.StatusBadRequest},
		{"GET", "/history?patient_id=P001&order=sideways", nil, http.StatusBadRequest},
		{"GET", "/nurses/N404/patients", nil, http.StatusNotFound},
		{"GET", "/doctors/D404/history", nil, http.StatusNotFound},
		{"GET", "/health", nil, http.StatusOK},
		{"GET", "/metrics", nil, http.StatusOK},
	}
	for _, c := range cases {
		st, body := doReq(t, app.url, c.method, c.path, c.body)
		if st != c.want {
			t.Fatalf("%s %s: expected %d, got %d body=%s", c.method, c.path, c.want, st, string(body))
		}
	}

	// paciente sin schedule => success=false "No schedule found"
	st, body := doReq(t, app.url, "POST", "/patients/P003/dose", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200, got %d", st)
	}
	var resp doseResp
	_ = json.Unmarshal(body, &resp)
	if resp.Success || resp.Message != "No schedule found" {
		t.Fatalf("unexpected response: %s", string(body))
	}
}

func TestHTTP_KioskScheduleAndNursePatients(t *testing.T) {
	app := newTestApp(t, 0)

	st, body := doReq(t, app.url, "GET", "/get_medicine_schedule", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200, got %d", st)
	}
	var all []struct {
		PatientID    string  `json:"patient_id"`
		NextDoseTime *string `json:"next_dose_time"`
	}
	_ = json.Unmarshal(body, &all)
	if len(all) != 3 || all[0].PatientID != "P001" || all[2].NextDoseTime != nil {
		t.Fatalf("unexpected kiosk feed: %s", string(body))
	}

	st, body = doReq(t, app.url, "GET", "/nurses/N001/patients", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200, got %d", st)
	}
	var np struct {
		Nurse struct {
			Name string `json:"name"`
		} `json:"nurse"`
		Patients []struct {
			ID string `json:"id"`
		} `json:"patients"`
	}
	_ = json.Unmarshal(body, &np)
	if np.Nurse.Name != "Nusrat Islam" || len(np.Patients) != 2 {
		t.Fatalf("unexpected nurse patients: %s", string(body))
	}
}

func TestHTTP_RateLimitOnWrites(t *testing.T) {
	app := newTestApp(t, 1)

	st, _ := doReq(t, app.url, "POST", "/patients/P001/dose", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 first write, got %d", st)
	}
	st, _ = doReq(t, app.url, "POST", "/patients/P001/dose", nil)
	if st != http.StatusTooManyRequests {
		t.Fatalf("expected 429 second write, got %d", st)
	}

	// lecturas no se limitan
	for i := 0; i < 3; i++ {
		if st, _ := doReq(t, app.url, "GET", "/patients/P001/schedule", nil); st != http.StatusOK {
			t.Fatalf("expected 200 read, got %d", st)
		}
	}
}

func doReq(t *testing.T, baseURL, method, path string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
