package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"medidispense/internal/domain/alerts"
	"medidispense/internal/platform/httpclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher_PostsStructuredCloudEvent(t *testing.T) {
	var (
		gotContentType string
		gotBody        map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	p := New(srv.URL, httpclient.New(2*time.Second))
	err := p.Publish(context.Background(), alerts.Alert{
		PatientID:   "P001",
		PatientName: "Ayesha Rahman",
		Room:        "R101",
		Time:        "10:00 AM",
		Date:        "2026-03-01",
	})
	require.NoError(t, err)

	assert.Equal(t, "application/cloudevents+json", gotContentType)
	assert.Equal(t, "1.0", gotBody["specversion"])
	assert.Equal(t, EventType, gotBody["type"])
	assert.Equal(t, DefaultSource, gotBody["source"])
	assert.Equal(t, "P001", gotBody["subject"])
	assert.NotEmpty(t, gotBody["id"])

	data, ok := gotBody["data"].(map[string]any)
	require.True(t, ok, "data should be embedded JSON")
	assert.Equal(t, "R101", data["room"])
	assert.Equal(t, "10:00 AM", data["time"])
}

func TestPublisher_NonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := New(srv.URL, nil).Publish(context.Background(), alerts.Alert{PatientID: "P001"})
	require.Error(t, err)

	var httpErr *httpclient.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.Equal(t, "nope", httpErr.Body)
}
