package alerts

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

const streamHeartbeat = 15 * time.Second

func RegisterRoutes(r chi.Router, hub *Hub) {
	r.Get("/alerts/stream", streamHandler(hub))
}

// streamHandler godoc
// @Summary Stream de alertas de dosis
// @Description Server-Sent Events: cada alerta llega como `event: medicine_alert` con el JSON de la alerta en `data`.
// @Tags alerts
// @Produce text/event-stream
// @Success 200 {object} Alert
// @Failure 500 {string} string "streaming unsupported"
// @Router /alerts/stream [get]
func streamHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		// El stream vive más que el WriteTimeout del server.
		_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

		ch, cancel := hub.Subscribe(16)
		defer cancel()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		heartbeat := time.NewTicker(streamHeartbeat)
		defer heartbeat.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-heartbeat.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
				flusher.Flush()
			case a, ok := <-ch:
				if !ok {
					return
				}
				b, err := json.Marshal(a)
				if err != nil {
					continue
				}
				if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", EventType, b); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
