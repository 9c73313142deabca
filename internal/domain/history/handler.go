package history

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, l *Log) {
	r.Get("/history", queryHistoryHandler(l))
}

// ParseOrder interpreta ?order=; vacío es descendente.
func ParseOrder(s string) (descending bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "desc":
		return true, true
	case "asc":
		return false, true
	default:
		return false, false
	}
}

// queryHistoryHandler godoc
// @Summary Historial de dosis
// @Description Entries de uno o más pacientes ordenadas por fecha. Dentro del mismo día se respeta el orden de registro.
// @Tags history
// @Produce json
// @Param patient_id query []string true "IDs de paciente (repetible o separados por coma)" collectionFormat(multi)
// @Param order query string false "asc | desc (default desc)"
// @Success 200 {array} Entry
// @Failure 400 {string} string "patient_id required / invalid order"
// @Router /history [get]
func queryHistoryHandler(l *Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ids []string
		for _, v := range r.URL.Query()["patient_id"] {
			for _, id := range strings.Split(v, ",") {
				if id = strings.TrimSpace(id); id != "" {
					ids = append(ids, id)
				}
			}
		}
		if len(ids) == 0 {
			http.Error(w, "patient_id required", http.StatusBadRequest)
			return
		}

		desc, ok := ParseOrder(r.URL.Query().Get("order"))
		if !ok {
			http.Error(w, "order must be asc or desc", http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusOK, l.QueryByPatients(ids, desc))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
