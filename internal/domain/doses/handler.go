package doses

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta las rutas de dosis. limit se aplica solo a las rutas
// que escriben (toggle y cambio manual de horario).
func RegisterRoutes(r chi.Router, eng *Engine, limit ...func(http.Handler) http.Handler) {
	w := r.With(limit...)

	r.Get("/patients/{patientID}/schedule", getScheduleHandler(eng))
	w.Post("/patients/{patientID}/dose", recordDoseHandler(eng))
	w.Put("/patients/{patientID}/schedule/current", setSlotHandler(eng))

	// Rutas del kiosk
	r.Get("/get_medicine_schedule", listSchedulesHandler(eng))
	w.Post("/update_medicine_status", legacyRecordDoseHandler(eng))
	w.Post("/update_manual_time", legacySetSlotHandler(eng))
}

type scheduleResponse struct {
	PatientID    string     `json:"patient_id"`
	PatientName  string     `json:"patient_name"`
	Room         string     `json:"room"`
	Schedule     []string   `json:"schedule"`
	CurrentIndex int        `json:"current_index"`
	Status       Status     `json:"status"`
	NextDoseTime *string    `json:"next_dose_time"`
	LastGivenAt  *time.Time `json:"last_given_at,omitempty"`
}

type doseActionResponse struct {
	Success     bool       `json:"success"`
	Locked      bool       `json:"locked"`
	Outcome     Outcome    `json:"outcome"`
	NewStatus   Status     `json:"new_status,omitempty"`
	NewTime     *string    `json:"new_time"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
	Message     string     `json:"message,omitempty"`
}

type legacyDoseRequest struct {
	PatientID string `json:"patient_id"`
}

type setSlotRequest struct {
	NewTime string `json:"new_time"` // hh:mm AM|PM
}

type legacySetSlotRequest struct {
	PatientID string `json:"patient_id"`
	NewTime   string `json:"new_time"`
}

type setSlotResponse struct {
	Success bool   `json:"success"`
	NewTime string `json:"new_time"`
}

// getScheduleHandler godoc
// @Summary Estado de dosis de un paciente
// @Description Re-evalúa el schedule contra la hora actual (registra dosis perdidas si corresponde) y devuelve el estado.
// @Tags doses
// @Produce json
// @Param patientID path string true "ID del paciente"
// @Success 200 {object} scheduleResponse
// @Failure 404 {string} string "patient not found"
// @Router /patients/{patientID}/schedule [get]
func getScheduleHandler(eng *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := eng.Refresh(r.Context(), chi.URLParam(r, "patientID"), eng.Now())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toScheduleResponse(st))
	}
}

// listSchedulesHandler godoc
// @Summary Schedules de todos los pacientes
// @Description Feed del kiosk: refresca a cada paciente y devuelve su estado en orden de roster.
// @Tags doses
// @Produce json
// @Success 200 {array} scheduleResponse
// @Router /get_medicine_schedule [get]
func listSchedulesHandler(eng *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		states := eng.RefreshAll(r.Context(), eng.Now())
		out := make([]scheduleResponse, 0, len(states))
		for _, st := range states {
			out = append(out, toScheduleResponse(st))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// recordDoseHandler godoc
// @Summary Marcar / revertir la dosis actual
// @Description Alterna Due/Given dentro de la ventana de la dosis. Antes de la hora o con la ventana vencida responde success=false (locked=true si venció).
// @Tags doses
// @Produce json
// @Param patientID path string true "ID del paciente"
// @Success 200 {object} doseActionResponse
// @Failure 404 {string} string "patient not found"
// @Failure 429 {string} string "too many requests"
// @Router /patients/{patientID}/dose [post]
func recordDoseHandler(eng *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recordDose(w, r, eng, chi.URLParam(r, "patientID"))
	}
}

// legacyRecordDoseHandler godoc
// @Summary Marcar / revertir la dosis actual (kiosk)
// @Tags doses
// @Accept json
// @Produce json
// @Param payload body legacyDoseRequest true "patient_id"
// @Success 200 {object} doseActionResponse
// @Failure 400 {string} string "invalid json / patient_id required"
// @Failure 404 {string} string "patient not found"
// @Router /update_medicine_status [post]
func legacyRecordDoseHandler(eng *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req legacyDoseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.PatientID) == "" {
			http.Error(w, "patient_id required", http.StatusBadRequest)
			return
		}
		recordDose(w, r, eng, req.PatientID)
	}
}

func recordDose(w http.ResponseWriter, r *http.Request, eng *Engine, patientID string) {
	res, err := eng.RecordDoseAction(r.Context(), patientID, eng.Now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doseActionResponse{
		Success:     res.Success,
		Locked:      res.Locked,
		Outcome:     res.Outcome,
		NewStatus:   res.NewStatus,
		NewTime:     res.NextDoseTime,
		LastUpdated: res.LastGivenAt,
		Message:     res.Message,
	})
}

// setSlotHandler godoc
// @Summary Cambiar el horario de la dosis actual
// @Description Reemplaza de forma permanente el horario del slot actual. Formato hh:mm AM|PM.
// @Tags doses
// @Accept json
// @Produce json
// @Param patientID path string true "ID del paciente"
// @Param payload body setSlotRequest true "Nuevo horario"
// @Success 200 {object} setSlotResponse
// @Failure 400 {string} string "invalid json / invalid time format / no schedule"
// @Failure 404 {string} string "patient not found"
// @Router /patients/{patientID}/schedule/current [put]
func setSlotHandler(eng *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setSlotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		setSlot(w, r, eng, chi.URLParam(r, "patientID"), req.NewTime)
	}
}

// legacySetSlotHandler godoc
// @Summary Cambiar el horario de la dosis actual (kiosk)
// @Tags doses
// @Accept json
// @Produce json
// @Param payload body legacySetSlotRequest true "patient_id y new_time"
// @Success 200 {object} setSlotResponse
// @Failure 400 {string} string "invalid json / invalid time format / no schedule"
// @Failure 404 {string} string "patient not found"
// @Router /update_manual_time [post]
func legacySetSlotHandler(eng *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req legacySetSlotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.PatientID) == "" {
			http.Error(w, "patient_id required", http.StatusBadRequest)
			return
		}
		setSlot(w, r, eng, req.PatientID, req.NewTime)
	}
}

func setSlot(w http.ResponseWriter, r *http.Request, eng *Engine, patientID, label string) {
	got, err := eng.SetScheduleSlot(r.Context(), patientID, label)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, setSlotResponse{Success: true, NewTime: got})
}

func toScheduleResponse(st State) scheduleResponse {
	return scheduleResponse{
		PatientID:    st.PatientID,
		PatientName:  st.PatientName,
		Room:         st.Room,
		Schedule:     st.Schedule,
		CurrentIndex: st.Cursor,
		Status:       st.Status,
		NextDoseTime: st.NextDoseTime,
		LastGivenAt:  st.LastGivenAt,
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrPatientNotFound):
		http.Error(w, "patient not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidTimeFormat):
		http.Error(w, "invalid time format, use hh:mm AM|PM", http.StatusBadRequest)
	case errors.Is(err, ErrNoSchedule):
		http.Error(w, "no schedule found", http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
