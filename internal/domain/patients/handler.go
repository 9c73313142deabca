package patients

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"medidispense/internal/domain/doses"
	"medidispense/internal/domain/history"

	"github.com/go-chi/chi/v5"
)

// HistoryReader es la parte del historial que usan los tableros.
type HistoryReader interface {
	QueryByPatients(patientIDs []string, sortDescending bool) []history.Entry
}

func RegisterRoutes(r chi.Router, svc *Service, eng *doses.Engine, hist HistoryReader) {
	r.Get("/patients", listPatientsHandler(svc, eng))
	r.Get("/patients/{patientID}", getPatientHandler(svc, eng))

	// Tablero de enfermería
	r.Route("/nurses/{nurseID}", func(nr chi.Router) {
		nr.Get("/patients", nursePatientsHandler(svc, eng))
		nr.Get("/history", nurseHistoryHandler(svc, hist))
	})

	// Tablero del médico
	r.Route("/doctors/{doctorID}", func(dr chi.Router) {
		dr.Get("/patients", doctorPatientsHandler(svc, eng))
		dr.Get("/history", doctorHistoryHandler(svc, hist))
	})
}

type doseStateResponse struct {
	Schedule     []string     `json:"schedule"`
	CurrentIndex int          `json:"current_index"`
	Status       doses.Status `json:"status"`
	NextDoseTime *string      `json:"next_dose_time"`
	LastGivenAt  *time.Time   `json:"last_given_at,omitempty"`
}

type patientResponse struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Gender    string             `json:"gender,omitempty"`
	Age       int                `json:"age,omitempty"`
	Room      string             `json:"room"`
	Diagnosis string             `json:"diagnosis,omitempty"`
	DoctorID  string             `json:"doctor_id,omitempty"`
	Condition string             `json:"condition,omitempty"`
	Allergies []string           `json:"allergies"`
	Notes     string             `json:"notes,omitempty"`
	Dose      *doseStateResponse `json:"dose,omitempty"`
}

type nurseResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Shift string `json:"shift,omitempty"`
	Room  string `json:"room,omitempty"`
}

type nursePatientsResponse struct {
	Nurse    nurseResponse     `json:"nurse"`
	Patients []patientResponse `json:"patients"`
}

type doctorResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Specialization string `json:"specialization,omitempty"`
	Department     string `json:"department,omitempty"`
}

type doctorPatientsResponse struct {
	Doctor   doctorResponse    `json:"doctor"`
	Patients []patientResponse `json:"patients"`
}

// listPatientsHandler godoc
// @Summary Listar pacientes
// @Description Pacientes del roster con su estado de dosis refrescado.
// @Tags patients
// @Produce json
// @Success 200 {array} patientResponse
// @Router /patients [get]
func listPatientsHandler(svc *Service, eng *doses.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListPatients(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponses(r, eng, items))
	}
}

// getPatientHandler godoc
// @Summary Perfil de paciente
// @Tags patients
// @Produce json
// @Param patientID path string true "ID del paciente"
// @Success 200 {object} patientResponse
// @Failure 404 {string} string "patient not found"
// @Router /patients/{patientID} [get]
func getPatientHandler(svc *Service, eng *doses.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.GetPatient(r.Context(), chi.URLParam(r, "patientID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(r, eng, p))
	}
}

// nursePatientsHandler godoc
// @Summary Pacientes asignados a una enfermera
// @Tags nurses
// @Produce json
// @Param nurseID path string true "ID de la enfermera"
// @Success 200 {object} nursePatientsResponse
// @Failure 404 {string} string "nurse not found"
// @Router /nurses/{nurseID}/patients [get]
func nursePatientsHandler(svc *Service, eng *doses.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, items, err := svc.NursePatients(r.Context(), chi.URLParam(r, "nurseID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, nursePatientsResponse{
			Nurse:    nurseResponse{ID: n.ID, Name: n.Name, Shift: n.Shift, Room: n.Room},
			Patients: toPatientResponses(r, eng, items),
		})
	}
}

// nurseHistoryHandler godoc
// @Summary Historial de los pacientes de una enfermera
// @Tags nurses
// @Produce json
// @Param nurseID path string true "ID de la enfermera"
// @Param order query string false "asc | desc (default desc)"
// @Success 200 {array} history.Entry
// @Failure 400 {string} string "invalid order"
// @Failure 404 {string} string "nurse not found"
// @Router /nurses/{nurseID}/history [get]
func nurseHistoryHandler(svc *Service, hist HistoryReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		desc, ok := history.ParseOrder(r.URL.Query().Get("order"))
		if !ok {
			http.Error(w, "order must be asc or desc", http.StatusBadRequest)
			return
		}
		_, items, err := svc.NursePatients(r.Context(), chi.URLParam(r, "nurseID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, hist.QueryByPatients(IDs(items), desc))
	}
}

// doctorPatientsHandler godoc
// @Summary Pacientes de un médico
// @Tags doctors
// @Produce json
// @Param doctorID path string true "ID del médico"
// @Success 200 {object} doctorPatientsResponse
// @Failure 404 {string} string "doctor not found"
// @Router /doctors/{doctorID}/patients [get]
func doctorPatientsHandler(svc *Service, eng *doses.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, items, err := svc.DoctorPatients(r.Context(), chi.URLParam(r, "doctorID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, doctorPatientsResponse{
			Doctor:   doctorResponse{ID: d.ID, Name: d.Name, Specialization: d.Specialization, Department: d.Department},
			Patients: toPatientResponses(r, eng, items),
		})
	}
}

// doctorHistoryHandler godoc
// @Summary Historial de los pacientes de un médico
// @Tags doctors
// @Produce json
// @Param doctorID path string true "ID del médico"
// @Param order query string false "asc | desc (default desc)"
// @Success 200 {array} history.Entry
// @Failure 400 {string} string "invalid order"
// @Failure 404 {string} string "doctor not found"
// @Router /doctors/{doctorID}/history [get]
func doctorHistoryHandler(svc *Service, hist HistoryReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		desc, ok := history.ParseOrder(r.URL.Query().Get("order"))
		if !ok {
			http.Error(w, "order must be asc or desc", http.StatusBadRequest)
			return
		}
		_, items, err := svc.DoctorPatients(r.Context(), chi.URLParam(r, "doctorID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, hist.QueryByPatients(IDs(items), desc))
	}
}

func toPatientResponses(r *http.Request, eng *doses.Engine, items []Patient) []patientResponse {
	out := make([]patientResponse, 0, len(items))
	for _, p := range items {
		out = append(out, toPatientResponse(r, eng, p))
	}
	return out
}

// toPatientResponse refresca el engine antes de leer el estado, igual que
// cualquier otra vista del schedule.
func toPatientResponse(r *http.Request, eng *doses.Engine, p Patient) patientResponse {
	out := patientResponse{
		ID:        p.ID,
		Name:      p.Name,
		Gender:    p.Gender,
		Age:       p.Age,
		Room:      p.Room,
		Diagnosis: p.Diagnosis,
		DoctorID:  p.DoctorID,
		Condition: p.Condition,
		Allergies: p.Allergies,
		Notes:     p.Notes,
	}
	if out.Allergies == nil {
		out.Allergies = []string{}
	}

	if eng != nil {
		if st, err := eng.Refresh(r.Context(), p.ID, eng.Now()); err == nil {
			out.Dose = &doseStateResponse{
				Schedule:     st.Schedule,
				CurrentIndex: st.Cursor,
				Status:       st.Status,
				NextDoseTime: st.NextDoseTime,
				LastGivenAt:  st.LastGivenAt,
			}
		}
	}
	return out
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrPatientNotFound):
		http.Error(w, "patient not found", http.StatusNotFound)
	case errors.Is(err, ErrNurseNotFound):
		http.Error(w, "nurse not found", http.StatusNotFound)
	case errors.Is(err, ErrDoctorNotFound):
		http.Error(w, "doctor not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
