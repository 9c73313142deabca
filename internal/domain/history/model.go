package history

// Fecha civil sin hora; el orden lexicográfico coincide con el cronológico.
const DateLayout = "2006-01-02"

type Status string

const (
	StatusGiven  Status = "Given"
	StatusMissed Status = "Missed"
	StatusDue    Status = "Due"
)

const (
	ActionGiven    = "Medicine Given"
	ActionMissed   = "Missed Dose"
	ActionReverted = "Status Reverted"
)

// Entry es inmutable una vez agregada al log.
// Los tags json son el formato persistido ({patient_id: [entry...]});
// "time" guarda solo la fecha, igual que el history_store.json existente.
type Entry struct {
	ID          string  `json:"id,omitempty"`
	PatientID   string  `json:"patient_id"`
	PatientName string  `json:"patient_name"`
	DoseTime    *string `json:"dose_time"`
	EventDate   string  `json:"time"`
	Action      string  `json:"action"`
	Status      Status  `json:"status"`
}
