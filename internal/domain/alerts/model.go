package alerts

import "time"

// EventType es el nombre del evento que escucha el kiosk.
const EventType = "medicine_alert"

// Alert avisa que la dosis de un paciente vence ahora.
type Alert struct {
	PatientID   string    `json:"patient_id"`
	PatientName string    `json:"patient_name"`
	Room        string    `json:"room"`
	Time        string    `json:"time"` // hh:mm AM|PM
	Date        string    `json:"date"` // YYYY-MM-DD
	RaisedAt    time.Time `json:"raised_at"`
}
