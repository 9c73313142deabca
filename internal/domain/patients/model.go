package patients

// Patient es el perfil clínico del paciente internado.
// Schedule y CurrentIndex son solo el estado inicial del engine de dosis.
type Patient struct {
	ID        string
	Name      string
	Gender    string
	Age       int
	Room      string
	Diagnosis string
	DoctorID  string
	Condition string
	Allergies []string
	Notes     string

	Schedule     []string // hh:mm AM|PM
	CurrentIndex int
}

// Nurse tiene asignado un conjunto de pacientes.
type Nurse struct {
	ID         string
	Name       string
	Shift      string
	Room       string
	PatientIDs []string
}

type Doctor struct {
	ID             string
	Name           string
	Specialization string
	Department     string
}

// Roster es el padrón completo que se carga al arrancar.
type Roster struct {
	Patients []Patient
	Nurses   []Nurse
	Doctors  []Doctor
}
