// Package roster lee el padrón de pacientes, enfermeras y médicos desde un
// archivo YAML, TOML o JSON (según la extensión).
package roster

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"medidispense/internal/domain/patients"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatFor resuelve el formato por extensión; cualquier otra cosa es YAML.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

type fileRoster struct {
	Patients []filePatient `yaml:"patients" toml:"patients" json:"patients"`
	Nurses   []fileNurse   `yaml:"nurses" toml:"nurses" json:"nurses"`
	Doctors  []fileDoctor  `yaml:"doctors" toml:"doctors" json:"doctors"`
}

type filePatient struct {
	ID           string   `yaml:"patient_id" toml:"patient_id" json:"patient_id"`
	Name         string   `yaml:"name" toml:"name" json:"name"`
	Gender       string   `yaml:"gender" toml:"gender" json:"gender"`
	Age          int      `yaml:"age" toml:"age" json:"age"`
	Room         string   `yaml:"room" toml:"room" json:"room"`
	Diagnosis    string   `yaml:"diagnosis" toml:"diagnosis" json:"diagnosis"`
	DoctorID     string   `yaml:"doctor_id" toml:"doctor_id" json:"doctor_id"`
	Condition    string   `yaml:"condition" toml:"condition" json:"condition"`
	Allergies    []string `yaml:"allergies" toml:"allergies" json:"allergies"`
	Notes        string   `yaml:"notes" toml:"notes" json:"notes"`
	Schedule     []string `yaml:"medication_schedule" toml:"medication_schedule" json:"medication_schedule"`
	CurrentIndex int      `yaml:"current_index" toml:"current_index" json:"current_index"`
}

type fileNurse struct {
	ID       string   `yaml:"nurse_id" toml:"nurse_id" json:"nurse_id"`
	Name     string   `yaml:"name" toml:"name" json:"name"`
	Shift    string   `yaml:"shift" toml:"shift" json:"shift"`
	Room     string   `yaml:"assigned_room" toml:"assigned_room" json:"assigned_room"`
	Assigned []string `yaml:"assigned_patients" toml:"assigned_patients" json:"assigned_patients"`
}

type fileDoctor struct {
	ID             string `yaml:"doctor_id" toml:"doctor_id" json:"doctor_id"`
	Name           string `yaml:"name" toml:"name" json:"name"`
	Specialization string `yaml:"specialization" toml:"specialization" json:"specialization"`
	Department     string `yaml:"department" toml:"department" json:"department"`
}

// Load lee y valida el roster.
func Load(path string) (patients.Roster, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return patients.Roster{}, fmt.Errorf("roster: read %s: %w", path, err)
	}
	r, err := Decode(b, FormatFor(path))
	if err != nil {
		return patients.Roster{}, fmt.Errorf("roster: %s: %w", path, err)
	}
	return r, nil
}

func Decode(data []byte, f Format) (patients.Roster, error) {
	var fr fileRoster
	switch f {
	case FormatTOML:
		if err := toml.Unmarshal(data, &fr); err != nil {
			return patients.Roster{}, fmt.Errorf("decode toml: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &fr); err != nil {
			return patients.Roster{}, fmt.Errorf("decode json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &fr); err != nil {
			return patients.Roster{}, fmt.Errorf("decode yaml: %w", err)
		}
	}

	r := fr.toDomain()
	if err := patients.Validate(r); err != nil {
		return patients.Roster{}, err
	}
	return r, nil
}

func (fr fileRoster) toDomain() patients.Roster {
	out := patients.Roster{
		Patients: make([]patients.Patient, 0, len(fr.Patients)),
		Nurses:   make([]patients.Nurse, 0, len(fr.Nurses)),
		Doctors:  make([]patients.Doctor, 0, len(fr.Doctors)),
	}
	for _, p := range fr.Patients {
		out.Patients = append(out.Patients, patients.Patient{
			ID:           strings.TrimSpace(p.ID),
			Name:         strings.TrimSpace(p.Name),
			Gender:       p.Gender,
			Age:          p.Age,
			Room:         strings.TrimSpace(p.Room),
			Diagnosis:    p.Diagnosis,
			DoctorID:     strings.TrimSpace(p.DoctorID),
			Condition:    p.Condition,
			Allergies:    p.Allergies,
			Notes:        p.Notes,
			Schedule:     p.Schedule,
			CurrentIndex: p.CurrentIndex,
		})
	}
	for _, n := range fr.Nurses {
		out.Nurses = append(out.Nurses, patients.Nurse{
			ID:         strings.TrimSpace(n.ID),
			Name:       strings.TrimSpace(n.Name),
			Shift:      n.Shift,
			Room:       n.Room,
			PatientIDs: n.Assigned,
		})
	}
	for _, d := range fr.Doctors {
		out.Doctors = append(out.Doctors, patients.Doctor{
			ID:             strings.TrimSpace(d.ID),
			Name:           strings.TrimSpace(d.Name),
			Specialization: d.Specialization,
			Department:     d.Department,
		})
	}
	return out
}
