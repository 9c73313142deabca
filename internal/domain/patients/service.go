package patients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"medidispense/internal/domain/doses"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrPatientNotFound = errors.New("patient not found")
	ErrNurseNotFound   = errors.New("nurse not found")
	ErrDoctorNotFound  = errors.New("doctor not found")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Validate revisa la consistencia del roster antes de usarlo:
// ids únicos, horarios en formato hh:mm AM|PM y referencias existentes.
func Validate(r Roster) error {
	doctors := make(map[string]bool, len(r.Doctors))
	for _, d := range r.Doctors {
		id := strings.TrimSpace(d.ID)
		if id == "" {
			return fmt.Errorf("%w: doctor without id", ErrInvalidInput)
		}
		if doctors[id] {
			return fmt.Errorf("%w: duplicate doctor %q", ErrInvalidInput, id)
		}
		doctors[id] = true
	}

	patients := make(map[string]bool, len(r.Patients))
	for _, p := range r.Patients {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return fmt.Errorf("%w: patient without id", ErrInvalidInput)
		}
		if patients[id] {
			return fmt.Errorf("%w: duplicate patient %q", ErrInvalidInput, id)
		}
		patients[id] = true

		if p.DoctorID != "" && !doctors[p.DoctorID] {
			return fmt.Errorf("%w: patient %s references unknown doctor %q", ErrInvalidInput, id, p.DoctorID)
		}
		for _, l := range p.Schedule {
			if _, err := doses.ParseLabel(l); err != nil {
				return fmt.Errorf("%w: patient %s: %v", ErrInvalidInput, id, err)
			}
		}
	}

	nurses := make(map[string]bool, len(r.Nurses))
	for _, n := range r.Nurses {
		id := strings.TrimSpace(n.ID)
		if id == "" {
			return fmt.Errorf("%w: nurse without id", ErrInvalidInput)
		}
		if nurses[id] {
			return fmt.Errorf("%w: duplicate nurse %q", ErrInvalidInput, id)
		}
		nurses[id] = true

		for _, pid := range n.PatientIDs {
			if !patients[pid] {
				return fmt.Errorf("%w: nurse %s assigned to unknown patient %q", ErrInvalidInput, id, pid)
			}
		}
	}
	return nil
}

func (s *Service) ListPatients(ctx context.Context) ([]Patient, error) {
	return s.repo.ListPatients(ctx)
}

func (s *Service) GetPatient(ctx context.Context, id string) (Patient, error) {
	return s.repo.GetPatient(ctx, strings.TrimSpace(id))
}

// Seeds arma el estado inicial del engine de dosis, en orden de roster.
func (s *Service) Seeds(ctx context.Context) ([]doses.Seed, error) {
	items, err := s.repo.ListPatients(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]doses.Seed, 0, len(items))
	for _, p := range items {
		out = append(out, doses.Seed{
			PatientID: p.ID,
			Name:      p.Name,
			Room:      p.Room,
			Schedule:  append([]string(nil), p.Schedule...),
			Cursor:    p.CurrentIndex,
		})
	}
	return out, nil
}

// Names es id => nombre, para completar entries viejas del historial.
func (s *Service) Names(ctx context.Context) (map[string]string, error) {
	items, err := s.repo.ListPatients(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(items))
	for _, p := range items {
		out[p.ID] = p.Name
	}
	return out, nil
}

// NursePatients devuelve la enfermera y sus pacientes asignados, en el orden
// de asignación. Ids asignados que ya no existen se ignoran.
func (s *Service) NursePatients(ctx context.Context, nurseID string) (Nurse, []Patient, error) {
	n, err := s.repo.GetNurse(ctx, strings.TrimSpace(nurseID))
	if err != nil {
		return Nurse{}, nil, err
	}

	out := make([]Patient, 0, len(n.PatientIDs))
	for _, id := range n.PatientIDs {
		p, err := s.repo.GetPatient(ctx, id)
		if errors.Is(err, ErrPatientNotFound) {
			continue
		}
		if err != nil {
			return Nurse{}, nil, err
		}
		out = append(out, p)
	}
	return n, out, nil
}

func (s *Service) DoctorPatients(ctx context.Context, doctorID string) (Doctor, []Patient, error) {
	d, err := s.repo.GetDoctor(ctx, strings.TrimSpace(doctorID))
	if err != nil {
		return Doctor{}, nil, err
	}
	items, err := s.repo.ListDoctorPatients(ctx, d.ID)
	if err != nil {
		return Doctor{}, nil, err
	}
	return d, items, nil
}

func IDs(items []Patient) []string {
	out := make([]string, 0, len(items))
	for _, p := range items {
		out = append(out, p.ID)
	}
	return out
}
