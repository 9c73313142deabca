package memory

import (
	"context"
	"sync"

	"medidispense/internal/domain/patients"
)

// rosterRepo es de solo lectura: el roster se carga una vez al arrancar.
type rosterRepo struct {
	mu sync.RWMutex

	order    []string
	patients map[string]patients.Patient
	nurses   map[string]patients.Nurse
	doctors  map[string]patients.Doctor
}

func NewRosterRepo(r patients.Roster) patients.Repository {
	repo := &rosterRepo{
		order:    make([]string, 0, len(r.Patients)),
		patients: make(map[string]patients.Patient, len(r.Patients)),
		nurses:   make(map[string]patients.Nurse, len(r.Nurses)),
		doctors:  make(map[string]patients.Doctor, len(r.Doctors)),
	}
	for _, p := range r.Patients {
		if _, dup := repo.patients[p.ID]; !dup {
			repo.order = append(repo.order, p.ID)
		}
		repo.patients[p.ID] = clonePatient(p)
	}
	for _, n := range r.Nurses {
		n.PatientIDs = append([]string(nil), n.PatientIDs...)
		repo.nurses[n.ID] = n
	}
	for _, d := range r.Doctors {
		repo.doctors[d.ID] = d
	}
	return repo
}

func (r *rosterRepo) ListPatients(ctx context.Context) ([]patients.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]patients.Patient, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, clonePatient(r.patients[id]))
	}
	return out, nil
}

func (r *rosterRepo) GetPatient(ctx context.Context, id string) (patients.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.patients[id]
	if !ok {
		return patients.Patient{}, patients.ErrPatientNotFound
	}
	return clonePatient(p), nil
}

// ListDoctorPatients en orden de roster.
func (r *rosterRepo) ListDoctorPatients(ctx context.Context, doctorID string) ([]patients.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]patients.Patient, 0)
	for _, id := range r.order {
		if p := r.patients[id]; p.DoctorID == doctorID {
			out = append(out, clonePatient(p))
		}
	}
	return out, nil
}

func (r *rosterRepo) GetNurse(ctx context.Context, id string) (patients.Nurse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.nurses[id]
	if !ok {
		return patients.Nurse{}, patients.ErrNurseNotFound
	}
	n.PatientIDs = append([]string(nil), n.PatientIDs...)
	return n, nil
}

func (r *rosterRepo) GetDoctor(ctx context.Context, id string) (patients.Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.doctors[id]
	if !ok {
		return patients.Doctor{}, patients.ErrDoctorNotFound
	}
	return d, nil
}

func clonePatient(p patients.Patient) patients.Patient {
	p.Allergies = append([]string(nil), p.Allergies...)
	p.Schedule = append([]string(nil), p.Schedule...)
	return p
}
