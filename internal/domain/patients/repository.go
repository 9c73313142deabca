package patients

import "context"

type Repository interface {
	ListPatients(ctx context.Context) ([]Patient, error)
	GetPatient(ctx context.Context, id string) (Patient, error)
	ListDoctorPatients(ctx context.Context, doctorID string) ([]Patient, error)

	GetNurse(ctx context.Context, id string) (Nurse, error)
	GetDoctor(ctx context.Context, id string) (Doctor, error)
}
