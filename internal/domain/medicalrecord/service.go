package medicalrecord

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrPatientRequired = errors.New("patient_id is required")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, rec *MedicalRecord) error {
	if rec.PatientID == uuid.Nil {
		return ErrPatientRequired
	}
	if rec.VisitDate.IsZero() {
		rec.VisitDate = time.Now().UTC()
	}
	return s.repo.Create(ctx, rec)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*MedicalRecord, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, rec *MedicalRecord) error {
	return s.repo.Update(ctx, rec)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalRecord, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}
