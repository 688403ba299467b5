package intake

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/medform/medform/internal/domain/patient"
)

var ErrContactRequired = errors.New("name and at least one contact method are required")

// TxRunner runs fn inside a database transaction carried on the
// context it passes to fn.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	repo     Repository
	public   PublicRepository
	patients *patient.Service
	inTx     TxRunner
}

func NewService(repo Repository, public PublicRepository, patients *patient.Service, inTx TxRunner) *Service {
	return &Service{repo: repo, public: public, patients: patients, inTx: inTx}
}

// SubmitPublic records a prospective patient's request from the
// doctor's public intake link.
func (s *Service) SubmitPublic(ctx context.Context, doctorID uuid.UUID, name, email, phone, message string) (*Request, error) {
	if name == "" || (email == "" && phone == "") {
		return nil, ErrContactRequired
	}
	req := &Request{
		ID:       uuid.New(),
		DoctorID: doctorID,
		Name:     name,
		Email:    email,
		Phone:    phone,
		Message:  message,
		Status:   StatusPending,
	}
	if err := s.public.Insert(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// Process converts a pending intake request into a patient record.
// The patient row and the status flip commit together; a crash
// between them cannot leave a processed request without a patient.
func (s *Service) Process(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, ErrAlreadyProcessed
	}

	first, last := splitName(req.Name)
	p := &patient.Patient{FirstName: first, LastName: last}
	if req.Email != "" {
		p.Email = &req.Email
	}
	if req.Phone != "" {
		p.Phone = &req.Phone
	}
	if req.Message != "" {
		p.Notes = &req.Message
	}

	err = s.inTx(ctx, func(ctx context.Context) error {
		if err := s.patients.Create(ctx, p); err != nil {
			return err
		}
		return s.repo.MarkProcessed(ctx, req.ID, p.ID)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Dismiss(ctx context.Context, id uuid.UUID) error {
	return s.repo.Dismiss(ctx, id)
}

func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]*Request, int, error) {
	return s.repo.List(ctx, status, limit, offset)
}

func (s *Service) CountPending(ctx context.Context) (int, error) {
	return s.repo.CountPending(ctx)
}

// splitName breaks a free-form name into first/last. A single word
// becomes the first name with the last name repeated, since patient
// records require both.
func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], parts[0]
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
