package intake

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrRequestNotFound  = errors.New("intake request not found")
	ErrAlreadyProcessed = errors.New("intake request already processed")
)

// Repository is the doctor-scoped persistence interface for intake
// requests.
type Repository interface {
	List(ctx context.Context, status string, limit, offset int) ([]*Request, int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Request, error)
	MarkProcessed(ctx context.Context, id, patientID uuid.UUID) error
	Dismiss(ctx context.Context, id uuid.UUID) error
	CountPending(ctx context.Context) (int, error)
}

// PublicRepository persists requests arriving through the public
// intake endpoint, where the doctor is named in the URL rather than
// the auth context.
type PublicRepository interface {
	Insert(ctx context.Context, req *Request) error
}
