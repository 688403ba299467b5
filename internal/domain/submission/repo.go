package submission

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrSubmissionNotFound = errors.New("submission not found")

// ListFilter narrows the doctor's submission inbox.
type ListFilter struct {
	FormID *uuid.UUID
	Unread bool
}

// Repository is the doctor-scoped persistence interface for
// submissions. The owning doctor is resolved from the context.
type Repository interface {
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Submission, int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Submission, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountUnread(ctx context.Context) (int, error)
}

// PublicRepository persists submissions arriving through the public
// form endpoint. Insert stores the row and increments the parent
// form's submission counter in one transaction.
type PublicRepository interface {
	Insert(ctx context.Context, sub *Submission) error
}
