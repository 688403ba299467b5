package forms

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrFormNotFound  = errors.New("form not found")
	ErrSlugTaken     = errors.New("slug already in use")
	ErrInvalidSlug   = errors.New("slug must contain only lowercase letters, digits and hyphens")
	ErrInvalidFields = errors.New("invalid form fields")
)

// Repository is the doctor-scoped persistence interface for forms.
// Every method resolves the owning doctor from the request context;
// rows belonging to other doctors are never visible.
type Repository interface {
	Create(ctx context.Context, form *Form) error
	GetByID(ctx context.Context, id uuid.UUID) (*Form, error)
	Update(ctx context.Context, form *Form) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Form, int, error)
}

// PublicRepository serves unauthenticated form rendering. It is not
// doctor-scoped; inactive forms are invisible through it.
type PublicRepository interface {
	GetActiveBySlug(ctx context.Context, slug string) (*Form, error)
}
