package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

type contextKey string

const doctorIDKey contextKey = "doctor_id"

// ErrNoTenant is returned by tenant-scoped repositories when the request
// context carries no doctor identity.
var ErrNoTenant = errors.New("no doctor in context")

// WithDoctor returns a context carrying the authenticated doctor's id. The
// auth middleware calls this once per request; tenant-scoped repositories
// read it back so every query is filtered by owner without the caller having
// to pass the predicate around.
func WithDoctor(ctx context.Context, doctorID uuid.UUID) context.Context {
	return context.WithValue(ctx, doctorIDKey, doctorID)
}

// DoctorFromContext retrieves the tenant doctor id from context.
func DoctorFromContext(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(doctorIDKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, ErrNoTenant
	}
	return id, nil
}
