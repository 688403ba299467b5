package intake

import (
	"time"

	"github.com/google/uuid"
)

// Status of an intake request.
const (
	StatusPending   = "pending"
	StatusProcessed = "processed"
	StatusDismissed = "dismissed"
)

// Request maps to the patient_intake table. A request is a
// prospective patient reaching out through the doctor's public intake
// link, before any patient record exists.
type Request struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	DoctorID    uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	Name        string     `db:"name" json:"name"`
	Email       string     `db:"email" json:"email"`
	Phone       string     `db:"phone" json:"phone"`
	Message     string     `db:"message" json:"message"`
	Status      string     `db:"status" json:"status"`
	PatientID   *uuid.UUID `db:"patient_id" json:"patient_id,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	ProcessedAt *time.Time `db:"processed_at" json:"processed_at,omitempty"`
}
