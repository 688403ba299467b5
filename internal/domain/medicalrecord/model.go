package medicalrecord

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Vitals captures the measurements taken at a visit. All members are
// optional; absent measurements stay nil.
type Vitals struct {
	HeightCM     *float64 `json:"height_cm,omitempty"`
	WeightKG     *float64 `json:"weight_kg,omitempty"`
	SystolicBP   *int     `json:"systolic_bp,omitempty"`
	DiastolicBP  *int     `json:"diastolic_bp,omitempty"`
	HeartRate    *int     `json:"heart_rate,omitempty"`
	TemperatureC *float64 `json:"temperature_c,omitempty"`
}

// BMI derives body mass index from height and weight, or nil when
// either measurement is missing or out of range.
func (v Vitals) BMI() *float64 {
	if v.HeightCM == nil || v.WeightKG == nil {
		return nil
	}
	h := *v.HeightCM / 100
	if h <= 0 || *v.WeightKG <= 0 {
		return nil
	}
	bmi := math.Round(*v.WeightKG/(h*h)*10) / 10
	return &bmi
}

// MedicalRecord maps to the medical_records table.
type MedicalRecord struct {
	ID             uuid.UUID `db:"id" json:"id"`
	DoctorID       uuid.UUID `db:"doctor_id" json:"doctor_id"`
	PatientID      uuid.UUID `db:"patient_id" json:"patient_id"`
	VisitDate      time.Time `db:"visit_date" json:"visit_date"`
	ChiefComplaint string    `db:"chief_complaint" json:"chief_complaint"`
	Diagnosis      string    `db:"diagnosis" json:"diagnosis"`
	Treatment      string    `db:"treatment" json:"treatment"`
	Notes          string    `db:"notes" json:"notes"`
	Vitals         Vitals    `db:"vitals" json:"vitals"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
