package medicalrecord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medform/medform/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type recordRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &recordRepoPG{pool: pool}
}

func (r *recordRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const recordColumns = `id, doctor_id, patient_id, visit_date, chief_complaint,
	diagnosis, treatment, notes, vitals, created_at, updated_at`

func (r *recordRepoPG) Create(ctx context.Context, rec *MedicalRecord) error {
	doctorID, err := db.DoctorFromContext(ctx)
	if err != nil {
		return err
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.DoctorID = doctorID

	vitals, err := json.Marshal(rec.Vitals)
	if err != nil {
		return fmt.Errorf("encode vitals: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO medical_records (id, doctor_id, patient_id, visit_date,
			chief_complaint, diagnosis, treatment, notes, vitals)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.DoctorID, rec.PatientID, rec.VisitDate,
		rec.ChiefComplaint, rec.Diagnosis, rec.Treatment, rec.Notes, vitals,
	)
	return err
}

func (r *recordRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*MedicalRecord, error) {
	doctorID, err := db.DoctorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+recordColumns+` FROM medical_records WHERE id = $1 AND doctor_id = $2`,
		id, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrRecordNotFound
	}
	return scanRecord(rows)
}

func (r *recordRepoPG) Update(ctx context.Context, rec *MedicalRecord) error {
	doctorID, err := db.DoctorFromContext(ctx)
	if err != nil {
		return err
	}
	vitals, err := json.Marshal(rec.Vitals)
	if err != nil {
		return fmt.Errorf("encode vitals: %w", err)
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE medical_records SET visit_date = $3, chief_complaint = $4,
			diagnosis = $5, treatment = $6, notes = $7, vitals = $8, updated_at = NOW()
		WHERE id = $1 AND doctor_id = $2`,
		rec.ID, doctorID, rec.VisitDate,
		rec.ChiefComplaint, rec.Diagnosis, rec.Treatment, rec.Notes, vitals,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *recordRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	doctorID, err := db.DoctorFromContext(ctx)
	if err != nil {
		return err
	}
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM medical_records WHERE id = $1 AND doctor_id = $2`, id, doctorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *recordRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalRecord, int, error) {
	doctorID, err := db.DoctorFromContext(ctx)
	if err != nil {
		return nil, 0, err
	}

	var total int
	err = r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM medical_records
		WHERE doctor_id = $1 AND patient_id = $2`, doctorID, patientID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+recordColumns+` FROM medical_records
		WHERE doctor_id = $1 AND patient_id = $2
		ORDER BY visit_date DESC LIMIT $3 OFFSET $4`, doctorID, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*MedicalRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

func scanRecord(rows pgx.Rows) (*MedicalRecord, error) {
	var rec MedicalRecord
	var vitals []byte
	err := rows.Scan(&rec.ID, &rec.DoctorID, &rec.PatientID, &rec.VisitDate,
		&rec.ChiefComplaint, &rec.Diagnosis, &rec.Treatment, &rec.Notes,
		&vitals, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(vitals) > 0 {
		if err := json.Unmarshal(vitals, &rec.Vitals); err != nil {
			return nil, fmt.Errorf("decode vitals: %w", err)
		}
	}
	return &rec, nil
}
