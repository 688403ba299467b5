package intake

import (
	"context"
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

const intakeColumns = `id, doctor_id, name, email, phone, message, status, patient_id, created_at, processed_at`

type intakeRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &intakeRepoPG{pool: pool}
}

func (r *intakeRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *intakeRepoPG) List(ctx context.Context, status string, limit, offset int) ([]*Request, int, error) {
	doctorID, err := db.DoctorFromContext(ctx)
	if err != nil {
		return nil, 0, err
	}

	where := ` WHERE doctor_id = $1`
	args := []interface{}{doctorID}
	idx := 2
	if status != "" {
		where += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, status)
		idx++
	}

	var total int
	err = r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient_intake`+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+intakeColumns+` FROM patient_intake`+where+
			fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, req)
	}
	return out, total, rows.Err()
}

func (r *intakeRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	doctorID, err := db.DoctorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+intakeColumns+` FROM patient_intake WHERE id = $1 AND doctor_id = $2`,
		id, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrRequestNotFound
	}
	return scanRequest(rows)
}

func (r *intakeRepoPG) MarkProcessed(ctx context.Context, id, patientID uuid.UUID) error {
	doctorID, err := db.DoctorFromContext(ctx)
	if err != nil {
		return err
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient_intake SET status = $3, patient_id = $4, processed_at = NOW()
		WHERE id = $1 AND doctor_id = $2 AND status = $5`,
		id, doctorID, StatusProcessed, patientID, StatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyProcessed
	}
	return nil
}

func (r *intakeRepoPG) Dismiss(ctx context.Context, id uuid.UUID) error {
	doctorID, err := db.DoctorFromContext(ctx)
	if err != nil {
		return err
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient_intake SET status = $3, processed_at = NOW()
		WHERE id = $1 AND doctor_id = $2 AND status = $4`,
		id, doctorID, StatusDismissed, StatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyProcessed
	}
	return nil
}

func (r *intakeRepoPG) CountPending(ctx context.Context) (int, error) {
	doctorID, err := db.DoctorFromContext(ctx)
	if err != nil {
		return 0, err
	}
	var n int
	err = r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patient_intake WHERE doctor_id = $1 AND status = $2`,
		doctorID, StatusPending).Scan(&n)
	return n, err
}

func scanRequest(rows pgx.Rows) (*Request, error) {
	var req Request
	err := rows.Scan(&req.ID, &req.DoctorID, &req.Name, &req.Email, &req.Phone,
		&req.Message, &req.Status, &req.PatientID, &req.CreatedAt, &req.ProcessedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// -- Public repository --

type publicRepoPG struct {
	pool *pgxpool.Pool
}

func NewPublicRepoPG(pool *pgxpool.Pool) PublicRepository {
	return &publicRepoPG{pool: pool}
}

func (r *publicRepoPG) Insert(ctx context.Context, req *Request) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patient_intake (id, doctor_id, name, email, phone, message, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		req.ID, req.DoctorID, req.Name, req.Email, req.Phone, req.Message, req.Status,
	)
	return err
}
