package patient

import (
	"context"
	"errors"

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

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const patientColumns = `id, doctor_id, first_name, last_name, email, phone,
	date_of_birth, gender, address, notes, created_at, updated_at`

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	doctorID, err := db.DoctorFromContext(ctx)
	if err != nil {
		return err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.DoctorID = doctorID

	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO patients (id, doctor_id, first_name, last_name, email, phone,
			date_of_birth, gender, address, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.DoctorID, p.FirstName, p.LastName, p.Email, p.Phone,
		p.DateOfBirth, p.Gender, p.Address, p.Notes,
	)
	return err
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	doctorID, err := db.DoctorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE id = $1 AND doctor_id = $2`,
		id, doctorID))
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	doctorID, err := db.DoctorFromContext(ctx)
	if err != nil {
		return err
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET first_name = $3, last_name = $4, email = $5, phone = $6,
			date_of_birth = $7, gender = $8, address = $9, notes = $10, updated_at = NOW()
		WHERE id = $1 AND doctor_id = $2`,
		p.ID, doctorID, p.FirstName, p.LastName, p.Email, p.Phone,
		p.DateOfBirth, p.Gender, p.Address, p.Notes,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	doctorID, err := db.DoctorFromContext(ctx)
	if err != nil {
		return err
	}
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM patients WHERE id = $1 AND doctor_id = $2`, id, doctorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

func (r *patientRepoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	doctorID, err := db.DoctorFromContext(ctx)
	if err != nil {
		return nil, 0, err
	}

	var total int
	err = r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patients WHERE doctor_id = $1`, doctorID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+patientColumns+` FROM patients
		WHERE doctor_id = $1
		ORDER BY last_name, first_name LIMIT $2 OFFSET $3`, doctorID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectPatients(rows, total)
}

func (r *patientRepoPG) Search(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error) {
	doctorID, err := db.DoctorFromContext(ctx)
	if err != nil {
		return nil, 0, err
	}
	pattern := "%" + query + "%"

	var total int
	err = r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM patients
		WHERE doctor_id = $1
		  AND (first_name ILIKE $2 OR last_name ILIKE $2 OR email ILIKE $2 OR phone ILIKE $2)`,
		doctorID, pattern).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+patientColumns+` FROM patients
		WHERE doctor_id = $1
		  AND (first_name ILIKE $2 OR last_name ILIKE $2 OR email ILIKE $2 OR phone ILIKE $2)
		ORDER BY last_name, first_name LIMIT $3 OFFSET $4`,
		doctorID, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectPatients(rows, total)
}

func (r *patientRepoPG) Count(ctx context.Context) (int, error) {
	doctorID, err := db.DoctorFromContext(ctx)
	if err != nil {
		return 0, err
	}
	var n int
	err = r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patients WHERE doctor_id = $1`, doctorID).Scan(&n)
	return n, err
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.DoctorID, &p.FirstName, &p.LastName, &p.Email, &p.Phone,
		&p.DateOfBirth, &p.Gender, &p.Address, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectPatients(rows pgx.Rows, total int) ([]*Patient, int, error) {
	var out []*Patient
	for rows.Next() {
		var p Patient
		err := rows.Scan(&p.ID, &p.DoctorID, &p.FirstName, &p.LastName, &p.Email, &p.Phone,
			&p.DateOfBirth, &p.Gender, &p.Address, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, &p)
	}
	return out, total, rows.Err()
}
