package forms

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

type formRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &formRepoPG{pool: pool}
}

func (r *formRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const formColumns = `id, doctor_id, title, description, slug, is_active, requires_patient_info, success_message, notification_email, allow_multiple_submissions, submission_count, created_at, updated_at`

const fieldColumns = `id, form_id, field_type, label, placeholder, help_text, options, order_index, validation`

func (r *formRepoPG) Create(ctx context.Context, form *Form) error {
	doctorID, err := db.DoctorFromContext(ctx)
	if err != nil {
		return err
	}
	if form.ID == uuid.Nil {
		form.ID = uuid.New()
	}
	form.DoctorID = doctorID

	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO forms (id, doctor_id, title, description, slug, is_active,
				requires_patient_info, success_message, notification_email, allow_multiple_submissions)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			form.ID, form.DoctorID, form.Title, form.Description, form.Slug, form.IsActive,
			form.RequiresPatientInfo, form.SuccessMessage, form.NotificationEmail, form.AllowMultiple,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return ErrSlugTaken
			}
			return err
		}
		return r.insertFields(ctx, form.ID, form.Fields)
	})
}

func (r *formRepoPG) Update(ctx context.Context, form *Form) error {
	doctorID, err := db.DoctorFromContext(ctx)
	if err != nil {
		return err
	}

	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		tag, err := r.conn(ctx).Exec(ctx, `
			UPDATE forms SET title = $3, description = $4, slug = $5,
				requires_patient_info = $6, success_message = $7,
				notification_email = $8, allow_multiple_submissions = $9,
				updated_at = NOW()
			WHERE id = $1 AND doctor_id = $2`,
			form.ID, doctorID, form.Title, form.Description, form.Slug,
			form.RequiresPatientInfo, form.SuccessMessage, form.NotificationEmail,
			form.AllowMultiple,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return ErrSlugTaken
			}
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrFormNotFound
		}
		_, err = r.conn(ctx).Exec(ctx, `DELETE FROM form_fields WHERE form_id = $1`, form.ID)
		if err != nil {
			return err
		}
		return r.insertFields(ctx, form.ID, form.Fields)
	})
}

func (r *formRepoPG) insertFields(ctx context.Context, formID uuid.UUID, fields []*FormField) error {
	for _, f := range fields {
		if f.ID == uuid.Nil {
			f.ID = uuid.New()
		}
		f.FormID = formID
		validation, err := json.Marshal(f.Validation)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidFields, err)
		}
		_, err = r.conn(ctx).Exec(ctx, `
			INSERT INTO form_fields (id, form_id, field_type, label, placeholder, help_text, options, order_index, validation)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			f.ID, formID, f.Type, f.Label, f.Placeholder, f.HelpText, f.Options, f.OrderIndex, validation,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *formRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Form, error) {
	doctorID, err := db.DoctorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	form, err := r.scanForm(r.conn(ctx).QueryRow(ctx,
		`SELECT `+formColumns+` FROM forms WHERE id = $1 AND doctor_id = $2`, id, doctorID))
	if err != nil {
		return nil, err
	}
	form.Fields, err = r.loadFields(ctx, form.ID)
	if err != nil {
		return nil, err
	}
	return form, nil
}

func (r *formRepoPG) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	doctorID, err := db.DoctorFromContext(ctx)
	if err != nil {
		return err
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE forms SET is_active = $3, updated_at = NOW()
		WHERE id = $1 AND doctor_id = $2`, id, doctorID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrFormNotFound
	}
	return nil
}

func (r *formRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	doctorID, err := db.DoctorFromContext(ctx)
	if err != nil {
		return err
	}
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM forms WHERE id = $1 AND doctor_id = $2`, id, doctorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrFormNotFound
	}
	return nil
}

func (r *formRepoPG) List(ctx context.Context, limit, offset int) ([]*Form, int, error) {
	doctorID, err := db.DoctorFromContext(ctx)
	if err != nil {
		return nil, 0, err
	}

	var total int
	err = r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM forms WHERE doctor_id = $1`, doctorID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+formColumns+` FROM forms
		WHERE doctor_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, doctorID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Form
	for rows.Next() {
		form, err := r.scanFormRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, form)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for _, form := range out {
		form.Fields, err = r.loadFields(ctx, form.ID)
		if err != nil {
			return nil, 0, err
		}
	}
	return out, total, nil
}

func (r *formRepoPG) loadFields(ctx context.Context, formID uuid.UUID) ([]*FormField, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+fieldColumns+` FROM form_fields
		WHERE form_id = $1 ORDER BY order_index`, formID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fields []*FormField
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

func (r *formRepoPG) scanForm(row pgx.Row) (*Form, error) {
	var f Form
	err := row.Scan(&f.ID, &f.DoctorID, &f.Title, &f.Description, &f.Slug,
		&f.IsActive, &f.RequiresPatientInfo, &f.SuccessMessage, &f.NotificationEmail,
		&f.AllowMultiple, &f.SubmissionCount, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFormNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *formRepoPG) scanFormRow(rows pgx.Rows) (*Form, error) {
	var f Form
	err := rows.Scan(&f.ID, &f.DoctorID, &f.Title, &f.Description, &f.Slug,
		&f.IsActive, &f.RequiresPatientInfo, &f.SuccessMessage, &f.NotificationEmail,
		&f.AllowMultiple, &f.SubmissionCount, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func scanField(rows pgx.Rows) (*FormField, error) {
	var f FormField
	var validation []byte
	err := rows.Scan(&f.ID, &f.FormID, &f.Type, &f.Label, &f.Placeholder,
		&f.HelpText, &f.Options, &f.OrderIndex, &validation)
	if err != nil {
		return nil, err
	}
	if len(validation) > 0 {
		if err := json.Unmarshal(validation, &f.Validation); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFields, err)
		}
	}
	return &f, nil
}

// -- Public repository --

type publicRepoPG struct {
	pool *pgxpool.Pool
}

func NewPublicRepoPG(pool *pgxpool.Pool) PublicRepository {
	return &publicRepoPG{pool: pool}
}

func (r *publicRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *publicRepoPG) GetActiveBySlug(ctx context.Context, slug string) (*Form, error) {
	var f Form
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT `+formColumns+` FROM forms
		WHERE slug = $1 AND is_active = TRUE`, slug).
		Scan(&f.ID, &f.DoctorID, &f.Title, &f.Description, &f.Slug,
			&f.IsActive, &f.RequiresPatientInfo, &f.SuccessMessage, &f.NotificationEmail,
			&f.AllowMultiple, &f.SubmissionCount, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFormNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+fieldColumns+` FROM form_fields
		WHERE form_id = $1 ORDER BY order_index`, f.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		field, err := scanField(rows)
		if err != nil {
			return nil, err
		}
		f.Fields = append(f.Fields, field)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &f, nil
}
