package submission

import (
	"context"
	"encoding/json"
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

const submissionColumns = `id, form_id, doctor_id, patient_name, patient_email, patient_phone,
	responses, attachments, ip_address, user_agent, is_read, viewed_at, submitted_at`

type submissionRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &submissionRepoPG{pool: pool}
}

func (r *submissionRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *submissionRepoPG) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Submission, int, error) {
	doctorID, err := db.DoctorFromContext(ctx)
	if err != nil {
		return nil, 0, err
	}

	where := ` WHERE doctor_id = $1`
	args := []interface{}{doctorID}
	idx := 2
	if filter.FormID != nil {
		where += fmt.Sprintf(` AND form_id = $%d`, idx)
		args = append(args, *filter.FormID)
		idx++
	}
	if filter.Unread {
		where += ` AND is_read = FALSE`
	}

	var total int
	err = r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM form_submissions`+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + submissionColumns + ` FROM form_submissions` + where +
		fmt.Sprintf(` ORDER BY submitted_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, sub)
	}
	return out, total, rows.Err()
}

func (r *submissionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Submission, error) {
	doctorID, err := db.DoctorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+submissionColumns+` FROM form_submissions WHERE id = $1 AND doctor_id = $2`,
		id, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrSubmissionNotFound
	}
	return scanSubmission(rows)
}

func (r *submissionRepoPG) MarkRead(ctx context.Context, id uuid.UUID) error {
	doctorID, err := db.DoctorFromContext(ctx)
	if err != nil {
		return err
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE form_submissions SET is_read = TRUE, viewed_at = COALESCE(viewed_at, NOW())
		WHERE id = $1 AND doctor_id = $2`, id, doctorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSubmissionNotFound
	}
	return nil
}

func (r *submissionRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	doctorID, err := db.DoctorFromContext(ctx)
	if err != nil {
		return err
	}
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM form_submissions WHERE id = $1 AND doctor_id = $2`, id, doctorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSubmissionNotFound
	}
	return nil
}

func (r *submissionRepoPG) CountUnread(ctx context.Context) (int, error) {
	doctorID, err := db.DoctorFromContext(ctx)
	if err != nil {
		return 0, err
	}
	var n int
	err = r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM form_submissions WHERE doctor_id = $1 AND is_read = FALSE`,
		doctorID).Scan(&n)
	return n, err
}

func scanSubmission(rows pgx.Rows) (*Submission, error) {
	var s Submission
	var responses, attachments []byte
	err := rows.Scan(&s.ID, &s.FormID, &s.DoctorID, &s.PatientName, &s.PatientEmail,
		&s.PatientPhone, &responses, &attachments, &s.IPAddress, &s.UserAgent,
		&s.IsRead, &s.ViewedAt, &s.SubmittedAt)
	if err != nil {
		return nil, err
	}
	if len(responses) > 0 {
		if err := json.Unmarshal(responses, &s.Responses); err != nil {
			return nil, fmt.Errorf("decode responses: %w", err)
		}
	}
	if len(attachments) > 0 {
		if err := json.Unmarshal(attachments, &s.Attachments); err != nil {
			return nil, fmt.Errorf("decode attachments: %w", err)
		}
	}
	return &s, nil
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

func (r *publicRepoPG) Insert(ctx context.Context, sub *Submission) error {
	responses, err := json.Marshal(sub.Responses)
	if err != nil {
		return fmt.Errorf("encode responses: %w", err)
	}
	attachments, err := json.Marshal(sub.Attachments)
	if err != nil {
		return fmt.Errorf("encode attachments: %w", err)
	}

	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO form_submissions
				(id, form_id, doctor_id, patient_name, patient_email, patient_phone,
				 responses, attachments, ip_address, user_agent, submitted_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			sub.ID, sub.FormID, sub.DoctorID, sub.PatientName, sub.PatientEmail,
			sub.PatientPhone, responses, attachments, sub.IPAddress, sub.UserAgent,
			sub.SubmittedAt,
		)
		if err != nil {
			return err
		}
		_, err = r.conn(ctx).Exec(ctx, `
			UPDATE forms SET submission_count = submission_count + 1 WHERE id = $1`, sub.FormID)
		return err
	})
}
