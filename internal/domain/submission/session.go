package submission

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/medform/medform/internal/domain/forms"
	"github.com/medform/medform/internal/platform/blobstore"
)

// State tracks a session through the submission pipeline.
type State int

const (
	StateCollecting State = iota
	StateValidating
	StateSubmitting
	StateRejected
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateCollecting:
		return "collecting"
	case StateValidating:
		return "validating"
	case StateSubmitting:
		return "submitting"
	case StateRejected:
		return "rejected"
	case StateSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

var (
	ErrMissingPatientInfo = errors.New("patient name, email and phone are required")
	ErrAlreadySubmitted   = errors.New("submission already completed")
)

// MissingRequiredFieldError reports which required field lacked an
// answer, by its visitor-facing label.
type MissingRequiredFieldError struct {
	Label string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("%s is required", e.Label)
}

// RuleViolationError reports an answer that failed a field's
// validation rules.
type RuleViolationError struct {
	Label  string
	Reason string
}

func (e *RuleViolationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Label, e.Reason)
}

// StagedFile is a pending upload. Open re-reads the file content, so
// a rejected session can retry without re-staging.
type StagedFile struct {
	FieldID     uuid.UUID
	FileName    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// Session collects one visitor's answers for a form and drives them
// through validation, file upload, and persistence. A session is not
// safe for concurrent use; each visitor request builds its own.
//
// The submission ID is assigned when the session is created so that
// uploaded file paths can reference it before the row exists.
type Session struct {
	id           uuid.UUID
	form         *forms.Form
	state        State
	patientName  string
	patientEmail string
	patientPhone string
	ipAddress    string
	userAgent    string
	responses    ResponseSet
	staged       []StagedFile
}

func NewSession(form *forms.Form) *Session {
	return &Session{
		id:        uuid.New(),
		form:      form,
		state:     StateCollecting,
		responses: make(ResponseSet),
	}
}

func (s *Session) ID() uuid.UUID { return s.id }

func (s *Session) State() State { return s.state }

func (s *Session) SetPatient(name, email, phone string) {
	s.patientName = name
	s.patientEmail = email
	s.patientPhone = phone
}

// SetClient records where the submission came from.
func (s *Session) SetClient(ipAddress, userAgent string) {
	s.ipAddress = ipAddress
	s.userAgent = userAgent
}

// SetAnswer records the answer for one field, replacing any earlier
// answer for the same field.
func (s *Session) SetAnswer(fieldID uuid.UUID, v Value) {
	s.responses[fieldID] = v
}

// StageFile queues an upload for a file field.
func (s *Session) StageFile(f StagedFile) {
	s.staged = append(s.staged, f)
}

// Submit runs the pipeline: validate answers, upload staged files in
// parallel, then persist the submission and bump the form's counter
// in one transaction. On any failure the session lands in
// StateRejected with responses and staged files intact, so the
// visitor can correct and resubmit.
func (s *Session) Submit(ctx context.Context, store blobstore.BlobStore, repo PublicRepository) (*Submission, error) {
	if s.state == StateSubmitted {
		return nil, ErrAlreadySubmitted
	}

	s.state = StateValidating
	if err := s.validate(); err != nil {
		s.state = StateRejected
		return nil, err
	}

	s.state = StateSubmitting
	attachments, err := s.uploadAll(ctx, store)
	if err != nil {
		s.state = StateRejected
		return nil, err
	}

	sub := &Submission{
		ID:          s.id,
		FormID:      s.form.ID,
		DoctorID:    s.form.DoctorID,
		Responses:   s.responses,
		Attachments: attachments,
		IPAddress:   s.ipAddress,
		UserAgent:   s.userAgent,
		SubmittedAt: time.Now().UTC(),
	}
	if s.form.RequiresPatientInfo {
		sub.PatientName = s.patientName
		sub.PatientEmail = s.patientEmail
		sub.PatientPhone = s.patientPhone
	}
	if err := repo.Insert(ctx, sub); err != nil {
		s.state = StateRejected
		return nil, err
	}

	s.state = StateSubmitted
	return sub, nil
}

// validate checks patient info and every field's rules, returning the
// first violation found in form order.
func (s *Session) validate() error {
	if s.form.RequiresPatientInfo {
		if s.patientName == "" || s.patientEmail == "" || s.patientPhone == "" {
			return ErrMissingPatientInfo
		}
	}
	for _, field := range s.form.Fields {
		answer, answered := s.responses.Get(field.ID)
		if field.Type == "file" {
			if field.Validation.Required && !s.hasStagedFile(field.ID) {
				return &MissingRequiredFieldError{Label: field.Label}
			}
			continue
		}
		if field.Validation.Required && (!answered || answer.IsZero()) {
			return &MissingRequiredFieldError{Label: field.Label}
		}
		if !answered || answer.IsZero() {
			continue
		}
		if err := checkRules(field, answer); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) hasStagedFile(fieldID uuid.UUID) bool {
	for _, f := range s.staged {
		if f.FieldID == fieldID {
			return true
		}
	}
	return false
}

func checkRules(field *forms.FormField, v Value) error {
	rules := field.Validation
	if v.Kind != KindText {
		return nil
	}
	if field.Type == "number" {
		n, err := strconv.ParseFloat(v.Text, 64)
		if err != nil {
			return &RuleViolationError{Label: field.Label, Reason: "must be a number"}
		}
		if rules.Min != nil && n < *rules.Min {
			return &RuleViolationError{Label: field.Label, Reason: fmt.Sprintf("must be at least %g", *rules.Min)}
		}
		if rules.Max != nil && n > *rules.Max {
			return &RuleViolationError{Label: field.Label, Reason: fmt.Sprintf("must be at most %g", *rules.Max)}
		}
		return nil
	}
	if rules.MinLength != nil && len(v.Text) < *rules.MinLength {
		return &RuleViolationError{Label: field.Label, Reason: fmt.Sprintf("must be at least %d characters", *rules.MinLength)}
	}
	if rules.MaxLength != nil && len(v.Text) > *rules.MaxLength {
		return &RuleViolationError{Label: field.Label, Reason: fmt.Sprintf("must be at most %d characters", *rules.MaxLength)}
	}
	if rules.Pattern != "" {
		re, err := regexp.Compile(rules.Pattern)
		if err == nil && !re.MatchString(v.Text) {
			return &RuleViolationError{Label: field.Label, Reason: "does not match the expected format"}
		}
	}
	return nil
}

// uploadAll pushes every staged file to the blob store concurrently
// and waits for all of them. Blobs already stored when a sibling
// upload fails are left in place; the retry writes fresh paths.
func (s *Session) uploadAll(ctx context.Context, store blobstore.BlobStore) ([]Attachment, error) {
	if len(s.staged) == 0 {
		return nil, nil
	}

	attachments := make([]Attachment, len(s.staged))
	g, ctx := errgroup.WithContext(ctx)
	for i, f := range s.staged {
		i, f := i, f
		g.Go(func() error {
			rc, err := f.Open()
			if err != nil {
				return fmt.Errorf("open %s: %w", f.FileName, err)
			}
			defer rc.Close()

			path := s.uploadPath(f.FileName)
			blob, err := store.Upload(ctx, path, f.ContentType, rc)
			if err != nil {
				return fmt.Errorf("upload %s: %w", f.FileName, err)
			}
			attachments[i] = Attachment{
				FieldID:     f.FieldID,
				FileName:    f.FileName,
				ContentType: blob.ContentType,
				Size:        blob.Size,
				Path:        blob.Path,
				URL:         blob.URL,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return attachments, nil
}

func (s *Session) uploadPath(fileName string) string {
	return fmt.Sprintf("%s/%s/%s/%d_%s",
		s.form.DoctorID, s.form.ID, s.id, time.Now().UnixMilli(), sanitizeFileName(fileName))
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func sanitizeFileName(name string) string {
	clean := unsafeFileChars.ReplaceAllString(name, "_")
	if clean == "" || clean == "." || clean == ".." {
		return "file"
	}
	return clean
}
