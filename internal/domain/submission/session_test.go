package submission

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/medform/medform/internal/domain/forms"
	"github.com/medform/medform/internal/platform/blobstore"
)

type mockPublicRepo struct {
	inserted []*Submission
	fail     error
}

func (m *mockPublicRepo) Insert(_ context.Context, sub *Submission) error {
	if m.fail != nil {
		return m.fail
	}
	m.inserted = append(m.inserted, sub)
	return nil
}

func intakeForm() *forms.Form {
	form := &forms.Form{
		ID:                  uuid.New(),
		DoctorID:            uuid.New(),
		Title:               "Intake",
		Slug:                "intake-abc123",
		IsActive:            true,
		RequiresPatientInfo: true,
	}
	form.Fields = []*forms.FormField{
		{ID: uuid.New(), FormID: form.ID, Type: "text", Label: "Full Name",
			Validation: forms.ValidationRules{Required: true}},
		{ID: uuid.New(), FormID: form.ID, Type: "checkbox", Label: "Symptoms",
			Options: []string{"Fever", "Cough", "Fatigue"}},
		{ID: uuid.New(), FormID: form.ID, Type: "file", Label: "Insurance Card"},
	}
	return form
}

func stagedPDF(fieldID uuid.UUID, name string) StagedFile {
	return StagedFile{
		FieldID:     fieldID,
		FileName:    name,
		ContentType: "application/pdf",
		Size:        4,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("%PDF")), nil
		},
	}
}

func TestSessionHappyPath(t *testing.T) {
	form := intakeForm()
	store := blobstore.NewInMemoryBlobStore("http://localhost:8080", 0)
	repo := &mockPublicRepo{}

	sess := NewSession(form)
	if sess.State() != StateCollecting {
		t.Fatalf("initial state = %v", sess.State())
	}
	sess.SetPatient("Jane Roe", "jane@example.com", "555-0100")
	sess.SetAnswer(form.Fields[0].ID, TextValue("Jane Roe"))
	sess.SetAnswer(form.Fields[1].ID, MultiValue([]string{"Fever", "Fatigue"}))
	sess.StageFile(stagedPDF(form.Fields[2].ID, "insurance card.pdf"))

	sub, err := sess.Submit(context.Background(), store, repo)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sess.State() != StateSubmitted {
		t.Errorf("state = %v, want submitted", sess.State())
	}
	if sub.ID != sess.ID() {
		t.Error("submission ID should match the session ID assigned up front")
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("inserted = %d rows", len(repo.inserted))
	}
	if len(sub.Attachments) != 1 {
		t.Fatalf("attachments = %d", len(sub.Attachments))
	}
	att := sub.Attachments[0]
	if att.FieldID != form.Fields[2].ID {
		t.Error("attachment not tied to its field")
	}
	if !strings.Contains(att.Path, form.DoctorID.String()) ||
		!strings.Contains(att.Path, form.ID.String()) ||
		!strings.Contains(att.Path, sess.ID().String()) {
		t.Errorf("path %q missing doctor/form/submission segments", att.Path)
	}
	if !strings.HasSuffix(att.Path, "_insurance_card.pdf") {
		t.Errorf("path %q not sanitized as expected", att.Path)
	}
}

func TestSessionRejectsMissingPatientInfo(t *testing.T) {
	sess := NewSession(intakeForm())
	_, err := sess.Submit(context.Background(), blobstore.NewInMemoryBlobStore("", 0), &mockPublicRepo{})
	if !errors.Is(err, ErrMissingPatientInfo) {
		t.Fatalf("err = %v, want ErrMissingPatientInfo", err)
	}
	if sess.State() != StateRejected {
		t.Errorf("state = %v, want rejected", sess.State())
	}
}

func TestSessionAnonymousForm(t *testing.T) {
	form := intakeForm()
	form.RequiresPatientInfo = false
	repo := &mockPublicRepo{}

	sess := NewSession(form)
	sess.SetAnswer(form.Fields[0].ID, TextValue("Jane Roe"))
	// Patient info sent anyway is dropped when the form does not ask for it.
	sess.SetPatient("Jane Roe", "jane@example.com", "555-0100")

	sub, err := sess.Submit(context.Background(), blobstore.NewInMemoryBlobStore("", 0), repo)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sub.PatientName != "" || sub.PatientEmail != "" || sub.PatientPhone != "" {
		t.Errorf("patient fields should stay blank: %+v", sub)
	}
}

func TestSessionBlankPhoneRejected(t *testing.T) {
	form := intakeForm()
	sess := NewSession(form)
	sess.SetPatient("Jane Roe", "jane@example.com", "")
	sess.SetAnswer(form.Fields[0].ID, TextValue("Jane Roe"))

	_, err := sess.Submit(context.Background(), blobstore.NewInMemoryBlobStore("", 0), &mockPublicRepo{})
	if !errors.Is(err, ErrMissingPatientInfo) {
		t.Fatalf("err = %v, want ErrMissingPatientInfo", err)
	}
}

func TestSessionRejectsMissingRequiredField(t *testing.T) {
	form := intakeForm()
	sess := NewSession(form)
	sess.SetPatient("Jane Roe", "jane@example.com", "555-0100")

	_, err := sess.Submit(context.Background(), blobstore.NewInMemoryBlobStore("", 0), &mockPublicRepo{})
	var missing *MissingRequiredFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingRequiredFieldError", err)
	}
	if missing.Label != "Full Name" {
		t.Errorf("label = %q", missing.Label)
	}
}

func TestSessionEmptyStringFailsRequired(t *testing.T) {
	form := intakeForm()
	sess := NewSession(form)
	sess.SetPatient("Jane Roe", "jane@example.com", "555-0100")
	sess.SetAnswer(form.Fields[0].ID, TextValue(""))

	_, err := sess.Submit(context.Background(), blobstore.NewInMemoryBlobStore("", 0), &mockPublicRepo{})
	var missing *MissingRequiredFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingRequiredFieldError", err)
	}
}

func TestSessionRequiredFileField(t *testing.T) {
	form := intakeForm()
	form.Fields[2].Validation.Required = true
	sess := NewSession(form)
	sess.SetPatient("Jane Roe", "jane@example.com", "555-0100")
	sess.SetAnswer(form.Fields[0].ID, TextValue("Jane Roe"))

	_, err := sess.Submit(context.Background(), blobstore.NewInMemoryBlobStore("", 0), &mockPublicRepo{})
	var missing *MissingRequiredFieldError
	if !errors.As(err, &missing) || missing.Label != "Insurance Card" {
		t.Fatalf("err = %v, want missing Insurance Card", err)
	}
}

func TestSessionRuleViolation(t *testing.T) {
	form := intakeForm()
	min := 3
	form.Fields[0].Validation.MinLength = &min
	sess := NewSession(form)
	sess.SetPatient("Jane Roe", "jane@example.com", "555-0100")
	sess.SetAnswer(form.Fields[0].ID, TextValue("Jo"))

	_, err := sess.Submit(context.Background(), blobstore.NewInMemoryBlobStore("", 0), &mockPublicRepo{})
	var violation *RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("err = %v, want RuleViolationError", err)
	}
}

func TestSessionNumberBounds(t *testing.T) {
	form := intakeForm()
	min, max := 0.0, 120.0
	form.Fields = append(form.Fields, &forms.FormField{
		ID: uuid.New(), FormID: form.ID, Type: "number", Label: "Age",
		Validation: forms.ValidationRules{Min: &min, Max: &max},
	})
	ageID := form.Fields[len(form.Fields)-1].ID

	sess := NewSession(form)
	sess.SetPatient("Jane Roe", "jane@example.com", "555-0100")
	sess.SetAnswer(form.Fields[0].ID, TextValue("Jane Roe"))
	sess.SetAnswer(ageID, TextValue("130"))

	_, err := sess.Submit(context.Background(), blobstore.NewInMemoryBlobStore("", 0), &mockPublicRepo{})
	var violation *RuleViolationError
	if !errors.As(err, &violation) || violation.Label != "Age" {
		t.Fatalf("err = %v, want Age rule violation", err)
	}

	sess.SetAnswer(ageID, TextValue("not a number"))
	if _, err := sess.Submit(context.Background(), blobstore.NewInMemoryBlobStore("", 0), &mockPublicRepo{}); !errors.As(err, &violation) {
		t.Fatalf("err = %v, want RuleViolationError", err)
	}

	sess.SetAnswer(ageID, TextValue("34"))
	if _, err := sess.Submit(context.Background(), blobstore.NewInMemoryBlobStore("", 0), &mockPublicRepo{}); err != nil {
		t.Fatalf("in-range value rejected: %v", err)
	}
}

func TestSessionRetryAfterRejection(t *testing.T) {
	form := intakeForm()
	store := blobstore.NewInMemoryBlobStore("", 0)
	repo := &mockPublicRepo{}

	sess := NewSession(form)
	sess.SetAnswer(form.Fields[1].ID, MultiValue([]string{"Cough"}))

	if _, err := sess.Submit(context.Background(), store, repo); err == nil {
		t.Fatal("expected rejection without patient info")
	}
	if sess.State() != StateRejected {
		t.Fatalf("state = %v", sess.State())
	}

	// The visitor fills in what was missing; earlier answers survive.
	sess.SetPatient("Jane Roe", "jane@example.com", "555-0100")
	sess.SetAnswer(form.Fields[0].ID, TextValue("Jane Roe"))

	sub, err := sess.Submit(context.Background(), store, repo)
	if err != nil {
		t.Fatalf("retry Submit: %v", err)
	}
	v, ok := sub.Responses.Get(form.Fields[1].ID)
	if !ok || v.Kind != KindMulti || v.Multi[0] != "Cough" {
		t.Errorf("earlier answer lost on retry: %+v", v)
	}
}

func TestSessionDoubleSubmit(t *testing.T) {
	form := intakeForm()
	store := blobstore.NewInMemoryBlobStore("", 0)
	repo := &mockPublicRepo{}

	sess := NewSession(form)
	sess.SetPatient("Jane Roe", "jane@example.com", "555-0100")
	sess.SetAnswer(form.Fields[0].ID, TextValue("Jane Roe"))

	if _, err := sess.Submit(context.Background(), store, repo); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := sess.Submit(context.Background(), store, repo); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("err = %v, want ErrAlreadySubmitted", err)
	}
	if len(repo.inserted) != 1 {
		t.Errorf("inserted = %d rows, want 1", len(repo.inserted))
	}
}

func TestSessionUploadFailureRejects(t *testing.T) {
	form := intakeForm()
	store := blobstore.NewInMemoryBlobStore("", 0)
	repo := &mockPublicRepo{}

	sess := NewSession(form)
	sess.SetPatient("Jane Roe", "jane@example.com", "555-0100")
	sess.SetAnswer(form.Fields[0].ID, TextValue("Jane Roe"))
	sess.StageFile(StagedFile{
		FieldID:     form.Fields[2].ID,
		FileName:    "notes.exe",
		ContentType: "application/octet-stream",
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("MZ")), nil
		},
	})

	_, err := sess.Submit(context.Background(), store, repo)
	if !errors.Is(err, blobstore.ErrInvalidContentType) {
		t.Fatalf("err = %v, want ErrInvalidContentType", err)
	}
	if sess.State() != StateRejected {
		t.Errorf("state = %v, want rejected", sess.State())
	}
	if len(repo.inserted) != 0 {
		t.Error("nothing should be persisted when an upload fails")
	}
}

func TestSessionInsertFailureRejects(t *testing.T) {
	form := intakeForm()
	repo := &mockPublicRepo{fail: errors.New("db down")}

	sess := NewSession(form)
	sess.SetPatient("Jane Roe", "jane@example.com", "555-0100")
	sess.SetAnswer(form.Fields[0].ID, TextValue("Jane Roe"))

	if _, err := sess.Submit(context.Background(), blobstore.NewInMemoryBlobStore("", 0), repo); err == nil {
		t.Fatal("expected insert failure")
	}
	if sess.State() != StateRejected {
		t.Errorf("state = %v, want rejected", sess.State())
	}
}

func TestSanitizeFileName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"scan 2024.pdf", "scan_2024.pdf"},
		{"../../etc/pass", ".._.._etc_pass"},
		{"résumé.pdf", "r_sum_.pdf"},
		{"", "file"},
		{"photo.jpg", "photo.jpg"},
	}
	for _, tc := range cases {
		if got := sanitizeFileName(tc.in); got != tc.want {
			t.Errorf("sanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
