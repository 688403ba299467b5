package submission

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medform/medform/internal/domain/forms"
	"github.com/medform/medform/internal/platform/blobstore"
)

type Service struct {
	repo   Repository
	public PublicRepository
	forms  *forms.Service
	store  blobstore.BlobStore
}

func NewService(repo Repository, public PublicRepository, formsSvc *forms.Service, store blobstore.BlobStore) *Service {
	return &Service{repo: repo, public: public, forms: formsSvc, store: store}
}

// SubmitInput carries one visitor's parsed submission.
type SubmitInput struct {
	PatientName  string
	PatientEmail string
	PatientPhone string
	IPAddress    string
	UserAgent    string
	Answers      map[uuid.UUID]Value
	Files        []StagedFile
}

// Submit resolves the slug to a live form and drives a session
// through the full pipeline.
func (s *Service) Submit(ctx context.Context, slug string, in SubmitInput) (*Submission, error) {
	form, err := s.forms.GetPublicForm(ctx, slug)
	if err != nil {
		return nil, err
	}
	sess := NewSession(form)
	sess.SetPatient(in.PatientName, in.PatientEmail, in.PatientPhone)
	sess.SetClient(in.IPAddress, in.UserAgent)
	for fieldID, v := range in.Answers {
		sess.SetAnswer(fieldID, v)
	}
	for _, f := range in.Files {
		sess.StageFile(f)
	}
	return sess.Submit(ctx, s.store, s.public)
}

// SuccessView is the post-submission landing payload.
type SuccessView struct {
	FormTitle     string `json:"form_title"`
	Message       string `json:"message"`
	AllowMultiple bool   `json:"allow_multiple_submissions"`
}

const defaultSuccessMessage = "Thank you! Your submission has been received."

// Success resolves a slug for the public thank-you page.
func (s *Service) Success(ctx context.Context, slug string) (*SuccessView, error) {
	form, err := s.forms.GetPublicForm(ctx, slug)
	if err != nil {
		return nil, err
	}
	msg := form.SuccessMessage
	if msg == "" {
		msg = defaultSuccessMessage
	}
	return &SuccessView{
		FormTitle:     form.Title,
		Message:       msg,
		AllowMultiple: form.AllowMultiple,
	}, nil
}

// Detail is a submission joined back to its form for display.
type Detail struct {
	*Submission
	FormTitle string   `json:"form_title"`
	Answers   []Answer `json:"answers"`
}

// GetAndMarkRead fetches one submission with its reconstructed
// answers and marks it read on first view.
func (s *Service) GetAndMarkRead(ctx context.Context, id uuid.UUID) (*Detail, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	form, err := s.forms.GetForm(ctx, sub.FormID)
	if err != nil {
		return nil, err
	}
	if !sub.IsRead {
		if err := s.repo.MarkRead(ctx, sub.ID); err != nil {
			return nil, err
		}
		sub.IsRead = true
		now := time.Now().UTC()
		sub.ViewedAt = &now
	}
	return &Detail{
		Submission: sub,
		FormTitle:  form.Title,
		Answers:    BuildView(form, sub),
	}, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Submission, int, error) {
	return s.repo.List(ctx, filter, limit, offset)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) CountUnread(ctx context.Context) (int, error) {
	return s.repo.CountUnread(ctx)
}
