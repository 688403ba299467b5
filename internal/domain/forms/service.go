package forms

import (
	"context"

	"github.com/google/uuid"
)

type Service struct {
	repo     Repository
	public   PublicRepository
	registry *Registry
}

func NewService(repo Repository, public PublicRepository, registry *Registry) *Service {
	return &Service{repo: repo, public: public, registry: registry}
}

// FieldTypes returns the catalog entries available to the builder.
func (s *Service) FieldTypes() []FieldTypeDefinition {
	return s.registry.Types()
}

// FormSettings carries the form-level attributes a doctor can edit.
// A blank Slug means "generate from the title" on create and "keep the
// current slug" on update.
type FormSettings struct {
	Title               string `json:"title"`
	Description         string `json:"description"`
	Slug                string `json:"slug"`
	RequiresPatientInfo bool   `json:"requires_patient_info"`
	SuccessMessage      string `json:"success_message"`
	NotificationEmail   string `json:"notification_email"`
	AllowMultiple       bool   `json:"allow_multiple_submissions"`
}

// CreateForm validates and persists a new form. Forms are live as soon
// as they are created.
func (s *Service) CreateForm(ctx context.Context, settings FormSettings, fields []*FormField) (*Form, error) {
	slug := settings.Slug
	if slug == "" {
		slug = GenerateSlug(settings.Title)
	} else if !ValidSlug(slug) {
		return nil, ErrInvalidSlug
	}
	form := &Form{
		ID:                  uuid.New(),
		Title:               settings.Title,
		Description:         settings.Description,
		Slug:                slug,
		IsActive:            true,
		RequiresPatientInfo: settings.RequiresPatientInfo,
		SuccessMessage:      settings.SuccessMessage,
		NotificationEmail:   settings.NotificationEmail,
		AllowMultiple:       settings.AllowMultiple,
		Fields:              fields,
	}
	if _, err := NewBuilder(form, s.registry).Build(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, form); err != nil {
		return nil, err
	}
	return form, nil
}

func (s *Service) GetForm(ctx context.Context, id uuid.UUID) (*Form, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListForms(ctx context.Context, limit, offset int) ([]*Form, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// UpdateForm replaces a form's settings and full field list in one
// transaction.
func (s *Service) UpdateForm(ctx context.Context, id uuid.UUID, settings FormSettings, fields []*FormField) (*Form, error) {
	form, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if settings.Slug != "" && settings.Slug != form.Slug {
		if !ValidSlug(settings.Slug) {
			return nil, ErrInvalidSlug
		}
		form.Slug = settings.Slug
	}
	form.Title = settings.Title
	form.Description = settings.Description
	form.RequiresPatientInfo = settings.RequiresPatientInfo
	form.SuccessMessage = settings.SuccessMessage
	form.NotificationEmail = settings.NotificationEmail
	form.AllowMultiple = settings.AllowMultiple
	form.Fields = fields
	if _, err := NewBuilder(form, s.registry).Build(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, form); err != nil {
		return nil, err
	}
	return form, nil
}

func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return s.repo.SetActive(ctx, id, active)
}

func (s *Service) DeleteForm(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// -- Builder operations --
//
// Each operation loads the form, applies one structural edit, and
// persists the result. Intermediate drafts may be empty; the
// title/field-count checks only gate CreateForm and UpdateForm.

func (s *Service) AddField(ctx context.Context, formID uuid.UUID, fieldType string) (*Form, error) {
	return s.edit(ctx, formID, func(b *Builder) error {
		_, err := b.AddField(fieldType)
		return err
	})
}

func (s *Service) UpdateField(ctx context.Context, formID uuid.UUID, index int, patch FieldPatch) (*Form, error) {
	return s.edit(ctx, formID, func(b *Builder) error {
		return b.UpdateField(index, patch)
	})
}

func (s *Service) MoveField(ctx context.Context, formID uuid.UUID, from, to int) (*Form, error) {
	return s.edit(ctx, formID, func(b *Builder) error {
		return b.MoveField(from, to)
	})
}

func (s *Service) DeleteField(ctx context.Context, formID uuid.UUID, index int) (*Form, error) {
	return s.edit(ctx, formID, func(b *Builder) error {
		return b.DeleteField(index)
	})
}

func (s *Service) DuplicateField(ctx context.Context, formID uuid.UUID, index int) (*Form, error) {
	return s.edit(ctx, formID, func(b *Builder) error {
		_, err := b.DuplicateField(index)
		return err
	})
}

func (s *Service) AddOption(ctx context.Context, formID uuid.UUID, index int) (*Form, error) {
	return s.edit(ctx, formID, func(b *Builder) error {
		return b.AddOption(index)
	})
}

func (s *Service) RemoveOption(ctx context.Context, formID uuid.UUID, index, option int) (*Form, error) {
	return s.edit(ctx, formID, func(b *Builder) error {
		return b.RemoveOption(index, option)
	})
}

func (s *Service) edit(ctx context.Context, formID uuid.UUID, op func(*Builder) error) (*Form, error) {
	form, err := s.repo.GetByID(ctx, formID)
	if err != nil {
		return nil, err
	}
	b := NewBuilder(form, s.registry)
	if err := op(b); err != nil {
		return nil, err
	}
	for i, f := range form.Fields {
		f.OrderIndex = i
	}
	if err := s.repo.Update(ctx, form); err != nil {
		return nil, err
	}
	return form, nil
}

// GetPublicForm resolves a slug to its live form for rendering.
// Field types unknown to the current catalog are normalized to the
// catalog's first entry.
func (s *Service) GetPublicForm(ctx context.Context, slug string) (*Form, error) {
	if !ValidSlug(slug) {
		return nil, ErrFormNotFound
	}
	form, err := s.public.GetActiveBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	for _, f := range form.Fields {
		f.Type = s.registry.Lookup(f.Type).Type
	}
	return form, nil
}
