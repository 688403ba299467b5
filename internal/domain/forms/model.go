package forms

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Form maps to the forms table.
type Form struct {
	ID                  uuid.UUID    `db:"id" json:"id"`
	DoctorID            uuid.UUID    `db:"doctor_id" json:"doctor_id"`
	Title               string       `db:"title" json:"title"`
	Description         string       `db:"description" json:"description"`
	Slug                string       `db:"slug" json:"slug"`
	IsActive            bool         `db:"is_active" json:"is_active"`
	RequiresPatientInfo bool         `db:"requires_patient_info" json:"requires_patient_info"`
	SuccessMessage      string       `db:"success_message" json:"success_message"`
	NotificationEmail   string       `db:"notification_email" json:"notification_email"`
	AllowMultiple       bool         `db:"allow_multiple_submissions" json:"allow_multiple_submissions"`
	SubmissionCount     int          `db:"submission_count" json:"submission_count"`
	Fields              []*FormField `json:"fields"`
	CreatedAt           time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time    `db:"updated_at" json:"updated_at"`
}

// FormField maps to the form_fields table. OrderIndex is the field's
// position within the form and is renumbered on every save.
type FormField struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	FormID      uuid.UUID       `db:"form_id" json:"form_id"`
	Type        string          `db:"field_type" json:"type"`
	Label       string          `db:"label" json:"label"`
	Placeholder string          `db:"placeholder" json:"placeholder"`
	HelpText    string          `db:"help_text" json:"help_text,omitempty"`
	Options     []string        `db:"options" json:"options,omitempty"`
	OrderIndex  int             `db:"order_index" json:"order_index"`
	Validation  ValidationRules `db:"validation" json:"validation"`
}

// ValidationRules is stored as jsonb alongside each field.
type ValidationRules struct {
	Required  bool     `json:"required"`
	MinLength *int     `json:"min_length,omitempty"`
	MaxLength *int     `json:"max_length,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
}

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// ValidSlug reports whether s is a well-formed public form slug.
func ValidSlug(s string) bool {
	return s != "" && slugPattern.MatchString(s)
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// GenerateSlug derives a URL slug from a form title and appends a short
// random suffix so two forms with the same title get distinct slugs.
func GenerateSlug(title string) string {
	base := strings.ToLower(strings.TrimSpace(title))
	base = nonSlugChars.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")
	if base == "" {
		base = "form"
	}
	if len(base) > 48 {
		base = strings.Trim(base[:48], "-")
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return base + "-" + suffix
}

// Clone returns a deep copy of the field with a fresh ID.
func (f *FormField) Clone() *FormField {
	dup := *f
	dup.ID = uuid.New()
	if f.Options != nil {
		dup.Options = make([]string, len(f.Options))
		copy(dup.Options, f.Options)
	}
	return &dup
}
