package submission

import (
	"time"

	"github.com/google/uuid"

	"github.com/medform/medform/internal/domain/forms"
)

// AnswerKind tells the client how to render one reconstructed answer.
type AnswerKind string

const (
	AnswerNone   AnswerKind = "none"
	AnswerText   AnswerKind = "text"
	AnswerBadges AnswerKind = "badges"
	AnswerBool   AnswerKind = "bool"
	AnswerFiles  AnswerKind = "files"
)

// NoResponse is the display text for a field the visitor left blank.
const NoResponse = "No response"

// Answer is one field of a submission joined back to its form
// definition for display.
type Answer struct {
	FieldID   uuid.UUID    `json:"field_id"`
	Label     string       `json:"label"`
	FieldType string       `json:"field_type"`
	Kind      AnswerKind   `json:"kind"`
	Text      string       `json:"text,omitempty"`
	Badges    []string     `json:"badges,omitempty"`
	Files     []Attachment `json:"files,omitempty"`
}

// BuildView reconstructs a submission against its form, in field
// order. A field is "No response" only when no answer was recorded or
// the answer is empty; an explicit false or an empty-but-present
// checkbox answer still renders.
func BuildView(form *forms.Form, sub *Submission) []Answer {
	answers := make([]Answer, 0, len(form.Fields))
	for _, field := range form.Fields {
		a := Answer{FieldID: field.ID, Label: field.Label, FieldType: field.Type}

		if field.Type == "file" {
			a.Files = attachmentsFor(sub, field.ID)
			if len(a.Files) == 0 {
				a.Kind = AnswerNone
				a.Text = NoResponse
			} else {
				a.Kind = AnswerFiles
			}
			answers = append(answers, a)
			continue
		}

		v, ok := sub.Responses.Get(field.ID)
		if !ok || v.IsZero() {
			if ok && v.Kind == KindBool {
				a.Kind = AnswerBool
				a.Text = yesNo(v.Bool)
			} else {
				a.Kind = AnswerNone
				a.Text = NoResponse
			}
			answers = append(answers, a)
			continue
		}

		switch v.Kind {
		case KindMulti:
			a.Kind = AnswerBadges
			a.Badges = v.Multi
		case KindBool:
			a.Kind = AnswerBool
			a.Text = yesNo(v.Bool)
		default:
			a.Kind = AnswerText
			a.Text = v.Text
			if field.Type == "date" {
				a.Text = formatDate(v.Text)
			}
		}
		answers = append(answers, a)
	}
	return answers
}

func attachmentsFor(sub *Submission, fieldID uuid.UUID) []Attachment {
	var out []Attachment
	for _, att := range sub.Attachments {
		if att.FieldID == fieldID {
			out = append(out, att)
		}
	}
	return out
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// formatDate renders an ISO date for display, passing through values
// it cannot parse.
func formatDate(s string) string {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return s
	}
	return t.Format("January 2, 2006")
}
