package submission

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ValueKind discriminates the shapes an answer can take.
type ValueKind int

const (
	KindText ValueKind = iota
	KindMulti
	KindBool
)

// Value is a tagged union holding one answer. Text carries single
// string answers (text, email, number, phone, textarea, select,
// radio, date), Multi carries checkbox selections, Bool carries
// single yes/no answers.
type Value struct {
	Kind  ValueKind
	Text  string
	Multi []string
	Bool  bool
}

func TextValue(s string) Value     { return Value{Kind: KindText, Text: s} }
func MultiValue(vs []string) Value { return Value{Kind: KindMulti, Multi: vs} }
func BoolValue(b bool) Value       { return Value{Kind: KindBool, Bool: b} }

// IsZero reports whether the value carries no answer at all. An
// explicit false or empty selection is still an answer.
func (v Value) IsZero() bool {
	switch v.Kind {
	case KindText:
		return v.Text == ""
	case KindMulti:
		return len(v.Multi) == 0
	default:
		return false
	}
}

// MarshalJSON renders the value as its natural JSON shape: string,
// string array, or boolean.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindText:
		return json.Marshal(v.Text)
	case KindMulti:
		if v.Multi == nil {
			return json.Marshal([]string{})
		}
		return json.Marshal(v.Multi)
	case KindBool:
		return json.Marshal(v.Bool)
	default:
		return nil, fmt.Errorf("unknown value kind %d", v.Kind)
	}
}

// UnmarshalJSON infers the kind from the JSON shape.
func (v *Value) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = TextValue(s)
		return nil
	}
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*v = MultiValue(arr)
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*v = BoolValue(b)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*v = TextValue(trimFloat(n))
		return nil
	}
	return fmt.Errorf("unsupported answer shape: %s", data)
}

func trimFloat(n float64) string {
	if n == float64(int64(n)) {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", n)
}

// ResponseSet maps field IDs to answers. It round-trips as jsonb.
type ResponseSet map[uuid.UUID]Value

// Get returns the answer for a field and whether one was recorded.
func (rs ResponseSet) Get(fieldID uuid.UUID) (Value, bool) {
	v, ok := rs[fieldID]
	return v, ok
}

// Attachment is one uploaded file tied to a submission field.
type Attachment struct {
	FieldID     uuid.UUID `json:"field_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Path        string    `json:"path"`
	URL         string    `json:"url"`
}

// Submission maps to the form_submissions table. Patient fields are
// populated only when the form requires patient info.
type Submission struct {
	ID           uuid.UUID    `db:"id" json:"id"`
	FormID       uuid.UUID    `db:"form_id" json:"form_id"`
	DoctorID     uuid.UUID    `db:"doctor_id" json:"doctor_id"`
	PatientName  string       `db:"patient_name" json:"patient_name"`
	PatientEmail string       `db:"patient_email" json:"patient_email"`
	PatientPhone string       `db:"patient_phone" json:"patient_phone"`
	Responses    ResponseSet  `db:"responses" json:"responses"`
	Attachments  []Attachment `db:"attachments" json:"attachments"`
	IPAddress    string       `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent    string       `db:"user_agent" json:"user_agent,omitempty"`
	IsRead       bool         `db:"is_read" json:"is_read"`
	ViewedAt     *time.Time   `db:"viewed_at" json:"viewed_at,omitempty"`
	SubmittedAt  time.Time    `db:"submitted_at" json:"submitted_at"`
}
