package forms

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrIndexOutOfRange  = errors.New("field index out of range")
	ErrUnknownFieldType = errors.New("unknown field type")
	ErrTitleRequired    = errors.New("form title is required")
	ErrNoFields         = errors.New("form must have at least one field")
	ErrMinOptions       = errors.New("field must keep at least two options")
)

// Builder applies structural edits to a form draft. It mutates the
// wrapped form in place; call Build to validate and renumber the
// fields before persisting.
type Builder struct {
	form     *Form
	registry *Registry
	selected int
}

func NewBuilder(form *Form, registry *Registry) *Builder {
	return &Builder{form: form, registry: registry, selected: -1}
}

// Form returns the draft being edited.
func (b *Builder) Form() *Form { return b.form }

// Selected returns the index of the field the editor is focused on,
// or -1 when nothing is selected.
func (b *Builder) Selected() int { return b.selected }

// AddField appends a blank field of the given type and selects it.
// Option-bearing types are seeded with two placeholder options.
func (b *Builder) AddField(fieldType string) (*FormField, error) {
	if !b.registry.Known(fieldType) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFieldType, fieldType)
	}
	def := b.registry.Lookup(fieldType)
	field := &FormField{
		ID:         uuid.New(),
		FormID:     b.form.ID,
		Type:       def.Type,
		OrderIndex: len(b.form.Fields),
	}
	if def.HasOptions {
		field.Options = []string{"Option 1", "Option 2"}
	}
	b.form.Fields = append(b.form.Fields, field)
	b.selected = len(b.form.Fields) - 1
	return field, nil
}

// FieldPatch carries the editable attributes of a field. Nil members
// are left unchanged.
type FieldPatch struct {
	Label       *string          `json:"label,omitempty"`
	Placeholder *string          `json:"placeholder,omitempty"`
	HelpText    *string          `json:"help_text,omitempty"`
	Options     []string         `json:"options,omitempty"`
	Validation  *ValidationRules `json:"validation,omitempty"`
}

// UpdateField applies a patch to the field at index.
func (b *Builder) UpdateField(index int, patch FieldPatch) error {
	if index < 0 || index >= len(b.form.Fields) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	f := b.form.Fields[index]
	if patch.Label != nil {
		f.Label = *patch.Label
	}
	if patch.Placeholder != nil {
		f.Placeholder = *patch.Placeholder
	}
	if patch.HelpText != nil {
		f.HelpText = *patch.HelpText
	}
	if patch.Options != nil {
		f.Options = patch.Options
	}
	if patch.Validation != nil {
		f.Validation = *patch.Validation
	}
	return nil
}

// MoveField moves the field at from to position to, shifting the
// fields in between.
func (b *Builder) MoveField(from, to int) error {
	n := len(b.form.Fields)
	if from < 0 || from >= n {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, from)
	}
	if to < 0 || to >= n {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, to)
	}
	if from == to {
		return nil
	}
	fields := b.form.Fields
	f := fields[from]
	fields = append(fields[:from], fields[from+1:]...)
	fields = append(fields[:to], append([]*FormField{f}, fields[to:]...)...)
	b.form.Fields = fields
	return nil
}

// DeleteField removes the field at index and clears the selection.
func (b *Builder) DeleteField(index int) error {
	if index < 0 || index >= len(b.form.Fields) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	b.form.Fields = append(b.form.Fields[:index], b.form.Fields[index+1:]...)
	b.selected = -1
	return nil
}

// DuplicateField copies the field at index, marks the copy's label,
// and appends it to the end of the draft list.
func (b *Builder) DuplicateField(index int) (*FormField, error) {
	if index < 0 || index >= len(b.form.Fields) {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	dup := b.form.Fields[index].Clone()
	dup.Label += " (Copy)"
	dup.OrderIndex = len(b.form.Fields)
	b.form.Fields = append(b.form.Fields, dup)
	return dup, nil
}

// AddOption appends a numbered placeholder option to the field at index.
func (b *Builder) AddOption(index int) error {
	if index < 0 || index >= len(b.form.Fields) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	f := b.form.Fields[index]
	f.Options = append(f.Options, fmt.Sprintf("Option %d", len(f.Options)+1))
	return nil
}

// RemoveOption deletes one option from the field at index. A field
// never drops below two options.
func (b *Builder) RemoveOption(index, option int) error {
	if index < 0 || index >= len(b.form.Fields) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	f := b.form.Fields[index]
	if option < 0 || option >= len(f.Options) {
		return fmt.Errorf("%w: option %d", ErrIndexOutOfRange, option)
	}
	if len(f.Options) <= 2 {
		return ErrMinOptions
	}
	f.Options = append(f.Options[:option], f.Options[option+1:]...)
	return nil
}

// Build validates the draft and renumbers every field's OrderIndex to
// its position. The returned form is the same draft, ready to persist.
func (b *Builder) Build() (*Form, error) {
	if b.form.Title == "" {
		return nil, ErrTitleRequired
	}
	if len(b.form.Fields) == 0 {
		return nil, ErrNoFields
	}
	for i, f := range b.form.Fields {
		f.OrderIndex = i
		f.FormID = b.form.ID
	}
	return b.form, nil
}
