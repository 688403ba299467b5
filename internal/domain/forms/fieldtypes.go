package forms

// FieldTypeDefinition describes one entry in the field-type catalog.
// HasOptions marks choice types that carry an option list;
// HasValidation marks types that accept min/max/pattern rules.
type FieldTypeDefinition struct {
	Type          string `json:"type"`
	Label         string `json:"label"`
	Icon          string `json:"icon"`
	Placeholder   string `json:"placeholder"`
	HasOptions    bool   `json:"has_options"`
	HasValidation bool   `json:"has_validation"`
	MultiValued   bool   `json:"multi_valued"`
}

// Registry is an immutable field-type catalog. The zero value is not
// usable; construct one with NewRegistry or DefaultRegistry.
type Registry struct {
	ordered []FieldTypeDefinition
	byType  map[string]FieldTypeDefinition
}

// NewRegistry builds a registry from the given definitions, preserving
// their order. The definitions slice is copied, so later mutation of
// the caller's slice does not affect the registry.
func NewRegistry(defs []FieldTypeDefinition) *Registry {
	ordered := make([]FieldTypeDefinition, len(defs))
	copy(ordered, defs)
	byType := make(map[string]FieldTypeDefinition, len(defs))
	for _, d := range ordered {
		byType[d.Type] = d
	}
	return &Registry{ordered: ordered, byType: byType}
}

// DefaultRegistry returns the standard catalog of supported field types.
func DefaultRegistry() *Registry {
	return NewRegistry([]FieldTypeDefinition{
		{Type: "text", Label: "Text Input", Icon: "type", Placeholder: "Enter text", HasValidation: true},
		{Type: "email", Label: "Email", Icon: "mail", Placeholder: "name@example.com", HasValidation: true},
		{Type: "number", Label: "Number", Icon: "hash", Placeholder: "0", HasValidation: true},
		{Type: "phone", Label: "Phone", Icon: "phone", Placeholder: "(555) 000-0000", HasValidation: true},
		{Type: "textarea", Label: "Text Area", Icon: "align-left", Placeholder: "Enter details", HasValidation: true},
		{Type: "select", Label: "Dropdown", Icon: "chevron-down", HasOptions: true},
		{Type: "radio", Label: "Radio Buttons", Icon: "circle-dot", HasOptions: true},
		{Type: "checkbox", Label: "Checkboxes", Icon: "check-square", HasOptions: true, MultiValued: true},
		{Type: "date", Label: "Date Picker", Icon: "calendar", HasValidation: true},
		{Type: "file", Label: "File Upload", Icon: "upload"},
	})
}

// Lookup resolves a field type name to its definition. Unknown types
// resolve to the first catalog entry so forms saved under a newer
// catalog still render rather than erroring.
func (r *Registry) Lookup(fieldType string) FieldTypeDefinition {
	if d, ok := r.byType[fieldType]; ok {
		return d
	}
	return r.ordered[0]
}

// Known reports whether the field type exists in the catalog.
func (r *Registry) Known(fieldType string) bool {
	_, ok := r.byType[fieldType]
	return ok
}

// Types returns the catalog entries in registration order. The
// returned slice is a copy.
func (r *Registry) Types() []FieldTypeDefinition {
	out := make([]FieldTypeDefinition, len(r.ordered))
	copy(out, r.ordered)
	return out
}
