package csvimport

import "fmt"

// Mappings is the ordered list of column mappings for one file, one entry
// per header. Edits change entries in place and never add, remove or
// reorder them.
type Mappings []ColumnMapping

// Clone returns an independent copy.
func (m Mappings) Clone() Mappings {
	return append(Mappings(nil), m...)
}

// Assign maps every entry whose header equals header to field.
// Other entries are untouched. Several headers may target the same field.
func (m Mappings) Assign(header, field string, fields []TargetField) error {
	if !hasField(fields, field) {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return m.update(header, ColumnMapping{Field: field, Mapped: true})
}

// AssignAt maps the entry at index to field. Use it to tell apart
// duplicate header names.
func (m Mappings) AssignAt(index int, field string, fields []TargetField) error {
	if index < 0 || index >= len(m) {
		return fmt.Errorf("%w: index %d", ErrUnknownHeader, index)
	}
	if !hasField(fields, field) {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	m[index].Field = field
	m[index].Mapped = true
	return nil
}

// Skip marks every entry whose header equals header as unmapped.
func (m Mappings) Skip(header string) error {
	return m.update(header, ColumnMapping{})
}

// SkipAt marks the entry at index as unmapped.
func (m Mappings) SkipAt(index int) error {
	if index < 0 || index >= len(m) {
		return fmt.Errorf("%w: index %d", ErrUnknownHeader, index)
	}
	m[index].Field = ""
	m[index].Mapped = false
	return nil
}

// Targets returns the set of field keys that at least one column maps to.
func (m Mappings) Targets() map[string]bool {
	out := make(map[string]bool, len(m))
	for _, cm := range m {
		if cm.Mapped {
			out[cm.Field] = true
		}
	}
	return out
}

func (m Mappings) update(header string, to ColumnMapping) error {
	found := false
	for i := range m {
		if m[i].Header != header {
			continue
		}
		m[i].Field = to.Field
		m[i].Mapped = to.Mapped
		found = true
	}
	if !found {
		return fmt.Errorf("%w: %q", ErrUnknownHeader, header)
	}
	return nil
}

func hasField(fields []TargetField, key string) bool {
	if key == "" {
		return false
	}
	for _, f := range fields {
		if f.Key == key {
			return true
		}
	}
	return false
}

// Ready reports whether every required field has at least one column
// mapped to it.
func Ready(fields []TargetField, mappings Mappings) bool {
	return len(MissingRequired(fields, mappings)) == 0
}

// MissingRequired lists the required fields no column maps to, in field order.
func MissingRequired(fields []TargetField, mappings Mappings) []TargetField {
	targets := mappings.Targets()
	var missing []TargetField
	for _, f := range fields {
		if f.Required && !targets[f.Key] {
			missing = append(missing, f)
		}
	}
	return missing
}
