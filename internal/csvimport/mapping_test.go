package csvimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMappings_AssignIsolation(t *testing.T) {
	m := AutoMap([]string{"Name", "Email", "Phone", "Favorite Color"}, customerFields, nil)
	before := m.Clone()

	require.NoError(t, m.Assign("Favorite Color", "notes", customerFields))

	require.Len(t, m, len(before))
	for i := range m {
		assert.Equal(t, before[i].Header, m[i].Header, "order preserved")
		if m[i].Header == "Favorite Color" {
			continue
		}
		assert.Equal(t, before[i], m[i], "entry %d untouched", i)
	}
	assert.Equal(t, ColumnMapping{Header: "Favorite Color", Field: "notes", Mapped: true}, m[3])
}

func TestMappings_DuplicateTargetsAllowed(t *testing.T) {
	m := AutoMap([]string{"Email", "Work Email"}, customerFields, nil)

	require.NoError(t, m.Assign("Work Email", "email", customerFields))
	assert.Equal(t, "email", m[0].Field)
	assert.Equal(t, "email", m[1].Field)
}

func TestMappings_Skip(t *testing.T) {
	m := AutoMap([]string{"Name", "Email"}, customerFields, nil)

	require.NoError(t, m.Skip("Email"))
	assert.False(t, m[1].Mapped)
	assert.Empty(t, m[1].Field)
	assert.True(t, m[0].Mapped)
}

func TestMappings_Errors(t *testing.T) {
	m := AutoMap([]string{"Name"}, customerFields, nil)

	assert.ErrorIs(t, m.Assign("Nope", "email", customerFields), ErrUnknownHeader)
	assert.ErrorIs(t, m.Assign("Name", "favorite_color", customerFields), ErrUnknownField)
	assert.ErrorIs(t, m.Assign("Name", "", customerFields), ErrUnknownField)
	assert.ErrorIs(t, m.Skip("Nope"), ErrUnknownHeader)
	assert.ErrorIs(t, m.AssignAt(5, "email", customerFields), ErrUnknownHeader)
	assert.ErrorIs(t, m.SkipAt(-1), ErrUnknownHeader)

	assert.Equal(t, "name", m[0].Field, "failed edits leave mapping unchanged")
}

func TestMappings_AssignAtDuplicateHeaders(t *testing.T) {
	m := AutoMap([]string{"Phone", "Phone"}, customerFields, nil)

	require.NoError(t, m.AssignAt(1, "notes", customerFields))
	assert.Equal(t, "phone", m[0].Field)
	assert.Equal(t, "notes", m[1].Field)

	require.NoError(t, m.SkipAt(0))
	assert.False(t, m[0].Mapped)
	assert.True(t, m[1].Mapped)
}

func TestReady(t *testing.T) {
	fields := []TargetField{
		{Key: "name", Label: "Name", Required: true},
		{Key: "content", Label: "Review", Required: true},
		{Key: "rating", Label: "Rating"},
	}

	m := AutoMap([]string{"Reviewer", "Stars"}, fields, nil)
	assert.False(t, Ready(fields, m))

	missing := MissingRequired(fields, m)
	require.Len(t, missing, 1)
	assert.Equal(t, "content", missing[0].Key)

	require.NoError(t, m.Assign("Stars", "content", fields))
	assert.True(t, Ready(fields, m))
}

func TestReady_NoRequiredFields(t *testing.T) {
	fields := []TargetField{{Key: "notes", Label: "Notes"}}
	assert.True(t, Ready(fields, nil))
}
