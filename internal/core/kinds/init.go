// Package kinds registers the import kinds offered by the dashboard.
// Import it for its side effects.
package kinds

import (
	"github.com/JonMunkholm/detailflow/internal/core"
	"github.com/JonMunkholm/detailflow/internal/csvimport"
	"github.com/JonMunkholm/detailflow/internal/store"
)

func init() {
	registerCustomers()
	registerTestimonials()
	registerServices()
}

// field declares one target field and the column it is written to. The
// column name always equals the field key.
type field struct {
	key      string
	label    string
	typ      store.ColumnType
	required bool
}

func register(info core.KindInfo, fields []field) {
	def := core.KindDefinition{
		Info:   info,
		Fields: make([]csvimport.TargetField, len(fields)),
		Target: store.Target{Table: info.Key, Columns: make([]store.Column, len(fields))},
	}
	for i, f := range fields {
		def.Fields[i] = csvimport.TargetField{Key: f.key, Label: f.label, Required: f.required}
		def.Target.Columns[i] = store.Column{Name: f.key, Field: f.key, Type: f.typ, Required: f.required}
	}
	core.Register(def)
}
