package core

import (
	"context"
	"errors"
	"time"

	"github.com/JonMunkholm/detailflow/internal/csvimport"
	"github.com/JonMunkholm/detailflow/internal/store"
	"github.com/google/uuid"
)

var (
	// ErrUnknownKind is returned for an import kind that is not registered.
	ErrUnknownKind = errors.New("unknown import kind")

	// ErrSessionNotFound is returned for a missing or expired session, or
	// one that belongs to another business.
	ErrSessionNotFound = errors.New("import session not found")

	// ErrNoFile is returned when an upload carries no data.
	ErrNoFile = errors.New("no file provided")
)

// KindInfo describes an import kind to clients.
type KindInfo struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// KindDefinition is everything needed to import one kind of record.
type KindDefinition struct {
	Info   KindInfo
	Fields []csvimport.TargetField

	// Synonyms overrides the default auto-mapping table. Nil uses
	// csvimport.DefaultSynonyms.
	Synonyms csvimport.Synonyms

	Target store.Target
}

// Sink persists a batch of records for a kind.
type Sink interface {
	Import(ctx context.Context, target store.Target, businessID, importID uuid.UUID, records []csvimport.Record) (int64, error)
}

// RunStore keeps the import history.
type RunStore interface {
	RecordRun(ctx context.Context, run store.Run) error
	ListRuns(ctx context.Context, businessID uuid.UUID, kind string, limit int) ([]store.Run, error)
}

// SessionView is the client-facing state of an import session.
type SessionView struct {
	ID        uuid.UUID                 `json:"id"`
	Kind      string                    `json:"kind"`
	FileName  string                    `json:"fileName"`
	State     csvimport.State           `json:"state"`
	Headers   []string                  `json:"headers"`
	RowCount  int                       `json:"rowCount"`
	Mappings  []csvimport.ColumnMapping `json:"mappings"`
	Fields    []csvimport.TargetField   `json:"fields"`
	Ready     bool                      `json:"ready"`
	Missing   []string                  `json:"missing"`
	Result    *csvimport.Result         `json:"result,omitempty"`
	Error     string                    `json:"error,omitempty"`
	CreatedAt time.Time                 `json:"createdAt"`
}

// Preview is a page of transformed records.
type Preview struct {
	Total   int                `json:"total"`
	Records []csvimport.Record `json:"records"`
}

// MappingUpdate is one manual mapping edit. A nil Field skips the column.
// Index, when set, addresses one column among duplicate headers.
type MappingUpdate struct {
	Header string  `json:"header"`
	Field  *string `json:"field"`
	Index  *int    `json:"index,omitempty"`
}
