package csvimport

import (
	"context"
	"fmt"
	"sync"
)

// State is the lifecycle stage of an import session.
type State string

const (
	StateIdle      State = "idle"
	StateParsing   State = "parsing"
	StateMapping   State = "mapping"
	StateImporting State = "importing"
	StateDone      State = "done"
	StateFailed    State = "failed"
)

// Session holds the state of one import: the parsed file, its mappings and
// the terminal result. Transitions:
//
//	idle -> parsing -> mapping -> importing -> done | failed
//
// Load is only accepted from idle, done or failed; Import only from
// mapping. Reset returns to idle from any state. A Session is safe for
// concurrent use.
type Session struct {
	fields   []TargetField
	synonyms Synonyms

	mu       sync.Mutex
	gen      uint64
	state    State
	table    RawTable
	mappings Mappings
	result   *Result
	lastErr  error
}

// Snapshot is a point-in-time copy of a session's observable state.
type Snapshot struct {
	State    State
	Headers  []string
	RowCount int
	Mappings Mappings
	Ready    bool
	Missing  []TargetField
	Result   *Result
	Err      error
}

// NewSession creates an idle session for the given target fields.
// A nil synonyms table uses DefaultSynonyms.
func NewSession(fields []TargetField, synonyms Synonyms) *Session {
	if synonyms == nil {
		synonyms = DefaultSynonyms()
	}
	return &Session{
		fields:   append([]TargetField(nil), fields...),
		synonyms: synonyms,
		state:    StateIdle,
	}
}

// Fields returns the session's target fields.
func (s *Session) Fields() []TargetField {
	return append([]TargetField(nil), s.fields...)
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Load parses text and proposes mappings. An empty file leaves the session
// idle and returns ErrEmptyFile.
func (s *Session) Load(text string) error {
	s.mu.Lock()
	switch s.state {
	case StateIdle, StateDone, StateFailed:
	default:
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot load a file while %s", ErrSessionBusy, state)
	}
	s.state = StateParsing
	s.result = nil
	s.lastErr = nil
	gen := s.gen
	s.mu.Unlock()

	table := Parse(text)
	var mappings Mappings
	if !table.Empty() {
		mappings = AutoMap(table.Headers, s.fields, s.synonyms)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return fmt.Errorf("%w: session was reset during parsing", ErrSessionBusy)
	}
	if table.Empty() {
		s.state = StateIdle
		return ErrEmptyFile
	}
	s.table = table
	s.mappings = mappings
	s.state = StateMapping
	return nil
}

// Assign maps header to field. See Mappings.Assign.
func (s *Session) Assign(header, field string) error {
	return s.edit(func(m Mappings) error { return m.Assign(header, field, s.fields) })
}

// AssignAt maps the column at index to field.
func (s *Session) AssignAt(index int, field string) error {
	return s.edit(func(m Mappings) error { return m.AssignAt(index, field, s.fields) })
}

// Skip unmaps header.
func (s *Session) Skip(header string) error {
	return s.edit(func(m Mappings) error { return m.Skip(header) })
}

// SkipAt unmaps the column at index.
func (s *Session) SkipAt(index int) error {
	return s.edit(func(m Mappings) error { return m.SkipAt(index) })
}

func (s *Session) edit(fn func(Mappings) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateMapping {
		return fmt.Errorf("%w: mappings can only change while mapping (state %s)", ErrSessionBusy, s.state)
	}
	return fn(s.mappings)
}

// Records transforms the loaded rows with the current mappings.
func (s *Session) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Transform(s.table.Rows, s.mappings)
}

// Snapshot returns a copy of the session's observable state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:    s.state,
		Headers:  append([]string(nil), s.table.Headers...),
		RowCount: len(s.table.Rows),
		Mappings: s.mappings.Clone(),
		Err:      s.lastErr,
	}
	if s.mappings != nil {
		snap.Missing = MissingRequired(s.fields, s.mappings)
		snap.Ready = len(snap.Missing) == 0
	}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
	}
	return snap
}

// Import transforms the rows and hands them to fn exactly once.
//
// The returned Result reports every record as succeeded or every record
// as failed; there is no per-row accounting. The error is fn's error (or
// a recovered panic) for logging, or a state error if the import could
// not start.
func (s *Session) Import(ctx context.Context, fn ImportFunc) (Result, error) {
	s.mu.Lock()
	if s.state != StateMapping {
		state := s.state
		s.mu.Unlock()
		return Result{}, fmt.Errorf("%w: cannot import while %s", ErrSessionBusy, state)
	}
	if missing := MissingRequired(s.fields, s.mappings); len(missing) > 0 {
		s.mu.Unlock()
		return Result{}, fmt.Errorf("%w: %s", ErrNotReady, missing[0].Label)
	}
	records := Transform(s.table.Rows, s.mappings)
	s.state = StateImporting
	gen := s.gen
	s.mu.Unlock()

	err := runImport(ctx, fn, records)

	result := Result{Success: len(records)}
	if err != nil {
		result = Result{Errors: len(records)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen {
		s.result = &result
		s.lastErr = err
		if err != nil {
			s.state = StateFailed
		} else {
			s.state = StateDone
		}
	}
	return result, err
}

func runImport(ctx context.Context, fn ImportFunc, records []Record) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("import panicked: %v", r)
		}
	}()
	return fn(ctx, records)
}

// Reset discards the file, mappings and result and returns to idle.
// An import already handed to its ImportFunc runs to completion, but its
// result is not recorded.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.state = StateIdle
	s.table = RawTable{}
	s.mappings = nil
	s.result = nil
	s.lastErr = nil
}
