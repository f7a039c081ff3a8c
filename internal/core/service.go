package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/JonMunkholm/detailflow/internal/csvimport"
	"github.com/JonMunkholm/detailflow/internal/lock"
	"github.com/JonMunkholm/detailflow/internal/logging"
	"github.com/JonMunkholm/detailflow/internal/metrics"
	"github.com/google/uuid"
)

// Options tunes the Service. Zero values take the defaults noted.
type Options struct {
	MaxFileSize   int64         // default 10MB
	MaxConcurrent int           // default DefaultMaxConcurrentImports
	MaxWait       time.Duration // default DefaultMaxWaitTime
	CommitTimeout time.Duration // default 90s
	PreviewLimit  int           // default 20

	// LockTTL is the lifetime of an expiring commit lock. A running commit
	// extends the lock every third of LockTTL. Zero disables extension.
	LockTTL time.Duration
}

const (
	defaultMaxFileSize   = 10 << 20
	defaultCommitTimeout = 90 * time.Second
	defaultPreviewLimit  = 20
	maxPreviewLimit      = 500
)

// Service owns the open import sessions and runs commits.
type Service struct {
	sink    Sink
	runs    RunStore
	locker  lock.Locker
	metrics *metrics.ImportMetrics
	limiter *ImportLimiter
	opts    Options
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*importSession
}

// importSession is a csvimport.Session plus the context the service needs
// to commit it.
type importSession struct {
	id         uuid.UUID
	kind       KindDefinition
	businessID uuid.UUID
	fileName   string
	createdAt  time.Time
	sess       *csvimport.Session

	mu         sync.Mutex
	lastActive time.Time
}

func (s *importSession) touch(t time.Time) {
	s.mu.Lock()
	s.lastActive = t
	s.mu.Unlock()
}

func (s *importSession) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// NewService wires a Service. runs and m may be nil; a nil locker uses an
// in-process lock.
func NewService(sink Sink, runs RunStore, locker lock.Locker, m *metrics.ImportMetrics, opts Options) *Service {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = defaultMaxFileSize
	}
	if opts.CommitTimeout <= 0 {
		opts.CommitTimeout = defaultCommitTimeout
	}
	if opts.PreviewLimit <= 0 {
		opts.PreviewLimit = defaultPreviewLimit
	}
	if locker == nil {
		locker = lock.NewLocal()
	}

	return &Service{
		sink:     sink,
		runs:     runs,
		locker:   locker,
		metrics:  m,
		limiter:  NewImportLimiter(opts.MaxConcurrent, opts.MaxWait),
		opts:     opts,
		now:      time.Now,
		sessions: make(map[uuid.UUID]*importSession),
	}
}

// Kinds returns the registered import kinds.
func (s *Service) Kinds() []KindDefinition {
	return All()
}

// LimiterStatus reports commit slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// SessionCount returns the number of open sessions.
func (s *Service) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// StartImport reads an uploaded file, parses it and proposes a mapping.
// The returned session is in the mapping state.
func (s *Service) StartImport(ctx context.Context, kindKey string, businessID uuid.UUID, fileName string, r io.Reader) (SessionView, error) {
	logger := logging.WithFields(ctx, "kind", kindKey, "business_id", businessID, "file", fileName)

	def, ok := Get(kindKey)
	if !ok {
		return SessionView{}, fmt.Errorf("%w: %s", ErrUnknownKind, kindKey)
	}
	if r == nil {
		return SessionView{}, ErrNoFile
	}

	text, err := csvimport.ReadText(r, s.opts.MaxFileSize)
	if err != nil {
		s.metrics.ObserveUpload(kindKey, "rejected")
		return SessionView{}, err
	}

	sess := csvimport.NewSession(def.Fields, def.Synonyms)
	if err := sess.Load(text); err != nil {
		s.metrics.ObserveUpload(kindKey, "rejected")
		return SessionView{}, err
	}

	now := s.now()
	is := &importSession{
		id:         uuid.New(),
		kind:       def,
		businessID: businessID,
		fileName:   fileName,
		createdAt:  now,
		sess:       sess,
		lastActive: now,
	}

	s.mu.Lock()
	s.sessions[is.id] = is
	count := len(s.sessions)
	s.mu.Unlock()

	s.metrics.ObserveUpload(kindKey, "ok")
	s.metrics.SetActiveSessions(count)

	view := s.view(is)
	logger.Info("import session started",
		"session_id", is.id,
		"rows", view.RowCount,
		"columns", len(view.Headers),
		"ready", view.Ready,
	)
	return view, nil
}

// GetSession returns the current state of a session.
func (s *Service) GetSession(businessID, id uuid.UUID) (SessionView, error) {
	is, err := s.lookup(businessID, id)
	if err != nil {
		return SessionView{}, err
	}
	return s.view(is), nil
}

// UpdateMapping applies one manual mapping edit.
func (s *Service) UpdateMapping(ctx context.Context, businessID, id uuid.UUID, u MappingUpdate) (SessionView, error) {
	var fn func(*csvimport.Session) error
	switch {
	case u.Field == nil && u.Index != nil:
		fn = func(sess *csvimport.Session) error { return sess.SkipAt(*u.Index) }
	case u.Field == nil:
		fn = func(sess *csvimport.Session) error { return sess.Skip(u.Header) }
	case u.Index != nil:
		fn = func(sess *csvimport.Session) error { return sess.AssignAt(*u.Index, *u.Field) }
	default:
		fn = func(sess *csvimport.Session) error { return sess.Assign(u.Header, *u.Field) }
	}

	view, err := s.edit(businessID, id, fn)
	if err != nil {
		return SessionView{}, err
	}
	logging.FromContext(ctx).Debug("mapping updated", "session_id", id, "header", u.Header, "ready", view.Ready)
	return view, nil
}

// AssignField maps every column named header to field.
func (s *Service) AssignField(businessID, id uuid.UUID, header, field string) (SessionView, error) {
	return s.edit(businessID, id, func(sess *csvimport.Session) error { return sess.Assign(header, field) })
}

// SkipColumn leaves every column named header out of the import.
func (s *Service) SkipColumn(businessID, id uuid.UUID, header string) (SessionView, error) {
	return s.edit(businessID, id, func(sess *csvimport.Session) error { return sess.Skip(header) })
}

func (s *Service) edit(businessID, id uuid.UUID, fn func(*csvimport.Session) error) (SessionView, error) {
	is, err := s.lookup(businessID, id)
	if err != nil {
		return SessionView{}, err
	}
	if err := fn(is.sess); err != nil {
		return SessionView{}, err
	}
	return s.view(is), nil
}

// PreviewRecords returns the first limit transformed records under the
// current mapping.
func (s *Service) PreviewRecords(businessID, id uuid.UUID, limit int) (Preview, error) {
	is, err := s.lookup(businessID, id)
	if err != nil {
		return Preview{}, err
	}

	if limit <= 0 {
		limit = s.opts.PreviewLimit
	}
	if limit > maxPreviewLimit {
		limit = maxPreviewLimit
	}

	records := is.sess.Records()
	p := Preview{Total: len(records), Records: records}
	if len(records) > limit {
		p.Records = records[:limit]
	}
	if p.Records == nil {
		p.Records = []csvimport.Record{}
	}
	return p, nil
}

// DiscardSession resets and forgets a session. A commit already running
// finishes, but its result is dropped.
func (s *Service) DiscardSession(ctx context.Context, businessID, id uuid.UUID) error {
	is, err := s.lookup(businessID, id)
	if err != nil {
		return err
	}
	is.sess.Reset()
	s.remove(id)

	logging.FromContext(ctx).Info("import session discarded", "session_id", id, "kind", is.kind.Info.Key)
	return nil
}

func (s *Service) lookup(businessID, id uuid.UUID) (*importSession, error) {
	s.mu.RLock()
	is, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok || is.businessID != businessID {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	is.touch(s.now())
	return is, nil
}

func (s *Service) remove(id uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, id)
	count := len(s.sessions)
	s.mu.Unlock()
	s.metrics.SetActiveSessions(count)
}

func (s *Service) view(is *importSession) SessionView {
	snap := is.sess.Snapshot()

	v := SessionView{
		ID:        is.id,
		Kind:      is.kind.Info.Key,
		FileName:  is.fileName,
		State:     snap.State,
		Headers:   snap.Headers,
		RowCount:  snap.RowCount,
		Mappings:  snap.Mappings,
		Fields:    is.kind.Fields,
		Ready:     snap.Ready,
		Missing:   make([]string, 0, len(snap.Missing)),
		Result:    snap.Result,
		CreatedAt: is.createdAt,
	}
	for _, f := range snap.Missing {
		v.Missing = append(v.Missing, f.Label)
	}
	if snap.Err != nil {
		v.Error = FormatUserError(snap.Err)
	}
	if v.Headers == nil {
		v.Headers = []string{}
	}
	if v.Mappings == nil {
		v.Mappings = []csvimport.ColumnMapping{}
	}
	return v
}

// WaitForImports blocks until running commits finish or ctx is done.
func (s *Service) WaitForImports(ctx context.Context) error {
	active := s.limiter.ActiveCount()
	if active > 0 {
		slog.Info("waiting for imports to finish", "active", active)
	}
	return s.limiter.WaitForDrain(ctx)
}
