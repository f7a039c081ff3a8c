package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/JonMunkholm/detailflow/internal/csvimport"
	"github.com/JonMunkholm/detailflow/internal/lock"
	"github.com/JonMunkholm/detailflow/internal/logging"
	"github.com/JonMunkholm/detailflow/internal/store"
	"github.com/google/uuid"
)

// bookkeepingTimeout bounds lock release and history writes, which run
// even after the request context is gone.
const bookkeepingTimeout = 5 * time.Second

// CommitImport writes a ready session to the database.
//
// The commit takes an import slot, then the per-business, per-kind lock,
// then hands every transformed record to the sink in one call. A sink
// failure is not returned as an error: the session moves to failed and
// the view carries Result.Errors and the user message. Errors are
// returned only when the import could not start.
func (s *Service) CommitImport(ctx context.Context, businessID, id uuid.UUID) (SessionView, error) {
	is, err := s.lookup(businessID, id)
	if err != nil {
		return SessionView{}, err
	}

	kind := is.kind.Info.Key
	logger := logging.WithFields(ctx,
		"session_id", id,
		"kind", kind,
		"business_id", businessID,
		"client_ip", ClientIPFromContext(ctx),
	)

	if snap := is.sess.Snapshot(); snap.State == csvimport.StateMapping && !snap.Ready {
		return SessionView{}, fmt.Errorf("%w: %s", csvimport.ErrNotReady, snap.Missing[0].Label)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		s.metrics.ObserveRejected(kind, "busy")
		return SessionView{}, err
	}
	defer s.limiter.Release()

	lk, err := s.locker.Obtain(ctx, lockKey(businessID, kind))
	if err != nil {
		if errors.Is(err, lock.ErrNotObtained) {
			s.metrics.ObserveRejected(kind, "locked")
		}
		return SessionView{}, err
	}
	defer func() {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bookkeepingTimeout)
		defer cancel()
		if err := lk.Release(rctx); err != nil {
			logger.Warn("failed to release import lock", "error", err)
		}
	}()

	runID := uuid.New()
	started := s.now()

	s.metrics.CommitStarted()
	commitCtx, cancel := context.WithTimeout(ctx, s.opts.CommitTimeout)
	stopHeartbeat := s.holdLock(commitCtx, cancel, lk, logger)
	res, importErr := is.sess.Import(commitCtx, func(ctx context.Context, records []csvimport.Record) error {
		_, err := s.sink.Import(ctx, is.kind.Target, businessID, runID, records)
		return err
	})
	stopHeartbeat()
	cancel()
	s.metrics.CommitFinished()

	if errors.Is(importErr, csvimport.ErrSessionBusy) || errors.Is(importErr, csvimport.ErrNotReady) {
		s.metrics.ObserveRejected(kind, "invalid_state")
		return SessionView{}, importErr
	}

	finished := s.now()
	elapsed := finished.Sub(started)
	s.metrics.ObserveCommit(kind, res.Success, res.Errors, elapsed)
	s.recordRun(ctx, store.Run{
		ID:         runID,
		BusinessID: businessID,
		Kind:       kind,
		FileName:   is.fileName,
		Success:    res.Success,
		Errors:     res.Errors,
		Error:      errorText(importErr),
		StartedAt:  started,
		FinishedAt: finished,
	})

	if importErr != nil {
		logger.Error("import failed",
			"run_id", runID,
			"rows", res.Errors,
			"duration_ms", elapsed.Milliseconds(),
			"error", importErr,
		)
	} else {
		logger.Info("import completed",
			"run_id", runID,
			"rows", res.Success,
			"duration_ms", elapsed.Milliseconds(),
		)
	}

	return s.view(is), nil
}

// holdLock extends lk until the returned stop func is called or ctx ends.
// If the lock is lost mid-commit, abort cancels the commit so the sink
// rolls back instead of racing the new holder.
func (s *Service) holdLock(ctx context.Context, abort context.CancelFunc, lk lock.Lock, logger *slog.Logger) (stop func()) {
	ttl := s.opts.LockTTL
	if ttl <= 0 {
		return func() {}
	}
	interval := ttl / 3
	if interval <= 0 {
		interval = ttl
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				err := lk.Extend(ctx, ttl)
				if err == nil {
					continue
				}
				if errors.Is(err, lock.ErrNotObtained) {
					logger.Error("import lock lost, aborting commit")
					abort()
					return
				}
				logger.Warn("failed to extend import lock", "error", err)
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
	}
}

func (s *Service) recordRun(ctx context.Context, run store.Run) {
	if s.runs == nil {
		return
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bookkeepingTimeout)
	defer cancel()
	if err := s.runs.RecordRun(rctx, run); err != nil {
		logging.FromContext(ctx).Error("failed to record import run", "run_id", run.ID, "error", err)
	}
}

// History lists past commits for a business and kind, newest first.
func (s *Service) History(ctx context.Context, businessID uuid.UUID, kindKey string, limit int) ([]store.Run, error) {
	if _, ok := Get(kindKey); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kindKey)
	}
	if s.runs == nil {
		return []store.Run{}, nil
	}
	return s.runs.ListRuns(ctx, businessID, kindKey, limit)
}

func lockKey(businessID uuid.UUID, kind string) string {
	return fmt.Sprintf("import:%s:%s", businessID, kind)
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
