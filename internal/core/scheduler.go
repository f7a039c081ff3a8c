package core

// scheduler.go runs the background sweep that forgets abandoned import
// sessions. Sessions live only in memory, so without it every upload a
// user walks away from would be held until restart.

import (
	"context"
	"log/slog"
	"time"

	"github.com/JonMunkholm/detailflow/internal/csvimport"
)

// SweepConfig holds the session sweeper settings.
type SweepConfig struct {
	TTL      time.Duration // idle time before a session is dropped (default: 30m)
	Interval time.Duration // how often to sweep (default: 1m)
}

const (
	defaultSessionTTL    = 30 * time.Minute
	defaultSweepInterval = time.Minute
)

// StartSessionSweeper drops sessions idle for longer than cfg.TTL. It
// blocks until ctx is cancelled, so callers run it in a goroutine.
func (s *Service) StartSessionSweeper(ctx context.Context, cfg SweepConfig) {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultSessionTTL
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultSweepInterval
	}

	slog.Info("session sweeper started", "ttl", cfg.TTL, "interval", cfg.Interval)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			if n := s.sweepExpired(s.now().Add(-cfg.TTL)); n > 0 {
				slog.Info("expired import sessions", "count", n)
			}
		}
	}
}

// sweepExpired removes sessions last touched before cutoff and returns how
// many were removed. Sessions mid-commit are never removed.
func (s *Service) sweepExpired(cutoff time.Time) int {
	s.mu.Lock()
	var expired []*importSession
	for id, is := range s.sessions {
		if is.sess.State() == csvimport.StateImporting {
			continue
		}
		if is.idleSince().Before(cutoff) {
			expired = append(expired, is)
			delete(s.sessions, id)
		}
	}
	count := len(s.sessions)
	s.mu.Unlock()

	for _, is := range expired {
		is.sess.Reset()
		slog.Debug("import session expired", "session_id", is.id, "kind", is.kind.Info.Key)
	}
	if len(expired) > 0 {
		s.metrics.SetActiveSessions(count)
	}
	return len(expired)
}
