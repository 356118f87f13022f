package db

import (
	"context"
	"log/slog"
	"time"
)

const (
	DefaultCleanupInterval = 1 * time.Hour
)

// ExpiredTokenPruner drops refresh tokens that can no longer be used.
type ExpiredTokenPruner interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

type CleanupService struct {
	sessions ExpiredTokenPruner
	interval time.Duration
}

func NewCleanupService(sessions ExpiredTokenPruner, interval time.Duration) *CleanupService {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	return &CleanupService{
		sessions: sessions,
		interval: interval,
	}
}

func (s *CleanupService) Start(ctx context.Context) {
	slog.Info("starting session cleanup service", "component", "cleanup", "interval", s.interval)

	s.runCleanup(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping session cleanup service", "component", "cleanup")
			return
		case <-ticker.C:
			s.runCleanup(ctx)
		}
	}
}

func (s *CleanupService) runCleanup(ctx context.Context) {
	deleted, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		slog.Error("error deleting expired refresh tokens", "component", "cleanup", "error", err)
	} else if deleted > 0 {
		slog.Info("deleted expired refresh tokens", "component", "cleanup", "count", deleted)
	}
}
