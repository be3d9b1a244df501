// Package main provides the admission advisor bot server entry point.
package main

import (
	"context"
	"time"

	"github.com/abitbot/itmo-tgbot-go/internal/logger"
	"github.com/abitbot/itmo-tgbot-go/internal/metrics"
	"github.com/abitbot/itmo-tgbot-go/internal/storage"
)

const (
	sessionCleanupInitialDelay = time.Minute
	sessionCleanupInterval     = time.Hour
	sessionMetricsInterval     = 5 * time.Minute
)

// cleanupExpiredSessions periodically removes stale conversation sessions.
// Abandoned dialogues would otherwise accumulate forever.
func cleanupExpiredSessions(ctx context.Context, db *storage.DB, ttl time.Duration, m *metrics.Metrics, log *logger.Logger) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(sessionCleanupInitialDelay):
		performSessionCleanup(ctx, db, ttl, m, log)
	}

	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			performSessionCleanup(ctx, db, ttl, m, log)
		}
	}
}

func performSessionCleanup(ctx context.Context, db *storage.DB, ttl time.Duration, m *metrics.Metrics, log *logger.Logger) {
	removed, err := db.DeleteExpiredSessions(ctx, ttl)
	if err != nil {
		log.WithError(err).Error("Failed to cleanup expired sessions")
		return
	}

	m.SessionCleanupsRemoved.Add(float64(removed))

	remaining, _ := db.CountSessions(ctx)
	log.WithFields(map[string]any{
		"removed":   removed,
		"remaining": remaining,
	}).Debug("Session cleanup complete")
}

// updateSessionMetrics keeps the active session gauge current.
func updateSessionMetrics(ctx context.Context, db *storage.DB, m *metrics.Metrics, log *logger.Logger) {
	ticker := time.NewTicker(sessionMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := db.CountSessions(ctx)
			if err != nil {
				log.WithError(err).Error("Failed to count sessions")
				continue
			}
			m.ActiveSessions.Set(float64(count))
		}
	}
}
