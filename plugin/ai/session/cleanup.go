package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultRetentionDays is the default number of idle days before a session is removed.
	DefaultRetentionDays = 30
	// DefaultCleanupInterval is the default interval between cleanup runs.
	DefaultCleanupInterval = 24 * time.Hour
)

// CleanupConfig holds configuration for the cleanup job.
type CleanupConfig struct {
	RetentionDays   int
	CleanupInterval time.Duration
}

// DefaultCleanupConfig returns the default cleanup configuration.
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		RetentionDays:   DefaultRetentionDays,
		CleanupInterval: DefaultCleanupInterval,
	}
}

// SessionCleanupJob periodically removes idle conversations.
type SessionCleanupJob struct {
	sessionSvc SessionService
	config     CleanupConfig

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewSessionCleanupJob creates a new cleanup job.
func NewSessionCleanupJob(svc SessionService, config CleanupConfig) *SessionCleanupJob {
	if config.RetentionDays <= 0 {
		config.RetentionDays = DefaultRetentionDays
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultCleanupInterval
	}
	return &SessionCleanupJob{
		sessionSvc: svc,
		config:     config,
	}
}

// Start runs the job in the background until ctx ends or Stop is called.
// Starting a running job is a no-op.
func (j *SessionCleanupJob) Start(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.stop != nil {
		return
	}
	j.stop = make(chan struct{})
	j.done = make(chan struct{})
	go j.run(ctx, j.stop, j.done)

	slog.Info("session cleanup job started",
		"retention_days", j.config.RetentionDays,
		"interval", j.config.CleanupInterval)
}

// Stop halts the job and waits for an in-flight run to finish.
func (j *SessionCleanupJob) Stop() {
	j.mu.Lock()
	stop, done := j.stop, j.done
	j.stop, j.done = nil, nil
	j.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
	slog.Info("session cleanup job stopped")
}

// IsRunning reports whether the job has been started and not stopped.
func (j *SessionCleanupJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.stop != nil
}

// RunOnce executes a single cleanup pass immediately.
func (j *SessionCleanupJob) RunOnce(ctx context.Context) (int64, error) {
	return j.sessionSvc.CleanupExpired(ctx, j.config.RetentionDays)
}

func (j *SessionCleanupJob) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(j.config.CleanupInterval)
	defer ticker.Stop()

	for {
		if deleted, err := j.RunOnce(ctx); err != nil {
			slog.Error("session cleanup failed", "error", err)
		} else if deleted > 0 {
			slog.Info("session cleanup completed", "deleted", deleted)
		}

		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}
