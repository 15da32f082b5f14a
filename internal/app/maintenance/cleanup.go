// Package maintenance holds periodic housekeeping jobs.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ExpiredCodes deletes one-time codes that expired before a given time,
// keeping verified codes still inside verifiedWindow.
type ExpiredCodes interface {
	DeleteExpired(ctx context.Context, before time.Time, verifiedWindow time.Duration) (int64, error)
}

// ExpiredRevocations deletes revocation entries whose tokens have expired.
type ExpiredRevocations interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// CleanupJob removes expired one-time codes and revocation rows.
type CleanupJob struct {
	codes       ExpiredCodes
	revocations ExpiredRevocations
	window      time.Duration
	now         func() time.Time
}

// NewCleanupJob creates a CleanupJob. revocations may be nil when they
// expire on their own (Redis). verifiedWindow must match the window
// registration accepts verified codes for.
func NewCleanupJob(codes ExpiredCodes, revocations ExpiredRevocations, verifiedWindow time.Duration) *CleanupJob {
	return &CleanupJob{codes: codes, revocations: revocations, window: verifiedWindow, now: time.Now}
}

func (j *CleanupJob) Name() string { return "cleanup" }

func (j *CleanupJob) Run(ctx context.Context) error {
	codes, err := j.codes.DeleteExpired(ctx, j.now(), j.window)
	if err != nil {
		return fmt.Errorf("delete expired codes: %w", err)
	}

	var revoked int64
	if j.revocations != nil {
		revoked, err = j.revocations.DeleteExpired(ctx)
		if err != nil {
			return fmt.Errorf("delete expired revocations: %w", err)
		}
	}

	slog.Info("cleanup ok", "expired_codes", codes, "expired_revocations", revoked)
	return nil
}
