// Package ledger tracks failed authentication attempts per attempt key and
// decides lockouts with graduated backoff. The backing store is pluggable:
// an in-process map for single-instance deployments, Redis when throttling
// must be consistent across instances.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmnkosi/bankgate/internal/models"
)

// Key derives the composite attempt key from the request's identity and
// origin address. Pure function; callers never mutate the request to build
// it. An empty identity (e.g., malformed body) still throttles per origin.
func Key(identity, origin string) string {
	if identity == "" {
		identity = "unknown"
	}
	if origin == "" {
		origin = "unknown"
	}
	return "user:" + identity + "|ip:" + origin
}

// Store is the persistence contract for attempt records. Update must apply
// fn atomically per key so concurrent failures never under-count.
type Store interface {
	// Get returns the record for key, or nil if absent or aged out.
	Get(ctx context.Context, key string) (*models.AttemptRecord, error)
	// Update atomically applies fn to the current record (nil when absent)
	// and persists the result. A nil result from fn removes the record.
	Update(ctx context.Context, key string, fn func(*models.AttemptRecord) *models.AttemptRecord) (*models.AttemptRecord, error)
	// Delete removes the record for key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Sweeper is implemented by stores that need periodic expiry sweeps.
// Redis ages records out via TTL and does not implement it.
type Sweeper interface {
	DeleteExpired(ctx context.Context) (int, error)
}

// Config holds one ledger's throttle tier and failure policy.
type Config struct {
	FreeRetries int           // failures tolerated before lockouts start
	MinWait     time.Duration // first lockout duration
	MaxWait     time.Duration // lockout cap
	Lifetime    time.Duration // record age-out window
	FailOpen    bool          // treat store errors on check as "not locked"
	OpTimeout   time.Duration // per-store-call timeout
}

// Ledger counts failed attempts and computes lockout state for attempt keys.
// Safe for concurrent use.
type Ledger struct {
	store  Store
	config Config
	logger *slog.Logger
}

// New creates a Ledger over the given store.
func New(store Store, config Config, logger *slog.Logger) *Ledger {
	return &Ledger{
		store:  store,
		config: config,
		logger: logger,
	}
}

// RecordFailure increments the failure count for key and extends the lockout
// once the count exceeds the free-retry threshold. Returns the updated record.
func (l *Ledger) RecordFailure(ctx context.Context, key string) (*models.AttemptRecord, error) {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	now := time.Now()
	record, err := l.store.Update(ctx, key, func(current *models.AttemptRecord) *models.AttemptRecord {
		if current == nil || current.Expired(now) {
			current = &models.AttemptRecord{
				Key:            key,
				FirstFailureAt: now,
			}
		}
		current.FailureCount++
		current.ExpiresAt = now.Add(l.config.Lifetime)
		if wait := l.waitFor(current.FailureCount); wait > 0 {
			current.LockedUntil = now.Add(wait)
		}
		return current
	})
	if err != nil {
		l.logger.Error("failed to record attempt failure",
			slog.String("attempt_key", key),
			slog.Any("error", err))
		return nil, fmt.Errorf("%w: recording failure: %v", models.ErrStoreUnavailable, err)
	}

	return record, nil
}

// RecordSuccess clears the attempt record for key after a successful
// authentication.
func (l *Ledger) RecordSuccess(ctx context.Context, key string) error {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	if err := l.store.Delete(ctx, key); err != nil {
		l.logger.Error("failed to clear attempt record",
			slog.String("attempt_key", key),
			slog.Any("error", err))
		return fmt.Errorf("%w: clearing record: %v", models.ErrStoreUnavailable, err)
	}
	return nil
}

// IsLocked reports whether key is currently locked out, and for how much
// longer. A store failure rejects the check with ErrStoreUnavailable unless
// the ledger is configured fail-open.
func (l *Ledger) IsLocked(ctx context.Context, key string) (bool, time.Duration, error) {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	record, err := l.store.Get(ctx, key)
	if err != nil {
		if l.config.FailOpen {
			l.logger.Warn("ledger store check failed, failing open",
				slog.String("attempt_key", key),
				slog.Any("error", err))
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("%w: checking lockout: %v", models.ErrStoreUnavailable, err)
	}

	now := time.Now()
	if record == nil || record.Expired(now) || !record.Locked(now) {
		return false, 0, nil
	}

	return true, record.LockedUntil.Sub(now), nil
}

// Check reports whether key may attempt now. Returns a *models.RateLimitedError
// carrying the remaining wait while the key is locked out, ErrStoreUnavailable
// when the store cannot answer (unless fail-open), nil otherwise.
func (l *Ledger) Check(ctx context.Context, key string) error {
	locked, retryAfter, err := l.IsLocked(ctx, key)
	if err != nil {
		return err
	}
	if locked {
		return &models.RateLimitedError{RetryAfter: retryAfter}
	}
	return nil
}

// Count returns the current failure count for key, zero when no record exists.
func (l *Ledger) Count(ctx context.Context, key string) (int, error) {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	record, err := l.store.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("%w: reading record: %v", models.ErrStoreUnavailable, err)
	}
	if record == nil || record.Expired(time.Now()) {
		return 0, nil
	}
	return record.FailureCount, nil
}

// waitFor computes the lockout for a failure count: zero within the free
// retries, then MinWait doubling per extra failure up to MaxWait.
func (l *Ledger) waitFor(failures int) time.Duration {
	over := failures - l.config.FreeRetries
	if over <= 0 {
		return 0
	}

	wait := l.config.MinWait
	for i := 1; i < over; i++ {
		wait *= 2
		if wait >= l.config.MaxWait || wait <= 0 {
			return l.config.MaxWait
		}
	}
	if wait > l.config.MaxWait {
		return l.config.MaxWait
	}
	return wait
}

func (l *Ledger) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.config.OpTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, l.config.OpTimeout)
}
