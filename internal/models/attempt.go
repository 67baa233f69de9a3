package models

import "time"

// AttemptRecord tracks failed authentication attempts for one attempt key
// (identity + origin address). Created on first failure, cleared on success,
// and aged out by the backing store after its lifetime window.
type AttemptRecord struct {
	Key            string    `json:"key"`
	FailureCount   int       `json:"failure_count"`
	FirstFailureAt time.Time `json:"first_failure_at"`
	LockedUntil    time.Time `json:"locked_until,omitempty"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// Locked reports whether the record holds an active lockout at the given time.
func (r *AttemptRecord) Locked(now time.Time) bool {
	return r != nil && now.Before(r.LockedUntil)
}

// Expired reports whether the record has aged out at the given time.
func (r *AttemptRecord) Expired(now time.Time) bool {
	return r != nil && !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}
