package auth

import "time"

// Progressive lockout thresholds. Consecutive failed logins escalate
// through the tiers; a successful login resets the counter.
const (
	lockoutTier1Attempts = 5
	lockoutTier2Attempts = 8
	lockoutTier3Attempts = 12

	lockoutTier1Duration = 15 * time.Minute
	lockoutTier2Duration = time.Hour
	lockoutTier3Duration = 24 * time.Hour
)

// LockoutDuration returns how long an account should be locked after
// failedAttempts consecutive failures. The second return is false when
// the attempt count has not reached the first tier.
func LockoutDuration(failedAttempts int) (time.Duration, bool) {
	switch {
	case failedAttempts >= lockoutTier3Attempts:
		return lockoutTier3Duration, true
	case failedAttempts >= lockoutTier2Attempts:
		return lockoutTier2Duration, true
	case failedAttempts >= lockoutTier1Attempts:
		return lockoutTier1Duration, true
	default:
		return 0, false
	}
}

// LockoutTier names the tier for a failed-attempt count, for metrics
func LockoutTier(failedAttempts int) string {
	switch {
	case failedAttempts >= lockoutTier3Attempts:
		return "24h"
	case failedAttempts >= lockoutTier2Attempts:
		return "1h"
	case failedAttempts >= lockoutTier1Attempts:
		return "15m"
	default:
		return "none"
	}
}
