package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLockoutDuration(t *testing.T) {
	tests := []struct {
		name     string
		attempts int
		want     time.Duration
		locked   bool
	}{
		{"no failures", 0, 0, false},
		{"below first tier", 4, 0, false},
		{"first tier boundary", 5, 15 * time.Minute, true},
		{"between tiers", 7, 15 * time.Minute, true},
		{"second tier boundary", 8, time.Hour, true},
		{"between second and third", 11, time.Hour, true},
		{"third tier boundary", 12, 24 * time.Hour, true},
		{"beyond third tier", 50, 24 * time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dur, locked := LockoutDuration(tt.attempts)
			assert.Equal(t, tt.locked, locked)
			assert.Equal(t, tt.want, dur)
		})
	}
}

func TestLockoutTier(t *testing.T) {
	assert.Equal(t, "none", LockoutTier(4))
	assert.Equal(t, "15m", LockoutTier(5))
	assert.Equal(t, "1h", LockoutTier(8))
	assert.Equal(t, "24h", LockoutTier(12))
}
