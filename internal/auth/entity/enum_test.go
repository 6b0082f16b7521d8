package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserStatus_String(t *testing.T) {
	assert.Equal(t, "UNVERIFIED", UserStatusUnverified.String())
	assert.Equal(t, "NEEDS_PROFILE", UserStatusNeedsProfile.String())
	assert.Equal(t, "NEEDS_PAYMENT_SETUP", UserStatusNeedsPaymentSetup.String())
	assert.Equal(t, "PENDING_REVIEW", UserStatusPendingReview.String())
	assert.Equal(t, "ACTIVE", UserStatusActive.String())
	assert.Equal(t, "REJECTED", UserStatusRejected.String())
	assert.Equal(t, "UNKNOWN", UserStatus(42).String())
}

func TestUserStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, UserStatusUnverified.CanTransitionTo(UserStatusNeedsProfile))
	assert.True(t, UserStatusNeedsProfile.CanTransitionTo(UserStatusNeedsPaymentSetup))
	assert.True(t, UserStatusNeedsPaymentSetup.CanTransitionTo(UserStatusPendingReview))
	assert.True(t, UserStatusPendingReview.CanTransitionTo(UserStatusActive))

	// rejection is reachable from any non-terminal status
	assert.True(t, UserStatusUnverified.CanTransitionTo(UserStatusRejected))
	assert.True(t, UserStatusPendingReview.CanTransitionTo(UserStatusRejected))

	// no going backwards
	assert.False(t, UserStatusNeedsProfile.CanTransitionTo(UserStatusUnverified))
	assert.False(t, UserStatusActive.CanTransitionTo(UserStatusPendingReview))

	// no self transition
	assert.False(t, UserStatusActive.CanTransitionTo(UserStatusActive))

	// rejected is terminal
	assert.False(t, UserStatusRejected.CanTransitionTo(UserStatusActive))
	assert.False(t, UserStatusRejected.CanTransitionTo(UserStatusRejected))

	// unknown on either side is illegal
	assert.False(t, UserStatusUnknown.CanTransitionTo(UserStatusActive))
	assert.False(t, UserStatusUnverified.CanTransitionTo(UserStatus(99)))
}

func TestChallengeRecord_Expired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	rec := ChallengeRecord{ExpiresAt: now.Unix()}

	assert.False(t, rec.Expired(now), "valid through the expiry instant")
	assert.False(t, rec.Expired(now.Add(-time.Minute)))
	assert.True(t, rec.Expired(now.Add(time.Second)))
}

func TestRateLimitState_ResetMinutes(t *testing.T) {
	assert.Equal(t, 1, RateLimitState{ResetAfter: 5 * time.Second}.ResetMinutes())
	assert.Equal(t, 1, RateLimitState{ResetAfter: 0}.ResetMinutes())
	assert.Equal(t, 14, RateLimitState{ResetAfter: 14*time.Minute + 30*time.Second}.ResetMinutes())
}
