package entity

import "time"

// ChallengeName is the marker distinguishing the OTP email challenge from any
// other challenge type the identity provider may run in the same session.
const ChallengeName = "OTP_EMAIL"

// ChallengeRecord is the single outstanding OTP challenge for an identity.
// Writing a new record supersedes any prior one for the same email.
type ChallengeRecord struct {
	Email          string `json:"email"`
	SecretDigest   string `json:"secret_digest"`
	ChallengeToken string `json:"challenge_token"`
	UserID         string `json:"user_id"`
	CreatedAt      int64  `json:"created_at"`
	ExpiresAt      int64  `json:"expires_at"`
	PurgeAfter     int64  `json:"purge_after"`
	FailedAttempts int32  `json:"failed_attempts"`
}

// Expired reports whether the challenge can no longer be answered. A record
// is valid through ExpiresAt inclusive.
func (c ChallengeRecord) Expired(now time.Time) bool {
	return now.Unix() > c.ExpiresAt
}

// User is the directory record keyed by email. ID is the identity provider's
// own subject identifier, assigned at first contact.
type User struct {
	ID        string
	Email     string
	Status    UserStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RateLimitState is the outcome of a limiter check for one identity.
type RateLimitState struct {
	Allowed    bool
	ResetAfter time.Duration
}

// ResetMinutes returns the user-facing wait estimate, clamped to a minimum
// of one minute.
func (r RateLimitState) ResetMinutes() int {
	m := int(r.ResetAfter.Minutes())
	if m < 1 {
		m = 1
	}
	return m
}
