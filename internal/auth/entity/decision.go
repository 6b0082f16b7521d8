package entity

import "github.com/samber/lo"

// ChallengeAttempt is one opaque entry of the session history supplied by the
// identity provider. Result is nil when the provider recorded the attempt
// without an outcome.
type ChallengeAttempt struct {
	ChallengeName string
	Result        *bool
}

type Decision int16

const (
	// DecisionIssue means start a new OTP challenge round.
	DecisionIssue Decision = iota + 1

	// DecisionAccept means the session is authenticated, issue tokens.
	DecisionAccept

	// DecisionReject means fail the authentication attempt.
	DecisionReject
)

func (d Decision) String() string {
	switch d {
	case DecisionIssue:
		return "ISSUE"
	case DecisionAccept:
		return "ACCEPT"
	case DecisionReject:
		return "REJECT"
	default:
		return "UNKNOWN"
	}
}

// Decide chooses the next action for a login attempt from its session
// history. It is pure and idempotent: identical history yields an identical
// decision.
//
// No OTP challenge ever issued means a fresh attempt, so issue one. When one
// was issued, only the most recent OTP entry matters: a recorded success
// accepts the session, a recorded failure rejects it, and a missing outcome
// rejects, since the provider always records an outcome.
func Decide(history []ChallengeAttempt) Decision {
	isOTP := func(a ChallengeAttempt) bool { return a.ChallengeName == ChallengeName }

	if !lo.ContainsBy(history, isOTP) {
		return DecisionIssue
	}

	last, _, ok := lo.FindLastIndexOf(history, isOTP)
	if !ok || last.Result == nil {
		return DecisionReject
	}

	if *last.Result {
		return DecisionAccept
	}

	return DecisionReject
}
