package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(b bool) *bool { return &b }

func TestDecide(t *testing.T) {
	tests := []struct {
		name    string
		history []ChallengeAttempt
		want    Decision
	}{
		{
			name:    "empty history issues a challenge",
			history: nil,
			want:    DecisionIssue,
		},
		{
			name: "only foreign challenge types issue a challenge",
			history: []ChallengeAttempt{
				{ChallengeName: "SRP_A", Result: ptr(true)},
			},
			want: DecisionIssue,
		},
		{
			name: "most recent success accepts the session",
			history: []ChallengeAttempt{
				{ChallengeName: ChallengeName, Result: ptr(true)},
			},
			want: DecisionAccept,
		},
		{
			name: "most recent failure rejects the session",
			history: []ChallengeAttempt{
				{ChallengeName: ChallengeName, Result: ptr(false)},
			},
			want: DecisionReject,
		},
		{
			name: "missing outcome rejects",
			history: []ChallengeAttempt{
				{ChallengeName: ChallengeName, Result: nil},
			},
			want: DecisionReject,
		},
		{
			name: "latest entry wins over earlier failures",
			history: []ChallengeAttempt{
				{ChallengeName: ChallengeName, Result: ptr(false)},
				{ChallengeName: ChallengeName, Result: ptr(false)},
				{ChallengeName: ChallengeName, Result: ptr(true)},
			},
			want: DecisionAccept,
		},
		{
			name: "latest failure wins over earlier success",
			history: []ChallengeAttempt{
				{ChallengeName: ChallengeName, Result: ptr(true)},
				{ChallengeName: ChallengeName, Result: ptr(false)},
			},
			want: DecisionReject,
		},
		{
			name: "foreign entries after the last otp entry are ignored",
			history: []ChallengeAttempt{
				{ChallengeName: ChallengeName, Result: ptr(true)},
				{ChallengeName: "DEVICE_SRP", Result: ptr(false)},
			},
			want: DecisionAccept,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.history))
			// same input twice yields the same decision
			assert.Equal(t, tt.want, Decide(tt.history))
		})
	}
}
