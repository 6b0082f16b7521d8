package usecase

import (
	"context"
	"log/slog"

	"github.com/danupratama/authgate/internal/auth/entity"
)

type DecideChallengeInput struct {
	Session []entity.ChallengeAttempt
}

type DecideChallengeOutput struct {
	ChallengeName      string
	IssueChallenge     bool
	IssueTokens        bool
	FailAuthentication bool
}

// DecideChallenge picks the next step for a login attempt from its session
// history. The decision itself is pure; this wrapper only adds tracing and a
// log line, so identical histories always yield identical outputs.
func (s *Usecase) DecideChallenge(ctx context.Context, in DecideChallengeInput) (*DecideChallengeOutput, error) {
	ctx, span := s.startSpan(ctx, "DecideChallenge")
	defer span.End()

	decision := entity.Decide(in.Session)
	slog.InfoContext(ctx, "challenge decision made", "decision", decision.String(), "rounds", len(in.Session))

	out := &DecideChallengeOutput{}
	switch decision {
	case entity.DecisionIssue:
		out.ChallengeName = entity.ChallengeName
		out.IssueChallenge = true
	case entity.DecisionAccept:
		out.IssueTokens = true
	default:
		out.FailAuthentication = true
	}

	return out, nil
}
