package inbound

import (
	"context"

	"github.com/danupratama/authgate/internal/auth/usecase"
	"github.com/danupratama/authgate/internal/pkg/router"
)

type uc interface {
	DecideChallenge(ctx context.Context, in usecase.DecideChallengeInput) (*usecase.DecideChallengeOutput, error)
	IssueChallenge(ctx context.Context, in usecase.IssueChallengeInput) (*usecase.IssueChallengeOutput, error)
	VerifyChallenge(ctx context.Context, in usecase.VerifyChallengeInput) (*usecase.VerifyChallengeOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Identity provider trigger boundary
	r.POST("/api/v1/auth/challenge/decide", end.DecideChallenge)
	r.POST("/api/v1/auth/challenge/issue", end.IssueChallenge)
	r.POST("/api/v1/auth/challenge/verify", end.VerifyChallenge)
}
