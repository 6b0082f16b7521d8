package inbound

import (
	"log/slog"

	"github.com/danupratama/authgate/internal/auth/usecase"
	"github.com/danupratama/authgate/internal/pkg/router"
)

// HTTPEndpoint exposes the challenge trigger handlers called by the identity
// provider during a login attempt.
//
// The provider cannot handle transport-level failures mid-login, so every
// handler degrades internal errors to a syntactically valid safe response:
// decide fails the authentication, issue reports empty parameters with an
// error marker, verify reports a wrong answer.
type HTTPEndpoint struct {
	uc uc
}

// DecideChallenge chooses the next step of the login flow.
// @Summary Decide next challenge action
// @Description Reads the session history and decides whether to issue a new OTP challenge, accept the session, or reject it.
// @Tags Auth, Challenge
// @Accept json
// @Produce json
// @Param request body DecideChallengeRequest true "Session history"
// @Success 200 {object} router.successResponse{data=DecideChallengeResponse} "Decision"
// @Router /api/v1/auth/challenge/decide [post]
func (h *HTTPEndpoint) DecideChallenge(r *router.Request) (any, error) {
	var req DecideChallengeRequest
	if err := r.DecodeBody(&req); err != nil {
		slog.ErrorContext(r.Context(), "failed to decode decide challenge request", "error", err)
		return DecideChallengeResponse{FailAuthentication: true}, nil
	}

	out, err := h.uc.DecideChallenge(r.Context(), usecase.DecideChallengeInput{Session: req.toEntity()})
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to decide challenge", "error", err)
		return DecideChallengeResponse{FailAuthentication: true}, nil
	}

	return toDecideResponse(out), nil
}

// IssueChallenge mints and delivers a one-time passcode.
// @Summary Issue an OTP challenge
// @Description Rate-limits, provisions the user if needed, stores the secret digest, and emails the code.
// @Tags Auth, Challenge
// @Accept json
// @Produce json
// @Param request body IssueChallengeRequest true "Issue payload"
// @Success 200 {object} router.successResponse{data=IssueChallengeResponse} "Challenge parameters"
// @Router /api/v1/auth/challenge/issue [post]
func (h *HTTPEndpoint) IssueChallenge(r *router.Request) (any, error) {
	failed := IssueChallengeResponse{
		PublicParameters:  map[string]string{},
		PrivateParameters: map[string]string{},
		ChallengeMetadata: usecase.MetadataError,
	}

	var req IssueChallengeRequest
	if err := r.DecodeBody(&req); err != nil {
		slog.ErrorContext(r.Context(), "failed to decode issue challenge request", "error", err)
		return failed, nil
	}

	out, err := h.uc.IssueChallenge(r.Context(), usecase.IssueChallengeInput{
		Email:  req.UserAttributes["email"],
		UserID: req.UserID,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to issue challenge", "error", err)
		return failed, nil
	}

	return toIssueResponse(out), nil
}

// VerifyChallenge checks a submitted passcode.
// @Summary Verify an OTP answer
// @Description Compares the submitted code against the stored digest; all failures collapse to answer_correct=false.
// @Tags Auth, Challenge
// @Accept json
// @Produce json
// @Param request body VerifyChallengeRequest true "Verify payload"
// @Success 200 {object} router.successResponse{data=VerifyChallengeResponse} "Verification result"
// @Router /api/v1/auth/challenge/verify [post]
func (h *HTTPEndpoint) VerifyChallenge(r *router.Request) (any, error) {
	var req VerifyChallengeRequest
	if err := r.DecodeBody(&req); err != nil {
		slog.ErrorContext(r.Context(), "failed to decode verify challenge request", "error", err)
		return VerifyChallengeResponse{AnswerCorrect: false}, nil
	}

	out, err := h.uc.VerifyChallenge(r.Context(), usecase.VerifyChallengeInput{
		Email:  req.UserAttributes["email"],
		Answer: req.ChallengeAnswer,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to verify challenge", "error", err)
		return VerifyChallengeResponse{AnswerCorrect: false}, nil
	}

	return VerifyChallengeResponse{AnswerCorrect: out.Correct}, nil
}
