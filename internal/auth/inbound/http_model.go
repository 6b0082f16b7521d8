package inbound

import (
	"github.com/danupratama/authgate/internal/auth/entity"
	"github.com/danupratama/authgate/internal/auth/usecase"
)

// ChallengeAttemptModel mirrors one entry of the provider's session history.
// The entries are opaque beyond the challenge name and boolean outcome; a
// null result means the provider recorded the round without an outcome.
type ChallengeAttemptModel struct {
	ChallengeName   string `json:"challenge_name"`
	ChallengeResult *bool  `json:"challenge_result"`
}

type DecideChallengeRequest struct {
	Session []ChallengeAttemptModel `json:"session"`
}

func (r DecideChallengeRequest) toEntity() []entity.ChallengeAttempt {
	history := make([]entity.ChallengeAttempt, 0, len(r.Session))
	for _, s := range r.Session {
		history = append(history, entity.ChallengeAttempt{
			ChallengeName: s.ChallengeName,
			Result:        s.ChallengeResult,
		})
	}
	return history
}

type DecideChallengeResponse struct {
	ChallengeName      string `json:"challenge_name,omitempty" example:"OTP_EMAIL"`
	IssueChallenge     bool   `json:"issue_challenge" example:"true"`
	IssueTokens        bool   `json:"issue_tokens" example:"false"`
	FailAuthentication bool   `json:"fail_authentication" example:"false"`
}

type IssueChallengeRequest struct {
	// UserID is the provider's subject identifier for the signing-in user.
	UserID string `json:"user_id" example:"8f14e45f-ceea-4e7a-9d4b-1d4f5e6a7b8c"`
	// UserAttributes carries provider-side attributes; only "email" is read.
	UserAttributes map[string]string `json:"user_attributes"`
}

type IssueChallengeResponse struct {
	PublicParameters  map[string]string `json:"public_challenge_parameters" swaggertype:"object"`
	PrivateParameters map[string]string `json:"private_challenge_parameters" swaggertype:"object"`
	ChallengeMetadata string            `json:"challenge_metadata" example:"OTP_EMAIL_SENT"`
}

type VerifyChallengeRequest struct {
	UserAttributes  map[string]string `json:"user_attributes"`
	ChallengeAnswer string            `json:"challenge_answer" example:"042019"`
}

type VerifyChallengeResponse struct {
	AnswerCorrect bool `json:"answer_correct" example:"true"`
}

func toDecideResponse(out *usecase.DecideChallengeOutput) DecideChallengeResponse {
	return DecideChallengeResponse{
		ChallengeName:      out.ChallengeName,
		IssueChallenge:     out.IssueChallenge,
		IssueTokens:        out.IssueTokens,
		FailAuthentication: out.FailAuthentication,
	}
}

func toIssueResponse(out *usecase.IssueChallengeOutput) IssueChallengeResponse {
	return IssueChallengeResponse{
		PublicParameters:  out.PublicParameters,
		PrivateParameters: out.PrivateParameters,
		ChallengeMetadata: out.Metadata,
	}
}
