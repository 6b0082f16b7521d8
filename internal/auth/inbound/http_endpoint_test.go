package inbound

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danupratama/authgate/internal/auth/entity"
	"github.com/danupratama/authgate/internal/auth/usecase"
	"github.com/danupratama/authgate/internal/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUC struct {
	decideOut *usecase.DecideChallengeOutput
	decideErr error
	decideIn  usecase.DecideChallengeInput

	issueOut *usecase.IssueChallengeOutput
	issueErr error
	issueIn  usecase.IssueChallengeInput

	verifyOut *usecase.VerifyChallengeOutput
	verifyErr error
	verifyIn  usecase.VerifyChallengeInput
}

func (f *fakeUC) DecideChallenge(_ context.Context, in usecase.DecideChallengeInput) (*usecase.DecideChallengeOutput, error) {
	f.decideIn = in
	return f.decideOut, f.decideErr
}

func (f *fakeUC) IssueChallenge(_ context.Context, in usecase.IssueChallengeInput) (*usecase.IssueChallengeOutput, error) {
	f.issueIn = in
	return f.issueOut, f.issueErr
}

func (f *fakeUC) VerifyChallenge(_ context.Context, in usecase.VerifyChallengeInput) (*usecase.VerifyChallengeOutput, error) {
	f.verifyIn = in
	return f.verifyOut, f.verifyErr
}

func newRequest(body string) *router.Request {
	req := httptest.NewRequest("POST", "/api/v1/auth/challenge/decide", strings.NewReader(body))
	return &router.Request{Request: req}
}

func TestDecideChallenge(t *testing.T) {
	uc := &fakeUC{decideOut: &usecase.DecideChallengeOutput{ChallengeName: entity.ChallengeName, IssueChallenge: true}}
	h := &HTTPEndpoint{uc: uc}

	resp, err := h.DecideChallenge(newRequest(`{"session":[{"challenge_name":"OTP_EMAIL","challenge_result":false}]}`))
	require.NoError(t, err)
	assert.Equal(t, DecideChallengeResponse{ChallengeName: entity.ChallengeName, IssueChallenge: true}, resp)

	require.Len(t, uc.decideIn.Session, 1)
	assert.Equal(t, entity.ChallengeName, uc.decideIn.Session[0].ChallengeName)
	require.NotNil(t, uc.decideIn.Session[0].Result)
	assert.False(t, *uc.decideIn.Session[0].Result)
}

func TestDecideChallenge_DegradesToReject(t *testing.T) {
	h := &HTTPEndpoint{uc: &fakeUC{decideErr: errors.New("boom")}}

	resp, err := h.DecideChallenge(newRequest(`{"session":[]}`))
	require.NoError(t, err, "trigger boundary never surfaces transport-level failures")
	assert.Equal(t, DecideChallengeResponse{FailAuthentication: true}, resp)

	resp, err = h.DecideChallenge(newRequest(`{not json`))
	require.NoError(t, err)
	assert.Equal(t, DecideChallengeResponse{FailAuthentication: true}, resp)
}

func TestIssueChallenge(t *testing.T) {
	uc := &fakeUC{issueOut: &usecase.IssueChallengeOutput{
		PublicParameters:  map[string]string{"email": "a@x.com", "challenge_type": entity.ChallengeName},
		PrivateParameters: map[string]string{"challenge_token": "tok"},
		Metadata:          usecase.MetadataChallengeIssued,
	}}
	h := &HTTPEndpoint{uc: uc}

	resp, err := h.IssueChallenge(newRequest(`{"user_id":"sub-1","user_attributes":{"email":"a@x.com"}}`))
	require.NoError(t, err)

	out, ok := resp.(IssueChallengeResponse)
	require.True(t, ok)
	assert.Equal(t, usecase.MetadataChallengeIssued, out.ChallengeMetadata)
	assert.Equal(t, "a@x.com", out.PublicParameters["email"])

	assert.Equal(t, "a@x.com", uc.issueIn.Email)
	assert.Equal(t, "sub-1", uc.issueIn.UserID)
}

func TestIssueChallenge_DegradesToErrorMetadata(t *testing.T) {
	h := &HTTPEndpoint{uc: &fakeUC{issueErr: errors.New("boom")}}

	resp, err := h.IssueChallenge(newRequest(`{"user_id":"sub-1","user_attributes":{"email":"a@x.com"}}`))
	require.NoError(t, err)

	out, ok := resp.(IssueChallengeResponse)
	require.True(t, ok)
	assert.Equal(t, usecase.MetadataError, out.ChallengeMetadata)
	assert.Empty(t, out.PublicParameters)
	assert.Empty(t, out.PrivateParameters)
	assert.NotNil(t, out.PublicParameters, "parameters must be present, just empty")
}

func TestVerifyChallenge(t *testing.T) {
	uc := &fakeUC{verifyOut: &usecase.VerifyChallengeOutput{Correct: true}}
	h := &HTTPEndpoint{uc: uc}

	resp, err := h.VerifyChallenge(newRequest(`{"user_attributes":{"email":"a@x.com"},"challenge_answer":"042019"}`))
	require.NoError(t, err)
	assert.Equal(t, VerifyChallengeResponse{AnswerCorrect: true}, resp)

	assert.Equal(t, "a@x.com", uc.verifyIn.Email)
	assert.Equal(t, "042019", uc.verifyIn.Answer)
}

func TestVerifyChallenge_DegradesToFalse(t *testing.T) {
	h := &HTTPEndpoint{uc: &fakeUC{verifyErr: errors.New("store down")}}

	resp, err := h.VerifyChallenge(newRequest(`{"user_attributes":{"email":"a@x.com"},"challenge_answer":"042019"}`))
	require.NoError(t, err)
	assert.Equal(t, VerifyChallengeResponse{AnswerCorrect: false}, resp)

	resp, err = h.VerifyChallenge(newRequest(`{broken`))
	require.NoError(t, err)
	assert.Equal(t, VerifyChallengeResponse{AnswerCorrect: false}, resp)
}
