package tests

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

// The challenge endpoints sit behind the bearer-token middleware. The live
// suite needs a token trusted by the running server, typically minted from
// the same secret the server was started with.
func serviceToken(t *testing.T) string {
	t.Helper()

	token := strings.TrimSpace(os.Getenv("AUTHGATE_REAL_TOKEN"))
	if token == "" {
		t.Skip("AUTHGATE_REAL_TOKEN not set, skipping live challenge tests")
	}

	return token
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}

type decideData struct {
	ChallengeName      string `json:"challenge_name"`
	IssueChallenge     bool   `json:"issue_challenge"`
	IssueTokens        bool   `json:"issue_tokens"`
	FailAuthentication bool   `json:"fail_authentication"`
}

type issueData struct {
	PublicParameters  map[string]string `json:"public_challenge_parameters"`
	PrivateParameters map[string]string `json:"private_challenge_parameters"`
	ChallengeMetadata string            `json:"challenge_metadata"`
}

type verifyData struct {
	AnswerCorrect bool `json:"answer_correct"`
}

func TestChallengeDecideFirstAttempt(t *testing.T) {
	token := serviceToken(t)

	payload := map[string]any{"session": []map[string]any{}}

	status, body := doJSON(t, http.MethodPost, "/api/v1/auth/challenge/decide", payload, token)
	if status != http.StatusOK {
		errEnv := decodeError(t, body)
		t.Fatalf("decide failed: status=%d message=%q", status, errEnv.Message)
	}

	var data decideData
	decodeSuccess(t, body, &data)

	if !data.IssueChallenge {
		t.Error("expected a fresh session to issue a challenge")
	}
	if data.IssueTokens || data.FailAuthentication {
		t.Errorf("unexpected decision: %+v", data)
	}
	if data.ChallengeName != "OTP_EMAIL" {
		t.Errorf("unexpected challenge name %q", data.ChallengeName)
	}
}

func TestChallengeDecideAfterSuccess(t *testing.T) {
	token := serviceToken(t)

	ok := true
	payload := map[string]any{"session": []map[string]any{
		{"challenge_name": "OTP_EMAIL", "challenge_result": ok},
	}}

	status, body := doJSON(t, http.MethodPost, "/api/v1/auth/challenge/decide", payload, token)
	if status != http.StatusOK {
		errEnv := decodeError(t, body)
		t.Fatalf("decide failed: status=%d message=%q", status, errEnv.Message)
	}

	var data decideData
	decodeSuccess(t, body, &data)

	if !data.IssueTokens {
		t.Error("expected a passed challenge to issue tokens")
	}
	if data.IssueChallenge || data.FailAuthentication {
		t.Errorf("unexpected decision: %+v", data)
	}
}

func TestChallengeIssueAndVerifyWrongCode(t *testing.T) {
	token := serviceToken(t)
	email := uniqueEmail("real-auth")

	issuePayload := map[string]any{
		"user_id":         fmt.Sprintf("real-%d", time.Now().UnixNano()),
		"user_attributes": map[string]string{"email": email},
	}

	status, body := doJSON(t, http.MethodPost, "/api/v1/auth/challenge/issue", issuePayload, token)
	if status != http.StatusOK {
		errEnv := decodeError(t, body)
		t.Fatalf("issue failed: status=%d message=%q", status, errEnv.Message)
	}

	var issued issueData
	decodeSuccess(t, body, &issued)

	if issued.ChallengeMetadata != "OTP_EMAIL_SENT" {
		t.Fatalf("unexpected challenge metadata %q", issued.ChallengeMetadata)
	}
	if issued.PublicParameters["email"] != email {
		t.Errorf("unexpected public email %q", issued.PublicParameters["email"])
	}
	if issued.PrivateParameters["challenge_token"] == "" {
		t.Error("missing private challenge token")
	}

	verifyPayload := map[string]any{
		"user_attributes":  map[string]string{"email": email},
		"challenge_answer": "000000",
	}

	status, body = doJSON(t, http.MethodPost, "/api/v1/auth/challenge/verify", verifyPayload, token)
	if status != http.StatusOK {
		errEnv := decodeError(t, body)
		t.Fatalf("verify failed: status=%d message=%q", status, errEnv.Message)
	}

	var verified verifyData
	decodeSuccess(t, body, &verified)

	// one in a million chance of a flake
	if verified.AnswerCorrect {
		t.Error("expected a wrong code to be rejected")
	}
}

func TestChallengeIssueRateLimit(t *testing.T) {
	token := serviceToken(t)
	email := uniqueEmail("real-limit")

	payload := map[string]any{
		"user_id":         fmt.Sprintf("real-%d", time.Now().UnixNano()),
		"user_attributes": map[string]string{"email": email},
	}

	for i := 0; i < 4; i++ {
		status, body := doJSON(t, http.MethodPost, "/api/v1/auth/challenge/issue", payload, token)
		if status != http.StatusOK {
			errEnv := decodeError(t, body)
			t.Fatalf("issue %d failed: status=%d message=%q", i, status, errEnv.Message)
		}

		var issued issueData
		decodeSuccess(t, body, &issued)

		if i < 3 && issued.ChallengeMetadata != "OTP_EMAIL_SENT" {
			t.Fatalf("issue %d: unexpected metadata %q", i, issued.ChallengeMetadata)
		}
		if i == 3 && issued.ChallengeMetadata != "ERROR" {
			t.Errorf("expected the fourth request in the window to be limited, got %q", issued.ChallengeMetadata)
		}
	}
}

func TestChallengeVerifyUnknownEmail(t *testing.T) {
	token := serviceToken(t)

	payload := map[string]any{
		"user_attributes":  map[string]string{"email": uniqueEmail("real-none")},
		"challenge_answer": "123456",
	}

	status, body := doJSON(t, http.MethodPost, "/api/v1/auth/challenge/verify", payload, token)
	if status != http.StatusOK {
		errEnv := decodeError(t, body)
		t.Fatalf("verify failed: status=%d message=%q", status, errEnv.Message)
	}

	var verified verifyData
	decodeSuccess(t, body, &verified)

	if verified.AnswerCorrect {
		t.Error("expected no stored challenge to be rejected")
	}
}

func TestChallengeRequiresToken(t *testing.T) {
	payload := map[string]any{"session": []map[string]any{}}

	status, _ := doJSON(t, http.MethodPost, "/api/v1/auth/challenge/decide", payload, "")
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without bearer token, got %d", status)
	}
}
