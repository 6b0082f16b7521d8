package event

const ChallengeIssuedDestination string = "auth_challenge_issued"
const ChallengeIssuedConsumerNotification string = "auth_challenge_issued_notification"

type ChallengeIssuedMessage struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	ChallengeID string `json:"challenge_id"`
	IssuedAt    int64  `json:"issued_at"`
}
