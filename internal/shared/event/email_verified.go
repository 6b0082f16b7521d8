package event

const EmailVerifiedDestination string = "auth_email_verified"
const EmailVerifiedConsumerNotification string = "auth_email_verified_notification"

type EmailVerifiedMessage struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	VerifiedAt int64  `json:"verified_at"`
}
