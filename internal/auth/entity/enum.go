package entity

import "errors"

var (
	ErrUserStatusUnknown    = errors.New("auth: user status is unknown")
	ErrIllegalTransition    = errors.New("auth: illegal user status transition")
	ErrUserStatusTerminated = errors.New("auth: user status is terminal")
)

type UserStatus int16

const (
	// UserStatusUnknown is mean status is not known / not set.
	UserStatusUnknown UserStatus = 0

	// UserStatusUnverified mean user was provisioned but has not proven
	// control of their email yet.
	UserStatusUnverified UserStatus = 1

	// UserStatusNeedsProfile mean email is verified, profile data is missing.
	UserStatusNeedsProfile UserStatus = 2

	// UserStatusNeedsPaymentSetup mean profile is complete, payment details are missing.
	UserStatusNeedsPaymentSetup UserStatus = 3

	// UserStatusPendingReview mean sign-up is complete and awaiting manual review.
	UserStatusPendingReview UserStatus = 4

	// UserStatusActive mean user passed review and is allowed to use the app.
	UserStatusActive UserStatus = 5

	// UserStatusRejected mean user failed review. Terminal, never advances.
	UserStatusRejected UserStatus = 6
)

func (us UserStatus) String() string {
	switch us {
	case UserStatusUnverified:
		return "UNVERIFIED"
	case UserStatusNeedsProfile:
		return "NEEDS_PROFILE"
	case UserStatusNeedsPaymentSetup:
		return "NEEDS_PAYMENT_SETUP"
	case UserStatusPendingReview:
		return "PENDING_REVIEW"
	case UserStatusActive:
		return "ACTIVE"
	case UserStatusRejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

func (us UserStatus) IsUnknown() bool {
	switch us {
	case UserStatusUnverified, UserStatusNeedsProfile, UserStatusNeedsPaymentSetup,
		UserStatusPendingReview, UserStatusActive, UserStatusRejected:
		return false
	default:
		return true
	}
}

// CanTransitionTo reports whether moving from us to next is legal. A status
// only ever advances along the lifecycle order, or moves to the terminal
// UserStatusRejected. Nothing leaves UserStatusRejected.
func (us UserStatus) CanTransitionTo(next UserStatus) bool {
	if us.IsUnknown() || next.IsUnknown() {
		return false
	}
	if us == UserStatusRejected {
		return false
	}
	if next == UserStatusRejected {
		return true
	}
	return next > us
}
