package domain

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func IsValidEmail(email string) bool {
	if strings.TrimSpace(email) == "" {
		return false
	}
	return emailRe.MatchString(email)
}

func IsValidPhoneNumber(number string) bool {
	if strings.TrimSpace(number) == "" {
		return false
	}
	parsed, err := phonenumbers.Parse(number, "")
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(parsed)
}

// Push tokens vary per provider (FCM, APNs); a length floor is the only
// check that holds across all of them.
func IsValidPushToken(token string) bool {
	return len(strings.TrimSpace(token)) >= 16
}

// ValidateRecipient checks a recipient address against the delivery channel.
// In-app notifications live in the store, so no address is required.
func ValidateRecipient(channel NotificationChannel, recipient string) bool {
	switch channel {
	case ChannelEmail:
		return IsValidEmail(recipient)
	case ChannelSMS:
		return IsValidPhoneNumber(recipient)
	case ChannelPush:
		return IsValidPushToken(recipient)
	case ChannelInApp:
		return true
	default:
		return false
	}
}
