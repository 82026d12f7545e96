package handlers

// Broker routing keys this service publishes to or consumes.
const (
	TopicCreateNotification     = "notification.create"
	TopicCreateNotificationMany = "notification.create.many"
	TopicMarkAsRead             = "notification.markasread"

	// Integration subscriptions from other services.
	TopicCard3dOtp                = "card.card3dotp"
	TopicTransactionStatusChanged = "notifications.transaction.status"
	TopicCardStatusChanged        = "notifications.card.status"

	TopicEmailVerified = "user.email.verified"
	TopicEmailUpdated  = "user.email.updated"
	TopicEmailDeleted  = "user.email.deleted"
	TopicPhoneVerified = "user.phone.verified"
	TopicPhoneUpdated  = "user.phone.updated"
	TopicPhoneDeleted  = "user.phone.deleted"
)
