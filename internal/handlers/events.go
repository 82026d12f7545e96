package handlers

import (
	"time"

	"github.com/google/uuid"
)

// Card3dOtpEvent is published by the card processor when a 3-D Secure
// challenge needs an OTP delivered to the cardholder.
type Card3dOtpEvent struct {
	Otp              string  `json:"otp"`
	Amount           float64 `json:"amount"`
	Currency         string  `json:"currency"`
	Email            string  `json:"email"`
	PhoneCountryCode string  `json:"phoneCountryCode"`
	PhoneNumber      string  `json:"phoneNumber"`
	UserID           string  `json:"userId,omitempty"`
}

// TransactionObservedEvent reports a transaction status change worth telling
// the user about.
type TransactionObservedEvent struct {
	TransactionHash string    `json:"transactionHash"`
	Network         string    `json:"network"`
	FromAddress     string    `json:"fromAddress"`
	ToAddress       string    `json:"toAddress"`
	Amount          float64   `json:"amount"`
	Currency        string    `json:"currency"`
	IsSuccessful    bool      `json:"isSuccessful"`
	Direction       string    `json:"direction,omitempty"`
	UserID          string    `json:"userId,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// CardStatusChangedEvent reports a card lifecycle change.
type CardStatusChangedEvent struct {
	UserID     string `json:"userId"`
	CardID     string `json:"cardId"`
	MaskedPan  string `json:"maskedPan,omitempty"`
	Status     string `json:"status"`
	PrevStatus string `json:"prevStatus,omitempty"`
}

// UserDataChangedEvent carries the contact fields of the auth service's user
// profile events. The full upstream payload is much wider; only what drives
// recipient bookkeeping is decoded here.
type UserDataChangedEvent struct {
	UserID                 string `json:"userId"`
	UserName               string `json:"userName,omitempty"`
	EmailAddress           string `json:"emailAddress"`
	IsEmailConfirmed       bool   `json:"isEmailConfirmed"`
	PhoneNumber            string `json:"phoneNumber"`
	IsPhoneNumberConfirmed bool   `json:"isPhoneNumberConfirmed"`
	FirstName              string `json:"firstName,omitempty"`
	LastName               string `json:"lastName,omitempty"`
}

// MarkAsReadEvent asks for an in-app notification's read flag to be set.
type MarkAsReadEvent struct {
	NotificationID uuid.UUID `json:"notificationId"`
}
