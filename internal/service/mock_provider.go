package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/Odix-Pay/odixpay-notifications/internal/domain"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MockProviderSender stands in for a real provider transport (Brevo, Twilio,
// FCM) in development. It logs the delivery and fails a configurable
// fraction of sends so retry paths get exercised.
type MockProviderSender struct {
	Provider    string
	FailureRate float64
	Logger      *logrus.Logger
}

func (m MockProviderSender) Send(_ context.Context, n *domain.Notification) domain.SendResult {
	if rand.Float64() < m.FailureRate {
		return domain.SendResult{
			Success:      false,
			ErrorMessage: fmt.Sprintf("%s provider unavailable", m.Provider),
		}
	}

	now := time.Now().UTC()
	externalID := uuid.New().String()

	m.Logger.WithFields(logrus.Fields{
		"provider":    m.Provider,
		"recipient":   n.Recipient,
		"title":       n.Title,
		"external_id": externalID,
	}).Info("mock provider delivered notification")

	return domain.SendResult{
		Success:    true,
		ExternalID: externalID,
		SentAt:     &now,
	}
}
