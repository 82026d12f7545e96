package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Envelope wraps a domain payload for transport: a generated message id, a
// UTC timestamp, and a free-form header map (retry counters, correlation
// ids). Built fresh on every publish, never persisted.
type Envelope struct {
	Data      json.RawMessage   `json:"data"`
	MessageID string            `json:"messageId"`
	Timestamp time.Time         `json:"timestamp"`
	Headers   map[string]string `json:"headers"`
}

func NewEnvelope(payload interface{}, headers map[string]string) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	if headers == nil {
		headers = map[string]string{}
	}
	return &Envelope{
		Data:      data,
		MessageID: uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Headers:   headers,
	}, nil
}

// Decode unmarshals the wrapped payload into v.
func (e *Envelope) Decode(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

func (e *Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

func DecodeEnvelope(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	return &env, nil
}
