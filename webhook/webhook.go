// Package webhook receives and authenticates Chatwork webhook
// deliveries. Nothing downstream runs until the signature checks out.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

// SignatureHeader carries the base64 HMAC-SHA256 of the request body.
const SignatureHeader = "X-ChatWorkWebhookSignature"

// Authentication failures. The request is rejected before any command
// logic runs; there are no side effects to undo.
var (
	ErrMissingSignature  = errors.New("webhook signature header missing")
	ErrSignatureMismatch = errors.New("webhook signature does not match")
)

// Event is the inner Chatwork message event.
type Event struct {
	FromAccountID int    `json:"from_account_id"`
	ToAccountID   int    `json:"to_account_id"`
	RoomID        int    `json:"room_id"`
	MessageID     string `json:"message_id"`
	Body          string `json:"body"`
	SendTime      int64  `json:"send_time"`
	UpdateTime    int64  `json:"update_time"`
}

// Envelope is the webhook payload as Chatwork delivers it.
type Envelope struct {
	WebhookSettingID string `json:"webhook_setting_id"`
	WebhookEventType string `json:"webhook_event_type"`
	WebhookEventTime int64  `json:"webhook_event_time"`
	WebhookEvent     Event  `json:"webhook_event"`
}

// Verifier checks webhook signatures against the shared secret
// configured for the webhook in Chatwork.
type Verifier struct {
	secret []byte
}

// NewVerifier constructs a Verifier from the base64-encoded shared
// secret. An absent secret is a configuration error; refusing to start
// beats accepting unsigned requests.
func NewVerifier(encodedSecret string) (*Verifier, error) {
	if encodedSecret == "" {
		return nil, errors.New("webhook shared secret is not set")
	}
	secret, err := base64.StdEncoding.DecodeString(encodedSecret)
	if err != nil {
		return nil, fmt.Errorf("decoding webhook shared secret: %w", err)
	}
	return &Verifier{secret: secret}, nil
}

// Verify recomputes the HMAC-SHA256 of body and compares it to the
// claimed signature in constant time.
func (v *Verifier) Verify(body []byte, signature string) error {
	if signature == "" {
		return ErrMissingSignature
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureMismatch
	}
	return nil
}
