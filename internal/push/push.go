// Package push wraps the Web Push protocol client. Delivery results feed back
// a Gone signal so callers can prune dead subscriptions.
package push

import (
	"encoding/json"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// Subscription mirrors the browser PushSubscription shape.
type Subscription struct {
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
}

// Message is the payload the service worker displays.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

// ErrSubscriptionGone marks an endpoint the push service no longer serves.
var ErrSubscriptionGone = fmt.Errorf("subscription gone")

type Client struct {
	publicKey  string
	privateKey string
	subject    string
}

func NewClient(publicKey, privateKey, subject string) *Client {
	return &Client{publicKey: publicKey, privateKey: privateKey, subject: subject}
}

func (c *Client) Enabled() bool {
	return c.publicKey != "" && c.privateKey != ""
}

func (c *Client) PublicKey() string {
	return c.publicKey
}

// Send delivers one message. A 404/410 response returns ErrSubscriptionGone.
func (c *Client) Send(sub Subscription, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := webpush.SendNotification(payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      c.subject,
		VAPIDPublicKey:  c.publicKey,
		VAPIDPrivateKey: c.privateKey,
		TTL:             3600,
	})
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound, http.StatusGone:
		return ErrSubscriptionGone
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}
	return nil
}
