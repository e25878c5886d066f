package webpush

import (
	"context"
	"fmt"
	"io"
	"net/http"

	webpushgo "github.com/SherClockHolmes/webpush-go"
	"github.com/community-notify/internal/config"
	"github.com/community-notify/internal/domain"
)

// Sender delivers an encrypted push message to one subscription endpoint.
type Sender interface {
	Send(ctx context.Context, sub *domain.Subscription, payload []byte) error
}

type sender struct {
	publicKey  string
	privateKey string
	subscriber string
	ttl        int
}

// NewSender builds a Web Push sender from the configured VAPID key pair.
// A missing key is a configuration error: the caller decides whether to
// disable the feature or fail startup.
func NewSender(cfg *config.Config) (Sender, error) {
	if cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "" {
		return nil, fmt.Errorf("VAPID key pair: %w", domain.ErrMisconfigured)
	}
	return &sender{
		publicKey:  cfg.VAPIDPublicKey,
		privateKey: cfg.VAPIDPrivateKey,
		subscriber: cfg.VAPIDSubject,
		ttl:        3600,
	}, nil
}

// Send encrypts payload for the subscription's key pair and posts it to
// the push service. A 404 or 410 response means the endpoint will never
// accept another delivery and is surfaced as domain.ErrSubscriptionGone.
func (s *sender) Send(ctx context.Context, sub *domain.Subscription, payload []byte) error {
	resp, err := webpushgo.SendNotificationWithContext(ctx, payload, &webpushgo.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpushgo.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpushgo.Options{
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             s.ttl,
	})
	if err != nil {
		return fmt.Errorf("push %s: %w", sub.Endpoint, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("push %s: HTTP %d: %w", sub.Endpoint, resp.StatusCode, domain.ErrSubscriptionGone)
	case resp.StatusCode >= 400:
		return fmt.Errorf("push %s: HTTP %d", sub.Endpoint, resp.StatusCode)
	}
	return nil
}
