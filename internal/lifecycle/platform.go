package lifecycle

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/community-notify/internal/domain"
)

// ConsentFunc answers a permission prompt. A nil ConsentFunc grants.
type ConsentFunc func(ctx context.Context) (bool, error)

// LocalPlatform is a push platform for headless agents: it mints its
// own P-256 key pair and auth secret, and its endpoint is the agent's
// push intake URL. Permission denial is sticky, matching platform
// behavior where a denied prompt can not be re-asked.
type LocalPlatform struct {
	pushURL string
	consent ConsentFunc

	mu      sync.Mutex
	current *PlatformSubscription
	granted bool
	denied  bool
}

func NewLocalPlatform(pushURL string, consent ConsentFunc) *LocalPlatform {
	return &LocalPlatform{pushURL: pushURL, consent: consent}
}

func (p *LocalPlatform) Supported() bool {
	return p.pushURL != ""
}

func (p *LocalPlatform) RequestPermission(ctx context.Context) (PermissionState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.granted {
		return PermissionGranted, nil
	}
	if p.denied {
		return PermissionDenied, nil
	}
	if p.consent == nil {
		p.granted = true
		return PermissionGranted, nil
	}
	ok, err := p.consent(ctx)
	if err != nil {
		return PermissionPrompt, err
	}
	if !ok {
		p.denied = true
		return PermissionDenied, nil
	}
	p.granted = true
	return PermissionGranted, nil
}

func (p *LocalPlatform) Subscription(context.Context) (*PlatformSubscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil, fmt.Errorf("no platform subscription: %w", domain.ErrNotFound)
	}
	sub := *p.current
	return &sub, nil
}

func (p *LocalPlatform) Subscribe(_ context.Context, vapidPublicKey string) (*PlatformSubscription, error) {
	if vapidPublicKey == "" {
		return nil, fmt.Errorf("platform subscribe: %w", domain.ErrMisconfigured)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.granted {
		return nil, fmt.Errorf("platform subscribe: %w", domain.ErrPermissionDenied)
	}
	if p.current != nil {
		sub := *p.current
		return &sub, nil
	}

	key, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate subscription key: %w", err)
	}
	auth := make([]byte, 16)
	if _, err := rand.Read(auth); err != nil {
		return nil, fmt.Errorf("generate auth secret: %w", err)
	}

	p.current = &PlatformSubscription{
		Endpoint: p.pushURL,
		P256dh:   base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		Auth:     base64.RawURLEncoding.EncodeToString(auth),
	}
	sub := *p.current
	return &sub, nil
}

func (p *LocalPlatform) Unsubscribe(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = nil
	return nil
}
