// Package lifecycle drives the push subscription from the subscriber's
// side: permission, platform subscription, registry registration, and
// the one-shot first-visit prompt.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/community-notify/internal/domain"
)

// PermissionState mirrors the platform's notification permission.
type PermissionState string

const (
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
	PermissionPrompt  PermissionState = "prompt"
)

// PlatformSubscription is the push credential the platform hands out:
// a per-subscription endpoint plus the encryption keys the server needs
// to address it.
type PlatformSubscription struct {
	Endpoint string
	P256dh   string
	Auth     string
}

// Platform is the push capability of the device the controller runs on.
type Platform interface {
	Supported() bool
	RequestPermission(ctx context.Context) (PermissionState, error)
	// Subscription returns the current subscription, or an error wrapping
	// domain.ErrNotFound when none exists.
	Subscription(ctx context.Context) (*PlatformSubscription, error)
	Subscribe(ctx context.Context, vapidPublicKey string) (*PlatformSubscription, error)
	Unsubscribe(ctx context.Context) error
}

// Registry is the server-side subscription API. *client.Client
// satisfies it.
type Registry interface {
	VAPIDPublicKey(ctx context.Context) (string, error)
	Register(ctx context.Context, req domain.RegisterSubscriptionRequest) error
	Unregister(ctx context.Context, endpoint string) error
}

type Deps struct {
	Platform  Platform
	Registry  Registry
	State     *StateStore
	Device    string
	UserAgent string
	// PromptDelay is how long after first visit the auto-prompt waits
	// before asking, so the ask lands after the user has seen content.
	PromptDelay time.Duration
}

type Controller struct {
	platform    Platform
	registry    Registry
	state       *StateStore
	device      string
	userAgent   string
	promptDelay time.Duration
}

func NewController(deps Deps) *Controller {
	delay := deps.PromptDelay
	if delay <= 0 {
		delay = 3 * time.Second
	}
	return &Controller{
		platform:    deps.Platform,
		registry:    deps.Registry,
		state:       deps.State,
		device:      deps.Device,
		userAgent:   deps.UserAgent,
		promptDelay: delay,
	}
}

// Supported reports whether this device can receive push at all. On an
// unsupported device every other operation is a no-op and no UI for the
// feature should be shown.
func (c *Controller) Supported() bool {
	return c.platform != nil && c.platform.Supported()
}

// Current returns the active platform subscription, if any.
func (c *Controller) Current(ctx context.Context) (*PlatformSubscription, error) {
	if !c.Supported() {
		return nil, domain.ErrUnsupported
	}
	return c.platform.Subscription(ctx)
}

// Subscribe runs the full opt-in: permission, platform subscription,
// registry registration. Any failure leaves the feature in the
// not-subscribed state; a platform subscription whose registration
// failed is torn down again so no orphan credential lingers.
func (c *Controller) Subscribe(ctx context.Context) error {
	if !c.Supported() {
		return domain.ErrUnsupported
	}

	perm, err := c.platform.RequestPermission(ctx)
	if err != nil {
		return fmt.Errorf("request permission: %w", err)
	}
	if perm != PermissionGranted {
		return fmt.Errorf("notification permission %s: %w", perm, domain.ErrPermissionDenied)
	}

	key, err := c.registry.VAPIDPublicKey(ctx)
	if err != nil {
		return fmt.Errorf("fetch server key: %w", err)
	}

	sub, err := c.platform.Subscribe(ctx, key)
	if err != nil {
		return fmt.Errorf("platform subscribe: %w", err)
	}

	req := domain.RegisterSubscriptionRequest{
		Endpoint:  sub.Endpoint,
		Keys:      domain.SubscriptionKeys{P256dh: sub.P256dh, Auth: sub.Auth},
		Device:    c.device,
		UserAgent: c.userAgent,
	}
	if err := c.registry.Register(ctx, req); err != nil {
		if uerr := c.platform.Unsubscribe(ctx); uerr != nil {
			slog.Warn("rollback of platform subscription failed",
				"endpoint", sub.Endpoint, "err", uerr)
		}
		return fmt.Errorf("register subscription: %w", err)
	}
	return nil
}

// Unsubscribe destroys the platform subscription first, then tells the
// registry. A registry failure is logged but does not resurrect the
// platform subscription; the broadcaster will evict the dead endpoint
// on its next delivery attempt anyway.
func (c *Controller) Unsubscribe(ctx context.Context) error {
	if !c.Supported() {
		return domain.ErrUnsupported
	}

	sub, err := c.platform.Subscription(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("current subscription: %w", err)
	}

	if err := c.platform.Unsubscribe(ctx); err != nil {
		return fmt.Errorf("platform unsubscribe: %w", err)
	}
	if err := c.registry.Unregister(ctx, sub.Endpoint); err != nil {
		slog.Warn("registry unregister failed, endpoint will be evicted on next broadcast",
			"endpoint", sub.Endpoint, "err", err)
	}
	return nil
}

// AutoPrompt asks a first-time visitor to subscribe, at most once ever.
// The flag is persisted before the prompt so an interrupted run never
// asks twice. Declining is a normal outcome, not an error.
func (c *Controller) AutoPrompt(ctx context.Context) error {
	if !c.Supported() {
		return nil
	}
	if _, err := c.platform.Subscription(ctx); err == nil {
		return nil
	}
	if c.state.PromptShown() {
		return nil
	}
	if err := c.state.MarkPromptShown(); err != nil {
		return fmt.Errorf("persist prompt flag: %w", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.promptDelay):
	}

	if err := c.Subscribe(ctx); err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) {
			slog.Info("subscription prompt declined")
			return nil
		}
		return err
	}
	return nil
}
