package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/community-notify/internal/domain"
)

// Notification is what the agent asks the platform to display. Two
// notifications with the same Tag coalesce: the newer one replaces the
// older instead of stacking.
type Notification struct {
	Title     string
	Body      string
	Icon      string
	Image     string
	Tag       string
	TargetURL string
}

// Notifier displays notifications on the user's device.
type Notifier interface {
	Show(ctx context.Context, n *Notification) error
}

// Window is an open page the agent controls.
type Window interface {
	URL() string
	Focus(ctx context.Context) error
}

// Windows enumerates and opens pages.
type Windows interface {
	List(ctx context.Context) ([]Window, error)
	Open(ctx context.Context, url string) (Window, error)
}

const (
	fallbackTitle = "Community update"
	fallbackBody  = "Open the site to see what's new."
)

// HandlePush turns an incoming push message into a displayed
// notification. The data is expected to be a notification payload, but
// a malformed or plain-text message still produces a generic
// notification rather than being dropped silently.
func (a *Agent) HandlePush(ctx context.Context, data []byte) error {
	if a.notifier == nil {
		return fmt.Errorf("handle push: %w", domain.ErrMisconfigured)
	}

	var payload domain.NotificationPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.Title == "" {
		slog.Warn("push payload not parseable, showing fallback", "bytes", len(data))
		payload = domain.NotificationPayload{
			Title:     fallbackTitle,
			Body:      plainText(data),
			TargetURL: "/",
		}
	}

	n := &Notification{
		Title:     payload.Title,
		Body:      payload.Body,
		Icon:      payload.Icon,
		Image:     payload.Image,
		Tag:       payload.Tag,
		TargetURL: payload.TargetURL,
	}
	if n.TargetURL == "" {
		n.TargetURL = "/"
	}
	return a.notifier.Show(ctx, n)
}

func plainText(data []byte) string {
	s := strings.TrimSpace(string(data))
	if s == "" {
		return fallbackBody
	}
	return s
}

// Click is a user interaction with a displayed notification. Action is
// empty for the notification body itself.
type Click struct {
	TargetURL string
	Action    string
}

// ActionDismiss closes the notification without navigating.
const ActionDismiss = "dismiss"

// HandleNotificationClick routes the user to the notification's target.
// An already-open window showing the target is focused rather than
// duplicated; failing that, any open window is focused and navigated;
// only with no window at all is a new one opened.
func (a *Agent) HandleNotificationClick(ctx context.Context, click Click) error {
	if click.Action == ActionDismiss {
		return nil
	}
	if a.windows == nil {
		return fmt.Errorf("handle click: %w", domain.ErrMisconfigured)
	}

	target := a.origin.JoinPath(click.TargetURL).String()
	if click.TargetURL == "" || click.TargetURL == "/" {
		target = a.origin.String()
	}

	open, err := a.windows.List(ctx)
	if err != nil {
		return fmt.Errorf("list windows: %w", err)
	}
	for _, w := range open {
		if w.URL() == target {
			return w.Focus(ctx)
		}
	}
	if len(open) > 0 {
		return open[0].Focus(ctx)
	}
	_, err = a.windows.Open(ctx, target)
	return err
}
