package http

import (
	"context"

	"github.com/community-notify/internal/domain"
)

// SubscriptionRepository is the minimal interface the router requires
// from the subscription store.
type SubscriptionRepository interface {
	Upsert(ctx context.Context, s *domain.Subscription) error
	Delete(ctx context.Context, endpoint string) error
	// List returns a page of subscriptions plus the cursor for the next
	// page; an empty cursor means the scan is complete.
	List(ctx context.Context, limit int32, cursor string) ([]domain.Subscription, string, error)
}

// PushSender delivers one encrypted payload to one subscription.
type PushSender interface {
	Send(ctx context.Context, sub *domain.Subscription, payload []byte) error
}
