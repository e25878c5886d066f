package registry

import (
	"context"
	"time"

	"github.com/community-notify/internal/domain"
)

type Service interface {
	// Register upserts by endpoint identity. Registering the same endpoint
	// twice updates metadata rather than duplicating the row.
	Register(ctx context.Context, req domain.RegisterSubscriptionRequest) (*domain.Subscription, error)
	// Unregister is delete-if-exists; a missing endpoint is not an error.
	Unregister(ctx context.Context, endpoint string) error
	// List returns a bounded page of subscriptions plus the next cursor.
	List(ctx context.Context, pageSize int32, cursor string) ([]domain.Subscription, string, error)
}

type subscriptionStore interface {
	Upsert(ctx context.Context, s *domain.Subscription) error
	Delete(ctx context.Context, endpoint string) error
	List(ctx context.Context, limit int32, cursor string) ([]domain.Subscription, string, error)
}

type service struct {
	repo subscriptionStore
}

func NewService(repo subscriptionStore) Service {
	return &service{repo: repo}
}

func (s *service) Register(ctx context.Context, req domain.RegisterSubscriptionRequest) (*domain.Subscription, error) {
	device := req.Device
	if device == "" {
		device = domain.DeviceDesktop
	}
	sub := &domain.Subscription{
		Endpoint:  req.Endpoint,
		Keys:      req.Keys,
		Device:    device,
		UserAgent: req.UserAgent,
		CreatedAt: time.Now().UTC(),
	}
	// A store failure propagates: the client's subscribe flow must fail
	// loudly so the user can retry, not silently drop the subscription.
	if err := s.repo.Upsert(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *service) Unregister(ctx context.Context, endpoint string) error {
	return s.repo.Delete(ctx, endpoint)
}

func (s *service) List(ctx context.Context, pageSize int32, cursor string) ([]domain.Subscription, string, error) {
	return s.repo.List(ctx, pageSize, cursor)
}
