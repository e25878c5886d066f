package broadcast

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/community-notify/internal/application/composer"
	"github.com/community-notify/internal/domain"
	"github.com/community-notify/internal/pkg/id"
	"github.com/community-notify/internal/pkg/validate"
)

const defaultConcurrency = 16

type Service interface {
	// Broadcast authenticates the change signal, composes one payload and
	// delivers it to every registered subscription. Partial delivery
	// failure is a normal outcome and still returns a summary.
	Broadcast(ctx context.Context, secret string, ev domain.ContentChangeEvent) (*domain.DeliverySummary, error)
}

type subscriptionStore interface {
	List(ctx context.Context, limit int32, cursor string) ([]domain.Subscription, string, error)
	Delete(ctx context.Context, endpoint string) error
}

type pushSender interface {
	Send(ctx context.Context, sub *domain.Subscription, payload []byte) error
}

// ServiceDeps wires the broadcaster.
type ServiceDeps struct {
	Repo   subscriptionStore
	Sender pushSender
	// WebhookSecret authenticates inbound change signals. Empty means the
	// operator has not configured the feature; every call is rejected
	// with domain.ErrMisconfigured.
	WebhookSecret string
	// Concurrency bounds parallel deliveries; zero means the default.
	Concurrency int
	// PageSize bounds each registry page during target loading.
	PageSize int32
}

type service struct {
	repo        subscriptionStore
	sender      pushSender
	secret      string
	concurrency int
	pageSize    int32
}

func NewService(deps ServiceDeps) Service {
	c := deps.Concurrency
	if c <= 0 {
		c = defaultConcurrency
	}
	ps := deps.PageSize
	if ps <= 0 {
		ps = 1000
	}
	return &service{
		repo:        deps.Repo,
		sender:      deps.Sender,
		secret:      deps.WebhookSecret,
		concurrency: c,
		pageSize:    ps,
	}
}

func (s *service) Broadcast(ctx context.Context, secret string, ev domain.ContentChangeEvent) (*domain.DeliverySummary, error) {
	// Authenticate before any other work. A missing server secret is an
	// operator mistake, reported distinctly from a bad caller secret.
	if s.secret == "" {
		return nil, fmt.Errorf("webhook secret: %w", domain.ErrMisconfigured)
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(s.secret)) != 1 {
		return nil, domain.ErrUnauthorized
	}

	// Field-level validation only after authentication, so an
	// unauthenticated caller learns nothing about the expected schema.
	if err := validate.Struct(ev); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrBadRequest, err)
	}

	broadcastID := id.New()
	payload := composer.Compose(ev)
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	targets, err := s.loadTargets(ctx)
	if err != nil {
		return nil, fmt.Errorf("load targets: %w", err)
	}

	summary := &domain.DeliverySummary{BroadcastID: broadcastID, Total: len(targets)}
	if len(targets) == 0 {
		slog.Info("broadcast: no subscribers", "broadcast_id", broadcastID, "tag", payload.Tag)
		return summary, nil
	}

	s.deliverAll(ctx, broadcastID, targets, raw, summary)

	slog.Info("broadcast completed",
		"broadcast_id", broadcastID,
		"tag", payload.Tag,
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"evicted", summary.Evicted)
	return summary, nil
}

func (s *service) loadTargets(ctx context.Context) ([]domain.Subscription, error) {
	var targets []domain.Subscription
	cursor := ""
	for {
		page, next, err := s.repo.List(ctx, s.pageSize, cursor)
		if err != nil {
			return nil, err
		}
		targets = append(targets, page...)
		if next == "" {
			return targets, nil
		}
		cursor = next
	}
}

// deliverAll attempts delivery to every target independently under a
// bounded semaphore. One failure never cancels or delays the others;
// results are collected, not raced.
func (s *service) deliverAll(ctx context.Context, broadcastID string, targets []domain.Subscription, raw []byte, summary *domain.DeliverySummary) {
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, s.concurrency)
	)

	for i := range targets {
		sub := targets[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			err := s.sender.Send(ctx, &sub, raw)
			evicted := false
			if errors.Is(err, domain.ErrSubscriptionGone) {
				// The transport says this endpoint will never work again;
				// evict so future fan-outs stop wasting effort on it. A
				// racing eviction from an overlapping broadcast is a no-op.
				if delErr := s.repo.Delete(ctx, sub.Endpoint); delErr != nil {
					slog.Warn("broadcast: evict failed", "broadcast_id", broadcastID, "endpoint", sub.Endpoint, "err", delErr)
				} else {
					evicted = true
				}
			}
			if err != nil {
				slog.Warn("broadcast: delivery failed", "broadcast_id", broadcastID, "endpoint", sub.Endpoint, "err", err)
			}

			mu.Lock()
			summary.Attempted++
			if err != nil {
				summary.Failed++
			} else {
				summary.Succeeded++
			}
			if evicted {
				summary.Evicted++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()
}
