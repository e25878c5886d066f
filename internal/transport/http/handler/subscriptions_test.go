package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/community-notify/internal/domain"
)

type fakeRegistry struct {
	registered   []domain.RegisterSubscriptionRequest
	registerErr  error
	unregistered []string
	listSubs     []domain.Subscription
	listNext     string
	gotLimit     int32
	gotCursor    string
}

func (f *fakeRegistry) Register(_ context.Context, req domain.RegisterSubscriptionRequest) (*domain.Subscription, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	f.registered = append(f.registered, req)
	return &domain.Subscription{Endpoint: req.Endpoint}, nil
}

func (f *fakeRegistry) Unregister(_ context.Context, endpoint string) error {
	f.unregistered = append(f.unregistered, endpoint)
	return nil
}

func (f *fakeRegistry) List(_ context.Context, limit int32, cursor string) ([]domain.Subscription, string, error) {
	f.gotLimit = limit
	f.gotCursor = cursor
	return f.listSubs, f.listNext, nil
}

const validRegisterBody = `{
	"endpoint": "https://push.example/send/abc",
	"keys": {"p256dh": "BPubKeyMaterial", "auth": "AuthSecret"},
	"device": "mobile",
	"user_agent": "Mozilla/5.0"
}`

func TestRegister_StoresSubscription(t *testing.T) {
	svc := &fakeRegistry{}
	h := NewSubscriptionHandler(svc, 1000)

	req := httptest.NewRequest(http.MethodPost, "/v1/subscriptions", strings.NewReader(validRegisterBody))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, svc.registered, 1)
	assert.Equal(t, "https://push.example/send/abc", svc.registered[0].Endpoint)
	assert.Equal(t, domain.DeviceMobile, svc.registered[0].Device)
}

func TestRegister_RejectsMalformedJSON(t *testing.T) {
	svc := &fakeRegistry{}
	h := NewSubscriptionHandler(svc, 1000)

	req := httptest.NewRequest(http.MethodPost, "/v1/subscriptions", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.registered)
}

func TestRegister_RejectsMissingKeys(t *testing.T) {
	svc := &fakeRegistry{}
	h := NewSubscriptionHandler(svc, 1000)

	body := `{"endpoint": "https://push.example/send/abc", "keys": {"p256dh": "", "auth": ""}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/subscriptions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.registered)
}

func TestRegister_StoreFailureIs500(t *testing.T) {
	svc := &fakeRegistry{registerErr: errors.New("dynamo down")}
	h := NewSubscriptionHandler(svc, 1000)

	req := httptest.NewRequest(http.MethodPost, "/v1/subscriptions", strings.NewReader(validRegisterBody))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUnregister_RemovesByEndpoint(t *testing.T) {
	svc := &fakeRegistry{}
	h := NewSubscriptionHandler(svc, 1000)

	body := `{"endpoint": "https://push.example/send/abc"}`
	req := httptest.NewRequest(http.MethodDelete, "/v1/subscriptions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Unregister(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"https://push.example/send/abc"}, svc.unregistered)
}

func TestList_PagesWithCursor(t *testing.T) {
	svc := &fakeRegistry{
		listSubs: []domain.Subscription{{Endpoint: "https://push.example/send/abc"}},
		listNext: "https://push.example/send/abc",
	}
	h := NewSubscriptionHandler(svc, 1000)

	req := httptest.NewRequest(http.MethodGet, "/v1/subscriptions?limit=50&cursor=prev", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(50), svc.gotLimit)
	assert.Equal(t, "prev", svc.gotCursor)
	assert.Contains(t, rec.Body.String(), `"next_cursor"`)
}

func TestList_EmptyRegistryReturnsEmptyArray(t *testing.T) {
	h := NewSubscriptionHandler(&fakeRegistry{}, 1000)

	req := httptest.NewRequest(http.MethodGet, "/v1/subscriptions", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}
