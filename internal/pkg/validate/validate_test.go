package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/community-notify/internal/domain"
)

func TestStruct_RegisterRequestWithTypedKeys(t *testing.T) {
	req := domain.RegisterSubscriptionRequest{
		Endpoint: "https://push.example/send/abc",
		Keys: domain.SubscriptionKeys{
			P256dh: "BPubKeyMaterial",
			Auth:   "AuthSecret",
		},
		Device: domain.DeviceMobile,
	}
	assert.NoError(t, Struct(req))
}

func TestStruct_ValidationDivesIntoKeys(t *testing.T) {
	req := domain.RegisterSubscriptionRequest{
		Endpoint: "https://push.example/send/abc",
		Keys:     domain.SubscriptionKeys{P256dh: "BPubKeyMaterial"},
	}
	err := Struct(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Auth")
}

func TestStruct_JoinsAllFieldErrors(t *testing.T) {
	err := Struct(domain.RegisterSubscriptionRequest{Endpoint: "not-a-url"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Endpoint")
	assert.Contains(t, err.Error(), "P256dh")
}
