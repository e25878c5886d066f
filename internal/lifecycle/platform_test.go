package lifecycle

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/community-notify/internal/domain"
)

func TestLocalPlatform_SubscribeMintsKeys(t *testing.T) {
	p := NewLocalPlatform("http://127.0.0.1:9100/push", nil)
	ctx := context.Background()

	perm, err := p.RequestPermission(ctx)
	require.NoError(t, err)
	require.Equal(t, PermissionGranted, perm)

	sub, err := p.Subscribe(ctx, "BServerKey")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9100/push", sub.Endpoint)

	// p256dh is an uncompressed P-256 point, auth a 16-byte secret.
	pub, err := base64.RawURLEncoding.DecodeString(sub.P256dh)
	require.NoError(t, err)
	assert.Len(t, pub, 65)
	auth, err := base64.RawURLEncoding.DecodeString(sub.Auth)
	require.NoError(t, err)
	assert.Len(t, auth, 16)

	// Re-subscribing returns the same credential.
	again, err := p.Subscribe(ctx, "BServerKey")
	require.NoError(t, err)
	assert.Equal(t, sub.Endpoint, again.Endpoint)
	assert.Equal(t, sub.P256dh, again.P256dh)
}

func TestLocalPlatform_DenialIsSticky(t *testing.T) {
	asks := 0
	p := NewLocalPlatform("http://127.0.0.1:9100/push", func(context.Context) (bool, error) {
		asks++
		return false, nil
	})
	ctx := context.Background()

	perm, err := p.RequestPermission(ctx)
	require.NoError(t, err)
	assert.Equal(t, PermissionDenied, perm)

	perm, err = p.RequestPermission(ctx)
	require.NoError(t, err)
	assert.Equal(t, PermissionDenied, perm)
	assert.Equal(t, 1, asks)

	_, err = p.Subscribe(ctx, "BServerKey")
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestLocalPlatform_UnsubscribeClearsCredential(t *testing.T) {
	p := NewLocalPlatform("http://127.0.0.1:9100/push", nil)
	ctx := context.Background()

	_, err := p.RequestPermission(ctx)
	require.NoError(t, err)
	_, err = p.Subscribe(ctx, "BServerKey")
	require.NoError(t, err)

	require.NoError(t, p.Unsubscribe(ctx))
	_, err = p.Subscription(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLocalPlatform_UnsupportedWithoutPushURL(t *testing.T) {
	assert.False(t, NewLocalPlatform("", nil).Supported())
}

func TestStateStore_FlagSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	s := NewStateStore(dir)
	assert.False(t, s.PromptShown())
	require.NoError(t, s.MarkPromptShown())
	assert.True(t, s.PromptShown())

	assert.True(t, NewStateStore(dir).PromptShown())
}
