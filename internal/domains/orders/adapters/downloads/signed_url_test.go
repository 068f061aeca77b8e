package downloads

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/KwakOri/lucent-sub001/internal/domains/orders/ports"
)

func TestNewSignedURLLinker_Validates(t *testing.T) {
	_, err := NewSignedURLLinker("https://cdn.example.com", "")
	require.ErrorIs(t, err, ErrMissingSecret)

	_, err = NewSignedURLLinker("cdn.example.com", "secret")
	require.Error(t, err)
}

func TestLink_SignsAndVerifies(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	linker, err := NewSignedURLLinker("https://cdn.example.com/assets", "secret", WithTTL(5*time.Minute), WithClock(clock))
	require.NoError(t, err)

	ref, err := linker.Link(context.Background(), ports.DownloadRequest{UserID: "user-1", ItemID: "item-1", ProductID: "voice-pack"})
	require.NoError(t, err)
	require.Equal(t, now.Add(5*time.Minute), ref.ExpiresAt)

	parsed, err := url.Parse(ref.URL)
	require.NoError(t, err)
	require.Equal(t, "cdn.example.com", parsed.Host)
	require.Equal(t, "/assets/products/voice-pack/digital", parsed.Path)

	claims, err := linker.Verify(parsed.Query().Get("token"))
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "voice-pack", claims.ProductID)
	require.Equal(t, "item-1", claims.ItemID)
}

func TestVerify_RejectsExpiredAndForeignTokens(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	linker, err := NewSignedURLLinker("https://cdn.example.com", "secret", WithTTL(time.Minute), WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	ref, err := linker.Link(context.Background(), ports.DownloadRequest{UserID: "u", ProductID: "p"})
	require.NoError(t, err)
	parsed, _ := url.Parse(ref.URL)
	token := parsed.Query().Get("token")

	later, err := NewSignedURLLinker("https://cdn.example.com", "secret", WithClock(func() time.Time { return now.Add(time.Hour) }))
	require.NoError(t, err)
	_, err = later.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewSignedURLLinker("https://cdn.example.com", "another", WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	_, err = other.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}
