package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func sign(orderRef, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(orderRef + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func newTestService(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	svc := &Service{
		Provider: Gateway{KeyID: "key", KeySecret: testSecret},
		Redis:    client,
		TTL:      time.Minute,
		Logger:   zerolog.Nop(),
	}
	return svc, mr
}

func TestVerifyAndConsumeRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.VerifyAndRecord(ctx, "cart-1", "pay-1", sign("cart-1", "pay-1")))

	ref, err := svc.Consume(ctx, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, "cart-1", ref)
}

func TestConsumeIsSingleUse(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.VerifyAndRecord(ctx, "cart-1", "pay-1", sign("cart-1", "pay-1")))
	_, err := svc.Consume(ctx, "pay-1")
	require.NoError(t, err)

	_, err = svc.Consume(ctx, "pay-1")
	assert.ErrorIs(t, err, ErrNotVerified)
}

func TestTamperedSignatureRejected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	err := svc.VerifyAndRecord(ctx, "cart-1", "pay-1", sign("cart-1", "pay-2"))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = svc.Consume(ctx, "pay-1")
	assert.ErrorIs(t, err, ErrNotVerified)
}

func TestRecordExpires(t *testing.T) {
	svc, mr := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.VerifyAndRecord(ctx, "cart-1", "pay-1", sign("cart-1", "pay-1")))
	mr.FastForward(2 * time.Minute)

	_, err := svc.Consume(ctx, "pay-1")
	assert.ErrorIs(t, err, ErrNotVerified)
}

func TestVerifyTwiceBeforeConsumeIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.VerifyAndRecord(ctx, "cart-1", "pay-1", sign("cart-1", "pay-1")))
	require.NoError(t, svc.VerifyAndRecord(ctx, "cart-1", "pay-1", sign("cart-1", "pay-1")))

	ref, err := svc.Consume(ctx, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, "cart-1", ref)
}

func TestGatewaySignatureHelpers(t *testing.T) {
	g := Gateway{KeySecret: testSecret}
	assert.True(t, g.VerifySignature("o1", "p1", sign("o1", "p1")))
	assert.False(t, g.VerifySignature("o1", "p1", sign("o1", "p2")))
	assert.False(t, g.VerifySignature("o1", "p1", ""))
	assert.False(t, Gateway{}.VerifySignature("o1", "p1", sign("o1", "p1")))
}
