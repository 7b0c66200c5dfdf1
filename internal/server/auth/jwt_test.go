package auth

import (
	"encoding/base64"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newTestIssuer(t *testing.T, secret string) (*TokenIssuer, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: t0}
	i, err := NewTokenIssuer([]byte(secret), time.Hour, WithClock(clock.Now))
	require.NoError(t, err)
	return i, clock
}

func TestNewTokenIssuer_Validation(t *testing.T) {
	_, err := NewTokenIssuer(nil, time.Hour)
	require.Error(t, err)

	_, err = NewTokenIssuer([]byte("k"), 0)
	require.Error(t, err)

	i, err := NewTokenIssuer([]byte("k"), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, i.TTL())
}

func TestNewTokenIssuer_CopiesSecret(t *testing.T) {
	secret := []byte("super-secret")
	i, err := NewTokenIssuer(secret, time.Hour)
	require.NoError(t, err)

	tok, err := i.Issue("u1", "a@x.com")
	require.NoError(t, err)

	secret[0] = 'X'

	_, err = i.Verify(tok)
	require.NoError(t, err, "mutating the caller's slice must not affect the issuer")
}

func TestIssueAndVerify_Success(t *testing.T) {
	i, _ := newTestIssuer(t, "super-secret")

	tok, err := i.Issue("user-123", "bob@example.com")
	require.NoError(t, err)
	assert.Len(t, strings.Split(tok, "."), 3)

	claims, err := i.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "bob@example.com", claims.Email)
	assert.True(t, t0.Equal(claims.IssuedAt), "issued at %v", claims.IssuedAt)
	assert.True(t, t0.Add(time.Hour).Equal(claims.ExpiresAt), "expires at %v", claims.ExpiresAt)
}

func TestVerify_ExpiryBoundary(t *testing.T) {
	i, clock := newTestIssuer(t, "secret")

	tok, err := i.Issue("u1", "a@x.com")
	require.NoError(t, err)

	clock.Set(t0.Add(time.Hour - time.Second))
	_, err = i.Verify(tok)
	require.NoError(t, err, "still inside the window")

	clock.Set(t0.Add(time.Hour))
	_, err = i.Verify(tok)
	require.ErrorIs(t, err, common.ErrInvalidToken, "at expiry the token is invalid")

	clock.Set(t0.Add(2 * time.Hour))
	_, err = i.Verify(tok)
	require.ErrorIs(t, err, common.ErrInvalidToken)

	clock.Set(t0)
	_, err = i.Verify(tok)
	require.NoError(t, err, "verification is stateless, nothing was revoked")
}

func TestVerify_RealClockExpired(t *testing.T) {
	i, err := NewTokenIssuer([]byte("secret"), time.Second, WithClock(func() time.Time {
		return time.Now().Add(-2 * time.Second)
	}))
	require.NoError(t, err)

	tok, err := i.Issue("u1", "a@x.com")
	require.NoError(t, err)

	verifier, err := NewTokenIssuer([]byte("secret"), time.Second)
	require.NoError(t, err)

	_, err = verifier.Verify(tok)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_AlteredSignature(t *testing.T) {
	i, _ := newTestIssuer(t, "secret")

	tok, err := i.Issue("u1", "a@x.com")
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = i.Verify(tampered)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_AlteredPayload(t *testing.T) {
	i, _ := newTestIssuer(t, "secret")

	tok, err := i.Issue("u1", "a@x.com")
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	forged := strings.Replace(string(payload), "a@x.com", "admin@x.com", 1)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(forged))

	_, err = i.Verify(strings.Join(parts, "."))
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	issuer, _ := newTestIssuer(t, "right-secret")
	verifier, _ := newTestIssuer(t, "wrong-secret")

	tok, err := issuer.Issue("u2", "b@x.com")
	require.NoError(t, err)

	_, err = verifier.Verify(tok)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	i, _ := newTestIssuer(t, "secret")

	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(t0),
			ExpiresAt: jwt.NewNumericDate(t0.Add(time.Hour)),
		},
		UserID: "u1",
		Email:  "a@x.com",
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = i.Verify(none)
	require.ErrorIs(t, err, common.ErrInvalidToken)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = i.Verify(hs512)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_RequiresExpiryAndUser(t *testing.T) {
	i, _ := newTestIssuer(t, "secret")

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(t0)},
		UserID:           "u1",
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = i.Verify(noExp)
	require.ErrorIs(t, err, common.ErrInvalidToken)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(t0),
			ExpiresAt: jwt.NewNumericDate(t0.Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = i.Verify(noUser)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_Malformed(t *testing.T) {
	i, _ := newTestIssuer(t, "k")

	for _, tok := range []string{"", "not.a.jwt", "abc", "a.b", "a.b.c.d"} {
		_, err := i.Verify(tok)
		require.ErrorIs(t, err, common.ErrInvalidToken, "token %q", tok)
	}
}

func TestTokenIssuer_ConcurrentUse(t *testing.T) {
	i, _ := newTestIssuer(t, "secret")

	var wg sync.WaitGroup
	for n := 0; n < 16; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := i.Issue("u", "u@x.com")
			assert.NoError(t, err)
			_, err = i.Verify(tok)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
