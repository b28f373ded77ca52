package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-signing-secret"

func newTestService() *Service {
	return NewService(testSecret, 15*time.Minute, 24*time.Hour)
}

func TestIssuePairValidates(t *testing.T) {
	svc := newTestService()
	pair, err := svc.IssuePair("alice")
	require.NoError(t, err)

	sub, err := svc.Validate(pair.AccessToken, Access)
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)

	sub, err = svc.Validate(pair.RefreshToken, Refresh)
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)
}

func TestValidateRejectsWrongType(t *testing.T) {
	svc := newTestService()
	pair, err := svc.IssuePair("alice")
	require.NoError(t, err)

	_, err = svc.Validate(pair.RefreshToken, Access)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	_, err = svc.Validate(pair.AccessToken, Refresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestValidateRejectsExpired(t *testing.T) {
	svc := newTestService()
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	access, err := svc.IssueAccess("alice")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Validate(access, Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsTampered(t *testing.T) {
	svc := newTestService()
	access, err := svc.IssueAccess("alice")
	require.NoError(t, err)

	parts := strings.Split(access, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = svc.Validate(tampered, Access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Validate("not-a-token", Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	other := NewService("another-secret", time.Minute, time.Minute)
	access, err := other.IssueAccess("mallory")
	require.NoError(t, err)

	_, err = newTestService().Validate(access, Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsUnsignedAndMissingExpiry(t *testing.T) {
	svc := newTestService()

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Type:             Access,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "alice", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.Validate(unsigned, Access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Type:             Access,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"},
	})
	signed, err := noExp.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = svc.Validate(signed, Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
