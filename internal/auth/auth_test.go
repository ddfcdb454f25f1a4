package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/catalyst-ai-dev/white-room/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractToken_PrefersQueryParam(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws?token=from-query", nil)
	r.Header.Set("Authorization", "Bearer from-header")
	r.AddCookie(&http.Cookie{Name: "x-session-token", Value: "from-cookie"})

	token, err := ExtractToken(r)
	require.NoError(t, err)
	assert.Equal(t, "from-query", token)
}

func TestExtractToken_FallsBackToCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.Header.Set("Authorization", "Bearer from-header")
	r.AddCookie(&http.Cookie{Name: "x-session-token", Value: "from-cookie"})

	token, err := ExtractToken(r)
	require.NoError(t, err)
	assert.Equal(t, "from-cookie", token)
}

func TestExtractToken_FallsBackToAuthorizationHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.Header.Set("Authorization", "Bearer from-header")

	token, err := ExtractToken(r)
	require.NoError(t, err)
	assert.Equal(t, "from-header", token)
}

func TestExtractToken_NoneFoundReturnsAuthError(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	_, err := ExtractToken(r)
	assert.ErrorIs(t, err, model.ErrWebSocketAuthentication)
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestJWTDecoder_ValidTokenReturnsSubClaim(t *testing.T) {
	d := NewJWTDecoder("s3cr3t")
	token := signToken(t, "s3cr3t", jwt.MapClaims{
		"sub": "user-42",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	userID, err := d.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)
}

func TestJWTDecoder_WrongSecretFails(t *testing.T) {
	d := NewJWTDecoder("s3cr3t")
	token := signToken(t, "wrong-secret", jwt.MapClaims{"sub": "user-42"})

	_, err := d.Decode(token)
	assert.ErrorIs(t, err, model.ErrWebSocketAuthentication)
}

func TestJWTDecoder_MissingSubClaimFails(t *testing.T) {
	d := NewJWTDecoder("s3cr3t")
	token := signToken(t, "s3cr3t", jwt.MapClaims{"foo": "bar"})

	_, err := d.Decode(token)
	assert.ErrorIs(t, err, model.ErrWebSocketAuthentication)
}

func TestJWTDecoder_MalformedTokenFails(t *testing.T) {
	d := NewJWTDecoder("s3cr3t")
	_, err := d.Decode("not-a-jwt")
	assert.ErrorIs(t, err, model.ErrWebSocketAuthentication)
}
