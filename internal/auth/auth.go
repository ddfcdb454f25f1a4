// Package auth decodes the opaque authentication token carried on the
// WebSocket upgrade handshake into a userId. spec.md treats the
// decoding algorithm as external/out of scope; this package supplies
// the concrete default cmd/server wires in, behind the same
// TokenDecoder interface a different deployment could swap out.
package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/catalyst-ai-dev/white-room/internal/model"
	"github.com/golang-jwt/jwt/v5"
)

// TokenDecoder turns a raw bearer token into an opaque userId.
type TokenDecoder interface {
	Decode(token string) (userID string, err error)
}

// ExtractToken locates the auth token per spec.md §6: query parameter
// "token", cookie "x-session-token", or "Authorization: Bearer ...",
// checked in that order.
func ExtractToken(r *http.Request) (string, error) {
	if t := r.URL.Query().Get("token"); t != "" {
		return t, nil
	}
	if c, err := r.Cookie("x-session-token"); err == nil && c.Value != "" {
		return c.Value, nil
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer "), nil
	}
	return "", fmt.Errorf("%w: no token in query, cookie, or header", model.ErrWebSocketAuthentication)
}

// JWTDecoder validates an HS256-signed JWT and extracts its "sub" claim
// as the userId.
type JWTDecoder struct {
	secret []byte
}

// NewJWTDecoder returns a decoder that verifies tokens with secret.
func NewJWTDecoder(secret string) *JWTDecoder {
	return &JWTDecoder{secret: []byte(secret)}
}

func (d *JWTDecoder) Decode(token string) (string, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return d.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("%w: %v", model.ErrWebSocketAuthentication, err)
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", fmt.Errorf("%w: token missing sub claim", model.ErrWebSocketAuthentication)
	}
	return sub, nil
}
