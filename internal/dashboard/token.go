// Package dashboard builds short-lived signed links into the web dashboard.
// The token is single-purpose: it only has to survive the redirect from the
// chat into the browser, so it expires after one minute.
package dashboard

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is how long an auth link stays valid after it is issued.
const TokenTTL = time.Minute

// Claims carries the user identity into the dashboard session.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"user_id"`
}

// LinkBuilder signs dashboard auth links.
type LinkBuilder struct {
	baseURL string
	secret  []byte
	now     func() time.Time
}

// NewLinkBuilder creates a LinkBuilder. baseURL is the dashboard origin
// without a trailing slash.
func NewLinkBuilder(baseURL, secret string) *LinkBuilder {
	return &LinkBuilder{baseURL: baseURL, secret: []byte(secret), now: time.Now}
}

// BuildAuthLink returns a one-minute signed URL that logs the user into the
// dashboard.
func (b *LinkBuilder) BuildAuthLink(userID int64) (string, error) {
	now := b.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
		UserID: userID,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
	if err != nil {
		return "", fmt.Errorf("BuildAuthLink: signing token for user %d: %w", userID, err)
	}

	return fmt.Sprintf("%s/auth?token=%s", b.baseURL, url.QueryEscape(token)), nil
}

// ParseToken validates a token string and returns its claims. Used by the
// dashboard side of the handshake and by tests.
func (b *LinkBuilder) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return b.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("ParseToken: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("ParseToken: invalid claims")
	}
	return claims, nil
}
