// Package auth resolves bearer session tokens to members. Identity
// itself lives outside this service; the tokens here are HMAC-signed
// session handles for an already-established member.
package auth

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/repcircle/repcircle/store"
)

const (
	issuer = "repcircle"

	// AccessTokenDuration is the lifetime of an issued session token.
	AccessTokenDuration = 7 * 24 * time.Hour
)

type contextKey int

// memberContextKey carries the authenticated *store.Member.
const memberContextKey contextKey = iota

// ClaimsMember is the JWT subject payload.
type ClaimsMember struct {
	jwt.RegisteredClaims
}

// GenerateSessionToken issues a signed token whose subject is the
// member id.
func GenerateSessionToken(memberID int32, secret string, now time.Time) (string, error) {
	claims := &ClaimsMember{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.Itoa(int(memberID)),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenDuration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Authenticator verifies bearer tokens and resolves the member row.
type Authenticator struct {
	store  *store.Store
	secret string
}

func NewAuthenticator(store *store.Store, secret string) *Authenticator {
	return &Authenticator{store: store, secret: secret}
}

// Authenticate resolves an Authorization header value to a member.
// Archived members authenticate like unknown ones: not at all.
func (a *Authenticator) Authenticate(ctx context.Context, authHeader string) (*store.Member, error) {
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || token == "" {
		return nil, fmt.Errorf("missing bearer token")
	}

	memberID, err := verifySessionToken(token, a.secret)
	if err != nil {
		return nil, err
	}

	member, err := a.store.GetMember(ctx, &store.FindMember{ID: &memberID})
	if err != nil {
		return nil, fmt.Errorf("resolve member: %w", err)
	}
	if member == nil || member.RowStatus == store.Archived {
		return nil, fmt.Errorf("member %d not found", memberID)
	}
	return member, nil
}

func verifySessionToken(tokenString, secret string) (int32, error) {
	claims := &ClaimsMember{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		return 0, fmt.Errorf("invalid session token: %w", err)
	}

	memberID, err := strconv.ParseInt(claims.Subject, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid subject %q", claims.Subject)
	}
	return int32(memberID), nil
}

// SetMemberInContext stores the authenticated member for handlers.
func SetMemberInContext(ctx context.Context, member *store.Member) context.Context {
	return context.WithValue(ctx, memberContextKey, member)
}

// MemberFromContext returns the authenticated member, nil when the
// request is unauthenticated.
func MemberFromContext(ctx context.Context) *store.Member {
	member, _ := ctx.Value(memberContextKey).(*store.Member)
	return member
}
