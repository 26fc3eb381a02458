// Package token issues and verifies the registry's HMAC-signed access
// tokens. Claims carry the caller's role and group so permission checks
// never need a user lookup per request.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"specregistry/pkg/domain"
	dErrors "specregistry/pkg/domain-errors"
)

// Claims are the JWT claims of a registry access token.
type Claims struct {
	UserID  int    `json:"uid"`
	Role    string `json:"role"`
	GroupID *int   `json:"gid,omitempty"`
	jwt.RegisteredClaims
}

// JWTService creates and validates access tokens.
type JWTService struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

// NewJWTService constructs a JWTService.
func NewJWTService(signingKey, issuer string, ttl time.Duration) *JWTService {
	return &JWTService{signingKey: []byte(signingKey), issuer: issuer, ttl: ttl}
}

// Issue signs a token for the given identity. Returns the token and its
// expiry.
func (s *JWTService) Issue(userID domain.UserID, role domain.Role, groupID *domain.UserGroupID) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.ttl)

	var gid *int
	if groupID != nil {
		v := int(*groupID)
		gid = &v
	}
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:  int(userID),
		Role:    string(role),
		GroupID: gid,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})

	signed, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// VerifyToken validates a token and reconstructs the caller identity. A token
// carrying an unknown role is rejected rather than downgraded.
func (s *JWTService) VerifyToken(tokenString string) (*domain.UserContext, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	role, ok := domain.ParseRole(claims.Role)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "unknown role")
	}
	user := &domain.UserContext{
		UserID: domain.UserID(claims.UserID),
		Role:   role,
	}
	if claims.GroupID != nil {
		gid := domain.UserGroupID(*claims.GroupID)
		user.GroupID = &gid
	}
	return user, nil
}
