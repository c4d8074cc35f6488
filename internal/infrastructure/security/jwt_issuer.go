package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cecimongo/identity-api/internal/core/domain"
)

const (
	defaultAccessTTL = 24 * time.Hour
	minSecretLength  = 32
)

// Claims is the claim set carried by access tokens.
type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name"`
	Role string `json:"role"`
}

// JWTIssuer signs and parses HS256 access tokens.
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTIssuer returns an issuer for the given secret. The secret is checked
// on use so a misconfigured server fails each issuance with ErrConfiguration.
func NewJWTIssuer(secret string, ttl time.Duration, now func() time.Time) *JWTIssuer {
	if ttl <= 0 {
		ttl = defaultAccessTTL
	}
	if now == nil {
		now = time.Now
	}
	return &JWTIssuer{secret: []byte(secret), ttl: ttl, now: now}
}

// CheckSecret reports whether the signing key is usable.
func (i *JWTIssuer) CheckSecret() error {
	if len(i.secret) == 0 {
		return fmt.Errorf("%w: jwt signing key is not set", domain.ErrConfiguration)
	}
	if len(i.secret) < minSecretLength {
		return fmt.Errorf("%w: jwt signing key must be at least %d bytes", domain.ErrConfiguration, minSecretLength)
	}
	return nil
}

func (i *JWTIssuer) IssueAccessToken(identity domain.Identity) (string, error) {
	if err := i.CheckSecret(); err != nil {
		return "", err
	}
	if identity.UserID == "" || identity.Role == "" {
		return "", domain.ErrInvalidIdentity
	}

	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Name: identity.Name,
		Role: identity.Role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken validates signature, algorithm and expiry of a token and
// returns its claims.
func (i *JWTIssuer) ParseAccessToken(token string) (*Claims, error) {
	if err := i.CheckSecret(); err != nil {
		return nil, err
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, domain.ErrUnauthorized
	}
	if claims.Subject == "" || claims.Role == "" {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}
