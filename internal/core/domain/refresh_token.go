package domain

import "time"

// RefreshToken is one link of a rotation chain. Records are never deleted;
// they are revoked once and optionally point at their successor.
type RefreshToken struct {
	ID              string
	Token           string
	UserID          string
	Subject         Identity
	ExpiresAt       time.Time
	CreatedAt       time.Time
	CreatedByIP     string
	RevokedAt       *time.Time
	RevokedByIP     string
	ReplacedByToken string
}

// IsExpired reports whether the token lifetime has elapsed at now.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// IsRevoked reports whether the token was revoked.
func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// IsActive reports whether the token may still be exchanged.
func (t *RefreshToken) IsActive(now time.Time) bool {
	return !t.IsRevoked() && !t.IsExpired(now)
}

// Revocation describes the single allowed transition of a token out of the
// active state. ReplacedBy is empty for a terminal revocation.
type Revocation struct {
	At         time.Time
	ByIP       string
	ReplacedBy string
}
