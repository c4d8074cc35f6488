package domain

import "time"

// ValidationCode is a short-lived one-time secret proving control of the
// account e-mail. Only the newest code of a user is ever eligible.
type ValidationCode struct {
	ID        string
	UserID    string
	CodeHash  string
	ExpiresAt time.Time
	Active    bool
	CreatedAt time.Time
}

// IsExpired reports whether the code can no longer be submitted at now.
func (c *ValidationCode) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Newest returns the code with the latest CreatedAt, or nil for an empty slice.
// On a tie the earlier element wins, so pass codes newest first.
func Newest(codes []*ValidationCode) *ValidationCode {
	var newest *ValidationCode
	for _, c := range codes {
		if c == nil {
			continue
		}
		if newest == nil || c.CreatedAt.After(newest.CreatedAt) {
			newest = c
		}
	}
	return newest
}
