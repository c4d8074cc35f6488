package domain

import "strings"

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// UserFilter selects users for the admin listing. Empty fields match
// everything; Search matches name or e-mail.
type UserFilter struct {
	Name    string
	Email   string
	Role    string
	Search  string
	Page    int
	PerPage int
}

// Normalize trims the text fields and clamps paging to sane bounds.
func (f UserFilter) Normalize() UserFilter {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Role = strings.TrimSpace(f.Role)
	f.Search = strings.TrimSpace(f.Search)
	if f.Page < 1 {
		f.Page = 1
	}
	switch {
	case f.PerPage < 1:
		f.PerPage = DefaultPerPage
	case f.PerPage > MaxPerPage:
		f.PerPage = MaxPerPage
	}
	return f
}

// Skip is the number of matches before the requested page.
func (f UserFilter) Skip() int64 {
	return int64(f.Page-1) * int64(f.PerPage)
}

// UserPage is one page of a filtered listing.
type UserPage struct {
	Users      []*User
	TotalItems int64
	TotalPages int
}

// NewUserPage computes TotalPages from the match count.
func NewUserPage(users []*User, total int64, perPage int) *UserPage {
	pages := 0
	if perPage > 0 {
		pages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return &UserPage{Users: users, TotalItems: total, TotalPages: pages}
}

// RoleCatalog is the fixed set of roles an administrator may assign.
type RoleCatalog []Role

// Find matches ref against role IDs first and role names second.
func (rc RoleCatalog) Find(ref string) (Role, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Role{}, false
	}
	for _, r := range rc {
		if r.ID != "" && r.ID == ref {
			return r, true
		}
	}
	for _, r := range rc {
		if r.Name == ref {
			return r, true
		}
	}
	return Role{}, false
}
