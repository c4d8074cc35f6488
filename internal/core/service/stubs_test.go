package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cecimongo/identity-api/internal/core/domain"
)

type stubUserRepo struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	saves   int
	findErr error
	saveErr error
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	r := &stubUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		r.users[u.ID] = cloneUser(u)
	}
	return r
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) get(id string) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneUser(r.users[id])
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	created := cloneUser(user)
	created.ID = fmt.Sprintf("user-%d", len(r.users)+1)
	r.users[created.ID] = cloneUser(created)
	return created, nil
}

func (r *stubUserRepo) Save(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

// matching applies the role and search criteria only, ordered by id.
func (r *stubUserRepo) matching(f domain.UserFilter) []*domain.User {
	var out []*domain.User
	for _, u := range r.users {
		if f.Role != "" && u.Role.Name != f.Role && u.Role.ID != f.Role {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(u.Name+" "+u.Email), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *stubUserRepo) Find(_ context.Context, f domain.UserFilter) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	all := r.matching(f)
	start := min(int(f.Skip()), len(all))
	end := min(start+f.PerPage, len(all))
	return all[start:end], nil
}

func (r *stubUserRepo) Count(_ context.Context, f domain.UserFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.matching(f))), nil
}

type stubTokenRepo struct {
	mu        sync.Mutex
	tokens    map[string]*domain.RefreshToken
	inserts   int
	insertErr error
	findErr   error
}

func newStubTokenRepo() *stubTokenRepo {
	return &stubTokenRepo{tokens: make(map[string]*domain.RefreshToken)}
}

func cloneToken(t *domain.RefreshToken) *domain.RefreshToken {
	clone := *t
	if t.RevokedAt != nil {
		at := *t.RevokedAt
		clone.RevokedAt = &at
	}
	return &clone
}

func (r *stubTokenRepo) get(token string) *domain.RefreshToken {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return nil
	}
	return cloneToken(t)
}

func (r *stubTokenRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

func (r *stubTokenRepo) FindByToken(_ context.Context, token string) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	t, ok := r.tokens[token]
	if !ok {
		return nil, domain.ErrRefreshTokenNotFound
	}
	return cloneToken(t), nil
}

func (r *stubTokenRepo) Insert(_ context.Context, token *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	if _, exists := r.tokens[token.Token]; exists {
		return errors.New("duplicate token")
	}
	r.inserts++
	r.tokens[token.Token] = cloneToken(token)
	return nil
}

func (r *stubTokenRepo) Revoke(_ context.Context, token string, rev domain.Revocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok || !t.IsActive(rev.At) {
		return domain.ErrTokenNotActive
	}
	at := rev.At
	t.RevokedAt = &at
	t.RevokedByIP = rev.ByIP
	t.ReplacedByToken = rev.ReplacedBy
	return nil
}

func (r *stubTokenRepo) RevokeAllForUser(_ context.Context, userID string, rev domain.Revocation) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, t := range r.tokens {
		if t.UserID != userID || !t.IsActive(rev.At) {
			continue
		}
		at := rev.At
		t.RevokedAt = &at
		t.RevokedByIP = rev.ByIP
		n++
	}
	return n, nil
}

type stubCodeRepo struct {
	mu        sync.Mutex
	codes     []*domain.ValidationCode
	insertErr error
}

func (r *stubCodeRepo) Insert(_ context.Context, code *domain.ValidationCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	clone := *code
	clone.ID = fmt.Sprintf("code-%d", len(r.codes)+1)
	r.codes = append(r.codes, &clone)
	return nil
}

func (r *stubCodeRepo) FindByUser(_ context.Context, userID string) ([]*domain.ValidationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.ValidationCode
	for _, c := range r.codes {
		if c.UserID == userID {
			clone := *c
			out = append(out, &clone)
		}
	}
	return out, nil
}

// stubIssuer encodes the identity into the token so tests can inspect it.
type stubIssuer struct {
	err error
}

func (i *stubIssuer) IssueAccessToken(id domain.Identity) (string, error) {
	if i.err != nil {
		return "", i.err
	}
	return "access:" + id.UserID + ":" + id.Role, nil
}

// prefixCodec is a transparent stand-in for a one-way hash.
type prefixCodec struct {
	legacy string
}

func (prefixCodec) Hash(secret string) (string, error) {
	return "hashed:" + secret, nil
}

func (c prefixCodec) Verify(secret, encoded string) (bool, bool, error) {
	if c.legacy != "" && strings.HasPrefix(encoded, c.legacy) {
		return encoded == c.legacy+secret, true, nil
	}
	return encoded == "hashed:"+secret, false, nil
}

type seqGenerator struct {
	mu   sync.Mutex
	n    int
	code []string
}

func (g *seqGenerator) RefreshToken() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("rt-%d", g.n), nil
}

func (g *seqGenerator) Password() (string, error) {
	return "aB1!cD2?", nil
}

func (g *seqGenerator) NumericCode(length int) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.code) == 0 {
		return strings.Repeat("1", length), nil
	}
	c := g.code[0]
	g.code = g.code[1:]
	return c, nil
}

type recordingQueue struct {
	mu   sync.Mutex
	sent []domain.Email
}

func (q *recordingQueue) Enqueue(e domain.Email) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.sent = append(q.sent, e)
}

func (q *recordingQueue) emails() []domain.Email {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]domain.Email(nil), q.sent...)
}

// stubThrottle answers allow for every key, or counts per key when max is set.
type stubThrottle struct {
	allow  bool
	max    int
	err    error
	keys   []string
	counts map[string]int
	resets []string
}

func (t *stubThrottle) Allow(_ context.Context, key string) (bool, error) {
	t.keys = append(t.keys, key)
	if t.err != nil {
		return false, t.err
	}
	if t.max > 0 {
		if t.counts == nil {
			t.counts = make(map[string]int)
		}
		t.counts[key]++
		return t.counts[key] <= t.max, nil
	}
	return t.allow, nil
}

func (t *stubThrottle) Reset(_ context.Context, key string) error {
	t.resets = append(t.resets, key)
	delete(t.counts, key)
	return nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)}
}

func aliceUser() *domain.User {
	return &domain.User{
		ID:           "u1",
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: "hashed:correct-pw",
		Role:         domain.Role{ID: "r1", Name: domain.RoleBasic},
		Active:       true,
	}
}
