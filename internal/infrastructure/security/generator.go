package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	lowercase = "abcdefghijklmnopqrstuvwxyz"
	uppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits    = "0123456789"
	symbols   = "!@#$%&?"

	refreshTokenBytes = 64
)

// PasswordPolicy sets how many characters of each class a generated
// password contains.
type PasswordPolicy struct {
	Lower   int
	Upper   int
	Digits  int
	Symbols int
}

// DefaultPasswordPolicy yields eight characters, two of each class.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{Lower: 2, Upper: 2, Digits: 2, Symbols: 2}
}

// Generator produces secrets from crypto/rand.
type Generator struct {
	policy PasswordPolicy
}

func NewGenerator(policy PasswordPolicy) *Generator {
	return &Generator{policy: policy}
}

// RefreshToken returns 64 random bytes encoded as unpadded base64url.
func (g *Generator) RefreshToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("refresh token entropy: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Password draws each class from its pool and inserts every character at a
// random position of the result.
func (g *Generator) Password() (string, error) {
	pools := []struct {
		alphabet string
		n        int
	}{
		{lowercase, g.policy.Lower},
		{uppercase, g.policy.Upper},
		{digits, g.policy.Digits},
		{symbols, g.policy.Symbols},
	}

	var out []rune
	for _, p := range pools {
		if p.n <= 0 {
			continue
		}
		chunk, err := gonanoid.Generate(p.alphabet, p.n)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		for _, ch := range chunk {
			if out, err = insertAt(out, ch); err != nil {
				return "", err
			}
		}
	}
	return string(out), nil
}

// NumericCode returns a digits-only code of the given length.
func (g *Generator) NumericCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("code length must be positive, got %d", length)
	}
	code, err := gonanoid.Generate(digits, length)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return code, nil
}

func insertAt(s []rune, ch rune) ([]rune, error) {
	pos, err := rand.Int(rand.Reader, big.NewInt(int64(len(s)+1)))
	if err != nil {
		return nil, fmt.Errorf("random position: %w", err)
	}
	i := int(pos.Int64())
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = ch
	return s, nil
}
