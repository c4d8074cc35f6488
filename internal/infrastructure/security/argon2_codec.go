package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	algorithmID = "argon2id"

	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
)

var (
	ErrInvalidHash         = errors.New("invalid credential hash")
	ErrUnsupportedHash     = errors.New("unsupported credential hash")
	ErrInvalidArgon2Params = errors.New("invalid argon2 parameters")
)

// Argon2Params tunes the argon2id key derivation.
type Argon2Params struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params follows the RFC 9106 second recommended option.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Argon2Codec hashes secrets into PHC strings
// ($argon2id$v=19$m=..,t=..,p=..$salt$hash) and verifies them in constant
// time. bcrypt hashes are still accepted on verify and flagged for rehash.
type Argon2Codec struct {
	params Argon2Params
}

func NewArgon2Codec(params Argon2Params) (*Argon2Codec, error) {
	switch {
	case params.Memory < minMemoryKB:
		return nil, fmt.Errorf("%w: memory must be >= %d KB", ErrInvalidArgon2Params, minMemoryKB)
	case params.Time < minTimeCost:
		return nil, fmt.Errorf("%w: time must be >= %d", ErrInvalidArgon2Params, minTimeCost)
	case params.Parallelism < minParallelism:
		return nil, fmt.Errorf("%w: parallelism must be >= %d", ErrInvalidArgon2Params, minParallelism)
	case params.SaltLength < minSaltLength:
		return nil, fmt.Errorf("%w: salt length must be >= %d", ErrInvalidArgon2Params, minSaltLength)
	case params.KeyLength < minKeyLength:
		return nil, fmt.Errorf("%w: key length must be >= %d", ErrInvalidArgon2Params, minKeyLength)
	}
	return &Argon2Codec{params: params}, nil
}

func (c *Argon2Codec) Hash(secret string) (string, error) {
	salt := make([]byte, c.params.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}

	key := argon2.IDKey([]byte(secret), salt, c.params.Time, c.params.Memory, c.params.Parallelism, c.params.KeyLength)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		c.params.Memory,
		c.params.Time,
		c.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (c *Argon2Codec) Verify(secret, encoded string) (bool, bool, error) {
	if isBcrypt(encoded) {
		err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(secret))
		switch {
		case err == nil:
			return true, true, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, false, nil
		default:
			return false, false, fmt.Errorf("%w: %v", ErrInvalidHash, err)
		}
	}

	h, err := parsePHC(encoded)
	if err != nil {
		return false, false, err
	}

	computed := argon2.IDKey([]byte(secret), h.salt, h.time, h.memory, h.parallelism, uint32(len(h.key)))
	if subtle.ConstantTimeCompare(computed, h.key) != 1 {
		return false, false, nil
	}
	return true, c.outdated(h), nil
}

func (c *Argon2Codec) outdated(h *phcHash) bool {
	return h.memory < c.params.Memory ||
		h.time < c.params.Time ||
		h.parallelism < c.params.Parallelism ||
		uint32(len(h.key)) != c.params.KeyLength
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}

type phcHash struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func parsePHC(encoded string) (*phcHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, ErrInvalidHash
	}
	if parts[1] != algorithmID {
		return nil, ErrUnsupportedHash
	}

	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if err != nil || !strings.HasPrefix(parts[2], "v=") {
		return nil, ErrInvalidHash
	}
	if version != argon2.Version {
		return nil, ErrUnsupportedHash
	}

	h := &phcHash{}
	var seen int
	for _, pair := range strings.Split(parts[3], ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, ErrInvalidHash
		}
		switch k {
		case "m":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || n < uint64(minMemoryKB) {
				return nil, ErrInvalidHash
			}
			h.memory = uint32(n)
		case "t":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || n < uint64(minTimeCost) {
				return nil, ErrInvalidHash
			}
			h.time = uint32(n)
		case "p":
			n, err := strconv.ParseUint(v, 10, 8)
			if err != nil || n < uint64(minParallelism) {
				return nil, ErrInvalidHash
			}
			h.parallelism = uint8(n)
		default:
			return nil, ErrInvalidHash
		}
		seen++
	}
	if seen != 3 || h.memory == 0 || h.time == 0 || h.parallelism == 0 {
		return nil, ErrInvalidHash
	}

	if h.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(h.salt) < int(minSaltLength) {
		return nil, ErrInvalidHash
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(h.key) == 0 {
		return nil, ErrInvalidHash
	}
	return h, nil
}
