package security

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func testParams() Argon2Params {
	return Argon2Params{Memory: minMemoryKB, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

func TestArgon2Codec_HashAndVerify(t *testing.T) {
	codec, err := NewArgon2Codec(testParams())
	if err != nil {
		t.Fatalf("NewArgon2Codec: %v", err)
	}

	encoded, err := codec.Hash("correct-pw")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected encoding %q", encoded)
	}
	if strings.Contains(encoded, "correct-pw") {
		t.Fatalf("hash leaks plaintext")
	}

	ok, rehash, err := codec.Verify("correct-pw", encoded)
	if err != nil || !ok || rehash {
		t.Fatalf("expected match without rehash, got ok=%v rehash=%v err=%v", ok, rehash, err)
	}

	ok, _, err = codec.Verify("wrong-pw", encoded)
	if err != nil || ok {
		t.Fatalf("expected mismatch, got ok=%v err=%v", ok, err)
	}
}

func TestArgon2Codec_SaltedHashesDiffer(t *testing.T) {
	codec, _ := NewArgon2Codec(testParams())

	a, _ := codec.Hash("123456")
	b, _ := codec.Hash("123456")
	if a == b {
		t.Fatalf("expected different salts to yield different hashes")
	}
}

func TestArgon2Codec_OutdatedParamsNeedRehash(t *testing.T) {
	weak, _ := NewArgon2Codec(testParams())
	encoded, _ := weak.Hash("pw")

	stronger := testParams()
	stronger.Time = 2
	codec, _ := NewArgon2Codec(stronger)

	ok, rehash, err := codec.Verify("pw", encoded)
	if err != nil || !ok || !rehash {
		t.Fatalf("expected match with rehash, got ok=%v rehash=%v err=%v", ok, rehash, err)
	}
}

func TestArgon2Codec_LegacyBcrypt(t *testing.T) {
	codec, _ := NewArgon2Codec(testParams())
	legacy, err := bcrypt.GenerateFromPassword([]byte("old-pw"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	ok, rehash, err := codec.Verify("old-pw", string(legacy))
	if err != nil || !ok || !rehash {
		t.Fatalf("expected legacy match flagged for rehash, got ok=%v rehash=%v err=%v", ok, rehash, err)
	}

	ok, _, err = codec.Verify("nope", string(legacy))
	if err != nil || ok {
		t.Fatalf("expected legacy mismatch, got ok=%v err=%v", ok, err)
	}
}

func TestArgon2Codec_MalformedHash(t *testing.T) {
	codec, _ := NewArgon2Codec(testParams())

	cases := []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
	}
	for _, c := range cases {
		if ok, _, err := codec.Verify("pw", c); err == nil || ok {
			t.Fatalf("expected error for %q, got ok=%v err=%v", c, ok, err)
		}
	}
}

func TestNewArgon2Codec_RejectsWeakParams(t *testing.T) {
	p := testParams()
	p.Memory = 1024
	if _, err := NewArgon2Codec(p); !errors.Is(err, ErrInvalidArgon2Params) {
		t.Fatalf("expected ErrInvalidArgon2Params, got %v", err)
	}

	p = testParams()
	p.SaltLength = 8
	if _, err := NewArgon2Codec(p); !errors.Is(err, ErrInvalidArgon2Params) {
		t.Fatalf("expected ErrInvalidArgon2Params, got %v", err)
	}
}
