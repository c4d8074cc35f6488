package ports

import "github.com/cecimongo/identity-api/internal/core/domain"

// TokenIssuer mints signed access tokens.
type TokenIssuer interface {
	IssueAccessToken(identity domain.Identity) (string, error)
}

// CredentialCodec stores secrets one-way and verifies candidates against them.
// needsRehash is true when the stored form should be upgraded.
type CredentialCodec interface {
	Hash(secret string) (string, error)
	Verify(secret, encoded string) (ok bool, needsRehash bool, err error)
}

// SecretGenerator produces the random secrets handed out to users.
type SecretGenerator interface {
	RefreshToken() (string, error)
	Password() (string, error)
	NumericCode(length int) (string, error)
}
