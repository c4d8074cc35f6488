package ports

import "context"

type VerificationService interface {
	SendCode(ctx context.Context, userID string) error
	ValidateCode(ctx context.Context, userID, code string) error
}
