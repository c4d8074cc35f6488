package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cecimongo/identity-api/internal/core/domain"
)

const refreshTokenCollection = "refreshToken"

type MongoRefreshTokenRepository struct {
	coll *mongo.Collection
}

func NewRefreshTokenRepository(db *mongo.Database) *MongoRefreshTokenRepository {
	return &MongoRefreshTokenRepository{coll: db.Collection(refreshTokenCollection)}
}

type mongoIdentity struct {
	UserID string `bson:"user_id"`
	Name   string `bson:"name"`
	Email  string `bson:"email"`
	Role   string `bson:"role"`
}

type mongoRefreshToken struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Token           string             `bson:"token"`
	UserID          string             `bson:"user_id"`
	Subject         mongoIdentity      `bson:"subject"`
	ExpiresAt       time.Time          `bson:"expires_at"`
	CreatedAt       time.Time          `bson:"created_at"`
	CreatedByIP     string             `bson:"created_by_ip"`
	RevokedAt       *time.Time         `bson:"revoked_at"`
	RevokedByIP     string             `bson:"revoked_by_ip,omitempty"`
	ReplacedByToken string             `bson:"replaced_by_token,omitempty"`
}

func (r *MongoRefreshTokenRepository) Insert(ctx context.Context, t *domain.RefreshToken) error {
	doc := mongoRefreshToken{
		ID:     primitive.NewObjectID(),
		Token:  t.Token,
		UserID: t.UserID,
		Subject: mongoIdentity{
			UserID: t.Subject.UserID,
			Name:   t.Subject.Name,
			Email:  t.Subject.Email,
			Role:   t.Subject.Role,
		},
		ExpiresAt:   t.ExpiresAt,
		CreatedAt:   t.CreatedAt,
		CreatedByIP: t.CreatedByIP,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	t.ID = doc.ID.Hex()
	return nil
}

func (r *MongoRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	var doc mongoRefreshToken
	if err := r.coll.FindOne(ctx, bson.M{"token": token}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}

	rt := &domain.RefreshToken{
		ID:     doc.ID.Hex(),
		Token:  doc.Token,
		UserID: doc.UserID,
		Subject: domain.Identity{
			UserID: doc.Subject.UserID,
			Name:   doc.Subject.Name,
			Email:  doc.Subject.Email,
			Role:   doc.Subject.Role,
		},
		ExpiresAt:       doc.ExpiresAt.UTC(),
		CreatedAt:       doc.CreatedAt.UTC(),
		CreatedByIP:     doc.CreatedByIP,
		RevokedByIP:     doc.RevokedByIP,
		ReplacedByToken: doc.ReplacedByToken,
	}
	if doc.RevokedAt != nil {
		at := doc.RevokedAt.UTC()
		rt.RevokedAt = &at
	}
	return rt, nil
}

// Revoke flips revoked_at from null in a single conditional update, so only
// one caller can ever revoke (and replace) a given token.
func (r *MongoRefreshTokenRepository) Revoke(ctx context.Context, token string, rev domain.Revocation) error {
	filter := bson.M{
		"token":      token,
		"revoked_at": nil,
		"expires_at": bson.M{"$gt": rev.At},
	}

	set := bson.M{
		"revoked_at":    rev.At,
		"revoked_by_ip": rev.ByIP,
	}
	if rev.ReplacedBy != "" {
		set["replaced_by_token"] = rev.ReplacedBy
	}

	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrTokenNotActive
	}
	return nil
}

// RevokeAllForUser terminally revokes every active token of userID.
func (r *MongoRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string, rev domain.Revocation) (int64, error) {
	filter := bson.M{
		"user_id":    userID,
		"revoked_at": nil,
		"expires_at": bson.M{"$gt": rev.At},
	}
	set := bson.M{
		"revoked_at":    rev.At,
		"revoked_by_ip": rev.ByIP,
	}

	res, err := r.coll.UpdateMany(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return 0, fmt.Errorf("revoke user refresh tokens: %w", err)
	}
	return res.ModifiedCount, nil
}
