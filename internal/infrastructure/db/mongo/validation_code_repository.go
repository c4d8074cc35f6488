package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cecimongo/identity-api/internal/core/domain"
)

const validationCodeCollection = "validationCode"

type MongoValidationCodeRepository struct {
	coll *mongo.Collection
}

func NewValidationCodeRepository(db *mongo.Database) *MongoValidationCodeRepository {
	return &MongoValidationCodeRepository{coll: db.Collection(validationCodeCollection)}
}

type mongoValidationCode struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	Code      string             `bson:"code"`
	ExpiresAt time.Time          `bson:"expires_at"`
	Active    bool               `bson:"active"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (r *MongoValidationCodeRepository) Insert(ctx context.Context, c *domain.ValidationCode) error {
	doc := mongoValidationCode{
		ID:        primitive.NewObjectID(),
		UserID:    c.UserID,
		Code:      c.CodeHash,
		ExpiresAt: c.ExpiresAt,
		Active:    c.Active,
		CreatedAt: c.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert validation code: %w", err)
	}
	c.ID = doc.ID.Hex()
	return nil
}

// FindByUser returns every code issued to the user, newest first. Codes
// created within the same millisecond are ordered by _id, which grows with
// insertion.
func (r *MongoValidationCodeRepository) FindByUser(ctx context.Context, userID string) ([]*domain.ValidationCode, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	})

	cursor, err := r.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find validation codes: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoValidationCode
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode validation codes: %w", err)
	}

	codes := make([]*domain.ValidationCode, 0, len(docs))
	for _, d := range docs {
		codes = append(codes, &domain.ValidationCode{
			ID:        d.ID.Hex(),
			UserID:    d.UserID,
			CodeHash:  d.Code,
			ExpiresAt: d.ExpiresAt.UTC(),
			Active:    d.Active,
			CreatedAt: d.CreatedAt.UTC(),
		})
	}
	return codes, nil
}
