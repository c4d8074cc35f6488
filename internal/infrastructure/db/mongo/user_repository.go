package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cecimongo/identity-api/internal/core/domain"
)

const userCollection = "user"

type MongoUserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(userCollection)}
}

type mongoRole struct {
	ID   string `bson:"id,omitempty"`
	Name string `bson:"name"`
}

type mongoUser struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Name           string             `bson:"name"`
	Email          string             `bson:"email"`
	Password       string             `bson:"password"`
	Role           mongoRole          `bson:"role"`
	Validated      bool               `bson:"validated"`
	ChangePassword bool               `bson:"change_password"`
	Active         bool               `bson:"active"`
	CreatedAt      time.Time          `bson:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at"`
}

func toMongoUser(u *domain.User) mongoUser {
	return mongoUser{
		Name:           u.Name,
		Email:          u.Email,
		Password:       u.PasswordHash,
		Role:           mongoRole{ID: u.Role.ID, Name: u.Role.Name},
		Validated:      u.Validated,
		ChangePassword: u.ChangePassword,
		Active:         u.Active,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func (mu mongoUser) toDomain() *domain.User {
	return &domain.User{
		ID:             mu.ID.Hex(),
		Name:           mu.Name,
		Email:          mu.Email,
		PasswordHash:   mu.Password,
		Role:           domain.Role{ID: mu.Role.ID, Name: mu.Role.Name},
		Validated:      mu.Validated,
		ChangePassword: mu.ChangePassword,
		Active:         mu.Active,
		CreatedAt:      mu.CreatedAt.UTC(),
		UpdatedAt:      mu.UpdatedAt.UTC(),
	}
}

func (r *MongoUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	doc := toMongoUser(user)
	doc.ID = primitive.NewObjectID()

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return doc.toDomain(), nil
}

// Save replaces the stored user with the given state.
func (r *MongoUserRepository) Save(ctx context.Context, user *domain.User) error {
	oid, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return domain.ErrUserNotFound
	}

	doc := toMongoUser(user)
	doc.ID = oid

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("replace user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// FindByEmail matches the address exactly, as typed at login.
func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain(), nil
}

// Delete removes the user. A missing user is not an error.
func (r *MongoUserRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// Find returns one page of users matching filter, in insertion order.
func (r *MongoUserRepository) Find(ctx context.Context, filter domain.UserFilter) ([]*domain.User, error) {
	filter = filter.Normalize()
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(filter.Skip()).
		SetLimit(int64(filter.PerPage))

	cursor, err := r.coll.Find(ctx, userQuery(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoUser
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	users := make([]*domain.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.toDomain())
	}
	return users, nil
}

// Count returns the number of users matching filter, ignoring paging.
func (r *MongoUserRepository) Count(ctx context.Context, filter domain.UserFilter) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, userQuery(filter.Normalize()))
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// userQuery translates filter into a conjunction of clauses. Name and Search
// are case-insensitive substring matches, Email is exact and Role matches
// either the role id or its name.
func userQuery(f domain.UserFilter) bson.M {
	var and bson.A
	if f.Name != "" {
		and = append(and, bson.M{"name": containsPattern(f.Name)})
	}
	if f.Email != "" {
		and = append(and, bson.M{"email": f.Email})
	}
	if f.Role != "" {
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"role.id": f.Role},
			bson.M{"role.name": f.Role},
		}})
	}
	if f.Search != "" {
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"name": containsPattern(f.Search)},
			bson.M{"email": containsPattern(f.Search)},
		}})
	}
	if len(and) == 0 {
		return bson.M{}
	}
	return bson.M{"$and": and}
}

func containsPattern(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}
