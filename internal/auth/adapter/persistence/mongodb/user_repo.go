package mongodb

import (
	"context"
	"errors"
	"strings"
	"time"

	"emr-metadata-dashboard/internal/auth/domain/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection         = "users"
	revokedTokensCollection = "revoked_tokens"
)

// MongoAuthRepository stores users and revoked token ids.
type MongoAuthRepository struct {
	users   *mongo.Collection
	revoked *mongo.Collection
}

// NewMongoAuthRepository creates the repository and its indexes.
func NewMongoAuthRepository(ctx context.Context, db *mongo.Database) (*MongoAuthRepository, error) {
	repo := &MongoAuthRepository{
		users:   db.Collection(usersCollection),
		revoked: db.Collection(revokedTokensCollection),
	}

	// Email index for users (unique)
	_, err := repo.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, err
	}

	// Revocations disappear once the token would have expired anyway
	_, err = repo.revoked.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *MongoAuthRepository) CreateUser(ctx context.Context, user *model.User) error {
	if user == nil {
		return errors.New("user cannot be nil")
	}
	if _, err := r.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *MongoAuthRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.New("email cannot be empty")
	}
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoAuthRepository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, errors.New("user ID cannot be empty")
	}
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoAuthRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var user model.User
	if err := r.users.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *MongoAuthRepository) UpdatePassword(ctx context.Context, id, passwordHash string, at time.Time) error {
	res, err := r.users.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"password_hash": passwordHash, "updated_at": at}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *MongoAuthRepository) CountUsers(ctx context.Context) (int64, error) {
	return r.users.CountDocuments(ctx, bson.M{})
}

// Revoke records a token id until expiresAt. Revoking twice is not an error.
func (r *MongoAuthRepository) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	_, err := r.revoked.UpdateOne(ctx,
		bson.M{"_id": tokenID},
		bson.M{"$set": bson.M{"expires_at": expiresAt}},
		options.Update().SetUpsert(true))
	return err
}

func (r *MongoAuthRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.revoked.CountDocuments(ctx, bson.M{"_id": tokenID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
