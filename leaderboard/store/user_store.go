// leaderboard/store/user_store.go
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/playhive/leaderboard-service/shared/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateUser is returned when a username is already taken.
var ErrDuplicateUser = errors.New("username already taken")

// UserStore is the MongoDB data store for authentication users.
type UserStore struct {
	collection *mongo.Collection
}

// NewUserStore creates a new UserStore instance.
func NewUserStore(collection *mongo.Collection) *UserStore {
	return &UserStore{
		collection: collection,
	}
}

// EnsureIndexes creates the unique username index duplicate detection
// depends on.
func (us *UserStore) EnsureIndexes(ctx context.Context) error {
	_, err := us.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}

// CreateUser inserts a new user document.
func (us *UserStore) CreateUser(ctx context.Context, user *models.User) error {
	if _, err := us.collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("failed to create user %s: %w", user.Username, err)
	}
	return nil
}

// GetUserByUsername retrieves a user by username.
func (us *UserStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	filter := bson.M{"username": username}
	if err := us.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, err // mongo.ErrNoDocuments when absent
	}
	return &user, nil
}
