package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/reto/edge-gateway/internal/core/domain"
)

const (
	usersCollection    = "users"
	countersCollection = "counters"
	userSequenceKey    = "user_id"
)

// UserRepository is the MongoDB credential store. Email uniqueness is
// enforced by a unique index, so two concurrent registrations of the same
// email cannot both succeed regardless of what the caller checked first.
type UserRepository struct {
	users    *mongo.Collection
	counters *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		users:    db.Collection(usersCollection),
		counters: db.Collection(countersCollection),
	}
}

// EnsureIndexes creates the unique email index. Call once at startup; the
// operation is idempotent.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

type mongoUser struct {
	ID           int64  `bson:"_id"`
	Email        string `bson:"email"`
	PasswordHash string `bson:"password_hash"`
	Role         string `bson:"role"`
	CreatedAt    int64  `bson:"created_at"`
}

// Save assigns the next sequence id and inserts the user. A duplicate email
// surfaces from the unique index as domain.ErrEmailTaken.
func (r *UserRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	id, err := r.nextID(ctx)
	if err != nil {
		return nil, err
	}

	doc := mongoUser{
		ID:           id,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		CreatedAt:    user.CreatedAt.Unix(),
	}

	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	created := *user
	created.ID = id
	return &created, nil
}

// FindByEmail looks up a user by exact, case-sensitive email match.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var mu mongoUser
	if err := r.users.FindOne(ctx, bson.M{"email": email}).Decode(&mu); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	role, err := domain.ParseRole(mu.Role)
	if err != nil {
		return nil, fmt.Errorf("stored role for %s: %w", email, err)
	}

	return &domain.User{
		ID:           mu.ID,
		Email:        mu.Email,
		PasswordHash: mu.PasswordHash,
		Role:         role,
		CreatedAt:    unixToTime(mu.CreatedAt),
	}, nil
}

// ExistsByEmail reports whether a user with the email exists.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	n, err := r.users.CountDocuments(ctx, bson.M{"email": email}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n > 0, nil
}

// nextID atomically increments and returns the user id sequence.
func (r *UserRepository) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": userSequenceKey},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next user id: %w", err)
	}
	return counter.Seq, nil
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
