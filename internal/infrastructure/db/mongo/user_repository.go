package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ledgerly/finance-tracker/internal/core/domain"
)

const usersCollection = "users"

type UserRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection), now: time.Now}
}

type mongoUser struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	Username         string             `bson:"username"`
	Email            string             `bson:"email"`
	PasswordHash     string             `bson:"password_hash"`
	RefreshToken     string             `bson:"refresh_token,omitempty"`
	ResetToken       string             `bson:"reset_token,omitempty"`
	ResetTokenExpiry *time.Time         `bson:"reset_token_expiry,omitempty"`
	CreatedAt        time.Time          `bson:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at"`
}

func (mu *mongoUser) toDomain() *domain.User {
	u := &domain.User{
		ID:           mu.ID.Hex(),
		Username:     mu.Username,
		Email:        mu.Email,
		PasswordHash: mu.PasswordHash,
		RefreshToken: mu.RefreshToken,
		ResetToken:   mu.ResetToken,
		CreatedAt:    mu.CreatedAt.UTC(),
		UpdatedAt:    mu.UpdatedAt.UTC(),
	}
	if mu.ResetTokenExpiry != nil {
		exp := mu.ResetTokenExpiry.UTC()
		u.ResetTokenExpiry = &exp
	}
	return u
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoUser{
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt.UTC(),
		UpdatedAt:    user.UpdatedAt.UTC(),
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("insert user: unexpected id type %T", res.InsertedID)
	}
	doc.ID = id
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByRefreshToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"refresh_token": token})
}

// SetRefreshToken replaces the user's single stored session. An empty token
// removes it.
func (r *UserRepository) SetRefreshToken(ctx context.Context, userID, token string) error {
	return r.updateByID(ctx, userID, refreshTokenUpdate(token, r.now().UTC()))
}

func (r *UserRepository) SetResetToken(ctx context.Context, userID, token string, expiry time.Time) error {
	return r.updateByID(ctx, userID, bson.M{"$set": bson.M{
		"reset_token":        token,
		"reset_token_expiry": expiry.UTC(),
		"updated_at":         r.now().UTC(),
	}})
}

// ConsumeResetToken swaps the password hash and clears the reset fields in a
// single write, guarded by the token still being on record.
func (r *UserRepository) ConsumeResetToken(ctx context.Context, userID, token, passwordHash string) error {
	oid, ok := objectID(userID)
	if !ok || token == "" {
		return domain.ErrInvalidToken
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter, update := consumeResetToken(oid, token, passwordHash, r.now().UTC())
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrInvalidToken
	}
	return nil
}

// EnsureIndexes creates the unique email index and the refresh token lookup index.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "refresh_token", Value: 1}}, Options: options.Index().SetSparse(true)},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain(), nil
}

func (r *UserRepository) updateByID(ctx context.Context, userID string, update bson.M) error {
	oid, ok := objectID(userID)
	if !ok {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateByID(ctx, oid, update)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// refreshTokenUpdate overwrites the session slot, or removes the field when
// token is empty so the sparse index skips the document.
func refreshTokenUpdate(token string, now time.Time) bson.M {
	if token == "" {
		return bson.M{
			"$set":   bson.M{"updated_at": now},
			"$unset": bson.M{"refresh_token": ""},
		}
	}
	return bson.M{"$set": bson.M{"refresh_token": token, "updated_at": now}}
}

// consumeResetToken matches only while token is still on record and clears
// both reset fields in the same write, so a token works at most once.
func consumeResetToken(oid primitive.ObjectID, token, passwordHash string, now time.Time) (bson.M, bson.M) {
	filter := bson.M{"_id": oid, "reset_token": token}
	update := bson.M{
		"$set":   bson.M{"password_hash": passwordHash, "updated_at": now},
		"$unset": bson.M{"reset_token": "", "reset_token_expiry": ""},
	}
	return filter, update
}
