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
	"golang.org/x/crypto/bcrypt"

	"github.com/gearguard/gearguard/internal/core/domain"
)

const usersCollection = "users"

// CredentialStore is the MongoDB-backed user record authority. Emails are
// stored normalized; the unique index on email is the uniqueness invariant.
type CredentialStore struct {
	coll *mongo.Collection
}

func NewCredentialStore(db *mongo.Database) *CredentialStore {
	return &CredentialStore{coll: db.Collection(usersCollection)}
}

// EnsureIndexes creates the unique email index. Call once at startup.
func (s *CredentialStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	FullName     string             `bson:"full_name"`
	Role         string             `bson:"role"`
	Phone        string             `bson:"phone,omitempty"`
	AvatarURL    string             `bson:"avatar_url,omitempty"`
	Active       bool               `bson:"active"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findOne(ctx, bson.M{"email": domain.NormalizeEmail(email)})
}

func (s *CredentialStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *CredentialStore) Verify(ctx context.Context, email, secret string) (*domain.User, error) {
	var doc userDoc
	if err := s.coll.FindOne(ctx, bson.M{"email": domain.NormalizeEmail(email)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(doc.PasswordHash), []byte(secret)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return doc.toDomain(), nil
}

func (s *CredentialStore) Create(ctx context.Context, user *domain.User, secret string) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash secret: %w", err)
	}

	now := time.Now().UTC()
	doc := userDoc{
		Username:     user.Username,
		Email:        domain.NormalizeEmail(user.Email),
		PasswordHash: string(hash),
		FullName:     user.FullName,
		Role:         string(user.Role),
		Phone:        user.Phone,
		AvatarURL:    user.AvatarURL,
		Active:       user.Active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (s *CredentialStore) UpdateProfile(ctx context.Context, id string, patch domain.ProfilePatch) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.FullName != nil {
		set["full_name"] = *patch.FullName
	}
	if patch.Phone != nil {
		set["phone"] = *patch.Phone
	}
	if patch.AvatarURL != nil {
		set["avatar_url"] = *patch.AvatarURL
	}

	var doc userDoc
	err = s.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *CredentialStore) ChangeSecret(ctx context.Context, id, current, next string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}

	var doc userDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(doc.PasswordHash), []byte(current)) != nil {
		return domain.ErrWrongPassword
	}

	return s.writeSecret(ctx, bson.M{"_id": oid}, next)
}

func (s *CredentialStore) ResetSecret(ctx context.Context, email, next string) error {
	return s.writeSecret(ctx, bson.M{"email": domain.NormalizeEmail(email)}, next)
}

func (s *CredentialStore) AnyAdminExists(ctx context.Context) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"role": string(domain.RoleAdmin)}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}
	return n > 0, nil
}

func (s *CredentialStore) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.findMany(ctx, bson.M{})
}

func (s *CredentialStore) ListUsersByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	return s.findMany(ctx, bson.M{"role": string(role)})
}

func (s *CredentialStore) writeSecret(ctx context.Context, filter bson.M, next string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash secret: %w", err)
	}

	res, err := s.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"password_hash": string(hash),
		"updated_at":    time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("update secret: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (s *CredentialStore) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDoc
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *CredentialStore) findMany(ctx context.Context, filter bson.M) ([]*domain.User, error) {
	cur, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	var users []*domain.User
	for cur.Next(ctx) {
		var doc userDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		users = append(users, doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (d userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		FullName:     d.FullName,
		Role:         domain.Role(d.Role),
		Phone:        d.Phone,
		AvatarURL:    d.AvatarURL,
		Active:       d.Active,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}
