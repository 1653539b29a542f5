package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"user-management/internal/data/entity"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

const (
	usersCollection = "users"

	mongoEmailIndex = "users_email_key"
	mongoPhoneIndex = "users_phone_number_key"
)

// userDocument is the BSON shape of a user. The UUID is stored as its string
// form in _id.
type userDocument struct {
	ID           string     `bson:"_id"`
	Username     string     `bson:"username"`
	Email        string     `bson:"email"`
	PhoneNumber  *string    `bson:"phone_number,omitempty"`
	FirstName    string     `bson:"first_name"`
	LastName     string     `bson:"last_name"`
	DOB          *time.Time `bson:"dob,omitempty"`
	DisplayName  *string    `bson:"display_name,omitempty"`
	PasswordHash string     `bson:"password_hash"`
	IsEnabled    bool       `bson:"is_enabled"`
	IsDeleted    bool       `bson:"is_deleted"`
	CreatedAt    time.Time  `bson:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at"`
	DeletedAt    *time.Time `bson:"deleted_at,omitempty"`
}

type userMongoRepository struct {
	coll *mongo.Collection
	log  *zap.Logger
}

func NewUserMongoRepository(db *mongo.Database, log *zap.Logger) UserRepository {
	return &userMongoRepository{
		coll: db.Collection(usersCollection),
		log:  log,
	}
}

// EnsureUserIndexes creates the unique indexes the uniqueness rules rely on.
func EnsureUserIndexes(ctx context.Context, db *mongo.Database) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName(mongoEmailIndex).SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "phone_number", Value: 1}},
			Options: options.Index().
				SetName(mongoPhoneIndex).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"phone_number": bson.M{"$type": "string"}}),
		},
		{
			Keys:    bson.D{{Key: "is_deleted", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("users_listing"),
		},
	}

	if _, err := db.Collection(usersCollection).Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (mr *userMongoRepository) Create(ctx context.Context, user *entity.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	user.UpdatedAt = user.CreatedAt

	if _, err := mr.coll.InsertOne(ctx, toDocument(user)); err != nil {
		if dup := mongoDuplicateError(err); dup != nil {
			return dup
		}
		mr.log.Error("Failed to create user",
			zap.Error(err),
			zap.String("email", user.Email),
			zap.String("username", user.Username),
		)
		return fmt.Errorf("create user %s: %w", user.Email, err)
	}

	return nil
}

func (mr *userMongoRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, err := mr.findOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		mr.log.Error("Failed to find user by ID",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return nil, fmt.Errorf("find user by ID %s: %w", id.String(), err)
	}
	return user, nil
}

func (mr *userMongoRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	user, err := mr.findOne(ctx, emailFilter(email))
	if err != nil {
		mr.log.Error("Failed to find user by email",
			zap.Error(err),
			zap.String("email", email),
		)
		return nil, fmt.Errorf("find user by email %s: %w", email, err)
	}
	return user, nil
}

func (mr *userMongoRepository) FindByPhoneNumber(ctx context.Context, phone string) (*entity.User, error) {
	user, err := mr.findOne(ctx, bson.M{"phone_number": phone})
	if err != nil {
		mr.log.Error("Failed to find user by phone number",
			zap.Error(err),
			zap.String("phone_number", phone),
		)
		return nil, fmt.Errorf("find user by phone number %s: %w", phone, err)
	}
	return user, nil
}

func (mr *userMongoRepository) FindAll(ctx context.Context, limit, offset int) ([]*entity.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := mr.coll.Find(ctx, bson.M{"is_deleted": false}, opts)
	if err != nil {
		mr.log.Error("Failed to get all users",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find all users limit %d offset %d: %w", limit, offset, err)
	}

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		mr.log.Error("Failed to decode users", zap.Error(err))
		return nil, fmt.Errorf("decode users: %w", err)
	}

	users := make([]*entity.User, 0, len(docs))
	for i := range docs {
		user, err := fromDocument(&docs[i])
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (mr *userMongoRepository) CountAll(ctx context.Context) (int64, error) {
	count, err := mr.coll.CountDocuments(ctx, bson.M{"is_deleted": false})
	if err != nil {
		mr.log.Error("Database error counting users", zap.Error(err))
		return 0, fmt.Errorf("count all users: %w", err)
	}
	return count, nil
}

func (mr *userMongoRepository) Update(ctx context.Context, id uuid.UUID, fields entity.UserUpdate) (bool, error) {
	if fields.IsEmpty() {
		return false, nil
	}

	filter := bson.M{"_id": id.String(), "is_deleted": false}
	result, err := mr.coll.UpdateOne(ctx, filter, updateDocument(fields, time.Now()))
	if err != nil {
		if dup := mongoDuplicateError(err); dup != nil {
			return false, dup
		}
		mr.log.Error("Failed to update user",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return false, fmt.Errorf("update user %s: %w", id.String(), err)
	}

	return result.ModifiedCount > 0, nil
}

func (mr *userMongoRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	now := time.Now()
	filter := bson.M{"_id": id.String(), "is_deleted": false}
	update := bson.M{"$set": bson.M{
		"is_deleted": true,
		"is_enabled": false,
		"deleted_at": now,
		"updated_at": now,
	}}

	result, err := mr.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		mr.log.Error("Failed to delete user",
			zap.Error(err),
			zap.String("id", id.String()),
		)
		return false, fmt.Errorf("delete user %s: %w", id.String(), err)
	}

	if result.ModifiedCount == 0 {
		return false, nil
	}

	mr.log.Info("User soft-deleted", zap.String("id", id.String()))
	return true, nil
}

func (mr *userMongoRepository) HardDelete(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := mr.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		mr.log.Error("Failed to purge user",
			zap.Error(err),
			zap.String("id", id.String()),
		)
		return false, fmt.Errorf("purge user %s: %w", id.String(), err)
	}

	if result.DeletedCount == 0 {
		return false, nil
	}

	mr.log.Info("User purged", zap.String("id", id.String()))
	return true, nil
}

// ==================== HELPERS ====================

// findOne prefers an active match over a soft-deleted one.
func (mr *userMongoRepository) findOne(ctx context.Context, filter any) (*entity.User, error) {
	opts := options.FindOne().SetSort(bson.D{
		{Key: "is_deleted", Value: 1},
		{Key: "created_at", Value: -1},
	})

	var doc userDocument
	err := mr.coll.FindOne(ctx, filter, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return fromDocument(&doc)
}

// emailFilter matches the whole address case-insensitively. The input is
// quoted so it cannot act as a pattern.
func emailFilter(email string) bson.M {
	return bson.M{"email": bson.Regex{
		Pattern: "^" + regexp.QuoteMeta(email) + "$",
		Options: "i",
	}}
}

func updateDocument(fields entity.UserUpdate, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	unset := bson.M{}

	if fields.Username != nil {
		set["username"] = *fields.Username
	}
	if fields.FirstName != nil {
		set["first_name"] = *fields.FirstName
	}
	if fields.LastName != nil {
		set["last_name"] = *fields.LastName
	}
	if fields.DisplayName != nil {
		if *fields.DisplayName == "" {
			unset["display_name"] = ""
		} else {
			set["display_name"] = *fields.DisplayName
		}
	}
	if fields.PhoneNumber != nil {
		if *fields.PhoneNumber == "" {
			unset["phone_number"] = ""
		} else {
			set["phone_number"] = *fields.PhoneNumber
		}
	}
	if fields.DOB != nil {
		if fields.DOB.IsZero() {
			unset["dob"] = ""
		} else {
			set["dob"] = *fields.DOB
		}
	}
	if fields.IsEnabled != nil {
		set["is_enabled"] = *fields.IsEnabled
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

func toDocument(u *entity.User) *userDocument {
	return &userDocument{
		ID:           u.ID.String(),
		Username:     u.Username,
		Email:        u.Email,
		PhoneNumber:  u.PhoneNumber,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		DOB:          u.DOB,
		DisplayName:  u.DisplayName,
		PasswordHash: u.PasswordHash,
		IsEnabled:    u.IsEnabled,
		IsDeleted:    u.IsDeleted,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
		DeletedAt:    u.DeletedAt,
	}
}

func fromDocument(d *userDocument) (*entity.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("decode user id %q: %w", d.ID, err)
	}
	return &entity.User{
		Base: entity.Base{
			ID:        id,
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.UpdatedAt,
			DeletedAt: d.DeletedAt,
		},
		Username:     d.Username,
		Email:        d.Email,
		PhoneNumber:  d.PhoneNumber,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		DOB:          d.DOB,
		DisplayName:  d.DisplayName,
		PasswordHash: d.PasswordHash,
		IsEnabled:    d.IsEnabled,
		IsDeleted:    d.IsDeleted,
	}, nil
}

func mongoDuplicateError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, mongoEmailIndex):
		return fmt.Errorf("%w: %s", ErrDuplicateEmail, msg)
	case strings.Contains(msg, mongoPhoneIndex):
		return fmt.Errorf("%w: %s", ErrDuplicatePhone, msg)
	}
	return nil
}
