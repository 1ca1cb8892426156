package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/SufailSLX/budget-tracker/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	// ErrNotFound is returned when a transaction or notification does not
	// exist, or exists but belongs to another user. The two cases are never
	// distinguished.
	ErrNotFound = errors.New("not found")
)

// UserRepository defines the persistence operations for user documents.
// Profile mutations are explicit per-field writes rather than a document
// $set: the omitempty bson tags would drop an emptied field (for example a
// cleared linked_accounts list) from a whole-document update, so the old
// value would survive in Mongo.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error

	// SetMonthlyBudget stores the monthly budget on the profile.
	SetMonthlyBudget(ctx context.Context, id primitive.ObjectID, amount float64) error
	// SetLinkedAccounts replaces the linked-account list, including with an
	// empty one.
	SetLinkedAccounts(ctx context.Context, id primitive.ObjectID, accounts []models.LinkedAccount) error
	// SetPreferences replaces the preferences sub-document.
	SetPreferences(ctx context.Context, id primitive.ObjectID, prefs models.Preferences) error

	// SetOTP replaces the pending verification state, resetting attempts.
	SetOTP(ctx context.Context, id primitive.ObjectID, otp *models.OTPState) error
	// IncrementOTPAttempts bumps the attempt counter of the pending OTP.
	IncrementOTPAttempts(ctx context.Context, id primitive.ObjectID) error
	// MarkVerified flags the user as verified and removes the OTP state.
	MarkVerified(ctx context.Context, id primitive.ObjectID) error
	// SetPin stores the PIN hash only if the user is verified and has no PIN
	// yet. Returns false when no document matched, so concurrent PIN-set
	// attempts resolve to exactly one winner.
	SetPin(ctx context.Context, email, pinHash string) (bool, error)
}

type mongoUserRepo struct {
	col *mongo.Collection
}

// NewMongoUserRepo builds the users repository and ensures its indexes.
func NewMongoUserRepo(db *mongo.Database) UserRepository {
	col := db.Collection("users")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return &mongoUserRepo{col: col}
}

func (r *mongoUserRepo) Create(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	res, err := r.col.InsertOne(ctx, u)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = oid
	}
	return nil
}

func (r *mongoUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *mongoUserRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// profileUpdate wraps explicit field keys into a $set document. Map keys are
// always marshaled, so cleared values (an empty linked_accounts list) reach
// Mongo instead of being skipped by omitempty.
func profileUpdate(fields bson.M) bson.M {
	fields["updated_at"] = time.Now().UTC()
	return bson.M{"$set": fields}
}

func (r *mongoUserRepo) SetMonthlyBudget(ctx context.Context, id primitive.ObjectID, amount float64) error {
	_, err := r.col.UpdateByID(ctx, id, profileUpdate(bson.M{"monthly_budget": amount}))
	return err
}

func (r *mongoUserRepo) SetLinkedAccounts(ctx context.Context, id primitive.ObjectID, accounts []models.LinkedAccount) error {
	_, err := r.col.UpdateByID(ctx, id, profileUpdate(bson.M{"linked_accounts": accounts}))
	return err
}

func (r *mongoUserRepo) SetPreferences(ctx context.Context, id primitive.ObjectID, prefs models.Preferences) error {
	_, err := r.col.UpdateByID(ctx, id, profileUpdate(bson.M{"preferences": prefs}))
	return err
}

func (r *mongoUserRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *mongoUserRepo) SetOTP(ctx context.Context, id primitive.ObjectID, otp *models.OTPState) error {
	_, err := r.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"otp":        otp,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

func (r *mongoUserRepo) IncrementOTPAttempts(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.col.UpdateByID(ctx, id, bson.M{
		"$inc": bson.M{"otp.attempts": 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

func (r *mongoUserRepo) MarkVerified(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.col.UpdateByID(ctx, id, bson.M{
		"$set":   bson.M{"is_verified": true, "updated_at": time.Now().UTC()},
		"$unset": bson.M{"otp": ""},
	})
	return err
}

func (r *mongoUserRepo) SetPin(ctx context.Context, email, pinHash string) (bool, error) {
	// Conditional update: only a verified user without a PIN transitions.
	filter := bson.M{
		"email":       email,
		"is_verified": true,
		"$or": bson.A{
			bson.M{"pin_hash": bson.M{"$exists": false}},
			bson.M{"pin_hash": ""},
		},
	}
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"pin_hash":   pinHash,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}
