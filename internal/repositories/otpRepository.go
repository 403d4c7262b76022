package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ideabox/internal/database"
	"ideabox/internal/models"
	"ideabox/internal/utils"
)

// MaxOTPCandidates bounds how many live codes FindValid hash-compares per
// lookup. Older live codes past this window can no longer be redeemed.
const MaxOTPCandidates = 5

type OTPRepository interface {
	Create(ctx context.Context, otp *models.OTP) (*models.OTP, error)
	FindValid(ctx context.Context, email, code string, now time.Time) (*models.OTP, error)
	MarkAsUsed(ctx context.Context, otpID primitive.ObjectID, now time.Time) (bool, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type otpRepository struct {
	db database.Service
}

func NewOTPRepository(db database.Service) OTPRepository {
	return &otpRepository{db: db}
}

func (r *otpRepository) collection() *mongo.Collection {
	return r.db.Database().Collection(database.OTPsCollection)
}

func (r *otpRepository) Create(ctx context.Context, otp *models.OTP) (_ *models.OTP, err error) {
	done := observeQuery("otp", "create")
	defer func() { done(err) }()

	if otp.ID.IsZero() {
		otp.ID = primitive.NewObjectID()
	}
	_, err = r.collection().InsertOne(ctx, otp)
	if err != nil {
		return nil, fmt.Errorf("failed to insert otp: %w", err)
	}
	return otp, nil
}

// FindValid returns the newest unused, unexpired code for email whose hash
// matches code, or nil when none does. Only the MaxOTPCandidates newest
// codes are considered.
func (r *otpRepository) FindValid(ctx context.Context, email, code string, now time.Time) (_ *models.OTP, err error) {
	done := observeQuery("otp", "findValid")
	defer func() { done(err) }()

	filter := bson.M{"email": email, "is_used": false, "expires_at": bson.M{"$gt": now}}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(MaxOTPCandidates)
	cursor, err := r.collection().Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error fetching otps: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var otp models.OTP
		if err = cursor.Decode(&otp); err != nil {
			return nil, fmt.Errorf("error decoding otp: %w", err)
		}
		if utils.CheckOTP(otp.CodeHash, code) {
			return &otp, nil
		}
	}
	if err = cursor.Err(); err != nil {
		return nil, fmt.Errorf("error iterating otps: %w", err)
	}
	return nil, nil
}

// MarkAsUsed flips is_used on an unused code. It reports false when another
// request already consumed it.
func (r *otpRepository) MarkAsUsed(ctx context.Context, otpID primitive.ObjectID, now time.Time) (_ bool, err error) {
	done := observeQuery("otp", "markAsUsed")
	defer func() { done(err) }()

	filter := bson.M{"_id": otpID, "is_used": false}
	update := bson.M{"$set": bson.M{"is_used": true, "used_at": now}}
	result, err := r.collection().UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to mark otp as used: %w", err)
	}
	return result.ModifiedCount == 1, nil
}

// DeleteExpired removes every code that expired before the given instant,
// used or not.
func (r *otpRepository) DeleteExpired(ctx context.Context, before time.Time) (_ int64, err error) {
	done := observeQuery("otp", "deleteExpired")
	defer func() { done(err) }()

	result, err := r.collection().DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": before}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired otps: %w", err)
	}
	return result.DeletedCount, nil
}
