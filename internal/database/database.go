package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	IdeasCollection    = "ideas"
	OTPsCollection     = "otps"
	CountersCollection = "counters"
)

type Service interface {
	Health() map[string]string
	Database() *mongo.Database
	Timeout() time.Duration
	Close() error
}

type service struct {
	db      *mongo.Client
	name    string
	timeout time.Duration
}

// New connects to MongoDB and makes sure the indexes the store relies on
// exist. The unique index on ideas.email is what enforces one idea per email.
func New(ctx context.Context, uri, name string, timeout time.Duration) (Service, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(timeout).
		SetConnectTimeout(timeout).
		SetTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	s := &service{db: client, name: name, timeout: timeout}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	log.Info().Str("database", name).Msg("Connected to MongoDB")
	return s, nil
}

func (s *service) ensureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ideas := s.Database().Collection(IdeasCollection)
	_, err := ideas.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email_unique")},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("category_created_at")},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes for %s: %w", IdeasCollection, err)
	}

	otps := s.Database().Collection(OTPsCollection)
	_, err = otps.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("email_created_at")},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetName("expires_at")},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes for %s: %w", OTPsCollection, err)
	}
	return nil
}

func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	err := s.db.Ping(ctx, nil)
	if err != nil {
		log.Error().Err(err).Msg("Database health check failed")
		return map[string]string{
			"status":  "down",
			"message": "db down",
		}
	}

	return map[string]string{
		"status":  "up",
		"message": "It's healthy",
	}
}

func (s *service) Database() *mongo.Database {
	return s.db.Database(s.name)
}

func (s *service) Timeout() time.Duration {
	return s.timeout
}

func (s *service) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	log.Info().Str("database", s.name).Msg("Disconnecting from MongoDB")
	return s.db.Disconnect(ctx)
}
