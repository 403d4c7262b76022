package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ideabox/internal/database"
	"ideabox/internal/models"
)

// ErrDuplicateEmail is returned by IdeaRepository.Create when the unique
// index on email rejects the insert.
var ErrDuplicateEmail = errors.New("an idea already exists for this email")

const ideaSequence = "idea_id"

type IdeaRepository interface {
	Create(ctx context.Context, idea *models.Idea) (*models.Idea, error)
	FindByEmail(ctx context.Context, email string) (*models.Idea, error)
	FindAll(ctx context.Context) ([]models.Idea, error)
	FindByCategory(ctx context.Context, category string) ([]models.Idea, error)
	CountByCategory(ctx context.Context) ([]models.CategoryCount, error)
	CountAll(ctx context.Context) (int64, error)
}

type ideaRepository struct {
	db database.Service
}

func NewIdeaRepository(db database.Service) IdeaRepository {
	return &ideaRepository{db: db}
}

func (r *ideaRepository) collection() *mongo.Collection {
	return r.db.Database().Collection(database.IdeasCollection)
}

// nextID hands out integer ids from the counters collection. Ids consumed by
// inserts that later fail are not reused.
func (r *ideaRepository) nextID(ctx context.Context) (int64, error) {
	counters := r.db.Database().Collection(database.CountersCollection)
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := counters.FindOneAndUpdate(ctx,
		bson.M{"_id": ideaSequence},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate idea id: %w", err)
	}
	return counter.Seq, nil
}

func (r *ideaRepository) Create(ctx context.Context, idea *models.Idea) (_ *models.Idea, err error) {
	done := observeQuery("idea", "create")
	defer func() { done(err) }()

	id, err := r.nextID(ctx)
	if err != nil {
		return nil, err
	}
	idea.ID = id

	_, err = r.collection().InsertOne(ctx, idea)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			log.Warn().Str("email", idea.Email).Msg("Duplicate idea rejected by unique index")
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to insert idea: %w", err)
	}
	return idea, nil
}

func (r *ideaRepository) FindByEmail(ctx context.Context, email string) (_ *models.Idea, err error) {
	done := observeQuery("idea", "findByEmail")
	defer func() { done(err) }()

	var idea models.Idea
	err = r.collection().FindOne(ctx, bson.M{"email": email}).Decode(&idea)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find idea by email: %w", err)
	}
	return &idea, nil
}

func (r *ideaRepository) FindAll(ctx context.Context) ([]models.Idea, error) {
	return r.find(ctx, "findAll", bson.M{})
}

func (r *ideaRepository) FindByCategory(ctx context.Context, category string) ([]models.Idea, error) {
	return r.find(ctx, "findByCategory", bson.M{"category": category})
}

func (r *ideaRepository) find(ctx context.Context, queryType string, filter bson.M) (_ []models.Idea, err error) {
	done := observeQuery("idea", queryType)
	defer func() { done(err) }()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection().Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error fetching ideas: %w", err)
	}
	defer cursor.Close(ctx)

	ideas := []models.Idea{}
	if err = cursor.All(ctx, &ideas); err != nil {
		return nil, fmt.Errorf("error decoding ideas: %w", err)
	}
	return ideas, nil
}

// CountByCategory groups ideas by category, largest group first. Ties are
// broken by category name so the output is stable.
func (r *ideaRepository) CountByCategory(ctx context.Context) (_ []models.CategoryCount, err error) {
	done := observeQuery("idea", "countByCategory")
	defer func() { done(err) }()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$category"}, {Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	cursor, err := r.collection().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error aggregating ideas: %w", err)
	}
	defer cursor.Close(ctx)

	counts := []models.CategoryCount{}
	if err = cursor.All(ctx, &counts); err != nil {
		return nil, fmt.Errorf("error decoding category counts: %w", err)
	}
	return counts, nil
}

func (r *ideaRepository) CountAll(ctx context.Context) (_ int64, err error) {
	done := observeQuery("idea", "countAll")
	defer func() { done(err) }()

	count, err := r.collection().CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count ideas: %w", err)
	}
	return count, nil
}
