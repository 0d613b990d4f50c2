package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	berthserrors "marina/internal/berths/errors"
	"marina/pkg/config"
	"marina/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "Berths"

type BerthRepository interface {
	Create(ctx context.Context, berth *model.Berth) error
	FindByNumber(ctx context.Context, number int) (*model.Berth, error)
	FindAll(ctx context.Context) ([]*model.Berth, error)
	Exists(ctx context.Context, number int) (bool, error)
	UpdateStatus(ctx context.Context, number int, status string) (*model.Berth, error)
	Delete(ctx context.Context, number int) error
	Count(ctx context.Context) (int64, error)
}

type mongoBerthRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBerthRepository(cfg *config.Config) BerthRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBerthRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoBerthRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}
	return context.WithTimeout(ctx, timeout)
}

// Create relies on the unique index over number to reject duplicates.
func (r *mongoBerthRepository) Create(ctx context.Context, berth *model.Berth) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	berth.ID = ""
	berth.CreatedAt = now
	berth.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, berth)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return berthserrors.ErrDuplicate
		}
		return fmt.Errorf("failed to create berth: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		berth.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBerthRepository) FindByNumber(ctx context.Context, number int) (*model.Berth, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var berth model.Berth
	err := r.collection.FindOne(ctx, bson.M{"number": number}).Decode(&berth)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, berthserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find berth: %w", err)
	}

	return &berth, nil
}

func (r *mongoBerthRepository) FindAll(ctx context.Context) ([]*model.Berth, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "number", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find berths: %w", err)
	}
	defer cursor.Close(ctx)

	berths := []*model.Berth{}
	if err = cursor.All(ctx, &berths); err != nil {
		return nil, fmt.Errorf("failed to decode berths: %w", err)
	}

	return berths, nil
}

func (r *mongoBerthRepository) Exists(ctx context.Context, number int) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"number": number}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check berth existence: %w", err)
	}
	return count > 0, nil
}

func (r *mongoBerthRepository) UpdateStatus(ctx context.Context, number int, status string) (*model.Berth, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var berth model.Berth
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"number": number}, update, opts).Decode(&berth)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, berthserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update berth: %w", err)
	}

	return &berth, nil
}

func (r *mongoBerthRepository) Delete(ctx context.Context, number int) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"number": number})
	if err != nil {
		return fmt.Errorf("failed to delete berth: %w", err)
	}

	if result.DeletedCount == 0 {
		return berthserrors.ErrNotFound
	}

	return nil
}

func (r *mongoBerthRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count berths: %w", err)
	}

	return count, nil
}
