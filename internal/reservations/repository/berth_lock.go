package repository

import (
	"context"
	"fmt"
	"time"

	reservationserrors "marina/internal/reservations/errors"
	"marina/pkg/config"
	"marina/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	LockCollectionName = "Berth_locks"

	DefaultLockTTL = 10 * time.Second
)

// BerthLockRepository holds advisory locks that serialise reservation writes
// per berth across processes.
type BerthLockRepository interface {
	Acquire(ctx context.Context, berthNumber int, holder string) (*model.BerthLock, error)
	Release(ctx context.Context, lock *model.BerthLock) error
}

type mongoBerthLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	ttl        time.Duration
}

func NewMongoBerthLockRepository(cfg *config.Config) BerthLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBerthLockRepository{
		cfg:        cfg,
		collection: db.Collection(LockCollectionName),
		ttl:        DefaultLockTTL,
	}
}

func LockID(berthNumber int) string {
	return fmt.Sprintf("berth_lock_%d", berthNumber)
}

// Acquire inserts the lock document. A live lock held by someone else yields
// ErrLockHeld; an expired one the TTL monitor has not reaped yet is taken over.
func (r *mongoBerthLockRepository) Acquire(ctx context.Context, berthNumber int, holder string) (*model.BerthLock, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	for attempt := 0; attempt < 2; attempt++ {
		now := time.Now().UTC()
		lock := &model.BerthLock{
			ID:        LockID(berthNumber),
			Holder:    holder,
			ExpiresAt: now.Add(r.ttl),
			CreatedAt: now,
		}

		_, err := r.collection.InsertOne(ctx, lock)
		if err == nil {
			return lock, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("failed to acquire berth lock: %w", err)
		}

		result, err := r.collection.DeleteOne(ctx, bson.M{
			"_id":        lock.ID,
			"expires_at": bson.M{"$lt": now},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to clear expired berth lock: %w", err)
		}
		if result.DeletedCount == 0 {
			return nil, reservationserrors.ErrLockHeld
		}
	}

	return nil, reservationserrors.ErrLockHeld
}

// Release only removes the lock if this holder still owns it.
func (r *mongoBerthLockRepository) Release(ctx context.Context, lock *model.BerthLock) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lock.ID, "holder": lock.Holder})
	if err != nil {
		return fmt.Errorf("failed to release berth lock: %w", err)
	}
	return nil
}
