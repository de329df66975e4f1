package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/parcelgate/shipping-agent/internal/core/domain"
)

const (
	collectionLabels = "labels"
	opTimeout        = 10 * time.Second
)

// LabelRepository persists purchased labels for the history endpoint. The
// carrier service remains the system of record; this is an audit trail.
type LabelRepository struct {
	col *mongo.Collection
}

func NewLabelRepository(db *mongo.Database) *LabelRepository {
	return &LabelRepository{col: db.Collection(collectionLabels)}
}

// Save inserts a purchased label document.
func (r *LabelRepository) Save(ctx context.Context, label *domain.Label) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, label)
	return err
}

// List returns up to limit labels, newest first.
func (r *LabelRepository) List(ctx context.Context, limit int) ([]*domain.Label, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "purchased_at", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var labels []*domain.Label
	if err := cur.All(ctx, &labels); err != nil {
		return nil, err
	}
	return labels, nil
}
