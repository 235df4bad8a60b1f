package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"localmart/internal/repository"
)

// Collection is a MongoDB implementation of repository.Repository for any record type.
// It is a thin pass-through to the driver and contains no business logic.
type Collection[T any] struct {
	coll *mongo.Collection
}

// NewCollection wraps a driver collection.
func NewCollection[T any](coll *mongo.Collection) *Collection[T] {
	return &Collection[T]{coll: coll}
}

// New opens the named collection of db.
func New[T any](db *mongo.Database, name string) *Collection[T] {
	return NewCollection[T](db.Collection(name))
}

var _ repository.Repository[struct{}] = (*Collection[struct{}])(nil)

// Create inserts a new document.
func (c *Collection[T]) Create(ctx context.Context, doc *T) error {
	_, err := c.coll.InsertOne(ctx, doc)
	return err
}

// FindByID fetches a single document by its _id.
func (c *Collection[T]) FindByID(ctx context.Context, id string) (*T, error) {
	return c.FindOne(ctx, repository.Filter{"_id": id})
}

// FindOne fetches the first document matching f.
func (c *Collection[T]) FindOne(ctx context.Context, f repository.Filter) (*T, error) {
	var out T
	if err := c.coll.FindOne(ctx, toBSON(f)).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

// FindMany returns all documents matching f ordered by created_at descending.
func (c *Collection[T]) FindMany(ctx context.Context, f repository.Filter) ([]T, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := c.coll.Find(ctx, toBSON(f), opts)
	if err != nil {
		return nil, err
	}
	items := make([]T, 0)
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// List returns documents using skip/limit pagination and a total count.
func (c *Collection[T]) List(ctx context.Context, f repository.Filter, pq repository.PageQuery) (*repository.PageResult[T], error) {
	filter := toBSON(f)
	total, err := c.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, err
	}

	sortBy := pq.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	dir := -1
	if pq.Asc {
		dir = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: sortBy, Value: dir}, {Key: "_id", Value: dir}}).
		SetSkip(int64(pq.Offset)).
		SetLimit(int64(pq.Limit))

	cur, err := c.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	items := make([]T, 0)
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return &repository.PageResult[T]{Items: items, Total: total}, nil
}

// Count returns the number of documents matching f.
func (c *Collection[T]) Count(ctx context.Context, f repository.Filter) (int64, error) {
	return c.coll.CountDocuments(ctx, toBSON(f))
}

// Replace overwrites the document with the given _id.
func (c *Collection[T]) Replace(ctx context.Context, id string, doc *T) error {
	res, err := c.coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Update applies $set with the given fields to the document with the given _id.
func (c *Collection[T]) Update(ctx context.Context, id string, fields repository.Filter) error {
	res, err := c.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": toBSON(fields)})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateMany applies $set with the given fields to every document matching f.
func (c *Collection[T]) UpdateMany(ctx context.Context, f repository.Filter, fields repository.Filter) (int64, error) {
	res, err := c.coll.UpdateMany(ctx, toBSON(f), bson.M{"$set": toBSON(fields)})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Delete removes the document with the given _id.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func toBSON(f repository.Filter) bson.M {
	if f == nil {
		return bson.M{}
	}
	return bson.M(f)
}
