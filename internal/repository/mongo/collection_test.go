package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"localmart/internal/repository"
)

type widget struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Status    string    `bson:"status"`
	CreatedAt time.Time `bson:"created_at"`
}

func TestCollection_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		coll := NewCollection[widget](mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := coll.Create(context.Background(), &widget{ID: "w1", Name: "rice"})
		assert.NoError(mt, err)
	})

	mt.Run("duplicate key", func(mt *mtest.T) {
		coll := NewCollection[widget](mt.Coll)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := coll.Create(context.Background(), &widget{ID: "w1"})
		require.Error(mt, err)
		assert.True(mt, mongo.IsDuplicateKeyError(err))
	})
}

func TestCollection_FindByID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		coll := NewCollection[widget](mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "localmart.widgets", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "w1"},
			{Key: "name", Value: "rice"},
			{Key: "status", Value: "Active"},
		}))

		got, err := coll.FindByID(context.Background(), "w1")
		require.NoError(mt, err)
		assert.Equal(mt, "w1", got.ID)
		assert.Equal(mt, "rice", got.Name)
	})

	mt.Run("not found", func(mt *mtest.T) {
		coll := NewCollection[widget](mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "localmart.widgets", mtest.FirstBatch))

		got, err := coll.FindByID(context.Background(), "missing")
		assert.ErrorIs(mt, err, repository.ErrNotFound)
		assert.Nil(mt, got)
	})
}

func TestCollection_FindMany(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns all batches", func(mt *mtest.T) {
		coll := NewCollection[widget](mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "localmart.widgets", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "w1"}, {Key: "name", Value: "rice"}},
			bson.D{{Key: "_id", Value: "w2"}, {Key: "name", Value: "fish"}},
		))

		items, err := coll.FindMany(context.Background(), repository.Filter{"status": "Active"})
		require.NoError(mt, err)
		assert.Len(mt, items, 2)
		assert.Equal(mt, "fish", items[1].Name)
	})

	mt.Run("empty result is an empty slice", func(mt *mtest.T) {
		coll := NewCollection[widget](mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "localmart.widgets", mtest.FirstBatch))

		items, err := coll.FindMany(context.Background(), nil)
		require.NoError(mt, err)
		assert.NotNil(mt, items)
		assert.Empty(mt, items)
	})
}

func TestCollection_List(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		coll := NewCollection[widget](mt.Coll)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "localmart.widgets", mtest.FirstBatch, bson.D{{Key: "n", Value: int32(3)}}),
			mtest.CreateCursorResponse(0, "localmart.widgets", mtest.FirstBatch,
				bson.D{{Key: "_id", Value: "w3"}, {Key: "name", Value: "salt"}},
			),
		)

		res, err := coll.List(context.Background(), repository.Filter{}, repository.PageQuery{Limit: 1, Offset: 2})
		require.NoError(mt, err)
		assert.Equal(mt, int64(3), res.Total)
		require.Len(mt, res.Items, 1)
		assert.Equal(mt, "w3", res.Items[0].ID)
	})
}

func TestCollection_Update(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("matched", func(mt *mtest.T) {
		coll := NewCollection[widget](mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		err := coll.Update(context.Background(), "w1", repository.Filter{"status": "Inactive"})
		assert.NoError(mt, err)
	})

	mt.Run("no match", func(mt *mtest.T) {
		coll := NewCollection[widget](mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := coll.Update(context.Background(), "missing", repository.Filter{"status": "Inactive"})
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})
}

func TestCollection_Replace(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("no match", func(mt *mtest.T) {
		coll := NewCollection[widget](mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := coll.Replace(context.Background(), "missing", &widget{ID: "missing"})
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})
}

func TestCollection_UpdateMany(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("reports modified count", func(mt *mtest.T) {
		coll := NewCollection[widget](mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 4},
			bson.E{Key: "nModified", Value: 3},
		))

		n, err := coll.UpdateMany(context.Background(), repository.Filter{"status": "Pending"}, repository.Filter{"status": "Expired"})
		require.NoError(mt, err)
		assert.Equal(mt, int64(3), n)
	})
}

func TestCollection_Delete(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("deleted", func(mt *mtest.T) {
		coll := NewCollection[widget](mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		assert.NoError(mt, coll.Delete(context.Background(), "w1"))
	})

	mt.Run("nothing deleted", func(mt *mtest.T) {
		coll := NewCollection[widget](mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		assert.ErrorIs(mt, coll.Delete(context.Background(), "missing"), repository.ErrNotFound)
	})
}
