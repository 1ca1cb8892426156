package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/SufailSLX/budget-tracker/internal/models"
)

// TransactionFilter narrows a paginated ledger listing. Zero values mean
// "no constraint".
type TransactionFilter struct {
	UserID    primitive.ObjectID
	Type      string
	Category  string
	Search    string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

// RangeFilter narrows an analytics scan. Both bounds are inclusive.
type RangeFilter struct {
	Type      string
	StartDate *time.Time
	EndDate   *time.Time
}

// TransactionRepository defines persistence operations for the ledger.
// Every operation is scoped to the owning user.
type TransactionRepository interface {
	Create(ctx context.Context, t *models.Transaction) error
	FindByID(ctx context.Context, id, userID primitive.ObjectID) (*models.Transaction, error)
	List(ctx context.Context, f TransactionFilter) ([]models.Transaction, int64, error)
	Update(ctx context.Context, t *models.Transaction) error
	Delete(ctx context.Context, id, userID primitive.ObjectID) (*models.Transaction, error)
	ListRange(ctx context.Context, userID primitive.ObjectID, f RangeFilter) ([]models.Transaction, error)
}

type mongoTransactionRepo struct {
	col *mongo.Collection
}

// NewMongoTransactionRepo builds the transactions repository and ensures the
// indexes backing the list and analytics queries.
func NewMongoTransactionRepo(db *mongo.Database) TransactionRepository {
	col := db.Collection("transactions")
	_, _ = col.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "category", Value: 1}}},
	})
	return &mongoTransactionRepo{col: col}
}

func (r *mongoTransactionRepo) Create(ctx context.Context, t *models.Transaction) error {
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	res, err := r.col.InsertOne(ctx, t)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		t.ID = oid
	}
	return nil
}

func (r *mongoTransactionRepo) FindByID(ctx context.Context, id, userID primitive.ObjectID) (*models.Transaction, error) {
	var t models.Transaction
	err := r.col.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *mongoTransactionRepo) List(ctx context.Context, f TransactionFilter) ([]models.Transaction, int64, error) {
	filter := bson.M{"user_id": f.UserID}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.StartDate != nil || f.EndDate != nil {
		rng := bson.M{}
		if f.StartDate != nil {
			rng["$gte"] = *f.StartDate
		}
		if f.EndDate != nil {
			rng["$lte"] = *f.EndDate
		}
		filter["date"] = rng
	}
	if f.Search != "" {
		re := primitive.Regex{Pattern: f.Search, Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": re},
			bson.M{"description": re},
		}
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	skip := int64((f.Page - 1) * f.Limit)
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(int64(f.Limit))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	txs := []models.Transaction{}
	if err := cur.All(ctx, &txs); err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

// transactionUpdate lists the mutable fields with explicit keys. A $set of
// the whole struct would drop a cleared description or emptied tags list
// through their omitempty bson tags, leaving the old values in place.
func transactionUpdate(t *models.Transaction) bson.M {
	return bson.M{"$set": bson.M{
		"title":       t.Title,
		"amount":      t.Amount,
		"type":        t.Type,
		"category":    t.Category,
		"description": t.Description,
		"tags":        t.Tags,
		"date":        t.Date,
		"updated_at":  t.UpdatedAt,
	}}
}

func (r *mongoTransactionRepo) Update(ctx context.Context, t *models.Transaction) error {
	t.UpdatedAt = time.Now().UTC()
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": t.ID, "user_id": t.UserID}, transactionUpdate(t))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoTransactionRepo) Delete(ctx context.Context, id, userID primitive.ObjectID) (*models.Transaction, error) {
	var t models.Transaction
	err := r.col.FindOneAndDelete(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *mongoTransactionRepo) ListRange(ctx context.Context, userID primitive.ObjectID, f RangeFilter) ([]models.Transaction, error) {
	filter := bson.M{"user_id": userID}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.StartDate != nil || f.EndDate != nil {
		rng := bson.M{}
		if f.StartDate != nil {
			rng["$gte"] = *f.StartDate
		}
		if f.EndDate != nil {
			rng["$lte"] = *f.EndDate
		}
		filter["date"] = rng
	}

	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	txs := []models.Transaction{}
	if err := cur.All(ctx, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}
