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

// NotificationRepository defines persistence operations for notifications.
// Every operation is scoped to the owning user.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, userID primitive.ObjectID, unreadOnly bool, page, limit int) ([]models.Notification, int64, error)
	CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error)
	MarkRead(ctx context.Context, id, userID primitive.ObjectID) (*models.Notification, error)
	MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error)
	Delete(ctx context.Context, id, userID primitive.ObjectID) (*models.Notification, error)
	ListAll(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error)
}

type mongoNotificationRepo struct {
	col *mongo.Collection
}

func NewMongoNotificationRepo(db *mongo.Database) NotificationRepository {
	col := db.Collection("notifications")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return &mongoNotificationRepo{col: col}
}

func (r *mongoNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	n.CreatedAt = time.Now().UTC()
	res, err := r.col.InsertOne(ctx, n)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		n.ID = oid
	}
	return nil
}

func (r *mongoNotificationRepo) List(ctx context.Context, userID primitive.ObjectID, unreadOnly bool, page, limit int) ([]models.Notification, int64, error) {
	filter := bson.M{"user_id": userID}
	if unreadOnly {
		filter["is_read"] = false
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	notifs := []models.Notification{}
	if err := cur.All(ctx, &notifs); err != nil {
		return nil, 0, err
	}
	return notifs, total, nil
}

func (r *mongoNotificationRepo) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"user_id": userID, "is_read": false})
}

func (r *mongoNotificationRepo) MarkRead(ctx context.Context, id, userID primitive.ObjectID) (*models.Notification, error) {
	var n models.Notification
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"is_read": true}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&n)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *mongoNotificationRepo) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := r.col.UpdateMany(ctx,
		bson.M{"user_id": userID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *mongoNotificationRepo) Delete(ctx context.Context, id, userID primitive.ObjectID) (*models.Notification, error) {
	var n models.Notification
	err := r.col.FindOneAndDelete(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&n)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *mongoNotificationRepo) ListAll(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	cur, err := r.col.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	notifs := []models.Notification{}
	if err := cur.All(ctx, &notifs); err != nil {
		return nil, err
	}
	return notifs, nil
}
