package repositories

import (
	"context"

	"github.com/anonto42/socialgraph/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
	// GetByRecipientID returns the recipient's notifications in insertion order
	GetByRecipientID(ctx context.Context, recipientID primitive.ObjectID) ([]models.Notification, error)
	GetUnreadCount(ctx context.Context, recipientID primitive.ObjectID) (int64, error)
	// MarkAsRead flags the listed notifications, ignoring ids addressed to someone else
	MarkAsRead(ctx context.Context, recipientID primitive.ObjectID, ids []primitive.ObjectID) error
	DeleteByRecipientID(ctx context.Context, recipientID primitive.ObjectID) (int64, error)
}

// MongoNotificationRepository implements NotificationRepository for MongoDB
type MongoNotificationRepository struct {
	notifications collection[models.Notification]
}

func NewMongoNotificationRepository(db *mongo.Database) *MongoNotificationRepository {
	return &MongoNotificationRepository{notifications: newCollection[models.Notification](db, "notifications")}
}

func (r *MongoNotificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	notification.ID = primitive.NewObjectID()
	_, err := r.notifications.insert(ctx, notification)
	return err
}

func (r *MongoNotificationRepository) GetByRecipientID(ctx context.Context, recipientID primitive.ObjectID) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	return r.notifications.find(ctx, bson.M{"to": recipientID}, opts)
}

func (r *MongoNotificationRepository) GetUnreadCount(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	return r.notifications.coll.CountDocuments(ctx, bson.M{"to": recipientID, "read": false})
}

func (r *MongoNotificationRepository) MarkAsRead(ctx context.Context, recipientID primitive.ObjectID, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.notifications.coll.UpdateMany(ctx,
		bson.M{"to": recipientID, "_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"read": true}, "$currentDate": bson.M{"updatedAt": true}},
	)
	return err
}

func (r *MongoNotificationRepository) DeleteByRecipientID(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	res, err := r.notifications.coll.DeleteMany(ctx, bson.M{"to": recipientID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
