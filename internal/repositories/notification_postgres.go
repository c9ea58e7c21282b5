package repositories

import (
	"context"
	"time"

	"github.com/anonto42/socialgraph/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"
)

// notificationRow is the PostgreSQL shape of a notification. Ids stay
// ObjectID hex strings so they line up with accounts and posts in Mongo.
type notificationRow struct {
	ID        string    `gorm:"primaryKey;size:24"`
	FromID    string    `gorm:"size:24;not null"`
	ToID      string    `gorm:"size:24;not null;index:idx_notifications_to_read"`
	Type      string    `gorm:"size:16;not null"`
	PostID    *string   `gorm:"size:24"`
	Text      string    `gorm:"type:text"`
	Read      bool      `gorm:"default:false;index:idx_notifications_to_read"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

func (notificationRow) TableName() string { return "notifications" }

func toNotificationRow(n *models.Notification) notificationRow {
	row := notificationRow{
		ID:        n.ID.Hex(),
		FromID:    n.From.Hex(),
		ToID:      n.To.Hex(),
		Type:      string(n.Type),
		Text:      n.Text,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
	if n.Post != nil {
		post := n.Post.Hex()
		row.PostID = &post
	}
	return row
}

func (row notificationRow) toModel() (models.Notification, error) {
	n := models.Notification{
		Type:      models.NotificationType(row.Type),
		Text:      row.Text,
		Read:      row.Read,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	var err error
	if n.ID, err = primitive.ObjectIDFromHex(row.ID); err != nil {
		return n, err
	}
	if n.From, err = primitive.ObjectIDFromHex(row.FromID); err != nil {
		return n, err
	}
	if n.To, err = primitive.ObjectIDFromHex(row.ToID); err != nil {
		return n, err
	}
	if row.PostID != nil {
		post, err := primitive.ObjectIDFromHex(*row.PostID)
		if err != nil {
			return n, err
		}
		n.Post = &post
	}
	return n, nil
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

// NewPostgresNotificationRepository stores notifications in PostgreSQL
func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

// MigratePostgresNotifications creates or updates the notifications table
func MigratePostgresNotifications(db *gorm.DB) error {
	return db.AutoMigrate(&notificationRow{})
}

func (r *postgresNotificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	notification.ID = primitive.NewObjectID()
	row := toNotificationRow(notification)
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *postgresNotificationRepository) GetByRecipientID(ctx context.Context, recipientID primitive.ObjectID) ([]models.Notification, error) {
	var rows []notificationRow
	err := r.db.WithContext(ctx).
		Where("to_id = ?", recipientID.Hex()).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	notifications := make([]models.Notification, 0, len(rows))
	for _, row := range rows {
		n, err := row.toModel()
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

func (r *postgresNotificationRepository) GetUnreadCount(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&notificationRow{}).
		Where("to_id = ? AND read = false", recipientID.Hex()).
		Count(&count).Error
	return count, err
}

func (r *postgresNotificationRepository) MarkAsRead(ctx context.Context, recipientID primitive.ObjectID, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	hexIDs := make([]string, len(ids))
	for i, id := range ids {
		hexIDs[i] = id.Hex()
	}
	return r.db.WithContext(ctx).Model(&notificationRow{}).
		Where("to_id = ? AND id IN ?", recipientID.Hex(), hexIDs).
		Update("read", true).Error
}

func (r *postgresNotificationRepository) DeleteByRecipientID(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	res := r.db.WithContext(ctx).Where("to_id = ?", recipientID.Hex()).Delete(&notificationRow{})
	return res.RowsAffected, res.Error
}
