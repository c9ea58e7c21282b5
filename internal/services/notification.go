package services

import (
	"context"

	"github.com/anonto42/socialgraph/backend/internal/models"
	"github.com/anonto42/socialgraph/backend/internal/repositories"
	apperrors "github.com/anonto42/socialgraph/backend/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// NotificationService records and serves notifications. Graph and engagement
// operations emit through it; nothing else creates notifications.
type NotificationService struct {
	notifications repositories.NotificationRepository
	accounts      repositories.AccountRepository
	recorder      EmitRecorder
	log           *zap.Logger
}

// EmitRecorder observes every stored notification
type EmitRecorder interface {
	NotificationEmitted(notificationType string)
}

func NewNotificationService(notifications repositories.NotificationRepository, accounts repositories.AccountRepository, log *zap.Logger) *NotificationService {
	return &NotificationService{notifications: notifications, accounts: accounts, log: log}
}

func (s *NotificationService) SetRecorder(r EmitRecorder) {
	s.recorder = r
}

// Emit stores n. A notification addressed to its own sender is dropped.
func (s *NotificationService) Emit(ctx context.Context, n *models.Notification) error {
	if n.From == n.To {
		return nil
	}
	if err := n.Validate(); err != nil {
		return apperrors.NewBaseError(apperrors.ErrorTypeInternal, "invalid notification", err)
	}
	if err := s.notifications.CreateNotification(ctx, n); err != nil {
		return apperrors.NewInternal("create notification", err)
	}
	if s.recorder != nil {
		s.recorder.NotificationEmitted(string(n.Type))
	}

	s.log.Debug("notification emitted",
		zap.String("type", string(n.Type)),
		zap.String("from", n.From.Hex()),
		zap.String("to", n.To.Hex()),
	)
	return nil
}

// List returns every notification addressed to recipient in insertion order,
// each carrying the sender's username and profile image.
func (s *NotificationService) List(ctx context.Context, recipient primitive.ObjectID) ([]models.NotificationView, error) {
	notifications, err := s.notifications.GetByRecipientID(ctx, recipient)
	if err != nil {
		return nil, apperrors.NewInternal("list notifications", err)
	}

	senderIDs := make([]primitive.ObjectID, 0, len(notifications))
	seen := make(map[primitive.ObjectID]bool)
	for _, n := range notifications {
		if !seen[n.From] {
			seen[n.From] = true
			senderIDs = append(senderIDs, n.From)
		}
	}

	senders := make(map[primitive.ObjectID]models.AccountSummary, len(senderIDs))
	if len(senderIDs) > 0 {
		accounts, err := s.accounts.GetAccountsByIDs(ctx, senderIDs)
		if err != nil {
			return nil, apperrors.NewInternal("resolve notification senders", err)
		}
		for i := range accounts {
			senders[accounts[i].ID] = accounts[i].Summary()
		}
	}

	views := make([]models.NotificationView, len(notifications))
	for i, n := range notifications {
		from, ok := senders[n.From]
		if !ok {
			// sender account is gone
			from = models.AccountSummary{ID: n.From}
		}
		views[i] = models.NotificationView{Notification: n, From: from}
	}
	return views, nil
}

// MarkRead sets read on exactly the listed notifications of recipient
func (s *NotificationService) MarkRead(ctx context.Context, recipient primitive.ObjectID, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.notifications.MarkAsRead(ctx, recipient, ids); err != nil {
		return apperrors.NewInternal("mark notifications read", err)
	}
	return nil
}

// DeleteAll removes every notification addressed to recipient
func (s *NotificationService) DeleteAll(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	deleted, err := s.notifications.DeleteByRecipientID(ctx, recipient)
	if err != nil {
		return 0, apperrors.NewInternal("delete notifications", err)
	}
	return deleted, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	count, err := s.notifications.GetUnreadCount(ctx, recipient)
	if err != nil {
		return 0, apperrors.NewInternal("count unread notifications", err)
	}
	return count, nil
}
