package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType discriminates the notification payload
type NotificationType string

const (
	NotificationFollow  NotificationType = "follow"
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
	NotificationMention NotificationType = "mention"
	NotificationReply   NotificationType = "reply"
)

// RequiresPost reports whether notifications of this type reference a post
func (t NotificationType) RequiresPost() bool {
	return t != NotificationFollow
}

// RequiresText reports whether notifications of this type carry text
func (t NotificationType) RequiresText() bool {
	switch t {
	case NotificationComment, NotificationMention, NotificationReply:
		return true
	}
	return false
}

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationFollow, NotificationLike, NotificationComment, NotificationMention, NotificationReply:
		return true
	}
	return false
}

// Notification is an event addressed to To. Build one with the New*Notification
// constructors so the post and text fields match the type.
type Notification struct {
	ID        primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	From      primitive.ObjectID  `json:"from" bson:"from"`
	To        primitive.ObjectID  `json:"to" bson:"to"`
	Type      NotificationType    `json:"type" bson:"type"`
	Post      *primitive.ObjectID `json:"post,omitempty" bson:"post,omitempty"`
	Text      string              `json:"text,omitempty" bson:"text,omitempty"`
	Read      bool                `json:"read" bson:"read"`
	CreatedAt time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt" bson:"updatedAt"`
}

func newNotification(t NotificationType, from, to primitive.ObjectID) *Notification {
	now := time.Now().UTC()
	return &Notification{From: from, To: to, Type: t, CreatedAt: now, UpdatedAt: now}
}

func NewFollowNotification(from, to primitive.ObjectID) *Notification {
	return newNotification(NotificationFollow, from, to)
}

func NewLikeNotification(from, to, post primitive.ObjectID) *Notification {
	n := newNotification(NotificationLike, from, to)
	n.Post = &post
	return n
}

func NewCommentNotification(from, to, post primitive.ObjectID, text string) *Notification {
	return newTextNotification(NotificationComment, from, to, post, text)
}

func NewMentionNotification(from, to, post primitive.ObjectID, text string) *Notification {
	return newTextNotification(NotificationMention, from, to, post, text)
}

func NewReplyNotification(from, to, post primitive.ObjectID, text string) *Notification {
	return newTextNotification(NotificationReply, from, to, post, text)
}

func newTextNotification(t NotificationType, from, to, post primitive.ObjectID, text string) *Notification {
	n := newNotification(t, from, to)
	n.Post = &post
	n.Text = text
	return n
}

// Validate checks the type-dependent fields
func (n *Notification) Validate() error {
	if !n.Type.Valid() {
		return fmt.Errorf("unknown notification type %q", n.Type)
	}
	if n.From.IsZero() || n.To.IsZero() {
		return fmt.Errorf("%s notification needs both sender and recipient", n.Type)
	}
	if n.Type.RequiresPost() && (n.Post == nil || n.Post.IsZero()) {
		return fmt.Errorf("%s notification needs a post", n.Type)
	}
	if !n.Type.RequiresPost() && n.Post != nil {
		return fmt.Errorf("%s notification cannot reference a post", n.Type)
	}
	if n.Type.RequiresText() && n.Text == "" {
		return fmt.Errorf("%s notification needs text", n.Type)
	}
	return nil
}

// NotificationView is a notification with the sender resolved
type NotificationView struct {
	Notification
	From AccountSummary `json:"from"`
}
