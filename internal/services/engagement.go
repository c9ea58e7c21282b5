package services

import (
	"context"
	"strings"
	"time"

	"github.com/anonto42/socialgraph/backend/internal/models"
	"github.com/anonto42/socialgraph/backend/internal/repositories"
	apperrors "github.com/anonto42/socialgraph/backend/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// EngagementService handles likes and comments. A like touches both the
// post's likes and the liker's likedPosts.
type EngagementService struct {
	accounts      repositories.AccountRepository
	posts         repositories.PostRepository
	notifications *NotificationService
	tx            repositories.Transactor
	log           *zap.Logger
}

func NewEngagementService(accounts repositories.AccountRepository, posts repositories.PostRepository, notifications *NotificationService, tx repositories.Transactor, log *zap.Logger) *EngagementService {
	return &EngagementService{accounts: accounts, posts: posts, notifications: notifications, tx: tx, log: log}
}

// LikeUnlike toggles actor's like on the post and returns the resulting
// likes. Liking someone else's post notifies its author.
func (s *EngagementService) LikeUnlike(ctx context.Context, actor, postID primitive.ObjectID) ([]primitive.ObjectID, error) {
	var likes []primitive.ObjectID
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		post, err := s.posts.GetPostByID(ctx, postID)
		if err != nil {
			return notFoundOr(err, msgPostNotFound, "like post")
		}
		if _, err := s.accounts.GetAccountByID(ctx, actor); err != nil {
			return notFoundOr(err, msgUserNotFound, "like post")
		}

		unliked, err := s.posts.RemoveLike(ctx, postID, actor)
		if err != nil {
			return notFoundOr(err, msgPostNotFound, "unlike post")
		}
		if unliked {
			if _, err := s.accounts.RemoveLikedPost(ctx, actor, postID); err != nil {
				return notFoundOr(err, msgUserNotFound, "unlike post")
			}
		} else {
			added, err := s.posts.AddLike(ctx, postID, actor)
			if err != nil {
				return notFoundOr(err, msgPostNotFound, "like post")
			}
			if _, err := s.accounts.AddLikedPost(ctx, actor, postID); err != nil {
				return notFoundOr(err, msgUserNotFound, "like post")
			}
			if added && post.Author != actor {
				if err := s.notifications.Emit(ctx, models.NewLikeNotification(actor, post.Author, postID)); err != nil {
					return err
				}
			}
		}

		updated, err := s.posts.GetPostByID(ctx, postID)
		if err != nil {
			return notFoundOr(err, msgPostNotFound, "reload post")
		}
		likes = updated.Likes
		return nil
	})
	if err != nil {
		return nil, passThrough(err, "like/unlike")
	}
	if likes == nil {
		likes = []primitive.ObjectID{}
	}
	return likes, nil
}

// Comment appends a comment by actor and returns the updated post.
// Commenting on someone else's post notifies its author.
func (s *EngagementService) Comment(ctx context.Context, actor, postID primitive.ObjectID, text string) (*models.Post, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewValidation("Comment must have text")
	}

	var post *models.Post
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.accounts.GetAccountByID(ctx, actor); err != nil {
			return notFoundOr(err, msgUserNotFound, "comment")
		}

		comment := models.Comment{
			ID:        primitive.NewObjectID(),
			Author:    actor,
			Text:      text,
			CreatedAt: time.Now().UTC(),
		}
		updated, err := s.posts.AddComment(ctx, postID, comment)
		if err != nil {
			return notFoundOr(err, msgPostNotFound, "comment")
		}
		post = updated

		if updated.Author == actor {
			return nil
		}
		return s.notifications.Emit(ctx, models.NewCommentNotification(actor, updated.Author, postID, text))
	})
	if err != nil {
		return nil, passThrough(err, "comment")
	}
	return post, nil
}
