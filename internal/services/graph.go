package services

import (
	"context"

	"github.com/anonto42/socialgraph/backend/internal/models"
	"github.com/anonto42/socialgraph/backend/internal/repositories"
	apperrors "github.com/anonto42/socialgraph/backend/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	MsgFollowed   = "User followed successfully"
	MsgUnfollowed = "User unfollowed successfully"
	MsgRemoved    = "Follower removed successfully"
)

// GraphService maintains the follow graph. Every change touches both sides of
// the relation so A.Following holds B exactly when B.Followers holds A.
type GraphService struct {
	accounts      repositories.AccountRepository
	notifications *NotificationService
	tx            repositories.Transactor
	log           *zap.Logger
}

func NewGraphService(accounts repositories.AccountRepository, notifications *NotificationService, tx repositories.Transactor, log *zap.Logger) *GraphService {
	return &GraphService{accounts: accounts, notifications: notifications, tx: tx, log: log}
}

// FollowResult reports which way a toggle went
type FollowResult struct {
	Following bool
	Message   string
}

// FollowUnfollow makes actor follow target, or unfollow when actor already
// follows target. A new follow notifies target.
func (s *GraphService) FollowUnfollow(ctx context.Context, actor, target primitive.ObjectID) (*FollowResult, error) {
	if actor == target {
		return nil, apperrors.NewInvalidOperation("You can't follow yourself")
	}

	var result *FollowResult
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.requireAccounts(ctx, actor, target); err != nil {
			return err
		}

		// the conditional pull doubles as the membership check
		unfollowed, err := s.accounts.RemoveFollower(ctx, target, actor)
		if err != nil {
			return notFoundOr(err, msgUserNotFound, "unfollow")
		}
		if unfollowed {
			if _, err := s.accounts.RemoveFollowing(ctx, actor, target); err != nil {
				return notFoundOr(err, msgUserNotFound, "unfollow")
			}
			result = &FollowResult{Following: false, Message: MsgUnfollowed}
			return nil
		}

		added, err := s.accounts.AddFollower(ctx, target, actor)
		if err != nil {
			return notFoundOr(err, msgUserNotFound, "follow")
		}
		if _, err := s.accounts.AddFollowing(ctx, actor, target); err != nil {
			return notFoundOr(err, msgUserNotFound, "follow")
		}
		result = &FollowResult{Following: true, Message: MsgFollowed}

		if !added {
			// a concurrent request won the race and already notified
			return nil
		}
		return s.notifications.Emit(ctx, models.NewFollowNotification(actor, target))
	})
	if err != nil {
		return nil, passThrough(err, "follow/unfollow")
	}

	s.log.Info("follow toggled",
		zap.String("actor", actor.Hex()),
		zap.String("target", target.Hex()),
		zap.Bool("following", result.Following),
	)
	return result, nil
}

// RemoveFollower drops follower from current's followers and current from
// follower's following.
func (s *GraphService) RemoveFollower(ctx context.Context, current, follower primitive.ObjectID) error {
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.requireAccounts(ctx, current, follower); err != nil {
			return err
		}

		removed, err := s.accounts.RemoveFollower(ctx, current, follower)
		if err != nil {
			return notFoundOr(err, msgUserNotFound, "remove follower")
		}
		if !removed {
			return apperrors.NewInvalidOperation("This user is not following you")
		}
		if _, err := s.accounts.RemoveFollowing(ctx, follower, current); err != nil {
			return notFoundOr(err, msgUserNotFound, "remove follower")
		}
		return nil
	})
	if err != nil {
		return passThrough(err, "remove follower")
	}
	return nil
}

// Followers lists the accounts following username
func (s *GraphService) Followers(ctx context.Context, username string) ([]models.Account, error) {
	account, err := s.accounts.GetAccountByUsername(ctx, username)
	if err != nil {
		return nil, notFoundOr(err, msgUserNotFound, "get followers")
	}
	return s.resolve(ctx, account.Followers)
}

// Following lists the accounts username follows
func (s *GraphService) Following(ctx context.Context, username string) ([]models.Account, error) {
	account, err := s.accounts.GetAccountByUsername(ctx, username)
	if err != nil {
		return nil, notFoundOr(err, msgUserNotFound, "get following")
	}
	return s.resolve(ctx, account.Following)
}

func (s *GraphService) resolve(ctx context.Context, ids []primitive.ObjectID) ([]models.Account, error) {
	if len(ids) == 0 {
		return []models.Account{}, nil
	}
	accounts, err := s.accounts.GetAccountsByIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.NewInternal("resolve accounts", err)
	}
	return redactAll(accounts), nil
}

func (s *GraphService) requireAccounts(ctx context.Context, ids ...primitive.ObjectID) error {
	for _, id := range ids {
		if _, err := s.accounts.GetAccountByID(ctx, id); err != nil {
			return notFoundOr(err, msgUserNotFound, "load account")
		}
	}
	return nil
}
