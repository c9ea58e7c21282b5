package services

import (
	"context"

	"github.com/anonto42/socialgraph/backend/internal/models"
	"github.com/anonto42/socialgraph/backend/internal/repositories"
	apperrors "github.com/anonto42/socialgraph/backend/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SuggestionService proposes accounts to follow
type SuggestionService struct {
	accounts   repositories.AccountRepository
	sampleSize int
	limit      int
}

func NewSuggestionService(accounts repositories.AccountRepository, sampleSize, limit int) *SuggestionService {
	if sampleSize <= 0 {
		sampleSize = 10
	}
	if limit <= 0 {
		limit = 4
	}
	return &SuggestionService{accounts: accounts, sampleSize: sampleSize, limit: limit}
}

// Suggest samples accounts other than requester, drops the ones requester
// already follows and keeps at most limit. Filtering happens after sampling,
// so a requester following most of the sample gets fewer than limit back
// even when more unfollowed accounts exist.
func (s *SuggestionService) Suggest(ctx context.Context, requester primitive.ObjectID) ([]models.Account, error) {
	account, err := s.accounts.GetAccountByID(ctx, requester)
	if err != nil {
		return nil, notFoundOr(err, msgUserNotFound, "suggest accounts")
	}

	sample, err := s.accounts.SampleAccounts(ctx, requester, s.sampleSize)
	if err != nil {
		return nil, apperrors.NewInternal("sample accounts", err)
	}

	suggested := make([]models.Account, 0, s.limit)
	for _, candidate := range sample {
		if len(suggested) == s.limit {
			break
		}
		if candidate.ID == requester || account.IsFollowing(candidate.ID) {
			continue
		}
		suggested = append(suggested, candidate.Redacted())
	}
	return suggested, nil
}
