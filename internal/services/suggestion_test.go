package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/anonto42/socialgraph/backend/internal/models"
	apperrors "github.com/anonto42/socialgraph/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSuggest_ExcludesSelfAndFollowed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	me := f.account(t, "me")
	var others []*models.Account
	for i := 0; i < 8; i++ {
		others = append(others, f.account(t, fmt.Sprintf("user%d", i)))
	}
	for _, o := range others[:3] {
		_, err := f.graph.FollowUnfollow(ctx, me.ID, o.ID)
		require.NoError(t, err)
	}

	for run := 0; run < 20; run++ {
		suggested, err := f.suggestions.Suggest(ctx, me.ID)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(suggested), 4)
		for _, s := range suggested {
			assert.NotEqual(t, me.ID, s.ID)
			assert.False(t, f.reload(t, me.ID).IsFollowing(s.ID))
			assert.Empty(t, s.Password)
		}
	}
}

func TestSuggest_SmallNetwork(t *testing.T) {
	f := newFixture(t)
	me := f.account(t, "me")

	suggested, err := f.suggestions.Suggest(context.Background(), me.ID)
	require.NoError(t, err)
	assert.Empty(t, suggested)

	f.account(t, "only")
	suggested, err = f.suggestions.Suggest(context.Background(), me.ID)
	require.NoError(t, err)
	require.Len(t, suggested, 1)
	assert.Equal(t, "only", suggested[0].Username)
}

func TestSuggest_ShortfallWhenSampleIsFollowed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	me := f.account(t, "me")
	for i := 0; i < 3; i++ {
		o := f.account(t, fmt.Sprintf("user%d", i))
		_, err := f.graph.FollowUnfollow(ctx, me.ID, o.ID)
		require.NoError(t, err)
	}
	f.account(t, "fresh")

	// a sample of one that lands on a followed account yields nothing
	narrow := NewSuggestionService(f.store, 1, 4)
	for run := 0; run < 10; run++ {
		suggested, err := narrow.Suggest(ctx, me.ID)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(suggested), 1)
	}
}

func TestSuggest_MissingRequester(t *testing.T) {
	f := newFixture(t)
	_, err := f.suggestions.Suggest(context.Background(), primitive.NewObjectID())
	assertErrorType(t, err, apperrors.ErrorTypeNotFound, "User not found")
}

func TestNewSuggestionService_Defaults(t *testing.T) {
	s := NewSuggestionService(nil, 0, -1)
	assert.Equal(t, 10, s.sampleSize)
	assert.Equal(t, 4, s.limit)
}
