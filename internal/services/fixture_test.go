package services

import (
	"context"
	"fmt"
	"testing"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/anonto42/socialgraph/backend/internal/auth"
	"github.com/anonto42/socialgraph/backend/internal/models"
	"github.com/anonto42/socialgraph/backend/internal/repositories/repotest"
	apperrors "github.com/anonto42/socialgraph/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fixture struct {
	store         *repotest.Store
	images        *fakeImages
	identity      *fakeIdentity
	hasher        *auth.PasswordHasher
	notifications *NotificationService
	graph         *GraphService
	engagement    *EngagementService
	suggestions   *SuggestionService
	accounts      *AccountService
	posts         *PostService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zap.NewNop()
	store := repotest.NewStore()
	f := &fixture{
		store:    store,
		images:   &fakeImages{stored: map[string]string{}},
		identity: &fakeIdentity{tokens: map[string]*fbauth.Token{}},
		hasher:   auth.NewPasswordHasher(4),
	}
	f.notifications = NewNotificationService(store, store, log)
	f.graph = NewGraphService(store, f.notifications, store, log)
	f.engagement = NewEngagementService(store, store, f.notifications, store, log)
	f.suggestions = NewSuggestionService(store, 10, 4)
	f.accounts = NewAccountService(store, f.hasher, f.images, f.identity, log)
	f.posts = NewPostService(store, store, f.images, store, log)
	return f
}

func (f *fixture) account(t *testing.T, username string) *models.Account {
	t.Helper()
	a := &models.Account{Username: username, FullName: username, Email: username + "@example.com"}
	require.NoError(t, f.store.CreateAccount(context.Background(), a))
	return a
}

func (f *fixture) reload(t *testing.T, id primitive.ObjectID) *models.Account {
	t.Helper()
	a, err := f.store.GetAccountByID(context.Background(), id)
	require.NoError(t, err)
	return a
}

func (f *fixture) post(t *testing.T, author primitive.ObjectID, text string) *models.Post {
	t.Helper()
	p := &models.Post{Author: author, Text: text}
	require.NoError(t, f.store.CreatePost(context.Background(), p))
	return p
}

func (f *fixture) reloadPost(t *testing.T, id primitive.ObjectID) *models.Post {
	t.Helper()
	p, err := f.store.GetPostByID(context.Background(), id)
	require.NoError(t, err)
	return p
}

func assertErrorType(t *testing.T, err error, want apperrors.ErrorType, msg string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, apperrors.TypeOf(err), err.Error())
	if msg != "" {
		assert.Equal(t, msg, apperrors.PublicMessage(err))
	}
}

type fakeImages struct {
	stored    map[string]string
	deleted   []string
	uploadErr error
	next      int
}

func (f *fakeImages) Upload(ctx context.Context, dataURL string) (string, string, error) {
	if f.uploadErr != nil {
		return "", "", f.uploadErr
	}
	f.next++
	key := fmt.Sprintf("images/%d", f.next)
	f.stored[key] = dataURL
	return "https://cdn.test/" + key, key, nil
}

func (f *fakeImages) Delete(ctx context.Context, key string) error {
	delete(f.stored, key)
	f.deleted = append(f.deleted, key)
	return nil
}

type fakeIdentity struct {
	tokens map[string]*fbauth.Token
}

func (f *fakeIdentity) VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error) {
	if tok, ok := f.tokens[idToken]; ok {
		return tok, nil
	}
	return nil, fmt.Errorf("token %q rejected", idToken)
}
