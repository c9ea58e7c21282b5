package repositories

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/anonto42/socialgraph/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// createTestDatabase requires a running MongoDB; set MONGO_TEST_URI
func createTestDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" || testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)

	db := client.Database("socialgraph_test_" + primitive.NewObjectID().Hex())
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	require.NoError(t, EnsureIndexes(ctx, db))
	return db
}

func TestMongoAccountRepository_SetMembership(t *testing.T) {
	db := createTestDatabase(t)
	ctx := context.Background()
	repo := NewMongoAccountRepository(db)

	alice := &models.Account{Username: "alice", Email: "alice@example.com"}
	bob := &models.Account{Username: "bob", Email: "bob@example.com"}
	require.NoError(t, repo.CreateAccount(ctx, alice))
	require.NoError(t, repo.CreateAccount(ctx, bob))

	added, err := repo.AddFollower(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = repo.AddFollower(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, added, "second add must not duplicate")

	removed, err := repo.RemoveFollower(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.RemoveFollower(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = repo.AddFollower(ctx, primitive.NewObjectID(), alice.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	dup := &models.Account{Username: "alice", Email: "other@example.com"}
	assert.ErrorIs(t, repo.CreateAccount(ctx, dup), ErrDuplicate)
}

func TestMongoAccountRepository_SampleExcludesRequester(t *testing.T) {
	db := createTestDatabase(t)
	ctx := context.Background()
	repo := NewMongoAccountRepository(db)

	var ids []primitive.ObjectID
	for _, name := range []string{"a1", "a2", "a3"} {
		a := &models.Account{Username: name, Email: name + "@example.com"}
		require.NoError(t, repo.CreateAccount(ctx, a))
		ids = append(ids, a.ID)
	}

	sample, err := repo.SampleAccounts(ctx, ids[0], 10)
	require.NoError(t, err)
	assert.Len(t, sample, 2)
	for _, a := range sample {
		assert.NotEqual(t, ids[0], a.ID)
	}
}

func TestMongoPostRepository_CommentsAndLikes(t *testing.T) {
	db := createTestDatabase(t)
	ctx := context.Background()
	repo := NewMongoPostRepository(db)

	author := primitive.NewObjectID()
	post := &models.Post{Author: author, Text: "hello"}
	require.NoError(t, repo.CreatePost(ctx, post))

	liked, err := repo.AddLike(ctx, post.ID, author)
	require.NoError(t, err)
	assert.True(t, liked)

	updated, err := repo.AddComment(ctx, post.ID, models.Comment{ID: primitive.NewObjectID(), Author: author, Text: "first", CreatedAt: time.Now()})
	require.NoError(t, err)
	require.Len(t, updated.Comments, 1)
	assert.Equal(t, "first", updated.Comments[0].Text)
	assert.Equal(t, []primitive.ObjectID{author}, updated.Likes)

	require.NoError(t, repo.DeletePost(ctx, post.ID))
	_, err = repo.GetPostByID(ctx, post.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMongoTransactor_Disabled(t *testing.T) {
	called := false
	tx := NewMongoTransactor(nil, false)
	err := tx.WithTransaction(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

// Transactions need a replica set; set MONGO_TEST_TRANSACTIONS=true alongside MONGO_TEST_URI
func TestMongoTransactor_CancelledRequestDoesNotCommit(t *testing.T) {
	db := createTestDatabase(t)
	if os.Getenv("MONGO_TEST_TRANSACTIONS") != "true" {
		t.Skip("Skipping transaction test")
	}
	repo := NewMongoAccountRepository(db)
	tx := NewMongoTransactor(db.Client(), true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	account := &models.Account{Username: "alice", Email: "alice@example.com"}
	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := repo.CreateAccount(ctx, account); err != nil {
			return err
		}
		cancel()
		return nil
	})
	require.Error(t, err)

	_, err = repo.GetAccountByID(context.Background(), account.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
