package repositories

import (
	"context"
	"os"
	"testing"

	"github.com/anonto42/socialgraph/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestNotificationRow_RoundTrip(t *testing.T) {
	from, to, post := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	n := models.NewCommentNotification(from, to, post, "nice post")
	n.ID = primitive.NewObjectID()

	row := toNotificationRow(n)
	require.NotNil(t, row.PostID)
	assert.Equal(t, post.Hex(), *row.PostID)

	back, err := row.toModel()
	require.NoError(t, err)
	assert.Equal(t, n.ID, back.ID)
	assert.Equal(t, from, back.From)
	assert.Equal(t, to, back.To)
	assert.Equal(t, post, *back.Post)
	assert.Equal(t, "nice post", back.Text)
	assert.NoError(t, back.Validate())

	follow := models.NewFollowNotification(from, to)
	follow.ID = primitive.NewObjectID()
	followBack, err := toNotificationRow(follow).toModel()
	require.NoError(t, err)
	assert.Nil(t, followBack.Post)
}

func TestNotificationRow_RejectsCorruptIDs(t *testing.T) {
	_, err := notificationRow{ID: "nope", FromID: primitive.NewObjectID().Hex(), ToID: primitive.NewObjectID().Hex()}.toModel()
	assert.Error(t, err)
}

// Requires a running PostgreSQL; set POSTGRES_TEST_URL
func TestPostgresNotificationRepository(t *testing.T) {
	url := os.Getenv("POSTGRES_TEST_URL")
	if url == "" || testing.Short() {
		t.Skip("Skipping integration test")
	}

	db, err := gorm.Open(postgres.Open(url), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, MigratePostgresNotifications(db))

	ctx := context.Background()
	repo := NewPostgresNotificationRepository(db)
	alice, bob := primitive.NewObjectID(), primitive.NewObjectID()
	defer repo.DeleteByRecipientID(ctx, bob)

	first := models.NewFollowNotification(alice, bob)
	second := models.NewLikeNotification(alice, bob, primitive.NewObjectID())
	require.NoError(t, repo.CreateNotification(ctx, first))
	require.NoError(t, repo.CreateNotification(ctx, second))

	list, err := repo.GetByRecipientID(ctx, bob)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)

	unread, err := repo.GetUnreadCount(ctx, bob)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)

	require.NoError(t, repo.MarkAsRead(ctx, bob, []primitive.ObjectID{first.ID}))
	unread, err = repo.GetUnreadCount(ctx, bob)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	deleted, err := repo.DeleteByRecipientID(ctx, bob)
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)
}
