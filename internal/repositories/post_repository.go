package repositories

import (
	"context"
	"time"

	"github.com/anonto42/socialgraph/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostRepository defines the interface for post data operations.
// Listings are newest first.
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	GetPostsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Post, error)
	GetPostsByAuthors(ctx context.Context, authors []primitive.ObjectID) ([]models.Post, error)
	GetAllPosts(ctx context.Context) ([]models.Post, error)
	DeletePost(ctx context.Context, id primitive.ObjectID) error
	AddLike(ctx context.Context, postID, accountID primitive.ObjectID) (bool, error)
	RemoveLike(ctx context.Context, postID, accountID primitive.ObjectID) (bool, error)
	AddComment(ctx context.Context, postID primitive.ObjectID, comment models.Comment) (*models.Post, error)
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	posts collection[models.Post]
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{posts: newCollection[models.Post](db, "posts")}
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
}

// CreatePost creates a new post in MongoDB
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	now := time.Now().UTC()
	post.ID = primitive.NewObjectID()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.Likes == nil {
		post.Likes = []primitive.ObjectID{}
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	_, err := r.posts.insert(ctx, post)
	return err
}

// GetPostByID retrieves a post by ID from MongoDB
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	return r.posts.findByID(ctx, id)
}

func (r *MongoPostRepository) GetPostsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Post, error) {
	if len(ids) == 0 {
		return []models.Post{}, nil
	}
	return r.posts.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, newestFirst())
}

func (r *MongoPostRepository) GetPostsByAuthors(ctx context.Context, authors []primitive.ObjectID) ([]models.Post, error) {
	if len(authors) == 0 {
		return []models.Post{}, nil
	}
	return r.posts.find(ctx, bson.M{"user": bson.M{"$in": authors}}, newestFirst())
}

func (r *MongoPostRepository) GetAllPosts(ctx context.Context) ([]models.Post, error) {
	return r.posts.find(ctx, bson.D{}, newestFirst())
}

// DeletePost deletes a post by ID from MongoDB
func (r *MongoPostRepository) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	return r.posts.deleteByID(ctx, id)
}

func (r *MongoPostRepository) AddLike(ctx context.Context, postID, accountID primitive.ObjectID) (bool, error) {
	return r.posts.appendUnique(ctx, postID, "likes", accountID)
}

func (r *MongoPostRepository) RemoveLike(ctx context.Context, postID, accountID primitive.ObjectID) (bool, error) {
	return r.posts.pull(ctx, postID, "likes", accountID)
}

// AddComment appends the comment and returns the updated post
func (r *MongoPostRepository) AddComment(ctx context.Context, postID primitive.ObjectID, comment models.Comment) (*models.Post, error) {
	return r.posts.pushReturning(ctx, postID, "comments", comment)
}
