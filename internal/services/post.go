package services

import (
	"context"
	"strings"

	"github.com/anonto42/socialgraph/backend/internal/models"
	"github.com/anonto42/socialgraph/backend/internal/repositories"
	apperrors "github.com/anonto42/socialgraph/backend/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// PostService creates, deletes and lists posts. Listings come back newest
// first with the author and comment authors resolved.
type PostService struct {
	accounts repositories.AccountRepository
	posts    repositories.PostRepository
	images   ImageStore
	tx       repositories.Transactor
	log      *zap.Logger
}

func NewPostService(accounts repositories.AccountRepository, posts repositories.PostRepository, images ImageStore, tx repositories.Transactor, log *zap.Logger) *PostService {
	return &PostService{accounts: accounts, posts: posts, images: images, tx: tx, log: log}
}

func (s *PostService) Create(ctx context.Context, author primitive.ObjectID, req models.CreatePostRequest) (*models.Post, error) {
	if _, err := s.accounts.GetAccountByID(ctx, author); err != nil {
		return nil, notFoundOr(err, msgUserNotFound, "create post")
	}
	text := strings.TrimSpace(req.Text)
	if text == "" && req.Img == "" {
		return nil, apperrors.NewValidation("Post must have text or image")
	}

	post := &models.Post{Author: author, Text: text}
	if req.Img != "" {
		url, key, err := upload(ctx, s.images, req.Img)
		if err != nil {
			return nil, err
		}
		post.Img, post.ImgKey = url, key
	}

	if err := s.posts.CreatePost(ctx, post); err != nil {
		discard(ctx, s.images, post.ImgKey, s.log)
		return nil, apperrors.NewInternal("create post", err)
	}
	return post, nil
}

// Delete removes actor's own post together with its image and every
// account's like of it.
func (s *PostService) Delete(ctx context.Context, actor, postID primitive.ObjectID) error {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return notFoundOr(err, msgPostNotFound, "delete post")
	}
	if post.Author != actor {
		return apperrors.NewUnauthorized("You can only delete your own posts")
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.posts.DeletePost(ctx, postID); err != nil {
			return notFoundOr(err, msgPostNotFound, "delete post")
		}
		if err := s.accounts.RemoveLikedPostFromAll(ctx, postID); err != nil {
			return apperrors.NewInternal("remove post likes", err)
		}
		return nil
	})
	if err != nil {
		return passThrough(err, "delete post")
	}

	discard(ctx, s.images, post.ImgKey, s.log)
	return nil
}

func (s *PostService) All(ctx context.Context) ([]models.PostView, error) {
	posts, err := s.posts.GetAllPosts(ctx)
	if err != nil {
		return nil, apperrors.NewInternal("list posts", err)
	}
	return s.populate(ctx, posts)
}

// Following lists posts by the accounts user follows
func (s *PostService) Following(ctx context.Context, user primitive.ObjectID) ([]models.PostView, error) {
	account, err := s.accounts.GetAccountByID(ctx, user)
	if err != nil {
		return nil, notFoundOr(err, msgUserNotFound, "following feed")
	}
	posts, err := s.posts.GetPostsByAuthors(ctx, account.Following)
	if err != nil {
		return nil, apperrors.NewInternal("following feed", err)
	}
	return s.populate(ctx, posts)
}

// Liked lists the posts username has liked
func (s *PostService) Liked(ctx context.Context, username string) ([]models.PostView, error) {
	account, err := s.accounts.GetAccountByUsername(ctx, username)
	if err != nil {
		return nil, notFoundOr(err, msgUserNotFound, "liked posts")
	}
	posts, err := s.posts.GetPostsByIDs(ctx, account.LikedPosts)
	if err != nil {
		return nil, apperrors.NewInternal("liked posts", err)
	}
	return s.populate(ctx, posts)
}

// ByUser lists the posts username wrote
func (s *PostService) ByUser(ctx context.Context, username string) ([]models.PostView, error) {
	account, err := s.accounts.GetAccountByUsername(ctx, username)
	if err != nil {
		return nil, notFoundOr(err, msgUserNotFound, "user posts")
	}
	posts, err := s.posts.GetPostsByAuthors(ctx, []primitive.ObjectID{account.ID})
	if err != nil {
		return nil, apperrors.NewInternal("user posts", err)
	}
	return s.populate(ctx, posts)
}

// populate resolves post and comment authors with one account lookup
func (s *PostService) populate(ctx context.Context, posts []models.Post) ([]models.PostView, error) {
	seen := make(map[primitive.ObjectID]bool)
	var ids []primitive.ObjectID
	collect := func(id primitive.ObjectID) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, p := range posts {
		collect(p.Author)
		for _, c := range p.Comments {
			collect(c.Author)
		}
	}

	authors := make(map[primitive.ObjectID]*models.Account, len(ids))
	if len(ids) > 0 {
		accounts, err := s.accounts.GetAccountsByIDs(ctx, ids)
		if err != nil {
			return nil, apperrors.NewInternal("resolve post authors", err)
		}
		for i := range accounts {
			redacted := accounts[i].Redacted()
			authors[redacted.ID] = &redacted
		}
	}

	views := make([]models.PostView, len(posts))
	for i, p := range posts {
		comments := make([]models.CommentView, len(p.Comments))
		for j, c := range p.Comments {
			comments[j] = models.CommentView{Comment: c, User: authors[c.Author]}
		}
		views[i] = models.PostView{Post: p, User: authors[p.Author], Comments: comments}
	}
	return views, nil
}
