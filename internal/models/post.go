package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is a post stored in the posts collection. Likes holds an account id
// exactly when that account's LikedPosts holds the post id.
type Post struct {
	ID        primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	Author    primitive.ObjectID   `json:"user" bson:"user"`
	Text      string               `json:"text,omitempty" bson:"text,omitempty"`
	Img       string               `json:"img,omitempty" bson:"img,omitempty"`
	ImgKey    string               `json:"-" bson:"imgKey,omitempty"`
	Likes     []primitive.ObjectID `json:"likes" bson:"likes"`
	Comments  []Comment            `json:"comments" bson:"comments"`
	CreatedAt time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// Comment is embedded in Post.Comments in insertion order
type Comment struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id"`
	Author    primitive.ObjectID `json:"user" bson:"user"`
	Text      string             `json:"text" bson:"text"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// LikedBy reports whether id is in the post's likes
func (p *Post) LikedBy(id primitive.ObjectID) bool {
	return containsID(p.Likes, id)
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Text string `json:"text" validate:"max=280"`
	Img  string `json:"img"`
}

// CommentRequest defines the request body for commenting on a post
type CommentRequest struct {
	Text string `json:"text" validate:"max=280"`
}

// PostView is a post with its author and comment authors resolved
type PostView struct {
	Post
	User     *Account      `json:"user"`
	Comments []CommentView `json:"comments"`
}

// CommentView is a comment with its author resolved
type CommentView struct {
	Comment
	User *Account `json:"user"`
}
