package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account is a registered user stored in the accounts collection.
// Following and Followers mirror each other: A.Following holds B exactly
// when B.Followers holds A.
type Account struct {
	ID          primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	Username    string               `json:"username" bson:"username"`
	FullName    string               `json:"fullName" bson:"fullName"`
	Email       string               `json:"email" bson:"email"`
	Password    string               `json:"-" bson:"password"`
	Followers   []primitive.ObjectID `json:"followers" bson:"followers"`
	Following   []primitive.ObjectID `json:"following" bson:"following"`
	LikedPosts  []primitive.ObjectID `json:"likedPosts" bson:"likedPosts"`
	Bio         string               `json:"bio" bson:"bio"`
	Link        string               `json:"link" bson:"link"`
	ProfileImg  string               `json:"profileImg" bson:"profileImg"`
	CoverImg    string               `json:"coverImg" bson:"coverImg"`
	FirebaseUID string               `json:"-" bson:"firebaseUid,omitempty"`
	CreatedAt   time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt" bson:"updatedAt"`

	// Image store deletion keys for the current profile and cover images
	ProfileImgKey string `json:"-" bson:"profileImgKey,omitempty"`
	CoverImgKey   string `json:"-" bson:"coverImgKey,omitempty"`
}

// Redacted returns a copy safe to hand to callers
func (a Account) Redacted() Account {
	a.Password = ""
	a.ProfileImgKey = ""
	a.CoverImgKey = ""
	return a
}

// IsFollowing reports whether a follows id
func (a *Account) IsFollowing(id primitive.ObjectID) bool {
	return containsID(a.Following, id)
}

// HasFollower reports whether id follows a
func (a *Account) HasFollower(id primitive.ObjectID) bool {
	return containsID(a.Followers, id)
}

// AccountSummary is the sender view attached to notifications
type AccountSummary struct {
	ID         primitive.ObjectID `json:"_id"`
	Username   string             `json:"username"`
	ProfileImg string             `json:"profileImg"`
}

func (a *Account) Summary() AccountSummary {
	return AccountSummary{ID: a.ID, Username: a.Username, ProfileImg: a.ProfileImg}
}

// SignupRequest defines the request body for creating an account
type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	FullName string `json:"fullName" validate:"required,max=60"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest defines the request body for a username/password login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// FirebaseLoginRequest defines the request body for Firebase login
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// UpdateProfileRequest carries the editable profile fields. Empty fields keep
// their current value; images are data URLs.
type UpdateProfileRequest struct {
	Username        string `json:"username" validate:"omitempty,min=3,max=30"`
	FullName        string `json:"fullName" validate:"omitempty,max=60"`
	Email           string `json:"email" validate:"omitempty,email"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	Bio             string `json:"bio" validate:"omitempty,max=160"`
	Link            string `json:"link" validate:"omitempty,url"`
	ProfileImg      string `json:"profileImg"`
	CoverImg        string `json:"coverImg"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
