package repositories

import (
	"context"
	"time"

	"github.com/anonto42/socialgraph/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// AccountRepository defines the interface for account data operations.
// The Add*/Remove* methods report whether the set changed and return
// ErrNotFound when the account does not exist.
type AccountRepository interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccountByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (*models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	GetAccountByFirebaseUID(ctx context.Context, uid string) (*models.Account, error)
	GetAccountsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Account, error)
	UpdateProfile(ctx context.Context, account *models.Account) error
	SampleAccounts(ctx context.Context, exclude primitive.ObjectID, size int) ([]models.Account, error)

	AddFollower(ctx context.Context, accountID, followerID primitive.ObjectID) (bool, error)
	RemoveFollower(ctx context.Context, accountID, followerID primitive.ObjectID) (bool, error)
	AddFollowing(ctx context.Context, accountID, targetID primitive.ObjectID) (bool, error)
	RemoveFollowing(ctx context.Context, accountID, targetID primitive.ObjectID) (bool, error)
	AddLikedPost(ctx context.Context, accountID, postID primitive.ObjectID) (bool, error)
	RemoveLikedPost(ctx context.Context, accountID, postID primitive.ObjectID) (bool, error)
	RemoveLikedPostFromAll(ctx context.Context, postID primitive.ObjectID) error
}

// MongoAccountRepository implements AccountRepository for MongoDB
type MongoAccountRepository struct {
	accounts collection[models.Account]
}

// NewMongoAccountRepository creates a new MongoAccountRepository
func NewMongoAccountRepository(db *mongo.Database) *MongoAccountRepository {
	return &MongoAccountRepository{accounts: newCollection[models.Account](db, "accounts")}
}

func (r *MongoAccountRepository) CreateAccount(ctx context.Context, account *models.Account) error {
	now := time.Now().UTC()
	account.ID = primitive.NewObjectID()
	account.CreatedAt = now
	account.UpdatedAt = now
	if account.Followers == nil {
		account.Followers = []primitive.ObjectID{}
	}
	if account.Following == nil {
		account.Following = []primitive.ObjectID{}
	}
	if account.LikedPosts == nil {
		account.LikedPosts = []primitive.ObjectID{}
	}
	_, err := r.accounts.insert(ctx, account)
	return err
}

func (r *MongoAccountRepository) GetAccountByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	return r.accounts.findByID(ctx, id)
}

func (r *MongoAccountRepository) GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	return r.accounts.findOne(ctx, bson.M{"username": username})
}

func (r *MongoAccountRepository) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.accounts.findOne(ctx, bson.M{"email": email})
}

func (r *MongoAccountRepository) GetAccountByFirebaseUID(ctx context.Context, uid string) (*models.Account, error) {
	return r.accounts.findOne(ctx, bson.M{"firebaseUid": uid})
}

// GetAccountsByIDs resolves ids; unknown ids are skipped
func (r *MongoAccountRepository) GetAccountsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Account, error) {
	if len(ids) == 0 {
		return []models.Account{}, nil
	}
	return r.accounts.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// UpdateProfile writes the profile fields. Graph arrays are never rewritten here.
func (r *MongoAccountRepository) UpdateProfile(ctx context.Context, account *models.Account) error {
	fields := bson.M{
		"username":      account.Username,
		"fullName":      account.FullName,
		"email":         account.Email,
		"password":      account.Password,
		"bio":           account.Bio,
		"link":          account.Link,
		"profileImg":    account.ProfileImg,
		"profileImgKey": account.ProfileImgKey,
		"coverImg":      account.CoverImg,
		"coverImgKey":   account.CoverImgKey,
	}
	// firebaseUid has a sparse unique index, so it is only ever written when set
	if account.FirebaseUID != "" {
		fields["firebaseUid"] = account.FirebaseUID
	}
	return r.accounts.setFields(ctx, account.ID, fields)
}

// SampleAccounts draws up to size random accounts other than exclude
func (r *MongoAccountRepository) SampleAccounts(ctx context.Context, exclude primitive.ObjectID, size int) ([]models.Account, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": bson.M{"$ne": exclude}}}},
		{{Key: "$sample", Value: bson.M{"size": size}}},
	}
	return r.accounts.aggregate(ctx, pipeline)
}

func (r *MongoAccountRepository) AddFollower(ctx context.Context, accountID, followerID primitive.ObjectID) (bool, error) {
	return r.accounts.appendUnique(ctx, accountID, "followers", followerID)
}

func (r *MongoAccountRepository) RemoveFollower(ctx context.Context, accountID, followerID primitive.ObjectID) (bool, error) {
	return r.accounts.pull(ctx, accountID, "followers", followerID)
}

func (r *MongoAccountRepository) AddFollowing(ctx context.Context, accountID, targetID primitive.ObjectID) (bool, error) {
	return r.accounts.appendUnique(ctx, accountID, "following", targetID)
}

func (r *MongoAccountRepository) RemoveFollowing(ctx context.Context, accountID, targetID primitive.ObjectID) (bool, error) {
	return r.accounts.pull(ctx, accountID, "following", targetID)
}

func (r *MongoAccountRepository) AddLikedPost(ctx context.Context, accountID, postID primitive.ObjectID) (bool, error) {
	return r.accounts.appendUnique(ctx, accountID, "likedPosts", postID)
}

func (r *MongoAccountRepository) RemoveLikedPost(ctx context.Context, accountID, postID primitive.ObjectID) (bool, error) {
	return r.accounts.pull(ctx, accountID, "likedPosts", postID)
}

// RemoveLikedPostFromAll drops a deleted post from every account that liked it
func (r *MongoAccountRepository) RemoveLikedPostFromAll(ctx context.Context, postID primitive.ObjectID) error {
	_, err := r.accounts.coll.UpdateMany(ctx,
		bson.M{"likedPosts": postID},
		bson.M{"$pull": bson.M{"likedPosts": postID}},
	)
	return err
}
