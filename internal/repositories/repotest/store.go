// Package repotest provides in-memory repositories for service and handler tests.
package repotest

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/socialgraph/backend/internal/models"
	"github.com/anonto42/socialgraph/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	_ repositories.AccountRepository      = (*Store)(nil)
	_ repositories.PostRepository         = (*Store)(nil)
	_ repositories.NotificationRepository = (*Store)(nil)
	_ repositories.Transactor             = (*Store)(nil)
)

// Store keeps accounts, posts and notifications in memory and satisfies the
// account, post and notification repositories plus Transactor. Fail maps a
// method name to the error that method returns next.
type Store struct {
	mu            sync.Mutex
	accounts      map[primitive.ObjectID]*models.Account
	posts         map[primitive.ObjectID]*models.Post
	notifications []*models.Notification
	clock         time.Time

	Fail map[string]error
	// Transactions counts WithTransaction calls
	Transactions int
}

func NewStore() *Store {
	return &Store{
		accounts: map[primitive.ObjectID]*models.Account{},
		posts:    map[primitive.ObjectID]*models.Post{},
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Fail:     map[string]error{},
	}
}

// now advances a fake clock so creation times are strictly increasing
func (s *Store) now() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *Store) failure(op string) error {
	if err, ok := s.Fail[op]; ok {
		delete(s.Fail, op)
		return err
	}
	return nil
}

func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	s.Transactions++
	s.mu.Unlock()
	return fn(ctx)
}

// Accounts

func copyAccount(a *models.Account) *models.Account {
	c := *a
	c.Followers = append([]primitive.ObjectID{}, a.Followers...)
	c.Following = append([]primitive.ObjectID{}, a.Following...)
	c.LikedPosts = append([]primitive.ObjectID{}, a.LikedPosts...)
	return &c
}

func (s *Store) CreateAccount(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("CreateAccount"); err != nil {
		return err
	}
	for _, a := range s.accounts {
		if a.Username == account.Username || (account.Email != "" && a.Email == account.Email) {
			return repositories.ErrDuplicate
		}
	}
	now := s.now()
	account.ID = primitive.NewObjectID()
	account.CreatedAt, account.UpdatedAt = now, now
	if account.Followers == nil {
		account.Followers = []primitive.ObjectID{}
	}
	if account.Following == nil {
		account.Following = []primitive.ObjectID{}
	}
	if account.LikedPosts == nil {
		account.LikedPosts = []primitive.ObjectID{}
	}
	s.accounts[account.ID] = copyAccount(account)
	return nil
}

func (s *Store) findAccount(op string, match func(*models.Account) bool) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(op); err != nil {
		return nil, err
	}
	for _, a := range s.accounts {
		if match(a) {
			return copyAccount(a), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *Store) GetAccountByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	return s.findAccount("GetAccountByID", func(a *models.Account) bool { return a.ID == id })
}

func (s *Store) GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	return s.findAccount("GetAccountByUsername", func(a *models.Account) bool { return a.Username == username })
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.findAccount("GetAccountByEmail", func(a *models.Account) bool { return a.Email == email })
}

func (s *Store) GetAccountByFirebaseUID(ctx context.Context, uid string) (*models.Account, error) {
	return s.findAccount("GetAccountByFirebaseUID", func(a *models.Account) bool { return uid != "" && a.FirebaseUID == uid })
}

func (s *Store) GetAccountsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("GetAccountsByIDs"); err != nil {
		return nil, err
	}
	out := []models.Account{}
	for _, id := range ids {
		if a, ok := s.accounts[id]; ok {
			out = append(out, *copyAccount(a))
		}
	}
	return out, nil
}

func (s *Store) UpdateProfile(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("UpdateProfile"); err != nil {
		return err
	}
	current, ok := s.accounts[account.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	for _, a := range s.accounts {
		if a.ID != account.ID && (a.Username == account.Username || a.Email == account.Email) {
			return repositories.ErrDuplicate
		}
	}
	current.Username = account.Username
	current.FullName = account.FullName
	current.Email = account.Email
	current.Password = account.Password
	current.Bio = account.Bio
	current.Link = account.Link
	current.ProfileImg, current.ProfileImgKey = account.ProfileImg, account.ProfileImgKey
	current.CoverImg, current.CoverImgKey = account.CoverImg, account.CoverImgKey
	if account.FirebaseUID != "" {
		current.FirebaseUID = account.FirebaseUID
	}
	current.UpdatedAt = s.now()
	return nil
}

func (s *Store) SampleAccounts(ctx context.Context, exclude primitive.ObjectID, size int) ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("SampleAccounts"); err != nil {
		return nil, err
	}
	out := []models.Account{}
	for _, a := range s.accounts {
		if a.ID != exclude {
			out = append(out, *copyAccount(a))
		}
	}
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if len(out) > size {
		out = out[:size]
	}
	return out, nil
}

func addID(ids []primitive.ObjectID, id primitive.ObjectID) ([]primitive.ObjectID, bool) {
	for _, v := range ids {
		if v == id {
			return ids, false
		}
	}
	return append(ids, id), true
}

func removeID(ids []primitive.ObjectID, id primitive.ObjectID) ([]primitive.ObjectID, bool) {
	out := ids[:0]
	removed := false
	for _, v := range ids {
		if v == id {
			removed = true
			continue
		}
		out = append(out, v)
	}
	return out, removed
}

func (s *Store) mutateAccount(op string, id primitive.ObjectID, fn func(a *models.Account) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(op); err != nil {
		return false, err
	}
	a, ok := s.accounts[id]
	if !ok {
		return false, repositories.ErrNotFound
	}
	return fn(a), nil
}

func (s *Store) AddFollower(ctx context.Context, accountID, followerID primitive.ObjectID) (changed bool, err error) {
	return s.mutateAccount("AddFollower", accountID, func(a *models.Account) bool {
		a.Followers, changed = addID(a.Followers, followerID)
		return changed
	})
}

func (s *Store) RemoveFollower(ctx context.Context, accountID, followerID primitive.ObjectID) (changed bool, err error) {
	return s.mutateAccount("RemoveFollower", accountID, func(a *models.Account) bool {
		a.Followers, changed = removeID(a.Followers, followerID)
		return changed
	})
}

func (s *Store) AddFollowing(ctx context.Context, accountID, targetID primitive.ObjectID) (changed bool, err error) {
	return s.mutateAccount("AddFollowing", accountID, func(a *models.Account) bool {
		a.Following, changed = addID(a.Following, targetID)
		return changed
	})
}

func (s *Store) RemoveFollowing(ctx context.Context, accountID, targetID primitive.ObjectID) (changed bool, err error) {
	return s.mutateAccount("RemoveFollowing", accountID, func(a *models.Account) bool {
		a.Following, changed = removeID(a.Following, targetID)
		return changed
	})
}

func (s *Store) AddLikedPost(ctx context.Context, accountID, postID primitive.ObjectID) (changed bool, err error) {
	return s.mutateAccount("AddLikedPost", accountID, func(a *models.Account) bool {
		a.LikedPosts, changed = addID(a.LikedPosts, postID)
		return changed
	})
}

func (s *Store) RemoveLikedPost(ctx context.Context, accountID, postID primitive.ObjectID) (changed bool, err error) {
	return s.mutateAccount("RemoveLikedPost", accountID, func(a *models.Account) bool {
		a.LikedPosts, changed = removeID(a.LikedPosts, postID)
		return changed
	})
}

func (s *Store) RemoveLikedPostFromAll(ctx context.Context, postID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("RemoveLikedPostFromAll"); err != nil {
		return err
	}
	for _, a := range s.accounts {
		a.LikedPosts, _ = removeID(a.LikedPosts, postID)
	}
	return nil
}

// Posts

func copyPost(p *models.Post) *models.Post {
	c := *p
	c.Likes = append([]primitive.ObjectID{}, p.Likes...)
	c.Comments = append([]models.Comment{}, p.Comments...)
	return &c
}

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("CreatePost"); err != nil {
		return err
	}
	now := s.now()
	post.ID = primitive.NewObjectID()
	post.CreatedAt, post.UpdatedAt = now, now
	if post.Likes == nil {
		post.Likes = []primitive.ObjectID{}
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	s.posts[post.ID] = copyPost(post)
	return nil
}

func (s *Store) GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("GetPostByID"); err != nil {
		return nil, err
	}
	p, ok := s.posts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return copyPost(p), nil
}

func (s *Store) listPosts(op string, match func(*models.Post) bool) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(op); err != nil {
		return nil, err
	}
	out := []models.Post{}
	for _, p := range s.posts {
		if match(p) {
			out = append(out, *copyPost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func idSet(ids []primitive.ObjectID) map[primitive.ObjectID]bool {
	set := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func (s *Store) GetPostsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Post, error) {
	set := idSet(ids)
	return s.listPosts("GetPostsByIDs", func(p *models.Post) bool { return set[p.ID] })
}

func (s *Store) GetPostsByAuthors(ctx context.Context, authors []primitive.ObjectID) ([]models.Post, error) {
	set := idSet(authors)
	return s.listPosts("GetPostsByAuthors", func(p *models.Post) bool { return set[p.Author] })
}

func (s *Store) GetAllPosts(ctx context.Context) ([]models.Post, error) {
	return s.listPosts("GetAllPosts", func(*models.Post) bool { return true })
}

func (s *Store) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("DeletePost"); err != nil {
		return err
	}
	if _, ok := s.posts[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

func (s *Store) mutatePost(op string, id primitive.ObjectID, fn func(p *models.Post) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(op); err != nil {
		return false, err
	}
	p, ok := s.posts[id]
	if !ok {
		return false, repositories.ErrNotFound
	}
	return fn(p), nil
}

func (s *Store) AddLike(ctx context.Context, postID, accountID primitive.ObjectID) (changed bool, err error) {
	return s.mutatePost("AddLike", postID, func(p *models.Post) bool {
		p.Likes, changed = addID(p.Likes, accountID)
		return changed
	})
}

func (s *Store) RemoveLike(ctx context.Context, postID, accountID primitive.ObjectID) (changed bool, err error) {
	return s.mutatePost("RemoveLike", postID, func(p *models.Post) bool {
		p.Likes, changed = removeID(p.Likes, accountID)
		return changed
	})
}

func (s *Store) AddComment(ctx context.Context, postID primitive.ObjectID, comment models.Comment) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("AddComment"); err != nil {
		return nil, err
	}
	p, ok := s.posts[postID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	p.Comments = append(p.Comments, comment)
	return copyPost(p), nil
}

// Notifications

func (s *Store) CreateNotification(ctx context.Context, notification *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("CreateNotification"); err != nil {
		return err
	}
	notification.ID = primitive.NewObjectID()
	c := *notification
	s.notifications = append(s.notifications, &c)
	return nil
}

func (s *Store) GetByRecipientID(ctx context.Context, recipientID primitive.ObjectID) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("GetByRecipientID"); err != nil {
		return nil, err
	}
	out := []models.Notification{}
	for _, n := range s.notifications {
		if n.To == recipientID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (s *Store) GetUnreadCount(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("GetUnreadCount"); err != nil {
		return 0, err
	}
	var count int64
	for _, n := range s.notifications {
		if n.To == recipientID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (s *Store) MarkAsRead(ctx context.Context, recipientID primitive.ObjectID, ids []primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("MarkAsRead"); err != nil {
		return err
	}
	set := idSet(ids)
	for _, n := range s.notifications {
		if n.To == recipientID && set[n.ID] {
			n.Read = true
		}
	}
	return nil
}

func (s *Store) DeleteByRecipientID(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("DeleteByRecipientID"); err != nil {
		return 0, err
	}
	kept := s.notifications[:0]
	var deleted int64
	for _, n := range s.notifications {
		if n.To == recipientID {
			deleted++
			continue
		}
		kept = append(kept, n)
	}
	s.notifications = kept
	return deleted, nil
}

// AllNotifications returns every stored notification in insertion order
func (s *Store) AllNotifications() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Notification, len(s.notifications))
	for i, n := range s.notifications {
		out[i] = *n
	}
	return out
}
