package services

import (
	"context"
	"errors"
	"strings"

	"github.com/anonto42/socialgraph/backend/internal/auth"
	"github.com/anonto42/socialgraph/backend/internal/models"
	"github.com/anonto42/socialgraph/backend/internal/repositories"
	apperrors "github.com/anonto42/socialgraph/backend/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	msgInvalidCredentials = "Invalid username or password"
	msgUsernameTaken      = "Username is already taken"
	msgEmailTaken         = "Email is already taken"
	msgPasswordTooShort   = "Password must be at least 6 characters long"
)

// AccountService covers signup, login and profile management
type AccountService struct {
	accounts repositories.AccountRepository
	hasher   *auth.PasswordHasher
	images   ImageStore
	identity IdentityVerifier
	log      *zap.Logger
}

// NewAccountService creates an AccountService. images and identity may be
// nil, which disables uploads and Firebase login.
func NewAccountService(accounts repositories.AccountRepository, hasher *auth.PasswordHasher, images ImageStore, identity IdentityVerifier, log *zap.Logger) *AccountService {
	return &AccountService{accounts: accounts, hasher: hasher, images: images, identity: identity, log: log}
}

func (s *AccountService) Signup(ctx context.Context, req models.SignupRequest) (*models.Account, error) {
	if len(req.Password) < auth.MinPasswordLength {
		return nil, apperrors.NewValidation(msgPasswordTooShort)
	}
	if err := s.ensureAvailable(ctx, primitive.NilObjectID, req.Username, req.Email); err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.NewInternal("hash password", err)
	}

	account := &models.Account{
		Username: req.Username,
		FullName: req.FullName,
		Email:    req.Email,
		Password: hashed,
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.NewConflict("Username or email is already taken")
		}
		return nil, apperrors.NewInternal("create account", err)
	}

	s.log.Info("account created", zap.String("id", account.ID.Hex()), zap.String("username", account.Username))
	redacted := account.Redacted()
	return &redacted, nil
}

func (s *AccountService) Login(ctx context.Context, req models.LoginRequest) (*models.Account, error) {
	account, err := s.accounts.GetAccountByUsername(ctx, req.Username)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.NewUnauthorized(msgInvalidCredentials)
	}
	if err != nil {
		return nil, apperrors.NewInternal("load account", err)
	}
	if !s.hasher.Matches(account.Password, req.Password) {
		return nil, apperrors.NewUnauthorized(msgInvalidCredentials)
	}
	redacted := account.Redacted()
	return &redacted, nil
}

// FirebaseLogin resolves a verified Firebase identity to an account, by uid
// first and then by email, creating one on first sight. Email matching and
// account creation need the email_verified claim.
func (s *AccountService) FirebaseLogin(ctx context.Context, idToken string) (*models.Account, error) {
	if s.identity == nil {
		return nil, apperrors.NewInvalidOperation("Firebase login is not configured")
	}
	token, err := s.identity.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, apperrors.NewBaseError(apperrors.ErrorTypeUnauthorized, "Invalid or expired ID token", err)
	}

	account, err := s.accounts.GetAccountByFirebaseUID(ctx, token.UID)
	if err == nil {
		redacted := account.Redacted()
		return &redacted, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.NewInternal("load account", err)
	}

	email, _ := token.Claims["email"].(string)
	if email == "" {
		return nil, apperrors.NewValidation("Firebase account has no email")
	}
	// an unverified claim proves nothing about who owns the address
	if verified, _ := token.Claims["email_verified"].(bool); !verified {
		return nil, apperrors.NewUnauthorized("Firebase email is not verified")
	}

	account, err = s.accounts.GetAccountByEmail(ctx, email)
	switch {
	case err == nil:
		if account.FirebaseUID != "" && account.FirebaseUID != token.UID {
			return nil, apperrors.NewConflict("Email is linked to another Firebase account")
		}
		account.FirebaseUID = token.UID
		if err := s.accounts.UpdateProfile(ctx, account); err != nil {
			return nil, apperrors.NewInternal("link firebase account", err)
		}
	case errors.Is(err, repositories.ErrNotFound):
		account, err = s.createFromFirebase(ctx, token.UID, email, token.Claims)
		if err != nil {
			return nil, err
		}
	default:
		return nil, apperrors.NewInternal("load account", err)
	}

	redacted := account.Redacted()
	return &redacted, nil
}

func (s *AccountService) createFromFirebase(ctx context.Context, uid, email string, claims map[string]interface{}) (*models.Account, error) {
	base := strings.ToLower(strings.SplitN(email, "@", 2)[0])
	if len(base) < 3 {
		base += "user"
	}
	if len(base) > 20 {
		base = base[:20]
	}
	username := base
	if _, err := s.accounts.GetAccountByUsername(ctx, username); err == nil {
		suffix := uid
		if len(suffix) > 6 {
			suffix = suffix[:6]
		}
		username = base + "_" + strings.ToLower(suffix)
	}

	fullName, _ := claims["name"].(string)
	if fullName == "" {
		fullName = username
	}
	picture, _ := claims["picture"].(string)

	account := &models.Account{
		Username:    username,
		FullName:    fullName,
		Email:       email,
		FirebaseUID: uid,
		ProfileImg:  picture,
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.NewConflict(msgUsernameTaken)
		}
		return nil, apperrors.NewInternal("create account", err)
	}
	s.log.Info("account created from firebase", zap.String("id", account.ID.Hex()), zap.String("uid", uid))
	return account, nil
}

func (s *AccountService) Me(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	account, err := s.accounts.GetAccountByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, msgUserNotFound, "get account")
	}
	redacted := account.Redacted()
	return &redacted, nil
}

func (s *AccountService) Profile(ctx context.Context, username string) (*models.Account, error) {
	account, err := s.accounts.GetAccountByUsername(ctx, username)
	if err != nil {
		return nil, notFoundOr(err, msgUserNotFound, "get profile")
	}
	redacted := account.Redacted()
	return &redacted, nil
}

// UpdateProfile applies the non-empty fields of req. Changing the password
// needs both the current and the new one. A new image replaces the stored
// one, which is deleted once the update lands.
func (s *AccountService) UpdateProfile(ctx context.Context, id primitive.ObjectID, req models.UpdateProfileRequest) (*models.Account, error) {
	account, err := s.accounts.GetAccountByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, msgUserNotFound, "update profile")
	}

	if (req.CurrentPassword == "") != (req.NewPassword == "") {
		return nil, apperrors.NewValidation("Please provide both current password and new password")
	}
	if req.NewPassword != "" {
		if !s.hasher.Matches(account.Password, req.CurrentPassword) {
			return nil, apperrors.NewValidation("Current password is incorrect")
		}
		if len(req.NewPassword) < auth.MinPasswordLength {
			return nil, apperrors.NewValidation(msgPasswordTooShort)
		}
		hashed, err := s.hasher.Hash(req.NewPassword)
		if err != nil {
			return nil, apperrors.NewInternal("hash password", err)
		}
		account.Password = hashed
	}

	if err := s.ensureAvailable(ctx, account.ID, changed(req.Username, account.Username), changed(req.Email, account.Email)); err != nil {
		return nil, err
	}

	var uploaded, replaced []string
	if req.ProfileImg != "" {
		url, key, err := upload(ctx, s.images, req.ProfileImg)
		if err != nil {
			return nil, err
		}
		uploaded = append(uploaded, key)
		replaced = append(replaced, account.ProfileImgKey)
		account.ProfileImg, account.ProfileImgKey = url, key
	}
	if req.CoverImg != "" {
		url, key, err := upload(ctx, s.images, req.CoverImg)
		if err != nil {
			s.discardAll(ctx, uploaded)
			return nil, err
		}
		uploaded = append(uploaded, key)
		replaced = append(replaced, account.CoverImgKey)
		account.CoverImg, account.CoverImgKey = url, key
	}

	account.Username = firstNonEmpty(req.Username, account.Username)
	account.FullName = firstNonEmpty(req.FullName, account.FullName)
	account.Email = firstNonEmpty(req.Email, account.Email)
	account.Bio = firstNonEmpty(req.Bio, account.Bio)
	account.Link = firstNonEmpty(req.Link, account.Link)

	if err := s.accounts.UpdateProfile(ctx, account); err != nil {
		s.discardAll(ctx, uploaded)
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.NewConflict("Username or email is already taken")
		}
		return nil, notFoundOr(err, msgUserNotFound, "update profile")
	}
	s.discardAll(ctx, replaced)

	redacted := account.Redacted()
	return &redacted, nil
}

// ensureAvailable fails with Conflict when username or email belongs to an
// account other than self. Empty values are not checked.
func (s *AccountService) ensureAvailable(ctx context.Context, self primitive.ObjectID, username, email string) error {
	if username != "" {
		existing, err := s.accounts.GetAccountByUsername(ctx, username)
		if err == nil && existing.ID != self {
			return apperrors.NewConflict(msgUsernameTaken)
		}
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NewInternal("check username", err)
		}
	}
	if email != "" {
		existing, err := s.accounts.GetAccountByEmail(ctx, email)
		if err == nil && existing.ID != self {
			return apperrors.NewConflict(msgEmailTaken)
		}
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NewInternal("check email", err)
		}
	}
	return nil
}

func (s *AccountService) discardAll(ctx context.Context, keys []string) {
	for _, key := range keys {
		discard(ctx, s.images, key, s.log)
	}
}

// changed returns next when it is set and differs from current
func changed(next, current string) string {
	if next == current {
		return ""
	}
	return next
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
