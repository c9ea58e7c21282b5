package services

import (
	"context"
	"errors"
	"testing"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/anonto42/socialgraph/backend/internal/models"
	"github.com/anonto42/socialgraph/backend/internal/repositories"
	apperrors "github.com/anonto42/socialgraph/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func signup(t *testing.T, f *fixture, username, password string) *models.Account {
	t.Helper()
	a, err := f.accounts.Signup(context.Background(), models.SignupRequest{
		Username: username, FullName: "Full " + username, Email: username + "@example.com", Password: password,
	})
	require.NoError(t, err)
	return a
}

func TestSignupAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := signup(t, f, "alice", "secret1")
	assert.Empty(t, created.Password)
	assert.NotEmpty(t, f.reload(t, created.ID).Password)
	assert.NotEqual(t, "secret1", f.reload(t, created.ID).Password)

	logged, err := f.accounts.Login(ctx, models.LoginRequest{Username: "alice", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, logged.ID)
	assert.Empty(t, logged.Password)

	_, err = f.accounts.Login(ctx, models.LoginRequest{Username: "alice", Password: "wrong!"})
	assertErrorType(t, err, apperrors.ErrorTypeUnauthorized, "Invalid username or password")

	_, err = f.accounts.Login(ctx, models.LoginRequest{Username: "nobody", Password: "secret1"})
	assertErrorType(t, err, apperrors.ErrorTypeUnauthorized, "Invalid username or password")
}

func TestSignup_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	signup(t, f, "alice", "secret1")

	_, err := f.accounts.Signup(ctx, models.SignupRequest{Username: "bob", FullName: "Bob", Email: "bob@example.com", Password: "123"})
	assertErrorType(t, err, apperrors.ErrorTypeValidation, "Password must be at least 6 characters long")

	_, err = f.accounts.Signup(ctx, models.SignupRequest{Username: "alice", FullName: "A", Email: "other@example.com", Password: "secret1"})
	assertErrorType(t, err, apperrors.ErrorTypeConflict, "Username is already taken")

	_, err = f.accounts.Signup(ctx, models.SignupRequest{Username: "alice2", FullName: "A", Email: "alice@example.com", Password: "secret1"})
	assertErrorType(t, err, apperrors.ErrorTypeConflict, "Email is already taken")
}

func TestMeAndProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := signup(t, f, "alice", "secret1")

	me, err := f.accounts.Me(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)
	assert.Empty(t, me.Password)

	profile, err := f.accounts.Profile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, profile.ID)

	_, err = f.accounts.Me(ctx, primitive.NewObjectID())
	assertErrorType(t, err, apperrors.ErrorTypeNotFound, "User not found")
	_, err = f.accounts.Profile(ctx, "ghost")
	assertErrorType(t, err, apperrors.ErrorTypeNotFound, "User not found")
}

func TestUpdateProfile_Fields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := signup(t, f, "alice", "secret1")

	updated, err := f.accounts.UpdateProfile(ctx, alice.ID, models.UpdateProfileRequest{Bio: "hi there", Link: "https://alice.dev"})
	require.NoError(t, err)
	assert.Equal(t, "hi there", updated.Bio)
	assert.Equal(t, "https://alice.dev", updated.Link)
	assert.Equal(t, "alice", updated.Username, "empty fields keep their value")
	assert.Equal(t, "Full alice", updated.FullName)
	assert.Empty(t, updated.Password)
}

func TestUpdateProfile_Password(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := signup(t, f, "alice", "secret1")

	_, err := f.accounts.UpdateProfile(ctx, alice.ID, models.UpdateProfileRequest{NewPassword: "secret2"})
	assertErrorType(t, err, apperrors.ErrorTypeValidation, "Please provide both current password and new password")

	_, err = f.accounts.UpdateProfile(ctx, alice.ID, models.UpdateProfileRequest{CurrentPassword: "nope!!", NewPassword: "secret2"})
	assertErrorType(t, err, apperrors.ErrorTypeValidation, "Current password is incorrect")

	_, err = f.accounts.UpdateProfile(ctx, alice.ID, models.UpdateProfileRequest{CurrentPassword: "secret1", NewPassword: "abc"})
	assertErrorType(t, err, apperrors.ErrorTypeValidation, "Password must be at least 6 characters long")

	_, err = f.accounts.UpdateProfile(ctx, alice.ID, models.UpdateProfileRequest{CurrentPassword: "secret1", NewPassword: "secret2"})
	require.NoError(t, err)

	_, err = f.accounts.Login(ctx, models.LoginRequest{Username: "alice", Password: "secret2"})
	require.NoError(t, err)
	_, err = f.accounts.Login(ctx, models.LoginRequest{Username: "alice", Password: "secret1"})
	assertErrorType(t, err, apperrors.ErrorTypeUnauthorized, "")
}

func TestUpdateProfile_Conflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := signup(t, f, "alice", "secret1")
	signup(t, f, "bob", "secret1")

	_, err := f.accounts.UpdateProfile(ctx, alice.ID, models.UpdateProfileRequest{Username: "bob"})
	assertErrorType(t, err, apperrors.ErrorTypeConflict, "Username is already taken")

	_, err = f.accounts.UpdateProfile(ctx, alice.ID, models.UpdateProfileRequest{Email: "bob@example.com"})
	assertErrorType(t, err, apperrors.ErrorTypeConflict, "Email is already taken")

	// resubmitting your own username is not a conflict
	_, err = f.accounts.UpdateProfile(ctx, alice.ID, models.UpdateProfileRequest{Username: "alice"})
	require.NoError(t, err)
}

func TestUpdateProfile_ReplacesImages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := signup(t, f, "alice", "secret1")

	first, err := f.accounts.UpdateProfile(ctx, alice.ID, models.UpdateProfileRequest{ProfileImg: "data:image/png;base64,AAAA"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/images/1", first.ProfileImg)
	assert.Empty(t, first.ProfileImgKey, "deletion keys are redacted")

	second, err := f.accounts.UpdateProfile(ctx, alice.ID, models.UpdateProfileRequest{
		ProfileImg: "data:image/png;base64,BBBB",
		CoverImg:   "data:image/png;base64,CCCC",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/images/2", second.ProfileImg)
	assert.Equal(t, "https://cdn.test/images/3", second.CoverImg)
	assert.Equal(t, []string{"images/1"}, f.images.deleted)
	assert.Len(t, f.images.stored, 2)
}

func TestUpdateProfile_UploadFailure(t *testing.T) {
	f := newFixture(t)
	alice := signup(t, f, "alice", "secret1")
	f.images.uploadErr = apperrors.NewValidation("Unsupported image type")

	_, err := f.accounts.UpdateProfile(context.Background(), alice.ID, models.UpdateProfileRequest{ProfileImg: "data:text/plain;base64,AAAA"})
	assertErrorType(t, err, apperrors.ErrorTypeValidation, "Unsupported image type")
	assert.Empty(t, f.reload(t, alice.ID).ProfileImg)
}

func TestUpdateProfile_UploadsDisabled(t *testing.T) {
	f := newFixture(t)
	alice := signup(t, f, "alice", "secret1")
	svc := NewAccountService(f.store, f.hasher, nil, nil, zap.NewNop())

	_, err := svc.UpdateProfile(context.Background(), alice.ID, models.UpdateProfileRequest{CoverImg: "data:image/png;base64,AAAA"})
	assertErrorType(t, err, apperrors.ErrorTypeValidation, "Image uploads are not configured")
}

func TestFirebaseLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.identity.tokens["new"] = &fbauth.Token{UID: "uid-new-123", Claims: map[string]interface{}{"email": "newbie@example.com", "email_verified": true, "name": "New Bie"}}
	f.identity.tokens["existing"] = &fbauth.Token{UID: "uid-old-456", Claims: map[string]interface{}{"email": "alice@example.com", "email_verified": true}}
	alice := signup(t, f, "alice", "secret1")

	created, err := f.accounts.FirebaseLogin(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, "newbie", created.Username)
	assert.Equal(t, "New Bie", created.FullName)

	again, err := f.accounts.FirebaseLogin(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	linked, err := f.accounts.FirebaseLogin(ctx, "existing")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, linked.ID)
	assert.Equal(t, "uid-old-456", f.reload(t, alice.ID).FirebaseUID)

	_, err = f.accounts.FirebaseLogin(ctx, "forged")
	assertErrorType(t, err, apperrors.ErrorTypeUnauthorized, "Invalid or expired ID token")
}

func TestFirebaseLogin_UsernameCollision(t *testing.T) {
	f := newFixture(t)
	signup(t, f, "alice", "secret1")
	f.identity.tokens["tok"] = &fbauth.Token{UID: "ABCDEFGH", Claims: map[string]interface{}{"email": "alice@elsewhere.org", "email_verified": true}}

	created, err := f.accounts.FirebaseLogin(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "alice_abcdef", created.Username)
}

func TestFirebaseLogin_UnverifiedEmailDoesNotLink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	victim := signup(t, f, "victim", "secret1")
	f.identity.tokens["unverified"] = &fbauth.Token{UID: "attacker-uid", Claims: map[string]interface{}{"email": victim.Email, "email_verified": false}}
	f.identity.tokens["no-claim"] = &fbauth.Token{UID: "attacker-uid", Claims: map[string]interface{}{"email": victim.Email}}

	for _, tok := range []string{"unverified", "no-claim"} {
		account, err := f.accounts.FirebaseLogin(ctx, tok)
		assert.Nil(t, account, tok)
		assertErrorType(t, err, apperrors.ErrorTypeUnauthorized, "Firebase email is not verified")
	}
	assert.Empty(t, f.reload(t, victim.ID).FirebaseUID)

	_, err := f.store.GetAccountByFirebaseUID(ctx, "attacker-uid")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestFirebaseLogin_UnverifiedEmailDoesNotCreate(t *testing.T) {
	f := newFixture(t)
	f.identity.tokens["tok"] = &fbauth.Token{UID: "uid-1", Claims: map[string]interface{}{"email": "someone@example.com", "email_verified": false}}

	_, err := f.accounts.FirebaseLogin(context.Background(), "tok")
	assertErrorType(t, err, apperrors.ErrorTypeUnauthorized, "Firebase email is not verified")

	_, err = f.store.GetAccountByEmail(context.Background(), "someone@example.com")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestFirebaseLogin_EmailLinkedToOtherUID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := signup(t, f, "alice", "secret1")
	f.identity.tokens["first"] = &fbauth.Token{UID: "uid-first", Claims: map[string]interface{}{"email": alice.Email, "email_verified": true}}
	f.identity.tokens["second"] = &fbauth.Token{UID: "uid-second", Claims: map[string]interface{}{"email": alice.Email, "email_verified": true}}

	linked, err := f.accounts.FirebaseLogin(ctx, "first")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, linked.ID)

	_, err = f.accounts.FirebaseLogin(ctx, "second")
	assertErrorType(t, err, apperrors.ErrorTypeConflict, "Email is linked to another Firebase account")
	assert.Equal(t, "uid-first", f.reload(t, alice.ID).FirebaseUID)
}

func TestFirebaseLogin_Disabled(t *testing.T) {
	f := newFixture(t)
	svc := NewAccountService(f.store, f.hasher, nil, nil, zap.NewNop())

	_, err := svc.FirebaseLogin(context.Background(), "tok")
	assertErrorType(t, err, apperrors.ErrorTypeInvalidOperation, "Firebase login is not configured")
}

func TestAccountStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.store.Fail["GetAccountByUsername"] = errors.New("timeout")

	_, err := f.accounts.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "secret1"})
	assertErrorType(t, err, apperrors.ErrorTypeInternal, "Internal Server Error")
}
