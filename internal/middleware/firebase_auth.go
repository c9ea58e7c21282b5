package middleware

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/socialgraph/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IDTokenVerifier verifies Firebase ID tokens; *auth.Client implements it
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseResolver accepts Firebase ID tokens as bearer credentials for
// accounts already linked through firebase login
type FirebaseResolver struct {
	verifier IDTokenVerifier
	accounts repositories.AccountRepository
}

func NewFirebaseResolver(verifier IDTokenVerifier, accounts repositories.AccountRepository) *FirebaseResolver {
	return &FirebaseResolver{verifier: verifier, accounts: accounts}
}

func (r *FirebaseResolver) Resolve(ctx context.Context, idToken string) (primitive.ObjectID, error) {
	token, err := r.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid or expired ID token: %w", err)
	}

	account, err := r.accounts.GetAccountByFirebaseUID(ctx, token.UID)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("no account linked to firebase uid %s: %w", token.UID, err)
	}
	return account.ID, nil
}
