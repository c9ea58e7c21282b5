package services

import (
	"context"

	fbauth "firebase.google.com/go/v4/auth"
	apperrors "github.com/anonto42/socialgraph/backend/pkg/errors"
	"go.uber.org/zap"
)

// ImageStore keeps uploaded images. Upload takes a base64 data URL and
// returns the public URL plus the key Delete needs later.
type ImageStore interface {
	Upload(ctx context.Context, dataURL string) (url string, key string, err error)
	Delete(ctx context.Context, key string) error
}

// IdentityVerifier checks third-party ID tokens. *auth.Client from the
// Firebase Admin SDK satisfies it.
type IdentityVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

var errUploadsDisabled = apperrors.NewValidation("Image uploads are not configured")

func upload(ctx context.Context, images ImageStore, dataURL string) (string, string, error) {
	if images == nil {
		return "", "", errUploadsDisabled
	}
	url, key, err := images.Upload(ctx, dataURL)
	if err != nil {
		return "", "", passThrough(err, "upload image")
	}
	return url, key, nil
}

// discard deletes a stored image, logging rather than failing the request
func discard(ctx context.Context, images ImageStore, key string, log *zap.Logger) {
	if images == nil || key == "" {
		return
	}
	if err := images.Delete(ctx, key); err != nil {
		log.Warn("failed to delete image", zap.String("key", key), zap.Error(err))
	}
}
