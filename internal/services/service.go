// Package services holds the social graph operations. Each exported method is
// one request's worth of work and returns *errors.BaseError values that the
// transport maps onto status codes.
package services

import (
	"errors"

	"github.com/anonto42/socialgraph/backend/internal/models"
	"github.com/anonto42/socialgraph/backend/internal/repositories"
	apperrors "github.com/anonto42/socialgraph/backend/pkg/errors"
)

const (
	msgUserNotFound = "User not found"
	msgPostNotFound = "Post not found"
)

// notFoundOr turns a repository miss into a NotFound with msg and wraps any
// other failure as internal.
func notFoundOr(err error, msg, op string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperrors.NewNotFound(msg)
	}
	return apperrors.NewInternal(op, err)
}

// passThrough keeps errors already in the taxonomy and wraps the rest
func passThrough(err error, op string) error {
	var baseErr *apperrors.BaseError
	if errors.As(err, &baseErr) {
		return err
	}
	return apperrors.NewInternal(op, err)
}

func redactAll(accounts []models.Account) []models.Account {
	out := make([]models.Account, len(accounts))
	for i, a := range accounts {
		out[i] = a.Redacted()
	}
	return out
}
