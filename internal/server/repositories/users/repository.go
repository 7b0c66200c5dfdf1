// Package users persists user records. Implementations are bound to a
// dbx.DBTX so they work both on a plain connection pool and inside a
// transaction.
package users

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository is the user store consumed by the auth service.
//
// Create assigns ID and CreatedAt and returns common.ErrorAlreadyExists when
// the email is taken; the unique constraint behind it is what keeps at most
// one account per email under concurrent registrations.
// GetUserByEmail matches the email exactly and returns common.ErrorNotFound
// when there is no such user.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}
