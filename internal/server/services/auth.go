// Package services contains server-side business logic. AuthService handles
// registration, login and token checks on top of the user repository, the
// password hasher and the token issuer.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
)

// PasswordHasher derives and checks password digests.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) (bool, error)
}

// TokenIssuer mints and verifies access tokens.
type TokenIssuer interface {
	Issue(userID, email string) (string, error)
	Verify(token string) (*auth.Claims, error)
}

// AuthService provides authentication operations:
// - Register: create a user and return a token for it
// - Login: check credentials and return a token
// - Authorize: turn a token back into claims
//
// Failures surface as the sentinels in package common. Unexpected collaborator
// failures are wrapped with common.ErrorInternal and never retried.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	tokens      TokenIssuer
	logger      logging.Logger
	metrics     metrics.Recorder

	// dummyDigest is verified against when the email is unknown so that
	// both login failure paths cost one hash verification.
	dummyDigest string
}

// NewAuthService constructs an AuthService. logger and rec may be nil.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher, tokens TokenIssuer,
	logger logging.Logger, rec metrics.Recorder) (*AuthService, error) {
	if logger == nil {
		logger = logging.Nop{}
	}
	if rec == nil {
		rec = metrics.Nop{}
	}

	filler, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, fmt.Errorf("dummy password: %w", err)
	}
	dummy, err := hasher.Hash(filler)
	if err != nil {
		return nil, fmt.Errorf("dummy digest: %w", err)
	}

	return &AuthService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		logger:      logger.With("module", "auth"),
		metrics:     rec,
		dummyDigest: dummy,
	}, nil
}

// Register creates a user and returns an access token for it. It fails with
// common.ErrDuplicateUser when the email is already registered, and with
// common.ErrHashing or common.ErrInvalidInput for unusable input.
func (s *AuthService) Register(ctx context.Context, email, password string) (string, error) {
	user, err := s.createUser(ctx, email, password)
	if err != nil {
		s.metrics.RecordRegistration(outcome(err))
		s.logFailure(ctx, "registration failed", email, err)
		return "", err
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		err = fmt.Errorf("%w: issue token: %w", common.ErrorInternal, err)
		s.metrics.RecordRegistration(outcome(err))
		s.logFailure(ctx, "registration failed", email, err)
		return "", err
	}

	s.metrics.RecordRegistration(metrics.OutcomeSuccess)
	s.logger.Info(ctx, "user registered", "user_id", user.ID, "email", user.Email)
	return token, nil
}

// EnsureUser registers email unless it already exists. It reports whether a
// user was created.
func (s *AuthService) EnsureUser(ctx context.Context, email, password string) (bool, error) {
	user, err := s.createUser(ctx, email, password)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateUser) {
			return false, nil
		}
		return false, err
	}
	s.logger.Info(ctx, "user created", "user_id", user.ID, "email", user.Email)
	return true, nil
}

// Login checks the password for email and returns a fresh access token.
// Unknown email and wrong password both yield common.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	token, err := s.login(ctx, email, password)
	s.metrics.RecordLogin(outcome(err))
	if err != nil {
		s.logFailure(ctx, "login failed", email, err)
		return "", err
	}
	s.logger.Info(ctx, "user logged in", "email", email)
	return token, nil
}

// Authorize verifies token and returns its claims. No store lookup is made.
func (s *AuthService) Authorize(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		s.metrics.RecordAuthorization(metrics.OutcomeInvalidToken)
		s.logger.Debug(ctx, "token rejected")
		return nil, common.ErrInvalidToken
	}
	s.metrics.RecordAuthorization(metrics.OutcomeSuccess)
	return claims, nil
}

func (s *AuthService) createUser(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" {
		return nil, common.ErrInvalidInput
	}

	var user *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		_, err := repo.GetUserByEmail(ctx, email)
		switch {
		case err == nil:
			return common.ErrDuplicateUser
		case !errors.Is(err, common.ErrorNotFound):
			return fmt.Errorf("%w: lookup user: %w", common.ErrorInternal, err)
		}

		digest, err := s.hasher.Hash(password)
		if err != nil {
			return err
		}

		user, err = repo.Create(ctx, &models.User{Email: email, PasswordDigest: digest})
		if err != nil {
			// lost a race with a concurrent registration
			if errors.Is(err, common.ErrorAlreadyExists) {
				return common.ErrDuplicateUser
			}
			return fmt.Errorf("%w: create user: %w", common.ErrorInternal, err)
		}
		return nil
	})
	if err != nil {
		return nil, asInternal(err)
	}
	return user, nil
}

func (s *AuthService) login(ctx context.Context, email, password string) (string, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return "", fmt.Errorf("%w: lookup user: %w", common.ErrorInternal, err)
		}
		// same cost as a real check; the result is irrelevant
		_, _ = s.hasher.Verify(password, s.dummyDigest)
		return "", common.ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(password, user.PasswordDigest)
	if err != nil {
		// a bad stored digest is a server fault, not a client input problem
		return "", fmt.Errorf("%w: stored digest for user %s: %v", common.ErrorInternal, user.ID, err)
	}
	if !ok {
		return "", common.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return "", fmt.Errorf("%w: issue token: %w", common.ErrorInternal, err)
	}
	return token, nil
}

func (s *AuthService) logFailure(ctx context.Context, msg, email string, err error) {
	if errors.Is(err, common.ErrorInternal) {
		s.logger.Error(ctx, msg, "email", email, "error", err)
		return
	}
	s.logger.Info(ctx, msg, "email", email, "reason", outcome(err))
}

// asInternal leaves caller-facing sentinels alone and marks everything else
// as internal.
func asInternal(err error) error {
	for _, known := range []error{
		common.ErrorInternal,
		common.ErrDuplicateUser,
		common.ErrInvalidInput,
		common.ErrHashing,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", common.ErrorInternal, err)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, common.ErrorInternal):
		return metrics.OutcomeError
	case errors.Is(err, common.ErrDuplicateUser):
		return metrics.OutcomeDuplicateUser
	case errors.Is(err, common.ErrInvalidCredentials):
		return metrics.OutcomeInvalidCredentials
	case errors.Is(err, common.ErrInvalidToken):
		return metrics.OutcomeInvalidToken
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrHashing):
		return metrics.OutcomeInvalidInput
	default:
		return metrics.OutcomeError
	}
}
