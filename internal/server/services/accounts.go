// Package services contains server-side business logic. AccountService
// handles signup, login and the authenticated profile; GenreService is the
// catalog collaborator behind the auth gate.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/luminary-catalog/luminary/internal/common"
	"github.com/luminary-catalog/luminary/internal/cryptox"
	"github.com/luminary-catalog/luminary/internal/dbx"
	"github.com/luminary-catalog/luminary/internal/logging"
	"github.com/luminary-catalog/luminary/internal/server/auth"
	"github.com/luminary-catalog/luminary/internal/server/config"
	"github.com/luminary-catalog/luminary/internal/server/models"
	"github.com/luminary-catalog/luminary/internal/server/repositories/repomanager"
)

// AuthResult is returned by Signup and Login.
type AuthResult struct {
	Account *models.Account
	Token   string
}

// ProfileUpdate lists the fields a user may change on their own account.
// Nil means unchanged.
type ProfileUpdate struct {
	Username *string
	Email    *string
	Password *string
}

// AccountService provides the credential operations:
//   - Signup: uniqueness checks, hash, persist, issue token
//   - Login: lookup, active check, verify, issue token
//   - Profile / UpdateProfile: the authenticated user's own record
type AccountService struct {
	db                   *sql.DB
	repomanager          repomanager.RepositoryManager
	hasher               cryptox.PasswordHasher
	tokens               auth.TokenIssuer
	logger               logging.Logger
	storeTimeout         time.Duration
	requireActiveAccount bool
}

// NewAccountService constructs an AccountService using repositories and server config.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config,
	hasher cryptox.PasswordHasher, tokens auth.TokenIssuer, logger logging.Logger) *AccountService {
	return &AccountService{
		db:                   db,
		repomanager:          m,
		hasher:               hasher,
		tokens:               tokens,
		logger:               logger.With("module", "account_service"),
		storeTimeout:         cfg.StoreTimeout,
		requireActiveAccount: cfg.RequireActiveAccount,
	}
}

// Signup registers a new account and returns it with a fresh token. Email
// uniqueness is checked before username uniqueness.
func (s *AccountService) Signup(ctx context.Context, username, email, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, common.Validationf("username, email and password are required")
	}

	repo := s.repomanager.Accounts(s.db)

	if err := s.ensureFree(ctx, repo.GetByEmail, email, "email", ""); err != nil {
		return nil, err
	}
	if err := s.ensureFree(ctx, repo.GetByUsername, username, "username", ""); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error(ctx, "password hashing failed", "error", err)
		return nil, err
	}

	account := &models.Account{Username: username, Email: email, PasswordHash: hash, IsActive: true}

	created, err := withStoreTimeout(ctx, s.storeTimeout, func(ctx context.Context) (*models.Account, error) {
		return repo.Create(ctx, account)
	})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			s.logger.Info(ctx, "signup conflict on insert", "error", err.Error())
			return nil, err
		}
		return nil, s.storeError(ctx, "create account", err)
	}

	token, err := s.issue(created)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "account created", "account_id", created.ID, "email", logging.MaskEmail(created.Email))
	return &AuthResult{Account: created, Token: token}, nil
}

// Login checks credentials and returns the account with a fresh token.
// Every credential failure is a *common.AuthError; the reason is logged but
// callers must not expose it.
func (s *AccountService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, common.Validationf("email and password are required")
	}

	repo := s.repomanager.Accounts(s.db)

	account, err := withStoreTimeout(ctx, s.storeTimeout, func(ctx context.Context) (*models.Account, error) {
		return repo.GetByEmail(ctx, email)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, s.authFailure(ctx, email, common.ReasonNotFound)
		}
		return nil, s.storeError(ctx, "lookup account", err)
	}

	if s.requireActiveAccount && !account.IsActive {
		return nil, s.authFailure(ctx, email, common.ReasonInactive)
	}

	ok, err := s.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		s.logger.Error(ctx, "password verification failed", "account_id", account.ID, "error", err)
		return nil, err
	}
	if !ok {
		return nil, s.authFailure(ctx, email, common.ReasonInvalidPassword)
	}

	token, err := s.issue(account)
	if err != nil {
		return nil, err
	}

	return &AuthResult{Account: account, Token: token}, nil
}

// Profile returns the account with the given id.
func (s *AccountService) Profile(ctx context.Context, accountID string) (*models.Account, error) {
	repo := s.repomanager.Accounts(s.db)

	account, err := withStoreTimeout(ctx, s.storeTimeout, func(ctx context.Context) (*models.Account, error) {
		return repo.GetByID(ctx, accountID)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, s.storeError(ctx, "load profile", err)
	}
	return account, nil
}

// UpdateProfile applies upd to the caller's own account inside a single
// transaction. New email and username must not belong to another account;
// a new password is hashed before it is stored.
func (s *AccountService) UpdateProfile(ctx context.Context, accountID string, upd ProfileUpdate) (*models.Account, error) {
	if upd.Username != nil {
		v := strings.TrimSpace(*upd.Username)
		if v == "" {
			return nil, common.Validationf("username must not be empty")
		}
		upd.Username = &v
	}
	if upd.Email != nil {
		v := strings.TrimSpace(*upd.Email)
		if v == "" {
			return nil, common.Validationf("email must not be empty")
		}
		upd.Email = &v
	}
	if upd.Password != nil && *upd.Password == "" {
		return nil, common.Validationf("password must not be empty")
	}

	var newHash string
	if upd.Password != nil {
		h, err := s.hasher.Hash(*upd.Password)
		if err != nil {
			s.logger.Error(ctx, "password hashing failed", "error", err)
			return nil, err
		}
		newHash = h
	}

	if s.storeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.storeTimeout)
		defer cancel()
	}

	var updated *models.Account
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)

		account, err := repo.GetByID(ctx, accountID)
		if err != nil {
			return err
		}

		if upd.Email != nil && *upd.Email != account.Email {
			if err := s.ensureFree(ctx, repo.GetByEmail, *upd.Email, "email", account.ID); err != nil {
				return err
			}
			account.Email = *upd.Email
		}
		if upd.Username != nil && *upd.Username != account.Username {
			if err := s.ensureFree(ctx, repo.GetByUsername, *upd.Username, "username", account.ID); err != nil {
				return err
			}
			account.Username = *upd.Username
		}
		if newHash != "" {
			account.PasswordHash = newHash
		}

		updated, err = repo.Update(ctx, account)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorNotFound),
			errors.Is(err, common.ErrorConflict),
			errors.Is(err, common.ErrorStoreUnavailable):
			return nil, err
		}
		return nil, s.storeError(ctx, "update profile", err)
	}

	s.logger.Info(ctx, "profile updated", "account_id", updated.ID)
	return updated, nil
}

type lookupFunc func(ctx context.Context, value string) (*models.Account, error)

// ensureFree fails with a ConflictError on field when lookup finds an
// account other than self. Pass self == "" for signup.
func (s *AccountService) ensureFree(ctx context.Context, lookup lookupFunc, value, field, self string) error {
	existing, err := withStoreTimeout(ctx, s.storeTimeout, func(ctx context.Context) (*models.Account, error) {
		return lookup(ctx, value)
	})
	if err == nil {
		if self != "" && existing.ID == self {
			return nil
		}
		return common.NewConflict(field)
	}
	if errors.Is(err, common.ErrorNotFound) {
		return nil
	}
	return s.storeError(ctx, "check "+field, err)
}

func (s *AccountService) issue(a *models.Account) (string, error) {
	token, err := s.tokens.Issue(a.ID, a.Email)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return token, nil
}

func (s *AccountService) authFailure(ctx context.Context, email string, reason common.AuthReason) error {
	s.logger.Warn(ctx, "login rejected", "email", logging.MaskEmail(email), "reason", string(reason))
	return common.NewAuthError(reason)
}

func (s *AccountService) storeError(ctx context.Context, op string, err error) error {
	s.logger.Error(ctx, "credential store failure", "op", op, "error", err)
	return fmt.Errorf("%w: %s: %v", common.ErrorStoreUnavailable, op, err)
}

// withStoreTimeout bounds a single store call.
func withStoreTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if d <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return fn(ctx)
}
