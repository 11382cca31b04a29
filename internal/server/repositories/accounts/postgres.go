// Package accounts persists user accounts in PostgreSQL.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/luminary-catalog/luminary/internal/common"
	"github.com/luminary-catalog/luminary/internal/dbx"
	"github.com/luminary-catalog/luminary/internal/server/models"
)

// constraintFields maps unique constraint names from the users table to the
// field reported in a ConflictError.
var constraintFields = map[string]string{
	"users_email_key":    "email",
	"users_username_key": "username",
}

const selectColumns = `id, username, email, password, is_active, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {

	query :=
		`INSERT INTO users (username, email, password, is_active)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		account.Username, account.Email, account.PasswordHash, account.IsActive).
		Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)

	if err != nil {
		return nil, mapWriteError(err)
	}

	return account, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return r.getBy(ctx, "id", id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.getBy(ctx, "email", email)
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	return r.getBy(ctx, "username", username)
}

// getBy loads a single account by one of the indexed columns. column is
// never user input.
func (r *PostgresRepository) getBy(ctx context.Context, column, value string) (*models.Account, error) {
	query := `SELECT ` + selectColumns + ` FROM users WHERE ` + column + ` = $1`

	a := &models.Account{}
	err := r.db.QueryRowContext(ctx, query, value).
		Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return a, nil
}

// Update writes username, email, password and is_active back and bumps
// updated_at.
func (r *PostgresRepository) Update(ctx context.Context, account *models.Account) (*models.Account, error) {

	query :=
		`UPDATE users
		 SET username = $2, email = $3, password = $4, is_active = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		account.ID, account.Username, account.Email, account.PasswordHash, account.IsActive).
		Scan(&account.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, mapWriteError(err)
	}

	return account, nil
}

func mapWriteError(err error) error {
	if constraint, ok := dbx.UniqueViolation(err); ok {
		if field, known := constraintFields[constraint]; known {
			return common.NewConflict(field)
		}
		// Other constraint names stay out of the message; it reaches clients.
		return common.ErrorConflict
	}
	return fmt.Errorf("db error: %w", err)
}
