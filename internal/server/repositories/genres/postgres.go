// Package genres persists catalog genres in PostgreSQL.
package genres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/luminary-catalog/luminary/internal/common"
	"github.com/luminary-catalog/luminary/internal/dbx"
	"github.com/luminary-catalog/luminary/internal/server/models"
)

const nameConstraint = "genres_name_key"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List returns all genres ordered by name.
func (r *PostgresRepository) List(ctx context.Context) ([]models.Genre, error) {
	query :=
		`SELECT id, name, description, created_at FROM genres
		 ORDER BY name ASC
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Genre, 0)
	for rows.Next() {
		var g models.Genre
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Genre, error) {
	query :=
		`SELECT id, name, description, created_at FROM genres
		 WHERE id = $1
		 `

	g := &models.Genre{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&g.ID, &g.Name, &g.Description, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return g, nil
}

func (r *PostgresRepository) Create(ctx context.Context, genre *models.Genre) (*models.Genre, error) {
	query :=
		`INSERT INTO genres (name, description)
		 VALUES ($1, $2)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query, genre.Name, genre.Description).Scan(&genre.ID, &genre.CreatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}

	return genre, nil
}

func (r *PostgresRepository) Update(ctx context.Context, genre *models.Genre) (*models.Genre, error) {
	query :=
		`UPDATE genres SET name = $2, description = $3
		 WHERE id = $1
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query, genre.ID, genre.Name, genre.Description).Scan(&genre.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, mapWriteError(err)
	}

	return genre, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM genres WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func mapWriteError(err error) error {
	if constraint, ok := dbx.UniqueViolation(err); ok {
		if constraint == nameConstraint {
			return common.NewConflict("name")
		}
		// Other constraint names stay out of the message; it reaches clients.
		return common.ErrorConflict
	}
	return fmt.Errorf("db error: %w", err)
}
