package repomanager

import (
	"context"
	"database/sql"

	"github.com/luminary-catalog/luminary/internal/dbx"
	"github.com/luminary-catalog/luminary/internal/server/repositories/accounts"
	"github.com/luminary-catalog/luminary/internal/server/repositories/genres"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Genres(db dbx.DBTX) genres.Repository
}
