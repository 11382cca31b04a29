package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/luminary-catalog/luminary/internal/common"
	"github.com/luminary-catalog/luminary/internal/logging"
	"github.com/luminary-catalog/luminary/internal/server/config"
	"github.com/luminary-catalog/luminary/internal/server/models"
	"github.com/luminary-catalog/luminary/internal/server/repositories/repomanager"
)

// GenreUpdate carries optional changes to a genre.
type GenreUpdate struct {
	Name        *string
	Description *string
}

type GenreService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	logger       logging.Logger
	storeTimeout time.Duration
}

func NewGenreService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *GenreService {
	return &GenreService{
		db:           db,
		repomanager:  m,
		logger:       logger.With("module", "genre_service"),
		storeTimeout: cfg.StoreTimeout,
	}
}

func (s *GenreService) List(ctx context.Context) ([]models.Genre, error) {
	repo := s.repomanager.Genres(s.db)

	genres, err := withStoreTimeout(ctx, s.storeTimeout, func(ctx context.Context) ([]models.Genre, error) {
		return repo.List(ctx)
	})
	if err != nil {
		return nil, s.fail(ctx, "list genres", err)
	}
	return genres, nil
}

func (s *GenreService) Get(ctx context.Context, id string) (*models.Genre, error) {
	repo := s.repomanager.Genres(s.db)

	g, err := withStoreTimeout(ctx, s.storeTimeout, func(ctx context.Context) (*models.Genre, error) {
		return repo.GetByID(ctx, id)
	})
	if err != nil {
		return nil, s.fail(ctx, "get genre", err)
	}
	return g, nil
}

// Create adds a genre. Name is required and unique.
func (s *GenreService) Create(ctx context.Context, name, description string) (*models.Genre, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.Validationf("name is required")
	}

	repo := s.repomanager.Genres(s.db)

	g, err := withStoreTimeout(ctx, s.storeTimeout, func(ctx context.Context) (*models.Genre, error) {
		return repo.Create(ctx, &models.Genre{Name: name, Description: strings.TrimSpace(description)})
	})
	if err != nil {
		return nil, s.fail(ctx, "create genre", err)
	}

	s.logger.Info(ctx, "genre created", "genre_id", g.ID)
	return g, nil
}

func (s *GenreService) Update(ctx context.Context, id string, upd GenreUpdate) (*models.Genre, error) {
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return nil, common.Validationf("name must not be empty")
	}

	repo := s.repomanager.Genres(s.db)

	g, err := withStoreTimeout(ctx, s.storeTimeout, func(ctx context.Context) (*models.Genre, error) {
		current, err := repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if upd.Name != nil {
			current.Name = strings.TrimSpace(*upd.Name)
		}
		if upd.Description != nil {
			current.Description = strings.TrimSpace(*upd.Description)
		}
		return repo.Update(ctx, current)
	})
	if err != nil {
		return nil, s.fail(ctx, "update genre", err)
	}
	return g, nil
}

func (s *GenreService) Delete(ctx context.Context, id string) error {
	repo := s.repomanager.Genres(s.db)

	_, err := withStoreTimeout(ctx, s.storeTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, repo.Delete(ctx, id)
	})
	if err != nil {
		return s.fail(ctx, "delete genre", err)
	}
	return nil
}

// fail passes caller-facing errors through and wraps everything else as
// ErrorStoreUnavailable.
func (s *GenreService) fail(ctx context.Context, op string, err error) error {
	if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorConflict) {
		return err
	}
	s.logger.Error(ctx, "genre store failure", "op", op, "error", err)
	return fmt.Errorf("%w: %s: %v", common.ErrorStoreUnavailable, op, err)
}
