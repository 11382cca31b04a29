package genres

import (
	"context"

	"github.com/luminary-catalog/luminary/internal/server/models"
)

type Repository interface {
	List(ctx context.Context) ([]models.Genre, error)
	GetByID(ctx context.Context, id string) (*models.Genre, error)
	Create(ctx context.Context, genre *models.Genre) (*models.Genre, error)
	Update(ctx context.Context, genre *models.Genre) (*models.Genre, error)
	Delete(ctx context.Context, id string) error
}
