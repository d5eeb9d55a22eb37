package repositories

import (
	"context"

	"library-circulation/internal/adapters/persistence/models"
)

// SettingRepository defines runtime settings access
type SettingRepository interface {
	Get(ctx context.Context, key string) (*models.Setting, error)
	Set(ctx context.Context, key, value, description string) error
	SetDefault(ctx context.Context, key, value, description string) error
	List(ctx context.Context) ([]*models.Setting, error)
}
