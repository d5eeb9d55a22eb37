package repositories

import (
	"context"

	"library-circulation/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// settingRepository implements SettingRepository interface
type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository creates a new setting repository
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

// Get gets a setting by key
func (r *settingRepository) Get(ctx context.Context, key string) (*models.Setting, error) {
	var setting models.Setting
	err := r.db.WithContext(ctx).
		Where("setting_key = ?", key).
		First(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

// Set creates or overwrites a setting
func (r *settingRepository) Set(ctx context.Context, key, value, description string) error {
	setting := &models.Setting{SettingKey: key, Value: value, Description: description}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "setting_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "description", "updated_at"}),
		}).
		Create(setting).Error
}

// SetDefault creates a setting only when the key is missing
func (r *settingRepository) SetDefault(ctx context.Context, key, value, description string) error {
	setting := &models.Setting{SettingKey: key, Value: value, Description: description}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(setting).Error
}

// List lists all settings
func (r *settingRepository) List(ctx context.Context) ([]*models.Setting, error) {
	var settings []*models.Setting
	err := r.db.WithContext(ctx).Order("setting_key ASC").Find(&settings).Error
	return settings, err
}
