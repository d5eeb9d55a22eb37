package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"library-circulation/internal/adapters/persistence/models"
	"library-circulation/internal/adapters/persistence/repositories"
	"library-circulation/internal/core/allocator"
	"library-circulation/internal/core/domain"

	"gorm.io/gorm"
)

// MasterService manages shelving sections, categories and policy settings
type MasterService struct {
	store   *repositories.Store
	auditor Auditor
}

// NewMasterService creates a new master data service
func NewMasterService(store *repositories.Store, auditor Auditor) *MasterService {
	return &MasterService{store: store, auditor: auditor}
}

// ============================================================
// Section grids
// ============================================================

// SectionInput represents a section grid definition
type SectionInput struct {
	Section      string `json:"section" validate:"required,max=10"`
	ShelfCount   int    `json:"shelf_count" validate:"required,min=1,max=999"`
	RowsPerShelf int    `json:"rows_per_shelf" validate:"required,min=1,max=999"`
	SlotsPerRow  int    `json:"slots_per_row" validate:"required,min=1,max=999"`
	Description  string `json:"description" validate:"max=255"`
}

// ConfigureSection creates or resizes a section grid. Shrinking is refused
// while a shelved copy or a category default would fall outside the new
// bounds.
func (s *MasterService) ConfigureSection(ctx context.Context, input *SectionInput, actor domain.Actor) (grid *models.SectionGrid, err error) {
	defer observe("configure_section", time.Now(), &err)

	if err := validateInput(input); err != nil {
		return nil, err
	}
	g := allocator.Grid{
		Section:      strings.ToUpper(strings.TrimSpace(input.Section)),
		ShelfCount:   input.ShelfCount,
		RowsPerShelf: input.RowsPerShelf,
		SlotsPerRow:  input.SlotsPerRow,
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		stranded, err := tx.Copies.CountOutsideGrid(ctx, g)
		if err != nil {
			return err
		}
		if stranded > 0 {
			return fmt.Errorf("%w: %d shelved copies lie outside the new bounds of section %s", domain.ErrConflict, stranded, g.Section)
		}
		defaults, err := tx.Categories.CountOutsideGrid(ctx, g)
		if err != nil {
			return err
		}
		if defaults > 0 {
			return fmt.Errorf("%w: %d categories start outside the new bounds of section %s", domain.ErrConflict, defaults, g.Section)
		}
		return tx.Grids.Upsert(ctx, g, input.Description)
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Audit(ctx, AuditEntry{
		Action: "configure_section",
		Entity: "section",
		Actor:  actor,
		Payload: map[string]interface{}{
			"section": g.Section,
			"bounds":  fmt.Sprintf("%dx%dx%d", g.ShelfCount, g.RowsPerShelf, g.SlotsPerRow),
		},
	})

	grids, err := s.store.Grids.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, row := range grids {
		if row.SectionCode == g.Section {
			return row, nil
		}
	}
	return nil, fmt.Errorf("%w: section %s", domain.ErrNotFound, g.Section)
}

// ============================================================
// Categories
// ============================================================

// CategoryInput represents a category and its recommended start slot
type CategoryInput struct {
	Code     string          `json:"code" validate:"required,max=20"`
	Name     string          `json:"name" validate:"required,max=100"`
	Location CoordinateInput `json:"location"`
}

// ListCategories lists all categories
func (s *MasterService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	return s.store.Categories.List(ctx)
}

// SaveCategory creates or updates a category by code. Its default slot
// must lie inside a configured section.
func (s *MasterService) SaveCategory(ctx context.Context, input *CategoryInput, actor domain.Actor) (category *models.Category, err error) {
	defer observe("save_category", time.Now(), &err)

	if err := validateInput(input); err != nil {
		return nil, err
	}
	if err := validateInput(&input.Location); err != nil {
		return nil, err
	}
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	c := input.Location.Coordinate()
	c.Section = strings.ToUpper(c.Section)

	grid, err := s.store.Grids.Grid(ctx, c.Section)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: section %s is not configured", domain.ErrValidation, c.Section)
	}
	if err != nil {
		return nil, err
	}
	if !grid.Contains(c) {
		return nil, fmt.Errorf("%w: %s is outside section %s", domain.ErrValidation, c, c.Section)
	}

	category, err = s.store.Categories.GetByCode(ctx, code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		category = &models.Category{Code: code}
	} else if err != nil {
		return nil, err
	}
	category.Name = input.Name
	category.DefaultSection = c.Section
	category.DefaultShelf = c.Shelf
	category.DefaultRow = c.Row
	category.DefaultSlot = c.Slot

	if err := s.store.Categories.Save(ctx, category); err != nil {
		return nil, storeErr(err)
	}

	s.auditor.Audit(ctx, AuditEntry{
		Action:   "save_category",
		Entity:   "category",
		EntityID: category.ID,
		Actor:    actor,
		Payload:  map[string]interface{}{"code": code, "start": c.String()},
	})
	return category, nil
}

// ============================================================
// Settings
// ============================================================

// settingKinds lists the editable policy settings and how to parse them
var settingKinds = map[string]string{
	SettingBorrowDays:    "days",
	SettingHoldDays:      "days",
	SettingLateFeePerDay: "fee",
	SettingDamageFee:     "fee",
	SettingLostFee:       "fee",
}

// ListSettings lists the stored policy settings
func (s *MasterService) ListSettings(ctx context.Context) ([]*models.Setting, error) {
	return s.store.Settings.List(ctx)
}

// UpdateSetting changes one policy setting. Later operations pick the new
// value up through ResolvePolicy.
func (s *MasterService) UpdateSetting(ctx context.Context, key, value string, actor domain.Actor) (err error) {
	defer observe("update_setting", time.Now(), &err)

	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrNotFound, key)
	}
	value = strings.TrimSpace(value)
	switch kind {
	case "days":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 || n > 365 {
			return fmt.Errorf("%w: %s must be a whole number of days between 0 and 365", domain.ErrValidation, key)
		}
	case "fee":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative amount", domain.ErrValidation, key)
		}
	}

	setting, err := s.store.Settings.Get(ctx, key)
	description := ""
	if err == nil {
		description = setting.Description
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if err := s.store.Settings.Set(ctx, key, value, description); err != nil {
		return err
	}

	s.auditor.Audit(ctx, AuditEntry{
		Action:  "update_setting",
		Entity:  "setting",
		Actor:   actor,
		Payload: map[string]interface{}{"key": key, "value": value},
	})
	return nil
}
