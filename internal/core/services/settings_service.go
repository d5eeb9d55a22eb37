package services

import (
	"context"
	"errors"
	"log"
	"strconv"

	"library-circulation/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// Setting keys
const (
	SettingBorrowDays    = "borrow_days"
	SettingHoldDays      = "hold_days"
	SettingLateFeePerDay = "late_fee_per_day"
	SettingDamageFee     = "damage_fee"
	SettingLostFee       = "lost_fee"
)

// Policy is the circulation policy in effect for one operation
type Policy struct {
	BorrowDays    int
	HoldDays      int
	LateFeePerDay float64
	DamageFee     float64
	LostFee       float64
}

// DefaultPolicy is used when neither config nor settings override a value
var DefaultPolicy = Policy{
	BorrowDays:    14,
	HoldDays:      3,
	LateFeePerDay: 5,
	DamageFee:     100,
	LostFee:       500,
}

// SettingsService reads settings rows, falling back to defaults
type SettingsService struct {
	repo repositories.SettingRepository
}

// NewSettingsService creates a new settings service
func NewSettingsService(repo repositories.SettingRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

// Get returns the stored value for key or defaultValue
func (s *SettingsService) Get(ctx context.Context, key, defaultValue string) string {
	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("⚠️ Failed to read setting %s: %v", key, err)
		}
		return defaultValue
	}
	return setting.Value
}

// Seed stores the policy as default settings without overwriting edits
func (s *SettingsService) Seed(ctx context.Context, p Policy) error {
	defaults := []struct {
		key, value, desc string
	}{
		{SettingBorrowDays, strconv.Itoa(p.BorrowDays), "Loan period in days"},
		{SettingHoldDays, strconv.Itoa(p.HoldDays), "Days a pending reservation is kept"},
		{SettingLateFeePerDay, formatFloat(p.LateFeePerDay), "Late fee per overdue day"},
		{SettingDamageFee, formatFloat(p.DamageFee), "Fee for a copy returned damaged"},
		{SettingLostFee, formatFloat(p.LostFee), "Fee for a copy reported lost"},
	}
	for _, d := range defaults {
		if err := s.repo.SetDefault(ctx, d.key, d.value, d.desc); err != nil {
			return err
		}
	}
	return nil
}

// ResolvePolicy overlays settings on top of base
func ResolvePolicy(ctx context.Context, settings Settings, base Policy) Policy {
	if settings == nil {
		return base
	}
	return Policy{
		BorrowDays:    settingInt(ctx, settings, SettingBorrowDays, base.BorrowDays),
		HoldDays:      settingInt(ctx, settings, SettingHoldDays, base.HoldDays),
		LateFeePerDay: settingFloat(ctx, settings, SettingLateFeePerDay, base.LateFeePerDay),
		DamageFee:     settingFloat(ctx, settings, SettingDamageFee, base.DamageFee),
		LostFee:       settingFloat(ctx, settings, SettingLostFee, base.LostFee),
	}
}

func settingInt(ctx context.Context, settings Settings, key string, def int) int {
	v, err := strconv.Atoi(settings.Get(ctx, key, strconv.Itoa(def)))
	if err != nil {
		log.Printf("⚠️ Setting %s is not an integer, using %d", key, def)
		return def
	}
	return v
}

func settingFloat(ctx context.Context, settings Settings, key string, def float64) float64 {
	v, err := strconv.ParseFloat(settings.Get(ctx, key, formatFloat(def)), 64)
	if err != nil {
		log.Printf("⚠️ Setting %s is not a number, using %s", key, formatFloat(def))
		return def
	}
	return v
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
