package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode     string
	Port        string
	Database    DatabaseConfig
	JWT         JWTConfig
	Circulation CirculationConfig
	Cron        CronConfig
	Notify      NotifyConfig
	Files       FilesConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SQLitePath string
}

// JWTConfig holds settings for validating access tokens issued by the
// identity provider
type JWTConfig struct {
	Secret          string
	Issuer          string
	AccessTokenMins int
}

// CirculationConfig holds circulation policy defaults. Rows in the settings
// table override the fee and period values at runtime.
type CirculationConfig struct {
	BorrowDays           int
	HoldDays             int
	LateFeePerDay        float64
	DamageFee            float64
	LostFee              float64
	SlotSearchRadius     int
	ReconcileParallelism int
}

// CronConfig holds cron specs for background jobs
type CronConfig struct {
	Enabled            bool
	Reconcile          string
	ExpireReservations string
	MarkOverdue        string
	DispatchOutbox     string
}

// NotifyConfig holds notification webhook configuration
type NotifyConfig struct {
	WebhookURL string
}

// FilesConfig holds file locations
type FilesConfig struct {
	SectionGridFile string
	ReceiptDir      string
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Get APP_MODE (default to "dev") - trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	database := loadDatabaseConfig(appMode)
	switch database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("invalid DB_DRIVER: '%s' (must be 'mysql', 'postgres' or 'sqlite')", database.Driver)
	}

	// Build config based on APP_MODE
	config := &Config{
		AppMode:     appMode,
		Port:        getEnv("PORT", "3000"),
		Database:    database,
		JWT:         loadJWTConfig(appMode),
		Circulation: loadCirculationConfig(),
		Cron:        loadCronConfig(),
		Notify:      NotifyConfig{WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", "")},
		Files: FilesConfig{
			SectionGridFile: getEnv("SECTION_GRID_FILE", "configs/section_grids.yaml"),
			ReceiptDir:      getEnv("RECEIPT_DIR", "receipts"),
		},
	}

	// Set global config
	AppConfig = config

	log.Printf("✅ Configuration loaded successfully [MODE: %s, DB: %s]", appMode, database.Driver)
	return config, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	driver := strings.ToLower(strings.TrimSpace(getEnv("DB_DRIVER", "mysql")))
	defaultPort := "3306"
	if driver == "postgres" {
		defaultPort = "5432"
	}

	return DatabaseConfig{
		Driver:     driver,
		Host:       getEnv(prefix+"DB_HOST", "localhost"),
		Port:       getEnv(prefix+"DB_PORT", defaultPort),
		User:       getEnv(prefix+"DB_USER", "root"),
		Password:   getEnv(prefix+"DB_PASS", ""),
		DBName:     getEnv(prefix+"DB_NAME", "library_circulation"),
		SQLitePath: getEnv(prefix+"SQLITE_PATH", "library.db"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	return JWTConfig{
		Secret:          getEnv(prefix+"JWT_SECRET", "default_secret"),
		Issuer:          getEnv("JWT_ISSUER", "library-circulation"),
		AccessTokenMins: getEnvInt("ACCESS_TOKEN_MINUTES", 15),
	}
}

// loadCirculationConfig loads circulation policy defaults
func loadCirculationConfig() CirculationConfig {
	return CirculationConfig{
		BorrowDays:           getEnvInt("BORROW_DAYS", 14),
		HoldDays:             getEnvInt("HOLD_DAYS", 3),
		LateFeePerDay:        getEnvFloat("LATE_FEE_PER_DAY", 5),
		DamageFee:            getEnvFloat("DAMAGE_FEE", 100),
		LostFee:              getEnvFloat("LOST_FEE", 500),
		SlotSearchRadius:     getEnvInt("SLOT_SEARCH_RADIUS", 3),
		ReconcileParallelism: getEnvInt("RECONCILE_PARALLELISM", 4),
	}
}

// loadCronConfig loads background job schedules
func loadCronConfig() CronConfig {
	enabled, _ := strconv.ParseBool(getEnv("CRON_ENABLED", "true"))
	return CronConfig{
		Enabled:            enabled,
		Reconcile:          getEnv("CRON_RECONCILE", "0 3 * * *"),
		ExpireReservations: getEnv("CRON_EXPIRE_RESERVATIONS", "*/15 * * * *"),
		MarkOverdue:        getEnv("CRON_MARK_OVERDUE", "5 0 * * *"),
		DispatchOutbox:     getEnv("CRON_DISPATCH_OUTBOX", "* * * * *"),
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		log.Printf("⚠️ %s is not an integer, using %d", key, defaultValue)
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return v
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://library.example.org"
	}
	return origins
}
