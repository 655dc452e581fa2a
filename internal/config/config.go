package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Scraper ScraperConfig `mapstructure:"scraper"`
	Storage StorageConfig `mapstructure:"storage"`
	Assets  AssetsConfig  `mapstructure:"assets"`
	Log     LogConfig     `mapstructure:"log"`
}

// ScraperConfig holds the target site and request settings
type ScraperConfig struct {
	BaseURL              string        `mapstructure:"base_url"`
	CategoryPath         string        `mapstructure:"category_path"`
	UserAgent            string        `mapstructure:"user_agent"`
	Timeout              time.Duration `mapstructure:"timeout"`
	RequestDelay         time.Duration `mapstructure:"request_delay"`
	MaxRequestsPerSecond int           `mapstructure:"max_requests_per_second"`
	ProxyURL             string        `mapstructure:"proxy_url"`
}

// CategoryURL returns the absolute URL of the category landing page.
func (c ScraperConfig) CategoryURL() string {
	if strings.HasPrefix(c.CategoryPath, "http") {
		return c.CategoryPath
	}
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(c.CategoryPath, "/")
}

// StorageConfig selects where subcategory and product rows are persisted
type StorageConfig struct {
	Backend            string         `mapstructure:"backend"`
	OutputDir          string         `mapstructure:"output_dir"`
	SubcategoriesTable string         `mapstructure:"subcategories_table"`
	ProductsTable      string         `mapstructure:"products_table"`
	SQLitePath         string         `mapstructure:"sqlite_path"`
	Database           DatabaseConfig `mapstructure:"database"`
}

// DatabaseConfig holds database configuration for the postgres backend
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// DSN returns a libpq style connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name)
}

// AssetsConfig holds the per-level image folders, relative to the output dir
type AssetsConfig struct {
	SubcategoryImagesDir string `mapstructure:"subcategory_images_dir"`
	ThumbnailsDir        string `mapstructure:"thumbnails_dir"`
	ProductImagesDir     string `mapstructure:"product_images_dir"`
}

// LogConfig holds the run log settings
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

const (
	BackendCSV      = "csv"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

var (
	ErrEmptyBaseURL    = errors.New("invalid config: scraper.base_url is empty")
	ErrInvalidTimeout  = errors.New("invalid config: scraper.timeout must be positive")
	ErrInvalidDelay    = errors.New("invalid config: scraper.request_delay must be non-negative")
	ErrInvalidRate     = errors.New("invalid config: scraper.max_requests_per_second must be positive")
	ErrUnknownBackend  = errors.New("invalid config: unknown storage.backend")
	ErrEmptyTableName  = errors.New("invalid config: table names must not be empty")
	ErrEmptyAssetsPath = errors.New("invalid config: asset folders must not be empty")
)

// Load loads configuration from an optional YAML file with environment variable overrides
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvPrefix("scraper")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the values Load cannot default away.
func (c *Config) Validate() error {
	if c.Scraper.BaseURL == "" {
		return ErrEmptyBaseURL
	}
	if c.Scraper.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Scraper.RequestDelay < 0 {
		return ErrInvalidDelay
	}
	if c.Scraper.MaxRequestsPerSecond <= 0 {
		return ErrInvalidRate
	}

	switch c.Storage.Backend {
	case BackendCSV, BackendSQLite, BackendPostgres:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Storage.Backend)
	}
	if c.Storage.SubcategoriesTable == "" || c.Storage.ProductsTable == "" {
		return ErrEmptyTableName
	}

	if c.Assets.SubcategoryImagesDir == "" || c.Assets.ThumbnailsDir == "" || c.Assets.ProductImagesDir == "" {
		return ErrEmptyAssetsPath
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scraper.base_url", "https://www.piscine-market.com")
	v.SetDefault("scraper.category_path", "/robots-piscine/159/cg")
	v.SetDefault("scraper.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	v.SetDefault("scraper.timeout", 10*time.Second)
	v.SetDefault("scraper.request_delay", 3*time.Second)
	v.SetDefault("scraper.max_requests_per_second", 1)
	v.SetDefault("scraper.proxy_url", "")

	v.SetDefault("storage.backend", BackendCSV)
	v.SetDefault("storage.output_dir", ".")
	v.SetDefault("storage.subcategories_table", "subcategories")
	v.SetDefault("storage.products_table", "products")
	v.SetDefault("storage.sqlite_path", "scraper.db")

	v.SetDefault("storage.database.host", "localhost")
	v.SetDefault("storage.database.port", 5432)
	v.SetDefault("storage.database.name", "piscine_market")
	v.SetDefault("storage.database.user", "scraper")
	v.SetDefault("storage.database.password", "scraper")

	v.SetDefault("assets.subcategory_images_dir", "subcategories_images")
	v.SetDefault("assets.thumbnails_dir", "subcategories_thumbnails")
	v.SetDefault("assets.product_images_dir", "product_images")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "scraper.log")
}
