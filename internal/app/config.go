package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/bitshop/salesdash/internal/platform/cache"
	"github.com/bitshop/salesdash/internal/sales"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8050"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	CSVPath        string `envconfig:"SALES_CSV_PATH" default:"vendas.csv"`
	CSVEncoding    string `envconfig:"SALES_CSV_ENCODING" default:"latin1"`
	ColDate        string `envconfig:"SALES_COL_DATE" default:"data"`
	ColProduct     string `envconfig:"SALES_COL_PRODUCT" default:"produto"`
	ColSeller      string `envconfig:"SALES_COL_SELLER" default:"vendedor"`
	ColRegion      string `envconfig:"SALES_COL_REGION" default:"região"`
	ColAmount      string `envconfig:"SALES_COL_AMOUNT" default:"total"`
	Filters        string `envconfig:"SALES_FILTERS" default:"product,seller"`
	MultiSelect    bool   `envconfig:"SALES_MULTI_SELECT" default:"true"`
	PageSize       int    `envconfig:"SALES_PAGE_SIZE" default:"10"`
	ExportFilename string `envconfig:"SALES_EXPORT_FILENAME" default:"vendas_filtradas.xlsx"`
	Title          string `envconfig:"SALES_TITLE" default:"Vendas Bit Shop"`

	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTL      time.Duration `envconfig:"CACHE_TTL" default:"10m"`

	GotenbergURL string `envconfig:"GOTENBERG_URL"`
}

// LoadConfig reads configuration from a .env file, when present, and the
// environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	if c.CSVPath == "" {
		return errors.New("sales csv path must be provided")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got %d", c.PageSize)
	}
	if _, err := c.Schema(); err != nil {
		return err
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// LoadOptions maps the dataset settings onto the loader options.
func (c *Config) LoadOptions() sales.LoadOptions {
	return sales.LoadOptions{
		Encoding: c.CSVEncoding,
		Columns: sales.ColumnMap{
			Date:    c.ColDate,
			Product: c.ColProduct,
			Seller:  c.ColSeller,
			Region:  c.ColRegion,
			Amount:  c.ColAmount,
		},
	}
}

// Redis returns the connection settings shared by the cache and the job queue.
func (c *Config) Redis() cache.Options {
	return cache.Options{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}

// Schema returns the configured filter schema.
func (c *Config) Schema() (sales.Schema, error) {
	return sales.ParseSchema(c.Filters, c.MultiSelect)
}
