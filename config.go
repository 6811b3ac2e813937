package pubcontent

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Source kinds accepted by SourceConfig.Kind.
const (
	SourceDir   = "dir"
	SourceAzure = "azure"
	SourceS3    = "s3"
)

// SiteConfig holds all configuration for a pubcontent site. It is read from an
// optional YAML file and then from the environment, environment winning.
type SiteConfig struct {
	Name        string `yaml:"name" env:"SITE_NAME" env-default:"Blog"`
	URL         string `yaml:"url" env:"SITE_URL" env-default:"http://localhost:3000"`
	Description string `yaml:"description" env:"SITE_DESCRIPTION"`
	Author      string `yaml:"author" env:"SITE_AUTHOR"`

	Addr     string `yaml:"addr" env:"ADDR" env-default:":3000"`
	Env      string `yaml:"env" env:"APP_ENV" env-default:"local"` // "prod" switches to JSON logs
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`

	Source    SourceConfig `yaml:"source" env-prefix:"SOURCE_"`
	IndexPath string       `yaml:"index_path" env:"INDEX_PATH"` // empty disables the SQLite index

	AdminPassword string `yaml:"admin_password" env:"ADMIN_PASSWORD"` // empty disables /admin/
	SessionSecret string `yaml:"session_secret" env:"SESSION_SECRET"`
	CookieSecure  bool   `yaml:"cookie_secure" env:"COOKIE_SECURE"`

	PostCacheTTL   time.Duration `yaml:"post_cache_ttl" env:"POST_CACHE_TTL" env-default:"5m"` // 0 means reload only on demand
	ExcludeInvalid bool          `yaml:"exclude_invalid" env:"EXCLUDE_INVALID"`
}

// SourceConfig selects where post documents are read from.
type SourceConfig struct {
	Kind   string   `yaml:"kind" env:"KIND" env-default:"dir"`
	Dir    string   `yaml:"dir" env:"DIR" env-default:"content/posts"`
	Prefix string   `yaml:"prefix" env:"PREFIX"`
	Exts   []string `yaml:"exts" env:"EXTS" env-separator:","`

	AzureAccount    string `yaml:"azure_account" env:"AZURE_ACCOUNT"`
	AzureKey        string `yaml:"azure_key" env:"AZURE_KEY"`
	AzureContainer  string `yaml:"azure_container" env:"AZURE_CONTAINER"`
	AzureServiceURL string `yaml:"azure_service_url" env:"AZURE_SERVICE_URL"`

	S3Bucket    string `yaml:"s3_bucket" env:"S3_BUCKET"`
	S3Region    string `yaml:"s3_region" env:"S3_REGION"`
	S3Endpoint  string `yaml:"s3_endpoint" env:"S3_ENDPOINT"`
	S3AccessKey string `yaml:"s3_access_key" env:"S3_ACCESS_KEY"`
	S3SecretKey string `yaml:"s3_secret_key" env:"S3_SECRET_KEY"`
}

// LoadConfig reads path (if non-empty and present) and the environment into a
// SiteConfig with defaults applied.
func LoadConfig(path string) (SiteConfig, error) {
	var cfg SiteConfig
	var err error
	if path != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			err = cleanenv.ReadConfig(path, &cfg)
		} else if !errors.Is(statErr, os.ErrNotExist) {
			return cfg, fmt.Errorf("pubcontent: config %s: %w", path, statErr)
		} else {
			err = cleanenv.ReadEnv(&cfg)
		}
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("pubcontent: read config: %w", err)
	}
	cfg.setDefaults()
	return cfg, nil
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.Source.Kind == "" {
		c.Source.Kind = SourceDir
	}
	if c.Source.Kind == SourceDir && c.Source.Dir == "" {
		c.Source.Dir = "content/posts"
	}
	if c.PostCacheTTL < 0 {
		c.PostCacheTTL = 0
	}
}

// AdminEnabled reports whether the admin routes are mounted.
func (c SiteConfig) AdminEnabled() bool {
	return c.AdminPassword != ""
}

// Validate checks the source selection and admin secrets.
func (c SiteConfig) Validate() error {
	switch c.Source.Kind {
	case SourceDir:
		if c.Source.Dir == "" {
			return errors.New("pubcontent: source dir is required")
		}
	case SourceAzure:
		if c.Source.AzureContainer == "" {
			return errors.New("pubcontent: azure container is required")
		}
		if c.Source.AzureAccount == "" && c.Source.AzureServiceURL == "" {
			return errors.New("pubcontent: azure account or service URL is required")
		}
	case SourceS3:
		if c.Source.S3Bucket == "" {
			return errors.New("pubcontent: s3 bucket is required")
		}
	default:
		return fmt.Errorf("pubcontent: unknown source kind %q", c.Source.Kind)
	}
	if c.AdminEnabled() && c.SessionSecret == "" {
		return errors.New("pubcontent: SessionSecret is required when AdminPassword is set")
	}
	return nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithIndex mirrors every refreshed snapshot into a search index.
func WithIndex(idx Indexer) Option {
	return func(a *App) {
		a.index = idx
	}
}
