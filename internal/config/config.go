package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/marcolomele/makeup-portfolio/shared/db/sqlite"
)

// SourceKind selects where the portfolio document comes from.
type SourceKind string

const (
	SourceHTTP   SourceKind = "http"
	SourceFile   SourceKind = "file"
	SourceGitHub SourceKind = "github"
)

type Config struct {
	Port            int           `env:"PORTFOLIO_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"PORTFOLIO_SHUTDOWN_TIMEOUT" envDefault:"5s"`
	LogLevel        string        `env:"PORTFOLIO_LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"PORTFOLIO_LOG_FORMAT" envDefault:"console"`

	Source   SourceConfig
	Resolver ResolverConfig
	GitHub   GitHubConfig
	SQLite   sqlite.SQLiteConfig

	// how long a fetched document is served before the source is asked again
	CacheTTL time.Duration `env:"PORTFOLIO_CACHE_TTL" envDefault:"5m"`
	// how long a page waits for images to settle before it is rendered with what it has
	RenderWait    time.Duration `env:"PORTFOLIO_RENDER_WAIT" envDefault:"3s"`
	WebhookSecret string        `env:"PORTFOLIO_WEBHOOK_SECRET"`
	ColumnsFile   string        `env:"PORTFOLIO_IMPORT_COLUMNS"`
}

type SourceConfig struct {
	Kind SourceKind `env:"PORTFOLIO_SOURCE" envDefault:"file"`
	URL  string     `env:"PORTFOLIO_SOURCE_URL"`
	Path string     `env:"PORTFOLIO_SOURCE_PATH" envDefault:"src/data/portfolio-dev.json"`
	// reload the document when the local file changes
	Watch bool `env:"PORTFOLIO_SOURCE_WATCH" envDefault:"true"`
}

type ResolverConfig struct {
	Timeout     time.Duration `env:"PORTFOLIO_RESOLVER_TIMEOUT" envDefault:"10s"`
	Placeholder string        `env:"PORTFOLIO_RESOLVER_PLACEHOLDER" envDefault:"https://via.placeholder.com/800x600/cccccc/666666?text=Image+Loading..."`
	SizeHint    string        `env:"PORTFOLIO_RESOLVER_SIZE_HINT" envDefault:"w800"`
	UserAgent   string        `env:"PORTFOLIO_RESOLVER_USER_AGENT" envDefault:"makeup-portfolio/1.0"`
	ProbeRate   float64       `env:"PORTFOLIO_PROBE_RATE" envDefault:"20"`
	ProbeBurst  int           `env:"PORTFOLIO_PROBE_BURST" envDefault:"8"`
}

type GitHubConfig struct {
	Owner string `env:"PORTFOLIO_GITHUB_OWNER"`
	Repo  string `env:"PORTFOLIO_GITHUB_REPO"`
	Path  string `env:"PORTFOLIO_GITHUB_PATH" envDefault:"src/data/portfolio-dev.json"`
	Ref   string `env:"PORTFOLIO_GITHUB_REF"`
	Token string `env:"PORTFOLIO_GITHUB_TOKEN"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORTFOLIO_PORT must be between 1 and 65535, got %d", c.Port))
	}

	switch c.Source.Kind {
	case SourceHTTP:
		if c.Source.URL == "" {
			errs = append(errs, errors.New("PORTFOLIO_SOURCE_URL is required for the http source"))
		}
	case SourceFile:
		if c.Source.Path == "" {
			errs = append(errs, errors.New("PORTFOLIO_SOURCE_PATH is required for the file source"))
		}
	case SourceGitHub:
		if c.GitHub.Owner == "" || c.GitHub.Repo == "" {
			errs = append(errs, errors.New("PORTFOLIO_GITHUB_OWNER and PORTFOLIO_GITHUB_REPO are required for the github source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown PORTFOLIO_SOURCE %q (want http, file or github)", c.Source.Kind))
	}

	if c.Resolver.Timeout <= 0 {
		errs = append(errs, errors.New("PORTFOLIO_RESOLVER_TIMEOUT must be positive"))
	}
	if c.Resolver.ProbeRate < 0 {
		errs = append(errs, errors.New("PORTFOLIO_PROBE_RATE cannot be negative"))
	}

	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown PORTFOLIO_LOG_FORMAT %q (want console or json)", c.LogFormat))
	}

	return errors.Join(errs...)
}
