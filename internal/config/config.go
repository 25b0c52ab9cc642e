package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	apperrors "github.com/kadirbelkuyu/tabledef/internal/errors"
)

const (
	TypePostgres  = "postgres"
	TypeSQLServer = "sqlserver"

	DriverPQ  = "pq"
	DriverPGX = "pgx"

	NameCaseCapitalize = "capitalize"
	NameCasePreserve   = "preserve"

	envPrefix           = "TABLEDEF_"
	defaultQueryTimeout = 30 * time.Second
)

type DatabaseConfig struct {
	Type         string `yaml:"type"          env:"TYPE"`
	Driver       string `yaml:"driver"        env:"DRIVER"`
	Host         string `yaml:"host"          env:"HOST"`
	Port         int    `yaml:"port"          env:"PORT"`
	Database     string `yaml:"database"      env:"NAME"`
	Schema       string `yaml:"schema"        env:"SCHEMA"`
	Username     string `yaml:"username"      env:"USER"`
	Password     string `yaml:"password"      env:"PASSWORD"`
	SSLMode      string `yaml:"sslmode"       env:"SSLMODE"`
	NameCase     string `yaml:"name_case"     env:"NAME_CASE"`
	QueryTimeout string `yaml:"query_timeout" env:"QUERY_TIMEOUT"`
}

type DocumentConfig struct {
	Title     string `yaml:"title"      env:"TITLE"`
	CoverPage *bool  `yaml:"cover_page" env:"COVER_PAGE"`
	OutputDir string `yaml:"output_dir" env:"OUTPUT_DIR"`
}

type Config struct {
	Database DatabaseConfig `yaml:"database" envPrefix:"DB_"`
	Document DocumentConfig `yaml:"document" envPrefix:"DOC_"`
}

// LoadConfig reads a YAML config file, applies TABLEDEF_* environment
// overrides and fills in engine defaults.
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeConfig, "failed to read config file").
			WithSuggestion("Pass an existing YAML file with --config")
	}

	return ParseConfig(data)
}

// ParseConfig is LoadConfig without the file read.
func ParseConfig(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeConfig, "failed to parse config")
	}

	if err := env.ParseWithOptions(&config, env.Options{Prefix: envPrefix}); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeConfig, "failed to parse environment variables")
	}

	if err := config.Complete(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Complete fills engine defaults and validates. Configs built in code, such
// as the ones assembled from interactive prompts, go through it too.
func (c *Config) Complete() error {
	c.applyDefaults()
	return c.Validate()
}

func (c *Config) applyDefaults() {
	c.Database.Type = normalizeDatabaseType(c.Database.Type)
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	c.Database.NameCase = strings.ToLower(strings.TrimSpace(c.Database.NameCase))

	if c.Database.Host == "" {
		c.Database.Host = "localhost"
	}
	if c.Database.NameCase == "" {
		c.Database.NameCase = NameCaseCapitalize
	}

	switch c.Database.Type {
	case TypePostgres:
		if c.Database.Driver == "" {
			c.Database.Driver = DriverPQ
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
		if c.Database.Schema == "" {
			c.Database.Schema = "public"
		}
	case TypeSQLServer:
		if c.Database.Port == 0 {
			c.Database.Port = 1433
		}
		if c.Database.Schema == "" {
			c.Database.Schema = "dbo"
		}
	}

	if c.Document.CoverPage == nil {
		enabled := true
		c.Document.CoverPage = &enabled
	}
}

// Validate rejects engine, driver and naming combinations the tool cannot serve.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case TypePostgres:
		if c.Database.Driver != DriverPQ && c.Database.Driver != DriverPGX {
			return apperrors.Newf(apperrors.ErrTypeConfig, "unsupported postgres driver: %s", c.Database.Driver).
				WithSuggestion("Use driver: pq or driver: pgx")
		}
	case TypeSQLServer:
	default:
		return apperrors.Newf(apperrors.ErrTypeConfig, "unsupported database type: %s", c.Database.Type).
			WithSuggestion("Use type: postgres or type: sqlserver")
	}

	if c.Database.NameCase != NameCaseCapitalize && c.Database.NameCase != NameCasePreserve {
		return apperrors.Newf(apperrors.ErrTypeConfig, "invalid name_case: %s (must be capitalize or preserve)", c.Database.NameCase)
	}

	if c.Database.QueryTimeout != "" {
		if _, err := time.ParseDuration(c.Database.QueryTimeout); err != nil {
			return apperrors.Wrapf(err, apperrors.ErrTypeConfig, "invalid query_timeout: %s", c.Database.QueryTimeout)
		}
	}

	return nil
}

// DriverName returns the database/sql driver registered for the configured engine.
func (c *Config) DriverName() string {
	if c.Database.Type == TypeSQLServer {
		return "sqlserver"
	}
	if c.Database.Driver == DriverPGX {
		return "pgx"
	}
	return "postgres"
}

func (c *Config) GetConnectionString() string {
	switch c.Database.Type {
	case TypeSQLServer:
		query := url.Values{}
		if c.Database.Database != "" {
			query.Set("database", c.Database.Database)
		}
		u := &url.URL{
			Scheme:   "sqlserver",
			Host:     net.JoinHostPort(c.Database.Host, strconv.Itoa(c.Database.Port)),
			RawQuery: query.Encode(),
		}
		if c.Database.Username != "" {
			u.User = url.UserPassword(c.Database.Username, c.Database.Password)
		}
		return u.String()
	case TypePostgres:
		if c.Database.Driver == DriverPGX {
			u := &url.URL{
				Scheme:   "postgres",
				Host:     net.JoinHostPort(c.Database.Host, strconv.Itoa(c.Database.Port)),
				Path:     "/" + c.Database.Database,
				RawQuery: url.Values{"sslmode": []string{c.Database.SSLMode}}.Encode(),
			}
			if c.Database.Username != "" {
				u.User = url.UserPassword(c.Database.Username, c.Database.Password)
			}
			return u.String()
		}

		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Database.Host,
			c.Database.Port,
			c.Database.Username,
			c.Database.Password,
			c.Database.Database,
			c.Database.SSLMode,
		)
	default:
		return ""
	}
}

// QueryTimeoutDuration returns the per-query timeout, 30s when unset.
func (c *Config) QueryTimeoutDuration() time.Duration {
	if c.Database.QueryTimeout == "" {
		return defaultQueryTimeout
	}
	d, err := time.ParseDuration(c.Database.QueryTimeout)
	if err != nil || d <= 0 {
		return defaultQueryTimeout
	}
	return d
}

// DocumentTitle is the configured title, or the database name.
func (c *Config) DocumentTitle() string {
	if title := strings.TrimSpace(c.Document.Title); title != "" {
		return title
	}
	return c.Database.Database
}

func (c *Config) CoverPageEnabled() bool {
	return c.Document.CoverPage == nil || *c.Document.CoverPage
}

func (c *Config) CapitalizeNames() bool {
	return c.Database.NameCase != NameCasePreserve
}

func normalizeDatabaseType(dbType string) string {
	dbType = strings.ToLower(strings.TrimSpace(dbType))
	if dbType == "" {
		return TypePostgres
	}

	switch dbType {
	case "postgres", "postgresql", "pg":
		return TypePostgres
	case "sqlserver", "mssql", "sql-server":
		return TypeSQLServer
	default:
		return dbType
	}
}
