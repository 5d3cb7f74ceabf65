package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pak23399/TSchedule/internal/calendar"
	"github.com/pak23399/TSchedule/internal/data/db"
	"github.com/pak23399/TSchedule/internal/grid"
	"github.com/pak23399/TSchedule/internal/platform/envutil"
)

type HTTPConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type AuthConfig struct {
	JWTSecretKey   string        `yaml:"jwt_secret_key"`
	JWTIssuer      string        `yaml:"jwt_issuer"`
	CookieName     string        `yaml:"cookie_name"`
	CookieSecure   bool          `yaml:"cookie_secure"`
	CookieTTL      time.Duration `yaml:"cookie_ttl"`
	AuthAPIBaseURL string        `yaml:"auth_api_base_url"`
}

type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	WeekCacheTTL time.Duration `yaml:"week_cache_ttl"`
}

type TimelineConfig struct {
	Labels       []string `yaml:"labels"`
	End          string   `yaml:"end"`
	SlotHeightPx float64  `yaml:"slot_height_px"`
}

type PreviewConfig struct {
	Enabled  bool   `yaml:"enabled"`
	FontPath string `yaml:"font_path"`
}

type Config struct {
	Env      string         `yaml:"env"`
	Timezone string         `yaml:"timezone"`
	HTTP     HTTPConfig     `yaml:"http"`
	DB       db.Config      `yaml:"db"`
	Auth     AuthConfig     `yaml:"auth"`
	Redis    RedisConfig    `yaml:"redis"`
	Timeline TimelineConfig `yaml:"timeline"`
	// AuditCron schedules the stored-rule audit; empty disables it.
	AuditCron string        `yaml:"audit_cron"`
	Preview   PreviewConfig `yaml:"preview"`
}

func defaultConfig() Config {
	return Config{
		Env:  "development",
		HTTP: HTTPConfig{Addr: ":8080"},
		DB: db.Config{
			Driver:     db.DriverPostgres,
			Host:       "localhost",
			Port:       "5432",
			SSLMode:    "disable",
			SQLitePath: "tschedule.db",
		},
		Auth: AuthConfig{
			CookieName: "dacn_token",
			CookieTTL:  7 * 24 * time.Hour,
		},
		Redis: RedisConfig{WeekCacheTTL: time.Minute},
		Timeline: TimelineConfig{
			Labels:       []string{"09:00", "09:30"},
			End:          grid.DefaultTimelineEnd,
			SlotHeightPx: 50,
		},
		AuditCron: "@every 1h",
		Preview:   PreviewConfig{Enabled: true},
	}
}

// LoadConfig layers defaults, an optional .env file, an optional YAML file
// named by CONFIG_FILE, and finally the environment.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Env = envutil.String("LOG_MODE", c.Env)
	c.Timezone = envutil.String("TIMEZONE", c.Timezone)

	if port := envutil.String("PORT", ""); port != "" {
		c.HTTP.Addr = ":" + port
	}
	c.HTTP.CORSOrigins = envutil.List("CORS_ORIGINS", c.HTTP.CORSOrigins)

	c.DB.Driver = envutil.String("DB_DRIVER", c.DB.Driver)
	c.DB.Host = envutil.String("POSTGRES_HOST", c.DB.Host)
	c.DB.Port = envutil.String("POSTGRES_PORT", c.DB.Port)
	c.DB.User = envutil.String("POSTGRES_USER", c.DB.User)
	c.DB.Password = envutil.String("POSTGRES_PASSWORD", c.DB.Password)
	c.DB.Name = envutil.String("POSTGRES_NAME", c.DB.Name)
	c.DB.SSLMode = envutil.String("POSTGRES_SSLMODE", c.DB.SSLMode)
	c.DB.SQLitePath = envutil.String("SQLITE_PATH", c.DB.SQLitePath)

	c.Auth.JWTSecretKey = envutil.String("JWT_SECRET_KEY", c.Auth.JWTSecretKey)
	c.Auth.JWTIssuer = envutil.String("JWT_ISSUER", c.Auth.JWTIssuer)
	c.Auth.CookieName = envutil.String("JWT_COOKIE_NAME", c.Auth.CookieName)
	c.Auth.CookieSecure = envutil.Bool("COOKIE_SECURE", c.Auth.CookieSecure)
	c.Auth.CookieTTL = envutil.Seconds("COOKIE_TTL_SECONDS", c.Auth.CookieTTL)
	c.Auth.AuthAPIBaseURL = envutil.String("AUTH_API_BASE_URL", c.Auth.AuthAPIBaseURL)

	c.Redis.Addr = envutil.String("REDIS_ADDR", c.Redis.Addr)
	c.Redis.WeekCacheTTL = envutil.Seconds("WEEK_CACHE_TTL_SECONDS", c.Redis.WeekCacheTTL)

	c.Timeline.Labels = envutil.List("TIMELINE_LABELS", c.Timeline.Labels)
	c.Timeline.End = envutil.String("TIMELINE_END", c.Timeline.End)
	c.Timeline.SlotHeightPx = envutil.Float("SLOT_HEIGHT_PX", c.Timeline.SlotHeightPx)

	c.AuditCron = envutil.String("AUDIT_CRON", c.AuditCron)
	c.Preview.Enabled = envutil.Bool("PREVIEW_ENABLED", c.Preview.Enabled)
	c.Preview.FontPath = envutil.String("PREVIEW_FONT", c.Preview.FontPath)
}

// Normalize fills zero values and rejects settings the server cannot run with.
func (c *Config) Normalize() error {
	c.Env = strings.TrimSpace(c.Env)
	if c.Env == "" {
		c.Env = "development"
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		c.HTTP.Addr = ":8080"
	}
	c.DB.Driver = strings.ToLower(strings.TrimSpace(c.DB.Driver))
	switch c.DB.Driver {
	case "", db.DriverPostgres:
		c.DB.Driver = db.DriverPostgres
	case db.DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if strings.TrimSpace(c.Auth.CookieName) == "" {
		c.Auth.CookieName = "dacn_token"
	}
	if c.Auth.CookieTTL <= 0 {
		c.Auth.CookieTTL = 7 * 24 * time.Hour
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Grid(); err != nil {
		return fmt.Errorf("timeline: %w", err)
	}
	return nil
}

// Location resolves Timezone; empty means the process local zone.
func (c Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Timezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}
	return loc, nil
}

func (c Config) Grid() (grid.Grid, error) {
	return grid.New(c.Timeline.Labels, c.Timeline.End, c.Timeline.SlotHeightPx)
}

// Anchor parses a YYYY-MM-DD flag value, defaulting to today in loc.
func Anchor(raw string, loc *time.Location) (calendar.Date, error) {
	if strings.TrimSpace(raw) == "" {
		return calendar.DateOf(time.Now().In(loc)), nil
	}
	return calendar.ParseDate(strings.TrimSpace(raw))
}
