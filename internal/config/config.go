package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/spec-kit/ticket-bridge/internal/domain"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Discord  DiscordConfig
	Tickets  TicketsConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
}

// AppConfig controls the admin HTTP server.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	HTTPEnabled           bool
}

// DiscordConfig holds platform connection values.
type DiscordConfig struct {
	Token            string
	GuildID          string
	PresenceText     string
	PresenceSchedule string
	PanelEmojiID     string
	BannerURL        string
}

// TicketsConfig is the static ticket configuration consumed by the core.
type TicketsConfig struct {
	// Categories maps a category name to its container (Discord category
	// channel) ID. An empty ID means the category is not configured.
	Categories             map[string]string
	StaffRoleID            string
	LogsWebhookURL         string
	LogsChannelID          string
	DetailMaxLength        int
	ExportSummaryBudget    int
	ExportTruncationMargin int
	RecapLimit             int
	CommandPrefixes        []string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	EventsChannel string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines admin API authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// categoryFile is the YAML layout of TICKET_CATEGORIES_FILE.
type categoryFile struct {
	Categories map[string]string `yaml:"categories"`
}

// Load reads configuration from environment variables, applying defaults
// where possible. envFiles are loaded first and must exist; with none, an
// optional ./.env is tried.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	categories, err := loadCategories(os.Getenv("TICKET_CATEGORIES_FILE"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticket-bridge"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			HTTPEnabled:           getEnvAsBool("HTTP_ENABLED", false),
		},
		Discord: DiscordConfig{
			Token:            os.Getenv("DISCORD_TOKEN"),
			GuildID:          os.Getenv("DISCORD_GUILD_ID"),
			PresenceText:     getEnv("DISCORD_PRESENCE_TEXT", "👹 Joue à Atlas|Demon Slayer Rp"),
			PresenceSchedule: getEnv("DISCORD_PRESENCE_SCHEDULE", "@every 60s"),
			PanelEmojiID:     os.Getenv("DISCORD_PANEL_EMOJI_ID"),
			BannerURL:        os.Getenv("DISCORD_BANNER_URL"),
		},
		Tickets: TicketsConfig{
			Categories:             categories,
			StaffRoleID:            os.Getenv("TICKET_STAFF_ROLE_ID"),
			LogsWebhookURL:         os.Getenv("TICKET_LOGS_WEBHOOK_URL"),
			LogsChannelID:          os.Getenv("TICKET_LOGS_CHANNEL_ID"),
			DetailMaxLength:        getEnvAsInt("TICKET_DETAIL_MAX_LENGTH", 100),
			ExportSummaryBudget:    getEnvAsInt("EXPORT_SUMMARY_BUDGET", 4000),
			ExportTruncationMargin: getEnvAsInt("EXPORT_TRUNCATION_MARGIN", 50),
			RecapLimit:             getEnvAsInt("TICKET_RECAP_LIMIT", 10),
			CommandPrefixes:        splitList(getEnv("TICKET_COMMAND_PREFIXES", "!,/")),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:          os.Getenv("REDIS_ADDR"),
			Password:      os.Getenv("REDIS_PASSWORD"),
			DB:            redisDB,
			EventsChannel: getEnv("REDIS_EVENTS_CHANNEL", "ticket-events"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             os.Getenv("AUTH_JWT_SECRET"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the bot cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if c.Discord.Token == "" {
		errs = append(errs, errors.New("DISCORD_TOKEN is required"))
	}
	if c.Discord.GuildID == "" {
		errs = append(errs, errors.New("DISCORD_GUILD_ID is required"))
	} else if _, err := strconv.ParseUint(c.Discord.GuildID, 10, 64); err != nil {
		errs = append(errs, fmt.Errorf("DISCORD_GUILD_ID is not a valid snowflake: %q", c.Discord.GuildID))
	}
	if c.Tickets.DetailMaxLength <= 0 {
		errs = append(errs, errors.New("TICKET_DETAIL_MAX_LENGTH must be positive"))
	}
	if c.Tickets.ExportTruncationMargin < 0 || c.Tickets.ExportTruncationMargin >= c.Tickets.ExportSummaryBudget {
		errs = append(errs, errors.New("EXPORT_TRUNCATION_MARGIN must be within EXPORT_SUMMARY_BUDGET"))
	}
	if c.App.HTTPEnabled {
		if err := c.Auth.validateSecret(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// minSecretLength is the shortest AUTH_JWT_SECRET accepted for the HS256
// signing key.
const minSecretLength = 32

var knownWeakSecrets = map[string]bool{"dev-secret": true, "secret": true, "changeme": true}

func (a AuthConfig) validateSecret() error {
	switch {
	case a.JWTSecret == "":
		return errors.New("AUTH_JWT_SECRET is required when HTTP_ENABLED is true")
	case knownWeakSecrets[a.JWTSecret]:
		return fmt.Errorf("AUTH_JWT_SECRET %q is a placeholder", a.JWTSecret)
	case len(a.JWTSecret) < minSecretLength:
		return fmt.Errorf("AUTH_JWT_SECRET must be at least %d bytes", minSecretLength)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// loadCategories builds the category→container mapping. The YAML file wins
// over TICKET_CATEGORY_<NAME> variables; unknown names in the file are
// rejected so typos do not silently disable a category.
func loadCategories(path string) (map[string]string, error) {
	mapping := make(map[string]string, len(domain.Categories))
	for _, c := range domain.Categories {
		mapping[c.Name] = os.Getenv(categoryEnvKey(c.Name))
	}
	if path == "" {
		return mapping, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read categories file: %w", err)
	}
	var file categoryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse categories file: %w", err)
	}
	for name, containerID := range file.Categories {
		if _, ok := domain.LookupCategory(name); !ok {
			return nil, fmt.Errorf("categories file: unknown category %q", name)
		}
		mapping[name] = strings.TrimSpace(containerID)
	}
	return mapping, nil
}

// categoryEnvKey turns "Candidature Staff" into TICKET_CATEGORY_CANDIDATURE_STAFF.
func categoryEnvKey(name string) string {
	return "TICKET_CATEGORY_" + strings.ToUpper(strings.ReplaceAll(name, " ", "_"))
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
