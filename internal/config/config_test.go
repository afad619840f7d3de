package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("DISCORD_GUILD_ID", "123456789012345678")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("TICKET_CATEGORY_PLAINTE", "1406833167385624646")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tickets.DetailMaxLength != 100 {
		t.Errorf("DetailMaxLength = %d, want 100", cfg.Tickets.DetailMaxLength)
	}
	if cfg.Tickets.ExportSummaryBudget != 4000 || cfg.Tickets.ExportTruncationMargin != 50 {
		t.Errorf("export budget = %d/%d, want 4000/50", cfg.Tickets.ExportSummaryBudget, cfg.Tickets.ExportTruncationMargin)
	}
	if !reflect.DeepEqual(cfg.Tickets.CommandPrefixes, []string{"!", "/"}) {
		t.Errorf("CommandPrefixes = %v", cfg.Tickets.CommandPrefixes)
	}
	if got := cfg.Tickets.Categories["Plainte"]; got != "1406833167385624646" {
		t.Errorf("Plainte container = %q", got)
	}
	if got, ok := cfg.Tickets.Categories["Question"]; !ok || got != "" {
		t.Errorf("Question should be present and unmapped, got %q (present=%v)", got, ok)
	}
	if cfg.App.HTTPEnabled {
		t.Error("admin API should be off unless HTTP_ENABLED is set")
	}
}

func TestLoadAdminAPISecret(t *testing.T) {
	cases := []struct {
		name    string
		secret  string
		wantErr bool
	}{
		{"unset", "", true},
		{"placeholder", "dev-secret", true},
		{"short", "0123456789", true},
		{"strong", "4f7c1d9e2b8a6350c1e7f9a2d4b6c8e0", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv("HTTP_ENABLED", "true")
			t.Setenv("AUTH_JWT_SECRET", tc.secret)
			cfg, err := Load()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Load error = %v, wantErr %v", err, tc.wantErr)
			}
			if err == nil && !cfg.App.HTTPEnabled {
				t.Error("HTTP_ENABLED not honored")
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	setRequired(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("expected an error for a missing env file")
	}

	path := filepath.Join(t.TempDir(), "bot.env")
	if err := os.WriteFile(path, []byte("APP_NAME=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("APP_NAME", "")
	os.Unsetenv("APP_NAME")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Name != "from-file" {
		t.Errorf("App.Name = %q, want value from env file", cfg.App.Name)
	}
}

func TestLoadCategoriesFile(t *testing.T) {
	setRequired(t)
	path := filepath.Join(t.TempDir(), "categories.yaml")
	content := "categories:\n  Boutique: \"42\"\n  Candidature Staff: \"43\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TICKET_CATEGORIES_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tickets.Categories["Boutique"] != "42" || cfg.Tickets.Categories["Candidature Staff"] != "43" {
		t.Errorf("categories = %v", cfg.Tickets.Categories)
	}
}

func TestLoadCategoriesFileRejectsUnknown(t *testing.T) {
	setRequired(t)
	path := filepath.Join(t.TempDir(), "categories.yaml")
	if err := os.WriteFile(path, []byte("categories:\n  Nope: \"1\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TICKET_CATEGORIES_FILE", path)

	if _, err := Load(); err == nil {
		t.Fatal("expected an error for an unknown category")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"missing token", func(c *Config) { c.Discord.Token = "" }, true},
		{"bad guild", func(c *Config) { c.Discord.GuildID = "guild" }, true},
		{"margin over budget", func(c *Config) { c.Tickets.ExportTruncationMargin = 5000 }, true},
		{"zero detail", func(c *Config) { c.Tickets.DetailMaxLength = 0 }, true},
		{"http without secret", func(c *Config) { c.App.HTTPEnabled = true }, true},
		{"http with placeholder secret", func(c *Config) {
			c.App.HTTPEnabled = true
			c.Auth.JWTSecret = "dev-secret"
		}, true},
		{"http with strong secret", func(c *Config) {
			c.App.HTTPEnabled = true
			c.Auth.JWTSecret = strings.Repeat("k", 32)
		}, false},
		{"weak secret ignored without http", func(c *Config) { c.Auth.JWTSecret = "dev-secret" }, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{
				Discord: DiscordConfig{Token: "t", GuildID: "1"},
				Tickets: TicketsConfig{DetailMaxLength: 100, ExportSummaryBudget: 4000, ExportTruncationMargin: 50},
			}
			tc.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestCategoryEnvKey(t *testing.T) {
	if got := categoryEnvKey("Candidature RP"); got != "TICKET_CATEGORY_CANDIDATURE_RP" {
		t.Errorf("categoryEnvKey = %s", got)
	}
}
