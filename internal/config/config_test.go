package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(databasePathEnv, "")
	t.Setenv(openAIAPIKeyEnv, "")
	t.Setenv(openAIModelEnv, "")
	t.Setenv(discordWebhookEnv, "")
	t.Setenv(logLevelEnv, "")
	t.Setenv(logFormatEnv, "")

	cfg := Load()

	if cfg.Database.Path == "" {
		t.Fatal("default database path empty")
	}
	if cfg.Scheduler.DailyRunTime != "08:00" {
		t.Fatalf("default run time = %q", cfg.Scheduler.DailyRunTime)
	}
	if cfg.Research.SelectedPapersCount != 10 {
		t.Fatalf("default selected papers = %d", cfg.Research.SelectedPapersCount)
	}
	if cfg.Discord.ChunkSize != 2000 {
		t.Fatalf("default chunk size = %d", cfg.Discord.ChunkSize)
	}
	if len(cfg.News.Sources) == 0 {
		t.Fatal("default news sources empty")
	}
	if cfg.Scheduler.Location() == nil {
		t.Fatal("timezone not bound")
	}
	if cfg.Logging.Format != "text" {
		t.Fatalf("default log format = %q", cfg.Logging.Format)
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	raw := []byte(`
database:
  path: /tmp/test.db
scheduler:
  dailyRunTime: "21:15"
  timezone: UTC
openai:
  model: gpt-4o
research:
  selectedPapersCount: 5
  defaultLookbackDays: 3
  persistFeatured: true
logging:
  level: debug
  format: json
`)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv(openAIModelEnv, "gpt-4o-mini")
	t.Setenv(databasePathEnv, "")
	t.Setenv(openAIAPIKeyEnv, "sk-test")
	t.Setenv(discordWebhookEnv, "")
	t.Setenv(logLevelEnv, "")
	t.Setenv(logFormatEnv, "")

	cfg := Load()

	if cfg.Database.Path != "/tmp/test.db" {
		t.Fatalf("database path = %q", cfg.Database.Path)
	}
	if cfg.Scheduler.DailyRunTime != "21:15" {
		t.Fatalf("run time = %q", cfg.Scheduler.DailyRunTime)
	}
	// Environment wins over the file.
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Fatalf("model = %q, want env override", cfg.OpenAI.Model)
	}
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Fatalf("api key not taken from env")
	}
	if cfg.Research.SelectedPapersCount != 5 || cfg.Research.DefaultLookbackDays != 3 {
		t.Fatalf("research overrides lost: %+v", cfg.Research)
	}
	if !cfg.Research.PersistFeatured {
		t.Fatal("persistFeatured not applied")
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("log level = %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("log format = %q, want file value", cfg.Logging.Format)
	}
	// Unset sections keep their defaults.
	if cfg.Arxiv.MaxResults != 100 {
		t.Fatalf("arxiv max results = %d, want default", cfg.Arxiv.MaxResults)
	}
}

func TestLoadBadTimezoneFallsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	raw := []byte("scheduler:\n  timezone: Not/AZone\n")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configPathEnv, path)

	cfg := Load()
	if cfg.Scheduler.Location().String() != "UTC" {
		t.Fatalf("location = %s, want UTC fallback", cfg.Scheduler.Location())
	}
}
