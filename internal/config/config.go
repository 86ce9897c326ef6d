package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"

	configPathEnv     = "RESEARCH_DIGEST_CONFIG"
	databasePathEnv   = "DATABASE_PATH"
	openAIAPIKeyEnv   = "OPENAI_API_KEY"
	openAIModelEnv    = "OPENAI_MODEL"
	discordWebhookEnv = "DISCORD_WEBHOOK_URL"
	logLevelEnv       = "LOG_LEVEL"
	logFormatEnv      = "LOG_FORMAT"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Discord   DiscordConfig   `yaml:"discord"`
	News      NewsConfig      `yaml:"news"`
	Arxiv     ArxivConfig     `yaml:"arxiv"`
	Research  ResearchConfig  `yaml:"research"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DatabaseConfig describes the SQLite database location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SchedulerConfig defines when the daily digest should run.
type SchedulerConfig struct {
	DailyRunTime string         `yaml:"dailyRunTime"`
	Timezone     string         `yaml:"timezone"`
	location     *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// OpenAIConfig defines how to contact the generative-text API.
type OpenAIConfig struct {
	APIKey      string  `yaml:"apiKey"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"baseUrl"`
	Temperature float32 `yaml:"temperature"`
}

// DiscordConfig wires the digest delivery webhook.
type DiscordConfig struct {
	WebhookURL string `yaml:"webhookUrl"`
	ChunkSize  int    `yaml:"chunkSize"`
}

// NewsConfig lists RSS sources and caps the article count per run.
type NewsConfig struct {
	Sources     []string `yaml:"sources"`
	MaxArticles int      `yaml:"maxArticles"`
}

// ArxivConfig describes the paper-discovery endpoint.
type ArxivConfig struct {
	BaseURL    string `yaml:"baseUrl"`
	MaxResults int    `yaml:"maxResults"`
}

// ResearchConfig holds the pipeline knobs.
type ResearchConfig struct {
	SelectedPapersCount int  `yaml:"selectedPapersCount"`
	DefaultLookbackDays int  `yaml:"defaultLookbackDays"`
	PersistFeatured     bool `yaml:"persistFeatured"`
}

// ServerConfig describes the HTTP trigger surface.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig controls log verbosity and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.News.Sources) == 0 {
		cfg.News.Sources = defaultConfig().News.Sources
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv(openAIAPIKeyEnv); v != "" {
		c.OpenAI.APIKey = v
	}

	if v := os.Getenv(openAIModelEnv); v != "" {
		c.OpenAI.Model = v
	}

	if v := os.Getenv(discordWebhookEnv); v != "" {
		c.Discord.WebhookURL = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(logFormatEnv); v != "" {
		c.Logging.Format = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Database.Path != "" {
		base.Database = override.Database
	}

	if override.Scheduler.DailyRunTime != "" {
		base.Scheduler.DailyRunTime = override.Scheduler.DailyRunTime
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.OpenAI.APIKey != "" {
		base.OpenAI.APIKey = override.OpenAI.APIKey
	}
	if override.OpenAI.Model != "" {
		base.OpenAI.Model = override.OpenAI.Model
	}
	if override.OpenAI.BaseURL != "" {
		base.OpenAI.BaseURL = override.OpenAI.BaseURL
	}
	if override.OpenAI.Temperature != 0 {
		base.OpenAI.Temperature = override.OpenAI.Temperature
	}

	if override.Discord.WebhookURL != "" {
		base.Discord.WebhookURL = override.Discord.WebhookURL
	}
	if override.Discord.ChunkSize != 0 {
		base.Discord.ChunkSize = override.Discord.ChunkSize
	}

	if len(override.News.Sources) > 0 {
		base.News.Sources = override.News.Sources
	}
	if override.News.MaxArticles != 0 {
		base.News.MaxArticles = override.News.MaxArticles
	}

	if override.Arxiv.BaseURL != "" {
		base.Arxiv.BaseURL = override.Arxiv.BaseURL
	}
	if override.Arxiv.MaxResults != 0 {
		base.Arxiv.MaxResults = override.Arxiv.MaxResults
	}

	if override.Research.SelectedPapersCount != 0 {
		base.Research.SelectedPapersCount = override.Research.SelectedPapersCount
	}
	if override.Research.DefaultLookbackDays != 0 {
		base.Research.DefaultLookbackDays = override.Research.DefaultLookbackDays
	}
	if override.Research.PersistFeatured {
		base.Research.PersistFeatured = true
	}

	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Database:  DatabaseConfig{Path: "data/research_digest.db"},
		Scheduler: SchedulerConfig{DailyRunTime: "08:00", Timezone: defaultTimezone, location: tz},
		OpenAI: OpenAIConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
		},
		Discord: DiscordConfig{ChunkSize: 2000},
		News: NewsConfig{
			MaxArticles: 10,
			Sources: []string{
				"https://www.artificialintelligence-news.com/feed/",
				"https://hai.stanford.edu/news/rss.xml",
				"https://blog.google/technology/ai/rss/",
			},
		},
		Arxiv: ArxivConfig{
			BaseURL:    "http://export.arxiv.org/api/query",
			MaxResults: 100,
		},
		Research: ResearchConfig{
			SelectedPapersCount: 10,
			DefaultLookbackDays: 7,
		},
		Server:  ServerConfig{Addr: ":8080"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}
