package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/brogergvhs/mangasync/internal/storage"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "MANGASYNC_"

type Config struct {
	Debug    bool `yaml:"debug" env:"DEBUG"`
	JSONLogs bool `yaml:"json_logs" env:"JSON_LOGS"`

	// Selector is the CSS selector that matches the page images of a chapter.
	Selector         string   `yaml:"selector" env:"SELECTOR"`
	UserAgent        string   `yaml:"user_agent" env:"USER_AGENT"`
	Cookie           string   `yaml:"cookie" env:"COOKIE"`
	CookieFile       string   `yaml:"cookie_file" env:"COOKIE_FILE"`
	CloudflareBypass bool     `yaml:"cloudflare_bypass" env:"CLOUDFLARE_BYPASS"`
	HTTPTimeout      Duration `yaml:"http_timeout" env:"HTTP_TIMEOUT"`

	PageDelay Duration `yaml:"page_delay" env:"PAGE_DELAY"`
	MinPages  int      `yaml:"min_pages" env:"MIN_PAGES"`

	Storage      storage.Config `yaml:"storage" envPrefix:"S3_"`
	EnsureBucket bool           `yaml:"ensure_bucket" env:"ENSURE_BUCKET"`

	DatabaseURL string   `yaml:"database_url" env:"DATABASE_URL"`
	AutoMigrate bool     `yaml:"auto_migrate" env:"AUTO_MIGRATE"`
	RedisURL    string   `yaml:"redis_url" env:"REDIS_URL"`
	LockTTL     Duration `yaml:"lock_ttl" env:"LOCK_TTL"`

	TelegramToken string `yaml:"-" env:"TELEGRAM_BOT_TOKEN"`
}

type Options struct {
	IgnoreConfig bool
	Debug        bool
	Selector     string
	UserAgent    string
	Cookie       string
	CookieFile   string
	// PageDelay is nil when the flag was not given; zero disables the pause.
	PageDelay *time.Duration
	MinPages  int
}

func DefaultConfig() *Config {
	return &Config{
		HTTPTimeout: Duration{30 * time.Second},
		PageDelay:   Duration{500 * time.Millisecond},
		MinPages:    1,
		Storage: storage.Config{
			Region: "us-east-1",
			UseSSL: true,
		},
		EnsureBucket: false,
		AutoMigrate:  true,
		LockTTL:      Duration{30 * time.Minute},
	}
}

func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

func loadYAML(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c := DefaultConfig()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}

	return c, nil
}

// LoadMerged resolves the active profile, overlays MANGASYNC_* environment
// variables and finally the command line options. It also returns a
// description of where the file configuration came from.
func LoadMerged(opts Options) (*Config, string, error) {
	cfg, used, err := loadBase(opts)
	if err != nil {
		return nil, "", err
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, "", errors.Wrap(err, "parse environment")
	}

	mergeConfig(cfg, opts)
	normalizeDefaults(cfg)

	return cfg, used, nil
}

func loadBase(opts Options) (*Config, string, error) {
	if opts.IgnoreConfig {
		return DefaultConfig(), "(ignored config)", nil
	}

	activePath, err := ActiveConfigPath()
	if errors.Is(err, ErrNoConfig) || activePath == "" {
		return DefaultConfig(), "(default config in memory)\nRun `mangasync config init` to create an actual config\n", nil
	}
	if err != nil {
		return nil, "", err
	}

	cfg, err := loadYAML(activePath)
	if err != nil {
		return nil, "", errors.Wrapf(err, "failed to load config %s", activePath)
	}

	return cfg, activePath, nil
}

func mergeConfig(c *Config, o Options) {
	if o.Debug {
		c.Debug = true
	}
	if o.Selector != "" {
		c.Selector = o.Selector
	}
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
	if o.Cookie != "" {
		c.Cookie = o.Cookie
	}
	if o.CookieFile != "" {
		c.CookieFile = o.CookieFile
	}
	if o.PageDelay != nil {
		c.PageDelay = Duration{*o.PageDelay}
	}
	if o.MinPages > 0 {
		c.MinPages = o.MinPages
	}
}

func normalizeDefaults(c *Config) {
	if c.HTTPTimeout.Duration <= 0 {
		c.HTTPTimeout = Duration{30 * time.Second}
	}
	if c.PageDelay.Duration < 0 {
		c.PageDelay = Duration{}
	}
	if c.MinPages < 1 {
		c.MinPages = 1
	}
	if c.LockTTL.Duration <= 0 {
		c.LockTTL = Duration{30 * time.Minute}
	}
}

// Requirements of the commands that talk to external services.
const (
	NeedStorage = 1 << iota
	NeedDatabase
	NeedTelegram
	NeedSelector
)

func (c *Config) Validate(need int) error {
	var missing []string

	if need&NeedStorage != 0 {
		if c.Storage.Endpoint == "" {
			missing = append(missing, "storage.endpoint ("+EnvPrefix+"S3_ENDPOINT)")
		}
		if c.Storage.Bucket == "" {
			missing = append(missing, "storage.bucket ("+EnvPrefix+"S3_BUCKET)")
		}
		if c.Storage.AccessKeyID == "" {
			missing = append(missing, "storage.access_key_id ("+EnvPrefix+"S3_ACCESS_KEY_ID)")
		}
		if c.Storage.SecretAccessKey == "" {
			missing = append(missing, EnvPrefix+"S3_SECRET_ACCESS_KEY")
		}
	}
	if need&NeedDatabase != 0 && c.DatabaseURL == "" {
		missing = append(missing, "database_url ("+EnvPrefix+"DATABASE_URL)")
	}
	if need&NeedSelector != 0 && strings.TrimSpace(c.Selector) == "" {
		missing = append(missing, "selector ("+EnvPrefix+"SELECTOR or --selector)")
	}
	if need&NeedTelegram != 0 && c.TelegramToken == "" {
		missing = append(missing, EnvPrefix+"TELEGRAM_BOT_TOKEN")
	}

	if len(missing) > 0 {
		return errors.Newf("missing configuration: %v", missing)
	}

	return nil
}

func (c *Config) Print() {
	if c.Selector != "" {
		fmt.Printf(" -selector: %s\n", c.Selector)
	} else {
		fmt.Println(" -selector: (not set)")
	}
	fmt.Printf(" -page_delay: %s\n", c.PageDelay)
	fmt.Printf(" -min_pages: %d\n", c.MinPages)
	fmt.Printf(" -http_timeout: %s\n", c.HTTPTimeout)
	if c.Debug {
		fmt.Printf(" -debug: %t\n", c.Debug)
	}
	if c.JSONLogs {
		fmt.Printf(" -json_logs: %t\n", c.JSONLogs)
	}
	if c.UserAgent != "" {
		fmt.Printf(" -user_agent: %s\n", c.UserAgent)
	}
	if c.CookieFile != "" {
		fmt.Printf(" -cookie_file: %s\n", c.CookieFile)
	}
	if c.CloudflareBypass {
		fmt.Printf(" -cloudflare_bypass: %t\n", c.CloudflareBypass)
	}
	if c.Storage.Endpoint != "" {
		fmt.Printf(" -storage: %s/%s (region %s)\n", c.Storage.Endpoint, c.Storage.Bucket, c.Storage.Region)
	}
	if c.Storage.PublicBaseURL != "" {
		fmt.Printf(" -public_base_url: %s\n", c.Storage.PublicBaseURL)
	}
	fmt.Printf(" -database: %s\n", setOrEmpty(c.DatabaseURL))
	fmt.Printf(" -redis: %s\n", setOrEmpty(c.RedisURL))
	fmt.Printf(" -telegram_token: %s\n", setOrEmpty(c.TelegramToken))
}

func setOrEmpty(s string) string {
	if s == "" {
		return "(not set)"
	}
	return "(set)"
}
