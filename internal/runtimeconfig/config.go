package runtimeconfig

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

var ErrGitHubOwnerRequired = errors.New("docsync config: github owner is required")
var ErrGitHubRepoRequired = errors.New("docsync config: github repository is required")
var ErrStoreDriverUnknown = errors.New("docsync config: store driver is invalid")
var ErrStoreDSNRequired = errors.New("docsync config: store dsn is required")
var ErrAdminUsernameRequired = errors.New("docsync config: admin username is required")
var ErrAdminPasswordHashRequired = errors.New("docsync config: admin password hash is required")
var ErrSessionTTLInvalid = errors.New("docsync config: session ttl must be positive")
var ErrSyncIntervalInvalid = errors.New("docsync config: sync interval must be positive")
var ErrProxyTargetRequired = errors.New("docsync config: proxy target is required when the proxy is enabled")
var ErrProxyPrefixRequired = errors.New("docsync config: proxy prefix is required when the proxy is enabled")
var ErrLoggingLevelInvalid = errors.New("docsync config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("docsync config: logging format is invalid")

// Config aggregates every knob the service binary reads. Fields use simple
// types so hosts can populate them from flags, env, or their own files.
type Config struct {
	GitHub  GitHubConfig
	Store   StoreConfig
	Auth    AuthConfig
	Server  ServerConfig
	Sync    SyncConfig
	Logging LoggingConfig
}

// GitHubConfig identifies the repository mirrored into the store.
type GitHubConfig struct {
	BaseURL string
	Token   string
	Owner   string
	Repo    string
	Branch  string
	DocsDir string
}

// StoreConfig selects the SQL backend behind the key/value store.
type StoreConfig struct {
	Driver string
	DSN    string
}

// AuthConfig carries the single-admin credential material.
type AuthConfig struct {
	AdminUsername     string
	AdminPasswordHash string
	SessionTTL        time.Duration
}

// ServerConfig captures listener and API surface options.
type ServerConfig struct {
	Addr          string
	AllowedOrigin string
	// Protected lists route names that require a session.
	Protected []string
	Proxy     ProxyConfig
}

// ProxyConfig captures the optional edge forwarder.
type ProxyConfig struct {
	Enabled bool
	Prefix  string
	Target  string
}

// SyncConfig controls the background refresh cadence.
type SyncConfig struct {
	Interval   time.Duration
	RunOnStart bool
}

// LoggingConfig captures runtime logging options.
type LoggingConfig struct {
	Level     string
	Format    string
	AddSource bool
}

// DefaultConfig returns the defaults a bare deployment runs with.
func DefaultConfig() Config {
	return Config{
		GitHub: GitHubConfig{
			Branch:  "main",
			DocsDir: "docs",
		},
		Store: StoreConfig{
			Driver: "sqlite3",
			DSN:    "file:docsync.db?_journal_mode=WAL",
		},
		Auth: AuthConfig{
			SessionTTL: 7 * 24 * time.Hour,
		},
		Server: ServerConfig{
			Addr: ":8787",
			Proxy: ProxyConfig{
				Prefix: "/notes",
			},
		},
		Sync: SyncConfig{
			Interval:   15 * time.Minute,
			RunOnStart: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

var validDrivers = map[string]bool{
	"sqlite3":  true,
	"postgres": true,
}

var validLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validFormats = map[string]bool{
	"":        true,
	"console": true,
	"json":    true,
	"pretty":  true,
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.GitHub.Owner) == "" {
		return ErrGitHubOwnerRequired
	}
	if strings.TrimSpace(cfg.GitHub.Repo) == "" {
		return ErrGitHubRepoRequired
	}
	if !validDrivers[cfg.Store.Driver] {
		return ErrStoreDriverUnknown
	}
	if strings.TrimSpace(cfg.Store.DSN) == "" {
		return ErrStoreDSNRequired
	}
	if strings.TrimSpace(cfg.Auth.AdminUsername) == "" {
		return ErrAdminUsernameRequired
	}
	if strings.TrimSpace(cfg.Auth.AdminPasswordHash) == "" {
		return ErrAdminPasswordHashRequired
	}
	if cfg.Auth.SessionTTL <= 0 {
		return ErrSessionTTLInvalid
	}
	if cfg.Sync.Interval <= 0 {
		return ErrSyncIntervalInvalid
	}
	if cfg.Server.Proxy.Enabled {
		if strings.TrimSpace(cfg.Server.Proxy.Target) == "" {
			return ErrProxyTargetRequired
		}
		if strings.TrimSpace(cfg.Server.Proxy.Prefix) == "" {
			return ErrProxyPrefixRequired
		}
	}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		return ErrLoggingLevelInvalid
	}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		return ErrLoggingFormatInvalid
	}
	return nil
}

// FromEnv overlays DOCSYNC_* environment variables onto cfg. Unset variables
// leave the current value alone.
func FromEnv(cfg Config) Config {
	setString(&cfg.GitHub.BaseURL, "DOCSYNC_GITHUB_BASE_URL")
	setString(&cfg.GitHub.Token, "DOCSYNC_GITHUB_TOKEN")
	setString(&cfg.GitHub.Owner, "DOCSYNC_GITHUB_OWNER")
	setString(&cfg.GitHub.Repo, "DOCSYNC_GITHUB_REPO")
	setString(&cfg.GitHub.Branch, "DOCSYNC_GITHUB_BRANCH")
	setString(&cfg.GitHub.DocsDir, "DOCSYNC_GITHUB_DOCS_DIR")

	setString(&cfg.Store.Driver, "DOCSYNC_STORE_DRIVER")
	setString(&cfg.Store.DSN, "DOCSYNC_STORE_DSN")

	setString(&cfg.Auth.AdminUsername, "DOCSYNC_ADMIN_USERNAME")
	setString(&cfg.Auth.AdminPasswordHash, "DOCSYNC_ADMIN_PASSWORD_HASH")
	setDuration(&cfg.Auth.SessionTTL, "DOCSYNC_SESSION_TTL")

	setString(&cfg.Server.Addr, "DOCSYNC_ADDR")
	setString(&cfg.Server.AllowedOrigin, "DOCSYNC_ALLOWED_ORIGIN")
	setList(&cfg.Server.Protected, "DOCSYNC_PROTECTED_ROUTES")
	setBool(&cfg.Server.Proxy.Enabled, "DOCSYNC_PROXY_ENABLED")
	setString(&cfg.Server.Proxy.Prefix, "DOCSYNC_PROXY_PREFIX")
	setString(&cfg.Server.Proxy.Target, "DOCSYNC_PROXY_TARGET")

	setDuration(&cfg.Sync.Interval, "DOCSYNC_SYNC_INTERVAL")
	setBool(&cfg.Sync.RunOnStart, "DOCSYNC_SYNC_RUN_ON_START")

	setString(&cfg.Logging.Level, "DOCSYNC_LOG_LEVEL")
	setString(&cfg.Logging.Format, "DOCSYNC_LOG_FORMAT")
	setBool(&cfg.Logging.AddSource, "DOCSYNC_LOG_ADD_SOURCE")

	return cfg
}

func setString(target *string, key string) {
	if value, ok := os.LookupEnv(key); ok {
		*target = strings.TrimSpace(value)
	}
}

func setBool(target *bool, key string) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return
	}
	*target = parsed
}

func setDuration(target *time.Duration, key string) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return
	}
	*target = parsed
}

func setList(target *[]string, key string) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	*target = items
}
