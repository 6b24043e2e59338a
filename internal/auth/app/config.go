package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/qwanyx/qwanyx/internal/auth/notify"
)

const (
	StoreMongo  = "mongo"
	StoreSQLite = "sqlite"
)

type Config struct {
	Issuer         string        // Issuer claim for tokens (default: qwanyx-auth)
	Audience       []string      // Audience claim, comma separated in env (default: qwanyx)
	SigningKeyFile string        // Optional: Ed25519 PEM key file, created on first start. Empty means ephemeral keys
	AdminTokenHash string        // Optional: Argon2id hash of the operator token for /v1/workspaces
	CodeTTL        time.Duration // Auth code lifetime (default: 10m)
	TokenTTL       time.Duration // Access token lifetime (default: 168h)

	StoreDriver string // mongo or sqlite (default: mongo)
	MongoURI    string // default: mongodb://localhost:27017/
	CentralDB   string // Mongo database holding the workspace registry (default: qwanyx_central)
	SQLiteFile  string // SQLite database file (default: ./qwanyx.db)

	RedisURL string // Optional: shared rate-limit store. Empty keeps limits in process

	SMTP notify.SMTPConfig // Optional: without a host codes are only logged

	MetricsEnabled       bool          // Expose /metrics (default: true)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired code purge interval (default: 1h)
}

// newViper sets defaults and binds every dotted key to its upper-case env
// var, so mongo.uri reads MONGO_URI.
func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("auth.issuer", "qwanyx-auth")
	v.SetDefault("auth.audience", "qwanyx")
	v.SetDefault("auth.signing_key_file", "")
	v.SetDefault("auth.admin_token_hash", "")
	v.SetDefault("auth.code_ttl", 10*time.Minute)
	v.SetDefault("auth.token_ttl", 7*24*time.Hour)

	v.SetDefault("store.driver", StoreMongo)
	v.SetDefault("mongo.uri", "mongodb://localhost:27017/")
	v.SetDefault("mongo.central_db", "qwanyx_central")
	v.SetDefault("sqlite.file", "qwanyx.db")

	v.SetDefault("redis.url", "")

	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.user", "")
	v.SetDefault("smtp.pass", "")
	v.SetDefault("smtp.from", "QWANYX <noreply@qwanyx.com>")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("env", "dev")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("port", 8080)
	v.SetDefault("shutdown_grace_period", 10*time.Second)
	v.SetDefault("housekeeping_interval", time.Hour)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig reads defaults, then the YAML file named by AUTH_CONFIG_FILE if
// any, then the environment.
func LoadConfig() (Config, error) {
	v := newViper()

	if path := os.Getenv("AUTH_CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := Config{
		Issuer:         v.GetString("auth.issuer"),
		Audience:       splitList(v.GetString("auth.audience")),
		SigningKeyFile: v.GetString("auth.signing_key_file"),
		AdminTokenHash: v.GetString("auth.admin_token_hash"),
		CodeTTL:        v.GetDuration("auth.code_ttl"),
		TokenTTL:       v.GetDuration("auth.token_ttl"),

		StoreDriver: strings.ToLower(v.GetString("store.driver")),
		MongoURI:    v.GetString("mongo.uri"),
		CentralDB:   v.GetString("mongo.central_db"),
		SQLiteFile:  v.GetString("sqlite.file"),

		RedisURL: v.GetString("redis.url"),

		SMTP: notify.SMTPConfig{
			Host:     v.GetString("smtp.host"),
			Port:     v.GetInt("smtp.port"),
			Username: v.GetString("smtp.user"),
			Password: v.GetString("smtp.pass"),
			From:     v.GetString("smtp.from"),
		},

		MetricsEnabled:       v.GetBool("metrics.enabled"),
		Env:                  v.GetString("env"),
		LogLevel:             v.GetString("log.level"),
		LogFormat:            v.GetString("log.format"),
		Port:                 v.GetInt("port"),
		ShutdownGracePeriod:  v.GetDuration("shutdown_grace_period"),
		HousekeepingInterval: v.GetDuration("housekeeping_interval"),
	}

	return cfg, cfg.Validate()
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.Issuer == "" {
		errs = append(errs, errors.New("auth.issuer is required"))
	}
	switch c.StoreDriver {
	case StoreMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("mongo.uri is required for the mongo store"))
		}
	case StoreSQLite:
		if c.SQLiteFile == "" {
			errs = append(errs, errors.New("sqlite.file is required for the sqlite store"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver %q must be %s or %s", c.StoreDriver, StoreMongo, StoreSQLite))
	}
	if c.CodeTTL <= 0 {
		errs = append(errs, errors.New("auth.code_ttl must be positive"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
