package config // package config loads application configuration from environment variables

import (
	"os"      // os provides access to environment variables
	"strings"
	"time"

	log "github.com/sirupsen/logrus" // fatal configuration errors go through the process logger
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Database fields are only required when the
// MySQL store is selected.
type Config struct {
	Env           string        // application environment (e.g. "dev", "prod")
	Port          string        // HTTP port to listen on
	StoreDriver   string        // "mysql" or "memory"
	DBUser        string        // database username
	DBPass        string        // database password (optional)
	DBHost        string        // database host address
	DBPort        string        // database port number
	DBName        string        // database name
	DBAutoMigrate bool          // apply schema.sql on startup
	JWTSecret     string        // secret used to sign holder and admin tokens
	SessionTTL    time.Duration // lifetime of guest holder tokens
	TicketSecret  string        // HMAC key for ticket signatures
	RefPrefix     string        // booking reference prefix
	HoldTTL       time.Duration // default reservation hold
	HoldTTLMax    time.Duration // upper bound for a requested hold
	LogLevel      string        // logrus level name
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	cfg := Config{
		Env:           envStr("APP_ENV", "dev"),
		Port:          envStr("APP_PORT", "8080"),
		StoreDriver:   strings.ToLower(envStr("STORE_DRIVER", DriverMySQL)),
		DBPass:        os.Getenv("DB_PASS"), // empty allowed
		DBAutoMigrate: envBool("DB_AUTO_MIGRATE", false),
		JWTSecret:     must("JWT_SECRET"),
		SessionTTL:    envDur("SESSION_TTL", 24*time.Hour),
		TicketSecret:  must("TICKET_SIGNING_SECRET"),
		RefPrefix:     envStr("BOOKING_REF_PREFIX", "TKT"),
		HoldTTL:       envDur("HOLD_TTL", 5*time.Minute),
		HoldTTLMax:    envDur("HOLD_TTL_MAX", 15*time.Minute),
		LogLevel:      envStr("LOG_LEVEL", "info"),
	}
	switch cfg.StoreDriver {
	case DriverMySQL:
		cfg.DBUser = must("DB_USER")
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
	case DriverMemory:
	default:
		log.Fatalf("invalid STORE_DRIVER: %q", cfg.StoreDriver)
	}
	if cfg.HoldTTL <= 0 {
		log.Fatalf("HOLD_TTL must be positive, got %s", cfg.HoldTTL)
	}
	if cfg.HoldTTLMax < cfg.HoldTTL {
		cfg.HoldTTLMax = cfg.HoldTTL
	}
	return cfg
}

// IsDev reports whether the process runs in a development environment.
func (c Config) IsDev() bool { return c.Env == "" || c.Env == "dev" || c.Env == "local" }

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
