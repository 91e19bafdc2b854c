package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time parses duration values
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. Secrets stay strings; durations are parsed up
// front so a bad value fails at startup, not mid-request.
type Config struct {
	Env             string        // application environment (e.g. "dev", "prod")
	Port            string        // HTTP port to listen on
	DBUser          string        // database username
	DBPass          string        // database password (optional)
	DBHost          string        // database host address
	DBPort          string        // database port number
	DBName          string        // database name
	JWTSecret       string        // secret used to verify identity tokens
	StripeSecretKey string        // gateway account secret key
	WebhookSecret   string        // shared secret for webhook signature verification
	StripeBaseURL   string        // gateway API base URL (overridable for tests)
	Currency        string        // ISO currency code intents are opened in
	GatewayTimeout  time.Duration // bound on outbound intent creation calls
	ReaperInterval  time.Duration // how often the stale-order reaper sweeps
	ReaperMaxAge    time.Duration // pending-with-no-intent age before reaping
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:             must("APP_ENV"),
		Port:            must("APP_PORT"),
		DBUser:          must("DB_USER"),
		DBPass:          os.Getenv("DB_PASS"), // empty allowed
		DBHost:          must("DB_HOST"),
		DBPort:          must("DB_PORT"),
		DBName:          must("DB_NAME"),
		JWTSecret:       must("JWT_SECRET"),
		StripeSecretKey: must("STRIPE_SECRET_KEY"),
		WebhookSecret:   must("STRIPE_WEBHOOK_SECRET"),
		StripeBaseURL:   getenv("STRIPE_BASE_URL", "https://api.stripe.com"),
		Currency:        getenv("CURRENCY", "usd"),
		GatewayTimeout:  mustDur("GATEWAY_TIMEOUT", 10*time.Second),
		ReaperInterval:  mustDur("REAPER_INTERVAL", time.Minute),
		ReaperMaxAge:    mustDur("REAPER_MAX_AGE", 15*time.Minute),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// getenv returns the variable's value or a default when unset.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// mustDur parses an optional duration variable, falling back to the default
// when unset and exiting on an unparseable value.
func mustDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("invalid duration for %s: %q", key, v)
	}
	return d
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
