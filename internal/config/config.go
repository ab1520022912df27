package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strings"

	"github.com/joho/godotenv" // loads .env files into the process environment
)

// Seat store backends selectable through SEAT_STORE.
const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

// Config holds all runtime configuration values of the HTTP server.  Each
// field corresponds to an environment variable.
type Config struct {
	Env          string // application environment (e.g. "dev", "prod")
	Port         string // HTTP port to listen on
	DBUser       string // database username
	DBPass       string // database password (optional)
	DBHost       string // database host address
	DBPort       string // database port number
	DBName       string // database name
	JWTSecret    string // secret used to sign JWTs
	AccessTTLMin int    // access token time-to-live in minutes
	BcryptCost   int    // bcrypt cost for password hashing
	SeatStore    string // "mysql" or "memory"; memory also keeps users and sessions
	SeatCount    int    // number of seats created on first start
	SeatsPerRow  int    // seats per row when laying out the pool
	LogLevel     string // hclog level name
	LogJSON      bool   // emit JSON log lines instead of text
}

// LoadDotEnv loads the given .env files (default ".env") if they exist.
// A missing file is not an error; variables already present in the
// environment are never overwritten.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			log.Printf("config: load %s: %v", f, err)
		}
	}
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  The database
// settings are only required when the MySQL seat store is selected.
func Load() Config {
	cfg := Config{
		Env:          envStr("APP_ENV", "dev"),
		Port:         envStr("APP_PORT", "8080"),
		JWTSecret:    must("JWT_SECRET"),
		AccessTTLMin: envInt("ACCESS_TOKEN_TTL_MIN", 60),
		BcryptCost:   envInt("BCRYPT_COST", 10),
		SeatStore:    strings.ToLower(envStr("SEAT_STORE", StoreMySQL)),
		SeatCount:    envInt("SEAT_COUNT", 80),
		SeatsPerRow:  envInt("SEATS_PER_ROW", 7),
	}
	logCfg := LoadLogConfig()
	cfg.LogLevel, cfg.LogJSON = logCfg.Level, logCfg.JSON
	if cfg.SeatStore != StoreMemory {
		cfg.SeatStore = StoreMySQL
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS") // empty allowed
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
	}
	if cfg.SeatCount < 1 {
		log.Fatalf("invalid SEAT_COUNT: %d", cfg.SeatCount)
	}
	if cfg.SeatsPerRow < 1 {
		cfg.SeatsPerRow = 7
	}
	return cfg
}

// LogConfig is the logging subset of the environment, shared by binaries
// that do not need the full server Config.
type LogConfig struct {
	Level string
	JSON  bool
}

func LoadLogConfig() LogConfig {
	return LogConfig{Level: envStr("LOG_LEVEL", "info"), JSON: envBool("LOG_JSON", false)}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
