package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Serve    bool
	Port     int
	User     string
	Password string
	DataFile string
	LogLevel int
}

// Parse reads configuration from the command line, the environment and
// an optional .env file. It exits the process on invalid input.
func Parse() *Config {
	cfg, err := Load(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

// Load parses args on its own FlagSet. Environment variables (ROWDB_*)
// supply the defaults; flags override them.
func Load(args []string) (*Config, error) {
	// Load .env file if it exists (silently ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{}
	fs := flag.NewFlagSet("rowdb", flag.ContinueOnError)
	fs.BoolVar(&cfg.Serve, "serve", envBool("ROWDB_SERVE", false), "serve the PostgreSQL wire protocol instead of the interactive shell")
	fs.IntVar(&cfg.Port, "port", envInt("ROWDB_PORT", 5434), "listen port")
	fs.StringVar(&cfg.User, "user", envStr("ROWDB_USER", "admin"), "auth username")
	fs.StringVar(&cfg.Password, "password", envStr("ROWDB_PASSWORD", ""), "auth password")
	fs.StringVar(&cfg.DataFile, "datafile", envStr("ROWDB_DATAFILE", ""), "snapshot loaded at startup and saved on exit (.json for JSON)")
	fs.IntVar(&cfg.LogLevel, "log-level", envInt("ROWDB_LOG_LEVEL", 0), "log verbosity (0=off, 1=statements)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port %d out of range", cfg.Port)
	}
	if cfg.LogLevel < 0 {
		return nil, fmt.Errorf("log level %d is negative", cfg.LogLevel)
	}
	return cfg, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
