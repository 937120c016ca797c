package config

import (
	"fmt"
	"os"
)

type Config struct {
	ServiceName  string
	Env          string
	Port         string
	Owner        string
	LedgerHandle string
	RedisAddr    string
}

// Load reads configuration from the environment. LEDGER_OWNER is the only
// required value: the ledger cannot exist without its owner identity, and the
// owner is fixed for the life of the process.
func Load() (*Config, error) {
	owner := os.Getenv("LEDGER_OWNER")
	if owner == "" {
		return nil, fmt.Errorf("LEDGER_OWNER environment variable is required")
	}

	return &Config{
		ServiceName:  getenvDefault("SERVICE_NAME", "bookledger"),
		Env:          getenvDefault("ENV", "dev"),
		Port:         getenvDefault("SERVER_PORT", "8080"),
		Owner:        owner,
		LedgerHandle: getenvDefault("LEDGER_HANDLE", "main"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
	}, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
