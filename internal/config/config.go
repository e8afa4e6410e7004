package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sheikh-saqib/vault-ledger-system/internal/models/events"
)

// Config carries everything the server needs from the environment.
type Config struct {
	HTTPAddr      string   // LEDGER_HTTP_ADDR
	StorageDriver string   // LEDGER_STORAGE_DRIVER: memory | sqlite | postgres
	SQLitePath    string   // LEDGER_SQLITE_PATH
	PostgresDSN   string   // LEDGER_POSTGRES_DSN
	KafkaBrokers  []string // LEDGER_KAFKA_BROKERS, comma separated; empty disables events
	KafkaTopic    string   // LEDGER_KAFKA_TOPIC
}

// Load reads configuration from the environment, with a .env file (when
// present) loaded first. Missing variables fall back to defaults; a
// missing .env file is not an error.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:      getenv("LEDGER_HTTP_ADDR", ":8080"),
		StorageDriver: getenv("LEDGER_STORAGE_DRIVER", "sqlite"),
		SQLitePath:    getenv("LEDGER_SQLITE_PATH", "data/vault.db"),
		PostgresDSN:   os.Getenv("LEDGER_POSTGRES_DSN"),
		KafkaTopic:    getenv("LEDGER_KAFKA_TOPIC", events.TopicBalanceChanged),
	}

	if brokers := os.Getenv("LEDGER_KAFKA_BROKERS"); brokers != "" {
		for _, broker := range strings.Split(brokers, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, broker)
			}
		}
	}

	return cfg
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
