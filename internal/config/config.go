package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP server
	Port string

	// Record store
	DataDir          string
	ClientsFile      string
	HistoryFile      string
	ConversationFile string
	DataBackend      string
	SQLiteDBPath     string

	// Session identity. Stands in for a real authentication layer: the id
	// of the client this session is scoped to.
	ClientID string

	// LLM provider
	LLMProvider       string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIModel       string
	AnthropicModel    string
	MaxToolIterations int

	// AMQP (optional; enables the sqlite mirror worker)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Dashboard cache
	CacheTTL time.Duration
}

func Load() *Config {
	dataDir := getEnv("DATA_DIR", "./data")
	cfg := &Config{
		Port: getEnv("PORT", "8081"),

		DataDir:          dataDir,
		ClientsFile:      getEnv("CLIENTS_FILE", filepath.Join(dataDir, "clients.json")),
		HistoryFile:      getEnv("HISTORY_FILE", filepath.Join(dataDir, "history.csv")),
		ConversationFile: getEnv("CONVERSATION_FILE", filepath.Join(dataDir, "conversation.json")),
		DataBackend:      getEnv("DATA_BACKEND", "file"),
		SQLiteDBPath:     getEnv("SQLITE_DB_PATH", filepath.Join(dataDir, "financia.db")),

		ClientID: getEnv("CLIENT_ID", "1001"),

		LLMProvider:       getEnv("LLM_PROVIDER", "openai"),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		AnthropicModel:    getEnv("ANTHROPIC_MODEL", ""),
		MaxToolIterations: getEnvInt("MAX_TOOL_ITERATIONS", 8),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "financia"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "expense_events"),

		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),
	}
	return cfg
}

// Validate checks the configuration and returns all problems at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case "file", "sqlite":
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of [file sqlite]", c.DataBackend))
	}

	if c.DataBackend == "sqlite" && c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
	}

	if strings.TrimSpace(c.ClientID) == "" {
		errors = append(errors, "client id cannot be empty")
	} else if _, err := strconv.Atoi(c.ClientID); err != nil {
		errors = append(errors, fmt.Sprintf("invalid client id '%s': must be numeric", c.ClientID))
	}

	switch c.LLMProvider {
	case "openai", "anthropic":
	default:
		errors = append(errors, fmt.Sprintf("invalid llm provider '%s': must be one of [openai anthropic]", c.LLMProvider))
	}

	if c.MaxToolIterations < 1 || c.MaxToolIterations > 32 {
		errors = append(errors, fmt.Sprintf("invalid max tool iterations %d: must be between 1 and 32", c.MaxToolIterations))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.CacheTTL < time.Second || c.CacheTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid cache ttl %v: must be between 1 second and 24 hours", c.CacheTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
