package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestBody int64

	// Database (study catalog)
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis (sessions + geocode cache)
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka (lead events)
	KafkaBrokers   []string
	KafkaGroupID   string
	LeadEventTopic string

	// OpenAI intake model
	OpenAIAPIKey string
	OpenAIModel  string

	// Google Geocoding
	GoogleMapsAPIKey string
	GeocodeTimeout   time.Duration
	GeocodeCacheTTL  time.Duration

	// Monday.com CRM
	MondayAPIKey  string
	MondayAPIURL  string
	MondayBoardID string
	MondayGroupID string

	// Catalog source: "postgres" or "file"
	CatalogSource string
	CatalogFile   string

	// Synonym catalog file; empty uses the built-in table
	SynonymCatalogPath string

	// Matching
	MatchRadiusMiles float64
	MaxMatches       int

	// Session state
	SessionTTL time.Duration
}

func Load() *Config {
	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 60*time.Second),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 1024*1024)),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "heyhope"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "heyhope123"),
		PostgresDB:       getEnv("POSTGRES_DB", "heyhope"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers:   getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID:   getEnv("KAFKA_GROUP_ID", "hey-hope"),
		LeadEventTopic: getEnv("LEAD_EVENT_TOPIC", "lead-events"),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4"),

		GoogleMapsAPIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),
		GeocodeTimeout:   getDuration("GEOCODE_TIMEOUT", 10*time.Second),
		GeocodeCacheTTL:  getDuration("GEOCODE_CACHE_TTL", 24*time.Hour),

		MondayAPIKey:  getEnv("MONDAY_API_KEY", ""),
		MondayAPIURL:  getEnv("MONDAY_API_URL", "https://api.monday.com/v2"),
		MondayBoardID: getEnv("MONDAY_BOARD_ID", "2003358867"),
		MondayGroupID: getEnv("MONDAY_GROUP_ID", "topics"),

		CatalogSource: getEnv("CATALOG_SOURCE", "postgres"),
		CatalogFile:   getEnv("CATALOG_FILE", "indexed_studies_geocoded.json"),

		SynonymCatalogPath: getEnv("SYNONYM_CATALOG_PATH", ""),

		MatchRadiusMiles: getFloatEnv("MATCH_RADIUS_MILES", 100),
		MaxMatches:       getIntEnv("MAX_MATCHES", 20),

		SessionTTL: getDuration("SESSION_TTL", 2*time.Hour),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
