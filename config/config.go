package config

import "time"

// Config is keyed by environment variable name. A config file may use the same keys.
type Config struct {
	AppName                       string   `mapstructure:"APP_NAME"`
	Version                       string   `mapstructure:"APP_VERSION"`
	Port                          int      `mapstructure:"PORT"`
	LogLevel                      string   `mapstructure:"LOG_LEVEL"`
	PrettyLogs                    bool     `mapstructure:"PRETTY_LOGS"`
	HttpServerWriteTimeoutSeconds int      `mapstructure:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS"`
	HttpServerReadTimeoutSeconds  int      `mapstructure:"HTTP_SERVER_READ_TIMEOUT_SECONDS"`
	HttpServerIdleTimeoutSeconds  int      `mapstructure:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS"`
	MaxHeaderBytes                int      `mapstructure:"HTTP_SERVER_MAX_HEADER_BYTES"` // 64KB
	ReadHeaderTimeoutSeconds      int      `mapstructure:"HTTP_SERVER_READ_HEADER_TIMEOUT_SECONDS"`
	BodyLimit                     string   `mapstructure:"HTTP_SERVER_BODY_LIMIT"`
	AllowOrigins                  []string `mapstructure:"HTTP_SERVER_ALLOW_ORIGINS"`
	AllowMethods                  []string `mapstructure:"HTTP_SERVER_ALLOW_METHODS"`
	StartupMaxAttempts            int      `mapstructure:"STARTUP_MAX_ATTEMPTS"`

	// Resolution pipeline
	ResolutionMaxConcurrency      int           `mapstructure:"RESOLUTION_MAX_CONCURRENCY"`
	DisambiguationTimeout         time.Duration `mapstructure:"DISAMBIGUATION_TIMEOUT"`
	DisambiguationNameExpression  string        `mapstructure:"DISAMBIGUATION_NAME_EXPRESSION"`
	DisambiguationTypeNormalizers []string      `mapstructure:"DISAMBIGUATION_TYPE_NORMALIZERS"`

	// Entity cache (Redis)
	RedisEnabled  bool          `mapstructure:"REDIS_ENABLED"`
	RedisHost     string        `mapstructure:"REDIS_HOST"`
	RedisPort     int           `mapstructure:"REDIS_PORT"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	RedisCacheTTL time.Duration `mapstructure:"REDIS_CACHE_TTL"`

	// PostgreSQL (resolution audit log)
	DatabaseEnabled               bool          `mapstructure:"DB_ENABLED"`
	DatabaseDriver                string        `mapstructure:"DB_DRIVER"`
	DatabaseHost                  string        `mapstructure:"DB_HOST"`
	DatabasePort                  int           `mapstructure:"DB_PORT"`
	DatabaseUserName              string        `mapstructure:"DB_USER_NAME"`
	DatabasePassword              string        `mapstructure:"DB_PASSWORD"`
	DatabaseName                  string        `mapstructure:"DB_NAME"`
	DatabaseSSLMode               string        `mapstructure:"DB_SSL_MODE"`
	DatabaseMaxOpenConns          int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DatabaseMaxIdleConns          int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DatabaseConnMaxLifetime       time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME"`
	DatabaseMigrationFolderPath   string        `mapstructure:"DB_MIGRATION_FOLDER_PATH"`
	DatabaseMigrationVersion      int           `mapstructure:"DB_MIGRATION_VERSION"`
	DatabaseMigrationForce        int           `mapstructure:"DB_MIGRATION_FORCE"`
	DatabaseMigrationAutoRollback bool          `mapstructure:"DB_MIGRATION_AUTO_ROLLBACK"`

	// Graph Database (Memgraph)
	GraphDBScheme   string `mapstructure:"GRAPH_DB_SCHEME"`
	GraphDBHost     string `mapstructure:"GRAPH_DB_HOST"`
	GraphDBPort     int    `mapstructure:"GRAPH_DB_PORT"`
	GraphDBUser     string `mapstructure:"GRAPH_DB_USER"`
	GraphDBPassword string `mapstructure:"GRAPH_DB_PASSWORD"`

	// Kafka Consumer (ingested documents)
	KafkaBrokers         []string `mapstructure:"KAFKA_BROKERS"`
	KafkaInputTopic      string   `mapstructure:"KAFKA_INPUT_TOPIC"`
	KafkaConsumerGroup   string   `mapstructure:"KAFKA_CONSUMER_GROUP"`
	KafkaConsumerEnabled bool     `mapstructure:"KAFKA_CONSUMER_ENABLED"`

	// Kafka Producer (resolution events)
	EventsEnabled       bool          `mapstructure:"EVENTS_ENABLED"`
	KafkaOutputTopic    string        `mapstructure:"KAFKA_OUTPUT_TOPIC"`
	KafkaBatchSize      int           `mapstructure:"KAFKA_BATCH_SIZE"`
	KafkaBatchTimeout   time.Duration `mapstructure:"KAFKA_BATCH_TIMEOUT"`
	KafkaRequiredAcks   int           `mapstructure:"KAFKA_REQUIRED_ACKS"`
	KafkaCompression    string        `mapstructure:"KAFKA_COMPRESSION"`
	EventPublishTimeout time.Duration `mapstructure:"EVENT_PUBLISH_TIMEOUT"`

	// Tracing
	TracingExporter  string        `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint     string        `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPProtocol     string        `mapstructure:"OTEL_EXPORTER_OTLP_PROTOCOL"`
	OTLPInsecure     bool          `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	OTLPHeaders      []string      `mapstructure:"OTEL_EXPORTER_OTLP_HEADERS"`
	OTLPTimeout      time.Duration `mapstructure:"OTEL_EXPORTER_OTLP_TIMEOUT"`
}

// defaults holds the value of every key that is not set anywhere else
var defaults = map[string]any{
	"APP_NAME":                                "fern",
	"APP_VERSION":                             "dev",
	"PORT":                                    3004,
	"LOG_LEVEL":                               "info",
	"PRETTY_LOGS":                             false,
	"HTTP_SERVER_WRITE_TIMEOUT_SECONDS":       30,
	"HTTP_SERVER_READ_TIMEOUT_SECONDS":        10,
	"HTTP_SERVER_IDLE_TIMEOUT_SECONDS":        10,
	"HTTP_SERVER_MAX_HEADER_BYTES":            64000,
	"HTTP_SERVER_READ_HEADER_TIMEOUT_SECONDS": 10,
	"HTTP_SERVER_BODY_LIMIT":                  "8M",
	"HTTP_SERVER_ALLOW_ORIGINS":               []string{"*"},
	"HTTP_SERVER_ALLOW_METHODS":               []string{"GET", "POST"},
	"STARTUP_MAX_ATTEMPTS":                    5,

	// Resolution pipeline
	"RESOLUTION_MAX_CONCURRENCY":      0,
	"DISAMBIGUATION_TIMEOUT":          10 * time.Second,
	"DISAMBIGUATION_NAME_EXPRESSION":  "name || attributes.name",
	"DISAMBIGUATION_TYPE_NORMALIZERS": []string{"person=trim|nname"},

	// Entity cache (Redis)
	"REDIS_ENABLED":   false,
	"REDIS_HOST":      "localhost",
	"REDIS_PORT":      6379,
	"REDIS_PASSWORD":  "",
	"REDIS_DB":        0,
	"REDIS_CACHE_TTL": time.Hour,

	// PostgreSQL (resolution audit log)
	"DB_ENABLED":                 false,
	"DB_DRIVER":                  "postgres",
	"DB_HOST":                    "localhost",
	"DB_PORT":                    5432,
	"DB_USER_NAME":               "",
	"DB_PASSWORD":                "",
	"DB_NAME":                    "fern",
	"DB_SSL_MODE":                "disable",
	"DB_MAX_OPEN_CONNS":          25,
	"DB_MAX_IDLE_CONNS":          10,
	"DB_CONN_MAX_LIFETIME":       10 * time.Minute,
	"DB_MIGRATION_FOLDER_PATH":   "db/pg",
	"DB_MIGRATION_VERSION":       0,
	"DB_MIGRATION_FORCE":         0,
	"DB_MIGRATION_AUTO_ROLLBACK": true,

	// Graph Database (Memgraph)
	"GRAPH_DB_SCHEME":   "bolt",
	"GRAPH_DB_HOST":     "localhost",
	"GRAPH_DB_PORT":     7687,
	"GRAPH_DB_USER":     "",
	"GRAPH_DB_PASSWORD": "",

	// Kafka Consumer (ingested documents)
	"KAFKA_BROKERS":          []string{"localhost:9092"},
	"KAFKA_INPUT_TOPIC":      "ingested-documents",
	"KAFKA_CONSUMER_GROUP":   "fern-consumer",
	"KAFKA_CONSUMER_ENABLED": false,

	// Kafka Producer (resolution events)
	"EVENTS_ENABLED":        false,
	"KAFKA_OUTPUT_TOPIC":    "fern-resolution-events",
	"KAFKA_BATCH_SIZE":      100,
	"KAFKA_BATCH_TIMEOUT":   100 * time.Millisecond,
	"KAFKA_REQUIRED_ACKS":   1,
	"KAFKA_COMPRESSION":     "snappy",
	"EVENT_PUBLISH_TIMEOUT": 5 * time.Second,

	// Tracing
	"TRACING_EXPORTER":            "",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "",
	"OTEL_EXPORTER_OTLP_PROTOCOL": "grpc",
	"OTEL_EXPORTER_OTLP_INSECURE": true,
	"OTEL_EXPORTER_OTLP_HEADERS":  []string{},
	"OTEL_EXPORTER_OTLP_TIMEOUT":  10 * time.Second,
}
