package config

import "time"

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"clover-api"`
	Port                          int      `env:"PORT" env-default:"3004"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST,PUT,DELETE"`

	// PostgreSQL (job snapshots + registry snapshot source)
	DatabaseHost                string        `env:"DB_HOST" env-default:""`
	DatabasePort                string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName            string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword            string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                string        `env:"DB_NAME" env-default:"clover"`
	DatabaseSSLMode             string        `env:"DB_SSL_MODE" env-default:"disable"`
	DatabaseMaxOpenConns        int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns        int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime     time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`
	DatabaseMigrationFolderPath string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	DatabaseMigrationVersion    int           `env:"DB_MIGRATION_VERSION" env-default:"0"`

	// Kafka Consumer (raw import rows)
	KafkaBrokers         []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaInputTopic      string   `env:"KAFKA_INPUT_TOPIC" env-default:"raw-rows"`
	KafkaConsumerGroup   string   `env:"KAFKA_CONSUMER_GROUP" env-default:"clover-consumer"`
	KafkaConsumerEnabled bool     `env:"KAFKA_CONSUMER_ENABLED" env-default:"true"`

	// Kafka Producer (resolution outcomes + duplicate reports)
	KafkaOutputTopic          string `env:"KAFKA_OUTPUT_TOPIC" env-default:"match-outcomes"`
	KafkaDuplicateReportTopic string `env:"KAFKA_DUPLICATE_REPORT_TOPIC" env-default:"duplicate-reports"`
	KafkaBatchSize            int    `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout         int    `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks         int    `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression          string `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// Matching
	FuzzyInStateThreshold float64 `env:"FUZZY_IN_STATE_THRESHOLD" env-default:"0.8"`
	FuzzyRelaxedThreshold float64 `env:"FUZZY_RELAXED_THRESHOLD" env-default:"0.6"`
	PartialConfidence     float64 `env:"PARTIAL_CONFIDENCE" env-default:"0.9"`

	// Duplicate detection
	DuplicateSimilarityThreshold float64 `env:"DUPLICATE_SIMILARITY_THRESHOLD" env-default:"0.85"`

	// Batch jobs
	JobMaxConcurrent int `env:"JOB_MAX_CONCURRENT" env-default:"3"`
}
