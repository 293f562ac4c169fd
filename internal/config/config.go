package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// DefaultFeedURL is the IGP ArcGIS query endpoint behind the public
// "Sismos Reportados" map.
const DefaultFeedURL = "https://ide.igp.gob.pe/arcgis/rest/services/monitoreocensis/SismosReportados/MapServer/0/query"

// Config holds all service settings, populated from environment variables.
type Config struct {
	FeedURL     string
	FeedTimeout time.Duration
	FeedSource  string

	IngestMaxRecords int
	IngestInterval   time.Duration // 0 disables the scheduler

	ListTopN      int
	ListScanLimit int

	// DynamoDB configuration.
	DynamoTable    string
	DynamoEndpoint string
	AWSRegion      string

	// Kafka publishing configuration.
	PublishEnabled bool
	KafkaBrokers   []string
	KafkaSinkTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	feedTimeout, err := parseDuration("FEED_TIMEOUT", "15s", false)
	if err != nil {
		return nil, err
	}
	ingestInterval, err := parseDuration("INGEST_INTERVAL", "0s", true)
	if err != nil {
		return nil, err
	}

	maxRecords, err := parsePositiveInt("INGEST_MAX_RECORDS", 10, 2000)
	if err != nil {
		return nil, err
	}
	topN, err := parsePositiveInt("LIST_TOP_N", 10, 1000)
	if err != nil {
		return nil, err
	}
	scanLimit, err := parsePositiveInt("LIST_SCAN_LIMIT", 50, 10000)
	if err != nil {
		return nil, err
	}

	publishEnabled := false
	if v := os.Getenv("PUBLISH_ENABLED"); v != "" {
		publishEnabled = v == "true"
	}

	cfg := &Config{
		FeedURL:          sharedcfg.EnvOrDefault("FEED_URL", DefaultFeedURL),
		FeedTimeout:      feedTimeout,
		FeedSource:       sharedcfg.EnvOrDefault("FEED_SOURCE", "IGP-ArcGIS"),
		IngestMaxRecords: maxRecords,
		IngestInterval:   ingestInterval,
		ListTopN:         topN,
		ListScanLimit:    scanLimit,
		DynamoTable:      sharedcfg.EnvOrDefault("DDB_TABLE", "TablaSismosIGP"),
		DynamoEndpoint:   os.Getenv("DDB_ENDPOINT"),
		AWSRegion:        os.Getenv("AWS_REGION"),
		PublishEnabled:   publishEnabled,
		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic:   sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "igp-seismic-events"),
		HTTPAddr:         sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:         sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:  shutdownTimeout,
	}

	if cfg.FeedURL == "" {
		return nil, errors.New("FEED_URL is required")
	}
	if cfg.DynamoTable == "" {
		return nil, errors.New("DDB_TABLE is required")
	}
	if cfg.PublishEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("PUBLISH_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.PublishEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("PUBLISH_ENABLED is true but KAFKA_SINK_TOPIC is empty")
	}

	return cfg, nil
}

func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def, maxValue int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > maxValue {
		return 0, fmt.Errorf("invalid %s: must be between 1 and %d", key, maxValue)
	}
	return n, nil
}
