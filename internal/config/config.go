package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all service settings, populated from an optional config
// file and NEXRAD_-prefixed environment variables.
type Config struct {
	// Site is the four-letter ICAO identifier to follow.
	Site string

	// Chunk source configuration. ArchiveBucket serves whole volumes;
	// ChunkBucket serves live partial-volume chunks.
	S3Endpoint    string
	ArchiveBucket string
	ChunkBucket   string
	S3Timeout     time.Duration
	CacheSize     int

	// Poll pacing for the live feed.
	PollInterval    time.Duration
	PollMinInterval time.Duration

	KafkaBrokers   []string
	KafkaSinkTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// DecodeWorkers bounds the record-decode pool; 0 means one per CPU.
	DecodeWorkers int
}

// Load reads configuration, applying defaults where unset. A missing
// config file is fine; environment variables alone are enough.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("nexrad-etl")
	v.AddConfigPath("/etc/nexrad-etl")
	v.AddConfigPath(".")
	v.SetEnvPrefix("nexrad")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("site", "KDMX")
	// Empty endpoint means the public AWS buckets; set one to point at a
	// local S3 stand-in.
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.archive_bucket", "noaa-nexrad-level2")
	v.SetDefault("s3.chunk_bucket", "unidata-nexrad-level2-chunks")
	v.SetDefault("s3.timeout", "30s")
	v.SetDefault("s3.cache_size", 64)
	v.SetDefault("poll.interval", "10s")
	v.SetDefault("poll.min_interval", "2s")
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.sink_topic", "radar-scan-summaries")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("shutdown.timeout", "10s")
	v.SetDefault("decode.workers", 0)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{
		Site:            strings.ToUpper(v.GetString("site")),
		S3Endpoint:      v.GetString("s3.endpoint"),
		ArchiveBucket:   v.GetString("s3.archive_bucket"),
		ChunkBucket:     v.GetString("s3.chunk_bucket"),
		S3Timeout:       v.GetDuration("s3.timeout"),
		CacheSize:       v.GetInt("s3.cache_size"),
		PollInterval:    v.GetDuration("poll.interval"),
		PollMinInterval: v.GetDuration("poll.min_interval"),
		KafkaBrokers:    splitBrokers(v.GetString("kafka.brokers")),
		KafkaSinkTopic:  v.GetString("kafka.sink_topic"),
		HTTPAddr:        v.GetString("http.addr"),
		LogLevel:        v.GetString("log.level"),
		LogFormat:       v.GetString("log.format"),
		ShutdownTimeout: v.GetDuration("shutdown.timeout"),
		DecodeWorkers:   v.GetInt("decode.workers"),
	}

	if len(cfg.Site) != 4 {
		return nil, errors.New("site must be a four-letter ICAO identifier")
	}
	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("kafka.brokers is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("kafka.sink_topic is required")
	}
	if cfg.S3Timeout <= 0 {
		return nil, errors.New("s3.timeout must be positive")
	}
	if cfg.PollMinInterval <= 0 || cfg.PollInterval < cfg.PollMinInterval {
		return nil, errors.New("poll.interval must be at least poll.min_interval")
	}

	return cfg, nil
}

func splitBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
