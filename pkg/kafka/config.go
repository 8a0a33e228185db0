package kafka

import (
	"fmt"
	"time"

	"github.com/creasty/defaults"
	"github.com/segmentio/kafka-go"
)

// ProducerConfig describes the writer behind a Producer. Zero fields take
// their `default`.
type ProducerConfig struct {
	Brokers []string
	// RequiredAcks is -1 for all in-sync replicas.
	RequiredAcks int    `default:"-1"`
	Compression  string `default:"gzip"`
	MaxAttempts  int    `default:"3"`
	BatchSize    int    `default:"100"`
	BatchBytes   int    `default:"1048576"`
	// Linger is how long a partial batch waits before it is flushed.
	Linger           time.Duration `default:"1s"`
	WriteTimeout     time.Duration `default:"10s"`
	ReadTimeout      time.Duration `default:"10s"`
	Async            bool
	AutoCreateTopics bool
}

// writer builds the kafka-go writer. Keyed messages (tickers) hash to a fixed
// partition; unkeyed ones go round robin.
func (cfg ProducerConfig) writer() (*kafka.Writer, error) {
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("producer config: %w", err)
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}
	comp, err := compressionCodec(cfg.Compression)
	if err != nil {
		return nil, err
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            comp,
		MaxAttempts:            cfg.MaxAttempts,
		BatchSize:              cfg.BatchSize,
		BatchBytes:             int64(cfg.BatchBytes),
		BatchTimeout:           cfg.Linger,
		WriteTimeout:           cfg.WriteTimeout,
		ReadTimeout:            cfg.ReadTimeout,
		Async:                  cfg.Async,
		AllowAutoTopicCreation: cfg.AutoCreateTopics,
	}, nil
}

var codecs = map[string]kafka.Compression{
	"none":   0,
	"gzip":   kafka.Gzip,
	"snappy": kafka.Snappy,
	"lz4":    kafka.Lz4,
	"zstd":   kafka.Zstd,
}

func compressionCodec(name string) (kafka.Compression, error) {
	c, ok := codecs[name]
	if !ok {
		return 0, fmt.Errorf("unknown compression %q", name)
	}
	return c, nil
}
