package kafka

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
)

// ProducerOption configures Producer.
type ProducerOption func(*producerConfig)

type producerConfig struct {
	brokers      []string
	acks         kafka.RequiredAcks
	attempts     int
	compression  string
	writeTimeout time.Duration
	batchTimeout time.Duration
	reg          prometheus.Registerer
	writer       messageWriter
}

func defaultProducerConfig() *producerConfig {
	return &producerConfig{
		acks:         kafka.RequireAll,
		attempts:     3,
		compression:  "gzip",
		writeTimeout: 10 * time.Second,
		// Artifacts are published one at a time; do not wait for a batch.
		batchTimeout: 10 * time.Millisecond,
		reg:          prometheus.DefaultRegisterer,
	}
}

func WithBrokers(brokers []string) ProducerOption {
	return func(c *producerConfig) { c.brokers = brokers }
}

// WithCompression selects gzip, snappy, lz4 or zstd. Unknown names fall
// back to gzip.
func WithCompression(name string) ProducerOption {
	return func(c *producerConfig) {
		if _, ok := compressions[name]; ok {
			c.compression = name
		}
	}
}

// WithDelivery sets the acknowledgement level (-1 all replicas, 1 leader,
// 0 none) and how many times the writer retries a failed write.
func WithDelivery(acks, attempts int) ProducerOption {
	return func(c *producerConfig) {
		c.acks = kafka.RequiredAcks(acks)
		if attempts > 0 {
			c.attempts = attempts
		}
	}
}

func WithWriteTimeout(d time.Duration) ProducerOption {
	return func(c *producerConfig) {
		if d > 0 {
			c.writeTimeout = d
		}
	}
}

// WithRegisterer records producer metrics on reg; nil disables them.
func WithRegisterer(reg prometheus.Registerer) ProducerOption {
	return func(c *producerConfig) { c.reg = reg }
}

var compressions = map[string]kafka.Compression{
	"gzip":   kafka.Gzip,
	"snappy": kafka.Snappy,
	"lz4":    kafka.Lz4,
	"zstd":   kafka.Zstd,
}
