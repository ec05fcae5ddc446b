package clickhouse

import "time"

// ClientOption configures Client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	host, database   string
	port             int
	user, password   string
	maxOpen, maxIdle int
	connMaxLifetime  time.Duration
	dialTimeout      time.Duration
	readTimeout      time.Duration
	http             bool
	asyncInsert      bool
	waitAsyncInsert  bool
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		port:            9000,
		database:        "default",
		user:            "default",
		maxOpen:         4,
		maxIdle:         2,
		connMaxLifetime: 5 * time.Minute,
		dialTimeout:     5 * time.Second,
		readTimeout:     10 * time.Second,
	}
}

// WithAddr sets the server host and port. A zero port keeps 9000.
func WithAddr(host string, port int) ClientOption {
	return func(c *clientConfig) {
		c.host = host
		if port > 0 {
			c.port = port
		}
	}
}

func WithDatabase(database string) ClientOption {
	return func(c *clientConfig) { c.database = database }
}

func WithCredentials(user, password string) ClientOption {
	return func(c *clientConfig) {
		c.user = user
		c.password = password
	}
}

// WithPool bounds the connection pool. A run writes one batch per horizon,
// so the defaults are small.
func WithPool(maxOpen, maxIdle int) ClientOption {
	return func(c *clientConfig) {
		c.maxOpen = maxOpen
		c.maxIdle = maxIdle
	}
}

// WithTimeouts sets dial and read timeouts; zero leaves the driver default.
func WithTimeouts(dial, read time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.dialTimeout = dial
		c.readTimeout = read
	}
}

// WithHTTP switches from the native protocol to HTTP.
func WithHTTP(enabled bool) ClientOption {
	return func(c *clientConfig) { c.http = enabled }
}

// WithAsyncInsert lets the server buffer inserts. With wait set, an insert
// returns only once the buffer is flushed.
func WithAsyncInsert(enabled, wait bool) ClientOption {
	return func(c *clientConfig) {
		c.asyncInsert = enabled
		c.waitAsyncInsert = wait
	}
}
