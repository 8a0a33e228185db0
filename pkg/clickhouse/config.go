package clickhouse

import "time"

// Option configures a Client.
type Option func(*Config)

// Config describes how the service reaches ClickHouse.
type Config struct {
	Addrs    []string
	Database string
	User     string
	Password string
	HTTP     bool

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	DialTimeout     time.Duration
	ReadTimeout     time.Duration

	// MaxExecutionTime bounds every query on the server side.
	MaxExecutionTime time.Duration
	// AsyncInsert buffers signal inserts on the server; WaitForAsync makes
	// an insert return only once its buffer was flushed.
	AsyncInsert  bool
	WaitForAsync bool
}

// WithAddr adds a host:port endpoint. Several endpoints are tried in order.
func WithAddr(host string, port int) Option {
	return func(c *Config) {
		c.Addrs = append(c.Addrs, joinHostPort(host, port))
	}
}

// WithAuth selects the database and the account used to reach it.
func WithAuth(database, user, password string) Option {
	return func(c *Config) {
		c.Database = database
		c.User = user
		c.Password = password
	}
}

// WithHTTP switches from the native protocol to HTTP.
func WithHTTP(enabled bool) Option {
	return func(c *Config) {
		c.HTTP = enabled
	}
}

func WithPool(maxOpen, maxIdle int, lifetime time.Duration) Option {
	return func(c *Config) {
		c.MaxOpenConns = maxOpen
		c.MaxIdleConns = maxIdle
		c.ConnMaxLifetime = lifetime
	}
}

func WithTimeouts(dial, read time.Duration) Option {
	return func(c *Config) {
		c.DialTimeout = dial
		c.ReadTimeout = read
	}
}

func WithMaxExecutionTime(d time.Duration) Option {
	return func(c *Config) {
		c.MaxExecutionTime = d
	}
}

func WithAsyncInsert(enabled, wait bool) Option {
	return func(c *Config) {
		c.AsyncInsert = enabled
		c.WaitForAsync = wait
	}
}
