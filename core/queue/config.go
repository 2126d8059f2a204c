package queue

import "time"

// RedisConfig holds the connection settings of the Redis server backing the
// queue.
type RedisConfig struct {
	Host     string `mapstructure:"host" default:"127.0.0.1"`
	Port     string `mapstructure:"port" default:"6379"`
	Password string `mapstructure:"password" default:""`
	DB       int    `mapstructure:"db" default:"0"`
}

// Addr returns host:port.
func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// Config holds queue settings.
type Config struct {
	// Key is the Redis list jobs are pushed to.
	Key string `mapstructure:"key" default:"geomancer"`
	// ResultTTLSeconds bounds how long a finished job result is kept.
	ResultTTLSeconds int `mapstructure:"result_ttl_seconds" default:"500"`
	// PollTimeoutSeconds is the blocking pop timeout of the worker loop.
	PollTimeoutSeconds int `mapstructure:"poll_timeout_seconds" default:"5"`
}

// ResultTTL returns the result TTL.
func (c Config) ResultTTL() time.Duration {
	if c.ResultTTLSeconds <= 0 {
		return 500 * time.Second
	}
	return time.Duration(c.ResultTTLSeconds) * time.Second
}

// PollTimeout returns the blocking pop timeout.
func (c Config) PollTimeout() time.Duration {
	if c.PollTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.PollTimeoutSeconds) * time.Second
}
