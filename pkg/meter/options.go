package meter

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

const (
	driverRedis  = "redis"
	driverValkey = "valkey"
	driverSQLite = "sqlite"
)

type clientConfig struct {
	driver     string // "redis", "valkey" or "sqlite"
	addrs      []string
	username   string
	password   string
	db         int
	sqlitePath string

	opTimeout        time.Duration
	readinessTimeout time.Duration

	pricing   *Pricing
	completer Completer
	provider  string
	openai    *openAIConfig

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

type openAIConfig struct {
	apiKey  string
	baseURL string
	model   string
}

// WithRedis configures the client to use a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverRedis
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithValkey configures the client to use a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverValkey
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithSeedAddrs replaces the Redis or Valkey seed list, e.g. for a cluster.
// Use after WithRedis or WithValkey.
func WithSeedAddrs(addrs ...string) Option {
	return optionFunc(func(c *clientConfig) {
		if len(addrs) > 0 {
			c.addrs = addrs
		}
	})
}

// WithRedisACL sets the ACL username and logical database for Redis or Valkey.
func WithRedisACL(username string, db int) Option {
	return optionFunc(func(c *clientConfig) {
		c.username = username
		c.db = db
	})
}

// WithSQLite configures the client to use a SQLite file. The schema is created on open.
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverSQLite
		c.sqlitePath = path
	})
}

// WithStoreTimeout bounds every store call. Default: 2s.
func WithStoreTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.opTimeout = d
	})
}

// WithReadinessTimeout bounds the initial connectivity wait in New. Default: 10s.
func WithReadinessTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.readinessTimeout = d
	})
}

// WithPricing overrides the cost table used by EstimateCost and Complete.
func WithPricing(p Pricing) Option {
	return optionFunc(func(c *clientConfig) {
		c.pricing = &p
	})
}

// WithCompleter enables Complete with a caller-supplied LLM provider.
// provider labels metrics and logs.
func WithCompleter(provider string, comp Completer) Option {
	return optionFunc(func(c *clientConfig) {
		c.provider = provider
		c.completer = comp
	})
}

// WithOpenAI enables Complete against an OpenAI-compatible chat completions API.
// baseURL may be empty for api.openai.com.
func WithOpenAI(apiKey, baseURL, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.provider = "openai"
		c.openai = &openAIConfig{apiKey: apiKey, baseURL: baseURL, model: model}
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// and the metering counters on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
