// Package config holds the task board's runtime configuration: the
// viper-backed tunables that are not part of the CLI argument block (see
// args.go for the -a/-n/-g/-t/-p/-x flags).
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the board's full runtime tunable set.
type Config struct {
	Board   BoardConfig
	Redis   RedisConfig
	Bridge  BridgeConfig
	Admin   AdminConfig
	Metrics MetricsConfig
	Auth    AuthConfig
	LogLevel string
}

// BoardConfig tunes the task board core.
type BoardConfig struct {
	MaxTasks      int
	HistorySize   int
	QueueCapacity int
	CallTimeout   time.Duration
}

// RedisConfig configures the Redis client backing the bridge's messaging
// fabric.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// BridgeConfig configures the bridge ingress component.
type BridgeConfig struct {
	ConsumerGroup      string
	EnabledTiers       []string
	ReconnectInitial   time.Duration
	ReconnectMax       time.Duration
	ReconnectFactor    float64
}

// AdminConfig configures the admin HTTP/WebSocket surface.
type AdminConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// AuthConfig configures the admin surface's authentication.
type AuthConfig struct {
	Enabled   bool
	JWTSecret string
	APIKeys   []string
}

// Load reads configuration from (in order of precedence) environment
// variables prefixed TBOARD_, a config.yaml discovered on the search
// path, and the defaults set in setDefaults.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/tboard")

	setDefaults()

	viper.SetEnvPrefix("TBOARD")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("board.maxtasks", 256)
	viper.SetDefault("board.historysize", 512)
	viper.SetDefault("board.queuecapacity", 0)
	viper.SetDefault("board.calltimeout", 10*time.Second)

	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.poolsize", 50)
	viper.SetDefault("redis.dialtimeout", 5*time.Second)
	viper.SetDefault("redis.readtimeout", 3*time.Second)
	viper.SetDefault("redis.writetimeout", 3*time.Second)

	viper.SetDefault("bridge.consumergroup", "tboard")
	viper.SetDefault("bridge.enabledtiers", []string{"device"})
	viper.SetDefault("bridge.reconnectinitial", 500*time.Millisecond)
	viper.SetDefault("bridge.reconnectmax", 30*time.Second)
	viper.SetDefault("bridge.reconnectfactor", 2.0)

	viper.SetDefault("admin.host", "0.0.0.0")
	viper.SetDefault("admin.port", 8090)
	viper.SetDefault("admin.readtimeout", 15*time.Second)
	viper.SetDefault("admin.writetimeout", 15*time.Second)
	viper.SetDefault("admin.idletimeout", 60*time.Second)

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")

	viper.SetDefault("auth.enabled", false)
	viper.SetDefault("auth.jwtsecret", "")
	viper.SetDefault("auth.apikeys", []string{})

	viper.SetDefault("loglevel", "info")
}
