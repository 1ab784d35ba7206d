package config

import (
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/maumercado/anticaptcha-go/pkg/anticaptcha"
)

type Config struct {
	Client    ClientConfig
	Task      anticaptcha.TaskOptions
	Server    ServerConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Metrics   MetricsConfig
	LogLevel  string
	LogFile   string
}

type ClientConfig struct {
	Key          string
	SoftID       int
	CallbackURL  string
	APIURL       string
	HTTPTimeout  time.Duration
	TaskTimeout  time.Duration
	PollInterval time.Duration
	CAFile       string
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// AllowedOrigins lists the origins accepted on /ws. Empty means same
	// origin only; "*" accepts any origin.
	AllowedOrigins []string
}

// RedisConfig enables event publishing through Redis when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	Enabled   bool
	JWTSecret string
	APIKeys   []string
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

func Load() (*Config, error) {
	return LoadWithFlags(nil)
}

// LoadWithFlags loads the configuration, letting flags set on fs override
// file and environment values.
func LoadWithFlags(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/anticaptcha")

	// Set defaults
	setDefaults(v)

	// Environment variable binding, e.g. ANTICAPTCHA_CLIENT_KEY
	v.SetEnvPrefix("ANTICAPTCHA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := bindFlags(v, fs); err != nil {
			return nil, err
		}
		if path, err := fs.GetString("config"); err == nil && path != "" {
			v.SetConfigFile(path)
		}
	}

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Flags returns the command line flags understood by LoadWithFlags.
func Flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "path to a config file")
	fs.String("key", "", "anti-captcha client key")
	fs.String("api-url", "", "API base URL")
	fs.Int("soft-id", 0, "soft-partner id")
	fs.String("callback-url", "", "task completion webhook")
	fs.Duration("task-timeout", 0, "wait timeout")
	fs.Duration("poll-interval", 0, "delay between result checks")
	fs.String("log-level", "", "log level")
	fs.String("log-file", "", "write logs to this file")
	return fs
}

var flagKeys = map[string]string{
	"key":           "client.key",
	"api-url":       "client.apiurl",
	"soft-id":       "client.softid",
	"callback-url":  "client.callbackurl",
	"task-timeout":  "client.tasktimeout",
	"poll-interval": "client.pollinterval",
	"log-level":     "loglevel",
	"log-file":      "logfile",
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return err
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Client defaults
	v.SetDefault("client.key", "")
	v.SetDefault("client.softid", 0)
	v.SetDefault("client.callbackurl", "")
	v.SetDefault("client.apiurl", anticaptcha.DefaultAPIURL)
	v.SetDefault("client.httptimeout", 15*time.Second)
	v.SetDefault("client.tasktimeout", 120*time.Second)
	v.SetDefault("client.pollinterval", 5*time.Second)
	v.SetDefault("client.cafile", "")

	// Task option defaults
	v.SetDefault("task.phrase", false)
	v.SetDefault("task.case", false)
	v.SetDefault("task.numeric", 0)
	v.SetDefault("task.math", false)
	v.SetDefault("task.minlength", 0)
	v.SetDefault("task.maxlength", 0)
	v.SetDefault("task.comment", "")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readtimeout", 30*time.Second)
	v.SetDefault("server.writetimeout", 5*time.Minute)
	v.SetDefault("server.idletimeout", 120*time.Second)
	v.SetDefault("server.allowedorigins", []string{})

	// Redis defaults
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Auth defaults
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.apikeys", []string{})

	// Rate limit defaults
	v.SetDefault("ratelimit.rps", 10.0)
	v.SetDefault("ratelimit.burst", 20)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Logging defaults
	v.SetDefault("loglevel", "info")
	v.SetDefault("logfile", "")
}
