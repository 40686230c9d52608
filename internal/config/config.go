// Package config provides layered configuration loading for the hush
// service: struct defaults overlaid with HUSH_-prefixed environment
// variables, then validated. Loading is side-effect free; callers decide
// how to react to errors.
package config

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces all environment variables, e.g. HUSH_ADDR.
const envPrefix = "HUSH_"

// Config holds the merged runtime configuration for the hush service.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `koanf:"addr" validate:"required,ip_port"`
	// Store selects the storage backend.
	Store string `koanf:"store" validate:"required,oneof=memory sqlite redis"`
	// DataDir is the directory holding the SQLite database.
	DataDir string `koanf:"data_dir" validate:"required_if=Store sqlite,omitempty,safe_dir"`
	// RedisAddr is the Redis host:port, used for the redis store and the
	// ingestion queue.
	RedisAddr     string `koanf:"redis_addr" validate:"required_if=Store redis"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db" validate:"gte=0"`
	// IngestEnabled turns the queue consumer on. Requires RedisAddr unless
	// the memory store (with its in-process queue) is selected.
	IngestEnabled bool `koanf:"ingest_enabled"`
	// IngestQueue is the Redis list key the consumer drains.
	IngestQueue string `koanf:"ingest_queue" validate:"required_if=IngestEnabled true"`
	// DefaultTTL applies to submissions that carry no TTL.
	DefaultTTL time.Duration `koanf:"default_ttl" validate:"required"`
	// MaxTTL caps requested TTLs system-wide.
	MaxTTL time.Duration `koanf:"max_ttl" validate:"required,gtefield=DefaultTTL"`
	// SweepInterval is the janitor cycle period.
	SweepInterval time.Duration `koanf:"sweep_interval" validate:"required"`
}

// DefaultAppConfig holds the secure, minimal sane defaults.
var DefaultAppConfig = Config{
	Addr:          ":8080",
	Store:         "memory",
	DataDir:       "./data",
	RedisAddr:     "localhost:6379",
	IngestQueue:   "hush:ingest",
	DefaultTTL:    24 * time.Hour,
	MaxTTL:        7 * 24 * time.Hour,
	SweepInterval: time.Minute,
}

// Load merges defaults with environment variables and validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(DefaultAppConfig, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	envProvider := env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return strings.ToLower(strings.TrimPrefix(key, envPrefix)), value
		},
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate runs the struct tags plus the custom rules.
func validate(cfg *Config) error {
	v := validator.New()
	if err := v.RegisterValidation("ip_port", validIPPort); err != nil {
		return err
	}
	if err := v.RegisterValidation("safe_dir", validSafeDir); err != nil {
		return err
	}
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.IngestEnabled && cfg.Store != "memory" && cfg.RedisAddr == "" {
		return fmt.Errorf("invalid configuration: ingest requires redis_addr")
	}
	return nil
}

// validIPPort accepts "host:port" where host is empty or a literal IP and
// port is 1-65535. Hostnames are rejected: the value is a bind address.
func validIPPort(fl validator.FieldLevel) bool {
	addr := fl.Field().String()
	i := strings.LastIndexByte(addr, ':')
	if i < 0 {
		return false
	}
	host, port := addr[:i], addr[i+1:]
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return false
	}
	if host == "" {
		return true
	}
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		host = host[1 : len(host)-1]
		_, err := netip.ParseAddr(host)
		return err == nil && strings.Contains(host, ":")
	}
	ip, err := netip.ParseAddr(host)
	return err == nil && ip.Is4()
}

// validSafeDir accepts relative or absolute directory paths that do not
// escape upward and are not the filesystem root.
func validSafeDir(fl validator.FieldLevel) bool {
	p := fl.Field().String()
	if p == "" || p == "." {
		return false
	}
	clean := strings.TrimRight(p, "/")
	if clean == "" { // p was all slashes
		return false
	}
	for _, seg := range strings.Split(clean, "/") {
		if seg == ".." {
			return false
		}
	}
	return true
}
