// Package config loads process settings from defaults, an optional YAML
// settings file and AFFILIATE_* environment variables, in that order of
// precedence (environment wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	EnvPrefix       = "AFFILIATE"
	SettingsFileEnv = "AFFILIATE_SETTINGS_FILE"

	GatewayPaystack = "paystack"
	GatewaySandbox  = "sandbox"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Cache          CacheConfig          `mapstructure:"cache"`
	Gateway        GatewayConfig        `mapstructure:"gateway"`
	Paystack       PaystackConfig       `mapstructure:"paystack"`
	Breaker        BreakerConfig        `mapstructure:"breaker"`
	Payment        PaymentConfig        `mapstructure:"payment"`
	Reconciliation ReconciliationConfig `mapstructure:"reconciliation"`
	Activation     ActivationConfig     `mapstructure:"activation"`
	Referral       ReferralConfig       `mapstructure:"referral"`
	Withdrawal     WithdrawalConfig     `mapstructure:"withdrawal"`
	Kafka          KafkaConfig          `mapstructure:"kafka"`
	Audit          FileConfig           `mapstructure:"audit"`
	Events         FileConfig           `mapstructure:"events"`
	Log            LogConfig            `mapstructure:"log"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	// URL empty selects the in-memory repositories.
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

type RedisConfig struct {
	// Addrs empty selects the in-process cache.
	Addrs    []string `mapstructure:"addrs"`
	Password string   `mapstructure:"password"`
	DB       int      `mapstructure:"db"`
	Cluster  bool     `mapstructure:"cluster"`
}

type CacheConfig struct {
	Namespace string `mapstructure:"namespace"`
}

type GatewayConfig struct {
	Mode string `mapstructure:"mode"`
}

type PaystackConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	SecretKey string        `mapstructure:"secret_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type BreakerConfig struct {
	FailureThreshold int           `mapstructure:"failure_threshold"`
	SuccessThreshold int           `mapstructure:"success_threshold"`
	OpenTimeout      time.Duration `mapstructure:"open_timeout"`
}

type PaymentConfig struct {
	ReferenceLength   int           `mapstructure:"reference_length"`
	ReferenceAttempts int           `mapstructure:"reference_attempts"`
	CheckWindow       time.Duration `mapstructure:"check_window"`
}

type ReconciliationConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	// Embedded runs the poller inside the web process. Turn it off when a
	// separate consumers process reconciles against the same database.
	Embedded bool `mapstructure:"embedded"`
}

type ActivationConfig struct {
	Fee       decimal.Decimal `mapstructure:"-"`
	StatusTTL time.Duration   `mapstructure:"status_ttl"`
}

type ReferralConfig struct {
	Reward decimal.Decimal `mapstructure:"-"`
}

type WithdrawalConfig struct {
	Min        decimal.Decimal `mapstructure:"-"`
	Max        decimal.Decimal `mapstructure:"-"`
	FeePercent decimal.Decimal `mapstructure:"-"`
	Instant    bool            `mapstructure:"instant"`
}

type KafkaConfig struct {
	// Brokers empty disables the event relay.
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type FileConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Development bool `mapstructure:"development"`
}

var defaults = map[string]any{
	"server.addr":                ":8080",
	"server.shutdown_timeout":    10 * time.Second,
	"server.cors_origins":        []string{"*"},
	"database.url":               "",
	"database.max_conns":         10,
	"database.min_conns":         1,
	"redis.addrs":                []string{},
	"redis.password":             "",
	"redis.db":                   0,
	"redis.cluster":              false,
	"cache.namespace":            "affiliate",
	"gateway.mode":               GatewaySandbox,
	"paystack.base_url":          "https://api.paystack.co",
	"paystack.secret_key":        "",
	"paystack.timeout":           15 * time.Second,
	"breaker.failure_threshold":  5,
	"breaker.success_threshold":  1,
	"breaker.open_timeout":       30 * time.Second,
	"payment.reference_length":   6,
	"payment.reference_attempts": 100,
	"payment.check_window":       30 * time.Second,
	"reconciliation.interval":    30 * time.Second,
	"reconciliation.embedded":    true,
	"activation.fee":             "500",
	"activation.status_ttl":      10 * time.Minute,
	"referral.reward":            "100",
	"withdrawal.min":             "200",
	"withdrawal.max":             "100000",
	"withdrawal.fee_percent":     "10",
	"withdrawal.instant":         true,
	"kafka.brokers":              []string{},
	"kafka.topic":                "affiliate.events",
	"audit.path":                 "",
	"events.path":                "",
	"log.development":            false,
}

// Load reads .env (if present), the settings file named by
// AFFILIATE_SETTINGS_FILE (if set) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	return LoadFile(os.Getenv(SettingsFileEnv))
}

// LoadFile is Load without .env handling; path may be empty.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	amounts := []struct {
		key string
		dst *decimal.Decimal
	}{
		{"activation.fee", &cfg.Activation.Fee},
		{"referral.reward", &cfg.Referral.Reward},
		{"withdrawal.min", &cfg.Withdrawal.Min},
		{"withdrawal.max", &cfg.Withdrawal.Max},
		{"withdrawal.fee_percent", &cfg.Withdrawal.FeePercent},
	}
	for _, a := range amounts {
		d, err := decimal.NewFromString(v.GetString(a.key))
		if err != nil {
			return nil, errors.Join(ErrInvalidConfig, fmt.Errorf("%s: %w", a.key, err))
		}
		*a.dst = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var problems []error
	if c.Gateway.Mode != GatewaySandbox && c.Gateway.Mode != GatewayPaystack {
		problems = append(problems, fmt.Errorf("gateway.mode %q", c.Gateway.Mode))
	}
	if c.Gateway.Mode == GatewayPaystack && c.Paystack.SecretKey == "" {
		problems = append(problems, errors.New("paystack.secret_key is required"))
	}
	if c.Payment.ReferenceLength <= 0 || c.Payment.ReferenceAttempts <= 0 {
		problems = append(problems, errors.New("payment reference settings must be positive"))
	}
	if c.Reconciliation.Interval <= 0 || c.Payment.CheckWindow <= 0 {
		problems = append(problems, errors.New("reconciliation.interval and payment.check_window must be positive"))
	}
	if !c.Activation.Fee.IsPositive() {
		problems = append(problems, errors.New("activation.fee must be positive"))
	}
	if c.Referral.Reward.IsNegative() {
		problems = append(problems, errors.New("referral.reward must not be negative"))
	}
	if c.Withdrawal.Min.GreaterThan(c.Withdrawal.Max) {
		problems = append(problems, errors.New("withdrawal.min exceeds withdrawal.max"))
	}
	if c.Withdrawal.FeePercent.IsNegative() || c.Withdrawal.FeePercent.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		problems = append(problems, errors.New("withdrawal.fee_percent must be in [0, 100)"))
	}
	if len(problems) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrInvalidConfig}, problems...)...)
}
