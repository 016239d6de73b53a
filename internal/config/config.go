package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is built once at start and passed to every constructor.
type Config struct {
	Env           string `mapstructure:"APP_ENV"`
	HTTPPort      string `mapstructure:"HTTP_PORT"`
	GRPCPort      string `mapstructure:"GRPC_PORT"`
	StorageDriver string `mapstructure:"STORAGE_DRIVER"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisUser     string `mapstructure:"REDIS_USER"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`

	RabbitURL     string `mapstructure:"RABBIT_URL"`
	NotifyWorkers int    `mapstructure:"NOTIFY_WORKERS"`

	KafkaBrokers      string `mapstructure:"KAFKA_BROKERS"`
	KafkaBookingTopic string `mapstructure:"KAFKA_BOOKING_TOPIC"`

	JWTSecret     string  `mapstructure:"JWT_SECRET"`
	AdminScanRate float64 `mapstructure:"ADMIN_SCAN_RATE"`

	QRTokenPepper       string `mapstructure:"QR_TOKEN_PEPPER"`
	LoyaltyTarget       int    `mapstructure:"LOYALTY_TARGET"`
	LoyaltyQRTTLSeconds int    `mapstructure:"LOYALTY_QR_TTL_SECONDS"`
	EarnQRTTLSeconds    int    `mapstructure:"LOYALTY_EARN_QR_TTL_SECONDS"`
	VoucherQRTTLHours   int    `mapstructure:"LOYALTY_VOUCHER_QR_TTL_HOURS"`
	NearRewardThreshold int    `mapstructure:"LOYALTY_NEAR_REWARD_THRESHOLD"`

	CancelCutoffMinutes int  `mapstructure:"BOOKING_CANCEL_CUTOFF_MINUTES"`
	EnableLocalCancel   bool `mapstructure:"ENABLE_LOCAL_CANCEL"`

	TimifyBaseURL    string        `mapstructure:"TIMIFY_BASE_URL"`
	TimifyTimeout    time.Duration `mapstructure:"TIMIFY_TIMEOUT"`
	TimifyMaxRetries int           `mapstructure:"TIMIFY_MAX_RETRIES"`
	TimifyBackoff    time.Duration `mapstructure:"TIMIFY_BACKOFF"`
	TimifyRegion     string        `mapstructure:"TIMIFY_REGION"`

	PushURL    string `mapstructure:"PUSH_URL"`
	PushAPIKey string `mapstructure:"PUSH_API_KEY"`

	OTelEndpoint          string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	CleanupRetentionHours int    `mapstructure:"CLEANUP_RETENTION_HOURS"`
}

var defaults = map[string]any{
	"APP_ENV":                       "development",
	"HTTP_PORT":                     "8080",
	"GRPC_PORT":                     "9090",
	"STORAGE_DRIVER":                "postgres",
	"DATABASE_URL":                  "",
	"REDIS_ADDR":                    "",
	"REDIS_USER":                    "",
	"REDIS_PASSWORD":                "",
	"MONGO_URI":                     "",
	"MONGO_DATABASE":                "barbershop",
	"RABBIT_URL":                    "",
	"NOTIFY_WORKERS":                5,
	"KAFKA_BROKERS":                 "",
	"KAFKA_BOOKING_TOPIC":           "bookings",
	"JWT_SECRET":                    "",
	"ADMIN_SCAN_RATE":               5.0,
	"QR_TOKEN_PEPPER":               "",
	"LOYALTY_TARGET":                10,
	"LOYALTY_QR_TTL_SECONDS":        300,
	"LOYALTY_EARN_QR_TTL_SECONDS":   300,
	"LOYALTY_VOUCHER_QR_TTL_HOURS":  720,
	"LOYALTY_NEAR_REWARD_THRESHOLD": 20,
	"BOOKING_CANCEL_CUTOFF_MINUTES": 60,
	"ENABLE_LOCAL_CANCEL":           false,
	"TIMIFY_BASE_URL":               "https://api.timify.com/v1",
	"TIMIFY_TIMEOUT":                "10s",
	"TIMIFY_MAX_RETRIES":            2,
	"TIMIFY_BACKOFF":                "1s",
	"TIMIFY_REGION":                 "EUROPE",
	"PUSH_URL":                      "",
	"PUSH_API_KEY":                  "",
	"OTEL_EXPORTER_OTLP_ENDPOINT":   "",
	"CLEANUP_RETENTION_HOURS":       168,
}

// Load reads the environment, and .env style file when CONFIG_FILE is set.
func Load() (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Env == "test" {
		cfg.TimifyMaxRetries = 0
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values the services can not run without.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("env JWT_SECRET is not set")
	}
	if c.QRTokenPepper == "" {
		return fmt.Errorf("env QR_TOKEN_PEPPER is not set")
	}
	if c.StorageDriver != "postgres" && c.StorageDriver != "memory" {
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.StorageDriver == "postgres" && c.DatabaseURL == "" {
		return fmt.Errorf("env DATABASE_URL is not set")
	}
	if c.LoyaltyTarget <= 0 {
		return fmt.Errorf("LOYALTY_TARGET must be positive")
	}
	if c.TimifyMaxRetries < 0 {
		return fmt.Errorf("TIMIFY_MAX_RETRIES must not be negative")
	}
	return nil
}

func (c *Config) Production() bool {
	return c.Env == "production"
}

func (c *Config) LoyaltyQRTTL() time.Duration {
	return time.Duration(c.LoyaltyQRTTLSeconds) * time.Second
}

func (c *Config) EarnQRTTL() time.Duration {
	return time.Duration(c.EarnQRTTLSeconds) * time.Second
}

func (c *Config) VoucherQRTTL() time.Duration {
	return time.Duration(c.VoucherQRTTLHours) * time.Hour
}

func (c *Config) CancelCutoff() time.Duration {
	return time.Duration(c.CancelCutoffMinutes) * time.Minute
}

func (c *Config) CleanupRetention() time.Duration {
	return time.Duration(c.CleanupRetentionHours) * time.Hour
}

func (c *Config) Brokers() []string {
	if c.KafkaBrokers == "" {
		return nil
	}
	return strings.Split(c.KafkaBrokers, ",")
}
