package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	pkgconfig "github.com/seansyed/parafort-sub010/pkg/config"
	"github.com/seansyed/parafort-sub010/pkg/database"
	"github.com/seansyed/parafort-sub010/pkg/tracing"
)

// Config holds all configuration for the ParaFort API.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"parafort"`
	Version     string `env:"SERVICE_VERSION" envDefault:"0.1.0"`

	// HTTP server
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8080"`
	RequestTimeout  time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"15s"`
	CORSOrigins     []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`
	PprofCIDRs      []string      `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.0/8,::1/128" envSeparator:","`
	TrustProxy      bool          `env:"TRUST_PROXY" envDefault:"false"`

	// PostgreSQL
	PostgresHost     string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int           `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string        `env:"POSTGRES_USER" envDefault:"parafort"`
	PostgresPassword string        `env:"POSTGRES_PASSWORD" envDefault:"parafort_secret"`
	PostgresDB       string        `env:"POSTGRES_DB" envDefault:"parafort"`
	PostgresSSLMode  string        `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	PostgresMaxConns int32         `env:"POSTGRES_MAX_CONNS" envDefault:"20"`
	SlowQuery        time.Duration `env:"POSTGRES_SLOW_QUERY" envDefault:"250ms"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers       []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaConsumerGroup string   `env:"KAFKA_CONSUMER_GROUP" envDefault:"parafort-notifications"`
	ConsumersEnabled   bool     `env:"KAFKA_CONSUMERS_ENABLED" envDefault:"true"`

	// Auth
	JWTSecret      string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me-dev-secret-change-me"`
	JWTIssuer      string        `env:"JWT_ISSUER" envDefault:"parafort"`
	AccessTokenTTL time.Duration `env:"JWT_ACCESS_TTL" envDefault:"24h"`
	BcryptCost     int           `env:"BCRYPT_COST" envDefault:"12"`
	AuthRatePerMin int           `env:"AUTH_RATE_PER_MINUTE" envDefault:"20"`

	// Checkout
	CheckoutSessionTTL time.Duration `env:"CHECKOUT_SESSION_TTL" envDefault:"2h"`
	CodeTTL            time.Duration `env:"VERIFICATION_CODE_TTL" envDefault:"10m"`
	CodeMaxAttempts    int           `env:"VERIFICATION_MAX_ATTEMPTS" envDefault:"5"`
	ResendCooldown     time.Duration `env:"VERIFICATION_RESEND_COOLDOWN" envDefault:"60s"`
	VerifiedTTL        time.Duration `env:"VERIFIED_EMAIL_TTL" envDefault:"2h"`
	CatalogCacheTTL    time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"5m"`
	ExpediteFeeCents   int64         `env:"DEFAULT_EXPEDITE_FEE_CENTS" envDefault:"7500"`
	Currency           string        `env:"CURRENCY" envDefault:"usd"`

	// Payments
	PaymentProvider      string        `env:"PAYMENT_PROVIDER" envDefault:"stripe"`
	StripeSecretKey      string        `env:"STRIPE_SECRET_KEY"`
	StripePublishableKey string        `env:"STRIPE_PUBLISHABLE_KEY"`
	StripeWebhookSecret  string        `env:"STRIPE_WEBHOOK_SECRET"`
	StripeBaseURL        string        `env:"STRIPE_API_BASE" envDefault:"https://api.stripe.com"`
	StripeTimeout        time.Duration `env:"STRIPE_TIMEOUT" envDefault:"20s"`

	// Email
	EmailSender  string `env:"EMAIL_SENDER" envDefault:"log"`
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM" envDefault:"ParaFort <no-reply@parafort.com>"`

	// Cookies
	CookieSecret string `env:"COOKIE_SECRET" envDefault:"dev-cookie-secret-change-me-32b!"`
	CookieSecure bool   `env:"COOKIE_SECURE" envDefault:"false"`

	// Tracing
	TracingEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	TracingEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TracingSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from the environment, after an optional .env file.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load parafort config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func (c *Config) validate() error {
	var errs []error
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP port: %d", c.HTTPPort))
	}
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 bytes in production"))
	}
	if len(c.CookieSecret) < 32 {
		errs = append(errs, errors.New("COOKIE_SECRET must be at least 32 bytes"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("invalid BCRYPT_COST: %d", c.BcryptCost))
	}
	if c.CodeMaxAttempts < 1 {
		errs = append(errs, errors.New("VERIFICATION_MAX_ATTEMPTS must be positive"))
	}
	if c.VerifiedTTL < c.CheckoutSessionTTL {
		errs = append(errs, errors.New("VERIFIED_EMAIL_TTL must not be shorter than CHECKOUT_SESSION_TTL"))
	}
	if c.ExpediteFeeCents < 0 {
		errs = append(errs, errors.New("DEFAULT_EXPEDITE_FEE_CENTS must not be negative"))
	}

	switch c.PaymentProvider {
	case "stripe":
		// Keys may be absent at boot; the provider reports not-ready lazily.
		if c.StripeSecretKey != "" && !strings.HasPrefix(c.StripeSecretKey, "sk_") && !strings.HasPrefix(c.StripeSecretKey, "rk_") {
			errs = append(errs, errors.New("STRIPE_SECRET_KEY must start with sk_ or rk_"))
		}
		if c.StripePublishableKey != "" && !strings.HasPrefix(c.StripePublishableKey, "pk_") {
			errs = append(errs, errors.New("STRIPE_PUBLISHABLE_KEY must start with pk_"))
		}
	case "mock":
		if c.IsProduction() {
			errs = append(errs, errors.New("PAYMENT_PROVIDER=mock is not allowed in production"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown PAYMENT_PROVIDER %q", c.PaymentProvider))
	}

	switch c.EmailSender {
	case "smtp":
		if c.SMTPHost == "" {
			errs = append(errs, errors.New("SMTP_HOST is required when EMAIL_SENDER=smtp"))
		}
	case "log":
	default:
		errs = append(errs, fmt.Errorf("unknown EMAIL_SENDER %q", c.EmailSender))
	}

	return errors.Join(errs...)
}

// Postgres returns the pool settings.
func (c *Config) Postgres() *database.PostgresConfig {
	return &database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPassword,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSLMode,
		MaxConns:        c.PostgresMaxConns,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

// Redis returns the Redis settings.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
		PoolSize: 20,
	}
}

// Tracing returns the tracer settings.
func (c *Config) Tracing() tracing.Config {
	return tracing.Config{
		ServiceName:    c.ServiceName,
		ServiceVersion: c.Version,
		Environment:    c.Environment,
		OTLPEndpoint:   c.TracingEndpoint,
		SampleRate:     c.TracingSampleRate,
		Enabled:        c.TracingEnabled,
	}
}
