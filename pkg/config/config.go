package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Billing      BillingConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"OFD_APP_ENV" required:"true"`
	Port         string `envconfig:"OFD_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"OFD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"OFD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"OFD_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"OFD_DB_DSN"`
	Driver string `envconfig:"OFD_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"OFD_DB_HOST"`
	LegacyPort     int    `envconfig:"OFD_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"OFD_DB_USER"`
	LegacyPassword string `envconfig:"OFD_DB_PASSWORD"`
	LegacyName     string `envconfig:"OFD_DB_NAME"`
	LegacySSLMode  string `envconfig:"OFD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"OFD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"OFD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"OFD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"OFD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"OFD_REDIS_URL" required:"true"`
	Address      string        `envconfig:"OFD_REDIS_ADDR"`
	Password     string        `envconfig:"OFD_REDIS_PASSWORD"`
	DB           int           `envconfig:"OFD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"OFD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"OFD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"OFD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"OFD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"OFD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"OFD_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"OFD_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"OFD_JWT_EXPIRATION_MINUTES" default:"60"`
}

// AccessTokenTTL returns the access token lifetime configured in minutes.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type BillingConfig struct {
	DefaultTaxRate   float64       `envconfig:"OFD_BILLING_DEFAULT_TAX_RATE" default:"0.18"`
	InvoiceDueDays   int           `envconfig:"OFD_BILLING_INVOICE_DUE_DAYS" default:"7"`
	TopupBonusFloor  float64       `envconfig:"OFD_BILLING_TOPUP_BONUS_FLOOR" default:"1000"`
	TopupBonusRate   float64       `envconfig:"OFD_BILLING_TOPUP_BONUS_RATE" default:"0.05"`
	IdempotencyTTL   time.Duration `envconfig:"OFD_BILLING_IDEMPOTENCY_TTL" default:"24h"`
	RequestTimeout   time.Duration `envconfig:"OFD_BILLING_REQUEST_TIMEOUT" default:"30s"`
	ShutdownTimeout  time.Duration `envconfig:"OFD_BILLING_SHUTDOWN_TIMEOUT" default:"15s"`
}

type CronConfig struct {
	TickInterval time.Duration `envconfig:"OFD_CRON_TICK_INTERVAL" default:"1m"`
	LockTTL      time.Duration `envconfig:"OFD_CRON_LOCK_TTL" default:"5m"`
	RenewalBatch int           `envconfig:"OFD_CRON_RENEWAL_BATCH" default:"100"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"OFD_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"OFD_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
