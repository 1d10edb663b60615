package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Password  PasswordConfig
	RateLimit RateLimitConfig
	Features  FeatureFlagsConfig
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
	Env          string `envconfig:"LITTLELEMON_APP_ENV" required:"true"`
	Port         string `envconfig:"LITTLELEMON_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LITTLELEMON_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LITTLELEMON_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"LITTLELEMON_DB_DSN"`

	Host     string `envconfig:"LITTLELEMON_DB_HOST"`
	Port     int    `envconfig:"LITTLELEMON_DB_PORT" default:"5432"`
	User     string `envconfig:"LITTLELEMON_DB_USER"`
	Password string `envconfig:"LITTLELEMON_DB_PASSWORD"`
	Name     string `envconfig:"LITTLELEMON_DB_NAME"`
	SSLMode  string `envconfig:"LITTLELEMON_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LITTLELEMON_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LITTLELEMON_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LITTLELEMON_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LITTLELEMON_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LITTLELEMON_REDIS_URL"`
	Address      string        `envconfig:"LITTLELEMON_REDIS_ADDR"`
	Password     string        `envconfig:"LITTLELEMON_REDIS_PASSWORD"`
	DB           int           `envconfig:"LITTLELEMON_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LITTLELEMON_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LITTLELEMON_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LITTLELEMON_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LITTLELEMON_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LITTLELEMON_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"LITTLELEMON_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"LITTLELEMON_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"LITTLELEMON_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"LITTLELEMON_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"LITTLELEMON_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"LITTLELEMON_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"LITTLELEMON_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"LITTLELEMON_ARGON_KEY_LEN" default:"32"`
}

// RateLimitConfig throttles the public menu listing surface.
type RateLimitConfig struct {
	MenuWindow    time.Duration `envconfig:"LITTLELEMON_RATE_LIMIT_MENU_WINDOW" default:"1m"`
	MenuUserLimit int           `envconfig:"LITTLELEMON_RATE_LIMIT_MENU_USER_LIMIT" default:"60"`
	MenuAnonLimit int           `envconfig:"LITTLELEMON_RATE_LIMIT_MENU_ANON_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LITTLELEMON_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
