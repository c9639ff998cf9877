package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "POIQUEST"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "POIQUEST_DB_DSN"
	EnvDBHost = "POIQUEST_DB_HOST"
	EnvDBUser = "POIQUEST_DB_USER"
	EnvDBName = "POIQUEST_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Storage       StorageConfig
	Cron          CronConfig
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
	Env          string   `envconfig:"POIQUEST_APP_ENV" required:"true"`
	Port         string   `envconfig:"POIQUEST_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"POIQUEST_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"POIQUEST_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"POIQUEST_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"POIQUEST_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"POIQUEST_DB_DSN"`
	Driver string `envconfig:"POIQUEST_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"POIQUEST_DB_HOST"`
	LegacyPort     int    `envconfig:"POIQUEST_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"POIQUEST_DB_USER"`
	LegacyPassword string `envconfig:"POIQUEST_DB_PASSWORD"`
	LegacyName     string `envconfig:"POIQUEST_DB_NAME"`
	LegacySSLMode  string `envconfig:"POIQUEST_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"POIQUEST_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"POIQUEST_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"POIQUEST_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"POIQUEST_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"POIQUEST_REDIS_URL" required:"true"`
	Address      string        `envconfig:"POIQUEST_REDIS_ADDR"`
	Password     string        `envconfig:"POIQUEST_REDIS_PASSWORD"`
	DB           int           `envconfig:"POIQUEST_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"POIQUEST_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"POIQUEST_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"POIQUEST_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"POIQUEST_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"POIQUEST_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig carries two independent secret/TTL pairs. None of the four have
// defaults: a deployment that forgets one must fail at boot, not fall back to
// a guessable key.
type JWTConfig struct {
	Issuer            string `envconfig:"POIQUEST_JWT_ISSUER" required:"true"`
	AccessSecret      string `envconfig:"POIQUEST_JWT_ACCESS_SECRET" required:"true"`
	AccessTTLMinutes  int    `envconfig:"POIQUEST_JWT_ACCESS_TTL_MINUTES" required:"true"`
	RefreshSecret     string `envconfig:"POIQUEST_JWT_REFRESH_SECRET" required:"true"`
	RefreshTTLMinutes int    `envconfig:"POIQUEST_JWT_REFRESH_TTL_MINUTES" required:"true"`
}

// AccessTTL returns the access token TTL configured in minutes.
func (j JWTConfig) AccessTTL() time.Duration {
	if j.AccessTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.AccessTTLMinutes) * time.Minute
}

// RefreshTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTTL() time.Duration {
	if j.RefreshTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"POIQUEST_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"POIQUEST_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"POIQUEST_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"POIQUEST_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"POIQUEST_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"POIQUEST_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"POIQUEST_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"POIQUEST_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"POIQUEST_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"POIQUEST_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"POIQUEST_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"POIQUEST_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"POIQUEST_AUTO_MIGRATE" default:"false"`
}

type StorageConfig struct {
	Endpoint          string        `envconfig:"POIQUEST_STORAGE_ENDPOINT" required:"true"`
	AccessKey         string        `envconfig:"POIQUEST_STORAGE_ACCESS_KEY" required:"true"`
	SecretKey         string        `envconfig:"POIQUEST_STORAGE_SECRET_KEY" required:"true"`
	UseSSL            bool          `envconfig:"POIQUEST_STORAGE_USE_SSL" default:"false"`
	Region            string        `envconfig:"POIQUEST_STORAGE_REGION"`
	ImagesBucket      string        `envconfig:"POIQUEST_STORAGE_IMAGES_BUCKET" default:"images"`
	ModelsBucket      string        `envconfig:"POIQUEST_STORAGE_MODELS_BUCKET" default:"models"`
	UploadURLExpiry   time.Duration `envconfig:"POIQUEST_STORAGE_UPLOAD_URL_EXPIRY" default:"1h"`
	DownloadURLExpiry time.Duration `envconfig:"POIQUEST_STORAGE_DOWNLOAD_URL_EXPIRY" default:"24h"`
}

// Buckets returns the bucket names clients are allowed to target.
func (s StorageConfig) Buckets() []string {
	return []string{s.ImagesBucket, s.ModelsBucket}
}

type CronConfig struct {
	TickInterval       time.Duration `envconfig:"POIQUEST_CRON_TICK_INTERVAL" default:"1m"`
	LockTTL            time.Duration `envconfig:"POIQUEST_CRON_LOCK_TTL" default:"5m"`
	MetricsPort        string        `envconfig:"POIQUEST_CRON_METRICS_PORT" default:"9091"`
	ImageRetention     time.Duration `envconfig:"POIQUEST_CRON_IMAGE_RETENTION" default:"720h"`
	BlacklistBatchSize int           `envconfig:"POIQUEST_CRON_BLACKLIST_BATCH_SIZE" default:"1000"`
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
