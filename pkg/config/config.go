package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "SHOPMANDI"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "SHOPMANDI_DB_DSN"
	EnvDBHost = "SHOPMANDI_DB_HOST"
	EnvDBUser = "SHOPMANDI_DB_USER"
	EnvDBName = "SHOPMANDI_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Uploads       UploadsConfig
	GCP           GCPConfig
	GCS           GCSConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
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
	Env          string `envconfig:"SHOPMANDI_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPMANDI_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHOPMANDI_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPMANDI_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SHOPMANDI_DB_DSN"`
	Driver string `envconfig:"SHOPMANDI_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SHOPMANDI_DB_HOST"`
	LegacyPort     int    `envconfig:"SHOPMANDI_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHOPMANDI_DB_USER"`
	LegacyPassword string `envconfig:"SHOPMANDI_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHOPMANDI_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHOPMANDI_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOPMANDI_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOPMANDI_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPMANDI_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPMANDI_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOPMANDI_REDIS_URL"`
	Address      string        `envconfig:"SHOPMANDI_REDIS_ADDR"`
	Password     string        `envconfig:"SHOPMANDI_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPMANDI_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPMANDI_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPMANDI_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPMANDI_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPMANDI_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPMANDI_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SHOPMANDI_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SHOPMANDI_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SHOPMANDI_JWT_EXPIRATION_MINUTES" default:"1440"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SHOPMANDI_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SHOPMANDI_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SHOPMANDI_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SHOPMANDI_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SHOPMANDI_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"SHOPMANDI_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"SHOPMANDI_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"SHOPMANDI_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"SHOPMANDI_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"SHOPMANDI_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"SHOPMANDI_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SHOPMANDI_AUTO_MIGRATE" default:"false"`
}

// UploadsConfig controls product image handling. When the remote host is not
// configured or fails, uploads fall back to LocalDir and are served under
// PublicPath.
type UploadsConfig struct {
	LocalDir    string `envconfig:"SHOPMANDI_UPLOADS_LOCAL_DIR" default:"uploads"`
	PublicPath  string `envconfig:"SHOPMANDI_UPLOADS_PUBLIC_PATH" default:"/uploads"`
	MaxUploadMB int    `envconfig:"SHOPMANDI_MAX_UPLOAD_MB" default:"10"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SHOPMANDI_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"SHOPMANDI_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SHOPMANDI_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"SHOPMANDI_GCS_BUCKET_NAME"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"SHOPMANDI_PUBSUB_ORDERS_TOPIC" default:"sm-order-events"`
	OrdersSubscription string `envconfig:"SHOPMANDI_PUBSUB_ORDERS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SHOPMANDI_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SHOPMANDI_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SHOPMANDI_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
