package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Gemini   GeminiConfig
	R2       R2Config
	Workflow WorkflowConfig
	Sentry   SentryConfig
}

type ServerConfig struct {
	Port string
	Env  string
	// StorageBackend is either "postgres" or "redis".
	StorageBackend string
	// DispatchMode is either "asynq" or "inline".
	DispatchMode string
	RateLimit    float64
	BodyLimit    string
	// WorkerMetricsAddr is where cmd/worker serves /metrics.
	WorkerMetricsAddr string
	// MaxImageBytes caps images downloaded from remote refs.
	MaxImageBytes int64
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// BrokerAddr is the asynq broker, usually the same redis.
	BrokerAddr string
}

type JWTConfig struct {
	Secret     string
	Expiry     time.Duration
	BcryptCost int
}

type GeminiConfig struct {
	APIKey              string
	ClassificationModel string
	RecommendationModel string
	VisualizationModel  string
	ImageMaxSide        int
}

type R2Config struct {
	Enabled         bool
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	BucketName      string
	URLTTL          time.Duration
}

type WorkflowConfig struct {
	StaleAfter time.Duration
}

type SentryConfig struct {
	DSN     string
	Release string
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8083")
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("STORAGE_BACKEND", "postgres")
	v.SetDefault("DISPATCH_MODE", "asynq")
	v.SetDefault("RATE_LIMIT", 10)
	v.SetDefault("BODY_LIMIT", "12M")
	v.SetDefault("WORKER_METRICS_ADDR", ":9091")
	v.SetDefault("MAX_IMAGE_BYTES", 10<<20)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_EXPIRY", "72h")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("GEMINI_CLASSIFICATION_MODEL", "gemini-2.5-flash")
	v.SetDefault("GEMINI_RECOMMENDATION_MODEL", "gemini-2.5-flash")
	v.SetDefault("GEMINI_VISUALIZATION_MODEL", "gemini-2.5-flash-image")
	v.SetDefault("LLM_IMAGE_MAX_SIDE", 1024)
	v.SetDefault("R2_ENABLED", false)
	v.SetDefault("R2_URL_TTL", "15m")
	v.SetDefault("WORKFLOW_STALE_AFTER", "10m")
	v.SetDefault("SENTRY_RELEASE", "wardrobeapi@1.0.0")
}

// Load reads configuration from the environment and an optional .env file
// in the working directory.
func Load() *Config {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) *Config {
	brokerAddr := v.GetString("ASYNC_BROKER_ADDRESS")
	if brokerAddr == "" {
		brokerAddr = v.GetString("REDIS_ADDR")
	}
	return &Config{
		Server: ServerConfig{
			Port:              v.GetString("SERVER_PORT"),
			Env:               v.GetString("SERVER_ENV"),
			StorageBackend:    v.GetString("STORAGE_BACKEND"),
			DispatchMode:      v.GetString("DISPATCH_MODE"),
			RateLimit:         v.GetFloat64("RATE_LIMIT"),
			BodyLimit:         v.GetString("BODY_LIMIT"),
			WorkerMetricsAddr: v.GetString("WORKER_METRICS_ADDR"),
			MaxImageBytes:     v.GetInt64("MAX_IMAGE_BYTES"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USERNAME"),
			Password: v.GetString("DB_PASSWORD"),
			Database: v.GetString("DB_NAME"),
		},
		Redis: RedisConfig{
			Addr:       v.GetString("REDIS_ADDR"),
			Password:   v.GetString("REDIS_PASSWORD"),
			DB:         v.GetInt("REDIS_DB"),
			BrokerAddr: brokerAddr,
		},
		JWT: JWTConfig{
			Secret:     v.GetString("JWT_SECRET"),
			Expiry:     v.GetDuration("JWT_EXPIRY"),
			BcryptCost: v.GetInt("BCRYPT_COST"),
		},
		Gemini: GeminiConfig{
			APIKey:              v.GetString("GOOGLE_API_KEY"),
			ClassificationModel: v.GetString("GEMINI_CLASSIFICATION_MODEL"),
			RecommendationModel: v.GetString("GEMINI_RECOMMENDATION_MODEL"),
			VisualizationModel:  v.GetString("GEMINI_VISUALIZATION_MODEL"),
			ImageMaxSide:        v.GetInt("LLM_IMAGE_MAX_SIDE"),
		},
		R2: R2Config{
			Enabled:         v.GetBool("R2_ENABLED"),
			AccountID:       v.GetString("R2_ACCOUNT_ID"),
			AccessKeyID:     v.GetString("R2_ACCESS_KEY_ID"),
			AccessKeySecret: v.GetString("R2_ACCESS_KEY_SECRET"),
			BucketName:      v.GetString("R2_BUCKET_NAME"),
			URLTTL:          v.GetDuration("R2_URL_TTL"),
		},
		Workflow: WorkflowConfig{
			StaleAfter: v.GetDuration("WORKFLOW_STALE_AFTER"),
		},
		Sentry: SentryConfig{
			DSN:     v.GetString("SENTRY_DSN"),
			Release: v.GetString("SENTRY_RELEASE"),
		},
	}
}
