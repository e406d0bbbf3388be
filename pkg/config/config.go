package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/anonto42/circle/backend/pkg/logger"
)

type Config struct {
	Port string
	Env  string

	DBDriver    string
	PostgresURL string
	SQLitePath  string
	MongoURI    string
	MongoDB     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret               string
	FirebaseCredentialsPath string

	S3 S3Config

	FeedCacheTTL       time.Duration
	TrendingCacheTTL   time.Duration
	TrendingCandidates int

	AuthRateLimit  int
	AuthRateWindow time.Duration

	LogLevel  string
	LogPretty bool
}

// S3Config describes the bucket used for media uploads. An empty bucket
// disables presigned uploads.
type S3Config struct {
	Region          string
	Bucket          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string
	UsePathStyle    bool
}

// Load reads the optional .env file, then resolves every key from the
// environment with defaults suitable for local development.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logger.L().Info().Msg("no .env file found, using environment")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("port", "8080")
	v.SetDefault("env", "development")
	v.SetDefault("db_driver", "postgres")
	v.SetDefault("postgres_conn_str", "host=localhost port=5432 user=postgres password=postgres dbname=circle sslmode=disable")
	v.SetDefault("sqlite_path", "circle.db")
	v.SetDefault("mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("mongo_db", "circle")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("jwt_secret", "supersecretjwtkey")
	v.SetDefault("firebase_credentials_path", "")
	v.SetDefault("s3_region", "us-east-2")
	v.SetDefault("s3_use_path_style", false)
	v.SetDefault("feed_cache_ttl", "5m")
	v.SetDefault("trending_cache_ttl", "60s")
	v.SetDefault("trending_candidates", 50)
	v.SetDefault("auth_rate_limit", 10)
	v.SetDefault("auth_rate_window", "1m")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)

	return &Config{
		Port:                    v.GetString("port"),
		Env:                     v.GetString("env"),
		DBDriver:                v.GetString("db_driver"),
		PostgresURL:             v.GetString("postgres_conn_str"),
		SQLitePath:              v.GetString("sqlite_path"),
		MongoURI:                v.GetString("mongo_uri"),
		MongoDB:                 v.GetString("mongo_db"),
		RedisAddr:               v.GetString("redis_addr"),
		RedisPassword:           v.GetString("redis_password"),
		RedisDB:                 v.GetInt("redis_db"),
		JWTSecret:               v.GetString("jwt_secret"),
		FirebaseCredentialsPath: v.GetString("firebase_credentials_path"),
		S3: S3Config{
			Region:          v.GetString("s3_region"),
			Bucket:          v.GetString("s3_bucket_name"),
			Endpoint:        v.GetString("s3_endpoint"),
			AccessKeyID:     v.GetString("aws_access_key_id"),
			SecretAccessKey: v.GetString("aws_secret_access_key"),
			PublicURL:       v.GetString("cloudfront_url"),
			UsePathStyle:    v.GetBool("s3_use_path_style"),
		},
		FeedCacheTTL:       v.GetDuration("feed_cache_ttl"),
		TrendingCacheTTL:   v.GetDuration("trending_cache_ttl"),
		TrendingCandidates: v.GetInt("trending_candidates"),
		AuthRateLimit:      v.GetInt("auth_rate_limit"),
		AuthRateWindow:     v.GetDuration("auth_rate_window"),
		LogLevel:           v.GetString("log_level"),
		LogPretty:          v.GetBool("log_pretty"),
	}
}
