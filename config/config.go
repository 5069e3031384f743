package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

type Config struct {
	HTTPPort        string        `envconfig:"HTTP_PORT"        default:":8080"`
	GrpcPort        string        `envconfig:"GRPC_PORT"        default:":50051"` // health service
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	LogLevel  string `envconfig:"LOG_LEVEL"  default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	Database DatabaseConfig
	Auth     AuthConfig
	Images   ImageConfig
	Redis    RedisConfig
	Kafka    KafkaConfig

	StoreName          string   `envconfig:"STORE_NAME" default:"Storefront"`
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`
	RateLimitPerMinute int      `envconfig:"RATE_LIMIT_PER_MINUTE" default:"20"`
}

type DatabaseConfig struct {
	URL          string `envconfig:"DATABASE_URL"      required:"true"`
	AutoMigrate  bool   `envconfig:"DB_AUTO_MIGRATE"   default:"true"`
	MaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
}

type AuthConfig struct {
	JWTSecret     string        `envconfig:"JWT_SECRET"     required:"true"`
	TokenTTL      time.Duration `envconfig:"JWT_TTL"        default:"24h"`
	AdminEmail    string        `envconfig:"ADMIN_EMAIL"`
	AdminPassword string        `envconfig:"ADMIN_PASSWORD"`
}

type ImageConfig struct {
	Store         string `envconfig:"IMAGE_STORE"         default:"local"`
	UploadDir     string `envconfig:"UPLOAD_DIR"          default:"./uploads"`
	PublicBaseURL string `envconfig:"PUBLIC_BASE_URL"     default:"http://localhost:8080"`
	MaxBytes      int64  `envconfig:"IMAGE_MAX_BYTES"     default:"5242880"`
	MaxDimension  int    `envconfig:"IMAGE_MAX_DIMENSION" default:"1000"`

	CloudinaryCloudName string `envconfig:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `envconfig:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `envconfig:"CLOUDINARY_API_SECRET"`
}

type RedisConfig struct {
	Addr     string        `envconfig:"REDIS_ADDR"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTL time.Duration `envconfig:"CACHE_TTL" default:"5m"`
}

type KafkaConfig struct {
	Brokers    []string `envconfig:"KAFKA_BROKERS"`
	OrderTopic string   `envconfig:"KAFKA_ORDER_TOPIC" default:"order-events"`
}

// Load reads .env (if present) and the process environment into a Config.
func Load(logger *logrus.Logger) (*Config, error) {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		logger.Warnf("Error loading .env file (but continuing): %v", err)
	} else if err == nil {
		logger.Info("Loaded configuration from .env file")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration from environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"http_port":   cfg.HTTPPort,
		"grpc_port":   cfg.GrpcPort,
		"log_level":   cfg.LogLevel,
		"image_store": cfg.Images.Store,
		"redis":       cfg.Redis.Enabled(),
		"kafka":       cfg.Kafka.Enabled(),
	}).Info("Configuration loaded")
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Images.Store) {
	case "local":
	case "cloudinary":
		if c.Images.CloudinaryCloudName == "" || c.Images.CloudinaryAPIKey == "" || c.Images.CloudinaryAPISecret == "" {
			return fmt.Errorf("configuration error: IMAGE_STORE=cloudinary requires CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET")
		}
	default:
		return fmt.Errorf("configuration error: unknown IMAGE_STORE %q", c.Images.Store)
	}
	if c.Images.MaxBytes <= 0 {
		return fmt.Errorf("configuration error: IMAGE_MAX_BYTES must be positive")
	}
	if (c.Auth.AdminEmail == "") != (c.Auth.AdminPassword == "") {
		return fmt.Errorf("configuration error: ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return nil
}

func (r RedisConfig) Enabled() bool { return r.Addr != "" }

func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }
