package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	HTTPPort           string        `yaml:"http_port"`
	MongoURI           string        `yaml:"mongo_uri"`
	MongoDBName        string        `yaml:"mongo_db"`
	RedisAddr          string        `yaml:"redis_addr"`
	RedisPassword      string        `yaml:"redis_password"`
	KafkaBrokers       []string      `yaml:"kafka_brokers"`
	KafkaTopic         string        `yaml:"kafka_topic"`
	UploadsDir         string        `yaml:"uploads_dir"`
	MaxUploadBytes     int64         `yaml:"max_upload_bytes"`
	CloudinaryURL      string        `yaml:"cloudinary_url"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
	MaxRequestBodySize int64         `yaml:"max_request_body_size"`
	LogLevel           string        `yaml:"log_level"`
	OTelExporter       string        `yaml:"otel_exporter"`
	ServiceName        string        `yaml:"service_name"`

	Merchants Merchants `yaml:"merchants"`
	SMTP      SMTP      `yaml:"smtp"`
}

// Merchants holds the mobile-money numbers customers pay into.
type Merchants struct {
	MTN      string `yaml:"mtn"`
	Airtel   string `yaml:"airtel"`
	WhatsApp string `yaml:"whatsapp"`
}

type SMTP struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	ShopMail string `yaml:"shop_mail"`
}

func defaults() *Config {
	return &Config{
		HTTPPort:           "5000",
		MongoURI:           "mongodb://localhost:27017",
		MongoDBName:        "novuna",
		RedisAddr:          "localhost:6379",
		KafkaTopic:         "storefront-events",
		UploadsDir:         "uploads",
		MaxUploadBytes:     5 << 20, // 5MB
		RequestTimeout:     30 * time.Second,
		ShutdownTimeout:    10 * time.Second,
		MaxRequestBodySize: 1 << 20, // 1MB
		LogLevel:           "info",
		OTelExporter:       "none",
		ServiceName:        "storefront-api",
		Merchants: Merchants{
			MTN:      "256754030391",
			Airtel:   "256705030391",
			WhatsApp: "256754030391",
		},
		SMTP: SMTP{
			Host: "smtp.gmail.com",
			Port: 587,
		},
	}
}

// Load builds the configuration from defaults, then the optional YAML file
// named by CONFIG_FILE, then environment variables.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.LoadFromFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) LoadFromFile(path string) error {
	clean := filepath.Clean(path)
	ext := filepath.Ext(clean)
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config file extension %q: %w", ext, ErrInvalidConfig)
	}

	data, err := os.ReadFile(clean)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", clean, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %v: %w", clean, err, ErrInvalidConfig)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.HTTPPort = getEnv("PORT", getEnv("HTTP_PORT", c.HTTPPort))
	c.MongoURI = getEnv("MONGODB_URI", c.MongoURI)
	c.MongoDBName = getEnv("MONGODB_DB", c.MongoDBName)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		c.KafkaBrokers = splitList(brokers)
	}
	c.KafkaTopic = getEnv("KAFKA_TOPIC", c.KafkaTopic)
	c.UploadsDir = getEnv("UPLOADS_DIR", c.UploadsDir)
	c.MaxUploadBytes = getEnvInt64("MAX_UPLOAD_BYTES", c.MaxUploadBytes)
	c.CloudinaryURL = getEnv("CLOUDINARY_URL", c.CloudinaryURL)
	c.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", c.RequestTimeout)
	c.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
	c.MaxRequestBodySize = getEnvInt64("MAX_REQUEST_BODY_SIZE", c.MaxRequestBodySize)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.OTelExporter = getEnv("OTEL_EXPORTER", c.OTelExporter)
	c.ServiceName = getEnv("SERVICE_NAME", c.ServiceName)

	c.Merchants.MTN = getEnv("MTN_MERCHANT_NUMBER", c.Merchants.MTN)
	c.Merchants.Airtel = getEnv("AIRTEL_MERCHANT_NUMBER", c.Merchants.Airtel)
	c.Merchants.WhatsApp = getEnv("WHATSAPP_NUMBER", c.Merchants.WhatsApp)

	c.SMTP.Host = getEnv("SMTP_HOST", c.SMTP.Host)
	c.SMTP.Port = int(getEnvInt64("SMTP_PORT", int64(c.SMTP.Port)))
	c.SMTP.Username = getEnv("EMAIL_USER", c.SMTP.Username)
	c.SMTP.Password = getEnv("EMAIL_PASS", c.SMTP.Password)
	c.SMTP.From = getEnv("EMAIL_FROM", c.SMTP.From)
	c.SMTP.ShopMail = getEnv("SHOP_EMAIL", c.SMTP.ShopMail)
}

func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.HTTPPort)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid http port %q: %w", c.HTTPPort, ErrInvalidConfig)
	}
	if c.MongoURI == "" {
		return fmt.Errorf("mongo uri is required: %w", ErrInvalidConfig)
	}
	if c.MongoDBName == "" {
		return fmt.Errorf("mongo database name is required: %w", ErrInvalidConfig)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive: %w", ErrInvalidConfig)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("max request body size must be positive: %w", ErrInvalidConfig)
	}
	if c.RequestTimeout <= 0 || c.ShutdownTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive: %w", ErrInvalidConfig)
	}
	switch c.OTelExporter {
	case "none", "stdout":
	default:
		return fmt.Errorf("unknown otel exporter %q: %w", c.OTelExporter, ErrInvalidConfig)
	}
	if c.KafkaTopic == "" {
		return fmt.Errorf("kafka topic is required: %w", ErrInvalidConfig)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
