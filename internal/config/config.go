package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config is everything the server reads from the environment.
type Config struct {
	Server   Server
	Database Database
	Log      Log
	Security Security
	Storage  Storage
	Redis    Redis
	Jobs     Jobs
}

type Server struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	PublicBaseURL   string
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	TimeZone string
	MaxOpen  int
	MaxIdle  int
}

type Log struct {
	File   string
	Level  string
	Stdout bool
}

type Security struct {
	JWTSecret      string
	TokenTTL       time.Duration
	ScanRateLimit  int
	ScanRateWindow time.Duration
}

// Storage picks the blob backend. Driver is "disk" or "oss".
type Storage struct {
	Driver         string
	Root           string
	MediaBucket    string
	DocumentBucket string
	StagingDir     string
	MaxUploadBytes int64

	OSSEndpoint  string
	OSSAccessKey string
	OSSSecretKey string
}

// Redis is optional; an empty Addr disables scan rate limiting.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

type Jobs struct {
	ComplianceSpec    string
	KioskReapSpec     string
	KioskWorkspaceTTL time.Duration
	AuditBuffer       int
}

var ErrMissingJWTSecret = errors.New("JWT_SECRET is required")

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found, relying on env vars")
	}

	cfg := &Config{
		Server: Server{
			Addr:            getEnv("SERVER_ADDR", "0.0.0.0:8080"),
			ReadTimeout:     getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDuration("SERVER_SHUTDOWN_TIMEOUT", 20*time.Second),
			PublicBaseURL:   strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		},
		Database: Database{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "password"),
			Name:     getEnv("DB_NAME", "school_transport"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			TimeZone: getEnv("DB_TIMEZONE", "UTC"),
			MaxOpen:  getInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdle:  getInt("DB_MAX_IDLE_CONNS", 5),
		},
		Log: Log{
			File:   getEnv("LOG_FILE", "./logs/app.log"),
			Level:  getEnv("LOG_LEVEL", "info"),
			Stdout: getBool("LOG_STDOUT", false),
		},
		Security: Security{
			JWTSecret:      os.Getenv("JWT_SECRET"),
			TokenTTL:       getDuration("JWT_TTL", 72*time.Hour),
			ScanRateLimit:  getInt("KIOSK_SCAN_RATE_LIMIT", 20),
			ScanRateWindow: getDuration("KIOSK_SCAN_RATE_WINDOW", time.Minute),
		},
		Storage: Storage{
			Driver:         strings.ToLower(getEnv("STORAGE_DRIVER", "disk")),
			Root:           getEnv("STORAGE_ROOT", "./storage"),
			MediaBucket:    getEnv("STORAGE_MEDIA_BUCKET", "vehicle-check-media"),
			DocumentBucket: getEnv("STORAGE_DOCUMENT_BUCKET", "documents"),
			StagingDir:     getEnv("STORAGE_STAGING_DIR", os.TempDir()),
			MaxUploadBytes: int64(getInt("STORAGE_MAX_UPLOAD_MB", 200)) << 20,
			OSSEndpoint:    os.Getenv("OSS_ENDPOINT"),
			OSSAccessKey:   os.Getenv("OSS_ACCESS_KEY_ID"),
			OSSSecretKey:   os.Getenv("OSS_ACCESS_KEY_SECRET"),
		},
		Redis: Redis{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		Jobs: Jobs{
			ComplianceSpec:    getEnv("COMPLIANCE_SWEEP_SPEC", "5 0 * * *"),
			KioskReapSpec:     getEnv("KIOSK_REAP_SPEC", "@every 1m"),
			KioskWorkspaceTTL: getDuration("KIOSK_WORKSPACE_TTL", 15*time.Minute),
			AuditBuffer:       getInt("AUDIT_BUFFER", 256),
		},
	}

	if cfg.Security.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}
	switch cfg.Storage.Driver {
	case "disk", "oss":
	default:
		return nil, errors.New("STORAGE_DRIVER must be disk or oss")
	}
	if cfg.Storage.Driver == "oss" && (cfg.Storage.OSSEndpoint == "" || cfg.Storage.OSSAccessKey == "") {
		return nil, errors.New("OSS_ENDPOINT and OSS_ACCESS_KEY_ID are required for STORAGE_DRIVER=oss")
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.WithField("key", key).Warn("not an integer, using default")
		return def
	}
	return n
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logrus.WithField("key", key).Warn("not a duration, using default")
		return def
	}
	return d
}
