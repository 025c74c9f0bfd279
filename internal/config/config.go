package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	NATS     NATSConfig     `yaml:"nats"`
	MinIO    MinIOConfig    `yaml:"minio"`
	Google   GoogleConfig   `yaml:"google"`
	Upload   UploadConfig   `yaml:"upload"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	APIKey      string `yaml:"api_key"`
	AdminAPIKey string `yaml:"admin_api_key"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// GoogleConfig holds credentials and endpoints for the two outbound
// collaborators. Endpoints are overridable so tests can point the clients
// at a local fake.
type GoogleConfig struct {
	GeocodingAPIKey   string        `yaml:"geocoding_api_key"`
	VisionAPIKey      string        `yaml:"vision_api_key"`
	GeocodingEndpoint string        `yaml:"geocoding_endpoint"`
	VisionEndpoint    string        `yaml:"vision_endpoint"`
	Timeout           time.Duration `yaml:"timeout"`
}

type UploadConfig struct {
	MaxSizeBytes       int64  `yaml:"max_size_bytes"`
	MinDimension       int    `yaml:"min_dimension"`
	MaxDimension       int    `yaml:"max_dimension"`
	DefaultHomeAddress string `yaml:"default_home_address"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from YAML file and applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 20
	}
	if cfg.Google.GeocodingEndpoint == "" {
		cfg.Google.GeocodingEndpoint = "https://maps.googleapis.com"
	}
	if cfg.Google.VisionEndpoint == "" {
		cfg.Google.VisionEndpoint = "https://vision.googleapis.com"
	}
	if cfg.Google.Timeout == 0 {
		cfg.Google.Timeout = 10 * time.Second
	}
	if cfg.Upload.MaxSizeBytes == 0 {
		cfg.Upload.MaxSizeBytes = 5 * 1024 * 1024
	}
	if cfg.Upload.MinDimension == 0 {
		cfg.Upload.MinDimension = 200
	}
	if cfg.Upload.MaxDimension == 0 {
		cfg.Upload.MaxDimension = 4000
	}
	if cfg.Upload.DefaultHomeAddress == "" {
		cfg.Upload.DefaultHomeAddress = "35 Davean Dr, North York, ON, Canada M2L 2R6"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LM_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LM_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("LM_ADMIN_API_KEY"); v != "" {
		cfg.Server.AdminAPIKey = v
	}
	if v := os.Getenv("LM_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("LM_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("LM_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("LM_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("LM_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("LM_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("LM_MINIO_ENDPOINT"); v != "" {
		cfg.MinIO.Endpoint = v
	}
	if v := os.Getenv("LM_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("LM_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("LM_MINIO_BUCKET"); v != "" {
		cfg.MinIO.Bucket = v
	}
	if v := os.Getenv("LM_GEOCODING_API_KEY"); v != "" {
		cfg.Google.GeocodingAPIKey = v
	}
	if v := os.Getenv("LM_VISION_API_KEY"); v != "" {
		cfg.Google.VisionAPIKey = v
	}
	if v := os.Getenv("LM_DEFAULT_HOME_ADDRESS"); v != "" {
		cfg.Upload.DefaultHomeAddress = v
	}
}
