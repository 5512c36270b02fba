// Package config handles loading and parsing application configuration.
// It supports two sources for the file location (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//
// Every value in the file can be overridden by the environment variable
// named in its env tag. A .env file in the working directory, if present,
// is loaded into the environment first.
package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Storage drivers understood by the server.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Config is the root configuration structure.
type Config struct {
	// Env controls log format and verbosity: "dev", "staging" or "prod".
	Env string `yaml:"env" env:"ENV" env-required:"true"`

	// MaxUploadBytes bounds the in-memory part of a multipart request.
	MaxUploadBytes int64 `yaml:"max_upload_bytes" env:"MAX_UPLOAD_BYTES" env-default:"10485760"`

	Storage    Storage    `yaml:"storage"`
	HTTPServer HTTPServer `yaml:"http_server"`
	Blob       Blob       `yaml:"blob"`
	Auth       Auth       `yaml:"auth"`
}

// Storage selects and configures the relational store.
type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"sqlite"`

	// Path is the SQLite database file, used when Driver is "sqlite".
	Path string `yaml:"path" env:"STORAGE_PATH" env-default:"storage/schools.db"`

	MySQL MySQL `yaml:"mysql"`

	MaxOpenConns int `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"10"`
	MaxIdleConns int `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"5"`
}

// MySQL holds the connection settings used when Driver is "mysql".
type MySQL struct {
	Host     string `yaml:"host" env:"DB_HOST" env-default:"127.0.0.1"`
	Port     int    `yaml:"port" env:"DB_PORT" env-default:"3306"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASS"`
	Name     string `yaml:"name" env:"DB_NAME"`
}

// HTTPServer holds settings specific to the HTTP server.
type HTTPServer struct {
	// Addr is the TCP address the server listens on, e.g. "localhost:8082".
	Addr         string        `yaml:"address" env:"HTTP_SERVER_ADDR" env-required:"true"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

// Blob configures the S3 compatible bucket that hosts school images.
type Blob struct {
	// Endpoint overrides the AWS endpoint (R2, MinIO). Empty means AWS.
	Endpoint        string `yaml:"endpoint" env:"BLOB_ENDPOINT"`
	Region          string `yaml:"region" env:"BLOB_REGION" env-default:"auto"`
	Bucket          string `yaml:"bucket" env:"BLOB_BUCKET" env-required:"true"`
	AccessKeyID     string `yaml:"access_key_id" env:"BLOB_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"BLOB_SECRET_ACCESS_KEY"`
	UsePathStyle    bool   `yaml:"use_path_style" env:"BLOB_USE_PATH_STYLE"`

	// PublicURL is the base of the durable URLs handed back to clients.
	PublicURL string `yaml:"public_url" env:"BLOB_PUBLIC_URL" env-required:"true"`

	// Folder is the logical prefix every school image is stored under.
	Folder string `yaml:"folder" env:"BLOB_FOLDER" env-default:"schoolImages"`
}

// Auth configures bearer token checks on write routes.
type Auth struct {
	// JWTSecret is the HS256 key shared with the credential service.
	// Leave empty to accept anonymous submissions (local development).
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
}

// Load reads the config file at path, applies env overrides and checks
// env-required constraints.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	switch cfg.Storage.Driver {
	case DriverSQLite, DriverMySQL:
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	return &cfg, nil
}

// MustLoad resolves the config path from CONFIG_PATH or --config, then
// loads it. It exits the process on any failure, so if it returns the
// config is valid.
func MustLoad() *Config {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	if configPath == "" {
		log.Fatal("config path is not set: use --config flag or CONFIG_PATH env var")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err.Error())
	}

	return cfg
}
