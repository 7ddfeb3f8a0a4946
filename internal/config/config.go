package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "./config.yaml"

type Config struct {
	ListenAddr     string `yaml:"listen_addr" json:"listen_addr" envconfig:"LISTEN_ADDR"`
	StagingBackend string `yaml:"staging_backend" json:"staging_backend" envconfig:"STAGING_BACKEND"`
	StagingDir     string `yaml:"staging_dir" json:"staging_dir" envconfig:"STAGING_DIR"`
	BadgerDir      string `yaml:"badger_dir" json:"badger_dir" envconfig:"BADGER_DIR"`
	FinalDir       string `yaml:"final_dir" json:"final_dir" envconfig:"FINAL_DIR"`
	PublicDir      string `yaml:"public_dir" json:"public_dir" envconfig:"PUBLIC_DIR"`
	MaxMemoryBytes int64  `yaml:"max_memory_bytes" json:"max_memory_bytes" envconfig:"MAX_MEMORY_BYTES"`
	VerifyDigest   string `yaml:"verify_digest" json:"verify_digest" envconfig:"VERIFY_DIGEST"`
	LogLevel       string `yaml:"log_level" json:"log_level" envconfig:"LOG_LEVEL"`
	LogFormat      string `yaml:"log_format" json:"log_format" envconfig:"LOG_FORMAT"`
	LogFile        string `yaml:"log_file" json:"log_file" envconfig:"LOG_FILE"`
}

// Default возвращает конфигурацию по умолчанию: тот же layout каталогов, что у исходного сервиса.
func Default() Config {
	return Config{
		ListenAddr:     ":3000",
		StagingBackend: "fs",
		StagingDir:     "./uploads/temp",
		BadgerDir:      "./uploads/staging.db",
		FinalDir:       "./uploads/final",
		MaxMemoryBytes: 32 << 20,
		LogLevel:       "info",
		LogFormat:      "json",
	}
}

// Load читает .env, YAML-конфигурацию, применяет ENV-переопределения и возвращает актуальную структуру.
// Отсутствие файла по пути по умолчанию не ошибка; явно заданный CONFIG_PATH обязан существовать.
func Load() (*Config, error) {
	// .env необязателен, системные переменные имеют приоритет.
	_ = godotenv.Load()

	path, explicit := os.LookupEnv("CONFIG_PATH")
	if !explicit || path == "" {
		path = defaultConfigPath
	}

	c := Default()
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err = yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, err
	}

	// ENV override
	if err = envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("env override: %w", err)
	}

	if err = c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Validate проверяет значения, которые нельзя исправить дефолтами.
func (c *Config) Validate() error {
	c.StagingBackend = strings.ToLower(strings.TrimSpace(c.StagingBackend))
	c.VerifyDigest = strings.ToLower(strings.TrimSpace(c.VerifyDigest))

	switch c.StagingBackend {
	case "fs":
		if c.StagingDir == "" {
			return fmt.Errorf("staging_dir is not configured")
		}
	case "badger":
		if c.BadgerDir == "" {
			return fmt.Errorf("badger_dir is not configured")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown staging_backend %q", c.StagingBackend)
	}

	switch c.VerifyDigest {
	case "", "md5", "sha256":
	default:
		return fmt.Errorf("unknown verify_digest %q", c.VerifyDigest)
	}

	if c.FinalDir == "" {
		return fmt.Errorf("final_dir is not configured")
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr is not configured")
	}

	return nil
}
