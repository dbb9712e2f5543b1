// Package config 读取服务配置：默认值 < YAML 文件 < .env / 环境变量。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// MaxFileSize 限制配置文件大小。
const MaxFileSize = 1 << 20

const envPrefix = "INVENTARIO_"

var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
	ErrInvalidConfig  = errors.New("invalid config")
)

type Config struct {
	Addr        string `yaml:"addr"`
	DBPath      string `yaml:"db"`
	Password    string `yaml:"password"`
	GeminiKey   string `yaml:"gemini_key"`
	GeminiModel string `yaml:"gemini_model"`
	LogLevel    string `yaml:"log_level"`
	// Design 为可选的标签设计文件，作为新会话的初始设计。
	Design string `yaml:"design"`
	// PingWorkers 限制并发 ping 的数量。
	PingWorkers int `yaml:"ping_workers"`
}

// Default 返回内置默认配置。
func Default() Config {
	return Config{
		Addr:        ":8080",
		DBPath:      "inventario_ti_2026.db",
		Password:    "admin123",
		GeminiModel: "gemini-2.5-flash",
		LogLevel:    "info",
		PingWorkers: 16,
	}
}

// Load 依次应用默认值、YAML 文件（path 为空则跳过）、.env 与 INVENTARIO_* 环境变量。
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}

	// .env 不覆盖已存在的环境变量
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	cfg.applyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	if len(data) > MaxFileSize {
		return fmt.Errorf("%w: %s exceeds %d bytes", ErrConfigParse, path, MaxFileSize)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	if err := yaml.UnmarshalWithOptions(data, c, yaml.Strict()); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(envPrefix + key)); v != "" {
			*dst = v
		}
	}
	set("ADDR", &c.Addr)
	set("DB", &c.DBPath)
	set("PASSWORD", &c.Password)
	set("GEMINI_KEY", &c.GeminiKey)
	set("GEMINI_MODEL", &c.GeminiModel)
	set("LOG_LEVEL", &c.LogLevel)
	set("DESIGN", &c.Design)
	if c.GeminiKey == "" {
		c.GeminiKey = strings.TrimSpace(getenv("GEMINI_API_KEY"))
	}
	if v := strings.TrimSpace(getenv(envPrefix + "PING_WORKERS")); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			c.PingWorkers = n
		}
	}
}

// Validate 检查必填项。
func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr is empty", ErrInvalidConfig)
	case c.DBPath == "":
		return fmt.Errorf("%w: db path is empty", ErrInvalidConfig)
	case c.Password == "":
		return fmt.Errorf("%w: password is empty", ErrInvalidConfig)
	case c.PingWorkers < 1:
		return fmt.Errorf("%w: ping_workers must be positive, got %d", ErrInvalidConfig, c.PingWorkers)
	}
	return nil
}
