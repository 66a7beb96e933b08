// Package config 负责加载与校验服务配置。配置为 JSON 文件，缺失的
// 字段由默认值补齐。
package config

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	xerrors "AmplyBrain/internal/errors"
	"AmplyBrain/pkg/logger"
)

// ServerConfig 是 HTTP 服务配置，超时均以秒为单位。
type ServerConfig struct {
	Address                string `json:"address"`
	ReadTimeoutSeconds     int    `json:"readTimeoutSeconds"`
	WriteTimeoutSeconds    int    `json:"writeTimeoutSeconds"`
	ShutdownTimeoutSeconds int    `json:"shutdownTimeoutSeconds"`
}

// ReadTimeout 返回读超时。
func (c ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout 返回写超时。
func (c ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

// ShutdownTimeout 返回优雅关闭超时。
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// MySQLConfig 是共享的 MySQL 连接配置。
type MySQLConfig struct {
	DSN                    string `json:"dsn"`
	MaxOpenConns           int    `json:"maxOpenConns"`
	MaxIdleConns           int    `json:"maxIdleConns"`
	ConnMaxLifetimeMinutes int    `json:"connMaxLifetimeMinutes"`
}

// ConnMaxLifetime 返回连接最大生命周期。
func (c MySQLConfig) ConnMaxLifetime() time.Duration {
	return time.Duration(c.ConnMaxLifetimeMinutes) * time.Minute
}

// StorageConfig 选择记忆与日历的持久化后端。
type StorageConfig struct {
	// Driver 可选 memory 或 mysql。
	Driver string      `json:"driver"`
	MySQL  MySQLConfig `json:"mysql"`
}

// RedisConfig 是 Redis 队列配置。
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Key      string `json:"key"`
}

// RabbitMQConfig 是 RabbitMQ 队列配置。
type RabbitMQConfig struct {
	URL   string `json:"url"`
	Queue string `json:"queue"`
}

// QueueConfig 选择自动动作队列的后端。
type QueueConfig struct {
	// Driver 可选 memory、redis 或 rabbitmq。
	Driver   string         `json:"driver"`
	Size     int            `json:"size"`
	Redis    RedisConfig    `json:"redis"`
	RabbitMQ RabbitMQConfig `json:"rabbitmq"`
}

// CalendarConfig 是提醒扫描配置。
type CalendarConfig struct {
	ScanLimit           int `json:"scanLimit"`
	ScanIntervalSeconds int `json:"scanIntervalSeconds"`
}

// ScanInterval 返回扫描周期。
func (c CalendarConfig) ScanInterval() time.Duration {
	return time.Duration(c.ScanIntervalSeconds) * time.Second
}

// PluginConfig 是执行器插件配置。
type PluginConfig struct {
	Enabled  bool   `json:"enabled"`
	Manifest string `json:"manifest"`
}

// LoggerConfig 是日志配置的 JSON 形态。
type LoggerConfig struct {
	Level       string   `json:"level"`
	Format      string   `json:"format"`
	OutputPaths []string `json:"outputPaths"`
	Audit       struct {
		Enabled    bool   `json:"enabled"`
		Path       string `json:"path"`
		MaxSizeMB  int    `json:"maxSizeMB"`
		MaxBackups int    `json:"maxBackups"`
		MaxAgeDays int    `json:"maxAgeDays"`
	} `json:"audit"`
}

// ToLogger 转换为 pkg/logger 的配置结构。
func (c LoggerConfig) ToLogger() logger.Config {
	return logger.Config{
		Level:       c.Level,
		Format:      c.Format,
		OutputPaths: c.OutputPaths,
		Audit: logger.AuditConfig{
			Enabled:    c.Audit.Enabled,
			Path:       c.Audit.Path,
			MaxSizeMB:  c.Audit.MaxSizeMB,
			MaxBackups: c.Audit.MaxBackups,
			MaxAgeDays: c.Audit.MaxAgeDays,
		},
	}
}

// Config 是完整的服务配置。
type Config struct {
	Server   ServerConfig   `json:"server"`
	Storage  StorageConfig  `json:"storage"`
	Queue    QueueConfig    `json:"queue"`
	Calendar CalendarConfig `json:"calendar"`
	Plugin   PluginConfig   `json:"plugin"`
	Logger   LoggerConfig   `json:"logger"`
}

// Load 从文件读取配置。path 为空时直接返回默认配置。
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeInitializationFailure, err, "读取配置文件失败")
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, xerrors.Wrap(xerrors.CodeInitializationFailure, err, "解析配置文件失败")
		}
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.ReadTimeoutSeconds <= 0 {
		c.Server.ReadTimeoutSeconds = 15
	}
	if c.Server.WriteTimeoutSeconds <= 0 {
		c.Server.WriteTimeoutSeconds = 30
	}
	if c.Server.ShutdownTimeoutSeconds <= 0 {
		c.Server.ShutdownTimeoutSeconds = 10
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Queue.Driver == "" {
		c.Queue.Driver = "memory"
	}
	if c.Queue.Size <= 0 {
		c.Queue.Size = 256
	}

	if c.Calendar.ScanLimit <= 0 {
		c.Calendar.ScanLimit = 20
	}
	if c.Calendar.ScanIntervalSeconds <= 0 {
		c.Calendar.ScanIntervalSeconds = 60
	}

	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "json"
	}
	if len(c.Logger.OutputPaths) == 0 {
		c.Logger.OutputPaths = []string{"stdout"}
	}
}

func (c *Config) validate() error {
	switch strings.ToLower(c.Storage.Driver) {
	case "memory":
	case "mysql":
		if strings.TrimSpace(c.Storage.MySQL.DSN) == "" {
			return xerrors.New(xerrors.CodeInitializationFailure, "mysql 存储需要配置 DSN")
		}
	default:
		return xerrors.New(xerrors.CodeInitializationFailure, "未知的存储驱动: "+c.Storage.Driver)
	}

	switch strings.ToLower(c.Queue.Driver) {
	case "memory":
	case "redis":
		if strings.TrimSpace(c.Queue.Redis.Addr) == "" {
			return xerrors.New(xerrors.CodeInitializationFailure, "redis 队列需要配置 addr")
		}
	case "rabbitmq":
		if strings.TrimSpace(c.Queue.RabbitMQ.URL) == "" {
			return xerrors.New(xerrors.CodeInitializationFailure, "rabbitmq 队列需要配置 url")
		}
	default:
		return xerrors.New(xerrors.CodeInitializationFailure, "未知的队列驱动: "+c.Queue.Driver)
	}

	if c.Plugin.Enabled && strings.TrimSpace(c.Plugin.Manifest) == "" {
		return xerrors.New(xerrors.CodeInitializationFailure, "启用插件时必须配置 manifest 路径")
	}
	return nil
}
