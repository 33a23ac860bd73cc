// Package config 加载 config.yaml、.env 与 TESTMAKER_ 前缀的环境变量
package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix 环境变量前缀，TESTMAKER_SERVER_PORT 对应 server.port
const EnvPrefix = "TESTMAKER_"

// Load 加载配置文件，环境变量覆盖文件
func Load(configPath string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("警告: 无法加载 .env 文件: %v", err)
	}

	k := koanf.New(".")

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("加载配置文件失败: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("加载环境变量失败: %w", err)
	}

	conf := Default()
	if err := k.Unmarshal("", conf); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// MustLoad 加载配置，失败则退出
func MustLoad(configPath string) *AppConfig {
	conf, err := Load(configPath)
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}
	return conf
}

// envKey 只把第一个下划线当作层级分隔
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(s, "_", ".", 1)
}

// Default 缺省配置
func Default() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Mode:            "debug",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		GRPC:     GRPCConfig{Enabled: true, Port: 9090},
		Database: DatabaseConfig{Host: "localhost", Port: 5432, LogLevel: "warn", AutoMigrate: true},
		Redis:    RedisConfig{Host: "localhost", Port: 6379},
		Log:      LogConfig{Level: "info", Format: "text", Output: "stdout"},
		JWT:      JWTConfig{ExpireTime: 30 * time.Minute},
		Reconcile: ReconcileConfig{
			Schedule: "30 3 * * *",
			MinAge:   24 * time.Hour,
		},
		Upload: UploadConfig{
			MaxFileSize: 20 << 20,
			PresignTTL:  15 * time.Minute,
		},
	}
}

// Validate 启动前检查必填项
func (c *AppConfig) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret 不能为空")
	}
	if c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket 不能为空")
	}
	if c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("upload.max_file_size 必须大于 0")
	}
	if c.Reconcile.Enabled && c.Reconcile.Schedule == "" {
		return fmt.Errorf("reconcile.schedule 不能为空")
	}
	if c.Reconcile.Enabled && !c.Reconcile.DryRun && c.Reconcile.MinAge <= 0 {
		return fmt.Errorf("reconcile.min_age 必须大于 0")
	}
	return nil
}

// Addr HTTP 监听地址
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
