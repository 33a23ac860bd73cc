package config

import (
	"time"

	"terminal-terrace/testmaker/packages/email"
	"terminal-terrace/testmaker/packages/storage"
)

// AppConfig 应用配置结构
type AppConfig struct {
	Server    ServerConfig    `koanf:"server"`
	GRPC      GRPCConfig      `koanf:"grpc"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	Log       LogConfig       `koanf:"log"`
	JWT       JWTConfig       `koanf:"jwt"`
	Storage   storage.Config  `koanf:"storage"`
	Google    GoogleConfig    `koanf:"google"`
	SMTP      email.Config    `koanf:"smtp"`
	Reconcile ReconcileConfig `koanf:"reconcile"`
	Upload    UploadConfig    `koanf:"upload"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Mode            string        `koanf:"mode"` // debug, release, test
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

type GRPCConfig struct {
	Enabled bool `koanf:"enabled"`
	Port    int  `koanf:"port"`
}

type DatabaseConfig struct {
	DSN          string        `koanf:"dsn"`
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	Username     string        `koanf:"username"`
	Password     string        `koanf:"password"`
	Database     string        `koanf:"database"`
	SSLMode      bool          `koanf:"sslmode"`
	LogLevel     string        `koanf:"log_level"` // silent, error, warn, info
	MaxOpenConns int           `koanf:"max_open_conns"`
	MaxIdleConns int           `koanf:"max_idle_conns"`
	MaxLifetime  time.Duration `koanf:"max_lifetime"`
	AutoMigrate  bool          `koanf:"auto_migrate"`
}

type RedisConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	PoolSize int    `koanf:"pool_size"`
}

type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // json, text
	Output string `koanf:"output"` // stdout, file
	Path   string `koanf:"path"`   // 日志文件路径
}

type JWTConfig struct {
	Secret     string        `koanf:"secret"`
	ExpireTime time.Duration `koanf:"expire_time"`
}

type GoogleConfig struct {
	ClientID string `koanf:"client_id"` // 为空时关闭 Google 登录
}

type ReconcileConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Schedule string        `koanf:"schedule"` // cron 表达式
	MinAge   time.Duration `koanf:"min_age"`  // 只清理早于该时长的孤儿对象
	DryRun   bool          `koanf:"dry_run"`
}

type UploadConfig struct {
	MaxFileSize int64         `koanf:"max_file_size"` // 字节
	PresignTTL  time.Duration `koanf:"presign_ttl"`
}
