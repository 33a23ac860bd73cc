// Package database 进程级资源：PostgreSQL、Redis 与对象存储，启动时创建、退出时关闭
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"terminal-terrace/testmaker/config"
	"terminal-terrace/testmaker/internal/model"
	pkgDatabase "terminal-terrace/testmaker/packages/database"
	"terminal-terrace/testmaker/packages/storage"
)

const serviceName = "testmaker"

// Resources 长生命周期的连接
type Resources struct {
	DB    *gorm.DB
	Redis *pkgDatabase.RedisClient
	Store storage.ObjectStore
}

// Init 依次连接数据库、迁移表结构、连接 Redis 与对象存储，任一步失败都会关闭已打开的资源
func Init(ctx context.Context, conf *config.AppConfig) (*Resources, error) {
	res := &Resources{}

	db, err := pkgDatabase.InitPostgres(PostgresConfig(conf.Database))
	if err != nil {
		return nil, err
	}
	res.DB = db

	if conf.Database.AutoMigrate {
		if err := model.InitTable(db); err != nil {
			res.Close()
			return nil, fmt.Errorf("初始化数据库表失败: %w", err)
		}
	}

	rdb, err := pkgDatabase.InitRedis(ctx, &pkgDatabase.RedisConfig{
		ServiceName: serviceName,
		Host:        conf.Redis.Host,
		Port:        conf.Redis.Port,
		Password:    conf.Redis.Password,
		DB:          conf.Redis.DB,
		PoolSize:    conf.Redis.PoolSize,
	})
	if err != nil {
		res.Close()
		return nil, err
	}
	res.Redis = rdb

	store, err := storage.New(ctx, &conf.Storage)
	if err != nil {
		res.Close()
		return nil, fmt.Errorf("初始化对象存储失败: %w", err)
	}
	res.Store = store

	return res, nil
}

// PostgresConfig 把应用配置转换成连接参数
func PostgresConfig(c config.DatabaseConfig) *pkgDatabase.PostgresConfig {
	return &pkgDatabase.PostgresConfig{
		ServiceName:     serviceName,
		DSN:             c.DSN,
		Username:        c.Username,
		Password:        c.Password,
		Host:            c.Host,
		Port:            c.Port,
		Database:        c.Database,
		SSLMode:         c.SSLMode,
		LogLevel:        c.LogLevel,
		MaxIdleConns:    c.MaxIdleConns,
		MaxOpenConns:    c.MaxOpenConns,
		ConnMaxLifetime: c.MaxLifetime,
	}
}

// Close 关闭全部连接，可重复调用
func (r *Resources) Close() error {
	var errs []error
	if r.Redis != nil {
		if err := r.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("关闭 Redis 失败: %w", err))
		}
		r.Redis = nil
	}
	if r.DB != nil {
		if err := pkgDatabase.ClosePostgres(r.DB); err != nil {
			errs = append(errs, fmt.Errorf("关闭数据库失败: %w", err))
		}
		r.DB = nil
	}
	r.Store = nil
	if len(errs) == 0 {
		slog.Info("资源已释放")
	}
	return errors.Join(errs...)
}

// Ping 检查数据库与 Redis 是否可用
func (r *Resources) Ping(ctx context.Context) error {
	if r.DB == nil || r.Redis == nil {
		return errors.New("资源未初始化")
	}
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("数据库不可用: %w", err)
	}
	if err := r.Redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis 不可用: %w", err)
	}
	return nil
}
