// Package storage 对象存储适配层：上传、删除、预签名、枚举，以及对象名与 URL 的互相映射。
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrObjectNotFound 删除或查询的对象不存在
var ErrObjectNotFound = errors.New("object not found")

// Config 对象存储配置
type Config struct {
	Driver        string `koanf:"driver"`          // minio | oss
	Endpoint      string `koanf:"endpoint"`        // host:port (minio) 或 oss-cn-xxx.aliyuncs.com
	AccessKey     string `koanf:"access_key"`      // 访问密钥 ID
	SecretKey     string `koanf:"secret_key"`      // 访问密钥
	SecurityToken string `koanf:"security_token"`  // 临时凭证 (仅 oss)
	Bucket        string `koanf:"bucket"`          // 桶名
	Region        string `koanf:"region"`          // 建桶区域
	UseSSL        bool   `koanf:"use_ssl"`         // https
	PublicBaseURL string `koanf:"public_base_url"` // 对外访问前缀，为空时按驱动推导
}

// ObjectInfo 枚举结果
type ObjectInfo struct {
	Name         string
	Size         int64
	LastModified time.Time
}

// ObjectStore 对象存储
type ObjectStore interface {
	// Upload 上传对象并返回完整 URL
	Upload(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, objectName string) error
	Presign(ctx context.Context, objectName string, ttl time.Duration) (string, error)
	Exists(ctx context.Context, objectName string) (bool, error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// ObjectName 把存储的 URL 还原成对象名
	ObjectName(url string) (string, error)
}

// New 按驱动创建对象存储
func New(ctx context.Context, cfg *Config) (ObjectStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage: bucket 不能为空")
	}
	switch cfg.Driver {
	case "", "minio":
		return NewMinioStore(ctx, cfg)
	case "oss":
		return NewOSSStore(cfg)
	default:
		return nil, fmt.Errorf("storage: 未知驱动 %q", cfg.Driver)
	}
}
