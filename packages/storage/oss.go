package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// OSSStore 阿里云 OSS
type OSSStore struct {
	bucket  *oss.Bucket
	baseURL string
}

func NewOSSStore(cfg *Config) (*OSSStore, error) {
	var (
		client *oss.Client
		err    error
	)
	if cfg.SecurityToken != "" {
		client, err = oss.New(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, oss.SecurityToken(cfg.SecurityToken))
	} else {
		client, err = oss.New(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey)
	}
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}

	bkt, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("client.Bucket: %w", err)
	}

	if loc, err := client.GetBucketLocation(cfg.Bucket); err != nil {
		if se, ok := err.(oss.ServiceError); ok && se.StatusCode == 403 {
			slog.Warn("跳过 OSS 桶位置检查", "bucket", cfg.Bucket, "code", se.Code)
		} else {
			return nil, fmt.Errorf("verify bucket: %w", err)
		}
	} else {
		slog.Info("OSS 桶就绪", "bucket", cfg.Bucket, "location", loc)
	}

	base := cfg.PublicBaseURL
	if base == "" {
		host := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
		base = fmt.Sprintf("https://%s.%s", cfg.Bucket, host)
	}

	return &OSSStore{bucket: bkt, baseURL: strings.TrimRight(base, "/")}, nil
}

func (s *OSSStore) Upload(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	opts := []oss.Option{
		oss.WithContext(ctx),
		oss.ContentType(contentType),
		oss.ContentDisposition("inline"),
	}
	if size >= 0 {
		opts = append(opts, oss.ContentLength(size))
	}
	if err := s.bucket.PutObject(objectName, r, opts...); err != nil {
		return "", fmt.Errorf("上传对象 %s 失败: %w", objectName, err)
	}
	return s.baseURL + "/" + objectName, nil
}

func (s *OSSStore) Delete(ctx context.Context, objectName string) error {
	err := s.bucket.DeleteObject(objectName, oss.WithContext(ctx))
	var se oss.ServiceError
	if errors.As(err, &se) && se.Code == "NoSuchKey" {
		return fmt.Errorf("删除对象 %s: %w", objectName, ErrObjectNotFound)
	}
	return err
}

func (s *OSSStore) Presign(ctx context.Context, objectName string, ttl time.Duration) (string, error) {
	return s.bucket.SignURL(objectName, oss.HTTPGet, int64(ttl.Seconds()), oss.WithContext(ctx))
}

func (s *OSSStore) Exists(ctx context.Context, objectName string) (bool, error) {
	return s.bucket.IsObjectExist(objectName, oss.WithContext(ctx))
}

func (s *OSSStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	marker := oss.Marker("")
	for {
		lor, err := s.bucket.ListObjects(oss.Prefix(prefix), marker, oss.MaxKeys(1000), oss.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		for _, obj := range lor.Objects {
			if obj.Key == "" {
				continue
			}
			out = append(out, ObjectInfo{Name: obj.Key, Size: obj.Size, LastModified: obj.LastModified})
		}
		if !lor.IsTruncated {
			return out, nil
		}
		marker = oss.Marker(lor.NextMarker)
	}
}

// ObjectName 虚拟主机风格的 URL 只有三段前缀，依赖 baseURL 精确剥离
func (s *OSSStore) ObjectName(rawURL string) (string, error) {
	return ObjectNameFromURL(s.baseURL, rawURL)
}
