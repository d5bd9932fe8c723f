// Package s3adapter S3 兼容对象存储，默认对接 Tigris
package s3adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/gowvp/pothole/internal/conf"
	"github.com/gowvp/pothole/internal/core/upload"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var _ upload.ObjectStorer = (*Storage)(nil)

type Storage struct {
	client *minio.Client
	bucket string
}

// NewStorage endpoint 可带 http:// 或 https:// 前缀，前缀优先于 secure 配置
func NewStorage(cfg *conf.Upload) (*Storage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3: bucket is required")
	}
	endpoint, secure := ParseEndpoint(cfg.Endpoint, cfg.Secure)
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: %w", err)
	}
	return &Storage{client: cli, bucket: cfg.Bucket}, nil
}

// Put implements upload.ObjectStorer.
func (s *Storage) Put(ctx context.Context, key, localPath string) error {
	_, err := s.client.FPutObject(ctx, s.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: upload.ContentType(localPath),
	})
	return err
}

// ParseEndpoint 去掉协议前缀与末尾的 /
func ParseEndpoint(raw string, secure bool) (string, bool) {
	switch {
	case strings.HasPrefix(raw, "https://"):
		raw, secure = strings.TrimPrefix(raw, "https://"), true
	case strings.HasPrefix(raw, "http://"):
		raw, secure = strings.TrimPrefix(raw, "http://"), false
	}
	return strings.TrimRight(raw, "/"), secure
}
