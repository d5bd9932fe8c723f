// Package cosadapter 腾讯云 COS 对象存储
package cosadapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/gowvp/pothole/internal/conf"
	"github.com/gowvp/pothole/internal/core/upload"
	"github.com/tencentyun/cos-go-sdk-v5"
)

var _ upload.ObjectStorer = (*Storage)(nil)

type Storage struct {
	client *cos.Client
}

// NewStorage cfg.Endpoint 为 bucket 地址，如 https://examplebucket-1250000000.cos.ap-guangzhou.myqcloud.com
func NewStorage(cfg *conf.Upload) (*Storage, error) {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("cos: invalid bucket url %q", cfg.Endpoint)
	}
	client := cos.NewClient(&cos.BaseURL{BucketURL: u}, &http.Client{
		Transport: &cos.AuthorizationTransport{
			SecretID:  cfg.AccessKey,
			SecretKey: cfg.SecretKey,
		},
	})
	return &Storage{client: client}, nil
}

// Put implements upload.ObjectStorer.
func (s *Storage) Put(ctx context.Context, key, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	opt := &cos.ObjectPutOptions{
		ObjectPutHeaderOptions: &cos.ObjectPutHeaderOptions{
			ContentType: upload.ContentType(localPath),
		},
	}
	_, err = s.client.Object.Put(ctx, key, f, opt)
	return err
}
