package minio

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/poiquest/poiquest-backend/pkg/config"
	"github.com/poiquest/poiquest-backend/pkg/logger"
)

const pingTimeout = 5 * time.Second

// Client wraps the S3-compatible object store the platform keeps media in.
// The API never streams object bytes itself; clients upload and download
// through presigned URLs.
type Client struct {
	api     *minio.Client
	cfg     config.StorageConfig
	allowed map[string]struct{}
}

type Pinger interface {
	Ping(ctx context.Context) error
}

func NewClient(ctx context.Context, cfg config.StorageConfig, logg *logger.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("storage endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("storage credentials are required")
	}

	api, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	allowed := make(map[string]struct{}, 2)
	for _, bucket := range cfg.Buckets() {
		if bucket != "" {
			allowed[bucket] = struct{}{}
		}
	}
	if len(allowed) == 0 {
		return nil, errors.New("at least one storage bucket must be configured")
	}

	client := &Client{api: api, cfg: cfg, allowed: allowed}

	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("storage health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "storage client initialized")
	}

	return client, nil
}

// AllowedBucket reports whether clients may target the given bucket.
func (c *Client) AllowedBucket(name string) bool {
	if c == nil {
		return false
	}
	_, ok := c.allowed[name]
	return ok
}

// ImagesBucket returns the bucket image locators default to.
func (c *Client) ImagesBucket() string {
	if c == nil {
		return ""
	}
	return c.cfg.ImagesBucket
}

// EnsureBuckets creates any configured bucket that does not exist yet.
func (c *Client) EnsureBuckets(ctx context.Context) error {
	for bucket := range c.allowed {
		exists, err := c.api.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("checking bucket %s: %w", bucket, err)
		}
		if exists {
			continue
		}
		if err := c.api.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: c.cfg.Region}); err != nil {
			return fmt.Errorf("creating bucket %s: %w", bucket, err)
		}
	}
	return nil
}

// Exists reports whether an object is present at bucket/key.
func (c *Client) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := c.api.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return false, nil
		}
		return false, fmt.Errorf("stat object %s/%s: %w", bucket, key, err)
	}
	return true, nil
}

// PresignGet returns a time-limited download URL for bucket/key.
func (c *Client) PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = c.cfg.DownloadURLExpiry
	}
	signed, err := c.api.PresignedGetObject(ctx, bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign get %s/%s: %w", bucket, key, err)
	}
	return signed.String(), nil
}

// PresignPut returns a time-limited upload URL for bucket/key.
func (c *Client) PresignPut(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = c.cfg.UploadURLExpiry
	}
	signed, err := c.api.PresignedPutObject(ctx, bucket, key, ttl)
	if err != nil {
		return "", fmt.Errorf("presign put %s/%s: %w", bucket, key, err)
	}
	return signed.String(), nil
}

// Delete removes the object at bucket/key. Deleting a missing object is not
// an error.
func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	if err := c.api.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s/%s: %w", bucket, key, err)
	}
	return nil
}

// Ping verifies the store is reachable by probing the images bucket.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.api == nil {
		return errors.New("storage client not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := c.api.BucketExists(ctx, c.cfg.ImagesBucket); err != nil {
		return fmt.Errorf("storage ping: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return nil
}
