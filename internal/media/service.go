package media

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/poiquest/poiquest-backend/pkg/config"
	pkgerrors "github.com/poiquest/poiquest-backend/pkg/errors"
	"github.com/poiquest/poiquest-backend/pkg/logger"
)

type objectStore interface {
	AllowedBucket(name string) bool
	ImagesBucket() string
	Exists(ctx context.Context, bucket, key string) (bool, error)
	PresignPut(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
	PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, bucket, key string) error
}

// Service exposes the presign surface over the object store.
type Service interface {
	PresignUpload(ctx context.Context, input PresignUploadInput) (*PresignUploadOutput, error)
	PresignDownload(ctx context.Context, bucket, fileKey string) (*PresignDownloadOutput, error)
	DeleteObject(ctx context.Context, bucket, fileKey string) error
	DecorateImages(ctx context.Context, images []ImageDTO) []ImageDTO
}

type service struct {
	store objectStore
	cfg   config.StorageConfig
	logg  *logger.Logger
	now   func() time.Time
}

// ServiceParams packages the dependencies of the media service.
type ServiceParams struct {
	Store         objectStore
	StorageConfig config.StorageConfig
	Logger        *logger.Logger
	Now           func() time.Time
}

// NewService constructs a media service backed by the provided object store.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		store: params.Store,
		cfg:   params.StorageConfig,
		logg:  params.Logger,
		now:   now,
	}, nil
}

var allowedMimePrefixes = map[string][]string{
	"images": {"image/"},
	"models": {"model/", "application/octet-stream"},
}

func (s *service) PresignUpload(ctx context.Context, input PresignUploadInput) (*PresignUploadOutput, error) {
	bucket := strings.TrimSpace(input.Bucket)
	if bucket == "" {
		bucket = s.store.ImagesBucket()
	}
	if !s.store.AllowedBucket(bucket) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown bucket")
	}

	fileName := strings.TrimSpace(input.FileName)
	if fileName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file_name is required")
	}

	contentType := strings.ToLower(strings.TrimSpace(input.ContentType))
	if !mimeAllowed(bucket, contentType) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content type not allowed for bucket")
	}

	key := s.objectKey(fileName)
	signed, err := s.store.PresignPut(ctx, bucket, key, s.cfg.UploadURLExpiry)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "presign upload")
	}

	return &PresignUploadOutput{
		Bucket:       bucket,
		FileKey:      key,
		SignedPUTURL: signed,
		ContentType:  contentType,
		ExpiresAt:    s.now().Add(s.cfg.UploadURLExpiry),
	}, nil
}

func (s *service) PresignDownload(ctx context.Context, bucket, fileKey string) (*PresignDownloadOutput, error) {
	if !s.store.AllowedBucket(bucket) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown bucket")
	}
	if strings.TrimSpace(fileKey) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file key is required")
	}

	exists, err := s.store.Exists(ctx, bucket, fileKey)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check object")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "object not found")
	}

	signed, err := s.store.PresignGet(ctx, bucket, fileKey, s.cfg.DownloadURLExpiry)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "presign download")
	}

	return &PresignDownloadOutput{
		Bucket:       bucket,
		FileKey:      fileKey,
		SignedGETURL: signed,
		ExpiresAt:    s.now().Add(s.cfg.DownloadURLExpiry),
	}, nil
}

func (s *service) DeleteObject(ctx context.Context, bucket, fileKey string) error {
	if !s.store.AllowedBucket(bucket) {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown bucket")
	}
	if strings.TrimSpace(fileKey) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "file key is required")
	}
	if err := s.store.Delete(ctx, bucket, fileKey); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete object")
	}
	return nil
}

// DecorateImages fills in a signed GET URL for each image. Signing is
// best-effort for display purposes: a failed image is logged and skipped
// rather than failing the whole list.
func (s *service) DecorateImages(ctx context.Context, images []ImageDTO) []ImageDTO {
	for i := range images {
		signed, err := s.store.PresignGet(ctx, images[i].Bucket, images[i].FileKey, s.cfg.DownloadURLExpiry)
		if err != nil {
			lctx := s.logg.WithFields(ctx, map[string]any{
				"bucket":   images[i].Bucket,
				"file_key": images[i].FileKey,
				"error":    err.Error(),
			})
			s.logg.Warn(lctx, "presign image url failed")
			continue
		}
		images[i].URL = signed
	}
	return images
}

// objectKey prefixes the sanitized file name with the upload's unix timestamp
// so repeated uploads of the same name never collide.
func (s *service) objectKey(fileName string) string {
	base := sanitizeFileName(path.Base(fileName))
	return fmt.Sprintf("%d-%s", s.now().Unix(), base)
}

func sanitizeFileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) && r < 128, unicode.IsDigit(r) && r < 128:
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), "-.")
	if out == "" {
		out = "file"
	}
	return out
}

func mimeAllowed(bucket, contentType string) bool {
	prefixes, ok := allowedMimePrefixes[bucket]
	if !ok {
		// Buckets without an explicit policy accept any content type.
		return contentType != ""
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(contentType, prefix) {
			return true
		}
	}
	return false
}
