package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/config"
)

// ImageStore keeps recipe images. Save returns the key recorded on the recipe.
type ImageStore interface {
	Save(ctx context.Context, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// DecodeImage parses a "data:image/<type>;base64,<payload>" string and
// returns the raw bytes with their detected content type.
func DecodeImage(dataURL string, maxBytes int) ([]byte, string, error) {
	header, payload, ok := strings.Cut(dataURL, ",")
	if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return nil, "", fieldError("image", "image must be a base64 encoded data URL")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fieldError("image", "image is not valid base64")
	}
	if len(data) == 0 {
		return nil, "", fieldError("image", "image must not be empty")
	}
	if maxBytes > 0 && len(data) > maxBytes {
		return nil, "", fieldError("image", fmt.Sprintf("image must not exceed %d bytes", maxBytes))
	}

	contentType := http.DetectContentType(data)
	if _, ok := imageExtensions[contentType]; !ok {
		return nil, "", fieldError("image", "unsupported image type "+contentType)
	}
	return data, contentType, nil
}

func newImageKey(prefix, contentType string) string {
	return path.Join(prefix, uuid.New().String()+imageExtensions[contentType])
}

// S3API is the subset of the S3 client used by S3ImageStore.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3ImageStore stores images in an S3 bucket.
type S3ImageStore struct {
	client    S3API
	bucket    string
	publicURL string
	prefix    string
	log       *slog.Logger
}

func NewS3ImageStore(client S3API, bucket, publicURL, prefix string, log *slog.Logger) *S3ImageStore {
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.amazonaws.com", bucket)
	}
	return &S3ImageStore{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		prefix:    prefix,
		log:       log,
	}
}

func (s *S3ImageStore) Save(ctx context.Context, data []byte, contentType string) (string, error) {
	key := newImageKey(s.prefix, contentType)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", storageErr("upload image", err)
	}
	s.log.Debug("uploaded image", "bucket", s.bucket, "key", key, "bytes", len(data))
	return key, nil
}

func (s *S3ImageStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return storageErr("delete image", err)
	}
	return nil
}

func (s *S3ImageStore) URL(key string) string {
	return s.publicURL + "/" + key
}

// LocalImageStore writes images below a media directory served at publicURL.
type LocalImageStore struct {
	dir       string
	publicURL string
	prefix    string
}

func NewLocalImageStore(dir, publicURL, prefix string) (*LocalImageStore, error) {
	if publicURL == "" {
		publicURL = "/media"
	}
	if err := os.MkdirAll(filepath.Join(dir, filepath.FromSlash(prefix)), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &LocalImageStore{
		dir:       dir,
		publicURL: strings.TrimRight(publicURL, "/"),
		prefix:    prefix,
	}, nil
}

func (s *LocalImageStore) Save(_ context.Context, data []byte, contentType string) (string, error) {
	key := newImageKey(s.prefix, contentType)
	if err := os.WriteFile(s.path(key), data, 0o644); err != nil {
		return "", storageErr("write image", err)
	}
	return key, nil
}

func (s *LocalImageStore) Delete(_ context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return storageErr("delete image", err)
	}
	return nil
}

func (s *LocalImageStore) URL(key string) string {
	return s.publicURL + "/" + key
}

// Dir is the media root, for serving files.
func (s *LocalImageStore) Dir() string {
	return s.dir
}

func (s *LocalImageStore) path(key string) string {
	return filepath.Join(s.dir, filepath.FromSlash(path.Clean("/"+key)))
}

// NewImageStore builds the store selected by cfg.Backend.
func NewImageStore(ctx context.Context, cfg config.StorageConfig, log *slog.Logger) (ImageStore, error) {
	switch cfg.Backend {
	case "s3":
		s3Cfg, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
		}
		log.Info("storing images in S3", "bucket", s3Cfg.BucketName)
		return NewS3ImageStore(s3Cfg.Client, s3Cfg.BucketName, s3Cfg.PublicURL, cfg.KeyPrefix, log), nil
	case "local", "":
		log.Info("storing images on disk", "dir", cfg.LocalDir)
		return NewLocalImageStore(cfg.LocalDir, cfg.PublicURL, cfg.KeyPrefix)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}
