// Package storage хранит загруженные изображения (документы, фото, подтверждения доставки)
// в MinIO/S3; в базе остается только публичный URL объекта.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"ship-swift/internal/apperrors"
	"ship-swift/internal/config"
	"ship-swift/internal/logger"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"
)

// Kind представляет тип загружаемого файла; определяет префикс ключа объекта
type Kind string

const (
	KindIDDocument   Kind = "id-documents"
	KindVehiclePhoto Kind = "vehicle-photos"
	KindProfilePhoto Kind = "profile-photos"
	KindProof        Kind = "proofs"
)

var allowedContentTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// objectStore описывает используемую часть клиента minio
type objectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// Storage представляет объектное хранилище загрузок
type Storage struct {
	client  objectStore
	bucket  string
	region  string
	baseURL string
	maxSize int64
	log     *logrus.Entry
}

// New создает клиента MinIO из конфигурации
func New(cfg *config.StorageConfig, log *logger.Logger) (*Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init minio: %w", err)
	}
	return newStorage(client, cfg, log), nil
}

func newStorage(client objectStore, cfg *config.StorageConfig, log *logger.Logger) *Storage {
	return &Storage{
		client:  client,
		bucket:  cfg.Bucket,
		region:  cfg.Region,
		baseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		maxSize: cfg.MaxUploadSize,
		log:     log.ForComponent("storage"),
	}
}

// EnsureBucket создает бакет, если его еще нет
func (s *Storage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("failed to make bucket %s: %w", s.bucket, err)
	}
	s.log.WithField("bucket", s.bucket).Info("Bucket created")
	return nil
}

// Upload сохраняет файл владельца и возвращает его публичный URL
func (s *Storage) Upload(ctx context.Context, kind Kind, ownerID string, reader io.Reader, size int64, contentType string) (string, error) {
	ext, ok := allowedContentTypes[contentType]
	if !ok {
		return "", apperrors.Validationf("unsupported content type %q", contentType)
	}
	if size <= 0 {
		return "", apperrors.Validationf("empty upload")
	}
	if s.maxSize > 0 && size > s.maxSize {
		return "", apperrors.Validationf("upload of %d bytes exceeds limit of %d bytes", size, s.maxSize)
	}

	key := ObjectKey(kind, ownerID, ext)
	if _, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return "", apperrors.Downstream(fmt.Errorf("failed to upload object %s: %w", key, err))
	}

	s.log.WithFields(logrus.Fields{
		"key":          key,
		"size":         size,
		"content_type": contentType,
	}).Info("Object uploaded")

	return s.URL(key), nil
}

// Remove удаляет объект по его публичному URL
func (s *Storage) Remove(ctx context.Context, url string) error {
	key, ok := s.KeyFromURL(url)
	if !ok {
		return apperrors.Validationf("url %s does not belong to bucket %s", url, s.bucket)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return apperrors.Downstream(fmt.Errorf("failed to remove object %s: %w", key, err))
	}
	return nil
}

// URL возвращает публичный адрес объекта
func (s *Storage) URL(key string) string {
	return s.baseURL + "/" + s.bucket + "/" + key
}

// KeyFromURL извлекает ключ объекта из публичного URL
func (s *Storage) KeyFromURL(url string) (string, bool) {
	prefix := s.baseURL + "/" + s.bucket + "/"
	if !strings.HasPrefix(url, prefix) || len(url) == len(prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

// ObjectKey строит ключ вида <kind>/<owner>/<yyyy/mm/dd>/<uuid><ext>
func ObjectKey(kind Kind, ownerID, ext string) string {
	return path.Join(string(kind), ownerID, time.Now().UTC().Format("2006/01/02"), uuid.NewString()+ext)
}
