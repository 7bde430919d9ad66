package moderation

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
)

// S3Evidence archives the full flagged content to object storage before the
// bounded snippet is persisted. Archiving is best-effort from the caller's
// point of view.
type S3Evidence struct {
	client *minio.Client
	bucket string

	ensureOnce sync.Once
	ensureErr  error
}

func NewS3Evidence(client *minio.Client, bucket string) *S3Evidence {
	return &S3Evidence{
		client: client,
		bucket: strings.TrimSpace(bucket),
	}
}

func (s *S3Evidence) EnsureBucket(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("s3 client is nil")
	}
	if s.bucket == "" {
		return fmt.Errorf("s3 bucket is empty")
	}

	s.ensureOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.ensureErr = err
			return
		}
		if exists {
			return
		}
		s.ensureErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	})

	if s.ensureErr != nil {
		return fmt.Errorf("ensure s3 bucket %q: %w", s.bucket, s.ensureErr)
	}

	return nil
}

func (s *S3Evidence) Archive(ctx context.Context, accountID int64, violationID, contentText string) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("s3 client is nil")
	}
	if violationID == "" || contentText == "" {
		return "", fmt.Errorf("invalid evidence payload")
	}

	if err := s.EnsureBucket(ctx); err != nil {
		return "", err
	}

	key := fmt.Sprintf("violations/%d/%s.txt", accountID, violationID)
	reader := strings.NewReader(contentText)
	_, err := s.client.PutObject(ctx, s.bucket, key, reader, int64(len(contentText)), minio.PutObjectOptions{
		ContentType: "text/plain; charset=utf-8",
	})
	if err != nil {
		return "", fmt.Errorf("archive violation evidence: %w", err)
	}

	return key, nil
}
