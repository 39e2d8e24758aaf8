// minio предоставляет реализацию storage.Avatars на базе MinIO/S3:
// presigned PUT для загрузки аватара и подтверждение факта загрузки.
package minio

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pribylovaa/go-profile-auth/internal/config"
	"github.com/pribylovaa/go-profile-auth/internal/storage"
)

// Avatars — адаптер MinIO для операций с аватарами.
type Avatars struct {
	s3     config.S3Config
	limits config.AvatarConfig
	client *mclient.Client
}

// New создает клиент MinIO. Схема в endpoint определяет Secure;
// отсутствие бакета — ошибка на старте.
func New(ctx context.Context, s3 config.S3Config, limits config.AvatarConfig) (*Avatars, error) {
	const op = "storage.minio.New"

	endpoint := s3.Endpoint
	secure := strings.HasPrefix(endpoint, "https://")

	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" && u.Host != "" {
		endpoint = u.Host
		secure = u.Scheme == "https"
	}

	client, err := mclient.New(endpoint, &mclient.Options{
		Creds:  credentials.NewStaticV4(s3.RootUser, s3.RootPassword, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := client.BucketExists(ctx, s3.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !exists {
		return nil, fmt.Errorf("%s: bucket %q does not exist", op, s3.Bucket)
	}

	return &Avatars{s3: s3, limits: limits, client: client}, nil
}

var _ storage.Avatars = (*Avatars)(nil)
