package storage

//go:generate mockgen -source=avatars.go -destination=../../mocks/mock_avatars.go -package=mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UploadInfo — информация для клиента о presigned PUT загрузке.
//   - UploadURL: конечная URL для PUT-запроса.
//   - AvatarKey: ключ будущего объекта в бакете.
//   - Expires: время жизни подписи.
//   - RequiredHeaders: заголовки, которые клиент обязан передать при PUT.
type UploadInfo struct {
	UploadURL       string
	AvatarKey       string
	Expires         time.Duration
	RequiredHeaders map[string]string
}

// Avatars — генерация presigned URL и подтверждение факта загрузки.
type Avatars interface {
	// AvatarUploadURL генерирует presigned PUT с проверкой типа и размера.
	AvatarUploadURL(ctx context.Context, userID uuid.UUID, contentType string, contentLength int64) (*UploadInfo, error)
	// CheckAvatarUpload проверяет загруженный объект и возвращает его URL.
	CheckAvatarUpload(ctx context.Context, userID uuid.UUID, key string) (string, error)
}
