package minio

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	mclient "github.com/minio/minio-go/v7"
	"github.com/pribylovaa/go-profile-auth/internal/storage"
)

var extByContentType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// avatarPrefix — все аватары пользователя лежат под avatars/<userID>/.
func avatarPrefix(userID uuid.UUID) string {
	return "avatars/" + userID.String() + "/"
}

// AvatarUploadURL генерирует presigned PUT URL с ключом avatars/<userID>/<uuid>.<ext>.
// Тип и размер проверяются по конфигу; нарушения — storage.ErrInvalidArgument.
func (a *Avatars) AvatarUploadURL(ctx context.Context, userID uuid.UUID, contentType string, contentLength int64) (*storage.UploadInfo, error) {
	const op = "storage.minio.AvatarUploadURL"

	if contentLength <= 0 || contentLength > a.limits.MaxSizeBytes {
		return nil, fmt.Errorf("%s: size %d: %w", op, contentLength, storage.ErrInvalidArgument)
	}

	if !slices.Contains(a.limits.AllowedContentTypes, contentType) {
		return nil, fmt.Errorf("%s: content type %q: %w", op, contentType, storage.ErrInvalidArgument)
	}

	key := path.Join("avatars", userID.String(), uuid.NewString()+extByContentType[contentType])

	u, err := a.client.PresignedPutObject(ctx, a.s3.Bucket, key, a.s3.PresignTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &storage.UploadInfo{
		UploadURL: u.String(),
		AvatarKey: key,
		Expires:   a.s3.PresignTTL,
		RequiredHeaders: map[string]string{
			"Content-Type":   contentType,
			"Content-Length": strconv.FormatInt(contentLength, 10),
		},
	}, nil
}

// CheckAvatarUpload проверяет, что объект с ключом пользователя существует и
// удовлетворяет ограничениям. Возвращает публичный URL (PublicBaseURL + key)
// или сам ключ, если публичная база не задана.
func (a *Avatars) CheckAvatarUpload(ctx context.Context, userID uuid.UUID, key string) (string, error) {
	const op = "storage.minio.CheckAvatarUpload"

	if !strings.HasPrefix(key, avatarPrefix(userID)) || strings.Contains(key, "..") {
		return "", fmt.Errorf("%s: foreign key: %w", op, storage.ErrInvalidArgument)
	}

	info, err := a.client.StatObject(ctx, a.s3.Bucket, key, mclient.StatObjectOptions{})
	if err != nil {
		resp := mclient.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	if info.Size <= 0 || info.Size > a.limits.MaxSizeBytes {
		return "", fmt.Errorf("%s: size %d: %w", op, info.Size, storage.ErrInvalidArgument)
	}

	if ct := info.ContentType; ct != "" && !slices.Contains(a.limits.AllowedContentTypes, ct) {
		return "", fmt.Errorf("%s: content type %q: %w", op, ct, storage.ErrInvalidArgument)
	}

	if a.s3.PublicBaseURL == "" {
		return key, nil
	}

	return strings.TrimRight(a.s3.PublicBaseURL, "/") + "/" + key, nil
}
