package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-profile-auth/internal/models"
	logctx "github.com/pribylovaa/go-profile-auth/internal/pkg/log"
	"github.com/pribylovaa/go-profile-auth/internal/storage"
)

// AvatarUploadURL выдаёт presigned PUT для загрузки аватара пользователя.
func (s *Service) AvatarUploadURL(ctx context.Context, userID uuid.UUID, contentType string, size int64) (*storage.UploadInfo, error) {
	const op = "service.avatars.AvatarUploadURL"

	if s.avatars == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrAvatarsDisabled)
	}

	info, err := s.avatars.AvatarUploadURL(ctx, userID, contentType, size)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidArgument) {
			return nil, fmt.Errorf("%s: %w", op, invalid("avatar", "content type or size is not allowed"))
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return info, nil
}

// ConfirmAvatar проверяет загруженный объект и сохраняет его URL в профиле.
func (s *Service) ConfirmAvatar(ctx context.Context, userID uuid.UUID, key string) (*models.User, error) {
	const op = "service.avatars.ConfirmAvatar"

	if s.avatars == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrAvatarsDisabled)
	}

	if key == "" {
		return nil, fmt.Errorf("%s: %w", op, invalid("avatarKey", "is required"))
	}

	url, err := s.avatars.CheckAvatarUpload(ctx, userID, key)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidArgument):
			return nil, fmt.Errorf("%s: %w", op, invalid("avatarKey", "object is not acceptable"))
		case errors.Is(err, storage.ErrNotFound):
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.UpdateUser(ctx, userID, storage.UserUpdate{ProfilePicture: &url})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logctx.From(ctx).Info("avatar_confirmed", slog.String("user_id", userID.String()))

	return user, nil
}
