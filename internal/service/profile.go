package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-profile-auth/internal/models"
	logctx "github.com/pribylovaa/go-profile-auth/internal/pkg/log"
	"github.com/pribylovaa/go-profile-auth/internal/storage"
)

// ProfileInput — частичное обновление профиля: nil-поля не меняются.
type ProfileInput struct {
	Username    *string
	Email       *string
	Password    *string
	FirstName   *string
	LastName    *string
	Age         *int
	Gender      *string
	Location    *string
	Interests   *[]string
	Bio         *string
	Preferences *PreferencesInput
}

// GetProfile возвращает пользователя по ID.
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	const op = "service.profile.GetProfile"

	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UpdateProfile проверяет и применяет частичное обновление.
// Email нормализуется, уникальность username/email перепроверяется,
// пароль перехэшируется только если передан.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (*models.User, error) {
	const op = "service.profile.UpdateProfile"

	upd, err := s.buildUserUpdate(in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if upd.Empty() {
		return s.GetProfile(ctx, userID)
	}

	var username, email string
	if upd.Username != nil {
		username = *upd.Username
	}
	if upd.Email != nil {
		email = *upd.Email
	}

	if err := s.ensureUnique(ctx, username, email, userID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.UpdateUser(ctx, userID, upd)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		case errors.Is(err, storage.ErrAlreadyExists):
			return nil, fmt.Errorf("%s: %w", op, ErrDuplicateIdentity)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logctx.From(ctx).Info("profile_updated",
		slog.String("user_id", userID.String()),
		slog.Bool("password_changed", upd.PasswordHash != nil),
	)

	return user, nil
}

func (s *Service) buildUserUpdate(in ProfileInput) (storage.UserUpdate, error) {
	var upd storage.UserUpdate

	if in.Username != nil {
		username, err := validateUsername(*in.Username)
		if err != nil {
			return upd, err
		}
		upd.Username = &username
	}

	if in.Email != nil {
		email, err := normalizeEmail(*in.Email)
		if err != nil {
			return upd, err
		}
		upd.Email = &email
	}

	if in.Password != nil {
		if *in.Password == "" {
			return upd, invalid("password", "must not be empty")
		}

		hash, err := s.hashPassword(*in.Password)
		if err != nil {
			return upd, err
		}
		upd.PasswordHash = &hash
	}

	if in.FirstName != nil {
		v := strings.TrimSpace(*in.FirstName)
		upd.FirstName = &v
	}

	if in.LastName != nil {
		v := strings.TrimSpace(*in.LastName)
		upd.LastName = &v
	}

	if in.Age != nil {
		if err := validateAge(*in.Age); err != nil {
			return upd, err
		}
		upd.Age = in.Age
	}

	if in.Gender != nil {
		g, err := validateGender(*in.Gender)
		if err != nil {
			return upd, err
		}
		upd.Gender = &g
	}

	if in.Location != nil {
		v := strings.TrimSpace(*in.Location)
		if v == "" {
			return upd, invalid("location", "must not be empty")
		}
		upd.Location = &v
	}

	if in.Interests != nil {
		v := cleanInterests(*in.Interests)
		upd.Interests = &v
	}

	if in.Bio != nil {
		v := strings.TrimSpace(*in.Bio)
		if err := validateBio(v); err != nil {
			return upd, err
		}
		upd.Bio = &v
	}

	if in.Preferences != nil {
		prefs, err := validatePreferences(in.Preferences)
		if err != nil {
			return upd, err
		}
		upd.Preferences = &prefs
	}

	return upd, nil
}
