package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-profile-auth/internal/models"
	"github.com/pribylovaa/go-profile-auth/internal/password"
	logctx "github.com/pribylovaa/go-profile-auth/internal/pkg/log"
	"github.com/pribylovaa/go-profile-auth/internal/pkg/redact"
	"github.com/pribylovaa/go-profile-auth/internal/storage"
	"github.com/pribylovaa/go-profile-auth/internal/tokens"
)

// RegisterInput — поля регистрации. Обязательны Username, Email, Password,
// Age, Gender и Location.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Age         int
	Gender      string
	Location    string
	Interests   []string
	Bio         string
	Preferences *PreferencesInput
}

// Register регистрирует нового пользователя и выдаёт пару токенов.
// Пара выпускается до записи в хранилище: сбой выпуска не оставляет записи.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	const op = "service.auth.Register"

	user, err := newUserFromInput(in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.ensureUnique(ctx, user.Username, user.Email, uuid.Nil); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user.PasswordHash, err = s.hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user.ID = uuid.New()
	now := s.now()
	user.CreatedAt, user.UpdatedAt = now, now

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrDuplicateIdentity)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logctx.From(ctx).Info("user_registered",
		slog.String("user_id", user.ID.String()),
		slog.String("email", redact.Email(user.Email)),
	)

	return &RegisterResult{User: user, Tokens: pair}, nil
}

// Login проверяет email и пароль и выдаёт пару токенов.
func (s *Service) Login(ctx context.Context, email, plain string) (*models.TokenPair, *models.User, error) {
	const op = "service.auth.Login"

	lg := logctx.From(ctx)

	normEmail := strings.ToLower(strings.TrimSpace(email))
	if normEmail == "" {
		return nil, nil, fmt.Errorf("%s: %w", op, invalid("email", "is required"))
	}

	if plain == "" {
		return nil, nil, fmt.Errorf("%s: %w", op, invalid("password", "is required"))
	}

	user, err := s.storage.UserByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Info("login_unknown_email", slog.String("email", redact.Email(normEmail)))
			return nil, nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if !s.hasher.Verify(plain, user.PasswordHash) {
		lg.Info("login_invalid_password", slog.String("user_id", user.ID.String()))
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("user_logged_in", slog.String("user_id", user.ID.String()))

	return pair, user, nil
}

// Refresh выдаёт новый access-токен по refresh-токену.
// Сам refresh-токен не ротируется и остаётся действительным до своего exp.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AccessGrant, error) {
	const op = "service.auth.Refresh"

	lg := logctx.From(ctx)

	if strings.TrimSpace(refreshToken) == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNoRefreshToken)
	}

	userID, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		lg.Info("refresh_token_rejected", slog.String("reason", tokens.Reason(err)))
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidOrExpiredRefreshToken)
	}

	if _, err := s.storage.UserByID(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Info("refresh_subject_missing", slog.String("user_id", userID.String()))
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidOrExpiredRefreshToken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	access, exp, err := s.tokens.IssueAccess(userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &AccessGrant{AccessToken: access, ExpiresAt: exp}, nil
}

// Logout завершает сессию на стороне клиента: серверного состояния нет,
// транспорт очищает cookie. Всегда успешен.
func (s *Service) Logout(ctx context.Context, refreshToken string) {
	lg := logctx.From(ctx)

	userID, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		lg.Debug("logout_without_valid_token", slog.String("reason", tokens.Reason(err)))
		return
	}

	lg.Info("user_logged_out", slog.String("user_id", userID.String()))
}

// newUserFromInput проверяет поля регистрации и собирает модель без ID и хэша.
func newUserFromInput(in RegisterInput) (*models.User, error) {
	username, err := validateUsername(in.Username)
	if err != nil {
		return nil, err
	}

	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}

	if in.Password == "" {
		return nil, invalid("password", "is required")
	}

	if in.Age == 0 {
		return nil, invalid("age", "is required")
	}

	if err := validateAge(in.Age); err != nil {
		return nil, err
	}

	gender, err := validateGender(in.Gender)
	if err != nil {
		return nil, err
	}

	location := strings.TrimSpace(in.Location)
	if location == "" {
		return nil, invalid("location", "is required")
	}

	bio := strings.TrimSpace(in.Bio)
	if err := validateBio(bio); err != nil {
		return nil, err
	}

	prefs, err := validatePreferences(in.Preferences)
	if err != nil {
		return nil, err
	}

	return &models.User{
		Username:    username,
		Email:       email,
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		Age:         in.Age,
		Gender:      gender,
		Location:    location,
		Interests:   cleanInterests(in.Interests),
		Bio:         bio,
		Preferences: prefs,
	}, nil
}

// ensureUnique проверяет, что username и email не заняты кем-то, кроме self.
func (s *Service) ensureUnique(ctx context.Context, username, email string, self uuid.UUID) error {
	if username != "" {
		u, err := s.storage.UserByUsername(ctx, username)
		switch {
		case err == nil && u.ID != self:
			return ErrDuplicateIdentity
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			return err
		}
	}

	if email != "" {
		u, err := s.storage.UserByEmail(ctx, email)
		switch {
		case err == nil && u.ID != self:
			return ErrDuplicateIdentity
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			return err
		}
	}

	return nil
}

func (s *Service) hashPassword(plain string) (string, error) {
	hash, err := s.hasher.Hash(plain)
	if err != nil {
		if errors.Is(err, password.ErrPasswordTooLong) {
			return "", invalid("password", "is too long")
		}

		return "", err
	}

	return hash, nil
}
