// service содержит бизнес-логику сервиса: регистрацию, вход, обновление
// access-токена по refresh-токену, выход, а также профиль пользователя,
// публикации и аватары.
//
// Основные аспекты:
//   - Service не хранит состояние запроса; экземпляр безопасен для
//     конкурентного использования при потокобезопасном storage.Storage.
//   - Ошибки — sentinel-значения ниже; транспорт маппит их на HTTP-статусы
//     в одном месте (internal/http/errors).
package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/pribylovaa/go-profile-auth/internal/models"
	"github.com/pribylovaa/go-profile-auth/internal/password"
	"github.com/pribylovaa/go-profile-auth/internal/storage"
	"github.com/pribylovaa/go-profile-auth/internal/tokens"
)

var (
	// ErrValidationFailed — отсутствуют обязательные поля или нарушены доменные правила.
	// Транспорт: HTTP 400. Обычно приходит обёрнутой в *ValidationError.
	ErrValidationFailed = errors.New("validation failed")

	// ErrDuplicateIdentity — username или email уже заняты. Транспорт: HTTP 409.
	ErrDuplicateIdentity = errors.New("username or email already taken")

	// ErrNotFound — пользователь/публикация не найдены. Транспорт: HTTP 404.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCredentials — пароль не совпал с сохранённым хэшем. Транспорт: HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNoRefreshToken — refresh-токен не передан. Транспорт: HTTP 401.
	ErrNoRefreshToken = errors.New("no refresh token")

	// ErrInvalidOrExpiredRefreshToken — refresh-токен не прошёл проверку или
	// его subject больше не существует. Транспорт: HTTP 401.
	ErrInvalidOrExpiredRefreshToken = errors.New("invalid or expired refresh token")

	// ErrForbidden — операция над чужим ресурсом. Транспорт: HTTP 403.
	ErrForbidden = errors.New("forbidden")

	// ErrAvatarsDisabled — хранилище аватаров не сконфигурировано. Транспорт: HTTP 501.
	ErrAvatarsDisabled = errors.New("avatar storage is not configured")
)

// ValidationError описывает нарушенное правило конкретного поля.
// errors.Is(err, ErrValidationFailed) для неё истинно.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidationFailed, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Service описывает бизнес-логику сервиса.
type Service struct {
	storage storage.Storage
	hasher  *password.Hasher
	tokens  *tokens.Manager
	avatars storage.Avatars // может быть nil, если S3 не сконфигурирован
	now     func() time.Time
}

// New создаёт новый экземпляр Service.
func New(st storage.Storage, hasher *password.Hasher, tm *tokens.Manager) *Service {
	return &Service{
		storage: st,
		hasher:  hasher,
		tokens:  tm,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetAvatars подключает хранилище аватаров (опционально).
func (s *Service) SetAvatars(a storage.Avatars) {
	s.avatars = a
}

// AvatarsEnabled сообщает, подключено ли хранилище аватаров.
func (s *Service) AvatarsEnabled() bool {
	return s.avatars != nil
}

// AccessGrant — новый access-токен, выданный по refresh-токену.
type AccessGrant struct {
	AccessToken string
	ExpiresAt   time.Time
}

// RegisterResult — созданный пользователь и выданная пара токенов.
type RegisterResult struct {
	User   *models.User
	Tokens *models.TokenPair
}
