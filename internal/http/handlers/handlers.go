package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	apierrors "github.com/pribylovaa/go-profile-auth/internal/http/errors"
	"github.com/pribylovaa/go-profile-auth/internal/http/middleware"
	"github.com/pribylovaa/go-profile-auth/internal/models"
	"github.com/pribylovaa/go-profile-auth/internal/service"
	"github.com/pribylovaa/go-profile-auth/internal/storage"
)

// maxBodyBytes ограничивает размер JSON-тела запроса.
const maxBodyBytes = 1 << 20

// Service — операции сервисного слоя, которые вызывают хендлеры.
// Реализуется *service.Service.
type Service interface {
	Register(ctx context.Context, in service.RegisterInput) (*service.RegisterResult, error)
	Login(ctx context.Context, email, password string) (*models.TokenPair, *models.User, error)
	Refresh(ctx context.Context, refreshToken string) (*service.AccessGrant, error)
	Logout(ctx context.Context, refreshToken string)

	GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, in service.ProfileInput) (*models.User, error)
	AvatarUploadURL(ctx context.Context, userID uuid.UUID, contentType string, size int64) (*storage.UploadInfo, error)
	ConfirmAvatar(ctx context.Context, userID uuid.UUID, key string) (*models.User, error)

	ListPosts(ctx context.Context, limit, offset int) ([]models.Post, error)
	CreatePost(ctx context.Context, authorID uuid.UUID, title, content string) (*models.Post, error)
	UpdatePost(ctx context.Context, userID, postID uuid.UUID, patch service.PostPatch) (*models.Post, error)
	DeletePost(ctx context.Context, userID, postID uuid.UUID) error
}

// CookieOptions — параметры cookie с refresh-токеном.
type CookieOptions struct {
	Name   string
	Path   string
	Domain string
	Secure bool
	MaxAge time.Duration
}

// Handlers агрегирует зависимости хендлеров.
type Handlers struct {
	svc    Service
	cookie CookieOptions
}

func New(svc Service, cookie CookieOptions) *Handlers {
	if cookie.Name == "" {
		cookie.Name = "refreshToken"
	}
	if cookie.Path == "" {
		cookie.Path = "/auth"
	}

	return &Handlers{svc: svc, cookie: cookie}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля и хвост после объекта.
func decodeStrict(w http.ResponseWriter, r *http.Request, value any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(value); err != nil {
		return fmt.Errorf("%w: %v", apierrors.ErrInvalidArgument, err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data after json object", apierrors.ErrInvalidArgument)
	}

	return nil
}

// currentUser достаёт subject, положенный шлюзом авторизации.
func currentUser(r *http.Request) (uuid.UUID, error) {
	id, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		return uuid.Nil, apierrors.ErrMissingOrMalformedToken
	}
	return id, nil
}
