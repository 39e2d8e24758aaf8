package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	apierrors "github.com/pribylovaa/go-profile-auth/internal/http/errors"
	logctx "github.com/pribylovaa/go-profile-auth/internal/pkg/log"
	"github.com/pribylovaa/go-profile-auth/internal/tokens"
)

// AccessVerifier проверяет access-токен и возвращает его subject.
// Реализуется *tokens.Manager.
type AccessVerifier interface {
	VerifyAccess(token string) (uuid.UUID, error)
}

type userIDKey struct{}

// Authenticate — шлюз авторизации для защищённых маршрутов.
//
// Поведение:
//   - заголовок Authorization должен иметь вид "Bearer <token>" (схема без учёта
//     регистра, токен непустой), иначе 401 missing_token;
//   - любая ошибка проверки токена даёт 401 invalid_token с одинаковым
//     сообщением; причина пишется только в лог;
//   - при успехе subject кладётся в контекст (UserIDFrom), логгер запроса
//     обогащается user_id.
func Authenticate(v AccessVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lg := logctx.From(r.Context())

			raw, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				lg.Info("auth_rejected", slog.String("reason", "missing_token"))
				apierrors.WriteError(w, r, apierrors.ErrMissingOrMalformedToken)
				return
			}

			userID, err := v.VerifyAccess(raw)
			if err != nil {
				lg.Info("auth_rejected", slog.String("reason", tokens.Reason(err)))
				apierrors.WriteError(w, r, apierrors.ErrInvalidToken)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey{}, userID)
			ctx = logctx.With(ctx, slog.String("user_id", userID.String()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFrom возвращает subject, положенный Authenticate.
func UserIDFrom(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey{}).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// WithUserID кладёт subject в контекст (для тестов хендлеров).
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}

	return token, true
}
