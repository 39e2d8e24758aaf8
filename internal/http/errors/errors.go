// errors стандартизирует ответы об ошибках HTTP-слоя.
// На вход принимает ошибку сервисного слоя или мидлвара, на выход даёт:
//   - корректный HTTP-статус;
//   - стабильный машиночитаемый code;
//   - краткое безопасное message без утечки деталей.
//
// Маппинг живёт только здесь: хендлеры и мидлвары не выбирают статусы сами.
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	logctx "github.com/pribylovaa/go-profile-auth/internal/pkg/log"
	"github.com/pribylovaa/go-profile-auth/internal/service"
)

// Нестандартный код, часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

var (
	// ErrMissingOrMalformedToken — нет заголовка Authorization или он не вида "Bearer <token>".
	ErrMissingOrMalformedToken = stderrors.New("missing or malformed authorization header")

	// ErrInvalidToken — access-токен не прошёл проверку (любая причина).
	ErrInvalidToken = stderrors.New("invalid or expired token")

	// ErrInvalidArgument — тело или параметры запроса не разбираются.
	ErrInvalidArgument = stderrors.New("invalid argument")

	// ErrRouteNotFound — маршрут не существует.
	ErrRouteNotFound = stderrors.New("route not found")

	// ErrMethodNotAllowed — маршрут есть, метод не поддерживается.
	ErrMethodNotAllowed = stderrors.New("method not allowed")
)

// APIError — единый формат ошибки для фронта.
// Code — короткий стабильный код; Message — безопасное описание;
// Field — поле, не прошедшее валидацию; RequestID — из X-Request-Id.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку в HTTP-статус и унифицированный ответ.
//
// Поведение:
//   - err == nil — программная ошибка вызова: 500/internal, чтобы не
//     отправить "200 OK" с телом ошибки;
//   - известные sentinel-ошибки маппятся по таблице ниже;
//   - всё остальное — 500/internal без деталей.
func ToHTTP(err error) (int, ErrorResponse) {
	if err == nil {
		return internal()
	}

	var ve *service.ValidationError
	if stderrors.As(err, &ve) {
		return http.StatusBadRequest, ErrorResponse{
			Error: APIError{
				Code:    "validation_failed",
				Message: ve.Field + ": " + ve.Reason,
				Field:   ve.Field,
			},
		}
	}

	status, code, msg := base(err)
	return status, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

// WriteError — хелпер для HTTP-хендлеров и мидлваров.
// Пишет статус и тело, добавляет request id из заголовка запроса.
// Причина внутренних ошибок логируется только на сервере.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if status >= http.StatusInternalServerError && err != nil {
		logctx.From(r.Context()).Error("request_failed",
			slog.Int("status", status),
			slog.String("err", err.Error()),
		)
	}

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// base — маппинг sentinel-ошибок на HTTP/FE-код/сообщение:
//   - ValidationFailed без поля -> 400, bad JSON -> 400
//   - DuplicateIdentity -> 409
//   - NotFound -> 404
//   - InvalidCredentials, токены, refresh -> 401
//   - Forbidden -> 403
//   - AvatarsDisabled -> 501
//   - Canceled -> 499, DeadlineExceeded -> 504
//   - прочее -> 500/internal
func base(err error) (int, string, string) {
	switch {
	case stderrors.Is(err, service.ErrValidationFailed):
		return http.StatusBadRequest, "validation_failed", "validation failed"
	case stderrors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument", "invalid request body"
	case stderrors.Is(err, service.ErrDuplicateIdentity):
		return http.StatusConflict, "duplicate_identity", "username or email already taken"
	case stderrors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found", "not found"
	case stderrors.Is(err, ErrRouteNotFound):
		return http.StatusNotFound, "not_found", "route not found"
	case stderrors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed"
	case stderrors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials", "invalid credentials"
	case stderrors.Is(err, ErrMissingOrMalformedToken):
		return http.StatusUnauthorized, "missing_token", "authorization header missing or malformed"
	case stderrors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized, "invalid_token", "invalid or expired token"
	case stderrors.Is(err, service.ErrNoRefreshToken):
		return http.StatusUnauthorized, "no_refresh_token", "refresh token is missing"
	case stderrors.Is(err, service.ErrInvalidOrExpiredRefreshToken):
		return http.StatusUnauthorized, "invalid_refresh_token", "invalid or expired refresh token"
	case stderrors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "forbidden", "forbidden"
	case stderrors.Is(err, service.ErrAvatarsDisabled):
		return http.StatusNotImplemented, "not_implemented", "avatar upload is not configured"
	case stderrors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "canceled", "canceled"
	case stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}

func internal() (int, ErrorResponse) {
	return http.StatusInternalServerError, ErrorResponse{
		Error: APIError{
			Code:    "internal",
			Message: "internal error",
		},
	}
}
