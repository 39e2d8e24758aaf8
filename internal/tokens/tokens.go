// tokens выпускает и проверяет подписанные JWT (HS256) двух видов:
// короткоживущие access-токены и долгоживущие refresh-токены.
//
// Оба вида подписываются одним секретом, переданным при создании Manager,
// и несут subject (ID пользователя), тип токена и уникальный jti, поэтому
// два выпуска никогда не дают одинаковую строку. Окна жизни задаются
// раздельно и проверяются при создании: access обязан быть короче refresh.
//
// Ошибки проверки — sentinel-значения (ErrEmpty, ErrMalformed,
// ErrSignatureInvalid, ErrExpired, ErrWrongType); паник наружу нет.
package tokens

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pribylovaa/go-profile-auth/internal/config"
	"github.com/pribylovaa/go-profile-auth/internal/models"
)

// Тип токена в claim "typ".
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var (
	// ErrEmpty — токен отсутствует или состоит из пробелов.
	ErrEmpty = errors.New("token is empty")
	// ErrMalformed — токен не разбирается или содержит некорректные claims.
	ErrMalformed = errors.New("token is malformed")
	// ErrSignatureInvalid — подпись не совпадает с секретом или алгоритм не HS256.
	ErrSignatureInvalid = errors.New("token signature is invalid")
	// ErrExpired — подпись верна, но срок действия истёк.
	ErrExpired = errors.New("token is expired")
	// ErrWrongType — предъявлен токен другого вида (refresh вместо access и наоборот).
	ErrWrongType = errors.New("token has wrong type")
)

type claims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// Manager — выпуск и проверка токенов. Безопасен для конкурентного использования.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	leeway     time.Duration
	issuer     string
	audience   []string
	now        func() time.Time
}

// Option настраивает Manager.
type Option func(*Manager)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// New создаёт Manager из конфигурации. Секрет не генерируется здесь:
// он обязан прийти извне.
func New(cfg config.AuthConfig, opts ...Option) (*Manager, error) {
	const op = "tokens.New"

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%s: empty signing secret", op)
	}

	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, fmt.Errorf("%s: token ttl must be > 0", op)
	}

	if cfg.AccessTokenTTL >= cfg.RefreshTokenTTL {
		return nil, fmt.Errorf("%s: access ttl %s must be shorter than refresh ttl %s", op, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	}

	if cfg.Leeway < 0 {
		return nil, fmt.Errorf("%s: negative leeway", op)
	}

	m := &Manager{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		leeway:     cfg.Leeway,
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// AccessTTL возвращает окно жизни access-токена.
func (m *Manager) AccessTTL() time.Duration { return m.accessTTL }

// RefreshTTL возвращает окно жизни refresh-токена.
func (m *Manager) RefreshTTL() time.Duration { return m.refreshTTL }

// IssueAccess выпускает access-токен для пользователя.
func (m *Manager) IssueAccess(userID uuid.UUID) (string, time.Time, error) {
	return m.issue(userID, TypeAccess, m.accessTTL)
}

// IssueRefresh выпускает refresh-токен для пользователя.
func (m *Manager) IssueRefresh(userID uuid.UUID) (string, time.Time, error) {
	return m.issue(userID, TypeRefresh, m.refreshTTL)
}

// IssuePair выпускает access и refresh для одного subject.
func (m *Manager) IssuePair(userID uuid.UUID) (*models.TokenPair, error) {
	const op = "tokens.IssuePair"

	access, accessExp, err := m.IssueAccess(userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refresh, refreshExp, err := m.IssueRefresh(userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// VerifyAccess проверяет access-токен и возвращает subject.
func (m *Manager) VerifyAccess(token string) (uuid.UUID, error) {
	return m.verify(token, TypeAccess)
}

// VerifyRefresh проверяет refresh-токен и возвращает subject.
func (m *Manager) VerifyRefresh(token string) (uuid.UUID, error) {
	return m.verify(token, TypeRefresh)
}

func (m *Manager) issue(userID uuid.UUID, typ string, ttl time.Duration) (string, time.Time, error) {
	const op = "tokens.issue"

	if userID == uuid.Nil {
		return "", time.Time{}, fmt.Errorf("%s: empty subject", op)
	}

	now := m.now().UTC()
	exp := jwt.NewNumericDate(now.Add(ttl))

	c := claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings(m.audience),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: exp,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	return signed, exp.Time.UTC(), nil
}

func (m *Manager) verify(raw, typ string) (uuid.UUID, error) {
	const op = "tokens.verify"

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrEmpty)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(m.leeway),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if len(m.audience) > 0 {
		opts = append(opts, jwt.WithAudience(m.audience...))
	}

	var c claims
	token, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, classify(err))
	}

	if !token.Valid {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrMalformed)
	}

	if c.Type != typ {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrWrongType)
	}

	uid, err := uuid.Parse(c.Subject)
	if err != nil || uid == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrMalformed)
	}

	return uid, nil
}

// classify сводит ошибки jwt к собственным sentinel-значениям.
// Подпись проверяется раньше claims, поэтому чужой секрет всегда даёт ErrSignatureInvalid.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrSignatureInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return ErrMalformed
	}
}

// Reason возвращает короткую метку причины отказа для логов.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrEmpty):
		return "empty"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrSignatureInvalid):
		return "signature_invalid"
	case errors.Is(err, ErrWrongType):
		return "wrong_type"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	default:
		return "unknown"
	}
}
