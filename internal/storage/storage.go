// storage содержит контракты слоя хранилищ.
//
// storage.go - пользователи и публикации (создание/чтение/частичное обновление/удаление).
// avatars.go - контракт загрузки аватаров в S3/MinIO.
//
// Реализации: mongo (по умолчанию), postgres и memory. Все реализации обязаны
// гарантировать уникальность username и email на уровне хранилища и
// возвращать ErrAlreadyExists при её нарушении.
package storage

//go:generate mockgen -source=storage.go -destination=../../mocks/mock_storage.go -package=mocks

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-profile-auth/internal/models"
)

var (
	// ErrNotFound — запись не найдена (пользователь/публикация/объект).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (username/email).
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidArgument — нарушены ограничения запроса (тип/размер аватара, чужой ключ).
	ErrInvalidArgument = errors.New("invalid argument")
)

// UserUpdate — частичный апдейт пользователя.
// Обновляются только непустые указатели; реализация обязана обновить updated_at.
type UserUpdate struct {
	Username       *string
	Email          *string
	PasswordHash   *string
	FirstName      *string
	LastName       *string
	Age            *int
	Gender         *models.Gender
	Location       *string
	Interests      *[]string
	Bio            *string
	ProfilePicture *string
	Preferences    *models.Preferences
}

// Empty сообщает, что в апдейте нет ни одного поля.
func (u UserUpdate) Empty() bool {
	return u == UserUpdate{}
}

// Apply переносит заданные поля на пользователя.
func (u UserUpdate) Apply(user *models.User) {
	if u.Username != nil {
		user.Username = *u.Username
	}
	if u.Email != nil {
		user.Email = *u.Email
	}
	if u.PasswordHash != nil {
		user.PasswordHash = *u.PasswordHash
	}
	if u.FirstName != nil {
		user.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		user.LastName = *u.LastName
	}
	if u.Age != nil {
		user.Age = *u.Age
	}
	if u.Gender != nil {
		user.Gender = *u.Gender
	}
	if u.Location != nil {
		user.Location = *u.Location
	}
	if u.Interests != nil {
		user.Interests = append([]string(nil), (*u.Interests)...)
	}
	if u.Bio != nil {
		user.Bio = *u.Bio
	}
	if u.ProfilePicture != nil {
		user.ProfilePicture = *u.ProfilePicture
	}
	if u.Preferences != nil {
		p := *u.Preferences
		p.Genders = append([]models.Gender(nil), p.Genders...)
		user.Preferences = p
	}
}

// PostUpdate — частичный апдейт публикации.
type PostUpdate struct {
	Title   *string
	Content *string
}

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// CreateUser сохраняет нового пользователя. Дубликат username/email — ErrAlreadyExists.
	CreateUser(ctx context.Context, user *models.User) error
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// UserByEmail находит пользователя по нормализованному email.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByUsername находит пользователя по username.
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	// UpdateUser применяет частичный апдейт и возвращает актуальную запись.
	UpdateUser(ctx context.Context, id uuid.UUID, update UserUpdate) (*models.User, error)
}

// PostStorage выполняет операции над публикациями.
type PostStorage interface {
	// CreatePost сохраняет публикацию.
	CreatePost(ctx context.Context, post *models.Post) error
	// PostByID находит публикацию по ID.
	PostByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	// ListPosts возвращает публикации, сначала новые.
	ListPosts(ctx context.Context, limit, offset int) ([]models.Post, error)
	// UpdatePost применяет частичный апдейт.
	UpdatePost(ctx context.Context, id uuid.UUID, update PostUpdate) (*models.Post, error)
	// DeletePost удаляет публикацию.
	DeletePost(ctx context.Context, id uuid.UUID) error
}

// Storage задает контракт работы с БД.
type Storage interface {
	UserStorage
	PostStorage
	// Ping проверяет доступность хранилища (для /healthz).
	Ping(ctx context.Context) error
	Close()
}
