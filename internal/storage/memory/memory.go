// memory предоставляет реализацию storage.Storage в памяти процесса.
// Используется для локального запуска (db.driver=memory) и end-to-end тестов
// транспорта. Уникальность username/email проверяется под мьютексом,
// поэтому гонка «проверка-вставка» закрыта так же, как индексами в БД.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-profile-auth/internal/models"
	"github.com/pribylovaa/go-profile-auth/internal/storage"
)

// Storage — хранилище пользователей и публикаций в памяти.
type Storage struct {
	mu         sync.RWMutex
	users      map[uuid.UUID]models.User
	byEmail    map[string]uuid.UUID
	byUsername map[string]uuid.UUID
	posts      map[uuid.UUID]models.Post
	now        func() time.Time
}

// New создаёт пустое хранилище.
func New() *Storage {
	return &Storage{
		users:      make(map[uuid.UUID]models.User),
		byEmail:    make(map[string]uuid.UUID),
		byUsername: make(map[string]uuid.UUID),
		posts:      make(map[uuid.UUID]models.Post),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateUser сохраняет копию пользователя.
func (s *Storage) CreateUser(_ context.Context, user *models.User) error {
	const op = "storage.memory.CreateUser"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
	}
	if _, ok := s.byEmail[user.Email]; ok {
		return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
	}
	if _, ok := s.byUsername[user.Username]; ok {
		return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
	}

	now := s.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	s.users[user.ID] = cloneUser(*user)
	s.byEmail[user.Email] = user.ID
	s.byUsername[user.Username] = user.ID

	return nil
}

// UserByID находит пользователя по ID.
func (s *Storage) UserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	const op = "storage.memory.UserByID"

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	out := cloneUser(u)
	return &out, nil
}

// UserByEmail находит пользователя по email.
func (s *Storage) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.userByIndex(ctx, "storage.memory.UserByEmail", s.byEmail, email)
}

// UserByUsername находит пользователя по username.
func (s *Storage) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.userByIndex(ctx, "storage.memory.UserByUsername", s.byUsername, username)
}

func (s *Storage) userByIndex(_ context.Context, op string, idx map[string]uuid.UUID, key string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := idx[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	out := cloneUser(s.users[id])
	return &out, nil
}

// UpdateUser применяет частичный апдейт, поддерживая индексы уникальности.
func (s *Storage) UpdateUser(_ context.Context, id uuid.UUID, update storage.UserUpdate) (*models.User, error) {
	const op = "storage.memory.UpdateUser"

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	if update.Email != nil {
		if owner, taken := s.byEmail[*update.Email]; taken && owner != id {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}
	}
	if update.Username != nil {
		if owner, taken := s.byUsername[*update.Username]; taken && owner != id {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}
	}

	oldEmail, oldUsername := cur.Email, cur.Username
	update.Apply(&cur)
	cur.UpdatedAt = s.now()

	delete(s.byEmail, oldEmail)
	delete(s.byUsername, oldUsername)
	s.byEmail[cur.Email] = id
	s.byUsername[cur.Username] = id
	s.users[id] = cur

	out := cloneUser(cur)
	return &out, nil
}

// CreatePost сохраняет публикацию.
func (s *Storage) CreatePost(_ context.Context, post *models.Post) error {
	const op = "storage.memory.CreatePost"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[post.ID]; ok {
		return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
	}

	now := s.now()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now
	s.posts[post.ID] = *post

	return nil
}

// PostByID находит публикацию по ID.
func (s *Storage) PostByID(_ context.Context, id uuid.UUID) (*models.Post, error) {
	const op = "storage.memory.PostByID"

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return &p, nil
}

// ListPosts возвращает публикации, сначала новые.
func (s *Storage) ListPosts(_ context.Context, limit, offset int) ([]models.Post, error) {
	s.mu.RLock()
	out := make([]models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, p)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() > out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if offset >= len(out) {
		return []models.Post{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}

	return out, nil
}

// UpdatePost применяет частичный апдейт публикации.
func (s *Storage) UpdatePost(_ context.Context, id uuid.UUID, update storage.PostUpdate) (*models.Post, error) {
	const op = "storage.memory.UpdatePost"

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	if update.Title != nil {
		p.Title = *update.Title
	}
	if update.Content != nil {
		p.Content = *update.Content
	}
	p.UpdatedAt = s.now()
	s.posts[id] = p

	return &p, nil
}

// DeletePost удаляет публикацию.
func (s *Storage) DeletePost(_ context.Context, id uuid.UUID) error {
	const op = "storage.memory.DeletePost"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	delete(s.posts, id)

	return nil
}

// Ping всегда успешен.
func (s *Storage) Ping(context.Context) error { return nil }

// Close ничего не освобождает.
func (s *Storage) Close() {}

func cloneUser(u models.User) models.User {
	u.Interests = append([]string(nil), u.Interests...)
	u.Preferences.Genders = append([]models.Gender(nil), u.Preferences.Genders...)
	return u
}

var _ storage.Storage = (*Storage)(nil)
