package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-profile-auth/internal/models"
	logctx "github.com/pribylovaa/go-profile-auth/internal/pkg/log"
	"github.com/pribylovaa/go-profile-auth/internal/storage"
)

// Размер страницы ленты публикаций.
const (
	DefaultPostsLimit = 20
	MaxPostsLimit     = 100
)

// PostPatch — частичное обновление публикации.
type PostPatch struct {
	Title   *string
	Content *string
}

// ListPosts возвращает страницу публикаций, сначала новые.
func (s *Service) ListPosts(ctx context.Context, limit, offset int) ([]models.Post, error) {
	const op = "service.posts.ListPosts"

	if limit <= 0 {
		limit = DefaultPostsLimit
	}
	if limit > MaxPostsLimit {
		limit = MaxPostsLimit
	}
	if offset < 0 {
		return nil, fmt.Errorf("%s: %w", op, invalid("offset", "must be >= 0"))
	}

	posts, err := s.storage.ListPosts(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return posts, nil
}

// CreatePost создаёт публикацию от имени автора.
func (s *Service) CreatePost(ctx context.Context, authorID uuid.UUID, title, content string) (*models.Post, error) {
	const op = "service.posts.CreatePost"

	title, err := validateTitle(title)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	content, err = validateContent(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	post := &models.Post{
		ID:        uuid.New(),
		AuthorID:  authorID,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.storage.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logctx.From(ctx).Info("post_created",
		slog.String("post_id", post.ID.String()),
		slog.String("user_id", authorID.String()),
	)

	return post, nil
}

// UpdatePost меняет публикацию; разрешено только автору.
func (s *Service) UpdatePost(ctx context.Context, userID, postID uuid.UUID, patch PostPatch) (*models.Post, error) {
	const op = "service.posts.UpdatePost"

	var upd storage.PostUpdate

	if patch.Title != nil {
		title, err := validateTitle(*patch.Title)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		upd.Title = &title
	}

	if patch.Content != nil {
		content, err := validateContent(*patch.Content)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		upd.Content = &content
	}

	post, err := s.ownedPost(ctx, userID, postID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if upd == (storage.PostUpdate{}) {
		return post, nil
	}

	updated, err := s.storage.UpdatePost(ctx, postID, upd)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return updated, nil
}

// DeletePost удаляет публикацию; разрешено только автору.
func (s *Service) DeletePost(ctx context.Context, userID, postID uuid.UUID) error {
	const op = "service.posts.DeletePost"

	if _, err := s.ownedPost(ctx, userID, postID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.DeletePost(ctx, postID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	logctx.From(ctx).Info("post_deleted",
		slog.String("post_id", postID.String()),
		slog.String("user_id", userID.String()),
	)

	return nil
}

func (s *Service) ownedPost(ctx context.Context, userID, postID uuid.UUID) (*models.Post, error) {
	post, err := s.storage.PostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	if post.AuthorID != userID {
		return nil, ErrForbidden
	}

	return post, nil
}

func validateTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", invalid("title", "is required")
	}

	if utf8.RuneCountInString(title) < MinTitleLength {
		return "", invalid("title", "must be at least 3 characters long")
	}

	return title, nil
}

func validateContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", invalid("content", "is required")
	}

	if utf8.RuneCountInString(content) < MinContentLength {
		return "", invalid("content", "must be at least 10 characters long")
	}

	return content, nil
}
