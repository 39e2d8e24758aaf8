package models

import (
	"time"

	"github.com/google/uuid"
)

// Post — публикация пользователя, защищённый ресурс.
type Post struct {
	ID        uuid.UUID
	AuthorID  uuid.UUID
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
