package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pribylovaa/go-profile-auth/internal/models"
	"github.com/pribylovaa/go-profile-auth/internal/storage"
)

// userColumns — единый список колонок таблицы users для SELECT/RETURNING.
const userColumns = `
id, username, email, password_hash, first_name, last_name, age, gender, location,
interests, bio, profile_picture, pref_genders, pref_min_age, pref_max_age, created_at, updated_at
`

func scanUser(row pgx.Row) (*models.User, error) {
	var (
		u       models.User
		gender  string
		genders []string
	)

	if err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.Age,
		&gender,
		&u.Location,
		&u.Interests,
		&u.Bio,
		&u.ProfilePicture,
		&genders,
		&u.Preferences.MinAge,
		&u.Preferences.MaxAge,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}

	u.Gender = models.Gender(gender)
	u.Preferences.Genders = toGenders(genders)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()

	return &u, nil
}

// CreateUser создает нового пользователя в БД.
func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	const op = "storage.postgres.CreateUser"

	query := `
		INSERT INTO users(id, username, email, password_hash, first_name, last_name, age, gender,
			location, interests, bio, profile_picture, pref_genders, pref_min_age, pref_max_age)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at
	`

	err := s.db.QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Age,
		string(user.Gender),
		user.Location,
		nonNil(user.Interests),
		user.Bio,
		user.ProfilePicture,
		fromGenders(user.Preferences.Genders),
		user.Preferences.MinAge,
		user.Preferences.MaxAge,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UserByID находит пользователя по ID.
func (s *Storage) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.userBy(ctx, "storage.postgres.UserByID", "id", id)
}

// UserByEmail находит пользователя по email.
func (s *Storage) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.userBy(ctx, "storage.postgres.UserByEmail", "email", email)
}

// UserByUsername находит пользователя по username.
func (s *Storage) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.userBy(ctx, "storage.postgres.UserByUsername", "username", username)
}

// userBy выполняет выборку по одной колонке; column — только литерал из этого файла.
func (s *Storage) userBy(ctx context.Context, op, column string, value any) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`

	user, err := scanUser(s.db.QueryRow(ctx, query, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UpdateUser выполняет частичный апдейт: обновляет только поля,
// указанные непустыми pointer-полями, и всегда сдвигает updated_at = now().
func (s *Storage) UpdateUser(ctx context.Context, id uuid.UUID, update storage.UserUpdate) (*models.User, error) {
	const op = "storage.postgres.UpdateUser"

	sets := []string{"updated_at = now()"}
	args := make([]any, 0, 16)

	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Username != nil {
		set("username", *update.Username)
	}
	if update.Email != nil {
		set("email", *update.Email)
	}
	if update.PasswordHash != nil {
		set("password_hash", *update.PasswordHash)
	}
	if update.FirstName != nil {
		set("first_name", *update.FirstName)
	}
	if update.LastName != nil {
		set("last_name", *update.LastName)
	}
	if update.Age != nil {
		set("age", *update.Age)
	}
	if update.Gender != nil {
		set("gender", string(*update.Gender))
	}
	if update.Location != nil {
		set("location", *update.Location)
	}
	if update.Interests != nil {
		set("interests", nonNil(*update.Interests))
	}
	if update.Bio != nil {
		set("bio", *update.Bio)
	}
	if update.ProfilePicture != nil {
		set("profile_picture", *update.ProfilePicture)
	}
	if update.Preferences != nil {
		set("pref_genders", fromGenders(update.Preferences.Genders))
		set("pref_min_age", update.Preferences.MinAge)
		set("pref_max_age", update.Preferences.MaxAge)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), userColumns)

	user, err := scanUser(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		case isUniqueViolation(err):
			return nil, fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func toGenders(in []string) []models.Gender {
	out := make([]models.Gender, 0, len(in))
	for _, g := range in {
		out = append(out, models.Gender(g))
	}
	return out
}

func fromGenders(in []models.Gender) []string {
	out := make([]string, 0, len(in))
	for _, g := range in {
		out = append(out, string(g))
	}
	return out
}
