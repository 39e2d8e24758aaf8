package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-profile-auth/internal/models"
	"github.com/pribylovaa/go-profile-auth/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// userDoc — представление пользователя в коллекции users. _id хранится строкой UUID.
type userDoc struct {
	ID             string         `bson:"_id"`
	Username       string         `bson:"username"`
	Email          string         `bson:"email"`
	PasswordHash   string         `bson:"password_hash"`
	FirstName      string         `bson:"first_name,omitempty"`
	LastName       string         `bson:"last_name,omitempty"`
	Age            int            `bson:"age"`
	Gender         string         `bson:"gender"`
	Location       string         `bson:"location"`
	Interests      []string       `bson:"interests"`
	Bio            string         `bson:"bio,omitempty"`
	ProfilePicture string         `bson:"profile_picture,omitempty"`
	Preferences    preferencesDoc `bson:"preferences"`
	CreatedAt      time.Time      `bson:"created_at"`
	UpdatedAt      time.Time      `bson:"updated_at"`
}

type preferencesDoc struct {
	Genders []string `bson:"gender"`
	MinAge  int      `bson:"min_age"`
	MaxAge  int      `bson:"max_age"`
}

func toUserDoc(u *models.User) userDoc {
	return userDoc{
		ID:             u.ID.String(),
		Username:       u.Username,
		Email:          u.Email,
		PasswordHash:   u.PasswordHash,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Age:            u.Age,
		Gender:         string(u.Gender),
		Location:       u.Location,
		Interests:      nonNil(u.Interests),
		Bio:            u.Bio,
		ProfilePicture: u.ProfilePicture,
		Preferences:    toPreferencesDoc(u.Preferences),
		CreatedAt:      toMS(u.CreatedAt),
		UpdatedAt:      toMS(u.UpdatedAt),
	}
}

func toPreferencesDoc(p models.Preferences) preferencesDoc {
	genders := make([]string, 0, len(p.Genders))
	for _, g := range p.Genders {
		genders = append(genders, string(g))
	}
	return preferencesDoc{Genders: genders, MinAge: p.MinAge, MaxAge: p.MaxAge}
}

func (d userDoc) toModel() (*models.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("bad user id %q: %w", d.ID, err)
	}

	genders := make([]models.Gender, 0, len(d.Preferences.Genders))
	for _, g := range d.Preferences.Genders {
		genders = append(genders, models.Gender(g))
	}

	return &models.User{
		ID:             id,
		Username:       d.Username,
		Email:          d.Email,
		PasswordHash:   d.PasswordHash,
		FirstName:      d.FirstName,
		LastName:       d.LastName,
		Age:            d.Age,
		Gender:         models.Gender(d.Gender),
		Location:       d.Location,
		Interests:      d.Interests,
		Bio:            d.Bio,
		ProfilePicture: d.ProfilePicture,
		Preferences:    models.Preferences{Genders: genders, MinAge: d.Preferences.MinAge, MaxAge: d.Preferences.MaxAge},
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}, nil
}

// CreateUser вставляет пользователя; нарушение username_unique/email_unique — storage.ErrAlreadyExists.
func (m *Mongo) CreateUser(ctx context.Context, user *models.User) error {
	const op = "storage.mongo.CreateUser"

	now := toMS(time.Now())
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	if _, err := m.users.InsertOne(ctx, toUserDoc(user)); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: insert: %w", op, err)
	}

	return nil
}

// UserByID находит пользователя по ID.
func (m *Mongo) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m.findUser(ctx, "storage.mongo.UserByID", bson.D{{Key: "_id", Value: id.String()}})
}

// UserByEmail находит пользователя по email.
func (m *Mongo) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.findUser(ctx, "storage.mongo.UserByEmail", bson.D{{Key: "email", Value: email}})
}

// UserByUsername находит пользователя по username.
func (m *Mongo) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.findUser(ctx, "storage.mongo.UserByUsername", bson.D{{Key: "username", Value: username}})
}

func (m *Mongo) findUser(ctx context.Context, op string, filter bson.D) (*models.User, error) {
	var doc userDoc
	if err := m.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := doc.toModel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UpdateUser применяет $set только по заданным полям и возвращает документ после обновления.
func (m *Mongo) UpdateUser(ctx context.Context, id uuid.UUID, update storage.UserUpdate) (*models.User, error) {
	const op = "storage.mongo.UpdateUser"

	set := bson.D{{Key: "updated_at", Value: toMS(time.Now())}}
	add := func(key string, v any) { set = append(set, bson.E{Key: key, Value: v}) }

	if update.Username != nil {
		add("username", *update.Username)
	}
	if update.Email != nil {
		add("email", *update.Email)
	}
	if update.PasswordHash != nil {
		add("password_hash", *update.PasswordHash)
	}
	if update.FirstName != nil {
		add("first_name", *update.FirstName)
	}
	if update.LastName != nil {
		add("last_name", *update.LastName)
	}
	if update.Age != nil {
		add("age", *update.Age)
	}
	if update.Gender != nil {
		add("gender", string(*update.Gender))
	}
	if update.Location != nil {
		add("location", *update.Location)
	}
	if update.Interests != nil {
		add("interests", nonNil(*update.Interests))
	}
	if update.Bio != nil {
		add("bio", *update.Bio)
	}
	if update.ProfilePicture != nil {
		add("profile_picture", *update.ProfilePicture)
	}
	if update.Preferences != nil {
		add("preferences", toPreferencesDoc(*update.Preferences))
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDoc
	err := m.users.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id.String()}}, bson.D{{Key: "$set", Value: set}}, opts).Decode(&doc)
	if err != nil {
		switch {
		case errors.Is(err, mongodriver.ErrNoDocuments):
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		case mongodriver.IsDuplicateKeyError(err):
			return nil, fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := doc.toModel()
	if err != nil {
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
