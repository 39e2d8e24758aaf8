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

type postDoc struct {
	ID        string    `bson:"_id"`
	AuthorID  string    `bson:"author_id"`
	Title     string    `bson:"title"`
	Content   string    `bson:"content"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d postDoc) toModel() (*models.Post, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("bad post id %q: %w", d.ID, err)
	}

	author, err := uuid.Parse(d.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("bad author id %q: %w", d.AuthorID, err)
	}

	return &models.Post{
		ID:        id,
		AuthorID:  author,
		Title:     d.Title,
		Content:   d.Content,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}, nil
}

// CreatePost вставляет публикацию.
func (m *Mongo) CreatePost(ctx context.Context, post *models.Post) error {
	const op = "storage.mongo.CreatePost"

	now := toMS(time.Now())
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.CreatedAt = toMS(post.CreatedAt)
	post.UpdatedAt = now

	doc := postDoc{
		ID:        post.ID.String(),
		AuthorID:  post.AuthorID.String(),
		Title:     post.Title,
		Content:   post.Content,
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	}

	if _, err := m.posts.InsertOne(ctx, doc); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: insert: %w", op, err)
	}

	return nil
}

// PostByID находит публикацию по ID.
func (m *Mongo) PostByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	const op = "storage.mongo.PostByID"

	var doc postDoc
	if err := m.posts.FindOne(ctx, bson.D{{Key: "_id", Value: id.String()}}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	post, err := doc.toModel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return post, nil
}

// ListPosts возвращает публикации, сортировка created_at DESC, _id DESC.
func (m *Mongo) ListPosts(ctx context.Context, limit, offset int) ([]models.Post, error) {
	const op = "storage.mongo.ListPosts"

	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cur, err := m.posts.Find(ctx, bson.D{}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	out := make([]models.Post, 0, limit)
	for cur.Next(ctx) {
		var doc postDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}

		post, err := doc.toModel()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, *post)
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	return out, nil
}

// UpdatePost применяет частичный апдейт публикации.
func (m *Mongo) UpdatePost(ctx context.Context, id uuid.UUID, update storage.PostUpdate) (*models.Post, error) {
	const op = "storage.mongo.UpdatePost"

	set := bson.D{{Key: "updated_at", Value: toMS(time.Now())}}
	if update.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *update.Title})
	}
	if update.Content != nil {
		set = append(set, bson.E{Key: "content", Value: *update.Content})
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc postDoc
	err := m.posts.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id.String()}}, bson.D{{Key: "$set", Value: set}}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	post, err := doc.toModel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return post, nil
}

// DeletePost удаляет публикацию.
func (m *Mongo) DeletePost(ctx context.Context, id uuid.UUID) error {
	const op = "storage.mongo.DeletePost"

	res, err := m.posts.DeleteOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}
