package repository

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/templui/secondbrain/internal/model"
)

var (
	ErrTagNotFound  = errors.New("tag not found")
	ErrDuplicateTag = errors.New("tag already exists")
)

type TagRepository interface {
	Create(ctx context.Context, tag *model.Tag) error
	ByName(ctx context.Context, name string) (*model.Tag, error)
}

type tagRepository struct {
	db *sqlx.DB
}

func NewTagRepository(db *sqlx.DB) TagRepository {
	return &tagRepository{db: db}
}

// Create inserts a tag. A concurrent insert of the same name surfaces as ErrDuplicateTag.
func (r *tagRepository) Create(ctx context.Context, tag *model.Tag) error {
	query := `INSERT INTO tags (id, name, created_at) VALUES ($1, $2, $3)`

	_, err := r.db.ExecContext(ctx, query, tag.ID, tag.Name, tag.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateTag
		}
		return err
	}

	return nil
}

func (r *tagRepository) ByName(ctx context.Context, name string) (*model.Tag, error) {
	tag := &model.Tag{}
	query := `SELECT id, name, created_at FROM tags WHERE name = $1`

	err := r.db.GetContext(ctx, tag, query, name)
	if err != nil {
		return nil, notFound(err, ErrTagNotFound)
	}

	return tag, nil
}
