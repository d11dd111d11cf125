package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/secondbrain/internal/model"
)

var (
	ErrContentNotFound = errors.New("content not found")
)

// ContentFilter selects a page of content visible to ViewerID.
type ContentFilter struct {
	ViewerID string
	Scope    model.ContentScope
	Type     model.ContentType
	TagNames []string
	Shared   *bool
	Limit    int
	Offset   int
}

type ContentRepository interface {
	Create(ctx context.Context, content *model.Content, tagIDs []string) error
	ByID(ctx context.Context, id string) (*model.Content, error)
	List(ctx context.Context, filter ContentFilter) ([]*model.Content, int, error)
	// Update writes the content row. The tag set is replaced with tagIDs
	// only when replaceTags is true.
	Update(ctx context.Context, content *model.Content, tagIDs []string, replaceTags bool) error
	SetShared(ctx context.Context, id string, shared bool, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

type contentRepository struct {
	db *sqlx.DB
}

func NewContentRepository(db *sqlx.DB) ContentRepository {
	return &contentRepository{db: db}
}

const contentColumns = `c.id, c.owner_id, c.type, c.link, c.title, c.shared, c.created_at, c.updated_at`

func (r *contentRepository) Create(ctx context.Context, content *model.Content, tagIDs []string) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `INSERT INTO contents (id, owner_id, type, link, title, shared, created_at, updated_at)
		          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

		_, err := tx.ExecContext(ctx, query,
			content.ID,
			content.OwnerID,
			content.Type,
			content.Link,
			content.Title,
			content.Shared,
			content.CreatedAt,
			content.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert content: %w", err)
		}

		return insertContentTags(ctx, tx, content.ID, tagIDs)
	})
}

func (r *contentRepository) ByID(ctx context.Context, id string) (*model.Content, error) {
	content := &model.Content{}
	query := `SELECT ` + contentColumns + ` FROM contents c WHERE c.id = $1`

	err := r.db.GetContext(ctx, content, query, id)
	if err != nil {
		return nil, notFound(err, ErrContentNotFound)
	}

	err = r.loadTags(ctx, []*model.Content{content})
	if err != nil {
		return nil, err
	}

	return content, nil
}

func (r *contentRepository) List(ctx context.Context, filter ContentFilter) ([]*model.Content, int, error) {
	where, args := filter.where()

	countQuery, countArgs, err := sqlx.In(`SELECT COUNT(*) FROM contents c WHERE `+where, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	var total int
	err = r.db.GetContext(ctx, &total, r.db.Rebind(countQuery), countArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("count contents: %w", err)
	}

	if total == 0 || filter.Offset >= total {
		return []*model.Content{}, total, nil
	}

	listQuery, listArgs, err := sqlx.In(
		`SELECT `+contentColumns+` FROM contents c WHERE `+where+` ORDER BY c.created_at DESC, c.id DESC LIMIT ? OFFSET ?`,
		append(args, filter.Limit, filter.Offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}

	contents := []*model.Content{}
	err = r.db.SelectContext(ctx, &contents, r.db.Rebind(listQuery), listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list contents: %w", err)
	}

	err = r.loadTags(ctx, contents)
	if err != nil {
		return nil, 0, err
	}

	return contents, total, nil
}

// where builds the WHERE clause with ? placeholders. Callers expand
// slices with sqlx.In and rebind for the driver.
func (f ContentFilter) where() (string, []any) {
	var clauses []string
	var args []any

	switch f.Scope {
	case model.ScopeMine:
		clauses = append(clauses, "c.owner_id = ?")
		args = append(args, f.ViewerID)
	case model.ScopeDiscover:
		clauses = append(clauses, "c.shared = ? AND c.owner_id <> ?")
		args = append(args, true, f.ViewerID)
	default:
		clauses = append(clauses, "(c.owner_id = ? OR c.shared = ?)")
		args = append(args, f.ViewerID, true)
	}

	if f.Type != "" {
		clauses = append(clauses, "c.type = ?")
		args = append(args, f.Type)
	}

	if f.Shared != nil {
		clauses = append(clauses, "c.shared = ?")
		args = append(args, *f.Shared)
	}

	if len(f.TagNames) > 0 {
		clauses = append(clauses, `EXISTS (SELECT 1 FROM content_tags ct JOIN tags t ON t.id = ct.tag_id
			WHERE ct.content_id = c.id AND t.name IN (?))`)
		args = append(args, f.TagNames)
	}

	return strings.Join(clauses, " AND "), args
}

func (r *contentRepository) Update(ctx context.Context, content *model.Content, tagIDs []string, replaceTags bool) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `UPDATE contents SET type = $1, link = $2, title = $3, shared = $4, updated_at = $5 WHERE id = $6`

		result, err := tx.ExecContext(ctx, query,
			content.Type,
			content.Link,
			content.Title,
			content.Shared,
			content.UpdatedAt,
			content.ID,
		)
		if err != nil {
			return fmt.Errorf("update content: %w", err)
		}

		err = expectRow(result, ErrContentNotFound)
		if err != nil {
			return err
		}

		if !replaceTags {
			return nil
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM content_tags WHERE content_id = $1`, content.ID)
		if err != nil {
			return fmt.Errorf("clear content tags: %w", err)
		}

		return insertContentTags(ctx, tx, content.ID, tagIDs)
	})
}

func (r *contentRepository) SetShared(ctx context.Context, id string, shared bool, updatedAt time.Time) error {
	query := `UPDATE contents SET shared = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, shared, updatedAt, id)
	if err != nil {
		return err
	}

	return expectRow(result, ErrContentNotFound)
}

func (r *contentRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM contents WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return expectRow(result, ErrContentNotFound)
}

func insertContentTags(ctx context.Context, tx *sqlx.Tx, contentID string, tagIDs []string) error {
	for _, tagID := range tagIDs {
		_, err := tx.ExecContext(ctx, `INSERT INTO content_tags (content_id, tag_id) VALUES ($1, $2)`, contentID, tagID)
		if err != nil {
			return fmt.Errorf("insert content tag: %w", err)
		}
	}
	return nil
}

type contentTagRow struct {
	ContentID string `db:"content_id"`
	model.Tag
}

// loadTags fills Tags for every item with a single query.
func (r *contentRepository) loadTags(ctx context.Context, contents []*model.Content) error {
	if len(contents) == 0 {
		return nil
	}

	ids := make([]string, len(contents))
	byID := make(map[string]*model.Content, len(contents))
	for i, c := range contents {
		ids[i] = c.ID
		c.Tags = []model.Tag{}
		byID[c.ID] = c
	}

	query, args, err := sqlx.In(`SELECT ct.content_id, t.id, t.name, t.created_at
		FROM content_tags ct JOIN tags t ON t.id = ct.tag_id
		WHERE ct.content_id IN (?) ORDER BY t.name`, ids)
	if err != nil {
		return fmt.Errorf("build tag query: %w", err)
	}

	var rows []contentTagRow
	err = r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("load content tags: %w", err)
	}

	for _, row := range rows {
		c := byID[row.ContentID]
		c.Tags = append(c.Tags, row.Tag)
	}

	return nil
}
