package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/templui/secondbrain/internal/db"
	"github.com/templui/secondbrain/internal/model"
)

// newTestDB opens a migrated SQLite database in a temp dir.
func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	database, err := db.Init("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(database) })

	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))
	return database
}

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func seedUserValue(email string) *model.User {
	return &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: "$2a$10$hash",
		CreatedAt:    baseTime,
		UpdatedAt:    baseTime,
	}
}

func seedUser(t *testing.T, repo UserRepository, email string) *model.User {
	t.Helper()

	user := seedUserValue(email)
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func seedTag(t *testing.T, repo TagRepository, name string) *model.Tag {
	t.Helper()

	tag := &model.Tag{ID: uuid.New().String(), Name: name, CreatedAt: baseTime}
	require.NoError(t, repo.Create(context.Background(), tag))
	return tag
}

func seedContent(t *testing.T, repo ContentRepository, ownerID string, title string, shared bool, offset time.Duration, tagIDs ...string) *model.Content {
	t.Helper()

	link := "https://example.com/" + title
	content := &model.Content{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Type:      model.ContentTypeLink,
		Link:      &link,
		Title:     title,
		Shared:    shared,
		CreatedAt: baseTime.Add(offset),
		UpdatedAt: baseTime.Add(offset),
	}
	require.NoError(t, repo.Create(context.Background(), content, tagIDs))
	return content
}
