package service

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/templui/secondbrain/internal/db"
	"github.com/templui/secondbrain/internal/model"
	"github.com/templui/secondbrain/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "CorrectHorse9"

type testEnv struct {
	db       *sqlx.DB
	users    repository.UserRepository
	tokens   *TokenService
	auth     *AuthService
	tags     *TagService
	files    *FileService
	store    *memStorage
	contents *ContentService
	accounts *UserService
}

func newTokenService(t *testing.T) *TokenService {
	t.Helper()

	tokens, err := NewTokenService("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour, 0)
	require.NoError(t, err)
	return tokens
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	database, err := db.Init("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(database) })
	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))

	env := &testEnv{
		db:     database,
		users:  repository.NewUserRepository(database),
		tokens: newTokenService(t),
		store:  newMemStorage(),
	}
	env.auth = NewAuthService(env.users, env.tokens, false)
	env.auth.bcryptCost = bcrypt.MinCost
	env.tags = NewTagService(repository.NewTagRepository(database))
	env.files = NewFileService(repository.NewFileRepository(database), env.store)
	env.contents = NewContentService(repository.NewContentRepository(database), env.tags, env.files, 10)
	env.accounts = NewUserService(env.users, env.auth, env.files)

	// Strictly increasing timestamps keep list ordering deterministic
	var mu sync.Mutex
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	env.contents.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}

	return env
}

func (e *testEnv) register(t *testing.T, email string) *model.User {
	t.Helper()

	user, err := e.auth.Register(context.Background(), email, testPassword, nil)
	require.NoError(t, err)
	return user
}

func (e *testEnv) createLink(t *testing.T, ownerID, title string, tags ...string) *model.Content {
	t.Helper()

	link := "https://example.com/" + title
	content, err := e.contents.Create(context.Background(), ownerID, CreateContentInput{
		Type:  model.ContentTypeLink,
		Link:  &link,
		Title: title,
		Tags:  tags,
	})
	require.NoError(t, err)
	return content
}

func ptr[T any](v T) *T {
	return &v
}

// memStorage is an in-memory storage.Storage.
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}}
}

func (m *memStorage) Save(_ context.Context, path string, file io.Reader, _ string) error {
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = data
	return nil
}

func (m *memStorage) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, path)
	return nil
}

func (m *memStorage) URL(_ context.Context, path string) (string, error) {
	return "https://storage.test/" + path + "?signed=1", nil
}

func (m *memStorage) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// multipartFile builds an uploaded file the way net/http hands it to handlers.
func multipartFile(t *testing.T, name string, content []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	file, header, err := req.FormFile("file")
	require.NoError(t, err)
	t.Cleanup(func() { _ = file.Close() })
	return file, header
}

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")
