package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/templui/secondbrain/internal/ctxkeys"
	"github.com/templui/secondbrain/internal/db"
	"github.com/templui/secondbrain/internal/repository"
	"github.com/templui/secondbrain/internal/service"
	"github.com/templui/secondbrain/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "CorrectHorse9"

type testEnv struct {
	tokens   *service.TokenService
	auth     *service.AuthService
	accounts *service.UserService
	store    *memStorage

	authHandler    *AuthHandler
	userHandler    *UserHandler
	contentHandler *ContentHandler
}

func newTestEnv(t *testing.T, withStorage bool) *testEnv {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	database, err := db.Init("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(database) })
	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))

	tokens, err := service.NewTokenService("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour, 0)
	require.NoError(t, err)

	env := &testEnv{tokens: tokens}

	var fileStorage storage.Storage
	if withStorage {
		env.store = newMemStorage()
		fileStorage = env.store
	}

	users := repository.NewUserRepository(database)
	env.auth = service.NewAuthService(users, tokens, false).WithBcryptCost(bcrypt.MinCost)
	files := service.NewFileService(repository.NewFileRepository(database), fileStorage)
	tags := service.NewTagService(repository.NewTagRepository(database))
	contents := service.NewContentService(repository.NewContentRepository(database), tags, files, 10)
	env.accounts = service.NewUserService(users, env.auth, files)

	env.authHandler = NewAuthHandler(env.auth)
	env.userHandler = NewUserHandler(env.accounts, env.auth)
	env.contentHandler = NewContentHandler(contents)
	return env
}

func (e *testEnv) register(t *testing.T, email string) string {
	t.Helper()

	user, err := e.auth.Register(context.Background(), email, testPassword, nil)
	require.NoError(t, err)
	return user.ID
}

// newRequest builds a request as seen behind the session gate. An empty
// userID leaves the request anonymous.
func newRequest(t *testing.T, method, target string, body any, userID string) *http.Request {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req = req.WithContext(ctxkeys.WithUserID(req.Context(), userID))
	}
	return req
}

func withID(req *http.Request, id string) *http.Request {
	req.SetPathValue("id", id)
	return req
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
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
	return "https://storage.test/" + path, nil
}
