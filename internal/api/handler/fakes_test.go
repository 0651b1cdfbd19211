package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"filevault/internal/app/service"
	"filevault/internal/common"
	"filevault/internal/common/security"
	"filevault/internal/domain/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testCookie = "access_token"

type memUsers struct {
	mu      sync.Mutex
	users   map[string]*model.User
	findErr error
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[string]*model.User{}}
}

func (m *memUsers) Create(_ context.Context, u *model.User) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return nil, common.ErrConflict
		}
	}
	stored := *u
	stored.ID = uuid.NewString()
	stored.CreatedAt = time.Now().UTC()
	stored.UpdatedAt = stored.CreatedAt
	m.users[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *memUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	u, ok := m.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := *u
	return &out, nil
}

type memFiles struct {
	mu    sync.Mutex
	files map[string]model.File
}

func newMemFiles() *memFiles {
	return &memFiles{files: map[string]model.File{}}
}

func (m *memFiles) Create(_ context.Context, f *model.File) (*model.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f.UploadedAt = time.Now().UTC()
	f.UpdatedAt = f.UploadedAt
	m.files[f.ID] = *f
	return f, nil
}

func (m *memFiles) ListByOwner(_ context.Context, ownerID string) ([]model.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.File{}
	for _, f := range m.files {
		if f.UploadedBy == ownerID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memFiles) FindByID(_ context.Context, ownerID, id string) (*model.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[id]
	if !ok || f.UploadedBy != ownerID {
		return nil, common.ErrNotFound
	}
	return &f, nil
}

func (m *memFiles) Delete(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[id]
	if !ok || f.UploadedBy != ownerID {
		return common.ErrNotFound
	}
	delete(m.files, id)
	return nil
}

type fixture struct {
	users  *memUsers
	files  *memFiles
	tokens *security.TokenIssuer
	auth   *service.AuthService
	router chi.Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens, err := security.NewTokenIssuer([]byte("handler-secret"), time.Hour)
	require.NoError(t, err)

	f := &fixture{users: newMemUsers(), files: newMemFiles(), tokens: tokens}
	f.auth = service.NewAuthService(f.users, security.NewPasswordHasher(bcrypt.MinCost), tokens)

	r := chi.NewRouter()
	r.Route("/auth", NewAuthHandler(f.auth, tokens, CookieConfig{Name: testCookie}).RegisterRoutes)
	r.Route("/files", NewFileHandler(service.NewFileService(f.files, "uploads"), tokens, testCookie).RegisterRoutes)
	f.router = r
	return f
}

// sessionCookie issues a token for claims directly, skipping login.
func (f *fixture) sessionCookie(t *testing.T, claims model.SessionClaims) *http.Cookie {
	t.Helper()
	token, _, err := f.tokens.Issue(claims)
	require.NoError(t, err)
	return &http.Cookie{Name: testCookie, Value: token}
}

var errStoreDown = errors.New("connection refused")

func jsonBody(s string) *strings.Reader {
	return strings.NewReader(s)
}
