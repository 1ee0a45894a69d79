package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/library-manager/internal/audit"
	"github.com/mrlokans/library-manager/internal/config"
	"github.com/mrlokans/library-manager/internal/database"
	"github.com/mrlokans/library-manager/internal/database/authors"
	"github.com/mrlokans/library-manager/internal/database/books"
	"github.com/mrlokans/library-manager/internal/database/borrows"
	"github.com/mrlokans/library-manager/internal/database/categories"
	"github.com/mrlokans/library-manager/internal/database/links"
	"github.com/mrlokans/library-manager/internal/database/reports"
	"github.com/mrlokans/library-manager/internal/database/users"
)

var testJSON = jsoniter.ConfigCompatibleWithStandardLibrary

func init() {
	gin.SetMode(gin.TestMode)
}

// changeSpy collects audit records in memory.
type changeSpy struct {
	mu      sync.Mutex
	records []audit.Record
}

func (s *changeSpy) LogChange(rec audit.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
}

func (s *changeSpy) all() []audit.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]audit.Record(nil), s.records...)
}

type testServer struct {
	router  *gin.Engine
	db      *database.Database
	changes *changeSpy
}

type serverOption func(*RouterConfig)

func withBorrowOptions(opts borrows.Options) serverOption {
	return func(cfg *RouterConfig) {
		cfg.Borrows = borrows.NewRepository(cfg.Database.(*database.Database).DB, opts)
	}
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()

	db, err := database.NewSQLite(filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	linkRepo := links.NewRepository(db.DB)
	reportRepo, err := reports.NewRepository(db.DB)
	require.NoError(t, err)

	spy := &changeSpy{}
	cfg := RouterConfig{
		Books:           books.NewRepository(db.DB, linkRepo),
		Authors:         authors.NewRepository(db.DB, linkRepo),
		Categories:      categories.NewRepository(db.DB, linkRepo),
		Users:           users.NewRepository(db.DB),
		Borrows:         borrows.NewRepository(db.DB, borrows.Options{}),
		Reports:         reportRepo,
		AuditRecorder:   spy,
		Database:        db,
		Version:         "test",
		AuthConfig:      config.Auth{Mode: config.AuthModeNone},
		DefaultPageSize: config.DefaultPageSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	router, stop := NewRouter(cfg)
	t.Cleanup(stop)
	return &testServer{router: router, db: db, changes: spy}
}

// do sends a request with an optional JSON body and returns the recorder.
func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := testJSON.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// decode unmarshals the response body into dst.
func decode(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, testJSON.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

// mustCreate posts body to path, requires 201, and returns the new id.
func (s *testServer) mustCreate(t *testing.T, path string, body any) uint {
	t.Helper()
	w := s.do(t, http.MethodPost, path, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID uint `json:"id"`
	}
	decode(t, w, &created)
	require.NotZero(t, created.ID)
	return created.ID
}

func (s *testServer) createAuthor(t *testing.T, first, second string) uint {
	return s.mustCreate(t, "/api/authors", map[string]any{"first_name": first, "second_name": second})
}

func (s *testServer) createCategory(t *testing.T, name string) uint {
	return s.mustCreate(t, "/api/categories", map[string]any{"category_name": name})
}

func (s *testServer) createUser(t *testing.T, first, email string) uint {
	return s.mustCreate(t, "/api/users", map[string]any{"first_name": first, "last_name": "Reader", "email": email})
}

func (s *testServer) createBook(t *testing.T, title, isbn string, authorIDs, categoryIDs []uint) uint {
	return s.mustCreate(t, "/api/books", map[string]any{
		"title":            title,
		"isbn":             isbn,
		"publication_year": 1965,
		"author_ids":       authorIDs,
		"category_ids":     categoryIDs,
	})
}

func (s *testServer) borrow(t *testing.T, userID, bookID uint) uint {
	return s.mustCreate(t, "/api/borrowed_books", map[string]any{"user_id": userID, "book_id": bookID})
}
