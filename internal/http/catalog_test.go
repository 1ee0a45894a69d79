package http

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/library-manager/internal/entities"
)

func TestAuthorsController_CRUD(t *testing.T) {
	s := newTestServer(t)

	id := s.mustCreate(t, "/api/authors", map[string]any{
		"first_name":  "Ursula",
		"second_name": "Le Guin",
		"biography":   "Earthsea",
	})
	path := fmt.Sprintf("/api/authors/%d", id)

	w := s.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var author entities.Author
	decode(t, w, &author)
	assert.Equal(t, "Ursula", author.FirstName)
	require.NotNil(t, author.Biography)
	assert.Equal(t, "Earthsea", *author.Biography)

	w = s.do(t, http.MethodPut, path, map[string]any{"second_name": "K. Le Guin"})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &author)
	assert.Equal(t, "Ursula", author.FirstName)
	assert.Equal(t, "K. Le Guin", author.SecondName)

	w = s.do(t, http.MethodGet, "/api/authors", nil)
	var list []entities.Author
	decode(t, w, &list)
	assert.Len(t, list, 1)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, path, nil).Code)
	w = s.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), fmt.Sprintf("Author with ID %d not found", id))
}

func TestAuthorsController_Validation(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/authors", map[string]any{"first_name": "Ursula"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/api/authors/7", map[string]any{"first_name": "X"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodDelete, "/api/authors/7", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthorsController_DeleteDetachesBooks(t *testing.T) {
	s := newTestServer(t)
	authorID := s.createAuthor(t, "Frank", "Herbert")
	bookID := s.createBook(t, "Dune", "1", []uint{authorID}, nil)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, fmt.Sprintf("/api/authors/%d", authorID), nil).Code)

	w := s.do(t, http.MethodGet, fmt.Sprintf("/api/books/%d", bookID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var book entities.Book
	decode(t, w, &book)
	assert.Empty(t, book.AuthorIDs)
}

func TestCategoriesController_CRUD(t *testing.T) {
	s := newTestServer(t)

	id := s.mustCreate(t, "/api/categories", map[string]any{"category_name": "Fantasy", "description": "Dragons"})
	path := fmt.Sprintf("/api/categories/%d", id)

	w := s.do(t, http.MethodPut, path, map[string]any{"category_name": "High Fantasy"})
	require.Equal(t, http.StatusOK, w.Code)
	var category entities.Category
	decode(t, w, &category)
	assert.Equal(t, "High Fantasy", category.CategoryName)
	require.NotNil(t, category.Description)
	assert.Equal(t, "Dragons", *category.Description)

	w = s.do(t, http.MethodGet, "/api/categories?skip=1", nil)
	var list []entities.Category
	decode(t, w, &list)
	assert.Empty(t, list)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, path, nil).Code)
	w = s.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), fmt.Sprintf("Category with ID %d not found", id))
}

func TestCategoriesController_RequiresName(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/categories", map[string]any{"category_name": "   "})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUsersController_CRUD(t *testing.T) {
	s := newTestServer(t)

	id := s.createUser(t, "Paul", "paul@example.com")
	path := fmt.Sprintf("/api/users/%d", id)

	w := s.do(t, http.MethodPut, path, map[string]any{"email": "muaddib@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	var user entities.User
	decode(t, w, &user)
	assert.Equal(t, "muaddib@example.com", user.Email)
	assert.Equal(t, "Paul", user.FirstName)

	w = s.do(t, http.MethodPut, path, map[string]any{"first_name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, path, nil).Code)
	w = s.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), fmt.Sprintf("User with ID %d not found", id))
}

func TestUsersController_DeleteWithBorrowHistory(t *testing.T) {
	s := newTestServer(t)
	userID := s.createUser(t, "Paul", "paul@example.com")
	bookID := s.createBook(t, "Dune", "1", nil, nil)
	s.borrow(t, userID, bookID)

	w := s.do(t, http.MethodDelete, fmt.Sprintf("/api/users/%d", userID), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	decode(t, w, &resp)
	assert.Equal(t, "conflict", resp.Code)
}

func TestUsersController_ListPagination(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 5; i++ {
		s.createUser(t, fmt.Sprintf("Reader%d", i), fmt.Sprintf("r%d@example.com", i))
	}

	w := s.do(t, http.MethodGet, "/api/users?skip=2&limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []entities.User
	decode(t, w, &list)
	require.Len(t, list, 2)
	assert.Equal(t, "Reader2", list[0].FirstName)
	assert.Equal(t, "Reader3", list[1].FirstName)
}
