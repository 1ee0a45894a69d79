package http

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/library-manager/internal/database/borrows"
	"github.com/mrlokans/library-manager/internal/database/reports"
	"github.com/mrlokans/library-manager/internal/entities"
)

func TestBorrowsController_BorrowAndReturn(t *testing.T) {
	s := newTestServer(t)
	userID := s.createUser(t, "Paul", "paul@example.com")
	bookID := s.createBook(t, "Dune", "1", nil, nil)

	w := s.do(t, http.MethodPost, "/api/borrowed_books", map[string]any{"user_id": userID, "book_id": bookID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var record entities.BorrowRecord
	decode(t, w, &record)
	assert.Equal(t, entities.ReturnStatusNotReturned, record.ReturnStatus)
	assert.False(t, record.BorrowingTime.IsZero())
	assert.Nil(t, record.ReturnedAt)

	path := fmt.Sprintf("/api/borrowed_books/%d", record.ID)
	w = s.do(t, http.MethodPut, path, map[string]any{"return_status": entities.ReturnStatusReturned})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &record)
	assert.Equal(t, entities.ReturnStatusReturned, record.ReturnStatus)
	assert.NotNil(t, record.ReturnedAt)

	records := s.changes.all()
	require.Len(t, records, 4)
	assert.Equal(t, entities.AuditActionBorrow, records[2].Action)
	assert.Equal(t, entities.AuditActionReturn, records[3].Action)
	assert.Equal(t, "borrow", records[3].EntityType)
}

func TestBorrowsController_BorrowValidation(t *testing.T) {
	s := newTestServer(t)
	userID := s.createUser(t, "Paul", "paul@example.com")
	bookID := s.createBook(t, "Dune", "1", nil, nil)

	tests := []struct {
		name string
		body map[string]any
		code string
	}{
		{"missing ids", map[string]any{}, "invalid"},
		{"unknown user", map[string]any{"user_id": 99, "book_id": bookID}, "invalid_reference"},
		{"unknown book", map[string]any{"user_id": userID, "book_id": 99}, "invalid_reference"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/borrowed_books", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp ErrorResponse
			decode(t, w, &resp)
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestBorrowsController_ExplicitFields(t *testing.T) {
	s := newTestServer(t)
	userID := s.createUser(t, "Paul", "paul@example.com")
	bookID := s.createBook(t, "Dune", "1", nil, nil)
	borrowedAt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	w := s.do(t, http.MethodPost, "/api/borrowed_books", map[string]any{
		"user_id":        userID,
		"book_id":        bookID,
		"borrowing_time": borrowedAt,
		"return_status":  "lost",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var record entities.BorrowRecord
	decode(t, w, &record)
	assert.True(t, borrowedAt.Equal(record.BorrowingTime))
	assert.Equal(t, "lost", record.ReturnStatus)
}

func TestBorrowsController_LoanPeriodSetsDueDate(t *testing.T) {
	s := newTestServer(t, withBorrowOptions(borrows.Options{LoanPeriod: 14 * 24 * time.Hour}))
	userID := s.createUser(t, "Paul", "paul@example.com")
	bookID := s.createBook(t, "Dune", "1", nil, nil)

	w := s.do(t, http.MethodPost, "/api/borrowed_books", map[string]any{"user_id": userID, "book_id": bookID})
	require.Equal(t, http.StatusCreated, w.Code)

	var record entities.BorrowRecord
	decode(t, w, &record)
	require.NotNil(t, record.DueAt)
	assert.Equal(t, 14*24*time.Hour, record.DueAt.Sub(record.BorrowingTime))
}

func TestBorrowsController_EnforceAvailability(t *testing.T) {
	s := newTestServer(t, withBorrowOptions(borrows.Options{EnforceAvailability: true}))
	first := s.createUser(t, "Paul", "paul@example.com")
	second := s.createUser(t, "Chani", "chani@example.com")
	bookID := s.createBook(t, "Dune", "1", nil, nil)

	borrowID := s.borrow(t, first, bookID)

	w := s.do(t, http.MethodPost, "/api/borrowed_books", map[string]any{"user_id": second, "book_id": bookID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "conflict")

	w = s.do(t, http.MethodPut, fmt.Sprintf("/api/borrowed_books/%d", borrowID), map[string]any{"return_status": "returned"})
	require.Equal(t, http.StatusOK, w.Code)

	s.borrow(t, second, bookID)
}

func TestBorrowsController_GetUpdateDelete(t *testing.T) {
	s := newTestServer(t)
	userID := s.createUser(t, "Paul", "paul@example.com")
	bookID := s.createBook(t, "Dune", "1", nil, nil)
	borrowID := s.borrow(t, userID, bookID)
	path := fmt.Sprintf("/api/borrowed_books/%d", borrowID)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, path, nil).Code)

	w := s.do(t, http.MethodPut, path, map[string]any{"book_id": 99})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, path, map[string]any{"return_status": " "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var deleted entities.BorrowRecord
	decode(t, w, &deleted)
	assert.Equal(t, borrowID, deleted.ID)

	w = s.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), fmt.Sprintf("BorrowedBook with ID %d not found", borrowID))

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPut, path, map[string]any{"return_status": "returned"}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, path, nil).Code)
}

func TestBorrowsController_ListByUserAndBook(t *testing.T) {
	s := newTestServer(t)
	paul := s.createUser(t, "Paul", "paul@example.com")
	chani := s.createUser(t, "Chani", "chani@example.com")
	dune := s.createBook(t, "Dune", "1", nil, nil)
	messiah := s.createBook(t, "Dune Messiah", "2", nil, nil)

	s.borrow(t, paul, dune)
	s.borrow(t, paul, messiah)
	s.borrow(t, chani, dune)

	count := func(path string) int {
		w := s.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code, path)
		var list []entities.BorrowRecord
		decode(t, w, &list)
		return len(list)
	}

	assert.Equal(t, 3, count("/api/borrowed_books"))
	assert.Equal(t, 1, count("/api/borrowed_books?skip=2"))
	assert.Equal(t, 2, count(fmt.Sprintf("/api/borrowed_books/user/%d", paul)))
	assert.Equal(t, 1, count(fmt.Sprintf("/api/borrowed_books/user/%d", chani)))
	assert.Equal(t, 2, count(fmt.Sprintf("/api/borrowed_books/book/%d", dune)))
	assert.Equal(t, 1, count(fmt.Sprintf("/api/borrowed_books/book/%d?limit=1", dune)))
	assert.Equal(t, 0, count("/api/borrowed_books/user/999"))

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/borrowed_books/user/abc", nil).Code)
}

func TestBorrowsController_MostPopular(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{
		"/api/borrowed_books/most-popular-books",
		"/api/borrowed_books/most-popular-authors",
		"/api/borrowed_books/most-popular-categories",
	} {
		w := s.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Contains(t, w.Body.String(), "no_data")
	}

	herbert := s.createAuthor(t, "Frank", "Herbert")
	le := s.createAuthor(t, "Ursula", "Le Guin")
	scifi := s.createCategory(t, "Science Fiction")
	fantasy := s.createCategory(t, "Fantasy")
	dune := s.createBook(t, "Dune", "1", []uint{herbert}, []uint{scifi})
	earthsea := s.createBook(t, "A Wizard of Earthsea", "2", []uint{le}, []uint{fantasy})
	paul := s.createUser(t, "Paul", "paul@example.com")

	s.borrow(t, paul, dune)
	s.borrow(t, paul, dune)
	s.borrow(t, paul, earthsea)

	w := s.do(t, http.MethodGet, "/api/borrowed_books/most-popular-books", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var bookRanks []reports.BookCount
	decode(t, w, &bookRanks)
	require.Len(t, bookRanks, 2)
	assert.Equal(t, "Dune", bookRanks[0].Book.Title)
	assert.Equal(t, int64(2), bookRanks[0].BorrowCount)
	assert.Equal(t, []uint{herbert}, bookRanks[0].Book.AuthorIDs)

	w = s.do(t, http.MethodGet, "/api/borrowed_books/most-popular-authors?top_n=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var authorRanks []reports.AuthorCount
	decode(t, w, &authorRanks)
	require.Len(t, authorRanks, 1)
	assert.Equal(t, "Herbert", authorRanks[0].Author.SecondName)

	w = s.do(t, http.MethodGet, "/api/borrowed_books/most-popular-categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var categoryRanks []reports.CategoryCount
	decode(t, w, &categoryRanks)
	require.Len(t, categoryRanks, 2)
	assert.Equal(t, "Science Fiction", categoryRanks[0].Category.CategoryName)
	assert.Equal(t, int64(1), categoryRanks[1].BorrowCount)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/borrowed_books/most-popular-books?top_n=x", nil).Code)
}
