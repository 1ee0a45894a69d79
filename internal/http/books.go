package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library-manager/internal/database/books"
	"github.com/mrlokans/library-manager/internal/entities"
)

type BooksController struct {
	store       BookStore
	changes     changeLogger
	defaultPage int
}

func NewBooksController(store BookStore, recorder ChangeRecorder, defaultPage int) *BooksController {
	return &BooksController{
		store:       store,
		changes:     changeLogger{recorder: recorder},
		defaultPage: defaultPage,
	}
}

// CreateBook handles POST /api/books
func (bc *BooksController) CreateBook(c *gin.Context) {
	var in books.CreateInput
	if !bindJSON(c, &in) {
		return
	}

	book, err := bc.store.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err, "create book")
		return
	}

	bc.changes.log(c, entities.AuditActionCreate, "book", book.ID,
		fmt.Sprintf("Created book %q", book.Title),
		map[string]any{"isbn": book.ISBN, "author_ids": book.AuthorIDs, "category_ids": book.CategoryIDs})
	c.JSON(http.StatusCreated, book)
}

// ListBooks handles GET /api/books?title&author_id&category_id&skip&limit
func (bc *BooksController) ListBooks(c *gin.Context) {
	filter, ok := bc.parseFilter(c)
	if !ok {
		return
	}

	result, err := bc.store.Search(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, result)
}

// SearchBooks handles GET /api/books/search. It accepts the same filters as
// ListBooks and requires at least one of them.
func (bc *BooksController) SearchBooks(c *gin.Context) {
	filter, ok := bc.parseFilter(c)
	if !ok {
		return
	}
	if filter.IsEmpty() {
		respondBadRequest(c, "at least one of title, author_id or category_id is required")
		return
	}

	result, err := bc.store.Search(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "search books")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (bc *BooksController) parseFilter(c *gin.Context) (books.SearchFilter, bool) {
	page, ok := parsePagination(c, bc.defaultPage)
	if !ok {
		return books.SearchFilter{}, false
	}
	authorID, ok := parseOptionalUintQuery(c, "author_id")
	if !ok {
		return books.SearchFilter{}, false
	}
	categoryID, ok := parseOptionalUintQuery(c, "category_id")
	if !ok {
		return books.SearchFilter{}, false
	}
	return books.SearchFilter{
		Title:      c.Query("title"),
		AuthorID:   authorID,
		CategoryID: categoryID,
		Offset:     page.Offset,
		Limit:      page.Limit,
	}, true
}

// GetBook handles GET /api/books/:id
func (bc *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.store.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "get book")
		return
	}
	if book == nil {
		respondNotFound(c, fmt.Sprintf("Book with ID %d not found", id))
		return
	}
	c.JSON(http.StatusOK, book)
}

// UpdateBook handles PUT /api/books/:id
func (bc *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var in books.UpdateInput
	if !bindJSON(c, &in) {
		return
	}

	book, err := bc.store.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err, "update book")
		return
	}

	bc.changes.log(c, entities.AuditActionUpdate, "book", book.ID,
		fmt.Sprintf("Updated book %q", book.Title), nil)
	c.JSON(http.StatusOK, book)
}

// DeleteBook handles DELETE /api/books/:id
func (bc *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.store.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "delete book")
		return
	}

	bc.changes.log(c, entities.AuditActionDelete, "book", book.ID,
		fmt.Sprintf("Deleted book %q", book.Title), map[string]any{"isbn": book.ISBN})
	c.JSON(http.StatusOK, book)
}
