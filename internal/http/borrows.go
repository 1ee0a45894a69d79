package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library-manager/internal/config"
	"github.com/mrlokans/library-manager/internal/database/borrows"
	"github.com/mrlokans/library-manager/internal/entities"
)

// BorrowsController serves /api/borrowed_books: the borrow and return
// workflow plus the popularity reports.
type BorrowsController struct {
	store       BorrowStore
	reports     ReportStore
	changes     changeLogger
	defaultPage int
}

func NewBorrowsController(store BorrowStore, reportStore ReportStore, recorder ChangeRecorder, defaultPage int) *BorrowsController {
	return &BorrowsController{
		store:       store,
		reports:     reportStore,
		changes:     changeLogger{recorder: recorder},
		defaultPage: defaultPage,
	}
}

// BorrowBook handles POST /api/borrowed_books
func (bc *BorrowsController) BorrowBook(c *gin.Context) {
	var in borrows.CreateInput
	if !bindJSON(c, &in) {
		return
	}

	record, err := bc.store.Borrow(c.Request.Context(), in)
	if err != nil {
		respondError(c, err, "borrow book")
		return
	}

	bc.changes.log(c, entities.AuditActionBorrow, "borrow", record.ID,
		fmt.Sprintf("User %d borrowed book %d", record.UserID, record.BookID),
		map[string]any{"user_id": record.UserID, "book_id": record.BookID, "due_at": record.DueAt})
	c.JSON(http.StatusCreated, record)
}

// ListBorrows handles GET /api/borrowed_books?skip&limit
func (bc *BorrowsController) ListBorrows(c *gin.Context) {
	page, ok := parsePagination(c, bc.defaultPage)
	if !ok {
		return
	}

	result, err := bc.store.List(c.Request.Context(), page.Offset, page.Limit)
	if err != nil {
		respondError(c, err, "list borrows")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetBorrow handles GET /api/borrowed_books/:id
func (bc *BorrowsController) GetBorrow(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	record, err := bc.store.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "get borrow")
		return
	}
	if record == nil {
		respondNotFound(c, fmt.Sprintf("BorrowedBook with ID %d not found", id))
		return
	}
	c.JSON(http.StatusOK, record)
}

// UpdateBorrow handles PUT /api/borrowed_books/:id. Setting return_status to
// "returned" is how a book comes back.
func (bc *BorrowsController) UpdateBorrow(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var in borrows.UpdateInput
	if !bindJSON(c, &in) {
		return
	}

	record, err := bc.store.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err, "update borrow")
		return
	}

	action := entities.AuditActionUpdate
	if in.ReturnStatus != nil && *in.ReturnStatus == entities.ReturnStatusReturned {
		action = entities.AuditActionReturn
	}
	bc.changes.log(c, action, "borrow", record.ID,
		fmt.Sprintf("Borrow %d is now %q", record.ID, record.ReturnStatus), nil)
	c.JSON(http.StatusOK, record)
}

// DeleteBorrow handles DELETE /api/borrowed_books/:id
func (bc *BorrowsController) DeleteBorrow(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	record, err := bc.store.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "delete borrow")
		return
	}

	bc.changes.log(c, entities.AuditActionDelete, "borrow", record.ID,
		fmt.Sprintf("Deleted borrow %d", record.ID), nil)
	c.JSON(http.StatusOK, record)
}

// ListByUser handles GET /api/borrowed_books/user/:user_id
func (bc *BorrowsController) ListByUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}
	page, ok := parsePagination(c, bc.defaultPage)
	if !ok {
		return
	}

	result, err := bc.store.ListByUser(c.Request.Context(), userID, page.Offset, page.Limit)
	if err != nil {
		respondError(c, err, "list borrows by user")
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListByBook handles GET /api/borrowed_books/book/:book_id
func (bc *BorrowsController) ListByBook(c *gin.Context) {
	bookID, ok := parseIDParam(c, "book_id")
	if !ok {
		return
	}
	page, ok := parsePagination(c, bc.defaultPage)
	if !ok {
		return
	}

	result, err := bc.store.ListByBook(c.Request.Context(), bookID, page.Offset, page.Limit)
	if err != nil {
		respondError(c, err, "list borrows by book")
		return
	}
	c.JSON(http.StatusOK, result)
}

// MostPopularBooks handles GET /api/borrowed_books/most-popular-books?top_n
func (bc *BorrowsController) MostPopularBooks(c *gin.Context) {
	topN, ok := parseIntQuery(c, "top_n", config.DefaultTopN)
	if !ok {
		return
	}

	result, err := bc.reports.MostPopularBooks(c.Request.Context(), topN)
	if err != nil {
		respondError(c, err, "most popular books")
		return
	}
	c.JSON(http.StatusOK, result)
}

// MostPopularAuthors handles GET /api/borrowed_books/most-popular-authors?top_n
func (bc *BorrowsController) MostPopularAuthors(c *gin.Context) {
	topN, ok := parseIntQuery(c, "top_n", config.DefaultTopN)
	if !ok {
		return
	}

	result, err := bc.reports.MostPopularAuthors(c.Request.Context(), topN)
	if err != nil {
		respondError(c, err, "most popular authors")
		return
	}
	c.JSON(http.StatusOK, result)
}

// MostPopularCategories handles GET /api/borrowed_books/most-popular-categories?top_n
func (bc *BorrowsController) MostPopularCategories(c *gin.Context) {
	topN, ok := parseIntQuery(c, "top_n", config.DefaultTopN)
	if !ok {
		return
	}

	result, err := bc.reports.MostPopularCategories(c.Request.Context(), topN)
	if err != nil {
		respondError(c, err, "most popular categories")
		return
	}
	c.JSON(http.StatusOK, result)
}
