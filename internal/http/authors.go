package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library-manager/internal/database/authors"
	"github.com/mrlokans/library-manager/internal/entities"
)

type AuthorsController struct {
	store       AuthorStore
	changes     changeLogger
	defaultPage int
}

func NewAuthorsController(store AuthorStore, recorder ChangeRecorder, defaultPage int) *AuthorsController {
	return &AuthorsController{store: store, changes: changeLogger{recorder: recorder}, defaultPage: defaultPage}
}

func authorName(a *entities.Author) string {
	return a.FirstName + " " + a.SecondName
}

// CreateAuthor handles POST /api/authors
func (ac *AuthorsController) CreateAuthor(c *gin.Context) {
	var in authors.CreateInput
	if !bindJSON(c, &in) {
		return
	}

	author, err := ac.store.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err, "create author")
		return
	}

	ac.changes.log(c, entities.AuditActionCreate, "author", author.ID, "Created author "+authorName(author), nil)
	c.JSON(http.StatusCreated, author)
}

// ListAuthors handles GET /api/authors?skip&limit
func (ac *AuthorsController) ListAuthors(c *gin.Context) {
	page, ok := parsePagination(c, ac.defaultPage)
	if !ok {
		return
	}

	result, err := ac.store.List(c.Request.Context(), page.Offset, page.Limit)
	if err != nil {
		respondError(c, err, "list authors")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetAuthor handles GET /api/authors/:id
func (ac *AuthorsController) GetAuthor(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	author, err := ac.store.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "get author")
		return
	}
	if author == nil {
		respondNotFound(c, fmt.Sprintf("Author with ID %d not found", id))
		return
	}
	c.JSON(http.StatusOK, author)
}

// UpdateAuthor handles PUT /api/authors/:id
func (ac *AuthorsController) UpdateAuthor(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var in authors.UpdateInput
	if !bindJSON(c, &in) {
		return
	}

	author, err := ac.store.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err, "update author")
		return
	}

	ac.changes.log(c, entities.AuditActionUpdate, "author", author.ID, "Updated author "+authorName(author), nil)
	c.JSON(http.StatusOK, author)
}

// DeleteAuthor handles DELETE /api/authors/:id. Book links are pruned.
func (ac *AuthorsController) DeleteAuthor(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	author, err := ac.store.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "delete author")
		return
	}

	ac.changes.log(c, entities.AuditActionDelete, "author", author.ID, "Deleted author "+authorName(author), nil)
	c.JSON(http.StatusOK, author)
}
