package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library-manager/internal/database/categories"
	"github.com/mrlokans/library-manager/internal/entities"
)

type CategoriesController struct {
	store       CategoryStore
	changes     changeLogger
	defaultPage int
}

func NewCategoriesController(store CategoryStore, recorder ChangeRecorder, defaultPage int) *CategoriesController {
	return &CategoriesController{store: store, changes: changeLogger{recorder: recorder}, defaultPage: defaultPage}
}

// CreateCategory handles POST /api/categories
func (cc *CategoriesController) CreateCategory(c *gin.Context) {
	var in categories.CreateInput
	if !bindJSON(c, &in) {
		return
	}

	category, err := cc.store.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err, "create category")
		return
	}

	cc.changes.log(c, entities.AuditActionCreate, "category", category.ID, fmt.Sprintf("Created category %q", category.CategoryName), nil)
	c.JSON(http.StatusCreated, category)
}

// ListCategories handles GET /api/categories?skip&limit
func (cc *CategoriesController) ListCategories(c *gin.Context) {
	page, ok := parsePagination(c, cc.defaultPage)
	if !ok {
		return
	}

	result, err := cc.store.List(c.Request.Context(), page.Offset, page.Limit)
	if err != nil {
		respondError(c, err, "list categories")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetCategory handles GET /api/categories/:id
func (cc *CategoriesController) GetCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	category, err := cc.store.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "get category")
		return
	}
	if category == nil {
		respondNotFound(c, fmt.Sprintf("Category with ID %d not found", id))
		return
	}
	c.JSON(http.StatusOK, category)
}

// UpdateCategory handles PUT /api/categories/:id
func (cc *CategoriesController) UpdateCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var in categories.UpdateInput
	if !bindJSON(c, &in) {
		return
	}

	category, err := cc.store.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err, "update category")
		return
	}

	cc.changes.log(c, entities.AuditActionUpdate, "category", category.ID, fmt.Sprintf("Updated category %q", category.CategoryName), nil)
	c.JSON(http.StatusOK, category)
}

// DeleteCategory handles DELETE /api/categories/:id. Book links are pruned.
func (cc *CategoriesController) DeleteCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	category, err := cc.store.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "delete category")
		return
	}

	cc.changes.log(c, entities.AuditActionDelete, "category", category.ID, fmt.Sprintf("Deleted category %q", category.CategoryName), nil)
	c.JSON(http.StatusOK, category)
}
