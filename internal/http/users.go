package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library-manager/internal/database/users"
	"github.com/mrlokans/library-manager/internal/entities"
)

// UsersController manages library patrons.
type UsersController struct {
	store       UserStore
	changes     changeLogger
	defaultPage int
}

func NewUsersController(store UserStore, recorder ChangeRecorder, defaultPage int) *UsersController {
	return &UsersController{store: store, changes: changeLogger{recorder: recorder}, defaultPage: defaultPage}
}

// CreateUser handles POST /api/users
func (uc *UsersController) CreateUser(c *gin.Context) {
	var in users.CreateInput
	if !bindJSON(c, &in) {
		return
	}

	user, err := uc.store.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err, "create user")
		return
	}

	uc.changes.log(c, entities.AuditActionCreate, "user", user.ID, "Created user "+user.Email, nil)
	c.JSON(http.StatusCreated, user)
}

// ListUsers handles GET /api/users?skip&limit
func (uc *UsersController) ListUsers(c *gin.Context) {
	page, ok := parsePagination(c, uc.defaultPage)
	if !ok {
		return
	}

	result, err := uc.store.List(c.Request.Context(), page.Offset, page.Limit)
	if err != nil {
		respondError(c, err, "list users")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetUser handles GET /api/users/:id
func (uc *UsersController) GetUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := uc.store.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "get user")
		return
	}
	if user == nil {
		respondNotFound(c, fmt.Sprintf("User with ID %d not found", id))
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateUser handles PUT /api/users/:id
func (uc *UsersController) UpdateUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var in users.UpdateInput
	if !bindJSON(c, &in) {
		return
	}

	user, err := uc.store.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err, "update user")
		return
	}

	uc.changes.log(c, entities.AuditActionUpdate, "user", user.ID, "Updated user "+user.Email, nil)
	c.JSON(http.StatusOK, user)
}

// DeleteUser handles DELETE /api/users/:id. Users with borrow history are kept.
func (uc *UsersController) DeleteUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := uc.store.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "delete user")
		return
	}

	uc.changes.log(c, entities.AuditActionDelete, "user", user.ID, "Deleted user "+user.Email, nil)
	c.JSON(http.StatusOK, user)
}
