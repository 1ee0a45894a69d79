package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library-manager/internal/auth"
	"github.com/mrlokans/library-manager/internal/config"
	"github.com/mrlokans/library-manager/internal/demo"
)

// NewRouter creates the gin engine with every endpoint registered. The
// returned stop function releases background resources held by middleware.
func NewRouter(cfg RouterConfig) (*gin.Engine, func()) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogger(cfg.Logger))
	router.Use(auth.SecurityHeadersMiddleware())
	router.Use(auth.StrictTransportSecurityMiddleware(0))

	if cfg.RateLimit.Enabled && cfg.RateLimit.RPS > 0 {
		router.Use(NewClientRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst).Middleware())
	}

	router.Use(demo.NewMiddleware(cfg.DemoMode).Handler())

	stop := func() {}
	localAuth := cfg.AuthConfig.Mode == config.AuthModeLocal && cfg.AuthService != nil

	if localAuth && cfg.SessionManager != nil {
		// Session must load before CSRF so CSRF sees the session cookie state
		router.Use(cfg.SessionManager.SessionLoadSave())
		if len(cfg.CSRFSecret) > 0 {
			router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.AuthConfig.SecureCookies, cfg.AuthService, cfg.SessionManager.Cookie.Name))
		}
	}

	authMiddleware := auth.NewMiddleware(cfg.AuthService, cfg.SessionManager, cfg.AuthConfig)
	router.Use(authMiddleware.Handler())
	writer := authMiddleware.RequireWriter()

	if localAuth {
		authController := auth.NewAuthController(cfg.AuthService, cfg.SessionManager, cfg.AuthConfig, cfg.AuthRecorder)
		authController.RegisterRoutes(router)
		stop = authController.Stop
	}

	pageSize := cfg.DefaultPageSize
	if pageSize <= 0 {
		pageSize = config.DefaultPageSize
	}

	health := NewHealthController(cfg.Database, cfg.Version, cfg.Scheduler, cfg.JobNames...)
	router.GET("/", health.Welcome)
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	api := router.Group("/api")

	if cfg.Books != nil {
		books := NewBooksController(cfg.Books, cfg.AuditRecorder, pageSize)
		api.POST("/books", writer, books.CreateBook)
		api.GET("/books", books.ListBooks)
		api.GET("/books/search", books.SearchBooks)
		api.GET("/books/:id", books.GetBook)
		api.PUT("/books/:id", writer, books.UpdateBook)
		api.DELETE("/books/:id", writer, books.DeleteBook)
	}

	if cfg.Authors != nil {
		authors := NewAuthorsController(cfg.Authors, cfg.AuditRecorder, pageSize)
		api.POST("/authors", writer, authors.CreateAuthor)
		api.GET("/authors", authors.ListAuthors)
		api.GET("/authors/:id", authors.GetAuthor)
		api.PUT("/authors/:id", writer, authors.UpdateAuthor)
		api.DELETE("/authors/:id", writer, authors.DeleteAuthor)
	}

	if cfg.Categories != nil {
		categories := NewCategoriesController(cfg.Categories, cfg.AuditRecorder, pageSize)
		api.POST("/categories", writer, categories.CreateCategory)
		api.GET("/categories", categories.ListCategories)
		api.GET("/categories/:id", categories.GetCategory)
		api.PUT("/categories/:id", writer, categories.UpdateCategory)
		api.DELETE("/categories/:id", writer, categories.DeleteCategory)
	}

	if cfg.Users != nil {
		users := NewUsersController(cfg.Users, cfg.AuditRecorder, pageSize)
		api.POST("/users", writer, users.CreateUser)
		api.GET("/users", users.ListUsers)
		api.GET("/users/:id", users.GetUser)
		api.PUT("/users/:id", writer, users.UpdateUser)
		api.DELETE("/users/:id", writer, users.DeleteUser)
	}

	if cfg.Borrows != nil {
		borrows := NewBorrowsController(cfg.Borrows, cfg.Reports, cfg.AuditRecorder, pageSize)
		api.POST("/borrowed_books", writer, borrows.BorrowBook)
		api.GET("/borrowed_books", borrows.ListBorrows)
		api.GET("/borrowed_books/:id", borrows.GetBorrow)
		api.PUT("/borrowed_books/:id", writer, borrows.UpdateBorrow)
		api.DELETE("/borrowed_books/:id", writer, borrows.DeleteBorrow)
		api.GET("/borrowed_books/user/:user_id", borrows.ListByUser)
		api.GET("/borrowed_books/book/:book_id", borrows.ListByBook)
		if cfg.Reports != nil {
			api.GET("/borrowed_books/most-popular-books", borrows.MostPopularBooks)
			api.GET("/borrowed_books/most-popular-authors", borrows.MostPopularAuthors)
			api.GET("/borrowed_books/most-popular-categories", borrows.MostPopularCategories)
		}
	}

	if cfg.AuditReader != nil {
		auditController := NewAuditController(cfg.AuditReader)
		api.GET("/audit", auditController.GetAuditEvents)
	}

	if cfg.TaskQueue != nil {
		tasksController := NewTasksController(cfg.TaskQueue, cfg.AuditRecorder, cfg.AuditRetentionDays)
		api.GET("/tasks/types", tasksController.ListTaskTypes)
		api.GET("/tasks/:id", tasksController.GetTaskStatus)
		api.POST("/tasks/:type/run", writer, tasksController.RunTask)
	}

	return router, stop
}
