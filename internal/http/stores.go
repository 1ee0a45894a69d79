package http

import (
	"context"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/library-manager/internal/audit"
	dbaudit "github.com/mrlokans/library-manager/internal/database/audit"
	"github.com/mrlokans/library-manager/internal/database/authors"
	"github.com/mrlokans/library-manager/internal/database/books"
	"github.com/mrlokans/library-manager/internal/database/borrows"
	"github.com/mrlokans/library-manager/internal/database/categories"
	"github.com/mrlokans/library-manager/internal/database/reports"
	"github.com/mrlokans/library-manager/internal/database/users"
	"github.com/mrlokans/library-manager/internal/entities"
)

// Store interfaces consumed by the controllers. The repositories under
// internal/database implement them; tests may substitute fakes.

type BookStore interface {
	Create(ctx context.Context, in books.CreateInput) (*entities.Book, error)
	Get(ctx context.Context, id uint) (*entities.Book, error)
	Search(ctx context.Context, filter books.SearchFilter) ([]entities.Book, error)
	Update(ctx context.Context, id uint, in books.UpdateInput) (*entities.Book, error)
	Delete(ctx context.Context, id uint) (*entities.Book, error)
}

type AuthorStore interface {
	Create(ctx context.Context, in authors.CreateInput) (*entities.Author, error)
	Get(ctx context.Context, id uint) (*entities.Author, error)
	List(ctx context.Context, offset, limit int) ([]entities.Author, error)
	Update(ctx context.Context, id uint, in authors.UpdateInput) (*entities.Author, error)
	Delete(ctx context.Context, id uint) (*entities.Author, error)
}

type CategoryStore interface {
	Create(ctx context.Context, in categories.CreateInput) (*entities.Category, error)
	Get(ctx context.Context, id uint) (*entities.Category, error)
	List(ctx context.Context, offset, limit int) ([]entities.Category, error)
	Update(ctx context.Context, id uint, in categories.UpdateInput) (*entities.Category, error)
	Delete(ctx context.Context, id uint) (*entities.Category, error)
}

type UserStore interface {
	Create(ctx context.Context, in users.CreateInput) (*entities.User, error)
	Get(ctx context.Context, id uint) (*entities.User, error)
	List(ctx context.Context, offset, limit int) ([]entities.User, error)
	Update(ctx context.Context, id uint, in users.UpdateInput) (*entities.User, error)
	Delete(ctx context.Context, id uint) (*entities.User, error)
}

type BorrowStore interface {
	Borrow(ctx context.Context, in borrows.CreateInput) (*entities.BorrowRecord, error)
	Get(ctx context.Context, id uint) (*entities.BorrowRecord, error)
	List(ctx context.Context, offset, limit int) ([]entities.BorrowRecord, error)
	ListByUser(ctx context.Context, userID uint, offset, limit int) ([]entities.BorrowRecord, error)
	ListByBook(ctx context.Context, bookID uint, offset, limit int) ([]entities.BorrowRecord, error)
	Update(ctx context.Context, id uint, in borrows.UpdateInput) (*entities.BorrowRecord, error)
	Delete(ctx context.Context, id uint) (*entities.BorrowRecord, error)
}

type ReportStore interface {
	MostPopularBooks(ctx context.Context, topN int) ([]reports.BookCount, error)
	MostPopularAuthors(ctx context.Context, topN int) ([]reports.AuthorCount, error)
	MostPopularCategories(ctx context.Context, topN int) ([]reports.CategoryCount, error)
}

// ChangeRecorder receives one record per successful mutation.
type ChangeRecorder interface {
	LogChange(rec audit.Record)
}

type AuditReader interface {
	GetEvents(ctx context.Context, filter dbaudit.Filter, limit, offset int) ([]entities.AuditEvent, int64, error)
}

type TaskQueue interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// Pinger reports store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ScheduleInfo exposes the next run of a named cron job.
type ScheduleInfo interface {
	NextRunTime(name string) *time.Time
}
