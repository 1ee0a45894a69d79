// Package borrows provides database operations for borrow records and the
// borrow/return workflow.
package borrows

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/library-manager/internal/database"
	"github.com/mrlokans/library-manager/internal/entities"
)

// Options tune the borrow workflow. Timestamps are stored in UTC so that
// due dates compare correctly as text on sqlite.
type Options struct {
	// LoanPeriod sets DueAt when a borrow does not carry one. Zero leaves DueAt empty.
	LoanPeriod time.Duration
	// EnforceAvailability rejects a borrow once active records reach the book quantity.
	EnforceAvailability bool
}

type CreateInput struct {
	UserID        uint       `json:"user_id"`
	BookID        uint       `json:"book_id"`
	BorrowingTime *time.Time `json:"borrowing_time"`
	ReturnStatus  string     `json:"return_status"`
	DueAt         *time.Time `json:"due_at"`
}

type UpdateInput struct {
	UserID        *uint      `json:"user_id"`
	BookID        *uint      `json:"book_id"`
	BorrowingTime *time.Time `json:"borrowing_time"`
	ReturnStatus  *string    `json:"return_status"`
	DueAt         *time.Time `json:"due_at"`
}

// Repository handles borrow record database operations.
type Repository struct {
	db   *gorm.DB
	opts Options
	now  func() time.Time
}

// NewRepository creates a new borrows repository.
func NewRepository(db *gorm.DB, opts Options) *Repository {
	return &Repository{db: db, opts: opts, now: time.Now}
}

// Borrow records a book going out to a user.
func (r *Repository) Borrow(ctx context.Context, in CreateInput) (*entities.BorrowRecord, error) {
	if in.UserID == 0 || in.BookID == 0 {
		return nil, database.Invalid("user_id and book_id are required")
	}

	borrowedAt := r.now().UTC()
	if in.BorrowingTime != nil {
		borrowedAt = in.BorrowingTime.UTC()
	}
	status := strings.TrimSpace(in.ReturnStatus)
	if status == "" {
		status = entities.ReturnStatusNotReturned
	}
	var dueAt *time.Time
	switch {
	case in.DueAt != nil:
		due := in.DueAt.UTC()
		dueAt = &due
	case r.opts.LoanPeriod > 0:
		due := borrowedAt.Add(r.opts.LoanPeriod)
		dueAt = &due
	}

	record := &entities.BorrowRecord{
		BorrowingTime: borrowedAt,
		ReturnStatus:  status,
		UserID:        in.UserID,
		BookID:        in.BookID,
		DueAt:         dueAt,
	}
	if status == entities.ReturnStatusReturned {
		record.ReturnedAt = &borrowedAt
	}

	err := database.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := checkReferences(tx, in.UserID, in.BookID); err != nil {
			return err
		}
		if r.opts.EnforceAvailability && record.IsActive() {
			if err := checkAvailable(tx, in.BookID, 0); err != nil {
				return err
			}
		}
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("failed to create borrow record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Get returns the record, or nil when it does not exist.
func (r *Repository) Get(ctx context.Context, id uint) (*entities.BorrowRecord, error) {
	return find(r.db.WithContext(ctx), id)
}

// List returns borrow records ordered by id.
func (r *Repository) List(ctx context.Context, offset, limit int) ([]entities.BorrowRecord, error) {
	return r.list(r.db.WithContext(ctx), offset, limit)
}

// ListByUser returns every record of a user, oldest first.
func (r *Repository) ListByUser(ctx context.Context, userID uint, offset, limit int) ([]entities.BorrowRecord, error) {
	return r.list(r.db.WithContext(ctx).Where("user_id = ?", userID), offset, limit)
}

// ListByBook returns every record of a book, oldest first.
func (r *Repository) ListByBook(ctx context.Context, bookID uint, offset, limit int) ([]entities.BorrowRecord, error) {
	return r.list(r.db.WithContext(ctx).Where("book_id = ?", bookID), offset, limit)
}

func (r *Repository) list(query *gorm.DB, offset, limit int) ([]entities.BorrowRecord, error) {
	records := []entities.BorrowRecord{}
	if err := query.Order("id").Scopes(database.Page(offset, limit)).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list borrow records: %w", err)
	}
	return records, nil
}

// Update changes the supplied fields. Changed user/book references are re-validated.
func (r *Repository) Update(ctx context.Context, id uint, in UpdateInput) (*entities.BorrowRecord, error) {
	var record *entities.BorrowRecord
	err := database.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		existing, err := find(tx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return database.NotFound("borrow record with id %d not found", id)
		}

		updates := map[string]any{}
		userID, bookID := existing.UserID, existing.BookID
		if in.UserID != nil && *in.UserID != existing.UserID {
			userID = *in.UserID
			updates["user_id"] = userID
		}
		if in.BookID != nil && *in.BookID != existing.BookID {
			bookID = *in.BookID
			updates["book_id"] = bookID
		}
		if userID != existing.UserID || bookID != existing.BookID {
			if err := checkReferences(tx, userID, bookID); err != nil {
				return err
			}
		}
		if r.opts.EnforceAvailability && bookID != existing.BookID && existing.IsActive() {
			if err := checkAvailable(tx, bookID, id); err != nil {
				return err
			}
		}
		if in.BorrowingTime != nil {
			updates["borrowing_time"] = in.BorrowingTime.UTC()
		}
		if in.DueAt != nil {
			updates["due_at"] = in.DueAt.UTC()
		}
		if in.ReturnStatus != nil {
			status := strings.TrimSpace(*in.ReturnStatus)
			if status == "" {
				return database.Invalid("return_status must not be empty")
			}
			for k, v := range statusChange(existing, status, r.now().UTC()) {
				updates[k] = v
			}
		}

		if len(updates) > 0 {
			if err := tx.Model(existing).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update borrow record: %w", err)
			}
		}
		record, err = find(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Return sets the return status, "returned" when status is empty.
func (r *Repository) Return(ctx context.Context, id uint, status string) (*entities.BorrowRecord, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		status = entities.ReturnStatusReturned
	}
	return r.Update(ctx, id, UpdateInput{ReturnStatus: &status})
}

// Delete removes the record and returns it.
func (r *Repository) Delete(ctx context.Context, id uint) (*entities.BorrowRecord, error) {
	var record *entities.BorrowRecord
	err := database.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		existing, err := find(tx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return database.NotFound("borrow record with id %d not found", id)
		}
		if err := tx.Delete(&entities.BorrowRecord{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete borrow record: %w", err)
		}
		record = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// MarkOverdue flips not-returned records due before now to overdue and
// returns how many changed.
func (r *Repository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	var affected int64
	err := database.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		result := tx.Model(&entities.BorrowRecord{}).
			Where("return_status = ? AND due_at IS NOT NULL AND due_at < ?", entities.ReturnStatusNotReturned, now.UTC()).
			Updates(map[string]any{"return_status": entities.ReturnStatusOverdue})
		if result.Error != nil {
			return fmt.Errorf("failed to mark overdue borrows: %w", result.Error)
		}
		affected = result.RowsAffected
		return nil
	})
	return affected, err
}

// CountActive returns the number of records for the book that are still out.
func (r *Repository) CountActive(ctx context.Context, bookID uint) (int64, error) {
	return countActive(r.db.WithContext(ctx), bookID, 0)
}

func statusChange(existing *entities.BorrowRecord, status string, now time.Time) map[string]any {
	updates := map[string]any{"return_status": status}
	switch {
	case status == entities.ReturnStatusReturned && existing.ReturnedAt == nil:
		updates["returned_at"] = now
	case status != entities.ReturnStatusReturned && existing.ReturnedAt != nil:
		updates["returned_at"] = nil
	}
	return updates
}

func checkReferences(tx *gorm.DB, userID, bookID uint) error {
	ok, err := database.Exists(tx, &entities.User{}, userID)
	if err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if !ok {
		return database.InvalidReference("user with id %d does not exist", userID)
	}
	ok, err = database.Exists(tx, &entities.Book{}, bookID)
	if err != nil {
		return fmt.Errorf("failed to check book: %w", err)
	}
	if !ok {
		return database.InvalidReference("book with id %d does not exist", bookID)
	}
	return nil
}

func checkAvailable(tx *gorm.DB, bookID, exceptID uint) error {
	var book entities.Book
	if err := tx.Select("id", "quantity").First(&book, bookID).Error; err != nil {
		return fmt.Errorf("failed to load book: %w", err)
	}
	active, err := countActive(tx, bookID, exceptID)
	if err != nil {
		return err
	}
	if active >= int64(book.Quantity) {
		return database.Conflict("no copies of book %d available (%d of %d borrowed)", bookID, active, book.Quantity)
	}
	return nil
}

func countActive(tx *gorm.DB, bookID, exceptID uint) (int64, error) {
	var count int64
	query := tx.Model(&entities.BorrowRecord{}).
		Where("book_id = ? AND return_status <> ?", bookID, entities.ReturnStatusReturned)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count active borrows: %w", err)
	}
	return count, nil
}

func find(tx *gorm.DB, id uint) (*entities.BorrowRecord, error) {
	var record entities.BorrowRecord
	err := tx.First(&record, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get borrow record: %w", err)
	}
	return &record, nil
}
