// Package books provides database operations for book records, including
// author/category resolution and search.
//
// # Usage
//
//	repo := books.NewRepository(db, links.NewRepository(db))
//	book, err := repo.Create(ctx, books.CreateInput{Title: "Dune", ISBN: "9780441013593"})
package books

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/library-manager/internal/database"
	"github.com/mrlokans/library-manager/internal/database/links"
	"github.com/mrlokans/library-manager/internal/entities"
)

const defaultQuantity = 1

// CreateInput is the payload for a new book.
type CreateInput struct {
	Title           string `json:"title"`
	PublicationYear int    `json:"publication_year"`
	ISBN            string `json:"isbn"`
	Quantity        *int   `json:"quantity"`
	AuthorIDs       []uint `json:"author_ids"`
	CategoryIDs     []uint `json:"category_ids"`
}

// UpdateInput carries only the fields to change. A non-nil link set
// replaces current membership; a nil one leaves it untouched.
type UpdateInput struct {
	Title           *string `json:"title"`
	PublicationYear *int    `json:"publication_year"`
	ISBN            *string `json:"isbn"`
	Quantity        *int    `json:"quantity"`
	AuthorIDs       *[]uint `json:"author_ids"`
	CategoryIDs     *[]uint `json:"category_ids"`
}

// SearchFilter combines optional criteria with AND.
type SearchFilter struct {
	Title      string
	AuthorID   uint
	CategoryID uint
	Offset     int
	Limit      int
}

// IsEmpty reports whether no criteria are set.
func (f SearchFilter) IsEmpty() bool {
	return strings.TrimSpace(f.Title) == "" && f.AuthorID == 0 && f.CategoryID == 0
}

// Repository handles book database operations.
type Repository struct {
	db    *gorm.DB
	links *links.Repository
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB, linkRepo *links.Repository) *Repository {
	return &Repository{db: db, links: linkRepo}
}

// Create validates and stores a new book with its author and category links.
func (r *Repository) Create(ctx context.Context, in CreateInput) (*entities.Book, error) {
	title := strings.TrimSpace(in.Title)
	isbn := strings.TrimSpace(in.ISBN)
	if title == "" {
		return nil, database.Invalid("title is required")
	}
	if isbn == "" {
		return nil, database.Invalid("isbn is required")
	}
	quantity := defaultQuantity
	if in.Quantity != nil {
		quantity = *in.Quantity
	}
	if quantity < 0 {
		return nil, database.Invalid("quantity must not be negative")
	}

	book := &entities.Book{
		Title:           title,
		PublicationYear: in.PublicationYear,
		ISBN:            isbn,
		Quantity:        quantity,
	}
	authorIDs := database.UniqueIDs(in.AuthorIDs)
	categoryIDs := database.UniqueIDs(in.CategoryIDs)

	err := database.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := checkISBNFree(tx, isbn, 0); err != nil {
			return err
		}
		linkTx := r.links.WithTx(tx)
		if err := linkTx.ValidateAuthorIDs(ctx, authorIDs); err != nil {
			return err
		}
		if err := linkTx.ValidateCategoryIDs(ctx, categoryIDs); err != nil {
			return err
		}
		if err := tx.Create(book).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return database.Conflict("book with isbn %s already exists", isbn)
			}
			return fmt.Errorf("failed to create book: %w", err)
		}
		if err := linkTx.AddBookAuthors(ctx, book.ID, authorIDs); err != nil {
			return err
		}
		return linkTx.AddBookCategories(ctx, book.ID, categoryIDs)
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(authorIDs)
	slices.Sort(categoryIDs)
	book.AuthorIDs = authorIDs
	book.CategoryIDs = categoryIDs
	return book, nil
}

// Get returns the book with its link sets, or nil when it does not exist.
func (r *Repository) Get(ctx context.Context, id uint) (*entities.Book, error) {
	var book *entities.Book
	err := database.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		found, err := findBook(tx, id)
		if err != nil || found == nil {
			return err
		}
		if err := r.attachLinks(ctx, tx, []*entities.Book{found}); err != nil {
			return err
		}
		book = found
		return nil
	})
	return book, err
}

// List returns books ordered by id.
func (r *Repository) List(ctx context.Context, offset, limit int) ([]entities.Book, error) {
	return r.Search(ctx, SearchFilter{Offset: offset, Limit: limit})
}

// likeEscaper makes %, _ and the escape character match literally in LIKE.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// Search returns books matching every supplied criterion. Title matching is
// a case-insensitive substring match. No criteria lists all books, paginated.
func (r *Repository) Search(ctx context.Context, filter SearchFilter) ([]entities.Book, error) {
	books := []entities.Book{}
	err := database.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		query := tx.Model(&entities.Book{})
		if title := strings.TrimSpace(filter.Title); title != "" {
			query = query.Where(`LOWER(title) LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(strings.ToLower(title))+"%")
		}
		if filter.AuthorID != 0 {
			query = query.Where("id IN (?)", tx.Table("book_authors").Select("book_id").Where("author_id = ?", filter.AuthorID))
		}
		if filter.CategoryID != 0 {
			query = query.Where("id IN (?)", tx.Table("book_categories").Select("book_id").Where("category_id = ?", filter.CategoryID))
		}
		if err := query.Order("id").Scopes(database.Page(filter.Offset, filter.Limit)).Find(&books).Error; err != nil {
			return fmt.Errorf("failed to search books: %w", err)
		}

		ptrs := make([]*entities.Book, len(books))
		for i := range books {
			ptrs[i] = &books[i]
		}
		return r.attachLinks(ctx, tx, ptrs)
	})
	if err != nil {
		return nil, err
	}
	return books, nil
}

// Update applies the supplied fields. A changed ISBN is re-checked for uniqueness.
func (r *Repository) Update(ctx context.Context, id uint, in UpdateInput) (*entities.Book, error) {
	updates := map[string]any{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, database.Invalid("title must not be empty")
		}
		updates["title"] = title
	}
	if in.PublicationYear != nil {
		updates["publication_year"] = *in.PublicationYear
	}
	if in.Quantity != nil {
		if *in.Quantity < 0 {
			return nil, database.Invalid("quantity must not be negative")
		}
		updates["quantity"] = *in.Quantity
	}
	var isbn string
	if in.ISBN != nil {
		isbn = strings.TrimSpace(*in.ISBN)
		if isbn == "" {
			return nil, database.Invalid("isbn must not be empty")
		}
	}

	var book *entities.Book
	err := database.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		existing, err := findBook(tx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return database.NotFound("book with id %d not found", id)
		}

		if in.ISBN != nil && isbn != existing.ISBN {
			if err := checkISBNFree(tx, isbn, id); err != nil {
				return err
			}
			updates["isbn"] = isbn
		}

		linkTx := r.links.WithTx(tx)
		if in.AuthorIDs != nil {
			if err := linkTx.ValidateAuthorIDs(ctx, *in.AuthorIDs); err != nil {
				return err
			}
		}
		if in.CategoryIDs != nil {
			if err := linkTx.ValidateCategoryIDs(ctx, *in.CategoryIDs); err != nil {
				return err
			}
		}

		// Link-only updates still count as a mutation of the book.
		if len(updates) == 0 && (in.AuthorIDs != nil || in.CategoryIDs != nil) {
			updates["updated_at"] = tx.NowFunc()
		}
		if len(updates) > 0 {
			if err := tx.Model(existing).Updates(updates).Error; err != nil {
				if database.IsUniqueViolation(err) {
					return database.Conflict("book with isbn %s already exists", isbn)
				}
				return fmt.Errorf("failed to update book: %w", err)
			}
		}

		if in.AuthorIDs != nil {
			if err := linkTx.ReplaceBookAuthors(ctx, id, *in.AuthorIDs); err != nil {
				return err
			}
		}
		if in.CategoryIDs != nil {
			if err := linkTx.ReplaceBookCategories(ctx, id, *in.CategoryIDs); err != nil {
				return err
			}
		}

		updated, err := findBook(tx, id)
		if err != nil {
			return err
		}
		if err := r.attachLinks(ctx, tx, []*entities.Book{updated}); err != nil {
			return err
		}
		book = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

// Delete removes the book and its links. Books with borrow history are kept.
func (r *Repository) Delete(ctx context.Context, id uint) (*entities.Book, error) {
	var book *entities.Book
	err := database.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		existing, err := findBook(tx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return database.NotFound("book with id %d not found", id)
		}
		if err := r.attachLinks(ctx, tx, []*entities.Book{existing}); err != nil {
			return err
		}

		var borrowed int64
		if err := tx.Model(&entities.BorrowRecord{}).Where("book_id = ?", id).Count(&borrowed).Error; err != nil {
			return fmt.Errorf("failed to count borrow records: %w", err)
		}
		if borrowed > 0 {
			return database.Conflict("book %d has %d borrow records and cannot be deleted", id, borrowed)
		}

		linkTx := r.links.WithTx(tx)
		if err := linkTx.DeleteAuthorsByBook(ctx, id); err != nil {
			return err
		}
		if err := linkTx.DeleteCategoriesByBook(ctx, id); err != nil {
			return err
		}
		if err := tx.Delete(&entities.Book{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete book: %w", err)
		}
		book = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

// GetByISBN returns the book with the given ISBN, or nil.
func (r *Repository) GetByISBN(ctx context.Context, isbn string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.WithContext(ctx).Where("isbn = ?", strings.TrimSpace(isbn)).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get book by isbn: %w", err)
	}
	return &book, nil
}

// Count returns the number of books.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Book{}).Count(&count).Error
	return count, err
}

func (r *Repository) attachLinks(ctx context.Context, tx *gorm.DB, books []*entities.Book) error {
	if len(books) == 0 {
		return nil
	}
	ids := make([]uint, len(books))
	for i, b := range books {
		ids[i] = b.ID
	}
	linkTx := r.links.WithTx(tx)
	authors, err := linkTx.AuthorIDsForBooks(ctx, ids)
	if err != nil {
		return err
	}
	categories, err := linkTx.CategoryIDsForBooks(ctx, ids)
	if err != nil {
		return err
	}
	for _, b := range books {
		b.AuthorIDs = nonNil(authors[b.ID])
		b.CategoryIDs = nonNil(categories[b.ID])
	}
	return nil
}

func findBook(tx *gorm.DB, id uint) (*entities.Book, error) {
	var book entities.Book
	err := tx.First(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return &book, nil
}

// checkISBNFree fails with Conflict when another book (not exceptID) holds isbn.
func checkISBNFree(tx *gorm.DB, isbn string, exceptID uint) error {
	var count int64
	query := tx.Model(&entities.Book{}).Where("isbn = ?", isbn)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check isbn: %w", err)
	}
	if count > 0 {
		return database.Conflict("book with isbn %s already exists", isbn)
	}
	return nil
}

func nonNil(ids []uint) []uint {
	if ids == nil {
		return []uint{}
	}
	return ids
}
