// Package reports answers the "most popular" questions over borrow records.
//
// Aggregations are built with goqu for the configured dialect and run through
// sqlx on the same connection pool gorm uses. The ranked entities are then
// loaded through gorm.
package reports

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"

	"github.com/mrlokans/library-manager/internal/database"
	"github.com/mrlokans/library-manager/internal/database/links"
	"github.com/mrlokans/library-manager/internal/entities"
)

// DefaultTopN is used when a caller asks for zero or fewer results.
const DefaultTopN = 10

const (
	colBorrowCount = "borrow_count"
	colID          = "id"
)

type BookCount struct {
	Book        entities.Book `json:"book"`
	BorrowCount int64         `json:"borrow_count"`
}

type AuthorCount struct {
	Author      entities.Author `json:"author"`
	BorrowCount int64           `json:"borrow_count"`
}

type CategoryCount struct {
	Category    entities.Category `json:"category"`
	BorrowCount int64             `json:"borrow_count"`
}

type rankRow struct {
	ID          uint  `db:"id"`
	BorrowCount int64 `db:"borrow_count"`
}

// Repository runs reporting queries.
type Repository struct {
	db      *gorm.DB
	sqlx    *sqlx.DB
	dialect goqu.DialectWrapper
	links   *links.Repository
}

// NewRepository wraps the gorm pool for sqlx and picks the goqu dialect
// from the gorm driver.
func NewRepository(db *gorm.DB) (*Repository, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	var goquDialect, sqlxDriver string
	switch name := db.Dialector.Name(); name {
	case "sqlite":
		goquDialect, sqlxDriver = "sqlite3", "sqlite3"
	case "postgres":
		goquDialect, sqlxDriver = "postgres", "pgx"
	default:
		return nil, fmt.Errorf("reports: unsupported dialect %q", name)
	}

	return &Repository{
		db:      db,
		sqlx:    sqlx.NewDb(sqlDB, sqlxDriver),
		dialect: goqu.Dialect(goquDialect),
		links:   links.NewRepository(db),
	}, nil
}

// MostPopularBooks ranks books by borrow count, ties broken by id.
func (r *Repository) MostPopularBooks(ctx context.Context, topN int) ([]BookCount, error) {
	query := r.dialect.
		From(goqu.T(entities.BorrowRecord{}.TableName()).As("br")).
		Select(goqu.I("br.book_id").As(colID), goqu.COUNT(goqu.I("br.id")).As(colBorrowCount)).
		GroupBy(goqu.I("br.book_id"))

	rows, err := r.rank(ctx, query, "br.book_id", topN)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, database.NoData("no borrowed books found")
	}

	var books []entities.Book
	err = database.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Where("id IN ?", rowIDs(rows)).Find(&books).Error; err != nil {
			return fmt.Errorf("failed to load books: %w", err)
		}
		return r.attachLinks(ctx, tx, books)
	})
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]entities.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}
	results := make([]BookCount, 0, len(rows))
	for _, row := range rows {
		if book, ok := byID[row.ID]; ok {
			results = append(results, BookCount{Book: book, BorrowCount: row.BorrowCount})
		}
	}
	if len(results) == 0 {
		return nil, database.NoData("no borrowed books found")
	}
	return results, nil
}

// MostPopularAuthors ranks authors by borrows of their books. A borrowed
// book with several authors counts once for each.
func (r *Repository) MostPopularAuthors(ctx context.Context, topN int) ([]AuthorCount, error) {
	query := r.dialect.
		From(goqu.T(entities.BorrowRecord{}.TableName()).As("br")).
		InnerJoin(goqu.T(entities.BookAuthor{}.TableName()).As("ba"), goqu.On(goqu.I("ba.book_id").Eq(goqu.I("br.book_id")))).
		Select(goqu.I("ba.author_id").As(colID), goqu.COUNT(goqu.I("br.id")).As(colBorrowCount)).
		GroupBy(goqu.I("ba.author_id"))

	rows, err := r.rank(ctx, query, "ba.author_id", topN)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, database.NoData("no borrowed authors found")
	}

	var authors []entities.Author
	if err := r.db.WithContext(ctx).Where("id IN ?", rowIDs(rows)).Find(&authors).Error; err != nil {
		return nil, fmt.Errorf("failed to load authors: %w", err)
	}
	byID := make(map[uint]entities.Author, len(authors))
	for _, a := range authors {
		byID[a.ID] = a
	}
	results := make([]AuthorCount, 0, len(rows))
	for _, row := range rows {
		if author, ok := byID[row.ID]; ok {
			results = append(results, AuthorCount{Author: author, BorrowCount: row.BorrowCount})
		}
	}
	if len(results) == 0 {
		return nil, database.NoData("no borrowed authors found")
	}
	return results, nil
}

// MostPopularCategories ranks categories by borrows of their books.
func (r *Repository) MostPopularCategories(ctx context.Context, topN int) ([]CategoryCount, error) {
	query := r.dialect.
		From(goqu.T(entities.BorrowRecord{}.TableName()).As("br")).
		InnerJoin(goqu.T(entities.BookCategory{}.TableName()).As("bc"), goqu.On(goqu.I("bc.book_id").Eq(goqu.I("br.book_id")))).
		Select(goqu.I("bc.category_id").As(colID), goqu.COUNT(goqu.I("br.id")).As(colBorrowCount)).
		GroupBy(goqu.I("bc.category_id"))

	rows, err := r.rank(ctx, query, "bc.category_id", topN)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, database.NoData("no borrowed categories found")
	}

	var categories []entities.Category
	if err := r.db.WithContext(ctx).Where("id IN ?", rowIDs(rows)).Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	byID := make(map[uint]entities.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	results := make([]CategoryCount, 0, len(rows))
	for _, row := range rows {
		if category, ok := byID[row.ID]; ok {
			results = append(results, CategoryCount{Category: category, BorrowCount: row.BorrowCount})
		}
	}
	if len(results) == 0 {
		return nil, database.NoData("no borrowed categories found")
	}
	return results, nil
}

// rank orders an aggregation by count descending then key ascending, and
// runs it through sqlx.
func (r *Repository) rank(ctx context.Context, query *goqu.SelectDataset, key string, topN int) ([]rankRow, error) {
	if topN <= 0 {
		topN = DefaultTopN
	}
	sqlQuery, args, err := query.
		Order(goqu.C(colBorrowCount).Desc(), goqu.I(key).Asc()).
		Limit(uint(topN)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build report query: %w", err)
	}
	log.Debug("Running report query", "sql", sqlQuery, "args", args)

	rows := []rankRow{}
	if err := r.sqlx.SelectContext(ctx, &rows, sqlQuery, args...); err != nil {
		return nil, fmt.Errorf("failed to run report query: %w", err)
	}
	return rows, nil
}

func (r *Repository) attachLinks(ctx context.Context, tx *gorm.DB, books []entities.Book) error {
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
	for i := range books {
		books[i].AuthorIDs = orEmpty(authors[books[i].ID])
		books[i].CategoryIDs = orEmpty(categories[books[i].ID])
	}
	return nil
}

func rowIDs(rows []rankRow) []uint {
	ids := make([]uint, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	return ids
}

func orEmpty(ids []uint) []uint {
	if ids == nil {
		return []uint{}
	}
	return ids
}
