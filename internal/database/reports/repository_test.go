package reports

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/library-manager/internal/database"
	"github.com/mrlokans/library-manager/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	db, err := database.NewSQLite(filepath.Join(t.TempDir(), "reports.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo, err := NewRepository(db.DB)
	require.NoError(t, err)
	return repo, db.DB
}

type fixture struct {
	books      []entities.Book
	authors    []entities.Author
	categories []entities.Category
}

// seedLibrary creates three books borrowed 3, 2 and 1 times.
// Book 0 is by author 0, book 1 by authors 0 and 1, book 2 by author 2.
// Book 0 and 2 are fiction, book 1 is history.
func seedLibrary(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	f := fixture{
		books: []entities.Book{
			{Title: "Three", ISBN: "B3", Quantity: 1},
			{Title: "Two", ISBN: "B2", Quantity: 1},
			{Title: "One", ISBN: "B1", Quantity: 1},
		},
		authors:    []entities.Author{{FirstName: "A", SecondName: "Zero"}, {FirstName: "A", SecondName: "One"}, {FirstName: "A", SecondName: "Two"}},
		categories: []entities.Category{{CategoryName: "Fiction"}, {CategoryName: "History"}},
	}
	require.NoError(t, db.Create(&f.books).Error)
	require.NoError(t, db.Create(&f.authors).Error)
	require.NoError(t, db.Create(&f.categories).Error)

	require.NoError(t, db.Create([]entities.BookAuthor{
		{BookID: f.books[0].ID, AuthorID: f.authors[0].ID},
		{BookID: f.books[1].ID, AuthorID: f.authors[0].ID},
		{BookID: f.books[1].ID, AuthorID: f.authors[1].ID},
		{BookID: f.books[2].ID, AuthorID: f.authors[2].ID},
	}).Error)
	require.NoError(t, db.Create([]entities.BookCategory{
		{BookID: f.books[0].ID, CategoryID: f.categories[0].ID},
		{BookID: f.books[1].ID, CategoryID: f.categories[1].ID},
		{BookID: f.books[2].ID, CategoryID: f.categories[0].ID},
	}).Error)

	user := entities.User{FirstName: "Ann", LastName: "Reader", Email: "ann@example.com"}
	require.NoError(t, db.Create(&user).Error)
	for i, times := range []int{3, 2, 1} {
		for n := 0; n < times; n++ {
			require.NoError(t, db.Create(&entities.BorrowRecord{
				BorrowingTime: time.Now(),
				ReturnStatus:  entities.ReturnStatusReturned,
				UserID:        user.ID,
				BookID:        f.books[i].ID,
			}).Error)
		}
	}
	return f
}

func TestRepository_MostPopularBooks(t *testing.T) {
	repo, db := setupTestDB(t)
	f := seedLibrary(t, db)

	results, err := repo.MostPopularBooks(context.Background(), 2)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, f.books[0].ID, results[0].Book.ID)
	assert.Equal(t, int64(3), results[0].BorrowCount)
	assert.Equal(t, f.books[1].ID, results[1].Book.ID)
	assert.Equal(t, int64(2), results[1].BorrowCount)
	assert.ElementsMatch(t, []uint{f.authors[0].ID, f.authors[1].ID}, results[1].Book.AuthorIDs)
}

func TestRepository_MostPopularBooks_DefaultTopN(t *testing.T) {
	repo, db := setupTestDB(t)
	seedLibrary(t, db)

	results, err := repo.MostPopularBooks(context.Background(), 0)

	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestRepository_MostPopularBooks_TiesBrokenByID(t *testing.T) {
	repo, db := setupTestDB(t)
	user := entities.User{FirstName: "Ann", LastName: "Reader", Email: "ann@example.com"}
	require.NoError(t, db.Create(&user).Error)
	books := []entities.Book{{Title: "First", ISBN: "T1", Quantity: 1}, {Title: "Second", ISBN: "T2", Quantity: 1}}
	require.NoError(t, db.Create(&books).Error)
	for _, b := range []entities.Book{books[1], books[0]} {
		require.NoError(t, db.Create(&entities.BorrowRecord{BorrowingTime: time.Now(), ReturnStatus: "returned", UserID: user.ID, BookID: b.ID}).Error)
	}

	results, err := repo.MostPopularBooks(context.Background(), 10)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, books[0].ID, results[0].Book.ID)
	assert.Equal(t, books[1].ID, results[1].Book.ID)
}

func TestRepository_MostPopularAuthors(t *testing.T) {
	repo, db := setupTestDB(t)
	f := seedLibrary(t, db)

	results, err := repo.MostPopularAuthors(context.Background(), 10)

	require.NoError(t, err)
	require.Len(t, results, 3)
	// Author 0 wrote books borrowed 3 and 2 times.
	assert.Equal(t, f.authors[0].ID, results[0].Author.ID)
	assert.Equal(t, int64(5), results[0].BorrowCount)
	assert.Equal(t, f.authors[1].ID, results[1].Author.ID)
	assert.Equal(t, int64(2), results[1].BorrowCount)
	assert.Equal(t, f.authors[2].ID, results[2].Author.ID)
	assert.Equal(t, int64(1), results[2].BorrowCount)
}

func TestRepository_MostPopularCategories(t *testing.T) {
	repo, db := setupTestDB(t)
	f := seedLibrary(t, db)

	results, err := repo.MostPopularCategories(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, f.categories[0].ID, results[0].Category.ID)
	assert.Equal(t, int64(4), results[0].BorrowCount)
}

func TestRepository_NoBorrows(t *testing.T) {
	repo, db := setupTestDB(t)
	require.NoError(t, db.Create(&entities.Book{Title: "Unread", ISBN: "U1", Quantity: 1}).Error)
	ctx := context.Background()

	_, err := repo.MostPopularBooks(ctx, 5)
	assert.True(t, errors.Is(err, database.ErrNoData))

	_, err = repo.MostPopularAuthors(ctx, 5)
	assert.True(t, errors.Is(err, database.ErrNoData))

	_, err = repo.MostPopularCategories(ctx, 5)
	assert.True(t, errors.Is(err, database.ErrNoData))
}

func TestRepository_BorrowsWithoutAuthorsAreNoData(t *testing.T) {
	repo, db := setupTestDB(t)
	user := entities.User{FirstName: "Ann", LastName: "Reader", Email: "ann@example.com"}
	require.NoError(t, db.Create(&user).Error)
	book := entities.Book{Title: "Anonymous", ISBN: "X1", Quantity: 1}
	require.NoError(t, db.Create(&book).Error)
	require.NoError(t, db.Create(&entities.BorrowRecord{BorrowingTime: time.Now(), ReturnStatus: "not returned", UserID: user.ID, BookID: book.ID}).Error)

	_, err := repo.MostPopularAuthors(context.Background(), 5)

	assert.True(t, errors.Is(err, database.ErrNoData))
}
