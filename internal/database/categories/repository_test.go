package categories

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/library-manager/internal/database"
	"github.com/mrlokans/library-manager/internal/database/links"
	"github.com/mrlokans/library-manager/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	db, err := database.NewSQLite(filepath.Join(t.TempDir(), "categories.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db.DB, links.NewRepository(db.DB)), db.DB
}

func TestRepository_CRUD(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateInput{CategoryName: "Poetry"})
	require.NoError(t, err)
	assert.Nil(t, created.Description)

	desc := "Verse and lyric."
	updated, err := repo.Update(ctx, created.ID, UpdateInput{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "Poetry", updated.CategoryName)
	require.NotNil(t, updated.Description)
	assert.Equal(t, desc, *updated.Description)

	list, err := repo.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestRepository_Create_RequiresName(t *testing.T) {
	repo, _ := setupTestDB(t)

	_, err := repo.Create(context.Background(), CreateInput{CategoryName: "   "})

	assert.True(t, errors.Is(err, database.ErrInvalid))
}

func TestRepository_Delete_PrunesLinks(t *testing.T) {
	repo, db := setupTestDB(t)
	ctx := context.Background()

	category, err := repo.Create(ctx, CreateInput{CategoryName: "Horror"})
	require.NoError(t, err)
	books := []entities.Book{{Title: "It", ISBN: "H1", Quantity: 1}, {Title: "Dracula", ISBN: "H2", Quantity: 1}}
	require.NoError(t, db.Create(&books).Error)
	for _, b := range books {
		require.NoError(t, db.Create(&entities.BookCategory{BookID: b.ID, CategoryID: category.ID}).Error)
	}

	_, err = repo.Delete(ctx, category.ID)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&entities.BookCategory{}).Count(&count).Error)
	assert.Zero(t, count)

	got, err := repo.Get(ctx, category.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = repo.Update(ctx, category.ID, UpdateInput{})
	assert.True(t, errors.Is(err, database.ErrNotFound))
}
