// Package authors provides database operations for author records.
package authors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/library-manager/internal/database"
	"github.com/mrlokans/library-manager/internal/database/links"
	"github.com/mrlokans/library-manager/internal/entities"
)

type CreateInput struct {
	FirstName  string  `json:"first_name"`
	SecondName string  `json:"second_name"`
	Biography  *string `json:"biography"`
}

type UpdateInput struct {
	FirstName  *string `json:"first_name"`
	SecondName *string `json:"second_name"`
	Biography  *string `json:"biography"`
}

// Repository handles author database operations.
type Repository struct {
	db    *gorm.DB
	links *links.Repository
}

// NewRepository creates a new authors repository.
func NewRepository(db *gorm.DB, linkRepo *links.Repository) *Repository {
	return &Repository{db: db, links: linkRepo}
}

func (r *Repository) Create(ctx context.Context, in CreateInput) (*entities.Author, error) {
	author := &entities.Author{
		FirstName:  strings.TrimSpace(in.FirstName),
		SecondName: strings.TrimSpace(in.SecondName),
		Biography:  in.Biography,
	}
	if author.FirstName == "" || author.SecondName == "" {
		return nil, database.Invalid("first_name and second_name are required")
	}
	if err := r.db.WithContext(ctx).Create(author).Error; err != nil {
		return nil, fmt.Errorf("failed to create author: %w", err)
	}
	return author, nil
}

// Get returns the author, or nil when it does not exist.
func (r *Repository) Get(ctx context.Context, id uint) (*entities.Author, error) {
	return find(r.db.WithContext(ctx), id)
}

func (r *Repository) List(ctx context.Context, offset, limit int) ([]entities.Author, error) {
	authors := []entities.Author{}
	err := r.db.WithContext(ctx).Order("id").Scopes(database.Page(offset, limit)).Find(&authors).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list authors: %w", err)
	}
	return authors, nil
}

func (r *Repository) Update(ctx context.Context, id uint, in UpdateInput) (*entities.Author, error) {
	updates := map[string]any{}
	if in.FirstName != nil {
		if strings.TrimSpace(*in.FirstName) == "" {
			return nil, database.Invalid("first_name must not be empty")
		}
		updates["first_name"] = strings.TrimSpace(*in.FirstName)
	}
	if in.SecondName != nil {
		if strings.TrimSpace(*in.SecondName) == "" {
			return nil, database.Invalid("second_name must not be empty")
		}
		updates["second_name"] = strings.TrimSpace(*in.SecondName)
	}
	if in.Biography != nil {
		updates["biography"] = *in.Biography
	}

	var author *entities.Author
	err := database.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		existing, err := find(tx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return database.NotFound("author with id %d not found", id)
		}
		if len(updates) > 0 {
			if err := tx.Model(existing).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update author: %w", err)
			}
		}
		author, err = find(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return author, nil
}

// Delete removes the author after detaching it from every book.
func (r *Repository) Delete(ctx context.Context, id uint) (*entities.Author, error) {
	var author *entities.Author
	err := database.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		existing, err := find(tx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return database.NotFound("author with id %d not found", id)
		}
		if _, err := r.links.WithTx(tx).DeleteByAuthor(ctx, id); err != nil {
			return err
		}
		if err := tx.Delete(&entities.Author{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete author: %w", err)
		}
		author = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return author, nil
}

// Count returns the number of authors.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Author{}).Count(&count).Error
	return count, err
}

func find(tx *gorm.DB, id uint) (*entities.Author, error) {
	var author entities.Author
	err := tx.First(&author, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get author: %w", err)
	}
	return &author, nil
}
