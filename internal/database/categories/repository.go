// Package categories provides database operations for book categories.
package categories

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
	CategoryName string  `json:"category_name"`
	Description  *string `json:"description"`
}

type UpdateInput struct {
	CategoryName *string `json:"category_name"`
	Description  *string `json:"description"`
}

// Repository handles category database operations.
type Repository struct {
	db    *gorm.DB
	links *links.Repository
}

func NewRepository(db *gorm.DB, linkRepo *links.Repository) *Repository {
	return &Repository{db: db, links: linkRepo}
}

func (r *Repository) Create(ctx context.Context, in CreateInput) (*entities.Category, error) {
	category := &entities.Category{
		CategoryName: strings.TrimSpace(in.CategoryName),
		Description:  in.Description,
	}
	if category.CategoryName == "" {
		return nil, database.Invalid("category_name is required")
	}
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

// Get returns the category, or nil when it does not exist.
func (r *Repository) Get(ctx context.Context, id uint) (*entities.Category, error) {
	return find(r.db.WithContext(ctx), id)
}

func (r *Repository) List(ctx context.Context, offset, limit int) ([]entities.Category, error) {
	categories := []entities.Category{}
	err := r.db.WithContext(ctx).Order("id").Scopes(database.Page(offset, limit)).Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (r *Repository) Update(ctx context.Context, id uint, in UpdateInput) (*entities.Category, error) {
	updates := map[string]any{}
	if in.CategoryName != nil {
		name := strings.TrimSpace(*in.CategoryName)
		if name == "" {
			return nil, database.Invalid("category_name must not be empty")
		}
		updates["category_name"] = name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}

	var category *entities.Category
	err := database.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		existing, err := find(tx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return database.NotFound("category with id %d not found", id)
		}
		if len(updates) > 0 {
			if err := tx.Model(existing).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update category: %w", err)
			}
		}
		category, err = find(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// Delete removes the category and its book links in one transaction.
func (r *Repository) Delete(ctx context.Context, id uint) (*entities.Category, error) {
	var category *entities.Category
	err := database.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		existing, err := find(tx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return database.NotFound("category with id %d not found", id)
		}
		if _, err := r.links.WithTx(tx).DeleteByCategory(ctx, id); err != nil {
			return err
		}
		if err := tx.Delete(&entities.Category{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}
		category = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

func find(tx *gorm.DB, id uint) (*entities.Category, error) {
	var category entities.Category
	err := tx.First(&category, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &category, nil
}
