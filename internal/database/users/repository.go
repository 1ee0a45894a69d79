// Package users provides database operations for library patrons.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.Create(ctx, users.CreateInput{FirstName: "Ann", LastName: "Reader", Email: "ann@example.com"})
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/library-manager/internal/database"
	"github.com/mrlokans/library-manager/internal/entities"
)

type CreateInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type UpdateInput struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
}

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create stores a new patron.
func (r *Repository) Create(ctx context.Context, in CreateInput) (*entities.User, error) {
	user := &entities.User{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     strings.TrimSpace(in.Email),
	}
	if user.FirstName == "" || user.LastName == "" || user.Email == "" {
		return nil, database.Invalid("first_name, last_name and email are required")
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Get retrieves a user by ID, or nil when absent.
func (r *Repository) Get(ctx context.Context, id uint) (*entities.User, error) {
	return find(r.db.WithContext(ctx), id)
}

// List returns users ordered by id.
func (r *Repository) List(ctx context.Context, offset, limit int) ([]entities.User, error) {
	users := []entities.User{}
	err := r.db.WithContext(ctx).Order("id").Scopes(database.Page(offset, limit)).Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Update changes only the supplied fields.
func (r *Repository) Update(ctx context.Context, id uint, in UpdateInput) (*entities.User, error) {
	updates := map[string]any{}
	fields := []struct {
		column string
		value  *string
	}{
		{"first_name", in.FirstName},
		{"last_name", in.LastName},
		{"email", in.Email},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		trimmed := strings.TrimSpace(*f.value)
		if trimmed == "" {
			return nil, database.Invalid("%s must not be empty", f.column)
		}
		updates[f.column] = trimmed
	}

	var user *entities.User
	err := database.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		existing, err := find(tx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return database.NotFound("user with id %d not found", id)
		}
		if len(updates) > 0 {
			if err := tx.Model(existing).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update user: %w", err)
			}
		}
		user, err = find(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes a user who has no borrow history.
func (r *Repository) Delete(ctx context.Context, id uint) (*entities.User, error) {
	var user *entities.User
	err := database.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		existing, err := find(tx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return database.NotFound("user with id %d not found", id)
		}
		var borrowed int64
		if err := tx.Model(&entities.BorrowRecord{}).Where("user_id = ?", id).Count(&borrowed).Error; err != nil {
			return fmt.Errorf("failed to count borrow records: %w", err)
		}
		if borrowed > 0 {
			return database.Conflict("user %d has %d borrow records and cannot be deleted", id, borrowed)
		}
		if err := tx.Delete(&entities.User{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		user = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetByEmail retrieves the first user with the given email, or nil.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Where("email = ?", strings.TrimSpace(email)).Order("id").First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

func find(tx *gorm.DB, id uint) (*entities.User, error) {
	var user entities.User
	err := tx.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}
