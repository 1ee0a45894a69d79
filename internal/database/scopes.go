package database

import (
	"context"

	"gorm.io/gorm"
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

// Page bounds a query by offset/limit. A non-positive limit means the default page size.
func Page(offset, limit int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 {
			limit = DefaultPageSize
		}
		if limit > MaxPageSize {
			limit = MaxPageSize
		}
		return db.Offset(offset).Limit(limit)
	}
}

// Transaction runs fn in one transaction bound to ctx.
func Transaction(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}

// Exists reports whether a row of model with the given id exists.
func Exists(tx *gorm.DB, model any, id uint) (bool, error) {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UniqueIDs returns ids without duplicates or zeros, keeping first-seen order.
func UniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
