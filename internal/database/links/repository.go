// Package links maintains the book↔author and book↔category link tables.
//
// Membership is the existence of a link row. Both sides of a relation can be
// read from here, and every write takes the transaction it must join:
//
//	err := database.Transaction(ctx, db, func(tx *gorm.DB) error {
//		return linkRepo.WithTx(tx).ReplaceBookAuthors(ctx, bookID, ids)
//	})
package links

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/library-manager/internal/database"
)

// relation describes one link table.
type relation struct {
	table       string // link table
	memberCol   string // column referencing the non-book side
	memberTable string // table the member column references
	memberName  string // used in error messages
}

var (
	authorRelation = relation{
		table:       "book_authors",
		memberCol:   "author_id",
		memberTable: "authors",
		memberName:  "author",
	}
	categoryRelation = relation{
		table:       "book_categories",
		memberCol:   "category_id",
		memberTable: "categories",
		memberName:  "category",
	}
)

// Repository handles link table operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new links repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// --- Authors ---

func (r *Repository) AddBookAuthors(ctx context.Context, bookID uint, authorIDs []uint) error {
	return r.add(ctx, authorRelation, bookID, authorIDs)
}

func (r *Repository) RemoveBookAuthors(ctx context.Context, bookID uint, authorIDs []uint) error {
	return r.remove(ctx, authorRelation, bookID, authorIDs)
}

// ReplaceBookAuthors makes the book's author set exactly authorIDs.
func (r *Repository) ReplaceBookAuthors(ctx context.Context, bookID uint, authorIDs []uint) error {
	return r.replace(ctx, authorRelation, bookID, authorIDs)
}

func (r *Repository) AuthorIDsForBook(ctx context.Context, bookID uint) ([]uint, error) {
	return r.membersOf(ctx, authorRelation, bookID)
}

func (r *Repository) BookIDsForAuthor(ctx context.Context, authorID uint) ([]uint, error) {
	return r.booksOf(ctx, authorRelation, authorID)
}

// DeleteByAuthor removes every link to the author and returns how many were removed.
func (r *Repository) DeleteByAuthor(ctx context.Context, authorID uint) (int64, error) {
	return r.deleteMember(ctx, authorRelation, authorID)
}

func (r *Repository) DeleteAuthorsByBook(ctx context.Context, bookID uint) error {
	return r.deleteBook(ctx, authorRelation, bookID)
}

// ValidateAuthorIDs fails with InvalidReference naming the first unknown id.
func (r *Repository) ValidateAuthorIDs(ctx context.Context, authorIDs []uint) error {
	return r.validate(ctx, authorRelation, authorIDs)
}

// --- Categories ---

func (r *Repository) AddBookCategories(ctx context.Context, bookID uint, categoryIDs []uint) error {
	return r.add(ctx, categoryRelation, bookID, categoryIDs)
}

func (r *Repository) RemoveBookCategories(ctx context.Context, bookID uint, categoryIDs []uint) error {
	return r.remove(ctx, categoryRelation, bookID, categoryIDs)
}

func (r *Repository) ReplaceBookCategories(ctx context.Context, bookID uint, categoryIDs []uint) error {
	return r.replace(ctx, categoryRelation, bookID, categoryIDs)
}

func (r *Repository) CategoryIDsForBook(ctx context.Context, bookID uint) ([]uint, error) {
	return r.membersOf(ctx, categoryRelation, bookID)
}

func (r *Repository) BookIDsForCategory(ctx context.Context, categoryID uint) ([]uint, error) {
	return r.booksOf(ctx, categoryRelation, categoryID)
}

func (r *Repository) DeleteByCategory(ctx context.Context, categoryID uint) (int64, error) {
	return r.deleteMember(ctx, categoryRelation, categoryID)
}

func (r *Repository) DeleteCategoriesByBook(ctx context.Context, bookID uint) error {
	return r.deleteBook(ctx, categoryRelation, bookID)
}

func (r *Repository) ValidateCategoryIDs(ctx context.Context, categoryIDs []uint) error {
	return r.validate(ctx, categoryRelation, categoryIDs)
}

// --- Bulk reads ---

// AuthorIDsForBooks returns author ids keyed by book id for the given books.
func (r *Repository) AuthorIDsForBooks(ctx context.Context, bookIDs []uint) (map[uint][]uint, error) {
	return r.membersOfMany(ctx, authorRelation, bookIDs)
}

// CategoryIDsForBooks returns category ids keyed by book id for the given books.
func (r *Repository) CategoryIDsForBooks(ctx context.Context, bookIDs []uint) (map[uint][]uint, error) {
	return r.membersOfMany(ctx, categoryRelation, bookIDs)
}

// --- shared implementation ---

func (r *Repository) add(ctx context.Context, rel relation, bookID uint, memberIDs []uint) error {
	memberIDs = database.UniqueIDs(memberIDs)
	if len(memberIDs) == 0 {
		return nil
	}
	existing, err := r.membersOf(ctx, rel, bookID)
	if err != nil {
		return err
	}
	have := toSet(existing)

	rows := make([]map[string]any, 0, len(memberIDs))
	for _, id := range memberIDs {
		if _, ok := have[id]; ok {
			continue
		}
		rows = append(rows, map[string]any{"book_id": bookID, rel.memberCol: id})
	}
	if len(rows) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Table(rel.table).Create(rows).Error; err != nil {
		return fmt.Errorf("failed to link %ss to book %d: %w", rel.memberName, bookID, err)
	}
	return nil
}

func (r *Repository) remove(ctx context.Context, rel relation, bookID uint, memberIDs []uint) error {
	memberIDs = database.UniqueIDs(memberIDs)
	if len(memberIDs) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Exec("DELETE FROM "+rel.table+" WHERE book_id = ? AND "+rel.memberCol+" IN ?", bookID, memberIDs).Error
	if err != nil {
		return fmt.Errorf("failed to unlink %ss from book %d: %w", rel.memberName, bookID, err)
	}
	return nil
}

func (r *Repository) replace(ctx context.Context, rel relation, bookID uint, memberIDs []uint) error {
	want := toSet(database.UniqueIDs(memberIDs))
	current, err := r.membersOf(ctx, rel, bookID)
	if err != nil {
		return err
	}
	have := toSet(current)

	var toAdd, toRemove []uint
	for _, id := range database.UniqueIDs(memberIDs) {
		if _, ok := have[id]; !ok {
			toAdd = append(toAdd, id)
		}
	}
	for _, id := range current {
		if _, ok := want[id]; !ok {
			toRemove = append(toRemove, id)
		}
	}

	if err := r.remove(ctx, rel, bookID, toRemove); err != nil {
		return err
	}
	return r.add(ctx, rel, bookID, toAdd)
}

func (r *Repository) membersOf(ctx context.Context, rel relation, bookID uint) ([]uint, error) {
	ids := []uint{}
	err := r.db.WithContext(ctx).Table(rel.table).
		Where("book_id = ?", bookID).
		Order(rel.memberCol).
		Pluck(rel.memberCol, &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load %ss for book %d: %w", rel.memberName, bookID, err)
	}
	return ids, nil
}

func (r *Repository) membersOfMany(ctx context.Context, rel relation, bookIDs []uint) (map[uint][]uint, error) {
	out := make(map[uint][]uint, len(bookIDs))
	if len(bookIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		BookID   uint
		MemberID uint
	}
	err := r.db.WithContext(ctx).Table(rel.table).
		Select("book_id, "+rel.memberCol+" AS member_id").
		Where("book_id IN ?", bookIDs).
		Order("book_id, " + rel.memberCol).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load %s links: %w", rel.memberName, err)
	}
	for _, row := range rows {
		out[row.BookID] = append(out[row.BookID], row.MemberID)
	}
	return out, nil
}

func (r *Repository) booksOf(ctx context.Context, rel relation, memberID uint) ([]uint, error) {
	ids := []uint{}
	err := r.db.WithContext(ctx).Table(rel.table).
		Where(rel.memberCol+" = ?", memberID).
		Order("book_id").
		Pluck("book_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load books for %s %d: %w", rel.memberName, memberID, err)
	}
	return ids, nil
}

func (r *Repository) deleteMember(ctx context.Context, rel relation, memberID uint) (int64, error) {
	result := r.db.WithContext(ctx).Exec("DELETE FROM "+rel.table+" WHERE "+rel.memberCol+" = ?", memberID)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to remove links for %s %d: %w", rel.memberName, memberID, result.Error)
	}
	return result.RowsAffected, nil
}

func (r *Repository) deleteBook(ctx context.Context, rel relation, bookID uint) error {
	err := r.db.WithContext(ctx).Exec("DELETE FROM "+rel.table+" WHERE book_id = ?", bookID).Error
	if err != nil {
		return fmt.Errorf("failed to remove %s links for book %d: %w", rel.memberName, bookID, err)
	}
	return nil
}

func (r *Repository) validate(ctx context.Context, rel relation, memberIDs []uint) error {
	memberIDs = database.UniqueIDs(memberIDs)
	if len(memberIDs) == 0 {
		return nil
	}
	var found []uint
	err := r.db.WithContext(ctx).Table(rel.memberTable).
		Where("id IN ?", memberIDs).
		Pluck("id", &found).Error
	if err != nil {
		return fmt.Errorf("failed to check %s ids: %w", rel.memberName, err)
	}
	have := toSet(found)
	for _, id := range memberIDs {
		if _, ok := have[id]; !ok {
			return database.InvalidReference("%s with id %d does not exist", rel.memberName, id)
		}
	}
	return nil
}

func toSet(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
