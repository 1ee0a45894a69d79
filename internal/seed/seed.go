// Package seed loads library fixtures from TOML into the store.
//
// Fixtures refer to authors, categories and users by a local key and to books
// by ISBN, so a file never depends on database ids:
//
//	[[authors]]
//	key = "herbert"
//	first_name = "Frank"
//	second_name = "Herbert"
//
//	[[books]]
//	title = "Dune"
//	isbn = "9780441013593"
//	authors = ["herbert"]
package seed

import (
	"context"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/mrlokans/library-manager/internal/database/authors"
	"github.com/mrlokans/library-manager/internal/database/books"
	"github.com/mrlokans/library-manager/internal/database/borrows"
	"github.com/mrlokans/library-manager/internal/database/categories"
	"github.com/mrlokans/library-manager/internal/database/users"
	"github.com/mrlokans/library-manager/internal/entities"
)

type Fixture struct {
	Authors    []Author   `toml:"authors"`
	Categories []Category `toml:"categories"`
	Books      []Book     `toml:"books"`
	Users      []User     `toml:"users"`
	Borrows    []Borrow   `toml:"borrows"`
}

type Author struct {
	Key        string  `toml:"key"`
	FirstName  string  `toml:"first_name"`
	SecondName string  `toml:"second_name"`
	Biography  *string `toml:"biography"`
}

type Category struct {
	Key         string  `toml:"key"`
	Name        string  `toml:"name"`
	Description *string `toml:"description"`
}

type Book struct {
	Title           string   `toml:"title"`
	ISBN            string   `toml:"isbn"`
	PublicationYear int      `toml:"publication_year"`
	Quantity        *int     `toml:"quantity"`
	Authors         []string `toml:"authors"`
	Categories      []string `toml:"categories"`
}

type User struct {
	Key       string `toml:"key"`
	FirstName string `toml:"first_name"`
	LastName  string `toml:"last_name"`
	Email     string `toml:"email"`
}

// Borrow references a user key and a book ISBN.
type Borrow struct {
	User   string `toml:"user"`
	ISBN   string `toml:"isbn"`
	Status string `toml:"status"`
}

// Summary counts what a Seeder wrote.
type Summary struct {
	Authors      int
	Categories   int
	Books        int
	BooksSkipped int
	Users        int
	Borrows      int
}

// Load reads and parses a fixture file.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	return Parse(data)
}

// Parse decodes fixture TOML. Unknown keys are rejected so typos surface early.
func Parse(data []byte) (*Fixture, error) {
	var fixture Fixture
	meta, err := toml.Decode(string(data), &fixture)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown fixture key %q", undecoded[0].String())
	}
	return &fixture, nil
}

type AuthorCreator interface {
	Create(ctx context.Context, in authors.CreateInput) (*entities.Author, error)
}

type CategoryCreator interface {
	Create(ctx context.Context, in categories.CreateInput) (*entities.Category, error)
}

type BookCreator interface {
	Create(ctx context.Context, in books.CreateInput) (*entities.Book, error)
	GetByISBN(ctx context.Context, isbn string) (*entities.Book, error)
}

type UserCreator interface {
	Create(ctx context.Context, in users.CreateInput) (*entities.User, error)
}

type BorrowCreator interface {
	Borrow(ctx context.Context, in borrows.CreateInput) (*entities.BorrowRecord, error)
}

// Seeder writes fixtures through the record managers, so every row passes
// the same validation as an API request.
type Seeder struct {
	Authors    AuthorCreator
	Categories CategoryCreator
	Books      BookCreator
	Users      UserCreator
	Borrows    BorrowCreator
	Logger     *log.Logger
}

// Apply writes the fixture in dependency order. Books whose ISBN already
// exists are left untouched. The first failure stops the run.
func (s *Seeder) Apply(ctx context.Context, f *Fixture) (Summary, error) {
	var summary Summary
	logger := s.Logger
	if logger == nil {
		logger = log.Default()
	}

	authorIDs := make(map[string]uint, len(f.Authors))
	for _, a := range f.Authors {
		author, err := s.Authors.Create(ctx, authors.CreateInput{
			FirstName:  a.FirstName,
			SecondName: a.SecondName,
			Biography:  a.Biography,
		})
		if err != nil {
			return summary, fmt.Errorf("author %q: %w", a.Key, err)
		}
		if a.Key != "" {
			authorIDs[a.Key] = author.ID
		}
		summary.Authors++
	}

	categoryIDs := make(map[string]uint, len(f.Categories))
	for _, c := range f.Categories {
		category, err := s.Categories.Create(ctx, categories.CreateInput{
			CategoryName: c.Name,
			Description:  c.Description,
		})
		if err != nil {
			return summary, fmt.Errorf("category %q: %w", c.Key, err)
		}
		if c.Key != "" {
			categoryIDs[c.Key] = category.ID
		}
		summary.Categories++
	}

	bookIDs := make(map[string]uint, len(f.Books))
	for _, b := range f.Books {
		existing, err := s.Books.GetByISBN(ctx, b.ISBN)
		if err != nil {
			return summary, fmt.Errorf("book %q: %w", b.ISBN, err)
		}
		if existing != nil {
			logger.Info("Book already present, skipping", "isbn", b.ISBN, "id", existing.ID)
			bookIDs[b.ISBN] = existing.ID
			summary.BooksSkipped++
			continue
		}

		in := books.CreateInput{
			Title:           b.Title,
			ISBN:            b.ISBN,
			PublicationYear: b.PublicationYear,
			Quantity:        b.Quantity,
		}
		if in.AuthorIDs, err = resolve(authorIDs, b.Authors, "author"); err != nil {
			return summary, fmt.Errorf("book %q: %w", b.ISBN, err)
		}
		if in.CategoryIDs, err = resolve(categoryIDs, b.Categories, "category"); err != nil {
			return summary, fmt.Errorf("book %q: %w", b.ISBN, err)
		}

		book, err := s.Books.Create(ctx, in)
		if err != nil {
			return summary, fmt.Errorf("book %q: %w", b.ISBN, err)
		}
		bookIDs[book.ISBN] = book.ID
		summary.Books++
	}

	userIDs := make(map[string]uint, len(f.Users))
	for _, u := range f.Users {
		user, err := s.Users.Create(ctx, users.CreateInput{
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Email:     u.Email,
		})
		if err != nil {
			return summary, fmt.Errorf("user %q: %w", u.Email, err)
		}
		if u.Key != "" {
			userIDs[u.Key] = user.ID
		}
		summary.Users++
	}

	for i, br := range f.Borrows {
		userID, ok := userIDs[br.User]
		if !ok {
			return summary, fmt.Errorf("borrow %d: unknown user key %q", i, br.User)
		}
		bookID, ok := bookIDs[br.ISBN]
		if !ok {
			return summary, fmt.Errorf("borrow %d: unknown isbn %q", i, br.ISBN)
		}
		if _, err := s.Borrows.Borrow(ctx, borrows.CreateInput{
			UserID:       userID,
			BookID:       bookID,
			ReturnStatus: br.Status,
		}); err != nil {
			return summary, fmt.Errorf("borrow %d: %w", i, err)
		}
		summary.Borrows++
	}

	logger.Info("Seed complete",
		"authors", summary.Authors,
		"categories", summary.Categories,
		"books", summary.Books,
		"books_skipped", summary.BooksSkipped,
		"users", summary.Users,
		"borrows", summary.Borrows)
	return summary, nil
}

func resolve(ids map[string]uint, keys []string, kind string) ([]uint, error) {
	out := make([]uint, 0, len(keys))
	for _, key := range keys {
		id, ok := ids[key]
		if !ok {
			return nil, fmt.Errorf("unknown %s key %q", kind, key)
		}
		out = append(out, id)
	}
	return out, nil
}
