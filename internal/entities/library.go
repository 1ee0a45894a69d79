package entities

import "time"

// Known values for BorrowRecord.ReturnStatus. The column is free text;
// these are the values the service itself writes.
const (
	ReturnStatusNotReturned = "not returned"
	ReturnStatusReturned    = "returned"
	ReturnStatusOverdue     = "overdue"
)

type Book struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Title           string    `gorm:"index;size:512;not null" json:"title"`
	PublicationYear int       `json:"publication_year"`
	ISBN            string    `gorm:"uniqueIndex;size:20;not null" json:"isbn"`
	Quantity        int       `gorm:"not null" json:"quantity"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Link membership, filled from the link tables on read.
	AuthorIDs   []uint `gorm:"-" json:"author_ids"`
	CategoryIDs []uint `gorm:"-" json:"category_ids"`
}

func (Book) TableName() string {
	return "books"
}

type Author struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FirstName  string    `gorm:"size:256;not null" json:"first_name"`
	SecondName string    `gorm:"size:256;not null" json:"second_name"`
	Biography  *string   `gorm:"type:text" json:"biography"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Author) TableName() string {
	return "authors"
}

type Category struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CategoryName string    `gorm:"size:256;not null" json:"category_name"`
	Description  *string   `gorm:"type:text" json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Category) TableName() string {
	return "categories"
}

// User is a library patron. Staff accounts that operate the service live in Staff.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FirstName string    `gorm:"size:256;not null" json:"first_name"`
	LastName  string    `gorm:"size:256;not null" json:"last_name"`
	Email     string    `gorm:"index;size:255;not null" json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

type BorrowRecord struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	BorrowingTime time.Time  `gorm:"index;not null" json:"borrowing_time"`
	ReturnStatus  string     `gorm:"index;size:50;not null" json:"return_status"`
	UserID        uint       `gorm:"index;not null" json:"user_id"`
	BookID        uint       `gorm:"index;not null" json:"book_id"`
	DueAt         *time.Time `gorm:"index" json:"due_at,omitempty"`
	ReturnedAt    *time.Time `json:"returned_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (BorrowRecord) TableName() string {
	return "borrowed_books"
}

// IsActive reports whether the book is still out with the patron.
func (r *BorrowRecord) IsActive() bool {
	return r.ReturnStatus != ReturnStatusReturned
}

type BookAuthor struct {
	BookID   uint `gorm:"primaryKey;autoIncrement:false" json:"book_id"`
	AuthorID uint `gorm:"primaryKey;autoIncrement:false;index" json:"author_id"`
}

func (BookAuthor) TableName() string {
	return "book_authors"
}

type BookCategory struct {
	BookID     uint `gorm:"primaryKey;autoIncrement:false" json:"book_id"`
	CategoryID uint `gorm:"primaryKey;autoIncrement:false;index" json:"category_id"`
}

func (BookCategory) TableName() string {
	return "book_categories"
}
