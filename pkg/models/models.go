package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleLibrarian Role = "librarian"
	RoleMember    Role = "member"
)

type CopyStatus string

const (
	CopyAvailable   CopyStatus = "available"
	CopyLoaned      CopyStatus = "loaned"
	CopyMaintenance CopyStatus = "maintenance"
	CopyLost        CopyStatus = "lost"
)

type LoanStatus string

const (
	LoanActive   LoanStatus = "active"
	LoanReturned LoanStatus = "returned"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationCompleted ReservationStatus = "completed"
	ReservationCancelled ReservationStatus = "cancelled"
)

type FineStatus string

const (
	FineUnpaid FineStatus = "unpaid"
	FinePaid   FineStatus = "paid"
)

// Base carries the textual identifier every stored record has. The store
// assigns it on insert; clients never choose it.
type Base struct {
	ID string `gorm:"primaryKey;size:36" json:"id"`
}

func (b *Base) SetID(id string) { b.ID = id }

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}

type User struct {
	Base
	Username string `gorm:"size:80;not null;index" json:"username"`
	Password string `gorm:"not null" json:"password"`
	FullName string `gorm:"not null" json:"fullName"`
	Email    string `gorm:"not null" json:"email"`
	Role     Role   `gorm:"size:20;not null" json:"role"`
}

type Author struct {
	Base
	Name        string `gorm:"not null" json:"name"`
	Nationality string `json:"nationality"`
	BirthYear   int    `json:"birthYear"`
}

type Publisher struct {
	Base
	Name    string `gorm:"not null" json:"name"`
	Country string `json:"country"`
}

type Category struct {
	Base
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
}

type Language struct {
	Base
	Name string `gorm:"not null" json:"name"`
	Code string `gorm:"size:10" json:"code"`
}

type Location struct {
	Base
	Code        string `gorm:"size:40;not null" json:"code"`
	Description string `json:"description"`
}

type Book struct {
	Base
	Title           string `gorm:"not null" json:"title"`
	AuthorID        string `gorm:"size:36;index" json:"authorId"`
	PublisherID     string `gorm:"size:36;index" json:"publisherId"`
	CategoryID      string `gorm:"size:36;index" json:"categoryId"`
	Isbn            string `gorm:"size:20" json:"isbn"`
	PublicationYear int    `json:"publicationYear"`
	Description     string `json:"description"`
}

type Copy struct {
	Base
	BookID     string     `gorm:"size:36;index" json:"bookId"`
	LocationID string     `gorm:"size:36;index" json:"locationId"`
	Barcode    string     `gorm:"size:64;not null" json:"barcode"`
	Status     CopyStatus `gorm:"size:20;not null" json:"status"`
}

// Loan dates are kept as YYYY-MM-DD text so they round-trip unchanged.
type Loan struct {
	Base
	UserID     string     `gorm:"size:36;index" json:"userId"`
	CopyID     string     `gorm:"size:36;index" json:"copyId"`
	LoanDate   string     `gorm:"size:10" json:"loanDate"`
	DueDate    string     `gorm:"size:10" json:"dueDate"`
	ReturnDate *string    `gorm:"size:10" json:"returnDate"`
	Status     LoanStatus `gorm:"size:20;not null" json:"status"`
}

type Reservation struct {
	Base
	UserID          string            `gorm:"size:36;index" json:"userId"`
	BookID          string            `gorm:"size:36;index" json:"bookId"`
	ReservationDate string            `gorm:"size:10" json:"reservationDate"`
	Status          ReservationStatus `gorm:"size:20;not null" json:"status"`
}

type Fine struct {
	Base
	UserID string     `gorm:"size:36;index" json:"userId"`
	LoanID string     `gorm:"size:36;index" json:"loanId"`
	Amount float64    `json:"amount"`
	Reason string     `json:"reason"`
	Status FineStatus `gorm:"size:20;not null" json:"status"`
}

type Review struct {
	Base
	UserID  string `gorm:"size:36;index" json:"userId"`
	BookID  string `gorm:"size:36;index" json:"bookId"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// All lists one zero value per stored kind, in migration order.
func All() []interface{} {
	return []interface{}{
		&User{}, &Author{}, &Publisher{}, &Category{}, &Language{}, &Location{},
		&Book{}, &Copy{}, &Loan{}, &Reservation{}, &Fine{}, &Review{},
	}
}
