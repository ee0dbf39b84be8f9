package schema

import (
	"fmt"
	"iter"
	"strings"
)

var (
	roles               = []string{"admin", "librarian", "member"}
	copyStatuses        = []string{"available", "loaned", "maintenance", "lost"}
	loanStatuses        = []string{"active", "returned"}
	reservationStatuses = []string{"pending", "completed", "cancelled"}
	fineStatuses        = []string{"unpaid", "paid"}
)

func oneof(values []string) string {
	return "required,oneof=" + strings.Join(values, " ")
}

func field(name, label string) Field {
	return Field{Name: name, Label: label, Type: Text, Rules: "required"}
}

func ref(name, label string, kind Kind) Field {
	return Field{Name: name, Label: label, Type: Ref, Refers: kind, Rules: "required"}
}

func enum(name, label string, values []string) Field {
	return Field{Name: name, Label: label, Type: Enum, Enum: values, Rules: oneof(values)}
}

func date(name, label string) Field {
	return Field{Name: name, Label: label, Type: Date, Rules: "required,datetime=" + DateLayout}
}

var registry = []*Descriptor{
	{
		Kind:  User,
		Path:  "/users",
		Title: "Users",
		Fields: []Field{
			field("username", "Username"),
			field("password", "Password"),
			field("fullName", "Full name"),
			{Name: "email", Label: "Email", Type: Text, Rules: "required,email"},
			{Name: "role", Label: "Role", Type: Enum, Enum: roles, Rules: oneof(roles), Default: "member"},
		},
		Columns: []Column{{"Full name", "fullName"}, {"Username", "username"}, {"Email", "email"}, {"Role", "role"}},
		label:   func(r Record) string { return r.String("fullName") },
	},
	{
		Kind:  Book,
		Path:  "/books",
		Title: "Books",
		Fields: []Field{
			field("title", "Title"),
			ref("authorId", "Author", Author),
			ref("publisherId", "Publisher", Publisher),
			ref("categoryId", "Category", Category),
			field("isbn", "ISBN"),
			{Name: "publicationYear", Label: "Year", Type: Int, Rules: "required"},
			{Name: "description", Label: "Description", Type: Text},
		},
		Columns: []Column{
			{"Title", "title"}, {"Author", "author.name"}, {"Publisher", "publisher.name"},
			{"Category", "category.name"}, {"Year", "publicationYear"},
		},
		label: func(r Record) string { return r.String("title") },
	},
	{
		Kind:  Author,
		Path:  "/authors",
		Title: "Authors",
		Fields: []Field{
			field("name", "Name"),
			field("nationality", "Nationality"),
			{Name: "birthYear", Label: "Birth year", Type: Int, Rules: "required"},
		},
		Columns: []Column{{"Name", "name"}, {"Nationality", "nationality"}, {"Birth year", "birthYear"}},
		label:   func(r Record) string { return r.String("name") },
	},
	{
		Kind:    Publisher,
		Path:    "/publishers",
		Title:   "Publishers",
		Fields:  []Field{field("name", "Name"), field("country", "Country")},
		Columns: []Column{{"Name", "name"}, {"Country", "country"}},
		label:   func(r Record) string { return r.String("name") },
	},
	{
		Kind:    Category,
		Path:    "/categories",
		Title:   "Categories",
		Fields:  []Field{field("name", "Name"), field("description", "Description")},
		Columns: []Column{{"Name", "name"}, {"Description", "description"}},
		label:   func(r Record) string { return r.String("name") },
	},
	{
		Kind:    Language,
		Path:    "/languages",
		Title:   "Languages",
		Fields:  []Field{field("name", "Name"), field("code", "Code")},
		Columns: []Column{{"Name", "name"}, {"Code", "code"}},
		label:   func(r Record) string { return r.String("name") },
	},
	{
		Kind:    Location,
		Path:    "/locations",
		Title:   "Locations",
		Fields:  []Field{field("code", "Code"), field("description", "Description")},
		Columns: []Column{{"Code", "code"}, {"Description", "description"}},
		label: func(r Record) string {
			return r.String("code") + " - " + r.String("description")
		},
	},
	{
		Kind:  Copy,
		Path:  "/copies",
		Title: "Copies",
		Fields: []Field{
			ref("bookId", "Book", Book),
			ref("locationId", "Location", Location),
			field("barcode", "Barcode"),
			enum("status", "Status", copyStatuses),
		},
		Columns: []Column{{"Barcode", "barcode"}, {"Book", "book.title"}, {"Location", "location.code"}, {"Status", "status"}},
		label:   func(r Record) string { return r.String("barcode") },
	},
	{
		Kind:  Loan,
		Path:  "/loans",
		Title: "Loans",
		Fields: []Field{
			ref("userId", "User", User),
			ref("copyId", "Copy", Copy),
			date("loanDate", "Loan date"),
			date("dueDate", "Due date"),
			{Name: "returnDate", Label: "Return date", Type: Date, Nullable: true, Rules: "omitempty,datetime=" + DateLayout},
			enum("status", "Status", loanStatuses),
		},
		Columns: []Column{
			{"User", "user.fullName"}, {"Copy", "copy.barcode"}, {"Loan date", "loanDate"},
			{"Due date", "dueDate"}, {"Status", "status"},
		},
		label: func(r Record) string { return "Loan #" + r.ID() },
	},
	{
		Kind:  Reservation,
		Path:  "/reservations",
		Title: "Reservations",
		Fields: []Field{
			ref("userId", "User", User),
			ref("bookId", "Book", Book),
			date("reservationDate", "Reservation date"),
			enum("status", "Status", reservationStatuses),
		},
		Columns: []Column{{"User", "user.fullName"}, {"Book", "book.title"}, {"Date", "reservationDate"}, {"Status", "status"}},
	},
	{
		Kind:  Fine,
		Path:  "/fines",
		Title: "Fines",
		Fields: []Field{
			ref("userId", "User", User),
			ref("loanId", "Loan", Loan),
			{Name: "amount", Label: "Amount", Type: Float, Rules: "gte=0"},
			field("reason", "Reason"),
			enum("status", "Status", fineStatuses),
		},
		Columns: []Column{{"User", "user.fullName"}, {"Amount", "amount"}, {"Reason", "reason"}, {"Status", "status"}},
	},
	{
		Kind:  Review,
		Path:  "/reviews",
		Title: "Reviews",
		Fields: []Field{
			ref("userId", "User", User),
			ref("bookId", "Book", Book),
			{Name: "rating", Label: "Rating", Type: Int, Rules: "min=1,max=5"},
			field("comment", "Comment"),
		},
		Columns: []Column{{"User", "user.fullName"}, {"Book", "book.title"}, {"Rating", "rating"}, {"Comment", "comment"}},
	},
}

var byKind = func() map[Kind]*Descriptor {
	m := make(map[Kind]*Descriptor, len(registry))
	for _, d := range registry {
		m[d.Kind] = d
	}
	return m
}()

// Kinds lists every kind in menu order.
func Kinds() []Kind {
	out := make([]Kind, len(registry))
	for i, d := range registry {
		out[i] = d.Kind
	}
	return out
}

func Lookup(kind Kind) (*Descriptor, bool) {
	d, ok := byKind[kind]
	return d, ok
}

// MustLookup is Lookup for kinds known at compile time.
func MustLookup(kind Kind) *Descriptor {
	d, ok := byKind[kind]
	if !ok {
		panic(fmt.Sprintf("schema: unknown kind %q", kind))
	}
	return d
}

// ParseKind accepts a kind name or its resource path: "book", "books" and
// "/books" all name Book.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, d := range registry {
		if s == string(d.Kind) || s == d.Path || "/"+s == d.Path {
			return d.Kind, nil
		}
	}
	return "", fmt.Errorf("unknown record kind %q", s)
}

// ForeignKeys yields the foreign keys of kind; the sequence is empty for
// leaf kinds and for unknown kinds.
func ForeignKeys(kind Kind) iter.Seq[ForeignKey] {
	d, ok := byKind[kind]
	if !ok {
		return func(func(ForeignKey) bool) {}
	}
	return d.ForeignKeys()
}
