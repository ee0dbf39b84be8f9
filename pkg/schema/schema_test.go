package schema

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlankHasNoForeignKeysAndEmptyText(t *testing.T) {
	for _, kind := range Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			d := MustLookup(kind)
			blank := Blank(kind)
			require.NotNil(t, blank)

			for fk := range ForeignKeys(kind) {
				_, present := blank[fk.Field]
				assert.False(t, present, "foreign key %s must be unset", fk.Field)
			}
			for _, f := range d.Fields {
				switch f.Type {
				case Text:
					assert.Equal(t, "", blank[f.Name], f.Name)
				case Int:
					assert.Equal(t, 0, blank[f.Name], f.Name)
				case Float:
					assert.Equal(t, 0.0, blank[f.Name], f.Name)
				case Enum:
					assert.Contains(t, f.Enum, blank[f.Name], f.Name)
				}
			}
			_, hasID := blank["id"]
			assert.False(t, hasID)
		})
	}
}

func TestBlankStatusDefaults(t *testing.T) {
	tests := []struct {
		kind     Kind
		field    string
		expected any
	}{
		{Copy, "status", "available"},
		{Loan, "status", "active"},
		{Reservation, "status", "pending"},
		{Fine, "status", "unpaid"},
		{User, "role", "member"},
		{Loan, "returnDate", nil},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind)+"."+tt.field, func(t *testing.T) {
			assert.Equal(t, tt.expected, Blank(tt.kind)[tt.field])
		})
	}
}

func TestForeignKeys(t *testing.T) {
	collect := func(kind Kind) []ForeignKey {
		return slices.Collect(ForeignKeys(kind))
	}

	assert.Equal(t, []ForeignKey{
		{Field: "authorId", Relation: "author", Kind: Author},
		{Field: "publisherId", Relation: "publisher", Kind: Publisher},
		{Field: "categoryId", Relation: "category", Kind: Category},
	}, collect(Book))
	assert.Equal(t, []ForeignKey{
		{Field: "userId", Relation: "user", Kind: User},
		{Field: "loanId", Relation: "loan", Kind: Loan},
	}, collect(Fine))

	for _, leaf := range []Kind{User, Author, Publisher, Category, Language, Location} {
		assert.Empty(t, collect(leaf), leaf)
	}
	assert.Empty(t, collect(Kind("nope")))
}

func TestForeignKeysIsRestartable(t *testing.T) {
	seq := ForeignKeys(Loan)
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, first, second)
	assert.Len(t, first, 2)

	// stopping early must not break later iterations
	for range seq {
		break
	}
	assert.Len(t, slices.Collect(seq), 2)
}

func TestForeignKeysPointAtKnownKinds(t *testing.T) {
	for _, kind := range Kinds() {
		for fk := range ForeignKeys(kind) {
			_, ok := Lookup(fk.Kind)
			assert.True(t, ok, "%s.%s refers to unknown kind %s", kind, fk.Field, fk.Kind)
		}
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		input    string
		expected Kind
		wantErr  bool
	}{
		{input: "book", expected: Book},
		{input: "books", expected: Book},
		{input: "/books", expected: Book},
		{input: " Copies ", expected: Copy},
		{input: "categories", expected: Category},
		{input: "magazines", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			kind, err := ParseKind(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, kind)
		})
	}
}

func TestNewForm(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

	loan := NewForm(Loan, now)
	assert.Equal(t, "2024-03-10", loan["loanDate"])
	assert.Equal(t, "2024-03-17", loan["dueDate"])
	assert.Equal(t, "", loan["returnDate"])
	assert.Equal(t, "active", loan["status"])
	assert.Equal(t, "", loan["userId"])

	res := NewForm(Reservation, now)
	assert.Equal(t, "2024-03-10", res["reservationDate"])
	assert.Equal(t, "pending", res["status"])

	user := NewForm(User, now)
	assert.Equal(t, "member", user["role"])
	assert.Len(t, user, 5)

	book := NewForm(Book, now)
	assert.Equal(t, "", book["publicationYear"])
}

func TestLabel(t *testing.T) {
	loc := MustLookup(Location)
	assert.Equal(t, "A1 - Ground floor", loc.Label(Record{"id": "l1", "code": "A1", "description": "Ground floor"}))

	loan := MustLookup(Loan)
	assert.Equal(t, "Loan #7", loan.Label(Record{"id": "7"}))

	review := MustLookup(Review)
	assert.Equal(t, "r1", review.Label(Record{"id": "r1"}))
}
