// Package schema declares the record kinds of the library, their fields and
// the foreign keys between them. Everything here is static data: the
// resolver and the CRUD facade are driven by it instead of per-kind code.
package schema

import (
	"fmt"
	"iter"
	"strings"
)

type Kind string

const (
	User        Kind = "user"
	Book        Kind = "book"
	Author      Kind = "author"
	Publisher   Kind = "publisher"
	Category    Kind = "category"
	Language    Kind = "language"
	Location    Kind = "location"
	Copy        Kind = "copy"
	Loan        Kind = "loan"
	Reservation Kind = "reservation"
	Fine        Kind = "fine"
	Review      Kind = "review"
)

type FieldType int

const (
	Text FieldType = iota
	Int
	Float
	Date
	Enum
	Ref
)

func (t FieldType) String() string {
	switch t {
	case Text:
		return "text"
	case Int:
		return "int"
	case Float:
		return "float"
	case Date:
		return "date"
	case Enum:
		return "enum"
	case Ref:
		return "ref"
	}
	return fmt.Sprintf("FieldType(%d)", int(t))
}

// DateLayout is the wire and form format of every date field.
const DateLayout = "2006-01-02"

// Field describes one non-identifier property of a kind.
//
// Rules is a go-playground/validator tag applied to the coerced value.
// Default, when set, overrides the zero value Blank would otherwise use.
type Field struct {
	Name     string
	Label    string
	Type     FieldType
	Enum     []string
	Refers   Kind
	Nullable bool
	Rules    string
	Default  string
}

// ForeignKey ties a field holding an identifier to the kind it points at.
// Relation is the property the resolved record is attached under.
type ForeignKey struct {
	Field    string
	Relation string
	Kind     Kind
}

// Column is a presentation hint: Path is a field name or a dotted path
// through a resolved relation, e.g. "user.fullName".
type Column struct {
	Label string
	Path  string
}

type Descriptor struct {
	Kind    Kind
	Path    string
	Title   string
	Fields  []Field
	Columns []Column

	label func(Record) string
}

// Field returns the named field declaration.
func (d *Descriptor) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// ForeignKeys yields the (field, kind) pairs of d in declaration order.
func (d *Descriptor) ForeignKeys() iter.Seq[ForeignKey] {
	return func(yield func(ForeignKey) bool) {
		for _, f := range d.Fields {
			if f.Type != Ref {
				continue
			}
			if !yield(ForeignKey{Field: f.Name, Relation: RelationName(f.Name), Kind: f.Refers}) {
				return
			}
		}
	}
}

// Label is the short text a record of this kind shows in a picker.
func (d *Descriptor) Label(r Record) string {
	if d.label == nil {
		return r.ID()
	}
	return d.label(r)
}

// RelationName derives the property a related record is attached under
// from its foreign key field: "authorId" becomes "author".
func RelationName(field string) string {
	return strings.TrimSuffix(field, "Id")
}

// Record is the generic shape of a stored or resolved record.
type Record map[string]any

func (r Record) ID() string {
	return r.String("id")
}

// String returns the field as text, or "" when it is absent or not a string.
func (r Record) String(field string) string {
	s, _ := r[field].(string)
	return s
}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
