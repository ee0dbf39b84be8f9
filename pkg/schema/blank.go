package schema

import (
	"strconv"
	"time"
)

// Blank returns a new record of kind with every non-relational field at its
// zero value and no foreign key set. It returns nil for unknown kinds.
func Blank(kind Kind) Record {
	d, ok := byKind[kind]
	if !ok {
		return nil
	}
	r := make(Record, len(d.Fields))
	for _, f := range d.Fields {
		if f.Type == Ref {
			continue
		}
		r[f.Name] = zero(f)
	}
	return r
}

func zero(f Field) any {
	if f.Nullable {
		return nil
	}
	switch f.Type {
	case Int:
		if f.Default != "" {
			n, _ := strconv.Atoi(f.Default)
			return n
		}
		return 0
	case Float:
		if f.Default != "" {
			n, _ := strconv.ParseFloat(f.Default, 64)
			return n
		}
		return 0.0
	case Enum:
		if f.Default != "" {
			return f.Default
		}
		return f.Enum[0]
	}
	return f.Default
}

// Form is the string representation of a record used by input forms.
type Form map[string]string

// NewForm returns the initial values of a "new record" form: every field
// present, enumerations on their default member, and the date defaults
// loans and reservations open with.
func NewForm(kind Kind, now time.Time) Form {
	d, ok := byKind[kind]
	if !ok {
		return nil
	}
	form := make(Form, len(d.Fields))
	for _, f := range d.Fields {
		switch {
		case f.Type == Ref, f.Nullable:
			form[f.Name] = ""
		case f.Type == Int || f.Type == Float:
			// numeric inputs open empty rather than showing 0
			form[f.Name] = f.Default
		default:
			form[f.Name], _ = zero(f).(string)
		}
	}

	today := now.Format(DateLayout)
	switch kind {
	case Loan:
		form["loanDate"] = today
		form["dueDate"] = now.AddDate(0, 0, 7).Format(DateLayout)
	case Reservation:
		form["reservationDate"] = today
	}
	return form
}
