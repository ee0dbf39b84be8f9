package crud

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"library_admin/pkg/schema"

	"github.com/go-playground/validator/v10"
)

// ValidationError names a field whose value broke one of its rules.
type ValidationError struct {
	Field string
	Rule  string
	Value string
}

func (e ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: %q fails %s", e.Field, e.Value, e.Rule)
	}
	return fmt.Sprintf("%s: fails %s", e.Field, e.Rule)
}

type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Coerce converts form text into the stored representation of kind:
// numbers are parsed, an empty nullable date becomes null, everything else
// is kept as text. Fields missing from form are sent empty, since updates
// replace the whole record. Unknown fields are rejected.
func Coerce(desc *schema.Descriptor, form schema.Form) (schema.Record, error) {
	var errs ValidationErrors

	unknown := make([]string, 0)
	for name := range form {
		if name == "id" {
			continue
		}
		if _, ok := desc.Field(name); !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		errs = append(errs, ValidationError{Field: name, Rule: "unknown field"})
	}

	rec := make(schema.Record, len(desc.Fields))
	for _, f := range desc.Fields {
		raw := form[f.Name]
		switch f.Type {
		case schema.Int:
			text := strings.TrimSpace(raw)
			if text == "" {
				rec[f.Name] = 0
				continue
			}
			n, err := strconv.Atoi(text)
			if err != nil {
				errs = append(errs, ValidationError{Field: f.Name, Rule: "integer", Value: raw})
				continue
			}
			rec[f.Name] = n
		case schema.Float:
			text := strings.TrimSpace(raw)
			if text == "" {
				rec[f.Name] = 0.0
				continue
			}
			n, err := strconv.ParseFloat(text, 64)
			if err != nil {
				errs = append(errs, ValidationError{Field: f.Name, Rule: "number", Value: raw})
				continue
			}
			rec[f.Name] = n
		case schema.Ref:
			rec[f.Name] = strings.TrimSpace(raw)
		default:
			if f.Nullable && strings.TrimSpace(raw) == "" {
				rec[f.Name] = nil
				continue
			}
			rec[f.Name] = raw
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return rec, nil
}

// Validate checks a coerced record against the rules declared for each
// field of kind.
func Validate(v *validator.Validate, desc *schema.Descriptor, rec schema.Record) error {
	var errs ValidationErrors
	for _, f := range desc.Fields {
		if f.Rules == "" {
			continue
		}
		value := rec[f.Name]
		if value == nil {
			if f.Nullable {
				continue
			}
			value = ""
		}
		if err := v.Var(value, f.Rules); err != nil {
			verrs, ok := err.(validator.ValidationErrors)
			if !ok {
				return err
			}
			for _, fe := range verrs {
				errs = append(errs, ValidationError{Field: f.Name, Rule: ruleText(fe), Value: fmt.Sprint(value)})
			}
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func ruleText(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// Normalize converts a record decoded from JSON to the Go types Coerce
// produces, so stored and coerced records compare equal: integers become
// int and other numbers float64. Fields outside the schema are untouched.
func Normalize(desc *schema.Descriptor, rec schema.Record) schema.Record {
	if rec == nil {
		return nil
	}
	out := rec.Clone()
	for _, f := range desc.Fields {
		v, ok := out[f.Name]
		if !ok {
			continue
		}
		switch f.Type {
		case schema.Int:
			if n, ok := toFloat(v); ok {
				out[f.Name] = int(n)
			}
		case schema.Float:
			if n, ok := toFloat(v); ok {
				out[f.Name] = n
			}
		}
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// FormOf renders a stored record back into form text, the inverse of
// Coerce. Relations attached by the resolver are left out.
func FormOf(desc *schema.Descriptor, rec schema.Record) schema.Form {
	form := make(schema.Form, len(desc.Fields))
	for _, f := range desc.Fields {
		switch v := rec[f.Name].(type) {
		case nil:
			form[f.Name] = ""
		case string:
			form[f.Name] = v
		case int:
			form[f.Name] = strconv.Itoa(v)
		case float64:
			if f.Type == schema.Int {
				form[f.Name] = strconv.Itoa(int(v))
			} else {
				form[f.Name] = strconv.FormatFloat(v, 'f', -1, 64)
			}
		default:
			form[f.Name] = fmt.Sprint(v)
		}
	}
	return form
}
