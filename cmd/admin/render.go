package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"library_admin/pkg/crud"
	"library_admin/pkg/queue"
	"library_admin/pkg/resolver"
	"library_admin/pkg/schema"
)

const missing = "N/A"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// cell renders the value at path, or N/A when a relation is unresolved.
func cell(rec schema.Record, path string) string {
	v, ok := resolver.Value(rec, path)
	if !ok || v == nil {
		return missing
	}
	s := fmt.Sprint(v)
	if s == "" && strings.Contains(path, ".") {
		return missing
	}
	return s
}

func renderTable(w io.Writer, desc *schema.Descriptor, records []schema.Record) error {
	tw := newTable(w)
	headers := []string{"ID"}
	for _, c := range desc.Columns {
		headers = append(headers, strings.ToUpper(c.Label))
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, rec := range records {
		row := []string{rec.ID()}
		for _, c := range desc.Columns {
			row = append(row, cell(rec, c.Path))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d %s\n", len(records), strings.ToLower(desc.Title))
	return nil
}

// renderRecord prints every field of rec; foreign keys are followed by the
// label of the record they resolve to.
func renderRecord(w io.Writer, desc *schema.Descriptor, rec schema.Record) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "ID:\t%s\n", rec.ID())
	for _, f := range desc.Fields {
		value := cell(rec, f.Name)
		if f.Type == schema.Ref {
			related, ok := rec[schema.RelationName(f.Name)].(schema.Record)
			switch {
			case ok:
				value = fmt.Sprintf("%s (%s)", rec.String(f.Name), schema.MustLookup(f.Refers).Label(related))
			case rec.String(f.Name) != "":
				value = fmt.Sprintf("%s (%s)", rec.String(f.Name), missing)
			}
		}
		fmt.Fprintf(tw, "%s:\t%s\n", f.Label, value)
	}
	return tw.Flush()
}

func renderForm(w io.Writer, desc *schema.Descriptor, form schema.Form) error {
	tw := newTable(w)
	for _, f := range desc.Fields {
		hint := f.Type.String()
		if f.Type == schema.Enum {
			hint = strings.Join(f.Enum, "|")
		}
		if f.Type == schema.Ref {
			hint = "id of " + string(f.Refers)
		}
		fmt.Fprintf(tw, "%s\t%s\t[%s]\n", f.Name, form[f.Name], hint)
	}
	return tw.Flush()
}

func renderOptions(w io.Writer, opts []crud.Option) error {
	tw := newTable(w)
	for _, o := range opts {
		fmt.Fprintf(tw, "%s\t%s\n", o.ID, o.Label)
	}
	return tw.Flush()
}

func renderStats(w io.Writer, s crud.Stats) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "Total books:\t%d\n", s.Books)
	fmt.Fprintf(tw, "Registered users:\t%d\n", s.Users)
	fmt.Fprintf(tw, "Active loans:\t%d\n", s.ActiveLoans)
	fmt.Fprintf(tw, "Unpaid fines:\t%d\n", s.UnpaidFines)
	return tw.Flush()
}

func renderActions(w io.Writer, actions []*queue.Action) error {
	if len(actions) == 0 {
		fmt.Fprintln(w, "No failed actions.")
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "#\tOP\tKIND\tRECORD\tATTEMPTS\tERROR")
	for i, a := range actions {
		record := a.RecordID
		if record == "" {
			record = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n", i+1, a.Op, a.Kind, record, a.Attempts, a.Err)
	}
	return tw.Flush()
}

func renderKinds(w io.Writer) error {
	tw := newTable(w)
	for _, kind := range schema.Kinds() {
		desc := schema.MustLookup(kind)
		var refs []string
		for fk := range desc.ForeignKeys() {
			refs = append(refs, fk.Field+"->"+string(fk.Kind))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", kind, desc.Path, strings.Join(refs, " "))
	}
	return tw.Flush()
}
