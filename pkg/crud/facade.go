// Package crud exposes list, create, update and delete for every record
// kind through one facade type configured by the schema registry.
package crud

import (
	"context"
	"fmt"
	"sort"

	"library_admin/pkg/backend"
	"library_admin/pkg/resolver"
	"library_admin/pkg/schema"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
)

// Facade performs backend I/O for a single kind. It holds no records:
// after a mutation callers list again to see the new state.
type Facade struct {
	desc  *schema.Descriptor
	store backend.Store
}

var validate = validator.New()

func New(kind schema.Kind, store backend.Store) (*Facade, error) {
	desc, ok := schema.Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}
	return &Facade{desc: desc, store: store}, nil
}

func (f *Facade) Kind() schema.Kind { return f.desc.Kind }

func (f *Facade) Descriptor() *schema.Descriptor { return f.desc }

// List fetches every record of the kind together with every collection its
// foreign keys point at, all concurrently, and joins them once all have
// arrived. If any fetch fails nothing is returned.
func (f *Facade) List(ctx context.Context) ([]schema.Record, error) {
	var kinds []schema.Kind
	seen := make(map[schema.Kind]bool)
	for fk := range f.desc.ForeignKeys() {
		if !seen[fk.Kind] {
			seen[fk.Kind] = true
			kinds = append(kinds, fk.Kind)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	var primary []schema.Record
	g.Go(func() error {
		records, err := f.store.List(gctx, f.desc.Path, nil)
		if err != nil {
			return err
		}
		primary = normalizeAll(f.desc, records)
		return nil
	})

	related := make([][]schema.Record, len(kinds))
	for i, kind := range kinds {
		desc := schema.MustLookup(kind)
		g.Go(func() error {
			records, err := f.store.List(gctx, desc.Path, nil)
			if err != nil {
				return err
			}
			related[i] = normalizeAll(desc, records)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", f.desc.Path, err)
	}

	referenced := make(map[schema.Kind][]schema.Record, len(kinds))
	for i, kind := range kinds {
		referenced[kind] = related[i]
	}
	return resolver.Resolve(f.desc.Kind, primary, referenced), nil
}

// Get fetches one record and the records its foreign keys name. A related
// record that no longer exists is left unattached.
func (f *Facade) Get(ctx context.Context, id string) (schema.Record, error) {
	rec, err := f.store.Get(ctx, f.desc.Path, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", f.desc.Path, id, err)
	}
	rec = Normalize(f.desc, rec)

	var fks []schema.ForeignKey
	for fk := range f.desc.ForeignKeys() {
		if rec.String(fk.Field) != "" {
			fks = append(fks, fk)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	found := make([]schema.Record, len(fks))
	for i, fk := range fks {
		desc := schema.MustLookup(fk.Kind)
		key := rec.String(fk.Field)
		g.Go(func() error {
			related, err := f.store.Get(gctx, desc.Path, key)
			if backend.IsNotFound(err) {
				return nil
			}
			if err != nil {
				return err
			}
			found[i] = Normalize(desc, related)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", f.desc.Path, id, err)
	}

	referenced := make(map[schema.Kind][]schema.Record)
	for i, fk := range fks {
		if found[i] != nil {
			referenced[fk.Kind] = append(referenced[fk.Kind], found[i])
		}
	}
	return resolver.Resolve(f.desc.Kind, []schema.Record{rec}, referenced)[0], nil
}

// Create coerces and validates form and sends it to the store, which
// assigns the identifier.
func (f *Facade) Create(ctx context.Context, form schema.Form) (schema.Record, error) {
	rec, err := f.prepare(form)
	if err != nil {
		return nil, err
	}
	created, err := f.store.Create(ctx, f.desc.Path, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", f.desc.Kind, err)
	}
	return Normalize(f.desc, created), nil
}

// Update replaces the record id with form. Fields missing from form are
// cleared, not kept.
func (f *Facade) Update(ctx context.Context, id string, form schema.Form) (schema.Record, error) {
	rec, err := f.prepare(form)
	if err != nil {
		return nil, err
	}
	updated, err := f.store.Update(ctx, f.desc.Path, id, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s/%s: %w", f.desc.Path, id, err)
	}
	return Normalize(f.desc, updated), nil
}

// Delete removes the record id. There is no undo; callers confirm first.
func (f *Facade) Delete(ctx context.Context, id string) error {
	if err := f.store.Delete(ctx, f.desc.Path, id); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", f.desc.Path, id, err)
	}
	return nil
}

// Option is one entry of a picker for records of the facade's kind.
type Option struct {
	ID    string
	Label string
}

// Options lists the records of the kind as picker entries, sorted by label.
func (f *Facade) Options(ctx context.Context) ([]Option, error) {
	records, err := f.store.List(ctx, f.desc.Path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", f.desc.Path, err)
	}
	opts := make([]Option, len(records))
	for i, rec := range records {
		opts[i] = Option{ID: rec.ID(), Label: f.desc.Label(rec)}
	}
	sort.SliceStable(opts, func(i, j int) bool { return opts[i].Label < opts[j].Label })
	return opts, nil
}

func (f *Facade) prepare(form schema.Form) (schema.Record, error) {
	rec, err := Coerce(f.desc, form)
	if err != nil {
		return nil, err
	}
	if err := Validate(validate, f.desc, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func normalizeAll(desc *schema.Descriptor, records []schema.Record) []schema.Record {
	out := make([]schema.Record, len(records))
	for i, rec := range records {
		out[i] = Normalize(desc, rec)
	}
	return out
}

// Registry holds one facade per kind over a shared store.
type Registry struct {
	store   backend.Store
	facades map[schema.Kind]*Facade
}

func NewRegistry(store backend.Store) *Registry {
	r := &Registry{store: store, facades: make(map[schema.Kind]*Facade)}
	for _, kind := range schema.Kinds() {
		f, _ := New(kind, store)
		r.facades[kind] = f
	}
	return r
}

func (r *Registry) For(kind schema.Kind) (*Facade, bool) {
	f, ok := r.facades[kind]
	return f, ok
}
