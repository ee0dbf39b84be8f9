// Package page holds the state of one long-lived list screen: the joined
// records last loaded, the load state and the add/edit modal.
package page

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"library_admin/pkg/crud"
	"library_admin/pkg/queue"
	"library_admin/pkg/schema"
)

type LoadState int

const (
	Idle LoadState = iota
	Loading
	Loaded
	LoadError
)

func (s LoadState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case LoadError:
		return "error"
	}
	return fmt.Sprintf("LoadState(%d)", int(s))
}

type ModalMode int

const (
	ModalClosed ModalMode = iota
	ModalCreate
	ModalEdit
	ModalSubmitting
)

func (m ModalMode) String() string {
	switch m {
	case ModalClosed:
		return "closed"
	case ModalCreate:
		return "create"
	case ModalEdit:
		return "edit"
	case ModalSubmitting:
		return "submitting"
	}
	return fmt.Sprintf("ModalMode(%d)", int(m))
}

var (
	ErrModalClosed  = errors.New("no form is open")
	ErrSubmitting   = errors.New("form is being submitted")
	ErrNotConfirmed = errors.New("delete not confirmed")
)

// Source is the per-kind facade a page drives.
type Source interface {
	Kind() schema.Kind
	List(ctx context.Context) ([]schema.Record, error)
	Create(ctx context.Context, form schema.Form) (schema.Record, error)
	Update(ctx context.Context, id string, form schema.Form) (schema.Record, error)
	Delete(ctx context.Context, id string) error
}

// Modal is the add/edit form. Record is the record being edited and
// Err the failure of the last submit, if any.
type Modal struct {
	Mode   ModalMode
	Record schema.Record
	Form   schema.Form
	Err    error
}

// State is a snapshot of a page.
type State struct {
	Load    LoadState
	Records []schema.Record
	Err     error
	Modal   Modal
}

type Page struct {
	src    Source
	desc   *schema.Descriptor
	failed *queue.Queue

	mu      sync.Mutex
	load    LoadState
	records []schema.Record
	loadErr error
	gen     uint64
	modal   Modal

	// mode to fall back to when a submit fails
	prevMode ModalMode
}

// New returns an idle page for src. Failed mutations are recorded in failed
// when it is not nil.
func New(src Source, failed *queue.Queue) *Page {
	return &Page{
		src:    src,
		desc:   schema.MustLookup(src.Kind()),
		failed: failed,
	}
}

func (p *Page) Kind() schema.Kind { return p.desc.Kind }

func (p *Page) Title() string { return p.desc.Title }

// State returns a snapshot safe to use without holding the page.
func (p *Page) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := State{
		Load:    p.load,
		Records: append([]schema.Record(nil), p.records...),
		Err:     p.loadErr,
		Modal:   p.modal,
	}
	if p.modal.Form != nil {
		s.Modal.Form = make(schema.Form, len(p.modal.Form))
		for k, v := range p.modal.Form {
			s.Modal.Form[k] = v
		}
	}
	return s
}

// Refresh lists the kind again. On success the records are replaced
// wholesale; on failure the previous records stay. A refresh that finishes
// after a newer one has started is discarded.
func (p *Page) Refresh(ctx context.Context) error {
	p.mu.Lock()
	p.gen++
	gen := p.gen
	p.load = Loading
	p.mu.Unlock()

	records, err := p.src.List(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		log.Printf("Discarding stale %s refresh %d, newest is %d", p.desc.Path, gen, p.gen)
		return err
	}
	if err != nil {
		log.Printf("Failed to refresh %s: %v", p.desc.Path, err)
		p.load = LoadError
		p.loadErr = err
		return err
	}
	p.load = Loaded
	p.loadErr = nil
	p.records = records
	return nil
}

// OpenCreate opens the modal on the defaults of a new record.
func (p *Page) OpenCreate(now time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.modal.Mode == ModalSubmitting {
		return ErrSubmitting
	}
	p.modal = Modal{Mode: ModalCreate, Form: schema.NewForm(p.desc.Kind, now)}
	return nil
}

// OpenEdit opens the modal pre-filled with rec.
func (p *Page) OpenEdit(rec schema.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.modal.Mode == ModalSubmitting {
		return ErrSubmitting
	}
	p.modal = Modal{Mode: ModalEdit, Record: rec, Form: crud.FormOf(p.desc, rec)}
	return nil
}

// Set changes one field of the open form.
func (p *Page) Set(field, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.modal.Mode {
	case ModalClosed:
		return ErrModalClosed
	case ModalSubmitting:
		return ErrSubmitting
	}
	if _, ok := p.desc.Field(field); !ok {
		return fmt.Errorf("%s has no field %q", p.desc.Kind, field)
	}
	p.modal.Form[field] = value
	return nil
}

// Close discards the open form.
func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.modal.Mode == ModalSubmitting {
		return ErrSubmitting
	}
	p.modal = Modal{}
	return nil
}

// Submit sends the open form. On success the modal closes and the page
// refreshes; on failure the form stays open with the error recorded.
func (p *Page) Submit(ctx context.Context) error {
	p.mu.Lock()
	mode := p.modal.Mode
	switch mode {
	case ModalClosed:
		p.mu.Unlock()
		return ErrModalClosed
	case ModalSubmitting:
		p.mu.Unlock()
		return ErrSubmitting
	}
	form := make(schema.Form, len(p.modal.Form))
	for k, v := range p.modal.Form {
		form[k] = v
	}
	id := p.modal.Record.ID()
	p.prevMode = mode
	p.modal.Mode = ModalSubmitting
	p.modal.Err = nil
	p.mu.Unlock()

	var err error
	op := queue.OpCreate
	if mode == ModalEdit {
		op = queue.OpUpdate
		_, err = p.src.Update(ctx, id, form)
	} else {
		_, err = p.src.Create(ctx, form)
	}

	p.mu.Lock()
	if err != nil {
		p.modal.Mode = p.prevMode
		p.modal.Err = err
		p.mu.Unlock()
		log.Printf("Failed to %s %s: %v", op, p.desc.Kind, err)
		p.remember(op, id, form, err)
		return err
	}
	p.modal = Modal{}
	p.mu.Unlock()

	return p.Refresh(ctx)
}

// Delete removes the record id once confirm agrees, then refreshes.
func (p *Page) Delete(ctx context.Context, id string, confirm func(id string) bool) error {
	if confirm == nil || !confirm(id) {
		return ErrNotConfirmed
	}
	if err := p.src.Delete(ctx, id); err != nil {
		log.Printf("Failed to delete %s %s: %v", p.desc.Kind, id, err)
		p.remember(queue.OpDelete, id, nil, err)
		return err
	}
	return p.Refresh(ctx)
}

// Retry runs a failed action of this page's kind again. It goes back in
// the queue if it fails again.
func (p *Page) Retry(ctx context.Context, a *queue.Action) error {
	if a.Kind != p.desc.Kind {
		return fmt.Errorf("action %s is for %s, not %s", a.ID, a.Kind, p.desc.Kind)
	}
	var err error
	switch a.Op {
	case queue.OpCreate:
		_, err = p.src.Create(ctx, a.Form)
	case queue.OpUpdate:
		_, err = p.src.Update(ctx, a.RecordID, a.Form)
	case queue.OpDelete:
		err = p.src.Delete(ctx, a.RecordID)
	default:
		return fmt.Errorf("unknown operation %q", a.Op)
	}
	a.Attempts++
	if err != nil {
		log.Printf("Retry %d of %s %s failed: %v", a.Attempts, a.Op, a.Kind, err)
		a.Err = err.Error()
		a.FailedAt = time.Now()
		if p.failed != nil {
			p.failed.Enqueue(a)
		}
		return err
	}
	return p.Refresh(ctx)
}

func (p *Page) remember(op queue.Op, id string, form schema.Form, err error) {
	if p.failed == nil {
		return
	}
	// validation failures would fail the same way again
	var verrs crud.ValidationErrors
	if errors.As(err, &verrs) {
		return
	}
	p.failed.Enqueue(&queue.Action{
		Kind:     p.desc.Kind,
		Op:       op,
		RecordID: id,
		Form:     form,
		Err:      err.Error(),
		FailedAt: time.Now(),
		Attempts: 1,
	})
}
