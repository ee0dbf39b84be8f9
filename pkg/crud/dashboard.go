package crud

import (
	"context"
	"fmt"
	"net/url"

	"library_admin/pkg/models"
	"library_admin/pkg/schema"

	"golang.org/x/sync/errgroup"
)

// Stats are the counters shown on the dashboard.
type Stats struct {
	Books       int
	Users       int
	ActiveLoans int
	UnpaidFines int
}

// Stats counts books, users, active loans and unpaid fines, fetching the
// four collections concurrently.
func (r *Registry) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	counts := []struct {
		kind  schema.Kind
		query url.Values
		dst   *int
	}{
		{schema.Book, nil, &s.Books},
		{schema.User, nil, &s.Users},
		{schema.Loan, url.Values{"status": {string(models.LoanActive)}}, &s.ActiveLoans},
		{schema.Fine, url.Values{"status": {string(models.FineUnpaid)}}, &s.UnpaidFines},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range counts {
		path := schema.MustLookup(c.kind).Path
		g.Go(func() error {
			records, err := r.store.List(gctx, path, c.query)
			if err != nil {
				return err
			}
			*c.dst = len(records)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, fmt.Errorf("failed to load dashboard: %w", err)
	}
	return s, nil
}
