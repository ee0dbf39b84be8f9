package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"library_admin/pkg/backend"
	"library_admin/pkg/circuitbreaker"
	"library_admin/pkg/config"
	"library_admin/pkg/crud"
	"library_admin/pkg/schema"

	"github.com/spf13/cobra"
)

type app struct {
	cfg    config.Config
	client *backend.Client
	reg    *crud.Registry
	now    func() time.Time
}

func (a *app) connect() {
	a.client = backend.NewClient(a.cfg.StoreURL,
		backend.WithHTTPClient(&http.Client{Timeout: a.cfg.StoreTimeout}),
		backend.WithBreaker(circuitbreaker.NewCircuitBreaker(a.cfg.BreakerMaxFailures, a.cfg.BreakerTimeout)),
	)
	a.reg = crud.NewRegistry(a.client)
}

func (a *app) facade(arg string) (*crud.Facade, error) {
	kind, err := schema.ParseKind(arg)
	if err != nil {
		return nil, err
	}
	f, _ := a.reg.For(kind)
	return f, nil
}

func newRootCmd(cfg config.Config) *cobra.Command {
	a := &app{cfg: cfg, now: time.Now}

	root := &cobra.Command{
		Use:           "admin",
		Short:         "Administer the library records held by the resource store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.connect()
		},
	}
	root.PersistentFlags().StringVar(&a.cfg.StoreURL, "store-url", cfg.StoreURL, "base URL of the resource store")
	root.PersistentFlags().DurationVar(&a.cfg.StoreTimeout, "timeout", cfg.StoreTimeout, "timeout of each store request")

	root.AddCommand(
		a.kindsCmd(),
		a.listCmd(),
		a.showCmd(),
		a.createCmd(),
		a.updateCmd(),
		a.deleteCmd(),
		a.optionsCmd(),
		a.dashboardCmd(),
		a.shellCmd(),
	)
	return root
}

func main() {
	cmd := newRootCmd(config.Load())
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
