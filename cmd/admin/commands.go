package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"library_admin/pkg/crud"
	"library_admin/pkg/schema"

	"github.com/spf13/cobra"
)

func (a *app) kindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List record kinds, their paths and foreign keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return renderKinds(cmd.OutOrStdout())
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <kind>",
		Short: "List every record of a kind with related names resolved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.facade(args[0])
			if err != nil {
				return err
			}
			records, err := f.List(cmd.Context())
			if err != nil {
				return err
			}
			return renderTable(cmd.OutOrStdout(), f.Descriptor(), records)
		},
	}
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <kind> <id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.facade(args[0])
			if err != nil {
				return err
			}
			rec, err := f.Get(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			return renderRecord(cmd.OutOrStdout(), f.Descriptor(), rec)
		},
	}
}

// parseSets turns field=value pairs into form entries.
func parseSets(form schema.Form, sets []string) error {
	for _, s := range sets {
		name, value, ok := strings.Cut(s, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return fmt.Errorf("invalid --set %q, want field=value", s)
		}
		form[strings.TrimSpace(name)] = value
	}
	return nil
}

func (a *app) createCmd() *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "create <kind>",
		Short: "Create a record; unset fields take the new-record defaults",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.facade(args[0])
			if err != nil {
				return err
			}
			form := schema.NewForm(f.Kind(), a.now())
			if err := parseSets(form, sets); err != nil {
				return err
			}
			rec, err := f.Create(cmd.Context(), form)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s\n", f.Kind(), rec.ID())
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "field=value, repeatable")
	return cmd
}

func (a *app) updateCmd() *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "update <kind> <id>",
		Short: "Replace a record; unset fields keep their current values",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.facade(args[0])
			if err != nil {
				return err
			}
			current, err := f.Get(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			form := crud.FormOf(f.Descriptor(), current)
			if err := parseSets(form, sets); err != nil {
				return err
			}
			if _, err := f.Update(cmd.Context(), args[1], form); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s %s\n", f.Kind(), args[1])
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "field=value, repeatable")
	return cmd
}

// confirm asks a yes/no question on in; anything but y or yes is no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	sc := bufio.NewScanner(in)
	if !sc.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(sc.Text()))
	return answer == "y" || answer == "yes"
}

func (a *app) deleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <kind> <id>",
		Short: "Delete a record; asks for confirmation unless --yes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.facade(args[0])
			if err != nil {
				return err
			}
			if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete %s %s?", f.Kind(), args[1])) {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
			if err := f.Delete(cmd.Context(), args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", f.Kind(), args[1])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (a *app) optionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "options <kind>",
		Short: "List the records of a kind as id and label, for filling foreign keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.facade(args[0])
			if err != nil {
				return err
			}
			opts, err := f.Options(cmd.Context())
			if err != nil {
				return err
			}
			return renderOptions(cmd.OutOrStdout(), opts)
		},
	}
}

func (a *app) dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show library totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := a.reg.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return renderStats(cmd.OutOrStdout(), stats)
		},
	}
}
