package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"library_admin/pkg/crud"
	"library_admin/pkg/page"
	"library_admin/pkg/queue"
	"library_admin/pkg/schema"
	"library_admin/pkg/session"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const maxLoginAttempts = 3

var errQuit = errors.New("quit")

type shell struct {
	app     *app
	sc      *bufio.Scanner
	out     io.Writer
	sess    *session.Session
	failed  *queue.Queue
	pages   map[schema.Kind]*page.Page
	current *page.Page

	readPassword func(prompt string) (string, error)
}

func (a *app) shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Log in and manage records interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sh := a.newShell(cmd.InOrStdin(), cmd.OutOrStdout())
			return sh.run(cmd.Context())
		},
	}
}

func (a *app) newShell(in io.Reader, out io.Writer) *shell {
	sh := &shell{
		app:    a,
		sc:     bufio.NewScanner(in),
		out:    out,
		failed: queue.NewQueue(),
		pages:  make(map[schema.Kind]*page.Page),
	}
	sh.readPassword = sh.readPasswordLine
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		sh.readPassword = func(prompt string) (string, error) {
			fmt.Fprint(out, prompt)
			b, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(out)
			if err != nil {
				return "", err
			}
			return strings.TrimSpace(string(b)), nil
		}
	}
	for _, kind := range schema.Kinds() {
		f, _ := a.reg.For(kind)
		sh.pages[kind] = page.New(f, sh.failed)
	}
	return sh
}

func (sh *shell) readPasswordLine(prompt string) (string, error) {
	fmt.Fprint(sh.out, prompt)
	if !sh.sc.Scan() {
		return "", io.EOF
	}
	return strings.TrimSpace(sh.sc.Text()), nil
}

func (sh *shell) prompt(text string) (string, bool) {
	fmt.Fprint(sh.out, text)
	if !sh.sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(sh.sc.Text()), true
}

func (sh *shell) login(ctx context.Context) error {
	for attempt := 1; attempt <= maxLoginAttempts; attempt++ {
		username, ok := sh.prompt("Username: ")
		if !ok {
			return io.EOF
		}
		password, err := sh.readPassword("Password: ")
		if err != nil {
			return err
		}
		sess, err := session.Login(ctx, sh.app.client, username, password)
		if err == nil {
			sh.sess = sess
			fmt.Fprintf(sh.out, "Welcome, %s.\n", sess.DisplayName())
			return nil
		}
		if !errors.Is(err, session.ErrInvalidCredentials) {
			return err
		}
		fmt.Fprintln(sh.out, "Invalid username or password.")
	}
	return fmt.Errorf("too many failed login attempts")
}

func (sh *shell) run(ctx context.Context) error {
	fmt.Fprintln(sh.out, "Library administration. Log in to continue.")
	for {
		if !sh.sess.Active() {
			if err := sh.login(ctx); err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}
			sh.help()
		}

		line, ok := sh.prompt(sh.promptText())
		if !ok {
			return nil
		}
		if line == "" {
			continue
		}
		err := sh.exec(ctx, line)
		if errors.Is(err, errQuit) {
			fmt.Fprintln(sh.out, "Goodbye!")
			return nil
		}
		if err != nil {
			fmt.Fprintf(sh.out, "Error: %v\n", err)
		}
	}
}

func (sh *shell) promptText() string {
	if sh.current == nil {
		return "\n> "
	}
	if m := sh.current.State().Modal.Mode; m != page.ModalClosed {
		return fmt.Sprintf("\n%s[%s]> ", sh.current.Kind(), m)
	}
	return fmt.Sprintf("\n%s> ", sh.current.Kind())
}

func (sh *shell) help() {
	fmt.Fprintln(sh.out, "Commands:")
	fmt.Fprintln(sh.out, "  Records: kinds, open <kind>, refresh, show <id>, delete <id>")
	fmt.Fprintln(sh.out, "  Forms: new, edit <id>, set <field> <value>, form, options <field>, submit, cancel")
	fmt.Fprintln(sh.out, "  Failures: pending, retry <#>")
	fmt.Fprintln(sh.out, "  Session: dashboard, whoami, logout, help, exit")
}

func (sh *shell) exec(ctx context.Context, line string) error {
	args := strings.Fields(line)
	cmd, rest := strings.ToLower(args[0]), args[1:]
	switch cmd {
	case "help":
		sh.help()
		return nil
	case "exit", "quit":
		return errQuit
	case "kinds":
		return renderKinds(sh.out)
	case "open", "list":
		if len(rest) != 1 {
			return fmt.Errorf("usage: open <kind>")
		}
		return sh.open(ctx, rest[0])
	case "dashboard":
		stats, err := sh.app.reg.Stats(ctx)
		if err != nil {
			return err
		}
		return renderStats(sh.out, stats)
	case "whoami":
		fmt.Fprintf(sh.out, "%s (%s), logged in since %s\n", sh.sess.DisplayName(), sh.sess.Role(), sh.sess.StartedAt().Format("15:04"))
		return nil
	case "logout":
		sh.sess.Logout()
		sh.current = nil
		fmt.Fprintln(sh.out, "Logged out.")
		return nil
	case "pending":
		return renderActions(sh.out, sh.failed.GetAll())
	case "retry":
		if len(rest) != 1 {
			return fmt.Errorf("usage: retry <#>")
		}
		return sh.retry(ctx, rest[0])
	}

	if sh.current == nil {
		return fmt.Errorf("unknown command %q; open a kind first or type help", cmd)
	}
	p := sh.current
	switch cmd {
	case "refresh":
		return sh.show(p, p.Refresh(ctx))
	case "show":
		if len(rest) != 1 {
			return fmt.Errorf("usage: show <id>")
		}
		rec, err := sh.find(p, rest[0])
		if err != nil {
			return err
		}
		return renderRecord(sh.out, schema.MustLookup(p.Kind()), rec)
	case "new":
		if err := p.OpenCreate(sh.app.now()); err != nil {
			return err
		}
		return sh.form(p)
	case "edit":
		if len(rest) != 1 {
			return fmt.Errorf("usage: edit <id>")
		}
		rec, err := sh.find(p, rest[0])
		if err != nil {
			return err
		}
		if err := p.OpenEdit(rec); err != nil {
			return err
		}
		return sh.form(p)
	case "set":
		if len(rest) < 1 {
			return fmt.Errorf("usage: set <field> <value>")
		}
		return p.Set(rest[0], setValue(line))
	case "form":
		return sh.form(p)
	case "options":
		if len(rest) != 1 {
			return fmt.Errorf("usage: options <field>")
		}
		return sh.options(ctx, p, rest[0])
	case "submit":
		if err := p.Submit(ctx); err != nil {
			var verrs crud.ValidationErrors
			if errors.As(err, &verrs) {
				for _, e := range verrs {
					fmt.Fprintf(sh.out, "  %s\n", e.Error())
				}
				return fmt.Errorf("form not saved")
			}
			return err
		}
		fmt.Fprintln(sh.out, "Saved.")
		return sh.show(p, nil)
	case "cancel":
		return p.Close()
	case "delete":
		if len(rest) != 1 {
			return fmt.Errorf("usage: delete <id>")
		}
		err := p.Delete(ctx, rest[0], func(id string) bool {
			answer, _ := sh.prompt(fmt.Sprintf("Delete %s %s? [y/N]: ", p.Kind(), id))
			answer = strings.ToLower(answer)
			return answer == "y" || answer == "yes"
		})
		if errors.Is(err, page.ErrNotConfirmed) {
			fmt.Fprintln(sh.out, "Cancelled.")
			return nil
		}
		if err != nil {
			return err
		}
		return sh.show(p, nil)
	}
	return fmt.Errorf("unknown command %q; type help", cmd)
}

// setValue returns what follows "set <field>" on line, spacing intact. A
// value wrapped in double quotes is unquoted.
func setValue(line string) string {
	rest := line
	for range 2 {
		rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
		if i := strings.IndexFunc(rest, unicode.IsSpace); i >= 0 {
			rest = rest[i:]
		} else {
			rest = ""
		}
	}
	rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
	if len(rest) >= 2 && strings.HasPrefix(rest, `"`) && strings.HasSuffix(rest, `"`) {
		if v, err := strconv.Unquote(rest); err == nil {
			return v
		}
	}
	return rest
}

func (sh *shell) open(ctx context.Context, arg string) error {
	kind, err := schema.ParseKind(arg)
	if err != nil {
		return err
	}
	p := sh.pages[kind]
	sh.current = p
	return sh.show(p, p.Refresh(ctx))
}

// show prints the page's records. After a failed refresh the last loaded
// list, if any, is shown below the error.
func (sh *shell) show(p *page.Page, refreshErr error) error {
	s := p.State()
	if refreshErr != nil {
		fmt.Fprintf(sh.out, "Error: %v\n", refreshErr)
		if len(s.Records) == 0 {
			return nil
		}
		fmt.Fprintln(sh.out, "Showing the last loaded list.")
	}
	return renderTable(sh.out, schema.MustLookup(p.Kind()), s.Records)
}

func (sh *shell) find(p *page.Page, id string) (schema.Record, error) {
	for _, rec := range p.State().Records {
		if rec.ID() == id {
			return rec, nil
		}
	}
	return nil, fmt.Errorf("no %s with id %q in the list; try refresh", p.Kind(), id)
}

func (sh *shell) form(p *page.Page) error {
	m := p.State().Modal
	if m.Mode == page.ModalClosed {
		return page.ErrModalClosed
	}
	if m.Mode == page.ModalEdit {
		fmt.Fprintf(sh.out, "Editing %s %s\n", p.Kind(), m.Record.ID())
	} else {
		fmt.Fprintf(sh.out, "New %s\n", p.Kind())
	}
	if m.Err != nil {
		fmt.Fprintf(sh.out, "Last submit failed: %v\n", m.Err)
	}
	return renderForm(sh.out, schema.MustLookup(p.Kind()), m.Form)
}

func (sh *shell) options(ctx context.Context, p *page.Page, field string) error {
	f, ok := schema.MustLookup(p.Kind()).Field(field)
	if !ok || f.Type != schema.Ref {
		return fmt.Errorf("%s is not a foreign key of %s", field, p.Kind())
	}
	facade, _ := sh.app.reg.For(f.Refers)
	opts, err := facade.Options(ctx)
	if err != nil {
		return err
	}
	return renderOptions(sh.out, opts)
}

func (sh *shell) retry(ctx context.Context, arg string) error {
	n, err := strconv.Atoi(arg)
	actions := sh.failed.GetAll()
	if err != nil || n < 1 || n > len(actions) {
		return fmt.Errorf("no failed action #%s; see pending", arg)
	}
	a := sh.failed.Remove(actions[n-1].ID)
	if a == nil {
		return fmt.Errorf("action #%d is gone", n)
	}
	p := sh.pages[a.Kind]
	if err := p.Retry(ctx, a); err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "Retried %s %s.\n", a.Op, a.Kind)
	return nil
}
