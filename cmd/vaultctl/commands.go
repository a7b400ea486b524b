package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/vaultpass/securevault-go/internal/client"
	"github.com/vaultpass/securevault-go/internal/model"
)

const maxCodeAttempts = 3

type app struct {
	api     *client.API
	session *client.Session
	prompt  *prompter
	out     io.Writer
	email   string
}

func newApp(args []string, in io.Reader, out io.Writer) (*app, []string, error) {
	fs := flag.NewFlagSet("vaultctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	server := fs.String("server", envOr("VAULTCTL_SERVER", "http://localhost:8080"), "SecureVault server URL")
	email := fs.String("email", os.Getenv("VAULTCTL_EMAIL"), "account email")
	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errUsage, err)
	}

	return &app{
		api:     client.NewAPI(*server),
		session: client.NewSession(),
		prompt:  newPrompter(in, out),
		out:     out,
		email:   *email,
	}, fs.Args(), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (a *app) askEmail() (string, error) {
	if a.email != "" {
		return a.email, nil
	}
	email, err := a.prompt.line("Email")
	if err != nil {
		return "", err
	}
	a.email = email
	return email, nil
}

// login runs the password step, asks for the one-time code when the server
// wants one, and unlocks the local session with the same password.
func (a *app) login(ctx context.Context) error {
	email, err := a.askEmail()
	if err != nil {
		return err
	}
	password, err := a.prompt.secret("Master password")
	if err != nil {
		return err
	}

	resp, err := a.api.Login(ctx, email, password, "")
	if err != nil {
		return err
	}

	for attempt := 1; resp.RequiresTwoFactor; attempt++ {
		code, err := a.prompt.line("Two-factor code")
		if err != nil {
			return err
		}
		resp, err = a.api.Login(ctx, email, password, code)
		if err == nil {
			break
		}
		if !client.IsStatus(err, http.StatusUnauthorized) || attempt >= maxCodeAttempts {
			return err
		}
		fmt.Fprintln(a.out, "Invalid code, try again.")
		resp.RequiresTwoFactor = true
	}

	// The server normalises the email; the key must be salted the same way.
	accountID := email
	if resp.User != nil {
		accountID = resp.User.Email
	}
	return a.session.Unlock(password, accountID)
}

func (a *app) signup(ctx context.Context) error {
	email, err := a.askEmail()
	if err != nil {
		return err
	}
	password, err := a.prompt.secret("Master password")
	if err != nil {
		return err
	}
	confirm, err := a.prompt.secret("Repeat master password")
	if err != nil {
		return err
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	resp, err := a.api.Signup(ctx, email, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Account %s created.\n", resp.User.Email)
	fmt.Fprintln(a.out, "Two-factor authentication is on. Add this secret to your authenticator app:")
	fmt.Fprintf(a.out, "  secret: %s\n  uri:    %s\n", resp.TwoFactor.Secret, resp.TwoFactor.URI)
	fmt.Fprintln(a.out, "There is no way to recover a forgotten master password.")
	return nil
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	query := fs.String("q", "", "filter by title, username, url or tag")
	show := fs.Bool("show", false, "print passwords")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	items, err := a.fetchItems(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tUSERNAME\tURL\tTAGS")
	for _, it := range items {
		if it.Err != nil {
			fmt.Fprintf(tw, "%s\t<unreadable: %v>\t\t\t\n", it.ID, it.Err)
		}
	}
	for _, it := range client.Search(items, *query) {
		p := it.Payload
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", it.ID, p.Title, p.Username, p.URL, strings.Join(p.Tags, ","))
		if *show {
			fmt.Fprintf(tw, "\tpassword: %s\t\t\t\n", p.Password)
		}
	}
	return tw.Flush()
}

func (a *app) fetchItems(ctx context.Context) ([]client.Item, error) {
	if err := a.login(ctx); err != nil {
		return nil, err
	}
	defer a.session.Lock()

	records, err := a.api.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	return a.session.DecryptRecords(records)
}

type itemFlags struct {
	title, username, url, notes, tags *string
	generate                          *bool
	length                            *int
}

func newItemFlags(fs *flag.FlagSet) itemFlags {
	return itemFlags{
		title:    fs.String("title", "", "item title"),
		username: fs.String("username", "", "login name"),
		url:      fs.String("url", "", "site address"),
		notes:    fs.String("notes", "", "free-form notes"),
		tags:     fs.String("tags", "", "comma-separated tags"),
		generate: fs.Bool("generate", false, "generate the password"),
		length:   fs.Int("length", 0, "generated password length"),
	}
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f := newItemFlags(fs)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	if err := a.login(ctx); err != nil {
		return err
	}
	defer a.session.Lock()

	p := model.VaultItemPayload{
		Title:    *f.title,
		Username: *f.username,
		URL:      *f.url,
		Notes:    *f.notes,
		Tags:     splitTags(*f.tags),
	}
	var err error
	if p.Title == "" {
		if p.Title, err = a.prompt.line("Title"); err != nil {
			return err
		}
	}
	if *f.generate {
		gen, err := a.api.Generate(ctx, model.GenerateRequest{Length: *f.length})
		if err != nil {
			return err
		}
		p.Password = gen.Password
		fmt.Fprintf(a.out, "Generated password (strength %d/100).\n", gen.Strength)
	} else if p.Password, err = a.prompt.secret("Item password"); err != nil {
		return err
	}

	ct, iv, err := a.session.EncryptForStorage(p)
	if err != nil {
		return err
	}
	rec, err := a.api.CreateRecord(ctx, ct, iv)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Added %s\n", rec.ID)
	return nil
}

func (a *app) edit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	id := fs.String("id", "", "record id")
	if err := fs.Parse(args); err != nil || *id == "" {
		return errUsage
	}

	if err := a.login(ctx); err != nil {
		return err
	}
	defer a.session.Lock()

	records, err := a.api.ListRecords(ctx)
	if err != nil {
		return err
	}
	var target *model.VaultRecordResponse
	for i := range records {
		if records[i].ID == *id {
			target = &records[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("no record %s", *id)
	}

	p, err := a.session.DecryptFromStorage(target.Ciphertext, target.IV)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Press Enter to keep the current value.")
	if p.Title, err = a.prompt.lineDefault("Title", p.Title); err != nil {
		return err
	}
	if p.Username, err = a.prompt.lineDefault("Username", p.Username); err != nil {
		return err
	}
	if p.URL, err = a.prompt.lineDefault("URL", p.URL); err != nil {
		return err
	}
	if p.Notes, err = a.prompt.lineDefault("Notes", p.Notes); err != nil {
		return err
	}
	tags, err := a.prompt.lineDefault("Tags", strings.Join(p.Tags, ","))
	if err != nil {
		return err
	}
	p.Tags = splitTags(tags)
	newPassword, err := a.prompt.secret("Item password (empty keeps current)")
	if err != nil {
		return err
	}
	if newPassword != "" {
		p.Password = newPassword
	}

	ct, iv, err := a.session.EncryptForStorage(p)
	if err != nil {
		return err
	}
	if _, err := a.api.UpdateRecord(ctx, *id, ct, iv); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Updated %s\n", *id)
	return nil
}

func (a *app) delete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	id := fs.String("id", "", "record id")
	if err := fs.Parse(args); err != nil || *id == "" {
		return errUsage
	}

	if err := a.login(ctx); err != nil {
		return err
	}
	defer a.session.Lock()

	if err := a.api.DeleteRecord(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s\n", *id)
	return nil
}

func (a *app) generate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	length := fs.Int("length", 0, "password length")
	noUpper := fs.Bool("no-upper", false, "omit uppercase letters")
	noLower := fs.Bool("no-lower", false, "omit lowercase letters")
	noNumbers := fs.Bool("no-numbers", false, "omit digits")
	noSymbols := fs.Bool("no-symbols", false, "omit symbols")
	excludeSimilar := fs.Bool("exclude-similar", false, "omit look-alike characters")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	not := func(b bool) *bool { v := !b; return &v }
	resp, err := a.api.Generate(ctx, model.GenerateRequest{
		Length:         *length,
		Uppercase:      not(*noUpper),
		Lowercase:      not(*noLower),
		Numbers:        not(*noNumbers),
		Symbols:        not(*noSymbols),
		ExcludeSimilar: *excludeSimilar,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s\nstrength: %d/100\n", resp.Password, resp.Strength)
	return nil
}

func (a *app) twoFactor(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	sub := args[0]
	switch sub {
	case "status", "setup", "confirm", "disable":
	default:
		return errUsage
	}

	if err := a.login(ctx); err != nil {
		return err
	}
	defer a.session.Lock()

	switch sub {
	case "status":
		st, err := a.api.TwoFactorStatus(ctx)
		if err != nil {
			return err
		}
		state := "disabled"
		if st.Enabled {
			state = "enabled"
		}
		fmt.Fprintf(a.out, "two-factor: %s\n", state)
		if st.Pending {
			fmt.Fprintln(a.out, "a new secret is waiting for confirmation")
		}
	case "setup":
		setup, err := a.api.TwoFactorSetup(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "secret: %s\nuri:    %s\n", setup.Secret, setup.URI)
		fmt.Fprintln(a.out, "Run `vaultctl 2fa confirm` with a code from the new secret to activate it.")
	case "confirm":
		code, err := a.prompt.line("Code from the new secret")
		if err != nil {
			return err
		}
		if err := a.api.TwoFactorConfirm(ctx, code); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "two-factor: enabled")
	case "disable":
		password, err := a.prompt.secret("Master password")
		if err != nil {
			return err
		}
		if err := a.api.TwoFactorDisable(ctx, password); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "two-factor: disabled")
	}
	return nil
}
