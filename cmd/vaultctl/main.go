// Command vaultctl is a terminal client for SecureVault. It derives the
// master key locally and only ever uploads ciphertext.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

const usage = `usage: vaultctl [-server URL] [-email EMAIL] <command> [flags]

commands:
  signup                 create an account and print the two-factor secret
  list [-q QUERY]        decrypt and list vault items
  add [flags]            add an item (-generate to create a password)
  edit -id ID            edit an item
  delete -id ID          delete an item
  generate [flags]       generate a password
  2fa status|setup|confirm|disable
`

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "vaultctl:", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	app, rest, err := newApp(args, in, out)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		return errUsage
	}

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "signup":
		return app.signup(ctx)
	case "list":
		return app.list(ctx, cmdArgs)
	case "add":
		return app.add(ctx, cmdArgs)
	case "edit":
		return app.edit(ctx, cmdArgs)
	case "delete":
		return app.delete(ctx, cmdArgs)
	case "generate":
		return app.generate(ctx, cmdArgs)
	case "2fa":
		return app.twoFactor(ctx, cmdArgs)
	default:
		return errUsage
	}
}
