package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/calendar"
	"github.com/trezcool/masomo-admin/core/fee"
	"github.com/trezcool/masomo-admin/core/staff"
	"github.com/trezcool/masomo-admin/services/backend"
)

const tokenEnv = "MASOMO_TOKEN"

var (
	readPasswordFunc = term.ReadPassword // mockable
	getenvFunc       = os.Getenv         // mockable

	errHelp      = errors.New("help provided")
	errNoToken   = errors.New("an API token is required: use --token or " + tokenEnv)
	errNoFeeFile = errors.New("--file is required")
)

type commandLine struct {
	conf       *core.Config
	logger     core.Logger
	out        io.Writer
	in         io.Reader
	validate   *validator.Validate
	translator ut.Translator

	feeRepo      fee.Repository
	calendarRepo calendar.Repository
	staffRepo    staff.Repository

	token string
}

func (cli *commandLine) run(args []string) error {
	root := cli.rootCommand()
	root.SetOut(cli.out)
	root.SetErr(cli.out)
	if len(args) < 2 {
		_ = root.Usage()
		return errHelp
	}
	root.SetArgs(args[1:])
	return root.Execute()
}

func (cli *commandLine) rootCommand() *cobra.Command {
	var token string

	root := &cobra.Command{
		Use:           "admin",
		Short:         "Masomo school administration",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.authenticate(token)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Usage()
			return errHelp
		},
	}
	root.PersistentFlags().StringVar(&token, "token", "", "API token forwarded to the backend (defaults to $"+tokenEnv+", prompted otherwise)")

	root.AddCommand(cli.calendarCommand(), cli.feesCommand(), cli.staffCommand())
	return root
}

// authenticate resolves the token from the flag, the environment or a prompt.
// The in-memory store needs none.
func (cli *commandLine) authenticate(token string) error {
	if cli.conf.Backend.Offline {
		return nil
	}
	if token == "" {
		token = getenvFunc(tokenEnv)
	}
	if token == "" {
		_, _ = fmt.Fprint(cli.out, "Enter API token:")
		b, err := readPasswordFunc(int(syscall.Stdin))
		_, _ = fmt.Fprintln(cli.out)
		if err != nil {
			return errors.Wrap(err, "reading token")
		}
		token = string(b)
	}
	if token = strings.TrimSpace(token); token == "" {
		return errNoToken
	}
	cli.token = token
	return nil
}

func (cli *commandLine) context() context.Context {
	return backend.WithToken(context.Background(), cli.token)
}

// readJSON decodes the file at path ("-" reads the standard input) into v.
func (cli *commandLine) readJSON(path string, v interface{}) error {
	if path == "" {
		return errNoFeeFile
	}
	var r io.Reader = cli.in
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return errors.Wrapf(err, "decoding %s", path)
	}
	return nil
}

func (cli *commandLine) printJSON(v interface{}) error {
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printErr flattens validation errors into one line per field.
func (cli *commandLine) printErr(err error) error {
	switch e := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		for _, fe := range core.TranslateValidationErrors(e, cli.translator) {
			_, _ = fmt.Fprintf(cli.out, "  %s: %s\n", fe.Field, fe.Error)
		}
	case *core.ValidationError:
		for _, fe := range e.Fields {
			_, _ = fmt.Fprintf(cli.out, "  %s: %s\n", fe.Field, fe.Error)
		}
	}
	return err
}
