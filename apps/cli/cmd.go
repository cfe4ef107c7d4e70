package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/darasa/core/route"
	"github.com/trezcool/darasa/core/session"
	"github.com/trezcool/darasa/core/theme"
	"github.com/trezcool/darasa/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	sess  *session.Session
	theme *theme.Manager
	out   io.Writer
}

func (cli *commandLine) printf(format string, args ...interface{}) {
	fmt.Fprintf(cli.out, format, args...)
}

func (cli *commandLine) printUsage() {
	cli.printf("Usage:\n")
	cli.printf("  login -email EMAIL - log in, the password is prompted next\n")
	cli.printf("  register -name NAME -email EMAIL [-instructor] - create an account, the password is prompted next\n")
	cli.printf("  logout - log out\n")
	cli.printf("  whoami - print the current user\n")
	cli.printf("  resetpassword -email EMAIL - request a password reset\n")
	cli.printf("  theme [toggle|light|dark] - print or change the theme\n")
	cli.printf("  open PATH - resolve the page shown for PATH\n")
}

func (cli *commandLine) readPassword() (string, error) {
	cli.printf("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	cli.printf("\n")
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	loginCmd := flag.NewFlagSet("login", flag.ContinueOnError)
	loginEmail := loginCmd.String("email", "", "The user's email. The password will be prompted next.")

	registerCmd := flag.NewFlagSet("register", flag.ContinueOnError)
	registerName := registerCmd.String("name", "", "The user's full name.")
	registerEmail := registerCmd.String("email", "", "The user's email. The password will be prompted next.")
	registerInstructor := registerCmd.Bool("instructor", false, "Register as an instructor.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email.")

	for _, fs := range []*flag.FlagSet{loginCmd, registerCmd, resetPasswordCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "login":
		if err := loginCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *loginEmail == "" {
			loginCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword()
		if err != nil {
			return err
		}
		return cli.login(ctx, *loginEmail, pwd)

	case "register":
		if err := registerCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *registerName == "" || *registerEmail == "" {
			registerCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			registerCmd.Usage()
			return errHelp
		}
		role := user.RoleStudent
		if *registerInstructor {
			role = user.RoleInstructor
		}
		return cli.register(ctx, user.NewUser{Name: *registerName, Email: *registerEmail, Password: pwd, Role: role})

	case "logout":
		return cli.logout(ctx)

	case "whoami":
		return cli.whoami()

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(ctx, *resetPasswordEmail)

	case "theme":
		return cli.setTheme(args[2:])

	case "open":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.open(args[2])

	default:
		cli.printUsage()
		return errHelp
	}
}

// result prints a successful session.Result and turns a failed one into an error.
func (cli *commandLine) result(res session.Result) error {
	if !res.Success {
		return errors.New(res.Error)
	}
	switch {
	case res.Message != "":
		cli.printf("%s\n", res.Message)
	case res.User != nil:
		cli.printf("Logged in as %s <%s> (%s), home: %s\n", res.User.Name, res.User.Email, res.User.Role, route.Home(res.User.Role))
	}
	return nil
}

func (cli *commandLine) currentUser() *user.User {
	if usr, ok := cli.sess.CurrentUser(); ok {
		return &usr
	}
	return nil
}

func (cli *commandLine) open(path string) error {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	d, visited := route.Follow(path, cli.currentUser())
	if d.IsRedirect() {
		return fmt.Errorf("too many redirects: %s", strings.Join(visited, " -> "))
	}
	cli.printf("%s\n", strings.Join(visited, " -> "))
	cli.printf("%s (%s)", d.Route.Title, d.Route.Name)
	names := make([]string, 0, len(d.Params))
	for name := range d.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cli.printf(" %s=%s", name, d.Params[name])
	}
	cli.printf("\n")
	return nil
}
