package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/session"
	"github.com/trezcool/darasa/core/theme"
	"github.com/trezcool/darasa/core/user"
)

func (cli *commandLine) login(ctx context.Context, email, pwd string) error {
	res, err := cli.sess.Login(ctx, email, pwd)
	if err != nil {
		return errors.Wrap(err, "logging in")
	}
	return cli.result(res)
}

func (cli *commandLine) register(ctx context.Context, nu user.NewUser) error {
	res, err := cli.sess.Register(ctx, nu)
	if err != nil {
		return errors.Wrap(err, "registering")
	}
	return cli.result(res)
}

func (cli *commandLine) logout(ctx context.Context) error {
	if err := cli.sess.Logout(ctx); err != nil {
		return errors.Wrap(err, "logging out")
	}
	cli.printf("Logged out\n")
	return nil
}

func (cli *commandLine) whoami() error {
	usr := cli.currentUser()
	if usr == nil {
		return errors.New(session.ErrNoUserLoggedIn)
	}
	cli.printf("%s <%s> (%s)\n", usr.Name, usr.Email, usr.Role)
	return nil
}

func (cli *commandLine) resetPassword(ctx context.Context, email string) error {
	res, err := cli.sess.ResetPassword(ctx, email)
	if err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return cli.result(res)
}

func (cli *commandLine) setTheme(args []string) error {
	if len(args) > 0 {
		if args[0] == "toggle" {
			cli.theme.Toggle()
		} else {
			t, err := theme.Parse(args[0])
			if err != nil {
				return err
			}
			if err := cli.theme.Set(t); err != nil {
				return err
			}
		}
	}
	cli.printf("%s\n", cli.theme.Theme())
	return nil
}
