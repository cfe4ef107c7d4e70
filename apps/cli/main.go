package main

import (
	"context"
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/session"
	"github.com/trezcool/darasa/core/theme"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	logsvc "github.com/trezcool/darasa/services/logger"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
	"github.com/trezcool/darasa/storage/local"
)

func main() {
	std := log.New(os.Stderr, "CLI : ", log.LstdFlags)
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(std, conf)

	db, err := inmemdb.Open()
	errAndDie(err)
	storage := local.NewFile(conf.Storage.LocalPath)

	ctx := context.Background()
	sess, err := startSession(
		ctx,
		inmemdb.NewUserRepository(db),
		storage,
		logger,
		session.WithMailer(emailsvc.NewService(conf, std, logger)),
	)
	errAndDie(err)

	// start CLI
	cli := commandLine{
		sess:  sess,
		theme: theme.New(storage, theme.NoPreference, nil, logger),
		out:   os.Stdout,
	}
	if err := cli.run(ctx, os.Args); err != nil {
		if err != errHelp {
			std.Printf("error: %s\n", err)
		}
		os.Exit(1)
	}
}

// startSession restores the session persisted in storage.
// A corrupt storage file is removed and the session starts anonymous.
func startSession(ctx context.Context, repo user.Repository, storage *local.File, logger core.Logger, opts ...session.Option) (*session.Session, error) {
	opts = append([]session.Option{session.WithLogger(logger)}, opts...)
	sess := session.New(repo, storage, opts...)
	err := sess.Init(ctx)
	if errors.Cause(err) != local.ErrCorrupt {
		return sess, err
	}

	logger.Error("resetting local storage", err, map[string]interface{}{"path": storage.Path()})
	if err := storage.Clear(); err != nil {
		return nil, err
	}
	sess = session.New(repo, storage, opts...)
	return sess, sess.Init(ctx)
}

func errAndDie(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
