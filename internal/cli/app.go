// Package cli implements the operator command line: applying migrations and
// provisioning users directly against the database.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/flagx"
	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/dmitrijs2005/todokeeper/internal/server/config"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/todokeeper/internal/server/services"
)

// ErrUsage is returned for an unknown or missing command.
var ErrUsage = errors.New("usage: todocli <migrate|createuser -u NAME [-p PASSWORD]> [-d DSN]")

type App struct {
	config *config.Config
	logger logging.Logger
	reader *bufio.Reader
	out    io.Writer

	openDB      func(ctx context.Context, dsn string) (*sql.DB, error)
	repomanager repomanager.RepositoryManager
}

func NewApp(c *config.Config, l logging.Logger, in io.Reader, out io.Writer) *App {
	return &App{
		config:      c,
		logger:      l.With("module", "cli"),
		reader:      bufio.NewReader(in),
		out:         out,
		openDB:      repomanager.OpenDB,
		repomanager: repomanager.NewPostgresRepositoryManager(),
	}
}

// Run executes the command named by args[0].
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}

	switch args[0] {
	case "migrate":
		return a.withDB(ctx, a.migrate)
	case "createuser":
		name, password := parseCreateUser(args[1:])
		return a.withDB(ctx, func(ctx context.Context, db *sql.DB) error {
			return a.createUser(ctx, db, name, password)
		})
	case "help":
		fmt.Fprintln(a.out, ErrUsage.Error())
		return nil
	default:
		return fmt.Errorf("unknown command %q: %w", args[0], ErrUsage)
	}
}

func (a *App) withDB(ctx context.Context, fn func(context.Context, *sql.DB) error) error {
	db, err := a.openDB(ctx, a.config.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	return fn(ctx, db)
}

func (a *App) migrate(ctx context.Context, db *sql.DB) error {
	if err := a.repomanager.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	a.logger.Info(ctx, "migrations applied")
	fmt.Fprintln(a.out, "Migrations applied.")
	return nil
}

// parseCreateUser reads -u and -p from args, ignoring everything else.
func parseCreateUser(args []string) (name, password string) {
	fs := flag.NewFlagSet("createuser", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&name, "u", "", "username")
	fs.StringVar(&password, "p", "", "password")
	_ = fs.Parse(flagx.FilterArgs(args, []string{"-u", "-p"}))
	return name, password
}

func (a *App) createUser(ctx context.Context, db *sql.DB, name, password string) error {
	var err error
	if name == "" {
		if name, err = GetSimpleText(a.reader, "Username", a.out); err != nil {
			return err
		}
	}

	var pw []byte
	if password != "" {
		pw = []byte(password)
	} else if pw, err = GetPassword(a.reader, a.out); err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	us := services.NewUserService(db, a.repomanager, a.config)
	u, err := us.Register(ctx, name, pw)
	if err != nil {
		var ve *common.ValidationError
		switch {
		case errors.As(err, &ve):
			return fmt.Errorf("invalid user: %w", err)
		case errors.Is(err, common.ErrorAlreadyExists):
			return fmt.Errorf("user %q already exists", name)
		default:
			return err
		}
	}

	a.logger.Info(ctx, "user created", "user_id", u.ID, "username", u.UserName)
	fmt.Fprintf(a.out, "User %q created (id %d).\n", u.UserName, u.ID)
	return nil
}
