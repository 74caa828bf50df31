package main

import (
	"context"
	"fmt"
	"io"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/naveenspark/taskboard/internal/browser"
	"github.com/naveenspark/taskboard/internal/config"
	"github.com/naveenspark/taskboard/internal/logging"
	"github.com/naveenspark/taskboard/internal/store"
	"github.com/naveenspark/taskboard/internal/tui"
	"github.com/naveenspark/taskboard/pkg/auth"
	"github.com/naveenspark/taskboard/pkg/client"
)

func newRootCmd() *cobra.Command {
	var opts config.Options
	var start string

	root := &cobra.Command{
		Use:   "taskboard",
		Short: "Boards and tasks in your terminal",
		Long: `taskboard is a terminal client for taskboard boards and kanban tasks.

Run it without arguments to open the app. Use --route to start on a
specific page, e.g. --route /reset-password after following a reset email.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts, start)
		},
	}
	root.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default: ./config.yaml or <data_dir>/config.yaml)")
	root.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file with TASKBOARD_* settings")
	root.Flags().StringVar(&start, "route", "/", "page to open first")

	root.AddCommand(newLogoutCmd(&opts), newVersionCmd())
	return root
}

// services is everything built from the configuration.
type services struct {
	cfg      *config.Config
	fs       afero.Fs
	log      *logrus.Logger
	logFile  io.Closer
	persist  *store.Persister
	session  *store.SessionStore
	boards   *store.BoardStore
	provider *auth.Provider
	api      *client.Client
}

func (r *services) Close() error {
	if r.logFile == nil {
		return nil
	}
	return r.logFile.Close()
}

// setup loads the configuration and wires the stores, auth provider and API client.
func setup(opts config.Options, fs afero.Fs) (*services, error) {
	cfg, err := config.Load(opts)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log, logFile, err := logging.OpenFile(fs, cfg.DataDir, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	r := &services{cfg: cfg, fs: fs, log: log, logFile: logFile}
	r.persist = store.NewPersister(fs, cfg.DataDir, log)
	r.session = store.NewSessionStore(r.persist, log)
	r.boards = store.NewBoardStore(r.persist, log)
	r.session.Load()
	r.boards.Load()

	r.provider = auth.New(cfg.AuthURL, cfg.AuthKey, store.NewAuthSessionStorage(r.persist), auth.WithLogger(log))
	var copts []client.Option
	if cfg.RequestTimeout > 0 {
		copts = append(copts, client.WithTimeout(cfg.RequestTimeout))
	}
	r.api = client.New(cfg.APIURL, r.provider, copts...)
	return r, nil
}

func runTUI(ctx context.Context, opts config.Options, start string) error {
	r, err := setup(opts, afero.NewOsFs())
	if err != nil {
		return err
	}
	defer r.Close() //nolint:errcheck

	r.log.WithFields(logrus.Fields{"version": version, "route": start}).Info("starting")
	app := tui.NewApp(tui.Deps{
		API:         r.api,
		Auth:        r.provider,
		Session:     r.session,
		Boards:      r.boards,
		Fs:          r.fs,
		Log:         r.log,
		RedirectURL: r.cfg.RedirectURL,
		OpenURL:     browser.Open,
		CopyText:    clipboard.WriteAll,
		Version:     version,
		PersistDrag: r.cfg.PersistDrag,
	}, start)

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if m, ok := final.(tui.App); ok {
		m.Close()
	} else {
		app.Close()
	}
	if err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}
