package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/csheth/studybot/internal/api"
	"github.com/csheth/studybot/internal/config"
	"github.com/csheth/studybot/internal/kv"
	"github.com/csheth/studybot/internal/logging"
	"github.com/csheth/studybot/internal/metrics"
	"github.com/csheth/studybot/internal/session"
)

var (
	version = "dev"
	commit  = "unknown"
)

type rootOptions struct {
	configPath string
	apiBase    string
	storePath  string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	chatOpts := &chatOptions{}
	root := &cobra.Command{
		Use:   "studybot",
		Short: "Chat with the StudyBot analytics assistant",
		Long: `StudyBot is a terminal client for the study analytics assistant.

Ask about your exams, get quick-reply suggestions and see score charts as
they arrive. The latest charts are kept for the dashboard command.

Quick Start:
  studybot                    # open the chat
  studybot dashboard          # show the last saved charts
  studybot session clear      # start the next chat with a fresh session`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, opts, chatOpts)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file (default $"+config.EnvConfig+")")
	root.PersistentFlags().StringVar(&opts.apiBase, "api-base", "", "assistant API base URL")
	root.PersistentFlags().StringVar(&opts.storePath, "store", "", "path to the local state store")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	root.Flags().BoolVar(&chatOpts.noAltScreen, "no-alt-screen", false, "disable the alternate screen buffer")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(newChatCmd(opts), newDashboardCmd(opts), newSessionCmd(opts))
	return root
}

// app holds the components every subcommand shares.
type app struct {
	cfg        *config.Config
	log        *zap.Logger
	store      kv.Store
	closeStore func() error
	client     *api.Client
	sessions   *session.Manager
	metrics    *metrics.Cache
}

// openApp loads configuration and opens the store. When logToFile is set
// logs go to a file even if none is configured.
func (o *rootOptions) openApp(logToFile bool) (*app, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.apiBase != "" {
		cfg.API.BaseURL = o.apiBase
	}
	if o.storePath != "" {
		cfg.Store.Path = o.storePath
	}

	logPath := cfg.Logging.File
	if logToFile && logPath == "" {
		logPath = config.DefaultLogPath()
	}
	log, err := logging.New(logging.Options{Level: cfg.Logging.Level, Path: logPath, Verbose: o.verbose})
	if err != nil {
		return nil, err
	}

	store, closeStore, err := kv.Open(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("open store: %w", err)
	}
	timeout, err := cfg.Timeout()
	if err != nil {
		_ = closeStore()
		return nil, err
	}
	client := api.New(api.Config{
		BaseURL:    cfg.API.BaseURL,
		HTTPClient: &http.Client{Timeout: timeout},
		Token:      api.FirstToken(api.StoreToken(store), api.StaticToken(cfg.API.Token)),
		Logger:     log.Named("api"),
	})
	log.Debug("studybot configured",
		zap.String("api_base", client.BaseURL()),
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("store_path", cfg.Store.Path),
	)
	return &app{
		cfg:        cfg,
		log:        log,
		store:      store,
		closeStore: closeStore,
		client:     client,
		sessions:   session.NewManager(store, client, log.Named("session")),
		metrics:    metrics.NewCache(store, log.Named("metrics")),
	}, nil
}

func (a *app) Close() error {
	err := a.closeStore()
	_ = a.log.Sync()
	return err
}
