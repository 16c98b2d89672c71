package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/youruser/aerochat/internal/api"
	"github.com/youruser/aerochat/internal/chat"
	"github.com/youruser/aerochat/internal/config"
	"github.com/youruser/aerochat/internal/session"
	"github.com/youruser/aerochat/internal/storage"
	"github.com/youruser/aerochat/internal/upload"
)

// app holds the wired components shared by all commands.
type app struct {
	cfg        *config.Config
	log        *zap.Logger
	store      *storage.Store
	client     *api.Client
	transcript *chat.Store
	registry   *session.Registry
	orch       *chat.Orchestrator
	pipeline   *upload.Pipeline
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var configPath string
	var debug bool

	root := &cobra.Command{
		Use:   "aerochat",
		Short: "Chat with the Aerofiltri support assistant",
		Long: `aerochat is a terminal client for the Aerofiltri customer support
assistant. It streams chat responses, manages sessions, and uploads
documents into the knowledge base.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(configPath, debug)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.shutdown()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runChat(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newChatCmd(a),
		newSessionsCmd(a),
		newUploadCmd(a),
		newCollectionsCmd(a),
		newFeedbackCmd(a),
		newExportCmd(a),
		newHealthCmd(a),
	)
	return root
}

// init loads configuration and wires the component graph.
func (a *app) init(configPath string, debug bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if debug {
		cfg.Debug = true
	}
	a.cfg = cfg

	if cfg.Debug {
		a.log, err = zap.NewDevelopment()
	} else {
		a.log, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	a.store, err = storage.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to open local storage: %w", err)
	}

	a.client = api.NewClient(cfg.API.BaseURL, cfg.API.RequestTimeout, a.log)

	a.transcript = chat.NewStore(a.store, a.log)
	if err := a.transcript.Load(); err != nil {
		return fmt.Errorf("failed to load transcript: %w", err)
	}

	a.registry = session.NewRegistry(a.client, a.transcript, a.log)
	if id := a.transcript.SessionID(); id != "" {
		a.registry.Adopt(api.Session{SessionID: id, CreatedAt: time.Now().UTC()})
	}

	a.orch = chat.NewOrchestrator(a.client, a.transcript, a.registry, a.log)
	a.pipeline = upload.NewPipeline(a.client, cfg.Upload.PollInterval, a.log)
	return nil
}

func (a *app) shutdown() {
	if a.pipeline != nil {
		a.pipeline.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}
