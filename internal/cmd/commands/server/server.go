// Package server implements the command that runs the entities service
// itself.
package server

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/onto-forge/entities-service/internal/api"
	"github.com/onto-forge/entities-service/internal/auth"
	"github.com/onto-forge/entities-service/internal/cmd/base"
	"github.com/onto-forge/entities-service/internal/config"
	"github.com/onto-forge/entities-service/internal/server"
	"github.com/onto-forge/entities-service/pkg/entity"
	"github.com/onto-forge/entities-service/pkg/store"
	"github.com/onto-forge/entities-service/pkg/store/memory"
	"github.com/onto-forge/entities-service/pkg/store/mongo"
)

type Command struct {
	*base.Command

	flagConfig string
	flagAddr   string
}

func (c *Command) Synopsis() string {
	return "Run the entities service"
}

func (c *Command) Help() string {
	return `Usage: entities-service server

  This command runs the entities service: the HTTP API that serves entity
  documents at their own URIs and accepts authorized writes, backed by the
  configured backend (mongodb or memory).` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("server", flag.ExitOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "Path to the config file.",
	)
	f.StringVar(
		&c.flagAddr, "addr", ":8000", "Address to listen on.",
	)

	return f
}

func (c *Command) Run(args []string) int {
	logger, ui := c.Log, c.UI

	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	path := c.flagConfig
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			ui.Error(err.Error())
			return 1
		}
	}
	cfg, err := config.Load(afero.NewOsFs(), path)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	if cfg.DebugEnabled() {
		logger.SetLevel(hclog.Debug)
	}

	ctx := context.Background()

	backend, err := c.newStore(ctx, cfg, logger)
	if err != nil {
		ui.Error(fmt.Sprintf("error initializing backend: %v", err))
		return 1
	}

	verifier, err := auth.NewOIDCVerifier(
		ctx, cfg.OAuth2ProviderBaseURL, cfg.RolesGroup, logger)
	if err != nil {
		ui.Error(fmt.Sprintf("error initializing token verifier: %v", err))
		return 1
	}

	srv := &server.Server{
		Config:   cfg,
		Store:    backend,
		Verifier: verifier,
		Rules:    entity.Rules{BaseNamespace: cfg.BaseURL},
		Logger:   logger,
	}

	httpServer := &http.Server{
		Addr:              c.flagAddr,
		Handler:           api.New(srv),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", c.flagAddr, "backend", cfg.Backend)
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			ui.Error(fmt.Sprintf("server error: %v", err))
			return 1
		}
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			ui.Error(fmt.Sprintf("error during shutdown: %v", err))
			return 1
		}
	}

	return 0
}

func (c *Command) newStore(
	ctx context.Context, cfg *config.Config, logger hclog.Logger,
) (store.Store, error) {
	switch cfg.Backend {
	case "mongodb":
		return mongo.New(ctx, mongo.Options{
			URI:             cfg.MongoURI,
			Database:        cfg.MongoDB,
			Collection:      cfg.MongoCollection,
			Username:        cfg.MongoUser,
			Password:        cfg.MongoPassword,
			CAFile:          cfg.CAFile,
			CertificateFile: cfg.X509CertificateFile,
			Logger:          logger,
		})
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
