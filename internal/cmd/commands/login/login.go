// Package login implements the interactive browser login against the
// configured OAuth2 provider.
package login

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/spf13/afero"

	"github.com/onto-forge/entities-service/internal/cmd/base"
	"github.com/onto-forge/entities-service/internal/config"
	"github.com/onto-forge/entities-service/internal/oauth"
)

type Command struct {
	*base.Command

	flagConfig  string
	flagQuiet   bool
	flagTimeout time.Duration
}

func (c *Command) Synopsis() string {
	return "Log in to the entities service"
}

func (c *Command) Help() string {
	return `Usage: entities-service login

  This command opens the OAuth2 provider's authorization page in the
  browser and caches the resulting access token for upload runs.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("login", flag.ExitOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "Path to the config file.",
	)
	f.BoolVar(
		&c.flagQuiet, "quiet", false, "Only print errors.",
	)
	f.DurationVar(
		&c.flagTimeout, "timeout", 5*time.Minute,
		"How long to wait for the browser callback.",
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

	flow := &oauth.Flow{
		ProviderBaseURL: cfg.OAuth2ProviderBaseURL,
		Timeout:         c.flagTimeout,
		Log:             logger,
	}

	if !c.flagQuiet {
		ui.Info(fmt.Sprintf("Opening %s in your browser...", cfg.OAuth2ProviderBaseURL))
	}

	token, err := flow.Login(context.Background())
	if err != nil {
		ui.Error(fmt.Sprintf("login failed: %v", err))
		return 1
	}

	cachePath, err := oauth.DefaultCachePath()
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	cache := &oauth.TokenCache{FS: afero.NewOsFs(), Path: cachePath}
	if err := cache.Save(token); err != nil {
		ui.Error(fmt.Sprintf("could not cache token: %v", err))
		return 1
	}

	if !c.flagQuiet {
		ui.Info("Successfully logged in.")
	}
	return 0
}
