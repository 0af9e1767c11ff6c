// Package upload implements the CLI command that pushes local entity files
// to the entities service.
package upload

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/mitchellh/cli"
	"github.com/spf13/afero"

	"github.com/onto-forge/entities-service/internal/cmd/base"
	"github.com/onto-forge/entities-service/internal/config"
	"github.com/onto-forge/entities-service/internal/oauth"
	"github.com/onto-forge/entities-service/pkg/entity"
	"github.com/onto-forge/entities-service/pkg/store/client"
	"github.com/onto-forge/entities-service/pkg/upload"
)

type Command struct {
	*base.Command

	flagConfig      string
	flagFiles       []string
	flagDirs        []string
	flagFormats     []string
	flagFailFast    bool
	flagQuiet       bool
	flagAutoConfirm bool
}

func (c *Command) Synopsis() string {
	return "Upload entity files to the entities service"
}

func (c *Command) Help() string {
	return `Usage: entities-service upload [SOURCE ...]

  This command validates local entity files and uploads them to the
  configured entities service. Sources may be files or directories, given
  as positional arguments or with the -file and -dir flags. Directories
  are scanned non-recursively for files matching the accepted formats
  (JSON by default; add -format=yaml to accept YAML).

  Entities identical to their remote counterpart are skipped. Entities
  that differ are conflicts: by default you are asked what to do, with
  -quiet they are skipped, and with -auto-confirm the remote entity is
  overwritten.

  Uploading requires a valid access token; run "entities-service login"
  first or set the access_token option.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("upload", flag.ExitOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "Path to the config file.",
	)
	f.StringSliceVar(
		&c.flagFiles, "file", "Entity file to upload. May be repeated.",
	)
	f.StringSliceVar(
		&c.flagDirs, "dir", "Directory of entity files to upload. May be repeated.",
	)
	f.StringSliceVar(
		&c.flagFormats, "format",
		"Accepted file format (json, yaml). May be repeated; defaults to json.",
	)
	f.BoolVar(
		&c.flagFailFast, "fail-fast", false,
		"Stop at the first invalid entity instead of continuing.",
	)
	f.BoolVar(
		&c.flagQuiet, "quiet", false,
		"Only print errors. Conflicts are skipped without prompting.",
	)
	f.BoolVar(
		&c.flagAutoConfirm, "auto-confirm", false,
		"Overwrite conflicting remote entities without prompting.",
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

	var sources []upload.Source
	for _, path := range flags.Args() {
		sources = append(sources, upload.Source{Path: path, Formats: c.flagFormats})
	}
	for _, path := range c.flagFiles {
		sources = append(sources, upload.Source{Path: path, Formats: c.flagFormats})
	}
	for _, path := range c.flagDirs {
		sources = append(sources, upload.Source{Path: path, Formats: c.flagFormats})
	}
	if len(sources) == 0 {
		ui.Error("no sources given; pass files or directories")
		return 1
	}

	cfgPath := c.flagConfig
	if cfgPath == "" {
		var err error
		cfgPath, err = config.DefaultPath()
		if err != nil {
			ui.Error(err.Error())
			return 1
		}
	}
	cfg, err := config.Load(afero.NewOsFs(), cfgPath)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

	accessToken, err := c.resolveToken(cfg)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

	remote, err := client.New(client.Options{
		BaseURL:     cfg.BaseURL,
		AccessToken: accessToken,
		CAFile:      cfg.CAFile,
		Logger:      logger,
	})
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

	var policy upload.Policy
	switch {
	case c.flagAutoConfirm:
		policy = upload.AutoOverwrite
	case c.flagQuiet:
		policy = upload.AutoSkip
	default:
		policy = upload.AskInteractively(ui)
	}

	orchestrator := &upload.Orchestrator{
		FS:     afero.NewOsFs(),
		Store:  remote,
		Rules:  entity.Rules{BaseNamespace: cfg.BaseURL},
		Policy: policy,
		Log:    logger,
	}

	report := orchestrator.Upload(context.Background(), sources, upload.Options{
		FailFast: c.flagFailFast,
		Quiet:    c.flagQuiet,
	})

	printReport(ui, report, c.flagQuiet)

	if !report.Success() {
		return 1
	}
	return 0
}

// resolveToken picks the credential for the run: an explicitly configured
// access token wins, otherwise the cached login token is used. The token is
// checked for expiry up front so a stale login fails before any upload work.
func (c *Command) resolveToken(cfg *config.Config) (string, error) {
	if cfg.AccessToken != "" {
		return cfg.AccessToken, nil
	}

	cachePath, err := oauth.DefaultCachePath()
	if err != nil {
		return "", err
	}
	cache := &oauth.TokenCache{FS: afero.NewOsFs(), Path: cachePath}
	token, err := cache.Load()
	if err != nil {
		return "", err
	}
	if !oauth.Valid(token, time.Now()) {
		return "", fmt.Errorf(
			"no valid access token; run \"entities-service login\" first")
	}
	return token.AccessToken, nil
}

func printReport(ui cli.Ui, report *upload.Report, quiet bool) {
	for _, o := range report.Outcomes {
		line := fmt.Sprintf("%s: %s", o.Path, o.Status)
		if o.URI != "" {
			line = fmt.Sprintf("%s: %s (%s)", o.Path, o.Status, o.URI)
		}
		if o.Detail != "" {
			line += ": " + o.Detail
		}
		switch {
		case o.Status == upload.StatusFailed:
			ui.Error(line)
		case !quiet:
			ui.Output(line)
		}
	}

	if !quiet {
		ui.Info(fmt.Sprintf(
			"Done: %d created, %d overwritten, %d skipped, %d failed",
			report.Count(upload.StatusCreated),
			report.Count(upload.StatusOverwritten),
			report.Count(upload.StatusSkippedIdentical)+
				report.Count(upload.StatusSkippedConflict),
			report.Count(upload.StatusFailed),
		))
	}
}
