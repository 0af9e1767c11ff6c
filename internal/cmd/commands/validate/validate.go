// Package validate implements the offline half of the upload pipeline:
// entity files are validated and identified, and conflicts against the
// remote service are reported, without writing anything.
package validate

import (
	"context"
	"flag"
	"fmt"

	"github.com/spf13/afero"

	"github.com/onto-forge/entities-service/internal/cmd/base"
	"github.com/onto-forge/entities-service/internal/config"
	"github.com/onto-forge/entities-service/pkg/entity"
	"github.com/onto-forge/entities-service/pkg/store/client"
	"github.com/onto-forge/entities-service/pkg/upload"
)

type Command struct {
	*base.Command

	flagConfig   string
	flagFiles    []string
	flagDirs     []string
	flagFormats  []string
	flagFailFast bool
	flagQuiet    bool
}

func (c *Command) Synopsis() string {
	return "Validate entity files without uploading them"
}

func (c *Command) Help() string {
	return `Usage: entities-service validate [SOURCE ...]

  This command runs the upload pipeline in dry-run mode: entity files are
  validated and identified, and compared against the remote service, but
  nothing is written. No access token is required.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("validate", flag.ExitOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "Path to the config file.",
	)
	f.StringSliceVar(
		&c.flagFiles, "file", "Entity file to validate. May be repeated.",
	)
	f.StringSliceVar(
		&c.flagDirs, "dir", "Directory of entity files to validate. May be repeated.",
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
		&c.flagQuiet, "quiet", false, "Only print errors.",
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

	remote, err := client.New(client.Options{
		BaseURL: cfg.BaseURL,
		CAFile:  cfg.CAFile,
		Logger:  logger,
	})
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

	orchestrator := &upload.Orchestrator{
		FS:    afero.NewOsFs(),
		Store: remote,
		Rules: entity.Rules{BaseNamespace: cfg.BaseURL},
		Log:   logger,
	}

	report := orchestrator.Upload(context.Background(), sources, upload.Options{
		FailFast: c.flagFailFast,
		Quiet:    c.flagQuiet,
		DryRun:   true,
	})

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
		case !c.flagQuiet:
			ui.Output(line)
		}
	}

	if !report.Success() {
		return 1
	}
	return 0
}
