package configcmd

import (
	"flag"
	"fmt"
	"strings"

	"github.com/onto-forge/entities-service/internal/cmd/base"
	"github.com/onto-forge/entities-service/internal/config"
)

type SetCommand struct {
	*base.Command

	flagConfig string
}

func (c *SetCommand) Synopsis() string {
	return "Set a configuration option"
}

func (c *SetCommand) Help() string {
	return `Usage: entities-service config set KEY [VALUE]

  This command persists a configuration option in the config file. If VALUE
  is omitted, it is prompted for; sensitive options are prompted with hidden
  input.

  Recognized options:

    ` + strings.Join(config.Keys(), "\n    ") +
		c.Flags().Help()
}

func (c *SetCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("config set", flag.ExitOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "Path to the config file.",
	)

	return f
}

func (c *SetCommand) Run(args []string) int {
	ui := c.UI

	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	positional := flags.Args()
	if len(positional) < 1 || len(positional) > 2 {
		ui.Error("usage: config set KEY [VALUE]")
		return 1
	}
	key := positional[0]

	var value string
	var err error
	switch {
	case len(positional) == 2:
		value = positional[1]
	case config.Sensitive(key):
		value, err = ui.AskSecret(fmt.Sprintf("Value for %s:", key))
	default:
		value, err = ui.Ask(fmt.Sprintf("Value for %s:", key))
	}
	if err != nil {
		ui.Error(fmt.Sprintf("error reading value: %v", err))
		return 1
	}

	path, err := configPath(c.flagConfig)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

	cfg, err := config.LoadFile(osFS, path)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	if err := cfg.Set(key, value); err != nil {
		ui.Error(err.Error())
		return 1
	}
	if err := config.Save(osFS, path, cfg); err != nil {
		ui.Error(err.Error())
		return 1
	}

	ui.Info(fmt.Sprintf("Set %s in %s", key, path))
	return 0
}
