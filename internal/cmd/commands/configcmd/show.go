package configcmd

import (
	"flag"
	"fmt"

	"github.com/onto-forge/entities-service/internal/cmd/base"
	"github.com/onto-forge/entities-service/internal/config"
)

type ShowCommand struct {
	*base.Command

	flagConfig string
	flagReveal bool
}

func (c *ShowCommand) Synopsis() string {
	return "Show the persisted configuration"
}

func (c *ShowCommand) Help() string {
	return `Usage: entities-service config show

  This command prints the options persisted in the config file. Sensitive
  values are masked unless -reveal is given.` +
		c.Flags().Help()
}

func (c *ShowCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("config show", flag.ExitOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "Path to the config file.",
	)
	f.BoolVar(
		&c.flagReveal, "reveal", false, "Print sensitive values in the clear.",
	)

	return f
}

func (c *ShowCommand) Run(args []string) int {
	ui := c.UI

	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
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

	shown := 0
	for _, key := range config.Keys() {
		value, _ := cfg.Get(key)
		if value == "" {
			continue
		}
		if config.Sensitive(key) && !c.flagReveal {
			value = "***"
		}
		ui.Output(fmt.Sprintf("%s = %s", key, value))
		shown++
	}
	if shown == 0 {
		ui.Info(fmt.Sprintf("No options set in %s", path))
	}
	return 0
}
