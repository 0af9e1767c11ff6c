package configcmd

import (
	"flag"
	"fmt"

	"github.com/onto-forge/entities-service/internal/cmd/base"
	"github.com/onto-forge/entities-service/internal/config"
)

type UnsetCommand struct {
	*base.Command

	flagConfig string
}

func (c *UnsetCommand) Synopsis() string {
	return "Remove a configuration option"
}

func (c *UnsetCommand) Help() string {
	return `Usage: entities-service config unset KEY

  This command removes an option from the config file.` +
		c.Flags().Help()
}

func (c *UnsetCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("config unset", flag.ExitOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "Path to the config file.",
	)

	return f
}

func (c *UnsetCommand) Run(args []string) int {
	ui := c.UI

	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	positional := flags.Args()
	if len(positional) != 1 {
		ui.Error("usage: config unset KEY")
		return 1
	}
	key := positional[0]

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
	if err := cfg.Unset(key); err != nil {
		ui.Error(err.Error())
		return 1
	}
	if err := config.Save(osFS, path, cfg); err != nil {
		ui.Error(err.Error())
		return 1
	}

	ui.Info(fmt.Sprintf("Unset %s in %s", key, path))
	return 0
}

type UnsetAllCommand struct {
	*base.Command

	flagConfig string
	flagForce  bool
}

func (c *UnsetAllCommand) Synopsis() string {
	return "Remove the whole configuration file"
}

func (c *UnsetAllCommand) Help() string {
	return `Usage: entities-service config unset-all

  This command removes the config file entirely.` +
		c.Flags().Help()
}

func (c *UnsetAllCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("config unset-all", flag.ExitOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "Path to the config file.",
	)
	f.BoolVar(
		&c.flagForce, "force", false, "Do not ask for confirmation.",
	)

	return f
}

func (c *UnsetAllCommand) Run(args []string) int {
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

	if !c.flagForce {
		answer, err := ui.Ask(fmt.Sprintf("Remove %s? [y/N]", path))
		if err != nil {
			ui.Error(fmt.Sprintf("error reading answer: %v", err))
			return 1
		}
		if answer != "y" && answer != "Y" {
			ui.Info("Aborted")
			return 0
		}
	}

	if err := config.Clear(osFS, path); err != nil {
		ui.Error(err.Error())
		return 1
	}

	ui.Info(fmt.Sprintf("Removed %s", path))
	return 0
}
