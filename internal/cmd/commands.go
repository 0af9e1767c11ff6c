package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/onto-forge/entities-service/internal/cmd/base"
	"github.com/onto-forge/entities-service/internal/cmd/commands/configcmd"
	"github.com/onto-forge/entities-service/internal/cmd/commands/login"
	"github.com/onto-forge/entities-service/internal/cmd/commands/server"
	"github.com/onto-forge/entities-service/internal/cmd/commands/upload"
	"github.com/onto-forge/entities-service/internal/cmd/commands/validate"
	"github.com/onto-forge/entities-service/internal/cmd/commands/version"
)

// Commands is the mapping of all available CLI commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	baseCommand := &base.Command{
		Log: log,
		UI:  ui,
	}

	Commands = map[string]cli.CommandFactory{
		"server": func() (cli.Command, error) {
			return &server.Command{Command: baseCommand}, nil
		},
		"login": func() (cli.Command, error) {
			return &login.Command{Command: baseCommand}, nil
		},
		"upload": func() (cli.Command, error) {
			return &upload.Command{Command: baseCommand}, nil
		},
		"validate": func() (cli.Command, error) {
			return &validate.Command{Command: baseCommand}, nil
		},
		"config set": func() (cli.Command, error) {
			return &configcmd.SetCommand{Command: baseCommand}, nil
		},
		"config show": func() (cli.Command, error) {
			return &configcmd.ShowCommand{Command: baseCommand}, nil
		},
		"config unset": func() (cli.Command, error) {
			return &configcmd.UnsetCommand{Command: baseCommand}, nil
		},
		"config unset-all": func() (cli.Command, error) {
			return &configcmd.UnsetAllCommand{Command: baseCommand}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: baseCommand}, nil
		},
	}
}
