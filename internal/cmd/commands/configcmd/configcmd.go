// Package configcmd implements the `config` family of commands that manage
// the persisted CLI configuration file.
package configcmd

import (
	"github.com/spf13/afero"

	"github.com/onto-forge/entities-service/internal/config"
)

// configPath resolves the explicit -config flag or falls back to the
// per-user default location.
func configPath(flagConfig string) (string, error) {
	if flagConfig != "" {
		return flagConfig, nil
	}
	return config.DefaultPath()
}

// osFS is the filesystem the config commands operate on. Declared as a
// variable so tests can swap in a memory filesystem.
var osFS afero.Fs = afero.NewOsFs()
