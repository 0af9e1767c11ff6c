// Package config implements the explicit configuration of the service and
// CLI. Configuration is a plain struct loaded from an HCL file with
// environment overrides, passed into constructors rather than read from
// ambient process state, and persisted through a narrow load/save/clear
// surface so the core stays testable on a memory filesystem.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
)

// EnvPrefix prefixes the environment variable form of every key, e.g.
// ENTITIES_SERVICE_BASE_URL.
const EnvPrefix = "ENTITIES_SERVICE_"

// Config holds every recognized option. All values are strings in the
// persisted form; typed accessors interpret them.
type Config struct {
	AccessToken           string `hcl:"access_token,optional"`
	Backend               string `hcl:"backend,optional"`
	BaseURL               string `hcl:"base_url,optional"`
	CAFile                string `hcl:"ca_file,optional"`
	Debug                 string `hcl:"debug,optional"`
	MongoCollection       string `hcl:"mongo_collection,optional"`
	MongoDB               string `hcl:"mongo_db,optional"`
	MongoPassword         string `hcl:"mongo_password,optional"`
	MongoURI              string `hcl:"mongo_uri,optional"`
	MongoUser             string `hcl:"mongo_user,optional"`
	OAuth2Provider        string `hcl:"oauth2_provider,optional"`
	OAuth2ProviderBaseURL string `hcl:"oauth2_provider_base_url,optional"`
	RolesGroup            string `hcl:"roles_group,optional"`
	X509CertificateFile   string `hcl:"x509_certificate_file,optional"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend:               "mongodb",
		BaseURL:               "http://onto-ns.com/meta",
		MongoCollection:       "entities",
		MongoDB:               "entities_service",
		MongoURI:              "mongodb://localhost:27017",
		OAuth2Provider:        "gitlab",
		OAuth2ProviderBaseURL: "https://gitlab.com",
		RolesGroup:            "entities-service",
	}
}

// fields maps the persisted key names onto the struct fields, in one place
// so Set/Get/Unset, env overrides, and `config show` agree on the key set.
func (c *Config) fields() map[string]*string {
	return map[string]*string{
		"access_token":             &c.AccessToken,
		"backend":                  &c.Backend,
		"base_url":                 &c.BaseURL,
		"ca_file":                  &c.CAFile,
		"debug":                    &c.Debug,
		"mongo_collection":         &c.MongoCollection,
		"mongo_db":                 &c.MongoDB,
		"mongo_password":           &c.MongoPassword,
		"mongo_uri":                &c.MongoURI,
		"mongo_user":               &c.MongoUser,
		"oauth2_provider":          &c.OAuth2Provider,
		"oauth2_provider_base_url": &c.OAuth2ProviderBaseURL,
		"roles_group":              &c.RolesGroup,
		"x509_certificate_file":    &c.X509CertificateFile,
	}
}

// Keys returns the recognized option names, sorted.
func Keys() []string {
	keys := make([]string, 0)
	for key := range (&Config{}).fields() {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// sensitiveKeys are masked by `config show`.
var sensitiveKeys = map[string]bool{
	"access_token":   true,
	"mongo_password": true,
}

// Sensitive reports whether a key's value should be masked in output.
func Sensitive(key string) bool { return sensitiveKeys[key] }

// Get returns the value of a key.
func (c *Config) Get(key string) (string, error) {
	field, ok := c.fields()[key]
	if !ok {
		return "", fmt.Errorf("unknown configuration option %q", key)
	}
	return *field, nil
}

// Set assigns a key.
func (c *Config) Set(key, value string) error {
	field, ok := c.fields()[key]
	if !ok {
		return fmt.Errorf("unknown configuration option %q", key)
	}
	*field = value
	return nil
}

// Unset clears a key.
func (c *Config) Unset(key string) error {
	return c.Set(key, "")
}

// DebugEnabled interprets the debug option as a boolean; unset or
// unparseable values mean false.
func (c *Config) DebugEnabled() bool {
	enabled, err := strconv.ParseBool(c.Debug)
	return err == nil && enabled
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving user config directory: %w", err)
	}
	return filepath.Join(dir, "entities-service", "config.hcl"), nil
}

// LoadFile reads only what the config file itself holds, with no defaults
// and no environment overrides. A missing file yields an empty config. This
// is the form the `config` commands edit and persist.
func LoadFile(fs afero.Fs, path string) (*Config, error) {
	cfg := &Config{}

	data, err := afero.ReadFile(fs, path)
	switch {
	case os.IsNotExist(err):
		return cfg, nil
	case err != nil:
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := hclsimple.Decode("config.hcl", data, nil, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// Load reads the config file (if it exists), applies defaults for unset
// keys, then applies ENTITIES_SERVICE_* environment overrides.
func Load(fs afero.Fs, path string) (*Config, error) {
	cfg, err := LoadFile(fs, path)
	if err != nil {
		return nil, err
	}

	defaults := Default().fields()
	for key, field := range cfg.fields() {
		if *field == "" {
			*field = *defaults[key]
		}
	}

	for key, field := range cfg.fields() {
		if value, ok := os.LookupEnv(EnvPrefix + strings.ToUpper(key)); ok {
			*field = value
		}
	}

	return cfg, nil
}

// Save writes the non-empty keys to the config file, creating parent
// directories as needed.
func Save(fs afero.Fs, path string, cfg *Config) error {
	file := hclwrite.NewEmptyFile()
	body := file.Body()

	fields := cfg.fields()
	for _, key := range Keys() {
		if value := *fields[key]; value != "" {
			body.SetAttributeValue(key, cty.StringVal(value))
		}
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := afero.WriteFile(fs, path, file.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config file %s: %w", path, err)
	}
	return nil
}

// Clear removes the config file entirely (the `config unset-all` behavior).
func Clear(fs afero.Fs, path string) error {
	err := fs.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing config file %s: %w", path, err)
	}
	return nil
}
