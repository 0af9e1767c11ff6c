// Package base carries the pieces shared by every CLI command: the UI, the
// logger, and a flag-set wrapper that renders its own help text.
package base

import (
	"bytes"
	"flag"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
)

// Command is embedded in every CLI command.
type Command struct {
	// Log is the logger to use.
	Log hclog.Logger

	// UI is used for console output and prompts.
	UI cli.Ui
}

// FlagSet wraps flag.FlagSet with help rendering.
type FlagSet struct {
	*flag.FlagSet
}

func NewFlagSet(f *flag.FlagSet) *FlagSet {
	return &FlagSet{FlagSet: f}
}

// Help returns the flag defaults as a help text block.
func (f *FlagSet) Help() string {
	var buf bytes.Buffer
	f.SetOutput(&buf)
	f.PrintDefaults()
	if buf.Len() == 0 {
		return ""
	}
	return "\n\nOptions:\n\n" + buf.String()
}

// StringSliceVar collects a repeatable string flag.
func (f *FlagSet) StringSliceVar(target *[]string, name, usage string) {
	f.Var((*stringSlice)(target), name, usage)
}

type stringSlice []string

func (s *stringSlice) String() string {
	if s == nil {
		return ""
	}
	var buf bytes.Buffer
	for i, v := range *s {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString(v)
	}
	return buf.String()
}

func (s *stringSlice) Set(value string) error {
	*s = append(*s, value)
	return nil
}
