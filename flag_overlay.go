// flag_overlay.go: Command-line overrides for registered entries
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package carta

import (
	"fmt"
	"strings"

	flashflags "github.com/agilira/flash-flags"
	"github.com/agilira/go-errors"
)

// ErrHelpRequested is returned by FlagOverlay.Parse for --help and -h.
var ErrHelpRequested = errors.New(ErrCodeInvalidOptions, "help requested")

// FlagOverlay exposes every entry of a registry as a string flag. The flag
// name is the path with dots replaced by dashes, so server.port becomes
// --server-port. Flag values are decoded by the entry type like any other
// string, list entries take comma separated text.
type FlagOverlay struct {
	flags    *flashflags.FlagSet
	registry *Registry
	paths    map[string]string
}

// NewFlagOverlay registers one flag per entry of r. Two paths that map to
// the same flag, such as a-b.c and a.b-c, fail with ErrCodeInvalidOptions.
func NewFlagOverlay(appName string, r *Registry) (*FlagOverlay, error) {
	o := &FlagOverlay{
		flags:    flashflags.New(appName),
		registry: r,
		paths:    make(map[string]string, r.Len()),
	}
	for _, e := range r.Entries() {
		name := FlagName(e.Path())
		if other, taken := o.paths[name]; taken {
			return nil, errors.New(ErrCodeInvalidOptions,
				fmt.Sprintf("paths %q and %q both map to flag --%s", other, e.Path(), name)).
				WithContext("flag", name)
		}
		o.flags.String(name, "", e.Description())
		o.paths[name] = e.Path()
	}
	return o, nil
}

// FlagName returns the flag that overrides path.
func FlagName(path string) string {
	return strings.ReplaceAll(path, ".", "-")
}

// SetDescription sets the description shown in the help text.
func (o *FlagOverlay) SetDescription(description string) *FlagOverlay {
	o.flags.SetDescription(description)
	return o
}

// SetVersion sets the version shown in the help text.
func (o *FlagOverlay) SetVersion(version string) *FlagOverlay {
	o.flags.SetVersion(version)
	return o
}

// Parse parses args. Help flags are reported as ErrHelpRequested before
// any parsing happens.
func (o *FlagOverlay) Parse(args []string) error {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			return ErrHelpRequested
		}
	}
	if err := o.flags.Parse(args); err != nil {
		return errors.Wrap(err, ErrCodeInvalidOptions, "failed to parse command-line flags")
	}
	return nil
}

// Apply sets the entries whose flags were given on the command line and
// returns the paths it changed, in registration order.
func (o *FlagOverlay) Apply() ([]string, error) {
	given := make(map[string]string)
	o.flags.VisitAll(func(flag *flashflags.Flag) {
		if flag.Changed() {
			given[flag.Name()] = o.flags.GetString(flag.Name())
		}
	})

	var changed []string
	for _, e := range o.registry.Entries() {
		raw, ok := given[FlagName(e.Path())]
		if !ok {
			continue
		}
		before := e.Encoded(DefaultKeyFunc)
		if err := e.SetRaw(StringValue(raw)); err != nil {
			return changed, qualify(err, "--"+FlagName(e.Path()))
		}
		if !before.Equal(e.Encoded(DefaultKeyFunc)) {
			changed = append(changed, e.Path())
		}
	}
	return changed, nil
}

// Flags maps every flag name to the path it overrides.
func (o *FlagOverlay) Flags() map[string]string {
	out := make(map[string]string, len(o.paths))
	for k, v := range o.paths {
		out[k] = v
	}
	return out
}

// PrintUsage prints help for all flags.
func (o *FlagOverlay) PrintUsage() {
	o.flags.PrintHelp()
}
