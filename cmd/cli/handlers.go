// Command handlers for the Carta CLI
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/agilira/carta"
	"github.com/agilira/go-errors"
	"github.com/agilira/orpheus/pkg/orpheus"
)

// handleConfigGet prints the value at a path. Sections print in the
// file's own format.
func (m *Manager) handleConfigGet(ctx *orpheus.Context) error {
	filePath, path := ctx.GetArg(0), ctx.GetArg(1)
	if err := requireArgs("config get <file> <path>", filePath, path); err != nil {
		return err
	}
	store, err := m.openStore(filePath, ctx.GetFlagString("format"))
	if err != nil {
		return err
	}
	root, err := store.Load()
	if err != nil {
		return err
	}
	value, ok := carta.ReadAt(root, path)
	if !ok {
		return errors.New(carta.ErrCodeInvalidPath, fmt.Sprintf("path '%s' not found", path))
	}
	if value.Kind() == carta.KindSection {
		data, err := store.Codec().Encode(value.Section())
		if err != nil {
			return err
		}
		_, err = m.out.Write(data)
		return err
	}
	fmt.Fprintln(m.out, value.Text())
	return nil
}

// handleConfigSet writes a value, creating the file when missing.
func (m *Manager) handleConfigSet(ctx *orpheus.Context) error {
	filePath, path, raw := ctx.GetArg(0), ctx.GetArg(1), ctx.GetArg(2)
	if err := requireArgs("config set <file> <path> <value>", filePath, path); err != nil {
		return err
	}
	if err := carta.ValidatePath(path); err != nil {
		return err
	}
	store, err := m.openStore(filePath, ctx.GetFlagString("format"))
	if err != nil {
		return err
	}
	root, err := store.Load()
	if err != nil {
		return err
	}

	value := carta.StringValue(raw)
	if !ctx.GetFlagBool("string") {
		value = parseValue(raw)
	}
	old, existed := carta.ReadAt(root, path)
	carta.WriteAt(root, path, value)
	if err := store.Save(root); err != nil {
		return err
	}

	var oldText interface{}
	if existed {
		oldText = old.Text()
	}
	m.audit("cli_config_set", store.Name(), path, oldText, value.Text())
	fmt.Fprintf(m.out, "Set %s = %s in %s\n", path, value, filePath)
	return nil
}

// handleConfigDelete removes a value and prunes the sections it leaves
// empty.
func (m *Manager) handleConfigDelete(ctx *orpheus.Context) error {
	filePath, path := ctx.GetArg(0), ctx.GetArg(1)
	if err := requireArgs("config delete <file> <path>", filePath, path); err != nil {
		return err
	}
	store, err := m.openStore(filePath, ctx.GetFlagString("format"))
	if err != nil {
		return err
	}
	root, err := store.Load()
	if err != nil {
		return err
	}
	old, ok := carta.ReadAt(root, path)
	if !ok || !carta.DeleteAt(root, path) {
		return errors.New(carta.ErrCodeInvalidPath, fmt.Sprintf("path '%s' not found", path))
	}
	if err := store.Save(root); err != nil {
		return err
	}
	m.audit("cli_config_delete", store.Name(), path, old.Text(), nil)
	fmt.Fprintf(m.out, "Deleted %s from %s\n", path, filePath)
	return nil
}

// handleConfigList prints every leaf under an optional prefix.
func (m *Manager) handleConfigList(ctx *orpheus.Context) error {
	filePath := ctx.GetArg(0)
	if err := requireArgs("config list <file>", filePath); err != nil {
		return err
	}
	prefix := ctx.GetFlagString("prefix")
	store, err := m.openStore(filePath, ctx.GetFlagString("format"))
	if err != nil {
		return err
	}
	root, err := store.Load()
	if err != nil {
		return err
	}

	var entries []carta.FlatEntry
	for _, e := range carta.Flatten(root) {
		if hasPathPrefix(e.Path, prefix) {
			entries = append(entries, e)
		}
	}
	if len(entries) == 0 {
		if prefix != "" {
			fmt.Fprintf(m.out, "No paths found with prefix '%s'\n", prefix)
		} else {
			fmt.Fprintln(m.out, "No configuration values found")
		}
		return nil
	}
	fmt.Fprintf(m.out, "Configuration values in %s:\n", filePath)
	for _, e := range entries {
		fmt.Fprintf(m.out, "  %s = %s\n", e.Path, e.Value)
	}
	return nil
}

// handleConfigStrip removes every value whose path is not kept.
func (m *Manager) handleConfigStrip(ctx *orpheus.Context) error {
	filePath := ctx.GetArg(0)
	if err := requireArgs("config strip <file> --keep=<paths>", filePath); err != nil {
		return err
	}
	keep, err := parseKeepList(ctx.GetFlagString("keep"))
	if err != nil {
		return err
	}
	store, err := m.openStore(filePath, ctx.GetFlagString("format"))
	if err != nil {
		return err
	}
	root, err := store.Load()
	if err != nil {
		return err
	}

	removed := carta.Strip(root, func(path string) bool { return keep[path] })
	if len(removed) == 0 {
		fmt.Fprintf(m.out, "Nothing to strip in %s\n", filePath)
		return nil
	}
	dryRun := ctx.GetFlagBool("dry-run")
	if !dryRun {
		if err := store.Save(root); err != nil {
			return err
		}
		m.audit("cli_config_strip", store.Name(), "", nil, nil)
	}
	verb := "Removed"
	if dryRun {
		verb = "Would remove"
	}
	for _, path := range removed {
		fmt.Fprintf(m.out, "%s %s\n", verb, path)
	}
	return nil
}

// handleConfigConvert rewrites a file in another format.
func (m *Manager) handleConfigConvert(ctx *orpheus.Context) error {
	inputPath, outputPath := ctx.GetArg(0), ctx.GetArg(1)
	if err := requireArgs("config convert <input> <output>", inputPath, outputPath); err != nil {
		return err
	}
	in, err := m.openStore(inputPath, ctx.GetFlagString("from"))
	if err != nil {
		return err
	}
	out, err := m.openStore(outputPath, ctx.GetFlagString("to"))
	if err != nil {
		return err
	}
	if _, err := os.Stat(inputPath); err != nil {
		return errors.Wrap(err, carta.ErrCodeIO, fmt.Sprintf("configuration file does not exist: %s", inputPath))
	}
	root, err := in.Load()
	if err != nil {
		return err
	}
	if err := out.Save(root); err != nil {
		return err
	}
	m.audit("cli_config_convert", out.Name(), "", in.Name(), out.Name())
	fmt.Fprintf(m.out, "Converted %s (%s) -> %s (%s)\n",
		inputPath, in.Codec().Name(), outputPath, out.Codec().Name())
	return nil
}

// handleConfigValidate checks that a file parses and that every path in
// it is a valid entry path.
func (m *Manager) handleConfigValidate(ctx *orpheus.Context) error {
	filePath := ctx.GetArg(0)
	if err := requireArgs("config validate <file>", filePath); err != nil {
		return err
	}
	store, err := m.openStore(filePath, ctx.GetFlagString("format"))
	if err != nil {
		return err
	}
	if _, err := os.Stat(filePath); err != nil {
		return errors.Wrap(err, carta.ErrCodeIO, fmt.Sprintf("configuration file does not exist: %s", filePath))
	}
	root, err := store.Load()
	if err != nil {
		fmt.Fprintf(m.out, "Invalid %s configuration: %v\n", store.Codec().Name(), err)
		return err
	}
	for _, path := range carta.Paths(root) {
		if err := carta.ValidatePath(path); err != nil {
			fmt.Fprintf(m.out, "Invalid %s configuration: %v\n", store.Codec().Name(), err)
			return err
		}
	}
	fmt.Fprintf(m.out, "Valid %s configuration: %s (%d values)\n", store.Codec().Name(), filePath, len(carta.Paths(root)))
	return nil
}

// handleConfigInit creates a new file from a template.
func (m *Manager) handleConfigInit(ctx *orpheus.Context) error {
	filePath := ctx.GetArg(0)
	if err := requireArgs("config init <file>", filePath); err != nil {
		return err
	}
	template := ctx.GetFlagString("template")
	if template == "" {
		template = "default"
	}
	if _, err := os.Stat(filePath); err == nil {
		return errors.New(carta.ErrCodeIO, fmt.Sprintf("file already exists: %s", filePath))
	}
	if err := checkFileWriteable(filePath); err != nil {
		return errors.Wrap(err, carta.ErrCodeIO, "cannot create configuration file")
	}
	store, err := m.openStore(filePath, ctx.GetFlagString("format"))
	if err != nil {
		return err
	}
	root, err := generateTemplate(template)
	if err != nil {
		return err
	}
	if err := store.Save(root); err != nil {
		return err
	}
	m.audit("cli_config_init", store.Name(), "", nil, template)
	fmt.Fprintf(m.out, "Created %s configuration: %s\n", store.Codec().Name(), filePath)
	fmt.Fprintf(m.out, "Template: %s\n", template)
	return nil
}

// handleAuditStats prints what the audit backend holds.
func (m *Manager) handleAuditStats(ctx *orpheus.Context) error {
	if m.auditLogger == nil {
		return errors.New(carta.ErrCodeAudit, "audit logging not enabled")
	}
	if err := m.auditLogger.Flush(); err != nil {
		return err
	}
	stats, err := m.auditLogger.Stats()
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "Total events: %d\n", stats.TotalEvents)
	fmt.Fprintf(m.out, "Size: %d bytes\n", stats.SizeBytes)
	for _, level := range sortedKeys(stats.EventsByLevel) {
		fmt.Fprintf(m.out, "  level %s: %d\n", level, stats.EventsByLevel[level])
	}
	for _, store := range sortedKeys(stats.EventsByStore) {
		fmt.Fprintf(m.out, "  store %s: %d\n", store, stats.EventsByStore[store])
	}
	return nil
}

// handleInfo prints version and capability information.
func (m *Manager) handleInfo(ctx *orpheus.Context) error {
	fmt.Fprintf(m.out, "Carta Configuration Files\n")
	fmt.Fprintf(m.out, "Version: %s\n", Version)
	if ctx.GetFlagBool("verbose") {
		fmt.Fprintf(m.out, "Supported formats: JSON, YAML, TOML, INI, Properties\n")
		names := make([]string, 0)
		for _, p := range carta.ListStoreProviders() {
			names = append(names, p.Scheme())
		}
		fmt.Fprintf(m.out, "Store providers: file%s\n", prefixEach(names, ", "))
		fmt.Fprintf(m.out, "Audit logging: %v\n", m.auditLogger != nil)
	}
	return nil
}

// handleCompletion prints a shell completion script.
func (m *Manager) handleCompletion(ctx *orpheus.Context) error {
	const commands = "config audit info completion"
	switch shell := ctx.GetArg(0); shell {
	case "bash":
		fmt.Fprintf(m.out, "# Bash completion for carta\n")
		fmt.Fprintf(m.out, "# Add to ~/.bashrc: source <(carta completion bash)\n")
		fmt.Fprintf(m.out, "_carta_completion() {\n")
		fmt.Fprintf(m.out, "  COMPREPLY=($(compgen -W '%s' -- \"${COMP_WORDS[COMP_CWORD]}\"))\n", commands)
		fmt.Fprintf(m.out, "}\n")
		fmt.Fprintf(m.out, "complete -F _carta_completion carta\n")
	case "zsh":
		fmt.Fprintf(m.out, "#compdef carta\n")
		fmt.Fprintf(m.out, "_carta() {\n")
		fmt.Fprintf(m.out, "  _arguments '1: :(%s)'\n", commands)
		fmt.Fprintf(m.out, "}\n")
	case "fish":
		fmt.Fprintf(m.out, "complete -c carta -f -a '%s'\n", commands)
	default:
		return errors.New(carta.ErrCodeInvalidOptions, fmt.Sprintf("unsupported shell: %s", shell))
	}
	return nil
}

func (m *Manager) audit(event, store, path string, oldVal, newVal interface{}) {
	if m.auditLogger == nil {
		return
	}
	m.auditLogger.Log(carta.AuditInfo, event, store, path, oldVal, newVal, nil)
}

func requireArgs(usage string, args ...string) error {
	for _, a := range args {
		if strings.TrimSpace(a) == "" {
			return errors.New(carta.ErrCodeInvalidOptions, "usage: carta "+usage)
		}
	}
	return nil
}
