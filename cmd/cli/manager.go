// Package cli provides the command-line interface for Carta configuration files.
//
// The CLI is built on the Orpheus framework and works directly on files
// through the Carta codecs and tree mapper:
//
//	carta config get app.yaml server.port
//	carta config set app.yaml server.port 9090
//	carta config strip app.yaml --keep server.port,server.host
//	carta config convert app.yaml app.toml
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"io"
	"os"

	"github.com/agilira/carta"
	"github.com/agilira/orpheus/pkg/orpheus"
)

// Version is reported by the info command and --version.
const Version = "1.0.0"

const formatUsage = "File format (auto|json|yaml|toml|ini|properties)"

// Manager wires the Orpheus application to the command handlers.
type Manager struct {
	app         *orpheus.App
	auditLogger *carta.AuditLogger
	out         io.Writer
}

// NewManager creates a CLI manager with every command registered.
func NewManager() *Manager {
	app := orpheus.New("carta").
		SetDescription("Typed configuration files from the command line").
		SetVersion(Version)

	manager := &Manager{app: app, out: os.Stdout}
	manager.setupConfigCommands()
	manager.setupUtilityCommands()
	return manager
}

// WithAudit records every file change made by the CLI in auditLogger.
func (m *Manager) WithAudit(auditLogger *carta.AuditLogger) *Manager {
	m.auditLogger = auditLogger
	return m
}

// SetOutput redirects command output, which goes to stdout by default.
func (m *Manager) SetOutput(w io.Writer) *Manager {
	m.out = w
	return m
}

// Run executes the CLI with args, which exclude the program name.
func (m *Manager) Run(args []string) error {
	return m.app.Run(args)
}

// setupConfigCommands registers the 'config' command group.
func (m *Manager) setupConfigCommands() {
	configCmd := orpheus.NewCommand("config", "Configuration file operations")

	// config get <file> <path>
	getCmd := configCmd.Subcommand("get", "Get the value at a path", m.handleConfigGet)
	getCmd.AddFlag("format", "f", "auto", formatUsage)

	// config set <file> <path> <value>
	setCmd := configCmd.Subcommand("set", "Set the value at a path", m.handleConfigSet)
	setCmd.AddFlag("format", "f", "auto", formatUsage)
	setCmd.AddBoolFlag("string", "s", false, "Store the value as a string instead of detecting its type")

	// config delete <file> <path>
	deleteCmd := configCmd.Subcommand("delete", "Delete the value at a path", m.handleConfigDelete)
	deleteCmd.AddFlag("format", "f", "auto", formatUsage)

	// config list <file> [--prefix=]
	listCmd := configCmd.Subcommand("list", "List leaf paths and values", m.handleConfigList)
	listCmd.AddFlag("prefix", "p", "", "Path prefix filter")
	listCmd.AddFlag("format", "f", "auto", formatUsage)

	// config strip <file> --keep=a.b,c
	stripCmd := configCmd.Subcommand("strip", "Remove every value not listed in --keep", m.handleConfigStrip)
	stripCmd.AddFlag("keep", "k", "", "Comma separated paths to keep")
	stripCmd.AddFlag("format", "f", "auto", formatUsage)
	stripCmd.AddBoolFlag("dry-run", "d", false, "Show what would be removed")

	// config convert <input> <output>
	convertCmd := configCmd.Subcommand("convert", "Convert between configuration formats", m.handleConfigConvert)
	convertCmd.AddFlag("from", "", "auto", "Input format (auto|json|yaml|toml|ini|properties)")
	convertCmd.AddFlag("to", "", "auto", "Output format (auto|json|yaml|toml|ini|properties)")

	// config validate <file>
	validateCmd := configCmd.Subcommand("validate", "Check that a file parses and its paths are valid", m.handleConfigValidate)
	validateCmd.AddFlag("format", "f", "auto", formatUsage)

	// config init <file> [--template=default]
	initCmd := orpheus.NewCommand("init", "Create a configuration file from a template").
		AddFlag("format", "f", "auto", formatUsage).
		AddFlag("template", "t", "default", "Template type (default|server|database|minimal)").
		SetHandler(m.handleConfigInit)
	configCmd.AddSubcommand(initCmd)

	m.app.AddCommand(configCmd)
}

// setupUtilityCommands registers audit, info and completion.
func (m *Manager) setupUtilityCommands() {
	auditCmd := orpheus.NewCommand("audit", "Audit trail management")
	auditCmd.Subcommand("stats", "Summarize the audit trail", m.handleAuditStats)
	m.app.AddCommand(auditCmd)

	infoCmd := orpheus.NewCommand("info", "System information")
	infoCmd.SetHandler(m.handleInfo)
	infoCmd.AddBoolFlag("verbose", "v", false, "Verbose information")
	m.app.AddCommand(infoCmd)

	completionCmd := orpheus.NewCommand("completion", "Generate shell completion scripts")
	completionCmd.SetHandler(m.handleCompletion)
	m.app.AddCommand(completionCmd)
}
