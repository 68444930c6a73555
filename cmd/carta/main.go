// Carta CLI - typed configuration files from the command line
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"

	"github.com/agilira/carta"
	"github.com/agilira/carta/cmd/cli"
	_ "github.com/agilira/carta/providers/mongo"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	opts, err := carta.LoadOptionsFromEnv()
	if err != nil {
		return err
	}

	manager := cli.NewManager()
	if opts.AuditConfig.Enabled {
		auditLogger, err := carta.NewAuditLogger(opts.AuditConfig)
		if err != nil {
			return err
		}
		defer func() { _ = auditLogger.Close() }()
		manager.WithAudit(auditLogger)
	}
	return manager.Run(args)
}
