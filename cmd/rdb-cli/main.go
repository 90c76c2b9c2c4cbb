// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

// Command rdb-cli drives the RDB snapshot codec and keyspace registry
// directly from the command line: dumping a registry to a file,
// loading a file back into a registry, verifying a file's trailing
// CRC64 checksum, and printing a human-readable listing of its AUX
// fields, databases and keys.
// It does not implement SAVE/BGSAVE or any command dispatcher -- those
// remain the caller's responsibility; this tool only exercises the
// codec and registry types themselves.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storj.io/kvcore/pkg/keyspace"
)

var log *zap.Logger

func main() {
	l, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log = l
	defer func() { _ = log.Sync() }()

	root := &cobra.Command{
		Use:   "rdb-cli",
		Short: "inspect and exercise the RDB snapshot codec",
	}
	root.AddCommand(newDumpCmd(), newLoadCmd(), newVerifyCmd(), newInspectCmd())

	if err := root.Execute(); err != nil {
		log.Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}

func newRegistryFromFlags(dbnum int) *keyspace.Registry {
	return keyspace.NewRegistry(dbnum, 1024)
}
