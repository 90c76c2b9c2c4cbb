// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storj.io/kvcore/pkg/rdbformat"
)

func newDumpCmd() *cobra.Command {
	var dbnum int
	cmd := &cobra.Command{
		Use:   "dump <infile> <outfile>",
		Short: "load an RDB file and re-encode it as a fresh snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(args[0], args[1], dbnum)
		},
	}
	cmd.Flags().IntVar(&dbnum, "dbnum", 16, "number of databases to allocate while loading")
	return cmd
}

func runDump(infile, outfile string, dbnum int) error {
	in, err := os.Open(infile)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	reg := newRegistryFromFlags(dbnum)
	dec := rdbformat.NewDecoder(in)
	op, err := dec.ReadHeader()
	if err != nil {
		return err
	}
	if err := dec.LoadInto(reg, op); err != nil {
		return err
	}

	out, err := os.Create(outfile)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	enc := rdbformat.NewEncoder(out)
	if err := enc.WriteHeader(rdbformat.AuxFields{}); err != nil {
		return err
	}
	for i := 0; i < reg.Count(); i++ {
		db := reg.DB(i)
		if db.Len() == 0 {
			continue
		}
		if err := enc.WriteDB(db); err != nil {
			return err
		}
	}
	if err := enc.WriteEOF(); err != nil {
		return err
	}

	log.Info("dump complete", zap.String("in", infile), zap.String("out", outfile))
	return nil
}
