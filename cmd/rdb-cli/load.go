// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"storj.io/kvcore/pkg/rdbformat"
)

func newLoadCmd() *cobra.Command {
	var dbnum int
	cmd := &cobra.Command{
		Use:   "load <infile>",
		Short: "load an RDB file and print per-database key counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(args[0], dbnum)
		},
	}
	cmd.Flags().IntVar(&dbnum, "dbnum", 16, "number of databases to allocate while loading")
	return cmd
}

func runLoad(infile string, dbnum int) error {
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

	for i := 0; i < reg.Count(); i++ {
		if n := reg.DB(i).Len(); n > 0 {
			fmt.Printf("db%d: %d keys\n", i, n)
		}
	}
	return nil
}
