// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"storj.io/kvcore/pkg/objval"
	"storj.io/kvcore/pkg/rdbformat"
)

func newInspectCmd() *cobra.Command {
	var dbnum int
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "print a walk of a file's databases, keys, types, and encodings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args[0], dbnum)
		},
	}
	cmd.Flags().IntVar(&dbnum, "dbnum", 16, "number of databases to allocate while loading")
	return cmd
}

func runInspect(file string, dbnum int) error {
	in, err := os.Open(file)
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
	if len(dec.Aux) > 0 {
		fmt.Println("AUX:")
		for k, v := range dec.Aux {
			fmt.Printf("  %s = %s\n", k, v)
		}
	}
	if err := dec.LoadInto(reg, op); err != nil {
		return err
	}

	for i := 0; i < reg.Count(); i++ {
		db := reg.DB(i)
		if db.Len() == 0 {
			continue
		}
		fmt.Printf("SELECTDB %d\n", i)
		for _, key := range db.DumpKeys() {
			v, ok := db.Get(key)
			if !ok {
				continue
			}
			line := fmt.Sprintf("  %s: %s/%s", key, typeName(v.Type()), v.Encoding())
			if at, ok := db.GetExpire(key); ok {
				line += fmt.Sprintf(" expires=%d", at)
			}
			fmt.Println(line)
		}
	}
	return nil
}

func typeName(t objval.Type) string {
	return t.String()
}
