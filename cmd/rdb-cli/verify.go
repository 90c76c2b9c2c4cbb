// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"storj.io/kvcore/pkg/rdbformat"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "check a file's trailing CRC64 checksum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(args[0])
		},
	}
}

func runVerify(file string) error {
	in, err := os.Open(file)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	reg := newRegistryFromFlags(16)
	dec := rdbformat.NewDecoder(in)
	op, err := dec.ReadHeader()
	if err != nil {
		return err
	}
	if err := dec.LoadInto(reg, op); err != nil {
		if rdbformat.ErrChecksumMismatch.Has(err) {
			fmt.Println("FAIL: checksum mismatch")
			return err
		}
		return err
	}
	fmt.Println("OK")
	return nil
}
