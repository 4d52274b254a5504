// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command ctfdump compiles a barectf-style YAML configuration and decodes
// a CTF-ish trace stream against it, printing one line per event.
package main

import (
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/tracekit/ctftrace/ctf"
	"github.com/tracekit/ctftrace/ctfconfig"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ctfdump",
		Short:         "Compile a CTF trace configuration and decode packets against it",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.AddCommand(newDumpCmd(), newValidateCmd())
	return root
}

func newDumpCmd() *cobra.Command {
	var useMmap bool
	var maxPacketSize int

	cmd := &cobra.Command{
		Use:   "dump <config.yaml> <trace>",
		Short: "Decode every packet in a trace stream and print one line per event",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, tracePath := args[0], args[1]

			schema, err := compileSchema(configPath)
			if err != nil {
				return err
			}

			r, closeTransport, err := openTransport(tracePath, useMmap)
			if err != nil {
				return err
			}
			defer closeTransport()

			framer := ctf.NewFramer(schema, r, maxPacketSize)
			ctx := cmd.Context()
			for {
				pkt, err := framer.Next(ctx)
				if err == ctf.ErrStreamDone {
					return nil
				}
				if err != nil {
					return err
				}
				for _, ev := range pkt.Events {
					printEvent(cmd.OutOrStdout(), pkt, ev)
				}
			}
		},
	}
	cmd.Flags().BoolVar(&useMmap, "mmap", false, "memory-map the trace file instead of buffering reads")
	cmd.Flags().IntVar(&maxPacketSize, "max-packet-size", 1<<20, "largest packet size (bytes) the framer will accept")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config.yaml>",
		Short: "Compile a configuration and report any ConfigError without reading a trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := compileSchema(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d data stream type(s)\n", len(schema.StreamsByID))
			return nil
		},
	}
}

func compileSchema(configPath string) (*ctf.Schema, error) {
	tree, err := ctfconfig.LoadFile(configPath)
	if err != nil {
		return nil, err
	}
	return ctf.Compile(tree, ctfconfig.NewResolver(configPath))
}

func printEvent(w io.Writer, pkt *ctf.Packet, ev ctf.Event) {
	var ts uint64
	if ev.Timestamp != nil {
		ts = *ev.Timestamp
	}
	line := fmt.Sprintf("stream=%d event=%s ts=%d", pkt.Stream.ID, ev.Type.Name, ts)
	line += formatFields(ev.CommonContext)
	line += formatFields(ev.SpecificContext)
	line += formatFields(ev.Payload)
	fmt.Fprintln(w, line)
}

func formatFields(s *ctf.Struct) string {
	if s == nil {
		return ""
	}
	out := ""
	for i := 0; i < s.Len(); i++ {
		name, v := s.At(i)
		out += fmt.Sprintf(" %s=%s", name, v.String())
	}
	return out
}
