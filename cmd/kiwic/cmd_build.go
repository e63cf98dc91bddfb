package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"

	"github.com/sketchkit/kiwi"
	"github.com/sketchkit/kiwi/internal/cli"
)

var errSchemaArgRequired = errors.New("expected exactly one schema file argument")

func newBuildCmd() *cli.Command {
	flags := flag.NewFlagSet("build", flag.ContinueOnError)
	outPath := flags.StringP("out", "o", "", "output file (default: input with .bin extension)")

	return &cli.Command{
		Flags: flags,
		Usage: "build [flags] <schema>",
		Short: "compile a schema to its binary form",
		Long: "Compiles schema text to the compact binary schema format.\n" +
			"Binary input re-encodes canonically, which also validates it.",
		Exec: func(_ context.Context, o *cli.IO, args []string) error {
			if len(args) != 1 {
				return errSchemaArgRequired
			}

			cs, err := loadCompiledSchema(args[0])
			if err != nil {
				return err
			}

			encoded, err := kiwi.EncodeBinarySchema(cs.Schema())
			if err != nil {
				return err
			}

			out := *outPath
			if out == "" {
				out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".bin"
			}

			if err := atomic.WriteFile(out, bytes.NewReader(encoded)); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}

			o.Printf("wrote %s (%d definitions, %d bytes)\n", out, len(cs.Schema().Definitions), len(encoded))

			return nil
		},
	}
}
