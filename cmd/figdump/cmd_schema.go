package main

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/sketchkit/kiwi"
	"github.com/sketchkit/kiwi/internal/cli"
)

func newSchemaCmd() *cli.Command {
	flags := flag.NewFlagSet("schema", flag.ContinueOnError)
	outPath := flags.StringP("out", "o", "", "output file (default stdout)")

	return &cli.Command{
		Flags: flags,
		Usage: "schema [flags] <file.fig>",
		Short: "pretty-print the embedded schema as kiwi text",
		Exec: func(_ context.Context, o *cli.IO, args []string) error {
			f, err := openFig(args)
			if err != nil {
				return err
			}
			defer f.Close()

			return writeOutput(o, *outPath, []byte(kiwi.PrettyPrintSchema(f.Schema)))
		},
	}
}
