package main

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/sketchkit/kiwi"
	"github.com/sketchkit/kiwi/internal/cli"
)

func newPrintCmd() *cli.Command {
	flags := flag.NewFlagSet("print", flag.ContinueOnError)
	outPath := flags.StringP("out", "o", "", "output file (default stdout)")

	return &cli.Command{
		Flags: flags,
		Usage: "print [flags] <schema>",
		Short: "pretty-print a text or binary schema",
		Long: "Prints a schema in canonical text form. Binary schemas are\n" +
			"decoded first, so this also round-trips compiled schema files\n" +
			"back to readable source.",
		Exec: func(_ context.Context, o *cli.IO, args []string) error {
			if len(args) != 1 {
				return errSchemaArgRequired
			}

			cs, err := loadCompiledSchema(args[0])
			if err != nil {
				return err
			}

			return writeOutput(o, *outPath, []byte(kiwi.PrettyPrintSchema(cs.Schema())))
		},
	}
}
