package main

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/sketchkit/kiwi/internal/cli"
	"github.com/sketchkit/kiwi/internal/jsondoc"
)

func newDecodeCmd() *cli.Command {
	flags := flag.NewFlagSet("decode", flag.ContinueOnError)
	schemaPath := flags.StringP("schema", "s", "", "schema file, text or binary")
	typeName := flags.StringP("type", "t", "", "definition to decode against")
	outPath := flags.StringP("out", "o", "", "output file (default stdout)")
	configPath := flags.StringP("config", "c", "", "config file (default "+ConfigFileName+")")

	return &cli.Command{
		Flags: flags,
		Usage: "decode [flags] [input.bin]",
		Short: "decode kiwi bytes to a JSON document",
		Long: "Reads wire bytes from the input file or stdin, decodes them\n" +
			"against the named definition, and prints the document as JSON.\n" +
			"--schema and --type fall back to the project config.",
		Exec: func(_ context.Context, o *cli.IO, args []string) error {
			opts, err := resolveCodecOptions(*schemaPath, *typeName, *configPath)
			if err != nil {
				return err
			}

			cs, err := loadCompiledSchema(opts.schemaPath)
			if err != nil {
				return err
			}

			input, err := readInput(o, args)
			if err != nil {
				return err
			}

			doc, err := cs.Decode(opts.typeName, input)
			if err != nil {
				return err
			}

			rendered, err := jsondoc.FromDocument(cs, opts.typeName, doc)
			if err != nil {
				return err
			}

			return writeOutput(o, *outPath, rendered)
		},
	}
}
