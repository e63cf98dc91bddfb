package main

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/sketchkit/kiwi/internal/cli"
	"github.com/sketchkit/kiwi/internal/jsondoc"
)

func newEncodeCmd() *cli.Command {
	flags := flag.NewFlagSet("encode", flag.ContinueOnError)
	schemaPath := flags.StringP("schema", "s", "", "schema file, text or binary")
	typeName := flags.StringP("type", "t", "", "definition to encode against")
	outPath := flags.StringP("out", "o", "", "output file (default stdout)")
	configPath := flags.StringP("config", "c", "", "config file (default "+ConfigFileName+")")

	return &cli.Command{
		Flags: flags,
		Usage: "encode [flags] [input.json]",
		Short: "encode a JSON document to kiwi bytes",
		Long: "Reads a JSON (or JWCC) document from the input file or stdin\n" +
			"and encodes it against the named definition. --schema and --type\n" +
			"fall back to the project config.",
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

			doc, err := jsondoc.ToDocument(cs, opts.typeName, input)
			if err != nil {
				return err
			}

			encoded, err := cs.Encode(opts.typeName, doc)
			if err != nil {
				return err
			}

			return writeOutput(o, *outPath, encoded)
		},
	}
}
