package main

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/sketchkit/kiwi/internal/cli"
	"github.com/sketchkit/kiwi/internal/figfile"
	"github.com/sketchkit/kiwi/internal/jsondoc"
)

func newJSONCmd() *cli.Command {
	flags := flag.NewFlagSet("json", flag.ContinueOnError)
	root := flags.StringP("root", "r", "", "root definition (default "+figfile.DefaultRoot+")")
	outPath := flags.StringP("out", "o", "", "output file (default stdout)")

	return &cli.Command{
		Flags: flags,
		Usage: "json [flags] <file.fig>",
		Short: "decode the document payload to JSON",
		Long: "Decodes the container's payload chunk against the embedded\n" +
			"schema and prints the document as JSON. The root definition\n" +
			"defaults to " + figfile.DefaultRoot + " and can be overridden\n" +
			"with --root.",
		Exec: func(_ context.Context, o *cli.IO, args []string) error {
			f, err := openFig(args)
			if err != nil {
				return err
			}
			defer f.Close()

			name := *root
			if name == "" {
				name = figfile.DefaultRoot
			}

			doc, err := f.Document(name)
			if err != nil {
				return err
			}

			rendered, err := jsondoc.FromDocument(f.Compiled(), name, doc)
			if err != nil {
				return err
			}

			return writeOutput(o, *outPath, rendered)
		},
	}
}
