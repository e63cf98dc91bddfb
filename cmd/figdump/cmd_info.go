package main

import (
	"context"

	"github.com/sketchkit/kiwi/internal/cli"
)

func newInfoCmd() *cli.Command {
	return &cli.Command{
		Usage: "info <file.fig>",
		Short: "summarize container chunks and the embedded schema",
		Long: "Prints the chunk layout of a fig container along with the\n" +
			"definition count of the embedded schema and the decompressed\n" +
			"payload size.",
		Exec: func(_ context.Context, o *cli.IO, args []string) error {
			f, err := openFig(args)
			if err != nil {
				return err
			}
			defer f.Close()

			o.Printf("chunks:      %d\n", len(f.Chunks))

			for i, chunk := range f.Chunks {
				switch i {
				case 0:
					o.Printf("  [%d] %d bytes (schema)\n", i, len(chunk))
				case 1:
					o.Printf("  [%d] %d bytes (document)\n", i, len(chunk))
				default:
					o.Printf("  [%d] %d bytes\n", i, len(chunk))
				}
			}

			o.Printf("definitions: %d\n", len(f.Schema.Definitions))
			o.Printf("payload:     %d bytes decompressed\n", len(f.Payload))

			return nil
		},
	}
}
