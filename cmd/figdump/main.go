// Command figdump inspects fig design-file containers: the chunk
// layout, the embedded kiwi schema, and the document payload as JSON.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/natefinch/atomic"

	"github.com/sketchkit/kiwi/internal/cli"
	"github.com/sketchkit/kiwi/internal/figfile"
)

const version = "0.4.0"

func main() {
	os.Exit(newApp().Main(context.Background(), os.Stdin, os.Stdout, os.Stderr, os.Args[1:]))
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "figdump",
		Tagline: "inspect fig design-file containers",
		Version: version,
		Commands: []*cli.Command{
			newInfoCmd(),
			newSchemaCmd(),
			newJSONCmd(),
		},
	}
}

var errFigArgRequired = errors.New("expected exactly one fig file argument")

// openFig opens the single positional fig-file argument.
func openFig(args []string) (*figfile.File, error) {
	if len(args) != 1 {
		return nil, errFigArgRequired
	}

	return figfile.Open(args[0])
}

// writeOutput sends data to stdout, or atomically to outPath when set.
func writeOutput(o *cli.IO, outPath string, data []byte) error {
	if outPath == "" {
		return o.WriteRaw(data)
	}

	if err := atomic.WriteFile(outPath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}

	return nil
}
