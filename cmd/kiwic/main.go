// Command kiwic compiles kiwi schemas and converts documents between
// JSON and the binary wire format.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/natefinch/atomic"

	"github.com/sketchkit/kiwi/internal/cli"
)

const version = "0.4.0"

func main() {
	os.Exit(newApp().Main(context.Background(), os.Stdin, os.Stdout, os.Stderr, os.Args[1:]))
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "kiwic",
		Tagline: "schema compiler and codec for the kiwi format",
		Version: version,
		Commands: []*cli.Command{
			newBuildCmd(),
			newPrintCmd(),
			newEncodeCmd(),
			newDecodeCmd(),
		},
	}
}

// readInput returns the bytes of the first positional arg, or stdin
// when no arg (or "-") is given.
func readInput(o *cli.IO, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(o.Reader())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}

		return data, nil
	}

	data, err := os.ReadFile(args[0]) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", args[0], err)
	}

	return data, nil
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
