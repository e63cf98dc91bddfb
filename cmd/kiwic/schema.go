package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sketchkit/kiwi"
)

var (
	errNoSchema = errors.New("no schema given (use --schema or set one in .kiwic.json)")
	errNoType   = errors.New("no type given (use --type or set one in .kiwic.json)")
)

// loadCompiledSchema reads a schema file and compiles it. Binary
// schemas are detected by the NUL bytes their name encoding always
// carries; schema text never contains one.
func loadCompiledSchema(path string) (*kiwi.CompiledSchema, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("reading schema %s: %w", path, err)
	}

	if bytes.IndexByte(data, 0) >= 0 {
		schema, err := kiwi.DecodeBinarySchema(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		cs, err := kiwi.CompileSchema(schema)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		return cs, nil
	}

	cs, err := kiwi.Compile(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cs, nil
}

// codecOptions is the resolved schema/type pair for encode and decode.
type codecOptions struct {
	schemaPath string
	typeName   string
}

// resolveCodecOptions merges flags over the project config. Flags win;
// config schema paths resolve against the config file's directory.
func resolveCodecOptions(schemaFlag, typeFlag, configFlag string) (codecOptions, error) {
	opts := codecOptions{schemaPath: schemaFlag, typeName: typeFlag}

	if opts.schemaPath != "" && opts.typeName != "" {
		return opts, nil
	}

	workDir, err := os.Getwd()
	if err != nil {
		return codecOptions{}, fmt.Errorf("cannot get working directory: %w", err)
	}

	cfg, cfgPath, err := LoadConfig(workDir, configFlag)
	if err != nil {
		return codecOptions{}, err
	}

	if opts.schemaPath == "" && cfg.Schema != "" {
		opts.schemaPath = cfg.Schema
		if !filepath.IsAbs(opts.schemaPath) && cfgPath != "" {
			opts.schemaPath = filepath.Join(filepath.Dir(cfgPath), opts.schemaPath)
		}
	}

	if opts.typeName == "" {
		opts.typeName = cfg.Type
	}

	if opts.schemaPath == "" {
		return codecOptions{}, errNoSchema
	}

	if opts.typeName == "" {
		return codecOptions{}, errNoType
	}

	return opts, nil
}
