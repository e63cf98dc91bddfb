// Command kiwish is an interactive shell for poking at kiwi schemas:
// load a schema (text, binary, or a design-file container), inspect
// definitions, and encode or decode documents on the fly.
package main

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/sketchkit/kiwi"
	"github.com/sketchkit/kiwi/internal/figfile"
	"github.com/sketchkit/kiwi/internal/jsondoc"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) > 1 {
		return errors.New("usage: kiwish [schema-or-fig-file]")
	}

	r := &REPL{}

	if len(args) == 1 {
		if err := r.loadFile(args[0]); err != nil {
			return err
		}
	}

	return r.Run()
}

// REPL is the interactive command loop.
type REPL struct {
	schemaPath string
	cs         *kiwi.CompiledSchema
	liner      *liner.State
}

// historyFile returns the path to the history file.
func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".kiwish_history")
}

// Run starts the REPL loop.
func (r *REPL) Run() error {
	// Set up liner for readline-style input
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	// Configure liner
	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	// Load history
	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Println("kiwish - interactive kiwi codec shell")

	if r.cs != nil {
		fmt.Printf("Loaded %s (%d definitions).\n", r.schemaPath, len(r.cs.Schema().Definitions))
	}

	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("kiwish> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Add to history
		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")

			r.saveHistory()

			return nil

		case "help", "?":
			r.printHelp()

		case "load":
			r.cmdLoad(args)

		case "defs", "ls":
			r.cmdDefs()

		case "show":
			r.cmdShow(args)

		case "pretty":
			r.cmdPretty()

		case "encode":
			r.cmdEncode(args)

		case "decode":
			r.cmdDecode(args)

		case "clear", "cls":
			fmt.Print("\033[H\033[2J")

		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()

	return nil
}

// saveHistory persists command history to disk.
func (r *REPL) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

// completer provides tab completion for commands and, for the
// definition-taking commands, schema definition names.
func (r *REPL) completer(line string) []string {
	commands := []string{
		"load", "defs", "ls", "show", "pretty",
		"encode", "decode", "clear", "cls",
		"help", "exit", "quit", "q",
	}

	trimmed := strings.TrimLeft(line, " ")

	if i := strings.IndexByte(trimmed, ' '); i >= 0 {
		cmd := strings.ToLower(trimmed[:i])
		rest := strings.TrimLeft(trimmed[i+1:], " ")

		if r.cs == nil || strings.Contains(rest, " ") {
			return nil
		}

		if cmd != "show" && cmd != "encode" && cmd != "decode" {
			return nil
		}

		var completions []string

		for _, def := range r.cs.Schema().Definitions {
			if strings.HasPrefix(def.Name, rest) {
				completions = append(completions, cmd+" "+def.Name)
			}
		}

		return completions
	}

	var completions []string

	lower := strings.ToLower(trimmed)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}

	return completions
}

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  load <file>             Load a schema (text, binary, or .fig)")
	fmt.Println("  defs                    List definitions in the loaded schema")
	fmt.Println("  show <def>              Print one definition")
	fmt.Println("  pretty                  Print the whole schema as text")
	fmt.Println("  encode <def> <json>     Encode a JSON document, print hex")
	fmt.Println("  decode <def> <hex>      Decode hex wire bytes, print JSON")
	fmt.Println("  help                    Show this help")
	fmt.Println("  exit / quit / q         Exit")
	fmt.Println()
	fmt.Println("Hex input may contain spaces; JSON may use comments and")
	fmt.Println("trailing commas.")
}

// loadFile loads a schema from text, a binary schema file, or the
// schema chunk of a design-file container, sniffing the format.
func (r *REPL) loadFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	switch {
	case bytes.HasPrefix(data, []byte("fig-kiwi")):
		f, err := figfile.Parse(data)
		if err != nil {
			return err
		}

		r.cs = f.Compiled()

	case bytes.IndexByte(data, 0) >= 0:
		schema, err := kiwi.DecodeBinarySchema(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		cs, err := kiwi.CompileSchema(schema)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		r.cs = cs

	default:
		cs, err := kiwi.Compile(string(data))
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		r.cs = cs
	}

	r.schemaPath = path

	return nil
}

func (r *REPL) loaded() bool {
	if r.cs == nil {
		fmt.Println("No schema loaded. Use: load <file>")

		return false
	}

	return true
}

func (r *REPL) cmdLoad(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: load <file>")

		return
	}

	if err := r.loadFile(args[0]); err != nil {
		fmt.Printf("error: %v\n", err)

		return
	}

	fmt.Printf("Loaded %s (%d definitions).\n", r.schemaPath, len(r.cs.Schema().Definitions))
}

func (r *REPL) cmdDefs() {
	if !r.loaded() {
		return
	}

	schema := r.cs.Schema()
	if schema.Package != "" {
		fmt.Printf("package %s\n\n", schema.Package)
	}

	for _, def := range schema.Definitions {
		noun := "fields"
		if def.Kind == kiwi.KindEnum {
			noun = "members"
		}

		fmt.Printf("  %-28s %s, %d %s\n", def.Name, def.Kind, len(def.Fields), noun)
	}
}

func (r *REPL) cmdShow(args []string) {
	if !r.loaded() {
		return
	}

	if len(args) != 1 {
		fmt.Println("Usage: show <def>")

		return
	}

	def := r.cs.Definition(args[0])
	if def == nil {
		fmt.Printf("error: unknown definition %q\n", args[0])

		return
	}

	one := &kiwi.Schema{Definitions: []kiwi.Definition{*def}}
	fmt.Print(kiwi.PrettyPrintSchema(one))
}

func (r *REPL) cmdPretty() {
	if !r.loaded() {
		return
	}

	fmt.Print(kiwi.PrettyPrintSchema(r.cs.Schema()))
}

func (r *REPL) cmdEncode(args []string) {
	if !r.loaded() {
		return
	}

	if len(args) < 2 {
		fmt.Println("Usage: encode <def> <json>")

		return
	}

	doc, err := jsondoc.ToDocument(r.cs, args[0], []byte(strings.Join(args[1:], " ")))
	if err != nil {
		fmt.Printf("error: %v\n", err)

		return
	}

	encoded, err := r.cs.Encode(args[0], doc)
	if err != nil {
		fmt.Printf("error: %v\n", err)

		return
	}

	fmt.Printf("%d bytes: %s\n", len(encoded), formatHex(encoded))
}

func (r *REPL) cmdDecode(args []string) {
	if !r.loaded() {
		return
	}

	if len(args) < 2 {
		fmt.Println("Usage: decode <def> <hex>")

		return
	}

	raw, err := parseHex(strings.Join(args[1:], ""))
	if err != nil {
		fmt.Printf("error: %v\n", err)

		return
	}

	doc, err := r.cs.Decode(args[0], raw)
	if err != nil {
		fmt.Printf("error: %v\n", err)

		return
	}

	rendered, err := jsondoc.FromDocument(r.cs, args[0], doc)
	if err != nil {
		fmt.Printf("error: %v\n", err)

		return
	}

	fmt.Print(string(rendered))
}

// parseHex accepts hex with optional 0x prefix and embedded spaces.
func parseHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.ReplaceAll(s, " ", ""), "0x")

	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("bad hex input: %w", err)
	}

	return raw, nil
}

// formatHex renders bytes as space-separated pairs.
func formatHex(data []byte) string {
	var sb strings.Builder

	for i, b := range data {
		if i > 0 {
			sb.WriteByte(' ')
		}

		fmt.Fprintf(&sb, "%02x", b)
	}

	return sb.String()
}
