package cli

import (
	"context"
	"io"
)

// App dispatches subcommands and owns the top-level help output.
type App struct {
	// Name is the binary name shown in usage lines.
	Name string

	// Tagline is the one-line description printed above usage.
	Tagline string

	// Version is printed by "<app> version". Empty disables the
	// builtin.
	Version string

	Commands []*Command
}

// Main is the entry point. args excludes the program name. Returns
// exit code.
func (a *App) Main(ctx context.Context, in io.Reader, out, errOut io.Writer, args []string) int {
	o := NewIO(in, out, errOut)

	if len(args) == 0 {
		a.PrintUsage(o)

		return 0
	}

	name := args[0]

	switch name {
	case "-h", "--help":
		a.PrintUsage(o)

		return 0

	case "help":
		if len(args) > 1 {
			if cmd := a.lookup(args[1]); cmd != nil {
				cmd.PrintHelp(o, a.Name)

				return 0
			}

			o.ErrPrintln("error: unknown command:", args[1])

			return 1
		}

		a.PrintUsage(o)

		return 0

	case "version", "--version":
		if a.Version != "" {
			o.Println(a.Name, "version", a.Version)

			return 0
		}
	}

	cmd := a.lookup(name)
	if cmd == nil {
		o.ErrPrintln("error: unknown command:", name)
		o.ErrPrintln()
		a.printUsageTo(o)

		return 1
	}

	if code := cmd.Run(ctx, a.Name, o, args[1:]); code != 0 {
		return code
	}

	// Finish handles warnings and exit code
	return o.Finish()
}

// PrintUsage prints the global help listing.
func (a *App) PrintUsage(o *IO) {
	o.Println(a.Name, "-", a.Tagline)
	o.Println()
	o.Println("Usage:", a.Name, "<command> [flags]")
	o.Println()
	o.Println("Commands:")

	for _, cmd := range a.Commands {
		o.Println(cmd.HelpLine())
	}

	o.Println()
	o.Printf("Run '%s help <command>' for details on a command.\n", a.Name)
}

// printUsageTo mirrors PrintUsage on stderr for error paths.
func (a *App) printUsageTo(o *IO) {
	o.ErrPrintln(a.Name, "-", a.Tagline)
	o.ErrPrintln()
	o.ErrPrintln("Usage:", a.Name, "<command> [flags]")
	o.ErrPrintln()
	o.ErrPrintln("Commands:")

	for _, cmd := range a.Commands {
		o.ErrPrintln(cmd.HelpLine())
	}
}

func (a *App) lookup(name string) *Command {
	for _, cmd := range a.Commands {
		if cmd.Name() == name {
			return cmd
		}
	}

	return nil
}
