package main

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"strings"

	"github.com/pathsym/pathsym"
	"github.com/pathsym/pathsym/gofront"
)

// ReadCommand represents a command for reading package variables in SSA
// form.
type ReadCommand struct{}

// NewReadCommand returns a new instance of ReadCommand.
func NewReadCommand() *ReadCommand {
	return &ReadCommand{}
}

// Run executes the "read" subcommand.
func (cmd *ReadCommand) Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("pathsym-read", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "verbose")
	propagate := fs.Bool("propagate", false, "substitute known values")
	fs.Usage = cmd.usage
	if err := fs.Parse(args); err != nil {
		return err
	} else if fs.NArg() == 0 {
		return fmt.Errorf("package required")
	}

	log.SetFlags(0)
	if !*verbose {
		log.SetOutput(ioutil.Discard)
	}

	// Load the package and map its variables.
	ns, err := gofront.Load(fs.Arg(0))
	if err != nil {
		return err
	}

	decls, err := cmd.findDecls(ns, fs.Args()[1:])
	if err != nil {
		return err
	}

	registry := pathsym.NewRegistry(ns)
	state := pathsym.NewState(registry, pathsym.Config{Trace: *verbose})

	for _, decl := range decls {
		symbol := &pathsym.SymbolExpr{Ident: decl.Name, Type: decl.Type}
		result, err := state.Read(symbol, *propagate)
		if err != nil {
			return fmt.Errorf("read %s: %s", decl.Name, err)
		}
		fmt.Printf("%s => %s\n", decl.Name, result)
	}

	fmt.Println("")
	fmt.Print(registry.Dump())
	return nil
}

// findDecls resolves variable name arguments against the namespace. Names
// match fully qualified or by bare name; no names selects every declared
// variable.
func (cmd *ReadCommand) findDecls(ns *pathsym.Namespace, names []string) ([]*pathsym.Decl, error) {
	all := ns.Decls()
	if len(names) == 0 {
		return all, nil
	}

	decls := make([]*pathsym.Decl, 0, len(names))
	for _, name := range names {
		var found *pathsym.Decl
		for _, decl := range all {
			if decl.Name == name || strings.HasSuffix(decl.Name, "."+name) {
				found = decl
				break
			}
		}
		if found == nil {
			return nil, fmt.Errorf("unknown variable: %s", name)
		}
		decls = append(decls, found)
	}
	return decls, nil
}

func (cmd *ReadCommand) usage() {
	fmt.Fprintln(os.Stderr, `
usage: pathsym read [arguments] [package] [variable ...]

Reads the named package-level variables (all of them when no names are
given) and prints their SSA forms followed by the variable map.

Arguments:

	-propagate
	    Substitute known values into the results.
	-v
	    Enable verbose logging.
`[1:])
}
