package main

import (
	"context"
	"flag"
	"fmt"
	"os"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err == flag.ErrHelp {
		os.Exit(1)
	} else if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	var cmd string
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "", "-h", "--help", "help":
		usage()
		return flag.ErrHelp
	case "read":
		return NewReadCommand().Run(ctx, args)
	default:
		return fmt.Errorf(`pathsym %s: unknown command`, cmd)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `
Pathsym resolves reads of Go program state into SSA form.

Usage:

	pathsym <command> [arguments]

The commands are:

	read        read package-level variables in SSA form
	help        this screen
`[1:])
}
