// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package cmd implements the netman command surface: the no-argument
// interactive mode, the non-interactive listing mode and the tunnel
// import helper.
package cmd

import (
	"fmt"
	"io"
	"os"
)

// Version is stamped at build time.
var Version = "dev"

// Printer writes user-facing command output. Tests swap the writer.
var Printer = &OutputPrinter{Out: os.Stdout}

// OutputPrinter is a minimal stdout wrapper.
type OutputPrinter struct {
	Out io.Writer
}

func (p *OutputPrinter) Printf(format string, a ...any) {
	fmt.Fprintf(p.Out, format, a...)
}

func (p *OutputPrinter) Println(a ...any) {
	fmt.Fprintln(p.Out, a...)
}

const usage = `netman - declarative network interface manager

Usage:
  netman                 interactive mode
  netman list            list interfaces and their state
  netman import <name> <file>
                         import a wg-quick tunnel configuration
  netman up <iface>      bring a link administratively up
  netman down <iface>    bring a link administratively down
  netman addr add <iface> <cidr>
  netman addr del <iface> <cidr>
                         one-shot address assignment, bypassing the daemon

Options:
  --config <path>        configuration file (default /etc/netman/netman.hcl)
  --version              print version
  --help                 print this help
`

// Main dispatches the command line. It returns the process exit code:
// zero on success, non-zero on startup or operation failure.
func Main(args []string) int {
	configPath := ""
	var rest []string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--help", "-h":
			Printer.Printf("%s", usage)
			return 0
		case "--version", "-v":
			Printer.Println("netman", Version)
			return 0
		case "--config":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--config needs a path")
				return 2
			}
			i++
			configPath = args[i]
		default:
			rest = append(rest, args[i])
		}
	}

	var err error
	switch {
	case len(rest) == 0:
		err = RunInteractive(configPath)
	case rest[0] == "list":
		err = RunList(configPath)
	case rest[0] == "import" && len(rest) == 3:
		err = RunImport(configPath, rest[1], rest[2])
	case rest[0] == "up" && len(rest) == 2:
		err = RunLinkState(configPath, rest[1], true)
	case rest[0] == "down" && len(rest) == 2:
		err = RunLinkState(configPath, rest[1], false)
	case rest[0] == "addr" && len(rest) == 4 && (rest[1] == "add" || rest[1] == "del"):
		err = RunAddr(configPath, rest[2], rest[3], rest[1] == "add")
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", rest[0], usage)
		return 2
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "netman:", err)
		return 1
	}
	return 0
}
