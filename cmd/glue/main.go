// Copyright 2024 The Glue Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

// Command glue lowers one or more per-architecture type-registry
// documents into a single Rust source file declaring the structs,
// enums and unions a Roc platform's host needs to exchange values with
// the Roc application linked against it.
package main

import (
	"fmt"
	"log"
	"os"
	"sort"
)

// command is one glue subcommand.
type command struct {
	name    string
	summary string
	run     func(args []string) error
}

var commands = map[string]*command{}
var commandOrder []string

// registerCommand adds cmd to the set recognised by main. It panics if
// the name is already taken, since commands are only ever registered
// once, from this file's init-time command list below.
func registerCommand(cmd *command) {
	if _, exists := commands[cmd.name]; exists {
		panic(fmt.Sprintf("command %q registered twice", cmd.name))
	}

	commands[cmd.name] = cmd
	commandOrder = append(commandOrder, cmd.name)
}

func init() {
	registerCommand(&command{
		name:    "generate",
		summary: "lower type-registry documents into a Rust source file",
		run:     runGenerate,
	})
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("glue: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	name := os.Args[1]
	cmd, ok := commands[name]
	if !ok {
		log.Printf("unrecognised command %q", name)
		usage()
		os.Exit(2)
	}

	if err := cmd.run(os.Args[2:]); err != nil {
		log.Fatal(err)
	}
}

func usage() {
	sort.Strings(commandOrder)

	fmt.Fprintln(os.Stderr, "usage: glue <command> [arguments]")
	fmt.Fprintln(os.Stderr, "\ncommands:")
	for _, name := range commandOrder {
		fmt.Fprintf(os.Stderr, "  %-10s %s\n", name, commands[name].summary)
	}
}
