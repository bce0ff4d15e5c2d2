// Copyright 2024 The Glue Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ProjectSerenity/glue/internal/decls"
	"github.com/ProjectSerenity/glue/internal/emit"
	"github.com/ProjectSerenity/glue/internal/types"
)

func runGenerate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	out := fs.String("out", "", "path to write the generated Rust source to (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	inputs := fs.Args()
	if len(inputs) == 0 {
		return fmt.Errorf("generate: at least one type-registry document is required")
	}

	store := decls.New()
	for _, path := range inputs {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		ts, err := types.DecodeDocument(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		emit.Registry(store, ts.Arch, ts)
	}

	rendered := emit.Assemble(store)

	if *out == "" {
		_, err := fmt.Print(rendered)
		return err
	}

	if err := os.WriteFile(*out, []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", *out, err)
	}

	return nil
}
