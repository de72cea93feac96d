// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Command nttc is the Source IR to Target ISA compiler CLI.
//
// Usage:
//
//	nttc [options] <input.yaml>
//
// Examples:
//
//	nttc shader.yaml                     # Compile and print a listing
//	nttc -o shader.tgsi shader.yaml      # Write the token stream
//	nttc -watch -o out.tgsi shader.yaml  # Recompile on every change
//
// Capability defaults come from NTT_NATIVE_INTEGERS, NTT_ANY_REG_AS_ADDRESS,
// NTT_TXF_LZ, NTT_TEXCOORD, NTT_LOAD_CONSTBUF, NTT_MAX_TEMPS and NTT_DEBUG;
// flags override them.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/docker/go-units"

	"github.com/gogpu/ntt"
	"github.com/gogpu/ntt/tgsi"
)

var (
	output  = flag.String("o", "", "output file for the token stream (default: listing on stdout)")
	text    = flag.Bool("S", false, "write a text listing even with -o")
	watch   = flag.Bool("watch", false, "recompile whenever the input changes")
	version = flag.Bool("version", false, "print version")
)

const nttVersion = "0.1.0-dev"

func main() {
	cfg := defaultConfig()
	cfg.register(flag.CommandLine)
	flag.Usage = usage
	flag.Parse()

	if *version {
		fmt.Printf("nttc version %s\n", nttVersion)
		return
	}

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: no input file specified")
		usage()
		os.Exit(1)
	}
	inputPath := args[0]
	opts := cfg.options(os.Stderr)

	build := func() error {
		return compile(inputPath, *output, *text, opts, os.Stdout, os.Stderr)
	}
	if err := build(); err != nil {
		fmt.Fprintf(os.Stderr, "Compilation error: %v\n", err)
		if !*watch {
			os.Exit(1)
		}
	}
	if *watch {
		if err := watchFile(inputPath, build, os.Stderr); err != nil {
			fmt.Fprintf(os.Stderr, "Error watching %s: %v\n", inputPath, err)
			os.Exit(1)
		}
	}
}

// compile translates inputPath. The token stream goes to outputPath when
// set; otherwise, or when listing is set, the text listing goes to stdout.
func compile(inputPath, outputPath string, listing bool, opts *tgsi.Options, stdout, stderr io.Writer) error {
	prog, err := ntt.CompileFile(inputPath, opts)
	if err != nil {
		return err
	}

	if outputPath == "" || listing {
		if _, err := io.WriteString(stdout, prog.String()); err != nil {
			return fmt.Errorf("writing listing: %w", err)
		}
	}
	if outputPath == "" {
		return nil
	}

	data := prog.Bytes()
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	fmt.Fprintf(stderr, "Successfully compiled %s to %s (%s, %d instructions, %d temps)\n",
		inputPath, outputPath, units.HumanSize(float64(len(data))), len(prog.Instructions), prog.NumTemps())
	return nil
}

func debugLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: nttc [options] <input.yaml>\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  nttc shader.yaml                 Print a listing\n")
	fmt.Fprintf(os.Stderr, "  nttc -o shader.tgsi shader.yaml  Write the token stream\n")
	fmt.Fprintf(os.Stderr, "  nttc -watch -S -o out.tgsi s.yaml  Recompile on change\n")
}
