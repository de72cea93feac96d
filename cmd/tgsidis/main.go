// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// tgsidis - Target ISA disassembler
// Prints the text listing of a token stream written by nttc.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/docker/go-units"

	"github.com/gogpu/ntt/tgsi"
)

var stats = flag.Bool("stats", false, "print an opcode histogram instead of the listing")

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tgsidis [-stats] <file.tgsi>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := disassemble(os.Stdout, data, *stats); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func disassemble(w io.Writer, data []byte, histogram bool) error {
	prog, err := tgsi.DecodeBytes(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "; TGSI\n")
	fmt.Fprintf(w, "; Version: %d\n", tgsi.Version)
	fmt.Fprintf(w, "; Size: %s (%d words)\n", units.HumanSize(float64(len(data))), len(data)/4)
	fmt.Fprintf(w, "; Instructions: %d\n", len(prog.Instructions))
	fmt.Fprintf(w, "; Temps: %d\n", prog.NumTemps())
	fmt.Fprintln(w)

	if !histogram {
		_, err = io.WriteString(w, prog.String())
		return err
	}

	counts := map[tgsi.Opcode]int{}
	for i := range prog.Instructions {
		counts[prog.Instructions[i].Opcode]++
	}
	ops := make([]tgsi.Opcode, 0, len(counts))
	for op := range counts {
		ops = append(ops, op)
	}
	slices.SortFunc(ops, func(a, b tgsi.Opcode) int {
		if counts[a] != counts[b] {
			return counts[b] - counts[a]
		}
		return int(a) - int(b)
	})
	for _, op := range ops {
		fmt.Fprintf(w, "%-12s %d\n", op, counts[op])
	}
	return nil
}
