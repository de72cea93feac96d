// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"io"

	"github.com/xyproto/env/v2"

	"github.com/gogpu/ntt/tgsi"
)

// config holds the target capabilities selectable from the command line.
type config struct {
	nativeIntegers  bool
	anyRegAsAddress bool
	txfLZ           bool
	texcoord        bool
	loadConstbuf    bool
	maxTemps        int
	debug           bool
}

// envBool reads a boolean variable, keeping def when it is unset.
func envBool(name string, def bool) bool {
	if !env.Has(name) {
		return def
	}
	return env.Bool(name)
}

// defaultConfig starts from tgsi.DefaultCaps and applies the environment.
func defaultConfig() *config {
	caps := tgsi.DefaultCaps()
	return &config{
		nativeIntegers:  envBool("NTT_NATIVE_INTEGERS", caps.NativeIntegers),
		anyRegAsAddress: envBool("NTT_ANY_REG_AS_ADDRESS", caps.AnyRegAsAddress),
		txfLZ:           envBool("NTT_TXF_LZ", caps.TXFLZ),
		texcoord:        envBool("NTT_TEXCOORD", caps.TexcoordSemantic),
		loadConstbuf:    envBool("NTT_LOAD_CONSTBUF", caps.LoadConstbuf),
		maxTemps:        env.Int("NTT_MAX_TEMPS", caps.MaxTemps),
		debug:           envBool("NTT_DEBUG", false),
	}
}

func (c *config) register(fs *flag.FlagSet) {
	fs.BoolVar(&c.nativeIntegers, "native-integers", c.nativeIntegers, "target has integer opcodes")
	fs.BoolVar(&c.anyRegAsAddress, "any-reg-as-address", c.anyRegAsAddress, "use any register as an indirect address")
	fs.BoolVar(&c.txfLZ, "txf-lz", c.txfLZ, "use TXF_LZ for fetches with a zero lod")
	fs.BoolVar(&c.texcoord, "texcoord", c.texcoord, "map TEXn varyings to TEXCOORD")
	fs.BoolVar(&c.loadConstbuf, "load-constbuf", c.loadConstbuf, "read constant buffers with LOAD")
	fs.IntVar(&c.maxTemps, "max-temps", c.maxTemps, "temporary register limit (0: unlimited)")
	fs.BoolVar(&c.debug, "debug", c.debug, "log the input shader and the program to stderr")
}

// caps applies the configuration on top of tgsi.DefaultCaps.
func (c *config) caps() tgsi.Caps {
	caps := tgsi.DefaultCaps()
	caps.NativeIntegers = c.nativeIntegers
	caps.AnyRegAsAddress = c.anyRegAsAddress
	caps.TXFLZ = c.txfLZ
	caps.TexcoordSemantic = c.texcoord
	caps.LoadConstbuf = c.loadConstbuf
	caps.MaxTemps = c.maxTemps
	return caps
}

// options builds translation options. Debug records go to logw.
func (c *config) options(logw io.Writer) *tgsi.Options {
	opts := &tgsi.Options{Caps: c.caps(), Debug: c.debug}
	if c.debug {
		opts.Logger = debugLogger(logw)
	}
	return opts
}
