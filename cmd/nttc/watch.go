// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settle is how long a burst of events must be quiet before rebuilding.
// Editors often truncate and rewrite in separate steps.
const settle = 50 * time.Millisecond

// watchFile calls build every time path changes, until interrupted.
// Build failures are reported and watching continues.
func watchFile(path string, build func() error, stderr io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	// The directory is watched because editors replace files by renaming.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	fmt.Fprintf(stderr, "Watching %s\n", path)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	defer signal.Stop(stop)

	return watchLoop(watcher, abs, build, stderr, stop)
}

func watchLoop(watcher *fsnotify.Watcher, abs string, build func() error, stderr io.Writer, stop <-chan os.Signal) error {
	var timer <-chan time.Time
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer = time.After(settle)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(stderr, "Watch error: %v\n", err)
		case <-timer:
			timer = nil
			if _, err := os.Stat(abs); err != nil {
				continue
			}
			if err := build(); err != nil {
				fmt.Fprintf(stderr, "Compilation error: %v\n", err)
			}
		case <-stop:
			return nil
		}
	}
}
