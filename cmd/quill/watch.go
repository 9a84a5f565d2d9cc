package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"quill-lang/internal/engine"
)

// settle lets editors finish writing before the file is reread.
const settle = 50 * time.Millisecond

// watch runs path once, then again after every change until ctx is done or
// the process is interrupted. Each run gets a fresh interpreter.
func (a *app) watch(ctx context.Context, path string, stdout, stderr io.Writer) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file by renaming, so watch the directory.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	rerun := func() {
		_, err := engine.RunFile(abs,
			engine.WithOutput(stdout),
			engine.WithLogger(a.logger),
			engine.WithResolver(a.resolver()),
		)
		if err != nil {
			printError(stderr, err)
		}
		fmt.Fprintf(stderr, "%s-- watching %s (Ctrl+C to stop)%s\n", colorGray, path, colorReset)
	}
	rerun()

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			a.logger.Debug("file changed", "path", ev.Name, "op", ev.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(settle, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(stderr, "watch error: %v\n", err)
		case <-fire:
			rerun()
		}
	}
}
