package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// NewOrderCommand creates the order command
func NewOrderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order <plan>",
		Short: "Print the start and stop order of a plan",
		Long: `Print the order in which the plan's modules start, and the exact
reverse order in which they stop. Unresolved and cyclic dependencies are
reported with the offending modules.

Examples:
  modactivator order plan.yaml
  modactivator order plan.toml --watch`,
		Args: cobra.ExactArgs(1),
		RunE: runOrder,
	}

	cmd.Flags().BoolP("watch", "w", false, "Recompute the order whenever the plan file changes")

	return cmd
}

func runOrder(cmd *cobra.Command, args []string) error {
	path := args[0]
	out := cmd.OutOrStdout()
	watch, _ := cmd.Flags().GetBool("watch")

	err := printOrder(out, path)
	if !watch {
		return err
	}
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return watchPlan(ctx, path, 100*time.Millisecond, func() {
		fmt.Fprintln(out, "---")
		if err := printOrder(out, path); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
		}
	})
}

func printOrder(w io.Writer, path string) error {
	plan, err := LoadPlan(path)
	if err != nil {
		return err
	}
	orch, err := plan.Orchestrator(io.Discard)
	if err != nil {
		return err
	}
	start, err := orch.StartOrder()
	if err != nil {
		return err
	}
	stop, err := orch.StopOrder()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "start: %s\n", strings.Join(start, " -> "))
	fmt.Fprintf(w, "stop:  %s\n", strings.Join(stop, " -> "))
	return nil
}

// watchPlan calls onChange after path is written or recreated, debounced by
// delay. The directory is watched so editors that replace the file are
// handled. It returns when ctx is done.
func watchPlan(ctx context.Context, path string, delay time.Duration, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	var (
		mu       sync.Mutex
		debounce *time.Timer
	)
	defer func() {
		mu.Lock()
		defer mu.Unlock()
		if debounce != nil {
			debounce.Stop()
		}
	}()

	name := filepath.Base(path)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			mu.Lock()
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(delay, onChange)
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}
}
