/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/josephgoksu/tasksync/internal/filter"
	"github.com/josephgoksu/tasksync/internal/watch"
	"github.com/spf13/cobra"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show the task list and redraw it when the file changes",
	Long: `Show the task list and reload it whenever the task file changes on disk,
for example when another tasksync process saves.

Examples:
  tasksync watch
  tasksync watch --tag work --for 10m`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

var (
	watchTag      string
	watchDue      string
	watchFor      time.Duration
	watchDebounce time.Duration
)

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchTag, "tag", "", "show tasks with a tag containing this text")
	watchCmd.Flags().StringVar(&watchDue, "due", "", "show tasks due: today, this-week or overdue")
	watchCmd.Flags().DurationVar(&watchFor, "for", 0, "stop after this long (0 runs until interrupted)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "wait this long for changes to settle")
}

func runWatch(cmd *cobra.Command, args []string) error {
	bucket, err := filter.ParseBucket(watchDue)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if watchFor > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, watchFor)
		defer cancel()
	}

	svc, s, err := openService(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	svc.SetFilter(filter.Criteria{Tag: watchTag, Bucket: bucket})

	if err := os.MkdirAll(filepath.Dir(s.FilePath()), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	w, err := watch.New(s.FilePath(), watchDebounce, slog.Default())
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()
	if err := w.Start(ctx); err != nil {
		return err
	}

	renderView(cmd, svc, time.Now())
	for change := range w.Changes() {
		// Saves replace the file by rename, so a reload never sees a partial write.
		reload(cmd, svc, s)
		if !isJSON() {
			fmt.Fprintf(cmd.OutOrStdout(), "\n--- %s changed (%s) at %s ---\n", filepath.Base(change.Path), change.Op, change.At.Format(time.TimeOnly))
		}
		renderView(cmd, svc, time.Now())
	}
	return nil
}
