/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/josephgoksu/tasksync/internal/autosave"
	"github.com/josephgoksu/tasksync/internal/filter"
	"github.com/josephgoksu/tasksync/internal/logger"
	"github.com/josephgoksu/tasksync/internal/task"
	"github.com/josephgoksu/tasksync/internal/ui"
	"github.com/josephgoksu/tasksync/models"
	"github.com/josephgoksu/tasksync/store"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// shellCmd represents the shell command
var shellCmd = &cobra.Command{
	Use:     "shell",
	Aliases: []string{"interactive", "i"},
	Short:   "Start an interactive session with autosave",
	Long: `Start an interactive session on the task list.

Changes are saved in the background every few seconds (see autosave.interval)
and once more on exit. Type "help" inside the shell for the command list.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

var shellNoAutosave bool

func init() {
	rootCmd.AddCommand(shellCmd)

	shellCmd.Flags().BoolVar(&shellNoAutosave, "no-autosave", false, "only save on \"save\" and on exit")
}

const shellHelp = `Commands:
  add <title> [-t tags] [-d due]      add a task
  list                                show tasks matching the filter
  done <id> | undone <id>             change completion
  edit <id> [title] [-t tags] [-d due] [--clear-due]
  rm <id>                             delete a task
  filter [-t tag] [-d today|this-week|overdue]
                                      set the filter (no flags clears it)
  all                                 mark every task completed
  clear                               remove completed tasks
  restore                             replace tasks with the backup
  save                                save now
  status                              show save status
  help                                show this help
  quit                                save and exit
`

// syncWriter serializes writes from the REPL and status callbacks.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

type shell struct {
	svc    *task.Service
	store  *store.FileTaskStore
	out    io.Writer
	errOut io.Writer
	shown  atomic.Int64
}

func runShell(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, s, err := openService(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	sh := &shell{
		svc:    svc,
		store:  s,
		out:    &syncWriter{w: cmd.OutOrStdout()},
		errOut: &syncWriter{w: cmd.ErrOrStderr()},
	}
	sh.shown.Store(int64(len(svc.FilteredView())))
	svc.OnViewChange(func(view []models.Task) { sh.shown.Store(int64(len(view))) })
	svc.OnStatus(func(st task.Status) {
		if st == task.StatusError {
			fmt.Fprintf(sh.errOut, "%s %s\n", ui.StatusBadge(st), friendlyError(svc.LastSave().Err))
		}
	})

	var sched *autosave.Scheduler
	if cfg := GetConfig(); cfg.Autosave.Enabled && !shellNoAutosave {
		sched = autosave.New(svc, cfg.Autosave.Interval, slog.Default())
		sched.Start(ctx)
	}

	fmt.Fprintf(sh.out, "tasksync %s: %d task(s) in %s. Type \"help\" for commands.\n", version, svc.Len(), s.FilePath())
	sh.loop(ctx, cmd.InOrStdin())

	// Save whatever is left, even if ctx was cancelled by a signal.
	final := context.WithoutCancel(ctx)
	if sched != nil {
		err = sched.Shutdown(final)
	} else if svc.Dirty() {
		if res := svc.SaveNow(final); !res.OK() {
			err = res.Err
		}
	}
	if err != nil {
		return fmt.Errorf("%s: %w", strings.TrimSuffix(friendlyError(err), "."), err)
	}
	fmt.Fprintln(sh.out, "Bye.")
	return nil
}

func (sh *shell) loop(ctx context.Context, in io.Reader) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		if isTerminal() {
			fmt.Fprint(sh.out, "> ")
		}
		select {
		case <-ctx.Done():
			fmt.Fprintln(sh.out)
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			logger.SetLastInput(line)
			if quit := sh.exec(ctx, line); quit {
				return
			}
		}
	}
}

// exec runs one shell line and reports whether the session should end.
func (sh *shell) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	name, rest := strings.ToLower(fields[0]), fields[1:]

	var err error
	switch name {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		fmt.Fprint(sh.out, shellHelp)
	case "add", "a":
		err = sh.add(rest)
	case "list", "ls", "l":
		sh.list()
	case "done", "undone":
		err = sh.setDone(rest, name == "done")
	case "edit":
		err = sh.edit(rest)
	case "rm", "delete":
		err = sh.remove(rest)
	case "filter", "f":
		err = sh.filter(rest)
	case "all":
		if n := sh.svc.MarkAllCompleted(); n == 0 {
			fmt.Fprintln(sh.out, "No tasks to complete.")
		} else {
			fmt.Fprintf(sh.out, "Marked %d task(s) as completed.\n", n)
		}
	case "clear":
		if n := sh.svc.ClearCompleted(); n == 0 {
			fmt.Fprintln(sh.out, "No completed tasks to remove.")
		} else {
			fmt.Fprintf(sh.out, "Removed %d completed task(s).\n", n)
		}
	case "restore":
		err = sh.restore(ctx)
	case "save":
		res := <-sh.svc.SaveAsync(ctx)
		if res.OK() {
			fmt.Fprintf(sh.out, "%s %d task(s) written to %s\n", ui.StatusBadge(task.StatusSaved), res.Count, res.Path)
		}
	case "status":
		sh.status()
	default:
		err = fmt.Errorf("unknown command %q (type \"help\")", name)
	}
	if err != nil {
		fmt.Fprintf(sh.errOut, "%s %v\n", ui.Icon("✗", ui.StyleError), err)
	}
	return false
}

func newShellFlags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func (sh *shell) add(args []string) error {
	fs := newShellFlags("add")
	tags := fs.StringP("tags", "t", "", "")
	dueArg := fs.StringP("due", "d", "", "")
	if err := fs.Parse(args); err != nil {
		return err
	}
	due, err := parseDue(*dueArg, time.Now())
	if err != nil {
		return err
	}
	t, ok := sh.svc.Add(strings.Join(fs.Args(), " "), *tags, due)
	if !ok {
		return errors.New("usage: add <title> [-t tags] [-d due]")
	}
	fmt.Fprintf(sh.out, "Added %q (%s)\n", t.Title, ui.TruncateID(t.ID))
	return nil
}

func (sh *shell) list() {
	now := time.Now()
	sh.svc.Refresh()
	view := sh.svc.FilteredView()
	if summary := ui.FilterSummary(sh.svc.Filter()); summary != "" {
		fmt.Fprintln(sh.out, ui.StyleSubtle.Render(summary))
	}
	if len(view) == 0 {
		fmt.Fprintln(sh.out, "No tasks found.")
		return
	}
	fmt.Fprint(sh.out, ui.RenderTasks(view, now))
	fmt.Fprintln(sh.out, ui.Summary(view, sh.svc.Len()))
}

func (sh *shell) setDone(args []string, done bool) error {
	if len(args) == 0 {
		return errors.New("usage: done <id>")
	}
	for _, ref := range args {
		t, err := resolveTask(sh.svc, ref)
		if err != nil {
			return err
		}
		sh.svc.SetCompleted(t.ID, done)
		fmt.Fprintf(sh.out, "%s %s\n", ui.Checkbox(done), t.Title)
	}
	return nil
}

func (sh *shell) edit(args []string) error {
	fs := newShellFlags("edit")
	tags := fs.StringP("tags", "t", "", "")
	dueArg := fs.StringP("due", "d", "", "")
	clearDue := fs.Bool("clear-due", false, "")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("usage: edit <id> [title] [-t tags] [-d due] [--clear-due]")
	}
	t, err := resolveTask(sh.svc, fs.Arg(0))
	if err != nil {
		return err
	}
	if title := strings.Join(fs.Args()[1:], " "); title != "" {
		sh.svc.SetTitle(t.ID, title)
	}
	if fs.Changed("tags") {
		sh.svc.SetTags(t.ID, *tags)
	}
	if fs.Changed("due") {
		due, err := parseDue(*dueArg, time.Now())
		if err != nil {
			return err
		}
		sh.svc.SetDueDate(t.ID, due)
	}
	if *clearDue {
		sh.svc.SetDueDate(t.ID, nil)
	}
	updated, _ := sh.svc.Get(t.ID)
	fmt.Fprintf(sh.out, "Updated %q (%s)\n", updated.Title, ui.TruncateID(updated.ID))
	return nil
}

func (sh *shell) remove(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: rm <id>")
	}
	for _, ref := range args {
		t, err := resolveTask(sh.svc, ref)
		if err != nil {
			return err
		}
		sh.svc.Remove(t.ID)
		fmt.Fprintf(sh.out, "Deleted %q\n", t.Title)
	}
	return nil
}

func (sh *shell) filter(args []string) error {
	fs := newShellFlags("filter")
	tag := fs.StringP("tag", "t", "", "")
	dueArg := fs.StringP("due", "d", "", "")
	if err := fs.Parse(args); err != nil {
		return err
	}
	bucket, err := filter.ParseBucket(*dueArg)
	if err != nil {
		return err
	}
	sh.svc.SetFilter(filter.Criteria{Tag: *tag, Bucket: bucket})
	if summary := ui.FilterSummary(sh.svc.Filter()); summary != "" {
		fmt.Fprintf(sh.out, "%s (%d shown)\n", summary, sh.shown.Load())
	} else {
		fmt.Fprintf(sh.out, "Filter cleared (%d shown)\n", sh.shown.Load())
	}
	return nil
}

func (sh *shell) restore(ctx context.Context) error {
	res := sh.store.LoadBackup(ctx)
	switch res.Outcome {
	case store.OutcomeLoaded:
	case store.OutcomeBackupMissing:
		return fmt.Errorf("no backup found at %s", sh.store.BackupPath())
	default:
		return fmt.Errorf("backup is unreadable: %w", res.Err)
	}
	sh.svc.Replace(res.Tasks)
	fmt.Fprintf(sh.out, "Restored %d task(s) from the backup.\n", len(res.Tasks))
	return nil
}

func (sh *shell) status() {
	st := sh.svc.Status()
	fmt.Fprintf(sh.out, "%s %d task(s), %d shown", ui.StatusBadge(st), sh.svc.Len(), sh.shown.Load())
	if last := sh.svc.LastSave(); !last.At.IsZero() {
		fmt.Fprintf(sh.out, ", last save %s", last.At.Format(time.Kitchen))
	}
	fmt.Fprintln(sh.out)
}
