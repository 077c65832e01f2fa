package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/josephgoksu/tasksync/store"
)

// HandleFatalError handles unrecoverable errors that should terminate the application.
func HandleFatalError(userMsg string, technicalErr error) {
	PrintError(userMsg, technicalErr)
	os.Exit(1)
}

// PrintError prints an error message without exiting, allowing for recovery.
// If the --verbose flag is set, it prints the full technical error instead.
func PrintError(userMsg string, technicalErr error) {
	if isVerbose() && technicalErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", technicalErr)
	} else {
		fmt.Fprintln(os.Stderr, userMsg)
	}
}

// LogError logs an error without printing to stderr if verbose mode is off.
func LogError(msg string, err error) {
	if isVerbose() {
		if err != nil {
			fmt.Fprintf(os.Stderr, "[DEBUG] %s: %v\n", msg, err)
		} else {
			fmt.Fprintf(os.Stderr, "[DEBUG] %s\n", msg)
		}
	}
}

// friendlyError maps persistence failures to a message a user can act on.
func friendlyError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, store.ErrLockTimeout):
		return "Another tasksync process is using the task file. Try again in a moment."
	case errors.Is(err, store.ErrWriteFailed):
		return "Could not save tasks to disk. Your previous file is unchanged."
	case errors.Is(err, store.ErrRecoveryFailed):
		return "The task file and its backup could not be read. Starting with an empty list."
	case errors.Is(err, store.ErrParseFailed):
		return "The task file could not be read."
	case errors.Is(err, ErrNoTasksFound):
		return "No tasks found."
	default:
		return err.Error()
	}
}
