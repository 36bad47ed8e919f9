package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"notes-sync-be/internal/editor"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Stream stdin into a note's content",
	Long: `edit replaces the note's content with what is read from stdin, one line at a time.
Every line is an edit; edits are saved after a pause in input and once more at end of input.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseNoteId(args[0])
		if err != nil {
			return err
		}
		return runEdit(cmd.Context(), newStore(), id, clientCfg.SaveDelay, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
}

func runEdit(ctx context.Context, store editor.Store, id uuid.UUID, saveDelay time.Duration, in io.Reader, out, errOut io.Writer) error {
	var failures atomic.Int32
	notify := terminalNotifier(errOut)
	notifier := editor.NotifierFunc(func(level editor.Level, message string) {
		if level == editor.LevelError {
			failures.Add(1)
		}
		notify.Notify(level, message)
	})

	ctrl := editor.NewController(store, notifier, nil, newLogger(), editor.Config{SaveDelay: saveDelay})
	if err := ctrl.Load(ctx); err != nil {
		ctrl.Close()
		return err
	}
	if err := ctrl.Select(id); err != nil {
		ctrl.Close()
		if errors.Is(err, editor.ErrNoteNotFound) {
			return fmt.Errorf("note %s not found", id)
		}
		return err
	}

	var content strings.Builder
	lines := 0
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		if lines > 0 {
			content.WriteByte('\n')
		}
		content.WriteString(scanner.Text())
		lines++
		if err := ctrl.Edit(id, editor.FieldContent, content.String()); err != nil {
			ctrl.Close()
			return err
		}
	}
	readErr := scanner.Err()

	// Close flushes whatever is still pending and waits for it.
	ctrl.Close()

	if readErr != nil {
		return fmt.Errorf("read stdin: %w", readErr)
	}
	if n := failures.Load(); n > 0 {
		return fmt.Errorf("%d save(s) failed", n)
	}
	successColor.Fprintf(out, "Saved %d line(s) to %s\n", lines, id)
	return nil
}
