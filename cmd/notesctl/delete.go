package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"notes-sync-be/internal/editor"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a note after confirmation",
	Long:  `Delete permanently removes a note. It asks first unless --yes is given.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseNoteId(args[0])
		if err != nil {
			return err
		}
		var confirmer editor.Confirmer = editor.AlwaysConfirm
		if !deleteYes {
			confirmer = promptConfirmer(cmd.InOrStdin(), cmd.ErrOrStderr())
		}
		return runDelete(cmd.Context(), newStore(), id, confirmer, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Do not ask for confirmation")
}

// runDelete goes through the editor controller so the confirmation and the
// "save in progress" guard behave as they do in the web editor.
func runDelete(ctx context.Context, store editor.Store, id uuid.UUID, confirmer editor.Confirmer, out, errOut io.Writer) error {
	ctrl := editor.NewController(store, terminalNotifier(errOut), confirmer, newLogger(), editor.Config{})
	defer ctrl.Close()

	if err := ctrl.Load(ctx); err != nil {
		return err
	}
	deleted, err := ctrl.Delete(ctx, id)
	switch {
	case errors.Is(err, editor.ErrNoteNotFound):
		return fmt.Errorf("note %s not found", id)
	case err != nil:
		return err
	case !deleted:
		warnColor.Fprintln(out, "Cancelled.")
		return nil
	}
	successColor.Fprintf(out, "Deleted %s\n", id)
	return nil
}

// promptConfirmer asks on errOut and reads a y/N answer from in.
func promptConfirmer(in io.Reader, errOut io.Writer) editor.Confirmer {
	reader := bufio.NewReader(in)
	return editor.ConfirmFunc(func(ctx context.Context, prompt string) (bool, error) {
		fmt.Fprintf(errOut, "%s [y/N] ", prompt)
		answer, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	})
}

func terminalNotifier(w io.Writer) editor.Notifier {
	return editor.NotifierFunc(func(level editor.Level, message string) {
		if level == editor.LevelError {
			errorColor.Fprintln(w, message)
			return
		}
		fmt.Fprintln(w, message)
	})
}
