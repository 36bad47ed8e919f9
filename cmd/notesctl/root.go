package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"notes-sync-be/internal/config"
	"notes-sync-be/internal/editor"
	"notes-sync-be/internal/pkg/logger"
	"notes-sync-be/pkg/notesclient"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	apiURL  string
	logFile string
	noColor bool

	clientCfg *config.ClientConfig
)

// newStore is swapped out in tests.
var newStore = func() editor.Store {
	return notesclient.New(clientCfg.APIURL, clientCfg.RequestTimeout)
}

var rootCmd = &cobra.Command{
	Use:   "notesctl",
	Short: "Work with the notes server from a terminal",
	Long: `notesctl lists, searches and edits notes on a running notes server.
Edits made with "notesctl edit" are debounced and saved the same way the web editor saves them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		clientCfg = config.LoadClient()
		if apiURL != "" {
			clientCfg.APIURL = strings.TrimRight(apiURL, "/")
		}
		if noColor {
			color.NoColor = true
		}
	},
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		errorColor.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Notes server URL (default $NOTES_API_URL)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write a JSON log of store calls to this file")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable coloured output")
}

func newLogger() logger.ILogger {
	if logFile == "" {
		return logger.NewNopLogger()
	}
	return logger.NewIsolatedLogger(logFile)
}

func parseNoteId(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid note id %q", raw)
	}
	return id, nil
}
