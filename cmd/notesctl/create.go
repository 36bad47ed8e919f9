package main

import (
	"errors"
	"strings"

	"notes-sync-be/internal/dto"

	"github.com/spf13/cobra"
)

var (
	createContent string
	updateTitle   string
	updateContent string
)

var createCmd = &cobra.Command{
	Use:   "create [title]",
	Short: "Create a note (titled Untitled when no title is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &dto.CreateNoteRequest{Content: createContent}
		if len(args) == 1 {
			req.Title = strings.TrimSpace(args[0])
		}
		note, err := newStore().Create(cmd.Context(), req)
		if err != nil {
			return err
		}
		successColor.Fprint(cmd.OutOrStdout(), "Created ")
		return printNote(cmd.OutOrStdout(), note, false)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change a note's title or content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseNoteId(args[0])
		if err != nil {
			return err
		}

		req := &dto.UpdateNoteRequest{}
		if cmd.Flags().Changed("title") {
			req.Title = &updateTitle
		}
		if cmd.Flags().Changed("content") {
			req.Content = &updateContent
		}
		if req.IsEmpty() {
			return errors.New("nothing to update: pass --title and/or --content")
		}

		note, err := newStore().Update(cmd.Context(), id, req)
		if err != nil {
			return err
		}
		successColor.Fprint(cmd.OutOrStdout(), "Updated ")
		return printNote(cmd.OutOrStdout(), note, false)
	},
}

func init() {
	rootCmd.AddCommand(createCmd, updateCmd)
	createCmd.Flags().StringVar(&createContent, "content", "", "Initial content")
	updateCmd.Flags().StringVar(&updateTitle, "title", "", "New title")
	updateCmd.Flags().StringVar(&updateContent, "content", "", "New content")
}
