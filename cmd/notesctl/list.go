package main

import (
	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all notes, most recently updated first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		notes, err := newStore().List(cmd.Context())
		if err != nil {
			return err
		}
		return printNotes(cmd.OutOrStdout(), notes, listJSON)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find notes whose title or content contains the query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		notes, err := newStore().Search(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printNotes(cmd.OutOrStdout(), notes, listJSON)
	},
}

func init() {
	rootCmd.AddCommand(listCmd, searchCmd)
	for _, c := range []*cobra.Command{listCmd, searchCmd} {
		c.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	}
}
