package main

import (
	"context"
	"fmt"
	"time"

	"notes-sync-be/pkg/events"
	pktNats "notes-sync-be/pkg/nats"

	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print note events as they are published",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sub, err := pktNats.NewSubscriber(clientCfg.NatsURL)
		if err != nil {
			return err
		}
		defer sub.Close()

		out := cmd.OutOrStdout()
		idColor.Fprintf(out, "Listening on %s (Ctrl+C to stop)\n", clientCfg.NatsURL)
		return sub.Tail(cmd.Context(), pktNats.SubjectPrefix+">", func(ctx context.Context, event events.Event) error {
			idColor.Fprintf(out, "%s ", event.Timestamp().Local().Format(time.TimeOnly))
			eventColor(event.EventType()).Fprintf(out, "%-13s", event.EventType())
			payload := event.Payload()
			idColor.Fprintf(out, " %v", payload["note_id"])
			if title, ok := payload["title"].(string); ok {
				titleColor.Fprintf(out, " %s", title)
			}
			fmt.Fprintln(out)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
}
