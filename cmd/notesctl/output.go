package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"notes-sync-be/internal/entity"
	"notes-sync-be/internal/mapper"
	"notes-sync-be/pkg/events"

	"github.com/fatih/color"
)

var (
	idColor      = color.New(color.Faint)
	titleColor   = color.New(color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
)

const previewLength = 60

func printNotes(w io.Writer, notes []*entity.Note, asJSON bool) error {
	if asJSON {
		return writeJSON(w, mapper.NewNoteMapper().ToResponses(notes))
	}
	if len(notes) == 0 {
		warnColor.Fprintln(w, "No notes.")
		return nil
	}
	for _, n := range notes {
		idColor.Fprintf(w, "%s  ", n.Id)
		titleColor.Fprint(w, n.Title)
		fmt.Fprintf(w, "  %s\n", n.UpdatedAt.Local().Format(time.DateTime))
		if p := preview(n.Content); p != "" {
			fmt.Fprintf(w, "    %s\n", p)
		}
	}
	return nil
}

func printNote(w io.Writer, n *entity.Note, asJSON bool) error {
	if asJSON {
		return writeJSON(w, mapper.NewNoteMapper().ToResponse(n))
	}
	idColor.Fprintf(w, "%s\n", n.Id)
	titleColor.Fprintln(w, n.Title)
	if n.Content != "" {
		fmt.Fprintln(w, n.Content)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// preview is the first line of content, cut to previewLength runes.
func preview(content string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(content), "\n")
	runes := []rune(line)
	if len(runes) > previewLength {
		return string(runes[:previewLength]) + "…"
	}
	return line
}

func eventColor(eventType string) *color.Color {
	switch eventType {
	case events.NoteCreated:
		return successColor
	case events.NoteDeleted:
		return errorColor
	default:
		return warnColor
	}
}
