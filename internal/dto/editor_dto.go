package dto

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Editor websocket frame types.
const (
	EditorFrameLoad         = "load"
	EditorFrameSelect       = "select"
	EditorFrameEdit         = "edit"
	EditorFrameCreate       = "create"
	EditorFrameDelete       = "delete"
	EditorFrameSearch       = "search"
	EditorFrameSearchNow    = "search_now"
	EditorFrameFlush        = "flush"
	EditorFrameConfirmReply = "confirm_reply"

	EditorFrameState        = "state"
	EditorFrameNotification = "notification"
	EditorFrameConfirm      = "confirm"
	EditorFrameError        = "error"
)

// EditorInboundFrame is a client -> server frame. Only the fields of its type are set.
type EditorInboundFrame struct {
	Type      string `json:"type"`
	Id        string `json:"id,omitempty"`
	Field     string `json:"field,omitempty"`
	Value     string `json:"value,omitempty"`
	Query     string `json:"query,omitempty"`
	RequestId string `json:"request_id,omitempty"`
	Confirmed bool   `json:"confirmed,omitempty"`
}

type EditorOutboundFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type EditorStateResponse struct {
	Notes    []*NoteResponse `json:"notes"`
	ActiveId *uuid.UUID      `json:"active_id"`
	Query    string          `json:"query"`
	Loading  bool            `json:"loading"`
	Saving   bool            `json:"saving"`
}

type EditorNotificationResponse struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

type EditorConfirmRequest struct {
	RequestId string `json:"request_id"`
	Prompt    string `json:"prompt"`
}

type EditorErrorResponse struct {
	Message string `json:"message"`
}
