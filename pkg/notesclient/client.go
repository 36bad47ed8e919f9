// Package notesclient talks to a running notes server over its REST API.
// *Client satisfies editor.Store, so the same debounced controller drives both the
// websocket sessions and notesctl.
package notesclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"notes-sync-be/internal/dto"
	"notes-sync-be/internal/entity"
	"notes-sync-be/internal/errs"
	"notes-sync-be/internal/mapper"

	"github.com/google/uuid"
)

const notesPath = "/api/note/v1"

type Client struct {
	BaseURL string
	http    *http.Client
	mapper  *mapper.NoteMapper
}

// New returns a client for the server at baseURL. timeout bounds every request; zero disables it.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		mapper:  mapper.NewNoteMapper(),
	}
}

// envelope mirrors serverutils.Response on the wire.
type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) List(ctx context.Context) ([]*entity.Note, error) {
	var notes []*dto.NoteResponse
	if err := c.do(ctx, "list", http.MethodGet, notesPath, nil, &notes); err != nil {
		return nil, err
	}
	return c.mapper.FromResponses(notes), nil
}

func (c *Client) Search(ctx context.Context, query string) ([]*entity.Note, error) {
	path := notesPath
	if strings.TrimSpace(query) != "" {
		path += "?q=" + url.QueryEscape(query)
	}
	var notes []*dto.NoteResponse
	if err := c.do(ctx, "search", http.MethodGet, path, nil, &notes); err != nil {
		return nil, err
	}
	return c.mapper.FromResponses(notes), nil
}

func (c *Client) Create(ctx context.Context, req *dto.CreateNoteRequest) (*entity.Note, error) {
	if req == nil {
		req = &dto.CreateNoteRequest{}
	}
	var note dto.NoteResponse
	if err := c.do(ctx, "create", http.MethodPost, notesPath, req, &note); err != nil {
		return nil, err
	}
	return c.mapper.FromResponse(&note), nil
}

func (c *Client) Update(ctx context.Context, id uuid.UUID, req *dto.UpdateNoteRequest) (*entity.Note, error) {
	if req == nil {
		req = &dto.UpdateNoteRequest{}
	}
	var note dto.NoteResponse
	if err := c.do(ctx, "update", http.MethodPatch, notesPath+"/"+id.String(), req, &note); err != nil {
		return nil, err
	}
	return c.mapper.FromResponse(&note), nil
}

func (c *Client) Delete(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, "delete", http.MethodDelete, notesPath+"/"+id.String(), nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return errs.Wrap(op, errs.InvalidArgument, "invalid request", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return errs.Wrap(op, errs.InvalidArgument, "invalid request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return errs.Wrap(op, errs.Unavailable, "request cancelled", err)
		}
		return errs.Wrap(op, errs.Unavailable, "notes server is unreachable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.Wrap(op, errs.Unavailable, "notes server is unreachable", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := env.Message
		if decodeErr != nil || message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return errs.New(op, errs.FromHTTPStatus(resp.StatusCode), message)
	}
	if decodeErr != nil {
		return errs.Wrap(op, errs.Internal, "unexpected response from notes server", decodeErr)
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return errs.Wrap(op, errs.Internal, "unexpected response from notes server", fmt.Errorf("decode %s data: %w", op, err))
	}
	return nil
}
