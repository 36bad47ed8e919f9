package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"notes-sync-be/internal/dto"
	"notes-sync-be/internal/editor"
	"notes-sync-be/internal/pkg/logger"
	"notes-sync-be/internal/repository/memory"
	"notes-sync-be/internal/service"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryStore(t *testing.T) service.INoteService {
	t.Helper()
	color.NoColor = true
	store := service.NewNoteService(memory.NewRepositoryFactory(memory.NewNoteCache()), nil, nil, logger.NewNopLogger())

	prev := newStore
	newStore = func() editor.Store { return store }
	t.Cleanup(func() { newStore = prev })
	return store
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCreateListSearch(t *testing.T) {
	store := memoryStore(t)

	out, err := run(t, "", "create", "Groceries", "--content", "milk and eggs")
	require.NoError(t, err)
	assert.Contains(t, out, "Created")
	assert.Contains(t, out, "Groceries")

	_, err = store.Create(context.Background(), &dto.CreateNoteRequest{Title: "Todo"})
	require.NoError(t, err)

	out, err = run(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Groceries")
	assert.Contains(t, out, "Todo")
	assert.Contains(t, out, "milk and eggs")

	out, err = run(t, "", "search", "EGGS")
	require.NoError(t, err)
	assert.Contains(t, out, "Groceries")
	assert.NotContains(t, out, "Todo")
}

func TestUpdateRequiresAFlag(t *testing.T) {
	store := memoryStore(t)
	note, err := store.Create(context.Background(), &dto.CreateNoteRequest{Title: "Draft"})
	require.NoError(t, err)

	_, err = run(t, "", "update", note.Id.String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to update")

	_, err = run(t, "", "update", "not-a-uuid", "--content", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid note id")

	out, err := run(t, "", "update", note.Id.String(), "--content", "")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated")

	got, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Draft", got[0].Title, "title left alone")
}

func TestRunDelete(t *testing.T) {
	store := memoryStore(t)
	ctx := context.Background()
	note, err := store.Create(ctx, &dto.CreateNoteRequest{Title: "Old"})
	require.NoError(t, err)

	var out, errOut bytes.Buffer
	require.NoError(t, runDelete(ctx, store, note.Id, promptConfirmer(strings.NewReader("n\n"), &errOut), &out, &errOut))
	assert.Contains(t, errOut.String(), `Delete "Old"? This cannot be undone. [y/N]`)
	assert.Contains(t, out.String(), "Cancelled.")

	out.Reset()
	require.NoError(t, runDelete(ctx, store, note.Id, promptConfirmer(strings.NewReader("YES\n"), &errOut), &out, &errOut))
	assert.Contains(t, out.String(), "Deleted")

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	err = runDelete(ctx, store, uuid.New(), editor.AlwaysConfirm, &out, &errOut)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRunEditStreamsContent(t *testing.T) {
	store := memoryStore(t)
	ctx := context.Background()
	note, err := store.Create(ctx, &dto.CreateNoteRequest{Title: "Log", Content: "old"})
	require.NoError(t, err)

	var out, errOut bytes.Buffer
	err = runEdit(ctx, store, note.Id, time.Hour, strings.NewReader("first\nsecond\nthird\n"), &out, &errOut)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Saved 3 line(s)")

	got, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "first\nsecond\nthird", got[0].Content)
	assert.Equal(t, "Log", got[0].Title)
}

func TestRunEditUnknownNote(t *testing.T) {
	store := memoryStore(t)
	var out, errOut bytes.Buffer
	err := runEdit(context.Background(), store, uuid.New(), time.Millisecond, strings.NewReader("x"), &out, &errOut)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "", preview("  \n"))
	assert.Equal(t, "first", preview("first\nsecond"))
	long := strings.Repeat("é", previewLength+5)
	assert.Equal(t, strings.Repeat("é", previewLength)+"…", preview(long))
}
