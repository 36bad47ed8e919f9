package main

import (
	"context"
	"log"
	"time"

	"notes-sync-be/internal/config"
	"notes-sync-be/internal/entity"
	"notes-sync-be/internal/repository/specification"
	"notes-sync-be/internal/repository/unitofwork"
	"notes-sync-be/pkg/database"
)

// Sample notes for a fresh development database. Titles are the idempotency key.
var sampleNotes = []entity.Note{
	{Title: "Welcome", Content: "Edits save themselves shortly after you stop typing."},
	{Title: "Groceries", Content: "milk\neggs\ncoffee"},
	{Title: "Meeting notes", Content: "Agenda:\n- release checklist\n- on-call rotation"},
}

func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, false)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	ctx := context.Background()
	uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		log.Fatal("Error: Failed to start transaction:", err)
	}
	defer uow.Rollback()
	repo := uow.NoteRepository()

	log.Println("Seeding sample notes...")

	now := time.Now().UTC()
	for i, n := range sampleNotes {
		count, err := repo.Count(ctx, specification.ByTitle{Title: n.Title})
		if err != nil {
			log.Fatalf("Error: Failed to check note '%s': %v", n.Title, err)
		}
		if count > 0 {
			log.Printf("Note '%s' already exists, skipping...", n.Title)
			continue
		}

		// Earlier entries are newer so the list order matches sampleNotes.
		n.CreatedAt = now.Add(-time.Duration(i) * time.Minute)
		n.UpdatedAt = n.CreatedAt
		if err := repo.Create(ctx, &n); err != nil {
			log.Fatalf("Error: Failed to create note '%s': %v", n.Title, err)
		}
		log.Printf("Created note '%s' (%s)", n.Title, n.Id)
	}

	if err := uow.Commit(); err != nil {
		log.Fatal("Error: Failed to commit:", err)
	}
	log.Println("Seeding completed.")
}
