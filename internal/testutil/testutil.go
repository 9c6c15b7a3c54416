// Package testutil provides shared test helpers for databases, object storage
// and seeded records.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/starford/agencyhub/internal/models"
	"github.com/starford/agencyhub/internal/storage"
	"github.com/starford/agencyhub/internal/store"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "agencyhub-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStorage creates a temporary upload directory with a storage.FS.
func TestStorage(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, fs
}

// Client inserts a client with the given name.
func Client(t *testing.T, db *store.DB, name string) *models.Client {
	t.Helper()
	c := &models.Client{Name: name}
	if err := db.CreateClient(context.Background(), c); err != nil {
		t.Fatal(err)
	}
	return c
}

// Project inserts a medium-priority project at the bottom of status.
func Project(t *testing.T, db *store.DB, clientID, name string, status models.ProjectStatus) *models.Project {
	t.Helper()
	p := &models.Project{ClientID: clientID, Name: name, Status: status, Priority: models.PriorityMedium}
	if err := db.CreateProject(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	return p
}

// Note inserts an HTML note for clientID.
func Note(t *testing.T, db *store.DB, clientID, title, html string) *models.ContentAsset {
	t.Helper()
	a := &models.ContentAsset{
		ClientID:  clientID,
		Title:     title,
		AssetType: models.AssetNote,
		Body:      models.Body{Note: &models.NoteBody{Format: models.FormatHTML, HTML: html}},
	}
	if err := db.CreateContent(context.Background(), a); err != nil {
		t.Fatal(err)
	}
	return a
}
