package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileStore_LoadMissing(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "macros.txt"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	data, err := store.Load()
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if len(data) != 0 {
		t.Errorf("expected empty document, got %q", data)
	}
}

func TestFileStore_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "macros.txt")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	content := "[a]\nKitchen stop\n"
	if err := store.Save([]byte(content)); err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	if err := store.Save([]byte(content + "\n[b]\nOffice stop\n")); err != nil {
		t.Fatalf("failed to overwrite: %v", err)
	}

	data, err := store.Load()
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if string(data) != content+"\n[b]\nOffice stop\n" {
		t.Errorf("unexpected content %q", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the macro file, found %d entries", len(entries))
	}

	if store.Location() != path || store.Kind() != "file" {
		t.Errorf("unexpected location/kind: %s %s", store.Location(), store.Kind())
	}
}

func TestBoltStore_SaveLoadReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "macros.db")

	store, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("failed to open bolt store: %v", err)
	}

	data, err := store.Load()
	if err != nil {
		t.Fatalf("failed to load empty store: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("expected empty document, got %q", data)
	}

	if err := store.Save([]byte("[a]\nKitchen stop\n")); err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close: %v", err)
	}

	reopened, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("failed to reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	data, err = reopened.Load()
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if string(data) != "[a]\nKitchen stop\n" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore("x")

	data, _ := store.Load()
	data[0] = 'y'
	again, _ := store.Load()
	if string(again) != "x" {
		t.Errorf("Load must return a copy, got %q", again)
	}

	store.Set("external")
	data, _ = store.Load()
	if string(data) != "external" {
		t.Errorf("expected external edit, got %q", data)
	}
}

func TestWatch_NotifiesOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "macros.txt")
	if err := os.WriteFile(path, []byte("[a]\nKitchen stop\n"), 0644); err != nil {
		t.Fatalf("failed to seed file: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fired := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 10*time.Millisecond, func() {
			select {
			case fired <- struct{}{}:
			default:
			}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	store, _ := NewFileStore(path)
	if err := store.Save([]byte("[b]\nOffice stop\n")); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("expected watch callback after write")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	store, err := Open("file", filepath.Join(dir, "macros.txt"), "")
	if err != nil || store.Kind() != "file" {
		t.Fatalf("expected file store, got %v, %v", store, err)
	}

	store, err = Open("bolt", "", filepath.Join(dir, "macros.db"))
	if err != nil || store.Kind() != "bolt" {
		t.Fatalf("expected bolt store, got %v, %v", store, err)
	}
	_ = store.(*BoltStore).Close()

	if _, err := Open("s3", "", ""); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend, got %v", err)
	}
}
