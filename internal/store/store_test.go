package store

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	bolt "go.etcd.io/bbolt"

	"meld/internal/database"
)

func testDB(t *testing.T) *database.DB {
	t.Helper()
	dir, err := ioutil.TempDir("", "meld-store")
	if err != nil {
		t.Fatalf("temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	db, err := bolt.Open(filepath.Join(dir, "test.db"), 0600, nil)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &database.DB{DB: db}
}

func TestSaveAndLatest(t *testing.T) {
	ctx := context.Background()
	db := New(testDB(t))

	if err := db.Save(ctx, "housing", "id-1", []byte("v1")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := db.Save(ctx, "housing", "id-2", []byte("v2")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := db.Latest(ctx, "housing")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if string(data) != "v2" {
		t.Fatalf("Latest = %q, want the most recent version", data)
	}

	keys, err := db.Keys()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 1 || keys[0] != "housing" {
		t.Fatalf("Keys = %v, want [housing]", keys)
	}
}

func TestLatest_UnknownStack(t *testing.T) {
	db := New(testDB(t))
	if _, err := db.Latest(context.Background(), "nope"); err == nil {
		t.Fatal("unknown stack returned a snapshot")
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	db := New(testDB(t))
	if err := db.Save(ctx, "housing", "id-1", []byte("v1")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := db.Delete(ctx, "housing"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := db.Latest(ctx, "housing"); err == nil {
		t.Fatal("deleted stack still has snapshots")
	}
	keys, err := db.Keys()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("Keys = %v after delete", keys)
	}
}
