package kv

import (
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateIdempotent(t *testing.T) {
	db := testDB(t)

	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != 1 {
		t.Errorf("version = %d, want 1", result.Version)
	}
}

func TestSetGet(t *testing.T) {
	db := testDB(t)

	if err := db.Set("messages", `[{"id":"1"}]`); err != nil {
		t.Fatal(err)
	}
	v, ok, err := db.Get("messages")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("key not found after Set")
	}
	if v != `[{"id":"1"}]` {
		t.Errorf("value = %q", v)
	}

	// Overwrite.
	if err := db.Set("messages", `[]`); err != nil {
		t.Fatal(err)
	}
	v, _, _ = db.Get("messages")
	if v != `[]` {
		t.Errorf("value after overwrite = %q, want []", v)
	}
}

func TestGetMissingKey(t *testing.T) {
	db := testDB(t)

	_, ok, err := db.Get("absent")
	if err != nil {
		t.Fatalf("missing key must not be an error, got %v", err)
	}
	if ok {
		t.Error("ok = true for missing key")
	}
}

func TestRemove(t *testing.T) {
	db := testDB(t)

	if err := db.Set("k", "v"); err != nil {
		t.Fatal(err)
	}
	if err := db.Remove("k"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := db.Get("k"); ok {
		t.Error("key still present after Remove")
	}

	// Removing an absent key is a no-op.
	if err := db.Remove("k"); err != nil {
		t.Errorf("second Remove() error = %v", err)
	}
}

func TestRemoveMany(t *testing.T) {
	db := testDB(t)

	for _, k := range []string{"a", "b", "c"} {
		if err := db.Set(k, k); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.RemoveMany([]string{"a", "c", "missing"}); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := db.Get("a"); ok {
		t.Error("a still present")
	}
	if _, ok, _ := db.Get("b"); !ok {
		t.Error("b should survive")
	}
	if _, ok, _ := db.Get("c"); ok {
		t.Error("c still present")
	}

	if err := db.RemoveMany(nil); err != nil {
		t.Errorf("RemoveMany(nil) error = %v", err)
	}
}
