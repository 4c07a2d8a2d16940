package history

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_AppendAndList(t *testing.T) {
	s := openTestStore(t)

	first, err := s.Append("Account.Industry", "picklist-deploy", "completed", "")
	if err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
	if first.ID == "" || first.Timestamp.IsZero() {
		t.Errorf("entry = %+v, want assigned ID and timestamp", first)
	}

	time.Sleep(2 * time.Millisecond) // distinct timestamps for ordering
	if _, err := s.Append("Account", "migration-run", "failed", "describe failed"); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}

	entries, err := s.List(0)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("List returned %d entries, want 2", len(entries))
	}
	// Newest first.
	if entries[0].Action != "migration-run" {
		t.Errorf("entries[0].Action = %s, want migration-run", entries[0].Action)
	}
	if entries[0].ErrorMessage != "describe failed" {
		t.Errorf("entries[0].ErrorMessage = %q, want describe failed", entries[0].ErrorMessage)
	}
	if entries[1].ObjectName != "Account.Industry" {
		t.Errorf("entries[1].ObjectName = %s, want Account.Industry", entries[1].ObjectName)
	}
}

func TestStore_ListLimit(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < 5; i++ {
		if _, err := s.Append("Account", "migration-run", "completed", ""); err != nil {
			t.Fatalf("Append returned error: %v", err)
		}
	}
	entries, err := s.List(3)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("List(3) returned %d entries, want 3", len(entries))
	}
}

func TestStore_Settings(t *testing.T) {
	s := openTestStore(t)

	// Missing keys read as empty, not as an error.
	v, err := s.GetSetting("theme")
	if err != nil || v != "" {
		t.Errorf("GetSetting(missing) = (%q, %v), want (\"\", nil)", v, err)
	}

	if err := s.PutSetting("theme", "dark"); err != nil {
		t.Fatalf("PutSetting returned error: %v", err)
	}
	if err := s.PutSetting("theme", "light"); err != nil {
		t.Fatalf("PutSetting overwrite returned error: %v", err)
	}

	v, err = s.GetSetting("theme")
	if err != nil {
		t.Fatalf("GetSetting returned error: %v", err)
	}
	if v != "light" {
		t.Errorf("GetSetting = %q, want light (last write wins)", v)
	}
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if _, err := s.Append("Account", "migration-run", "completed", ""); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
	s.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer s2.Close()
	entries, err := s2.List(0)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("persisted entries = %d, want 1", len(entries))
	}
}
