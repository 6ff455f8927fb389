package storage

import (
	"errors"
	"os"
	"testing"
)

func tempStore(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempStore(t)
	content := []byte("---\ntitle: RBAC basics\n---\n# RBAC\n")
	if err := s.Write("configure-rbac.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("configure-rbac.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("read = %q, want %q", got, content)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempStore(t)
	if err := s.Write("networking/gateway-api.md", []byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := s.Read("networking/gateway-api.md"); err != nil {
		t.Fatalf("Read: %v", err)
	}
}

func TestList_OnlyMarkdown(t *testing.T) {
	s := tempStore(t)
	_ = s.Write("a.md", []byte("a"))
	_ = s.Write("b.md", []byte("b"))
	_ = s.Write("assets/diagram.svg", []byte("<svg/>"))

	metas, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("len(metas) = %d, want 2", len(metas))
	}
	for _, m := range metas {
		if m.Checksum == "" {
			t.Errorf("missing checksum for %s", m.Path)
		}
	}
}

func TestRead_NotFound(t *testing.T) {
	s := tempStore(t)
	_, err := s.Read("missing.md")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error should wrap os.ErrNotExist: %v", err)
	}
}

func TestSafePath_RejectsTraversal(t *testing.T) {
	s := tempStore(t)
	if _, err := s.Read("../outside.md"); err == nil {
		t.Error("expected traversal rejection")
	}
	if err := s.Write("../../etc/evil.md", []byte("x")); err == nil {
		t.Error("expected traversal rejection on write")
	}
}

func TestSafePath_RejectsAbsolute(t *testing.T) {
	s := tempStore(t)
	if _, err := s.Read("/etc/passwd"); err == nil {
		t.Error("expected absolute path rejection")
	}
}

func TestDelete(t *testing.T) {
	s := tempStore(t)
	_ = s.Write("gone.md", []byte("x"))
	if err := s.Delete("gone.md"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("gone.md"); err == nil {
		t.Error("file should be gone")
	}
}

func TestMove(t *testing.T) {
	s := tempStore(t)
	_ = s.Write("old.md", []byte("content"))
	if err := s.Move("old.md", "archive/new.md"); err != nil {
		t.Fatalf("Move: %v", err)
	}
	got, err := s.Read("archive/new.md")
	if err != nil {
		t.Fatalf("Read after move: %v", err)
	}
	if string(got) != "content" {
		t.Errorf("moved content = %q", got)
	}
}

func TestNewFS_MissingDir(t *testing.T) {
	if _, err := NewFS("/nonexistent/recipes-dir"); err == nil {
		t.Error("expected error for missing root")
	}
}
