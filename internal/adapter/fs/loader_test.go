package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoaderSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grandma.txt")
	writeFile(t, path, "할머니는 매주 일요일 사과파이를 굽는다.")

	docs, err := NewLoader(NewWalker(nil, nil)).Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if docs[0].Text != "할머니는 매주 일요일 사과파이를 굽는다." {
		t.Errorf("unexpected text: %q", docs[0].Text)
	}
	if docs[0].ID == "" {
		t.Error("expected document ID")
	}
}

func TestLoaderDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.txt"), "b")
	writeFile(t, filepath.Join(dir, "a.txt"), "a")
	writeFile(t, filepath.Join(dir, "notes", "c.md"), "c")
	writeFile(t, filepath.Join(dir, "audio.wav"), "RIFF")
	writeFile(t, filepath.Join(dir, "drafts", "d.txt"), "d")

	walker := NewWalker([]string{"**/*.txt", "**/*.md"}, []string{"drafts/**"})
	docs, err := NewLoader(walker).Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, d := range docs {
		names = append(names, filepath.Base(d.Path))
	}
	want := []string{"a.txt", "b.txt", "c.md"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("expected %v, got %v", want, names)
			break
		}
	}
}

func TestLoaderErrors(t *testing.T) {
	if _, err := NewLoader(NewWalker(nil, nil)).Load("/nonexistent/corpus.txt"); err == nil {
		t.Error("expected error for unreadable source")
	}

	empty := t.TempDir()
	if _, err := NewLoader(NewWalker([]string{"**/*.txt"}, nil)).Load(empty); err == nil {
		t.Error("expected error for directory without documents")
	}

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.txt")
	if err := os.WriteFile(bad, []byte{0xff, 0xfe, 0xfd}, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewLoader(NewWalker(nil, nil)).Load(bad); err == nil {
		t.Error("expected error for invalid UTF-8")
	}
}
