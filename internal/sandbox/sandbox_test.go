package sandbox

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidatePathInside(t *testing.T) {
	root := t.TempDir()
	resolved, err := ValidatePath(root, "sub/file.txt")
	if err != nil {
		t.Fatalf("ValidatePath: %v", err)
	}
	if filepath.Base(resolved) != "file.txt" {
		t.Errorf("resolved = %q", resolved)
	}
}

func TestValidatePathEscape(t *testing.T) {
	root := t.TempDir()
	for _, p := range []string{"../outside.txt", "sub/../../x"} {
		if _, err := ValidatePath(root, p); err == nil {
			t.Errorf("ValidatePath(%q) should fail", p)
		}
	}
}

func TestValidatePathSymlinkEscape(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	link := filepath.Join(root, "link")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	if _, err := ValidatePath(root, "link/file.txt"); err == nil {
		t.Error("symlinked escape should fail validation")
	}
}

func TestCopyFile(t *testing.T) {
	root := t.TempDir()
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "artifact.pkg.tar.zst")
	if err := os.WriteFile(src, []byte("bytes"), 0640); err != nil {
		t.Fatal(err)
	}

	if err := CopyFile(root, "artifact.pkg.tar.zst", src); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(root, "artifact.pkg.tar.zst"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "bytes" {
		t.Errorf("content = %q", got)
	}

	info, _ := os.Stat(filepath.Join(root, "artifact.pkg.tar.zst"))
	if info.Mode().Perm() != 0640 {
		t.Errorf("perm = %v", info.Mode().Perm())
	}

	// No temp droppings left behind.
	entries, _ := os.ReadDir(root)
	if len(entries) != 1 {
		t.Errorf("entries = %d", len(entries))
	}
}

func TestRemove(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "stale.db")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := Remove(root, "stale.db"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file should be gone")
	}

	if err := Remove(root, "../escape"); err == nil {
		t.Error("Remove outside root should fail")
	}
}
