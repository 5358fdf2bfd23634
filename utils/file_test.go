package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCopyFile(t *testing.T) {
	tmpDir := t.TempDir()

	srcPath := filepath.Join(tmpDir, "source.yaml")
	dstPath := filepath.Join(tmpDir, "dest.yaml")

	content := "name: Capture\ntests: []\n"
	if err := os.WriteFile(srcPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if err := CopyFile(srcPath, dstPath); err != nil {
		t.Fatalf("CopyFile() error: %v", err)
	}

	got, err := os.ReadFile(dstPath)
	if err != nil {
		t.Fatalf("failed to read dest: %v", err)
	}
	if string(got) != content {
		t.Errorf("dest content = %q, want %q", string(got), content)
	}
}

func TestCopyFile_PreservesPermissions(t *testing.T) {
	tmpDir := t.TempDir()

	srcPath := filepath.Join(tmpDir, "script.sh")
	dstPath := filepath.Join(tmpDir, "script_copy.sh")

	if err := os.WriteFile(srcPath, []byte("#!/bin/sh\necho hi\n"), 0755); err != nil {
		t.Fatal(err)
	}

	if err := CopyFile(srcPath, dstPath); err != nil {
		t.Fatalf("CopyFile() error: %v", err)
	}

	srcInfo, _ := os.Stat(srcPath)
	dstInfo, _ := os.Stat(dstPath)

	if srcInfo.Mode() != dstInfo.Mode() {
		t.Errorf("dest mode = %v, want %v", dstInfo.Mode(), srcInfo.Mode())
	}
}

func TestCopyFile_SourceNotFound(t *testing.T) {
	err := CopyFile("/nonexistent/file", filepath.Join(t.TempDir(), "dest"))
	if err == nil {
		t.Error("expected error for nonexistent source")
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "screenshots")

	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir() error: %v", err)
	}
	if !IsDir(dir) {
		t.Fatal("expected directory to exist")
	}

	// second call is a no-op
	if err := EnsureDir(dir); err != nil {
		t.Errorf("EnsureDir() on existing dir error: %v", err)
	}
}

func TestEnsureDir_FileInTheWay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "screendumps")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := EnsureDir(path); err == nil {
		t.Error("expected error when a file occupies the path")
	}
}
