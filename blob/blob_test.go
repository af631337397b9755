package blob

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestParseSASURL(t *testing.T) {
	ref, err := ParseSASURL("https://amsstorage01.blob.core.windows.net/asset-5f1c2b3e?sv=2019-02-02&sr=c&sig=abc&se=2026-10-19T20%3A00%3A00Z&sp=rwl")
	if err != nil {
		t.Fatalf("ParseSASURL failed: %v", err)
	}
	if ref.StorageAccount != "amsstorage01" {
		t.Errorf("Expected storage account amsstorage01, got %s", ref.StorageAccount)
	}
	if ref.Container != "asset-5f1c2b3e" {
		t.Errorf("Expected container asset-5f1c2b3e, got %s", ref.Container)
	}
}

func TestParseSASURLRejectsMalformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"not a url",
		"https://amsstorage01.blob.core.windows.net/",
		"://bad",
	} {
		if _, err := ParseSASURL(raw); err == nil {
			t.Errorf("Expected error for %q", raw)
		}
	}
}

func TestUploadFileMissingLocalFile(t *testing.T) {
	tr := New(nil)
	err := tr.UploadFile(context.Background(),
		"https://amsstorage01.blob.core.windows.net/asset-1?sig=abc",
		filepath.Join(t.TempDir(), "missing.mp4"))
	if err == nil {
		t.Fatal("Expected error for missing local file")
	}
	if _, statErr := os.Stat("missing.mp4"); statErr == nil {
		t.Error("Upload should not create local files")
	}
}
