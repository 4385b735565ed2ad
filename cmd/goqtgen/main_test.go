package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"goqtgen/internal/metadata"

	"github.com/google/go-cmp/cmp"
)

const descriptor = `
version: "1.0"
objects:
  - name: Counter
    namespace: demo
  - name: Timer
`

func TestClearDirectoryIfNotEmpty(t *testing.T) {
	tests := []struct {
		name     string
		files    bool
		silent   bool
		answer   string
		wantErr  bool
		wantGone bool
	}{
		{name: "empty", files: false, silent: false, wantGone: false},
		{name: "forced", files: true, silent: true, wantGone: true},
		{name: "confirmed", files: true, answer: "y\n", wantGone: true},
		{name: "declined", files: true, answer: "n\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.files {
				if err := os.WriteFile(filepath.Join(dir, "stale.h"), []byte("old"), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			var out bytes.Buffer
			err := ClearDirectoryIfNotEmpty(dir, tt.silent, strings.NewReader(tt.answer), &out)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ClearDirectoryIfNotEmpty() error = %v, wantErr %v", err, tt.wantErr)
			}
			_, statErr := os.Stat(dir)
			if gone := os.IsNotExist(statErr); gone != tt.wantGone {
				t.Errorf("directory removed = %v, want %v", gone, tt.wantGone)
			}
		})
	}
}

func TestClearDirectoryIfNotEmpty_Missing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	if err := ClearDirectoryIfNotEmpty(missing, false, strings.NewReader(""), &bytes.Buffer{}); err != nil {
		t.Fatalf("ClearDirectoryIfNotEmpty() error = %v", err)
	}
}

func TestSelectObjects(t *testing.T) {
	reader, err := metadata.ParseDescriptor([]byte(descriptor))
	if err != nil {
		t.Fatal(err)
	}

	list := filepath.Join(t.TempDir(), "objects.txt")
	if err := os.WriteFile(list, []byte("# wanted\nTimer\n\ndemo::Counter\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	objects, err := selectObjects(reader, list)
	if err != nil {
		t.Fatalf("selectObjects() error = %v", err)
	}
	names := make([]string, 0, len(objects))
	for _, object := range objects {
		names = append(names, object.QualifiedName())
	}
	if diff := cmp.Diff([]string{"Timer", "demo::Counter"}, names); diff != "" {
		t.Errorf("selectObjects() mismatch (-want +got):\n%s", diff)
	}

	if err := os.WriteFile(list, []byte("Clock\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := selectObjects(reader, list); err == nil || !strings.Contains(err.Error(), "Clock") {
		t.Errorf("selectObjects() error = %v, want unknown object Clock", err)
	}
}
