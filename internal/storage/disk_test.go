package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()

	vec := filepath.Join(dir, "utterances.npy")
	if err := os.WriteFile(vec, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "models")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "a"), []byte("ab"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "b"), []byte("c"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		paths []string
		want  int64
	}{
		{"file", []string{vec}, 5},
		{"dir", []string{sub}, 3},
		{"file and dir", []string{vec, sub}, 8},
		{"missing skipped", []string{vec, filepath.Join(dir, "nope"), sub}, 8},
		{"empty skipped", []string{"", vec}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DiskUsageBytes(tt.paths...)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %d bytes, want %d", got, tt.want)
			}
		})
	}
}

func TestDiskUsage(t *testing.T) {
	dir := t.TempDir()
	vec := filepath.Join(dir, "utterances.npy")
	db := filepath.Join(dir, "utterances.db")
	if err := os.WriteFile(vec, make([]byte, 128), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(db, make([]byte, 10), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(db+"-wal", make([]byte, 4), 0644); err != nil {
		t.Fatal(err)
	}
	u, err := DiskUsage(vec, db)
	if err != nil {
		t.Fatal(err)
	}
	if u.VectorBytes != 128 || u.DatabaseBytes != 14 || u.Total() != 142 {
		t.Errorf("usage = %+v", u)
	}

	u, err = DiskUsage(filepath.Join(dir, "missing.npy"), "")
	if err != nil {
		t.Fatal(err)
	}
	if u.Total() != 0 {
		t.Errorf("missing files should measure 0, got %+v", u)
	}
}
