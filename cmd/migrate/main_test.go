package main

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strconv"
	"testing"
)

func TestMigrationFilenamePattern(t *testing.T) {
	pattern := regexp.MustCompile(`^(\d{4})_(.+)\.sql$`)

	tests := []struct {
		filename string
		valid    bool
		version  int
		name     string
	}{
		{"0001_create_users.sql", true, 1, "create_users"},
		{"0003_create_transactions.sql", true, 3, "create_transactions"},
		{"001_invalid.sql", false, 0, ""},       // wrong number format
		{"0001_test", false, 0, ""},             // missing .sql
		{"0001.sql", false, 0, ""},              // missing name
		{"invalid_0001_test.sql", false, 0, ""}, // wrong order
		{"0001_create_users.sql.bak", false, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			matches := pattern.FindStringSubmatch(tt.filename)
			if !tt.valid {
				if matches != nil {
					t.Errorf("expected %s to be rejected", tt.filename)
				}
				return
			}
			if matches == nil {
				t.Fatalf("expected %s to match", tt.filename)
			}
			version, err := strconv.Atoi(matches[1])
			if err != nil || version != tt.version {
				t.Errorf("version = %d (%v), want %d", version, err, tt.version)
			}
			if matches[2] != tt.name {
				t.Errorf("name = %q, want %q", matches[2], tt.name)
			}
		})
	}
}

func TestMigrationChecksumConsistency(t *testing.T) {
	content := []byte("CREATE TABLE test (id INT64);")
	same := []byte("CREATE TABLE test (id INT64);")
	different := []byte("CREATE TABLE different (id INT64);")

	a := fmt.Sprintf("%x", sha256.Sum256(content))
	b := fmt.Sprintf("%x", sha256.Sum256(same))
	c := fmt.Sprintf("%x", sha256.Sum256(different))

	if a != b {
		t.Error("same content should produce the same checksum")
	}
	if a == c {
		t.Error("different content should produce different checksums")
	}
}
