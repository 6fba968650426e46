package util

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

func TestHashKey(t *testing.T) {
	key := HashKey("a@x.com")
	if len(key) != 64 || strings.Trim(key, "0123456789abcdef") != "" {
		t.Fatalf("expected 64 lowercase hex characters, got %q", key)
	}
	if key != HashKey("a@x.com") {
		t.Fatalf("equal subjects must share a key")
	}

	seen := map[string]string{}
	for _, subject := range []string{"a@x.com", "b@x.com", "A@x.com", "", "admin_statefree"} {
		k := HashKey(subject)
		if prev, ok := seen[k]; ok {
			t.Fatalf("subjects %q and %q collide", prev, subject)
		}
		seen[k] = subject
	}

	plain := sha256.Sum256([]byte("a@x.com"))
	if key == hex.EncodeToString(plain[:]) {
		t.Fatalf("owner key must not be the bare digest of the subject")
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "report.pdf", want: "report.pdf"},
		{in: "  notes.txt ", want: "notes.txt"},
		{in: "dir/sub\\file.bin", want: "dir_sub_file.bin"},
		{in: "tab\there", want: "tabhere"},
		{in: "../etc/passwd", wantErr: true},
		{in: "   ", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := SanitizeFileName(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidFileName) {
				t.Fatalf("SanitizeFileName(%q) expected ErrInvalidFileName, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("SanitizeFileName(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}
