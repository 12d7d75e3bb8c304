package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnvFile_missingFileIsNotAnError(t *testing.T) {
	err := LoadEnvFile(filepath.Join(t.TempDir(), ".env"))
	if err != nil {
		t.Fatalf("missing .env should be a no-op, got: %v", err)
	}
}

func TestLoadEnvFile_setsVarsAndSkipsComments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	contents := "JPDICTSYNC_BASE_URL=https://dict.example.com/\n" +
		"# this line is a comment\n" +
		"\n" +
		"JPDICTSYNC_LANG=ja\n"
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	if err := LoadEnvFile(path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("JPDICTSYNC_BASE_URL"); got != "https://dict.example.com/" {
		t.Errorf("JPDICTSYNC_BASE_URL = %q", got)
	}
	if got := os.Getenv("JPDICTSYNC_LANG"); got != "ja" {
		t.Errorf("JPDICTSYNC_LANG = %q", got)
	}
}

func TestLoadEnvFile_unquotesDoubleQuotedValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte(`JPDICTSYNC_SERIES="words, kanji"`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := LoadEnvFile(path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("JPDICTSYNC_SERIES"); got != "words, kanji" {
		t.Errorf("JPDICTSYNC_SERIES = %q", got)
	}
}
