// Integration test: exercises the real sqlite store and a real HTTP server
// end to end, the way cmd/plex-tuner's integration test exercises a real
// provider. No network credentials are needed here since the dictionary
// server is faked locally with httptest.
package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jpdictsync/jpdictsync/internal/config"
	"github.com/jpdictsync/jpdictsync/internal/dictmodel"
	"github.com/jpdictsync/jpdictsync/internal/metrics"
	"github.com/jpdictsync/jpdictsync/internal/store/sqlitestore"
	"github.com/jpdictsync/jpdictsync/internal/version"
)

func header(major, minor, patch int, records string) string {
	return fmt.Sprintf(`{"type":"header","version":{"major":%d,"minor":%d,"patch":%d},"records":%s,"format":"full"}`,
		major, minor, patch, records)
}

func TestIntegration_syncPassPopulatesStore(t *testing.T) {
	version.ClearCache()

	manifest := `{"kanji":{"1":{"major":1,"minor":0,"patch":0,"databaseVersion":"175","dateOfCreation":"2019-07-09"}}}`
	body := header(1, 0, 0, "1") + "\n" + `{"id":1,"kanji":"水","onyomi":["スイ"],"kunyomi":["みず"]}` + "\n"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "version-en.json") {
			fmt.Fprint(w, manifest)
			return
		}
		if strings.HasSuffix(r.URL.Path, "1.0.0.jsonl") {
			fmt.Fprint(w, body)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	cfg := &config.Config{
		BaseURL:         srv.URL + "/",
		Series:          []dictmodel.Series{dictmodel.SeriesKanji},
		MajorVersion:    1,
		Lang:            "en",
		StorePath:       filepath.Join(t.TempDir(), "jpdict.db"),
		BatchSize:       2000,
		ProgressEpsilon: 0.02,
	}

	st := sqlitestore.New(cfg.StorePath)
	if err := st.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Destroy()

	m := metrics.New()
	runSyncPass(context.Background(), cfg, st, m)

	row, ok, err := st.GetDataVersion(dictmodel.SeriesKanji)
	if err != nil {
		t.Fatalf("GetDataVersion: %v", err)
	}
	if !ok {
		t.Fatal("expected a version row after sync")
	}
	if !row.Version.Equal(dictmodel.Version{Major: 1}) {
		t.Fatalf("got version %v, want 1.0.0", row.Version)
	}

	// Running again against the same manifest should be a no-op: the plan
	// is empty since the store is already at the latest version.
	runSyncPass(context.Background(), cfg, st, m)
	row2, ok2, err := st.GetDataVersion(dictmodel.SeriesKanji)
	if err != nil || !ok2 {
		t.Fatalf("GetDataVersion after no-op pass: ok=%v err=%v", ok2, err)
	}
	if !row2.Version.Equal(row.Version) {
		t.Fatalf("version changed on a no-op pass: %v -> %v", row.Version, row2.Version)
	}
}
