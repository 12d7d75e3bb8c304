// Package version is the C3 version-info resolver: it fetches and validates
// the per-language manifest and extracts the entry for (series, majorVersion),
// behind a process-wide, single-slot, 3-minute cache.
package version

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jpdictsync/jpdictsync/internal/dictmodel"
	"github.com/jpdictsync/jpdictsync/internal/httpclient"
)

// cacheTTL is spec.md §4.3's "up to 3 minutes from fetch start".
const cacheTTL = 3 * time.Minute

// manifest is the parsed top-level shape: series -> majorVersion(string) -> entry.
type manifest map[string]map[string]dictmodel.ManifestEntry

type cacheEntry struct {
	fetchedAt time.Time
	manifest  manifest
}

// cache is the process-wide single-slot manifest cache, keyed by language:
// it holds at most one manifest, and a lookup for any other language misses.
var cache = struct {
	mu    sync.Mutex
	lang  string
	entry *cacheEntry
}{}

// ClearCache drops the cached manifest. Exposed so tests (and an operator
// "force refresh" action) can reset the shared state deterministically.
func ClearCache() {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.lang = ""
	cache.entry = nil
}

func cacheGet(lang string) (manifest, bool) {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	e := cache.entry
	if e == nil || cache.lang != lang {
		return nil, false
	}
	if time.Since(e.fetchedAt) > cacheTTL {
		return nil, false
	}
	return e.manifest, true
}

func cachePut(lang string, m manifest, fetchedAt time.Time) {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.lang = lang
	cache.entry = &cacheEntry{fetchedAt: fetchedAt, manifest: m}
}

// Options configures GetVersionInfo.
type Options struct {
	// ForceFetch bypasses and refreshes the cache.
	ForceFetch bool
	// Client overrides the HTTP client used (nil uses httpclient.Default()).
	Client *http.Client
}

// ManifestURL returns the manifest URL for lang, per spec.md §6.
func ManifestURL(baseURL, lang string) string {
	return baseURL + "jpdict/reader/version-" + lang + ".json"
}

// GetVersionInfo fetches (or reuses the cached) manifest for lang and returns
// the entry for (series, majorVersion). Errors are one of:
// ErrVersionFileNotFound, ErrVersionFileNotAccessible, ErrVersionFileInvalid,
// ErrMajorVersionNotFound.
func GetVersionInfo(ctx context.Context, baseURL string, series dictmodel.Series, majorVersion int, lang string, opts Options) (dictmodel.ManifestEntry, error) {
	m, err := resolveManifest(ctx, baseURL, lang, opts)
	if err != nil {
		return dictmodel.ManifestEntry{}, err
	}

	seriesEntries, ok := m[string(series)]
	if !ok {
		return dictmodel.ManifestEntry{}, dictmodel.NewURLError(dictmodel.ErrVersionFileInvalid, ManifestURL(baseURL, lang),
			fmt.Errorf("series %q not present in manifest", series))
	}
	entry, ok := seriesEntries[strconv.Itoa(majorVersion)]
	if !ok {
		return dictmodel.ManifestEntry{}, dictmodel.NewURLError(dictmodel.ErrMajorVersionNotFound, ManifestURL(baseURL, lang),
			fmt.Errorf("series %q has no major version %d", series, majorVersion))
	}
	return entry, nil
}

func resolveManifest(ctx context.Context, baseURL, lang string, opts Options) (manifest, error) {
	url := ManifestURL(baseURL, lang)

	if !opts.ForceFetch {
		if m, ok := cacheGet(lang); ok {
			return m, nil
		}
	}

	fetchStart := time.Now()
	res, err := httpclient.Fetch(ctx, opts.Client, url, httpclient.FetchOptions{})
	if err != nil {
		if derr, ok := err.(*dictmodel.Error); ok {
			switch derr.Code {
			case dictmodel.ErrNotFound:
				return nil, dictmodel.NewURLError(dictmodel.ErrVersionFileNotFound, url, derr.Err)
			default:
				return nil, dictmodel.NewURLError(dictmodel.ErrVersionFileNotAccessible, url, derr.Err)
			}
		}
		return nil, dictmodel.NewURLError(dictmodel.ErrVersionFileNotAccessible, url, err)
	}
	defer res.Body.Close()

	var raw map[string]map[string]rawEntry
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return nil, dictmodel.NewURLError(dictmodel.ErrVersionFileInvalid, url, err)
	}

	m, err := validateManifest(raw)
	if err != nil {
		return nil, dictmodel.NewURLError(dictmodel.ErrVersionFileInvalid, url, err)
	}

	cachePut(lang, m, fetchStart)
	return m, nil
}

// rawEntry mirrors the wire shape before validation.
type rawEntry struct {
	Major           json.Number `json:"major"`
	Minor           json.Number `json:"minor"`
	Patch           json.Number `json:"patch"`
	Parts           json.Number `json:"parts"`
	DatabaseVersion string      `json:"databaseVersion"`
	DateOfCreation  string      `json:"dateOfCreation"`
}

// validateManifest enforces spec.md §4.3's schema rules:
//   - each entry's "major" must match its key
//   - version components must be safe non-negative integers with major >= 1
//   - "parts", if present, must be >= 1
//   - "dateOfCreation" must be non-empty
func validateManifest(raw map[string]map[string]rawEntry) (manifest, error) {
	out := make(manifest, len(raw))
	for series, byMajor := range raw {
		entries := make(map[string]dictmodel.ManifestEntry, len(byMajor))
		for key, re := range byMajor {
			major, err := safeInt(re.Major)
			if err != nil {
				return nil, fmt.Errorf("series %q major %q: %w", series, key, err)
			}
			if strconv.Itoa(major) != key {
				return nil, fmt.Errorf("series %q: major %d does not match key %q", series, major, key)
			}
			if major < 1 {
				return nil, fmt.Errorf("series %q key %q: major must be >= 1, got %d", series, key, major)
			}
			minor, err := safeIntDefault(re.Minor, 0)
			if err != nil {
				return nil, fmt.Errorf("series %q key %q: minor: %w", series, key, err)
			}
			patch, err := safeIntDefault(re.Patch, 0)
			if err != nil {
				return nil, fmt.Errorf("series %q key %q: patch: %w", series, key, err)
			}
			parts := 0
			if re.Parts != "" {
				parts, err = safeInt(re.Parts)
				if err != nil {
					return nil, fmt.Errorf("series %q key %q: parts: %w", series, key, err)
				}
				if parts < 1 {
					return nil, fmt.Errorf("series %q key %q: parts must be >= 1, got %d", series, key, parts)
				}
			}
			if re.DateOfCreation == "" {
				return nil, fmt.Errorf("series %q key %q: dateOfCreation must be non-empty", series, key)
			}
			entries[key] = dictmodel.ManifestEntry{
				Version:         dictmodel.Version{Major: major, Minor: minor, Patch: patch},
				Parts:           parts,
				DatabaseVersion: re.DatabaseVersion,
				DateOfCreation:  re.DateOfCreation,
			}
		}
		out[series] = entries
	}
	return out, nil
}

// safeIntMax mirrors JavaScript's Number.isSafeInteger ceiling — more than
// enough headroom for version/part counters, but documents intent.
const safeIntMax = 1<<53 - 1

func safeInt(n json.Number) (int, error) {
	if n == "" {
		return 0, fmt.Errorf("missing integer value")
	}
	i, err := n.Int64()
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", n)
	}
	if i < 0 || i > safeIntMax {
		return 0, fmt.Errorf("not a safe non-negative integer: %d", i)
	}
	return int(i), nil
}

func safeIntDefault(n json.Number, def int) (int, error) {
	if n == "" {
		return def, nil
	}
	return safeInt(n)
}
