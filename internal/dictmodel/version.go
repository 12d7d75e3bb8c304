// Package dictmodel holds the data types shared by the version resolver,
// download planner, file streamer, and record validator: version numbers,
// manifest entries, download file specs, plans, and the error taxonomy.
package dictmodel

import "fmt"

// Series identifies one of the four dictionary tables this engine can sync.
type Series string

const (
	SeriesWords    Series = "words"
	SeriesKanji    Series = "kanji"
	SeriesNames    Series = "names"
	SeriesRadicals Series = "radicals"
)

// Version is a three-component version number. Major must be >= 1 for any
// version produced by the resolver; the zero Version is only used internally
// to mean "not yet assigned".
type Version struct {
	Major int
	Minor int
	Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0, or 1 as v is less than, equal to, or greater than o,
// using lexicographic order over (Major, Minor, Patch).
func (v Version) Compare(o Version) int {
	if v.Major != o.Major {
		return cmp(v.Major, o.Major)
	}
	if v.Minor != o.Minor {
		return cmp(v.Minor, o.Minor)
	}
	return cmp(v.Patch, o.Patch)
}

func (v Version) Less(o Version) bool    { return v.Compare(o) < 0 }
func (v Version) Equal(o Version) bool   { return v.Compare(o) == 0 }
func (v Version) SameMajorMinor(o Version) bool {
	return v.Major == o.Major && v.Minor == o.Minor
}

func cmp(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// PartInfo describes one part of a partitioned snapshot: Part is 1-based and
// Parts is the total part count for that snapshot (1 <= Part <= Parts).
type PartInfo struct {
	Part  int
	Parts int
}

// ManifestEntry is the server-published record for one (series, majorVersion).
type ManifestEntry struct {
	Version         Version
	Parts           int // 0 means monolithic (no Parts field on the wire)
	DatabaseVersion string
	DateOfCreation  string
}

// Partitioned reports whether this manifest entry's full snapshot is split
// across multiple files.
func (m ManifestEntry) Partitioned() bool { return m.Parts > 1 }

// DataVersionRow is the persisted per-series version record.
type DataVersionRow struct {
	Version         Version
	PartInfo        *PartInfo // present only while a partitioned initial download is incomplete
	Lang            string
	DatabaseVersion string
	DateOfCreation  string
}

// CurrentVersion is the caller-supplied "what's already on disk" input to the
// update driver. A nil *CurrentVersion means the series is empty locally.
type CurrentVersion struct {
	Version  Version
	PartInfo *PartInfo
}
