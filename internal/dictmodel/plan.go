package dictmodel

// FileFormat is the "format" field of a file header: full or patch.
type FileFormat string

const (
	FormatFull  FileFormat = "full"
	FormatPatch FileFormat = "patch"
)

// DownloadFileSpec is a tagged variant: exactly one of Full or Patch semantics
// applies, selected by Format.
//
//   - Format == FormatFull:  a full-snapshot file. Part is non-zero iff the
//     series is partitioned (1-based part index).
//   - Format == FormatPatch: a patch file carrying the diff from
//     Version.Patch-1 to Version.Patch. Part is always zero.
type DownloadFileSpec struct {
	Format  FileFormat
	Version Version
	Part    int // 0 when not partitioned / not applicable
}

// Partitioned reports whether this spec names one part of a partitioned full
// snapshot.
func (s DownloadFileSpec) Partitioned() bool { return s.Format == FormatFull && s.Part > 0 }

// PlanKind is the overall shape of a download plan.
type PlanKind string

const (
	PlanReset  PlanKind = "reset"
	PlanUpdate PlanKind = "update"
)

// DownloadPlan is the output of the planner: an ordered list of files to fetch
// and whether applying them requires clearing the series first.
type DownloadPlan struct {
	Kind  PlanKind
	Files []DownloadFileSpec
}

// Empty reports whether the plan has no work to do (current == latest exactly).
func (p DownloadPlan) Empty() bool { return len(p.Files) == 0 }

// FileHeader is the first JSON line of every data file.
type FileHeader struct {
	Type    string // always "header"
	Version Version
	Part    *int // nil for monolithic full files and for patch files
	Format  FileFormat
	Records int
}

// RecordMode is the effect a record has on the store: add, change, or delete.
type RecordMode string

const (
	ModeAdd    RecordMode = "add"
	ModeChange RecordMode = "change"
	ModeDelete RecordMode = "delete"
)
