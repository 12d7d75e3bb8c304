// Package plan is the C4 download planner: a pure function from (current,
// latest) version state to an ordered download plan. It performs no I/O and
// shares no mutable state with the driver, so plans can be replayed in tests
// without a live server or store.
package plan

import (
	"github.com/jpdictsync/jpdictsync/internal/dictmodel"
)

// ResumePatchGapLimit is the patch-gap threshold past which a resumed
// partitioned initial download is abandoned in favour of a full reset.
// Tunable; not derived from any documented constraint upstream.
const ResumePatchGapLimit = 10

// Compute builds the download plan to take a series from current (nil if
// absent) to latest. Returns dictmodel.ErrDatabaseTooOld if current is newer
// than latest (lexicographically), which signals a stale intermediary cache.
func Compute(current *dictmodel.CurrentVersion, latest dictmodel.ManifestEntry) (dictmodel.DownloadPlan, error) {
	if current != nil && current.Version.Compare(latest.Version) > 0 {
		return dictmodel.DownloadPlan{}, dictmodel.NewError(dictmodel.ErrDatabaseTooOld, nil)
	}

	if current != nil && sameVersionAndParts(*current, latest) {
		return dictmodel.DownloadPlan{Kind: dictmodel.PlanUpdate, Files: nil}, nil
	}

	reset := current == nil || !current.Version.SameMajorMinor(latest.Version)
	if reset {
		return resetPlan(latest), nil
	}

	if current.PartInfo != nil {
		return resumePartitionedPlan(*current, latest)
	}

	return patchedPlan(current.Version, latest), nil
}

// sameVersionAndParts reports whether current is already exactly latest, with
// no further work to do. A non-nil PartInfo means an initial partitioned
// download is still incomplete, so it never counts as "done" even when its
// version and part count already match latest; the resume branch must run so
// the remaining parts still get downloaded.
func sameVersionAndParts(current dictmodel.CurrentVersion, latest dictmodel.ManifestEntry) bool {
	if current.PartInfo != nil {
		return false
	}
	return current.Version.Equal(latest.Version) && !latest.Partitioned()
}

func resetPlan(latest dictmodel.ManifestEntry) dictmodel.DownloadPlan {
	if latest.Partitioned() {
		files := make([]dictmodel.DownloadFileSpec, 0, latest.Parts)
		for part := 1; part <= latest.Parts; part++ {
			files = append(files, dictmodel.DownloadFileSpec{
				Format:  dictmodel.FormatFull,
				Version: latest.Version,
				Part:    part,
			})
		}
		return dictmodel.DownloadPlan{Kind: dictmodel.PlanReset, Files: files}
	}
	return dictmodel.DownloadPlan{
		Kind:  dictmodel.PlanReset,
		Files: []dictmodel.DownloadFileSpec{{Format: dictmodel.FormatFull, Version: latest.Version}},
	}
}

func resumePartitionedPlan(current dictmodel.CurrentVersion, latest dictmodel.ManifestEntry) (dictmodel.DownloadPlan, error) {
	pi := current.PartInfo
	gap := latest.Version.Patch - current.Version.Patch

	if gap > ResumePatchGapLimit {
		return resetPlan(latest), nil
	}

	files := make([]dictmodel.DownloadFileSpec, 0, pi.Parts-pi.Part+gap)
	for part := pi.Part + 1; part <= pi.Parts; part++ {
		files = append(files, dictmodel.DownloadFileSpec{
			Format:  dictmodel.FormatFull,
			Version: current.Version,
			Part:    part,
		})
	}
	files = append(files, patchFiles(current.Version, latest.Version)...)
	return dictmodel.DownloadPlan{Kind: dictmodel.PlanUpdate, Files: files}, nil
}

func patchedPlan(current dictmodel.Version, latest dictmodel.ManifestEntry) dictmodel.DownloadPlan {
	return dictmodel.DownloadPlan{
		Kind:  dictmodel.PlanUpdate,
		Files: patchFiles(current, latest.Version),
	}
}

func patchFiles(current, latest dictmodel.Version) []dictmodel.DownloadFileSpec {
	files := make([]dictmodel.DownloadFileSpec, 0, latest.Patch-current.Patch)
	for p := current.Patch + 1; p <= latest.Patch; p++ {
		files = append(files, dictmodel.DownloadFileSpec{
			Format:  dictmodel.FormatPatch,
			Version: dictmodel.Version{Major: current.Major, Minor: current.Minor, Patch: p},
		})
	}
	return files
}

// WasResumeAbandoned reports whether plan is the reset-promotion outcome of
// an attempted partitioned resume specifically due to an excessive patch gap
// (the ">10 patches" planner case), i.e. whether the driver must emit a
// "reset" event before "downloadstart" per spec.md's framing rule. A reset
// caused by a plain major/minor mismatch is an ordinary reset, not a
// transition out of a partial download, so it does not qualify.
func WasResumeAbandoned(current *dictmodel.CurrentVersion, latest dictmodel.ManifestEntry) bool {
	if current == nil || current.PartInfo == nil {
		return false
	}
	if !current.Version.SameMajorMinor(latest.Version) {
		return false
	}
	gap := latest.Version.Patch - current.Version.Patch
	return gap > ResumePatchGapLimit
}
