package plan_test

import (
	"testing"

	"github.com/jpdictsync/jpdictsync/internal/dictmodel"
	"github.com/jpdictsync/jpdictsync/internal/plan"
)

func v(major, minor, patch int) dictmodel.Version {
	return dictmodel.Version{Major: major, Minor: minor, Patch: patch}
}

func TestCompute_ResetWhenNoCurrent(t *testing.T) {
	latest := dictmodel.ManifestEntry{Version: v(1, 0, 0)}
	p, err := plan.Compute(nil, latest)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if p.Kind != dictmodel.PlanReset || len(p.Files) != 1 || p.Files[0].Format != dictmodel.FormatFull {
		t.Fatalf("got %+v, want single full reset", p)
	}
}

// S4 — full partitioned words, currentVersion absent.
func TestCompute_ResetPartitioned(t *testing.T) {
	latest := dictmodel.ManifestEntry{Version: v(1, 1, 2), Parts: 3}
	p, err := plan.Compute(nil, latest)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if p.Kind != dictmodel.PlanReset || len(p.Files) != 3 {
		t.Fatalf("got %+v, want 3-part reset", p)
	}
	for i, f := range p.Files {
		if f.Format != dictmodel.FormatFull || f.Part != i+1 || !f.Version.Equal(v(1, 1, 2)) {
			t.Fatalf("file %d = %+v, want full part %d at 1.1.2", i, f, i+1)
		}
	}
}

// S5 — patch update, current 1.1.0, latest 1.1.2 parts:3 (monolithic current, no partInfo).
func TestCompute_PatchedUpdate(t *testing.T) {
	current := &dictmodel.CurrentVersion{Version: v(1, 1, 0)}
	latest := dictmodel.ManifestEntry{Version: v(1, 1, 2), Parts: 3}
	p, err := plan.Compute(current, latest)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if p.Kind != dictmodel.PlanUpdate || len(p.Files) != 2 {
		t.Fatalf("got %+v, want 2 patch files", p)
	}
	want := []dictmodel.Version{v(1, 1, 1), v(1, 1, 2)}
	for i, f := range p.Files {
		if f.Format != dictmodel.FormatPatch || !f.Version.Equal(want[i]) {
			t.Fatalf("file %d = %+v, want patch %s", i, f, want[i])
		}
	}
}

// S6 — resume with small patch gap.
func TestCompute_ResumeSmallGap(t *testing.T) {
	current := &dictmodel.CurrentVersion{
		Version:  v(1, 1, 0),
		PartInfo: &dictmodel.PartInfo{Part: 1, Parts: 3},
	}
	latest := dictmodel.ManifestEntry{Version: v(1, 1, 2), Parts: 3}
	p, err := plan.Compute(current, latest)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if p.Kind != dictmodel.PlanUpdate || len(p.Files) != 4 {
		t.Fatalf("got %+v, want 4 files", p)
	}
	if p.Files[0].Format != dictmodel.FormatFull || p.Files[0].Part != 2 || !p.Files[0].Version.Equal(v(1, 1, 0)) {
		t.Fatalf("file 0 = %+v, want full part 2 at 1.1.0", p.Files[0])
	}
	if p.Files[1].Format != dictmodel.FormatFull || p.Files[1].Part != 3 || !p.Files[1].Version.Equal(v(1, 1, 0)) {
		t.Fatalf("file 1 = %+v, want full part 3 at 1.1.0", p.Files[1])
	}
	if p.Files[2].Format != dictmodel.FormatPatch || !p.Files[2].Version.Equal(v(1, 1, 1)) {
		t.Fatalf("file 2 = %+v, want patch 1.1.1", p.Files[2])
	}
	if p.Files[3].Format != dictmodel.FormatPatch || !p.Files[3].Version.Equal(v(1, 1, 2)) {
		t.Fatalf("file 3 = %+v, want patch 1.1.2", p.Files[3])
	}
	if plan.WasResumeAbandoned(current, latest) {
		t.Fatal("small gap resume should not be marked abandoned")
	}
}

// S7 — resume abandoned (>10 patches).
func TestCompute_ResumeAbandoned(t *testing.T) {
	current := &dictmodel.CurrentVersion{
		Version:  v(1, 1, 0),
		PartInfo: &dictmodel.PartInfo{Part: 1, Parts: 3},
	}
	latest := dictmodel.ManifestEntry{Version: v(1, 1, 20), Parts: 3}
	p, err := plan.Compute(current, latest)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if p.Kind != dictmodel.PlanReset || len(p.Files) != 3 {
		t.Fatalf("got %+v, want 3-part reset", p)
	}
	for i, f := range p.Files {
		if !f.Version.Equal(v(1, 1, 20)) || f.Part != i+1 {
			t.Fatalf("file %d = %+v, want full part %d at 1.1.20", i, f, i+1)
		}
	}
	if !plan.WasResumeAbandoned(current, latest) {
		t.Fatal("large gap resume should be marked abandoned")
	}
}

func TestCompute_ExactMatchIsEmpty(t *testing.T) {
	current := &dictmodel.CurrentVersion{Version: v(1, 1, 2)}
	latest := dictmodel.ManifestEntry{Version: v(1, 1, 2)}
	p, err := plan.Compute(current, latest)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !p.Empty() {
		t.Fatalf("got %+v, want empty plan", p)
	}
}

func TestCompute_ExactMatchPartitionedIsEmpty(t *testing.T) {
	current := &dictmodel.CurrentVersion{
		Version:  v(1, 1, 2),
		PartInfo: &dictmodel.PartInfo{Part: 3, Parts: 3},
	}
	latest := dictmodel.ManifestEntry{Version: v(1, 1, 2), Parts: 3}
	p, err := plan.Compute(current, latest)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !p.Empty() {
		t.Fatalf("got %+v, want empty plan", p)
	}
}

// A partitioned download interrupted before its last part, with no new patch
// published since, must resume its remaining parts rather than being treated
// as already complete.
func TestCompute_ResumeIncompleteAtSameVersion(t *testing.T) {
	current := &dictmodel.CurrentVersion{
		Version:  v(1, 1, 0),
		PartInfo: &dictmodel.PartInfo{Part: 1, Parts: 3},
	}
	latest := dictmodel.ManifestEntry{Version: v(1, 1, 0), Parts: 3}
	p, err := plan.Compute(current, latest)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if p.Empty() {
		t.Fatal("incomplete partitioned download at the same version must not be empty")
	}
	if p.Kind != dictmodel.PlanUpdate || len(p.Files) != 2 {
		t.Fatalf("got %+v, want 2 remaining parts", p)
	}
	if p.Files[0].Format != dictmodel.FormatFull || p.Files[0].Part != 2 {
		t.Fatalf("file 0 = %+v, want full part 2", p.Files[0])
	}
	if p.Files[1].Format != dictmodel.FormatFull || p.Files[1].Part != 3 {
		t.Fatalf("file 1 = %+v, want full part 3", p.Files[1])
	}
	if plan.WasResumeAbandoned(current, latest) {
		t.Fatal("resuming within the patch-gap limit should not be marked abandoned")
	}
}

func TestCompute_DatabaseTooOld(t *testing.T) {
	current := &dictmodel.CurrentVersion{Version: v(1, 2, 0)}
	latest := dictmodel.ManifestEntry{Version: v(1, 1, 0)}
	_, err := plan.Compute(current, latest)
	derr, ok := err.(*dictmodel.Error)
	if !ok || derr.Code != dictmodel.ErrDatabaseTooOld {
		t.Fatalf("got %v, want DatabaseTooOld", err)
	}
}

func TestCompute_MajorMinorMismatchResets(t *testing.T) {
	current := &dictmodel.CurrentVersion{Version: v(1, 0, 5)}
	latest := dictmodel.ManifestEntry{Version: v(1, 1, 0)}
	p, err := plan.Compute(current, latest)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if p.Kind != dictmodel.PlanReset {
		t.Fatalf("got kind %v, want reset on minor bump", p.Kind)
	}
}
