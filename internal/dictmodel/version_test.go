package dictmodel_test

import (
	"testing"

	"github.com/jpdictsync/jpdictsync/internal/dictmodel"
)

func v(major, minor, patch int) dictmodel.Version {
	return dictmodel.Version{Major: major, Minor: minor, Patch: patch}
}

func TestVersion_Compare(t *testing.T) {
	cases := []struct {
		a, b dictmodel.Version
		want int
	}{
		{v(1, 0, 0), v(1, 0, 0), 0},
		{v(1, 0, 0), v(1, 0, 1), -1},
		{v(1, 1, 0), v(1, 0, 9), 1},
		{v(2, 0, 0), v(1, 9, 9), 1},
		{v(1, 0, 0), v(2, 0, 0), -1},
	}
	for _, c := range cases {
		if got := c.a.Compare(c.b); got != c.want {
			t.Errorf("%s.Compare(%s) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestVersion_LessEqual(t *testing.T) {
	if !v(1, 0, 0).Less(v(1, 0, 1)) {
		t.Error("1.0.0 should be less than 1.0.1")
	}
	if v(1, 0, 1).Less(v(1, 0, 0)) {
		t.Error("1.0.1 should not be less than 1.0.0")
	}
	if !v(1, 2, 3).Equal(v(1, 2, 3)) {
		t.Error("identical versions should be equal")
	}
}

func TestVersion_SameMajorMinor(t *testing.T) {
	if !v(1, 2, 0).SameMajorMinor(v(1, 2, 9)) {
		t.Error("1.2.0 and 1.2.9 share major.minor")
	}
	if v(1, 2, 0).SameMajorMinor(v(1, 3, 0)) {
		t.Error("1.2.0 and 1.3.0 do not share major.minor")
	}
}

func TestVersion_String(t *testing.T) {
	if got := v(1, 2, 3).String(); got != "1.2.3" {
		t.Errorf("String() = %q, want 1.2.3", got)
	}
}

func TestManifestEntry_Partitioned(t *testing.T) {
	if (dictmodel.ManifestEntry{Parts: 0}).Partitioned() {
		t.Error("Parts 0 (monolithic) should not report Partitioned")
	}
	if (dictmodel.ManifestEntry{Parts: 1}).Partitioned() {
		t.Error("Parts 1 should not report Partitioned")
	}
	if !(dictmodel.ManifestEntry{Parts: 3}).Partitioned() {
		t.Error("Parts 3 should report Partitioned")
	}
}
