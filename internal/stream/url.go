package stream

import (
	"fmt"

	"github.com/jpdictsync/jpdictsync/internal/dictmodel"
)

// FileURL builds the data-file URL for spec per the baseUrl/series/lang
// conventions: monolithic full, partitioned full, and patch files each use a
// distinct suffix.
func FileURL(baseURL string, series dictmodel.Series, lang string, spec dictmodel.DownloadFileSpec) string {
	vstr := fmt.Sprintf("%d.%d.%d", spec.Version.Major, spec.Version.Minor, spec.Version.Patch)
	switch spec.Format {
	case dictmodel.FormatPatch:
		return fmt.Sprintf("%sreader/%s/%s/%s-patch.jsonl", baseURL, series, lang, vstr)
	case dictmodel.FormatFull:
		if spec.Partitioned() {
			return fmt.Sprintf("%sreader/%s/%s/%s-%d.jsonl", baseURL, series, lang, vstr, spec.Part)
		}
		return fmt.Sprintf("%sreader/%s/%s/%s.jsonl", baseURL, series, lang, vstr)
	default:
		return fmt.Sprintf("%sreader/%s/%s/%s.jsonl", baseURL, series, lang, vstr)
	}
}
